package kinetics_test

import (
	"context"
	"testing"

	"rxncore/internal/core"
	"rxncore/pkg/domain"
	"rxncore/plugins/kinetics"
)

func TestRegisterContributesRuleAndSchema(t *testing.T) {
	registry := core.NewPluginRegistry()
	plugin := kinetics.New()
	if plugin.Name() != "kinetics" || plugin.Version() == "" {
		t.Fatalf("plugin identity = %s %s", plugin.Name(), plugin.Version())
	}
	if err := plugin.Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}

	rules := registry.Rules()
	if len(rules) != 1 || rules[0].Name() != "kinetics_missing_rate_law" {
		t.Fatalf("rules = %v", rules)
	}
	schemas := registry.Schemas()
	reaction, ok := schemas["reaction"]
	if !ok {
		t.Fatalf("schemas = %v", schemas)
	}
	if reaction["$id"] != "rxncore:kinetics:reaction" {
		t.Fatalf("schema id = %v", reaction["$id"])
	}
}

type staticView struct {
	networks map[int]*domain.Network
}

func (v staticView) NetworkIndices() []int {
	out := make([]int, 0, len(v.networks))
	for i := range v.networks {
		out = append(out, i)
	}
	return out
}

func (v staticView) FindNetwork(neti int) (*domain.Network, bool) {
	n, ok := v.networks[neti]
	return n, ok
}

func TestMissingRateLawRule(t *testing.T) {
	registry := core.NewPluginRegistry()
	if err := kinetics.New().Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}
	rule := registry.Rules()[0]

	net := domain.NewNetwork("demo")
	a := domain.NewNode("A", 0, 0, 10, 10)
	net.Nodes[0] = &a

	wired := domain.NewReaction("J0")
	wired.Sources[0] = domain.SpeciesRef{Stoich: 1}
	net.Reactions[0] = &wired

	skeleton := domain.NewReaction("J1")
	net.Reactions[1] = &skeleton

	lawful := domain.NewReaction("J2")
	lawful.RateLaw = "k1*A"
	lawful.Sources[0] = domain.SpeciesRef{Stoich: 1}
	net.Reactions[2] = &lawful

	res, err := rule.Evaluate(context.Background(), staticView{networks: map[int]*domain.Network{0: net}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("violations = %+v", res.Violations)
	}
	v := res.Violations[0]
	if v.Severity != domain.SeverityWarn || v.EntityIndex != 0 {
		t.Fatalf("violation = %+v", v)
	}
	if res.HasBlocking() {
		t.Fatalf("warn severity must not block")
	}
}
