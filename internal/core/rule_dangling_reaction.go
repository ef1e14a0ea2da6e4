package core

import (
	"context"
	"fmt"

	"rxncore/pkg/domain"
)

// NewDanglingReactionRule returns the default rule warning about reactions
// with no sources or no targets. Such reactions are legal intermediates while
// an editor wires endpoints, so the severity is warn, not block.
func NewDanglingReactionRule() domain.Rule {
	return danglingReactionRule{}
}

type danglingReactionRule struct{}

func (danglingReactionRule) Name() string { return "dangling_reaction" }

func (danglingReactionRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, neti := range view.NetworkIndices() {
		n, ok := view.FindNetwork(neti)
		if !ok {
			continue
		}
		for reai, rea := range n.Reactions {
			if len(rea.Sources) > 0 && len(rea.Targets) > 0 {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:        "dangling_reaction",
				Severity:    domain.SeverityWarn,
				Message:     fmt.Sprintf("reaction %s has %d sources and %d targets", rea.ID, len(rea.Sources), len(rea.Targets)),
				NetIndex:    neti,
				Entity:      domain.EntityReaction,
				EntityIndex: reai,
			})
		}
	}
	return res, nil
}

// DefaultRulesEngine returns an engine preloaded with the built-in rules.
func DefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewCompartmentContainmentRule())
	engine.Register(NewDanglingReactionRule())
	return engine
}
