// Package kinetics provides the reference plugin: a commit-time rule warning
// about reactions that carry no rate law, plus a schema fragment describing
// the rate-law annotation it expects.
package kinetics

import (
	"context"
	"fmt"
	"strings"

	"rxncore/internal/core"
	"rxncore/pkg/pluginapi"
)

// Plugin implements the kinetics reference module.
type Plugin struct{}

// New constructs a kinetics plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return "kinetics" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.1.0" }

// Register wires the rate-law schema fragment and the missing-rate-law rule.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterSchema("reaction", map[string]any{
		"$id":  "rxncore:kinetics:reaction",
		"type": "object",
		"properties": map[string]any{
			"rateLaw": map[string]any{
				"type":        "string",
				"description": "Kinetic rate expression over species IDs and network parameters",
			},
		},
	})

	registry.RegisterRule(missingRateLawRule{})
	return nil
}

type missingRateLawRule struct{}

func (missingRateLawRule) Name() string { return "kinetics_missing_rate_law" }

func (missingRateLawRule) Evaluate(_ context.Context, view pluginapi.RuleView, _ []pluginapi.Change) (pluginapi.Result, error) {
	var result pluginapi.Result
	for _, neti := range view.NetworkIndices() {
		n, ok := view.FindNetwork(neti)
		if !ok {
			continue
		}
		for reai, rea := range n.Reactions {
			if strings.TrimSpace(rea.RateLaw) != "" {
				continue
			}
			// reactions still being wired have no endpoints yet; skip those
			if len(rea.Sources) == 0 && len(rea.Targets) == 0 {
				continue
			}
			result.Violations = append(result.Violations, pluginapi.Violation{
				Rule:        "kinetics_missing_rate_law",
				Severity:    pluginapi.SeverityWarn,
				Message:     fmt.Sprintf("reaction %s has endpoints but no rate law", rea.ID),
				NetIndex:    neti,
				Entity:      pluginapi.EntityReaction,
				EntityIndex: reai,
			})
		}
	}
	return result, nil
}
