// Package pluginapi provides a stable surface for plugin authors by
// re-exporting selected domain concepts and rule evaluation primitives.
package pluginapi

import "rxncore/pkg/domain"

// Rule evaluation and result aliases.
type (
	// Rule is an alias of domain.Rule representing a commit-time validation hook.
	Rule = domain.Rule
	// RuleView is an alias of domain.RuleView providing a read-only view to rules.
	RuleView = domain.RuleView
	// Change is an alias of domain.Change describing a mutation considered by rules.
	Change = domain.Change
	// Result is an alias of domain.Result aggregating rule violations.
	Result = domain.Result
	// Violation is an alias of domain.Violation detailing a single rule outcome.
	Violation = domain.Violation
)

// Document entity aliases.
type (
	// Network is an alias of domain.Network, one editable document.
	Network = domain.Network
	// Node is an alias of domain.Node, a species glyph.
	Node = domain.Node
	// Reaction is an alias of domain.Reaction, a directed hyperedge.
	Reaction = domain.Reaction
	// SpeciesRef is an alias of domain.SpeciesRef, one reaction endpoint.
	SpeciesRef = domain.SpeciesRef
	// Compartment is an alias of domain.Compartment, a containment region.
	Compartment = domain.Compartment
	// Color is an alias of domain.Color.
	Color = domain.Color
)

// Severity level aliases.
const (
	SeverityBlock = domain.SeverityBlock // Block commit
	SeverityWarn  = domain.SeverityWarn  // Warn but commit
	SeverityLog   = domain.SeverityLog   // Log only
)

// Entity type aliases.
const (
	EntityNetwork     = domain.EntityNetwork
	EntityNode        = domain.EntityNode
	EntityReaction    = domain.EntityReaction
	EntityCompartment = domain.EntityCompartment
)

// Sentinel index aliases.
const (
	NoCompartment = domain.NoCompartment
	NoOriginal    = domain.NoOriginal
)
