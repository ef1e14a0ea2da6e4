package core

import "rxncore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Action             = domain.Action
	Change             = domain.Change
	Color              = domain.Color
	Node               = domain.Node
	Reaction           = domain.Reaction
	SpeciesRef         = domain.SpeciesRef
	Compartment        = domain.Compartment
	Network            = domain.Network
	Snapshot           = domain.Snapshot
	Severity           = domain.Severity
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Error              = domain.Error
)

const (
	EntityNetwork     = domain.EntityNetwork
	EntityNode        = domain.EntityNode
	EntityReaction    = domain.EntityReaction
	EntityCompartment = domain.EntityCompartment
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	NoCompartment = domain.NoCompartment
	NoOriginal    = domain.NoOriginal
)
