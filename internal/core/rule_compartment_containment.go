package core

import (
	"context"
	"fmt"

	"rxncore/pkg/domain"
)

// NewCompartmentContainmentRule returns the default rule enforcing that
// compartment membership and node back-references agree: every member index a
// compartment holds names a live node pointing back at that compartment, and
// every node claiming a compartment is listed by it.
func NewCompartmentContainmentRule() domain.Rule {
	return compartmentContainmentRule{}
}

type compartmentContainmentRule struct{}

func (compartmentContainmentRule) Name() string { return "compartment_containment" }

func (compartmentContainmentRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, neti := range view.NetworkIndices() {
		n, ok := view.FindNetwork(neti)
		if !ok {
			continue
		}
		for compi, comp := range n.Compartments {
			for nodei := range comp.Nodes {
				node, live := n.Nodes[nodei]
				if live && node.Compartment == compi {
					continue
				}
				res.Violations = append(res.Violations, domain.Violation{
					Rule:        "compartment_containment",
					Severity:    domain.SeverityBlock,
					Message:     fmt.Sprintf("compartment %s lists node %d which does not reference it back", comp.ID, nodei),
					NetIndex:    neti,
					Entity:      domain.EntityCompartment,
					EntityIndex: compi,
				})
			}
		}
		for nodei, node := range n.Nodes {
			if node.Compartment == domain.NoCompartment {
				continue
			}
			comp, ok := n.Compartments[node.Compartment]
			if ok {
				if _, member := comp.Nodes[nodei]; member {
					continue
				}
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:        "compartment_containment",
				Severity:    domain.SeverityBlock,
				Message:     fmt.Sprintf("node %d claims compartment %d which does not list it", nodei, node.Compartment),
				NetIndex:    neti,
				Entity:      domain.EntityNode,
				EntityIndex: nodei,
			})
		}
	}
	return res, nil
}
