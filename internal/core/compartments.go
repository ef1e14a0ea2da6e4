package core

import (
	"context"
	"sort"

	"rxncore/pkg/domain"
)

// AddCompartment creates a compartment and returns its index.
func (s *DocumentStore) AddCompartment(ctx context.Context, neti int, id string, x, y, w, h float64) (int, error) {
	const op = "addCompartment"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, id)
	if err != nil {
		return 0, err
	}
	if err := checkCompartmentIDFree(op, n, id, neti); err != nil {
		return 0, err
	}
	if err := checkRect(op, x, y, w, h, true, neti, id); err != nil {
		return 0, err
	}
	t := beginTx(s.state)
	mn, err := t.mutNetwork(op, neti)
	if err != nil {
		return 0, err
	}
	compi := mn.LastCompartmentIndex
	comp := domain.NewCompartment(id, x, y, w, h)
	mn.Compartments[compi] = &comp
	mn.LastCompartmentIndex++
	t.record(EntityCompartment, ActionCreate, neti, compi)
	if err := s.commit(ctx, t); err != nil {
		return 0, err
	}
	return compi, nil
}

// DeleteCompartment removes a compartment. Member nodes fall back to the base
// bucket (no compartment) rather than being deleted.
func (s *DocumentStore) DeleteCompartment(ctx context.Context, neti, compi int) error {
	const op = "deleteCompartment"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, compi)
	if err != nil {
		return err
	}
	comp, err := compartmentOf(op, n, neti, compi)
	if err != nil {
		return err
	}
	t := beginTx(s.state)
	mn, err := t.mutNetwork(op, neti)
	if err != nil {
		return err
	}
	for nodei := range comp.Nodes {
		mnode, err := t.mutNode(op, neti, nodei)
		if err != nil {
			return err
		}
		mnode.Compartment = domain.NoCompartment
	}
	delete(mn.Compartments, compi)
	t.record(EntityCompartment, ActionDelete, neti, compi)
	return s.commit(ctx, t)
}

// CompartmentIndex resolves a compartment ID to its index.
func (s *DocumentStore) CompartmentIndex(neti int, id string) (int, error) {
	const op = "compartmentIndex"
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, id)
	if err != nil {
		return 0, err
	}
	for _, i := range sortedCompartmentIndices(n) {
		if n.Compartments[i].ID == id {
			return i, nil
		}
	}
	return 0, domain.NewError(domain.CodeIDNotFound, op, neti, id)
}

// CompartmentID returns the ID of the compartment at the given index.
func (s *DocumentStore) CompartmentID(neti, compi int) (string, error) {
	comp, err := s.compartmentCopy("compartmentID", neti, compi)
	if err != nil {
		return "", err
	}
	return comp.ID, nil
}

// SetCompartmentID renames a compartment; the new ID must be free.
func (s *DocumentStore) SetCompartmentID(ctx context.Context, neti, compi int, id string) error {
	const op = "setCompartmentID"
	return s.updateCompartment(ctx, op, neti, compi, func(n *Network, comp *Compartment) error {
		if comp.ID == id {
			return nil
		}
		return checkCompartmentIDFree(op, n, id, neti, compi)
	}, func(comp *Compartment) {
		comp.ID = id
	})
}

// NumberOfCompartments counts the network's compartments.
func (s *DocumentStore) NumberOfCompartments(neti int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("numberOfCompartments", neti)
	if err != nil {
		return 0, err
	}
	return len(n.Compartments), nil
}

// CompartmentIndices returns the live compartment indices in ascending order.
func (s *DocumentStore) CompartmentIndices(neti int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("compartmentIndices", neti)
	if err != nil {
		return nil, err
	}
	return sortedCompartmentIndices(n), nil
}

// CompartmentIDs returns every compartment ID in ascending index order.
func (s *DocumentStore) CompartmentIDs(neti int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("compartmentIDs", neti)
	if err != nil {
		return nil, err
	}
	indices := sortedCompartmentIndices(n)
	out := make([]string, 0, len(indices))
	for _, i := range indices {
		out = append(out, n.Compartments[i].ID)
	}
	return out, nil
}

func sortedCompartmentIndices(n *Network) []int {
	out := make([]int, 0, len(n.Compartments))
	for i := range n.Compartments {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// NodesInCompartment returns the node indices inside the compartment, in
// ascending order. Passing NoCompartment lists the nodes outside every
// compartment.
func (s *DocumentStore) NodesInCompartment(neti, compi int) ([]int, error) {
	const op = "nodesInCompartment"
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, compi)
	if err != nil {
		return nil, err
	}
	if compi == domain.NoCompartment {
		var out []int
		for _, nodei := range sortedNodeIndices(n) {
			if n.Nodes[nodei].Compartment == domain.NoCompartment {
				out = append(out, nodei)
			}
		}
		return out, nil
	}
	comp, err := compartmentOf(op, n, neti, compi)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(comp.Nodes))
	for nodei := range comp.Nodes {
		out = append(out, nodei)
	}
	sort.Ints(out)
	return out, nil
}

// CompartmentOfNode returns the index of the node's containing compartment,
// or NoCompartment.
func (s *DocumentStore) CompartmentOfNode(neti, nodei int) (int, error) {
	node, err := s.nodeCopy("compartmentOfNode", neti, nodei)
	if err != nil {
		return 0, err
	}
	return node.Compartment, nil
}

// SetCompartmentOfNode moves a node glyph between compartments. Passing
// NoCompartment drops it to the base bucket. Membership is per glyph, so an
// alias may sit in a different compartment than its original.
func (s *DocumentStore) SetCompartmentOfNode(ctx context.Context, neti, nodei, compi int) error {
	const op = "setCompartmentOfNode"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, nodei, compi)
	if err != nil {
		return err
	}
	node, err := nodeOf(op, n, neti, nodei, compi)
	if err != nil {
		return err
	}
	if compi != domain.NoCompartment {
		if _, err := compartmentOf(op, n, neti, compi, nodei); err != nil {
			return err
		}
	}
	if node.Compartment == compi {
		return nil
	}
	t := beginTx(s.state)
	if node.Compartment != domain.NoCompartment {
		mold, err := t.mutCompartment(op, neti, node.Compartment)
		if err != nil {
			return err
		}
		delete(mold.Nodes, nodei)
	}
	if compi != domain.NoCompartment {
		mnew, err := t.mutCompartment(op, neti, compi)
		if err != nil {
			return err
		}
		mnew.Nodes[nodei] = struct{}{}
	}
	mnode, err := t.mutNode(op, neti, nodei)
	if err != nil {
		return err
	}
	mnode.Compartment = compi
	t.record(EntityNode, ActionUpdate, neti, nodei)
	return s.commit(ctx, t)
}

// CompartmentPosition returns the top-left position of the compartment.
func (s *DocumentStore) CompartmentPosition(neti, compi int) (float64, float64, error) {
	comp, err := s.compartmentCopy("compartmentPosition", neti, compi)
	if err != nil {
		return 0, 0, err
	}
	return comp.X, comp.Y, nil
}

// SetCompartmentPosition moves the compartment.
func (s *DocumentStore) SetCompartmentPosition(ctx context.Context, neti, compi int, x, y float64) error {
	const op = "setCompartmentPosition"
	return s.updateCompartment(ctx, op, neti, compi, func(n *Network, comp *Compartment) error {
		return checkCoordinate(op, x, y, neti, compi)
	}, func(comp *Compartment) {
		comp.X = x
		comp.Y = y
	})
}

// CompartmentSize returns the compartment's width and height.
func (s *DocumentStore) CompartmentSize(neti, compi int) (float64, float64, error) {
	comp, err := s.compartmentCopy("compartmentSize", neti, compi)
	if err != nil {
		return 0, 0, err
	}
	return comp.W, comp.H, nil
}

// SetCompartmentSize resizes the compartment; width and height must be
// positive.
func (s *DocumentStore) SetCompartmentSize(ctx context.Context, neti, compi int, w, h float64) error {
	const op = "setCompartmentSize"
	return s.updateCompartment(ctx, op, neti, compi, func(n *Network, comp *Compartment) error {
		return checkSize(op, w, h, true, neti, compi)
	}, func(comp *Compartment) {
		comp.W = w
		comp.H = h
	})
}

// CompartmentVolume returns the compartment's volume.
func (s *DocumentStore) CompartmentVolume(neti, compi int) (float64, error) {
	comp, err := s.compartmentCopy("compartmentVolume", neti, compi)
	if err != nil {
		return 0, err
	}
	return comp.Volume, nil
}

// SetCompartmentVolume sets the compartment's volume; it must not be negative.
func (s *DocumentStore) SetCompartmentVolume(ctx context.Context, neti, compi int, volume float64) error {
	const op = "setCompartmentVolume"
	return s.updateCompartment(ctx, op, neti, compi, func(n *Network, comp *Compartment) error {
		return checkNonNegative(op, volume, neti, compi)
	}, func(comp *Compartment) {
		comp.Volume = volume
	})
}

// CompartmentFillColor returns the compartment's fill color.
func (s *DocumentStore) CompartmentFillColor(neti, compi int) (Color, error) {
	comp, err := s.compartmentCopy("compartmentFillColor", neti, compi)
	if err != nil {
		return Color{}, err
	}
	return comp.FillColor, nil
}

// SetCompartmentFillRGB sets the fill color channels, preserving alpha.
func (s *DocumentStore) SetCompartmentFillRGB(ctx context.Context, neti, compi, r, g, b int) error {
	const op = "setCompartmentFillRGB"
	return s.updateCompartment(ctx, op, neti, compi, func(n *Network, comp *Compartment) error {
		return checkChannels(op, r, g, b, neti, compi)
	}, func(comp *Compartment) {
		comp.FillColor.R = uint8(r)
		comp.FillColor.G = uint8(g)
		comp.FillColor.B = uint8(b)
	})
}

// SetCompartmentFillAlpha sets the fill alpha as a fraction in [0, 1].
func (s *DocumentStore) SetCompartmentFillAlpha(ctx context.Context, neti, compi int, a float64) error {
	const op = "setCompartmentFillAlpha"
	return s.updateCompartment(ctx, op, neti, compi, func(n *Network, comp *Compartment) error {
		return checkAlpha(op, a, neti, compi)
	}, func(comp *Compartment) {
		comp.FillColor = comp.FillColor.WithAlphaF(a)
	})
}

// CompartmentOutlineColor returns the compartment's outline color.
func (s *DocumentStore) CompartmentOutlineColor(neti, compi int) (Color, error) {
	comp, err := s.compartmentCopy("compartmentOutlineColor", neti, compi)
	if err != nil {
		return Color{}, err
	}
	return comp.OutlineColor, nil
}

// SetCompartmentOutlineRGB sets the outline color channels, preserving alpha.
func (s *DocumentStore) SetCompartmentOutlineRGB(ctx context.Context, neti, compi, r, g, b int) error {
	const op = "setCompartmentOutlineRGB"
	return s.updateCompartment(ctx, op, neti, compi, func(n *Network, comp *Compartment) error {
		return checkChannels(op, r, g, b, neti, compi)
	}, func(comp *Compartment) {
		comp.OutlineColor.R = uint8(r)
		comp.OutlineColor.G = uint8(g)
		comp.OutlineColor.B = uint8(b)
	})
}

// SetCompartmentOutlineAlpha sets the outline alpha as a fraction in [0, 1].
func (s *DocumentStore) SetCompartmentOutlineAlpha(ctx context.Context, neti, compi int, a float64) error {
	const op = "setCompartmentOutlineAlpha"
	return s.updateCompartment(ctx, op, neti, compi, func(n *Network, comp *Compartment) error {
		return checkAlpha(op, a, neti, compi)
	}, func(comp *Compartment) {
		comp.OutlineColor = comp.OutlineColor.WithAlphaF(a)
	})
}

// CompartmentOutlineThickness returns the compartment's outline thickness.
func (s *DocumentStore) CompartmentOutlineThickness(neti, compi int) (float64, error) {
	comp, err := s.compartmentCopy("compartmentOutlineThickness", neti, compi)
	if err != nil {
		return 0, err
	}
	return comp.OutlineThickness, nil
}

// SetCompartmentOutlineThickness sets the outline thickness; it must be
// positive.
func (s *DocumentStore) SetCompartmentOutlineThickness(ctx context.Context, neti, compi int, thickness float64) error {
	const op = "setCompartmentOutlineThickness"
	return s.updateCompartment(ctx, op, neti, compi, func(n *Network, comp *Compartment) error {
		return checkPositive(op, thickness, neti, compi)
	}, func(comp *Compartment) {
		comp.OutlineThickness = thickness
	})
}

func (s *DocumentStore) compartmentCopy(op string, neti, compi int) (Compartment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, compi)
	if err != nil {
		return Compartment{}, err
	}
	comp, err := compartmentOf(op, n, neti, compi)
	if err != nil {
		return Compartment{}, err
	}
	return domain.CloneCompartment(*comp), nil
}

// updateCompartment runs a compartment-level setter as one transaction.
func (s *DocumentStore) updateCompartment(ctx context.Context, op string, neti, compi int, check func(*Network, *Compartment) error, apply func(*Compartment)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, compi)
	if err != nil {
		return err
	}
	comp, err := compartmentOf(op, n, neti, compi)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(n, comp); err != nil {
			return err
		}
	}
	t := beginTx(s.state)
	mcomp, err := t.mutCompartment(op, neti, compi)
	if err != nil {
		return err
	}
	apply(mcomp)
	t.record(EntityCompartment, ActionUpdate, neti, compi)
	return s.commit(ctx, t)
}
