package core

import (
	"context"
	"sort"

	"rxncore/pkg/domain"
)

// AddNode creates an original node and returns its index.
func (s *DocumentStore) AddNode(ctx context.Context, neti int, id string, x, y, w, h float64) (int, error) {
	const op = "addNode"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, id)
	if err != nil {
		return 0, err
	}
	if err := checkNodeIDFree(op, n, id, neti); err != nil {
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
	nodei := mn.LastNodeIndex
	node := domain.NewNode(id, x, y, w, h)
	mn.Nodes[nodei] = &node
	mn.LastNodeIndex++
	t.record(EntityNode, ActionCreate, neti, nodei)
	if err := s.commit(ctx, t); err != nil {
		return 0, err
	}
	return nodei, nil
}

// AddAliasNode creates an alias glyph mirroring the node at originali. If
// originali itself names an alias, the new alias points at its original.
func (s *DocumentStore) AddAliasNode(ctx context.Context, neti, originali int, x, y, w, h float64) (int, error) {
	const op = "addAliasNode"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, originali)
	if err != nil {
		return 0, err
	}
	_, origIdx, err := concreteNode(op, n, neti, originali)
	if err != nil {
		return 0, err
	}
	if err := checkRect(op, x, y, w, h, true, neti, originali); err != nil {
		return 0, err
	}
	t := beginTx(s.state)
	mn, err := t.mutNetwork(op, neti)
	if err != nil {
		return 0, err
	}
	nodei := mn.LastNodeIndex
	alias := domain.NewAliasNode(origIdx, x, y, w, h)
	mn.Nodes[nodei] = &alias
	mn.LastNodeIndex++
	t.record(EntityNode, ActionCreate, neti, nodei)
	if err := s.commit(ctx, t); err != nil {
		return 0, err
	}
	return nodei, nil
}

// AliasForReaction creates an alias of the node at nodei and re-points every
// reference the reaction holds on nodei at the new alias, as one atomic step.
// The node must currently appear among the reaction's sources or targets.
func (s *DocumentStore) AliasForReaction(ctx context.Context, neti, reai, nodei int, x, y, w, h float64) (int, error) {
	const op = "aliasForReaction"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, reai, nodei)
	if err != nil {
		return 0, err
	}
	rea, err := reactionOf(op, n, neti, reai, nodei)
	if err != nil {
		return 0, err
	}
	_, origIdx, err := concreteNode(op, n, neti, nodei)
	if err != nil {
		return 0, err
	}
	if !rea.References(nodei) {
		return 0, domain.NewError(domain.CodeNodeIndexNotFound, op, neti, reai, nodei)
	}
	if err := checkRect(op, x, y, w, h, true, neti, reai, nodei); err != nil {
		return 0, err
	}
	t := beginTx(s.state)
	mn, err := t.mutNetwork(op, neti)
	if err != nil {
		return 0, err
	}
	aliasi := mn.LastNodeIndex
	alias := domain.NewAliasNode(origIdx, x, y, w, h)
	mn.Nodes[aliasi] = &alias
	mn.LastNodeIndex++
	mrea, err := t.mutReaction(op, neti, reai)
	if err != nil {
		return 0, err
	}
	if ref, ok := mrea.Sources[nodei]; ok {
		delete(mrea.Sources, nodei)
		mrea.Sources[aliasi] = ref
	}
	if ref, ok := mrea.Targets[nodei]; ok {
		delete(mrea.Targets, nodei)
		mrea.Targets[aliasi] = ref
	}
	t.record(EntityNode, ActionCreate, neti, aliasi)
	t.record(EntityReaction, ActionUpdate, neti, reai)
	if err := s.commit(ctx, t); err != nil {
		return 0, err
	}
	return aliasi, nil
}

// DeleteNode removes a node. The node must be free: referenced by no reaction
// and, for originals, mirrored by no alias.
func (s *DocumentStore) DeleteNode(ctx context.Context, neti, nodei int) error {
	const op = "deleteNode"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, nodei)
	if err != nil {
		return err
	}
	if _, err := nodeOf(op, n, neti, nodei); err != nil {
		return err
	}
	if nodeInReaction(n, nodei) || hasAliasDependents(n, nodei) {
		return domain.NewError(domain.CodeNodeNotFree, op, neti, nodei)
	}
	t := beginTx(s.state)
	mn, err := t.mutNetwork(op, neti)
	if err != nil {
		return err
	}
	delete(mn.Nodes, nodei)
	for ci, comp := range mn.Compartments {
		if _, ok := comp.Nodes[nodei]; !ok {
			continue
		}
		mc, err := t.mutCompartment(op, neti, ci)
		if err != nil {
			return err
		}
		delete(mc.Nodes, nodei)
	}
	t.record(EntityNode, ActionDelete, neti, nodei)
	return s.commit(ctx, t)
}

// NodeIndex resolves an original node ID to its index.
func (s *DocumentStore) NodeIndex(neti int, id string) (int, error) {
	const op = "nodeIndex"
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, id)
	if err != nil {
		return 0, err
	}
	for _, i := range sortedNodeIndices(n) {
		node := n.Nodes[i]
		if !node.IsAlias() && node.ID == id {
			return i, nil
		}
	}
	return 0, domain.NewError(domain.CodeIDNotFound, op, neti, id)
}

// NodeID returns the identity ID of the node, resolving aliases to their
// original.
func (s *DocumentStore) NodeID(neti, nodei int) (string, error) {
	node, err := s.concreteNodeCopy("nodeID", neti, nodei)
	if err != nil {
		return "", err
	}
	return node.ID, nil
}

// SetNodeID renames a node. Applied to an alias it renames the original; the
// new ID must be free among originals.
func (s *DocumentStore) SetNodeID(ctx context.Context, neti, nodei int, id string) error {
	const op = "setNodeID"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, nodei, id)
	if err != nil {
		return err
	}
	node, origIdx, err := concreteNode(op, n, neti, nodei)
	if err != nil {
		return err
	}
	if node.ID != id {
		if err := checkNodeIDFree(op, n, id, neti, nodei); err != nil {
			return err
		}
	}
	t := beginTx(s.state)
	mnode, err := t.mutNode(op, neti, origIdx)
	if err != nil {
		return err
	}
	mnode.ID = id
	t.record(EntityNode, ActionUpdate, neti, origIdx)
	return s.commit(ctx, t)
}

// NumberOfNodes counts nodes in the network, aliases included.
func (s *DocumentStore) NumberOfNodes(neti int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("numberOfNodes", neti)
	if err != nil {
		return 0, err
	}
	return len(n.Nodes), nil
}

// NodeIndices returns the live node indices in ascending order.
func (s *DocumentStore) NodeIndices(neti int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("nodeIndices", neti)
	if err != nil {
		return nil, err
	}
	return sortedNodeIndices(n), nil
}

// NodeIDs returns the identity ID of every node in ascending index order.
// Alias entries repeat the ID of their original.
func (s *DocumentStore) NodeIDs(neti int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("nodeIDs", neti)
	if err != nil {
		return nil, err
	}
	indices := sortedNodeIndices(n)
	out := make([]string, 0, len(indices))
	for _, i := range indices {
		id, _ := n.NodeIdentity(i)
		out = append(out, id)
	}
	return out, nil
}

func sortedNodeIndices(n *Network) []int {
	out := make([]int, 0, len(n.Nodes))
	for i := range n.Nodes {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// IsAliasNode reports whether the node at nodei is an alias glyph.
func (s *DocumentStore) IsAliasNode(neti, nodei int) (bool, error) {
	node, err := s.nodeCopy("isAliasNode", neti, nodei)
	if err != nil {
		return false, err
	}
	return node.IsAlias(), nil
}

// NodeOriginalIndex returns the index of the original a node mirrors, or
// NoOriginal for original nodes.
func (s *DocumentStore) NodeOriginalIndex(neti, nodei int) (int, error) {
	node, err := s.nodeCopy("nodeOriginalIndex", neti, nodei)
	if err != nil {
		return 0, err
	}
	return node.OriginalIndex, nil
}

// NodeCoordinate returns the node's own top-left position.
func (s *DocumentStore) NodeCoordinate(neti, nodei int) (float64, float64, error) {
	node, err := s.nodeCopy("nodeCoordinate", neti, nodei)
	if err != nil {
		return 0, 0, err
	}
	return node.X, node.Y, nil
}

// SetNodeCoordinate moves the node glyph. Geometry is owned per glyph, so
// moving an alias never moves its original.
func (s *DocumentStore) SetNodeCoordinate(ctx context.Context, neti, nodei int, x, y float64) error {
	const op = "setNodeCoordinate"
	return s.updateNode(ctx, op, neti, nodei, func(n *Network) error {
		return checkCoordinate(op, x, y, neti, nodei)
	}, func(node *Node) {
		node.X = x
		node.Y = y
	})
}

// NodeSize returns the node's own width and height.
func (s *DocumentStore) NodeSize(neti, nodei int) (float64, float64, error) {
	node, err := s.nodeCopy("nodeSize", neti, nodei)
	if err != nil {
		return 0, 0, err
	}
	return node.W, node.H, nil
}

// SetNodeSize resizes the node glyph; width and height must be positive.
func (s *DocumentStore) SetNodeSize(ctx context.Context, neti, nodei int, w, h float64) error {
	const op = "setNodeSize"
	return s.updateNode(ctx, op, neti, nodei, func(n *Network) error {
		return checkSize(op, w, h, true, neti, nodei)
	}, func(node *Node) {
		node.W = w
		node.H = h
	})
}

// NodeCenter returns the center point of the node glyph.
func (s *DocumentStore) NodeCenter(neti, nodei int) (float64, float64, error) {
	node, err := s.nodeCopy("nodeCenter", neti, nodei)
	if err != nil {
		return 0, 0, err
	}
	return node.X + node.W/2, node.Y + node.H/2, nil
}

// NodeLocked reports the glyph's own lock flag.
func (s *DocumentStore) NodeLocked(neti, nodei int) (bool, error) {
	node, err := s.nodeCopy("nodeLocked", neti, nodei)
	if err != nil {
		return false, err
	}
	return node.Locked, nil
}

// SetNodeLocked sets the glyph's own lock flag; aliases lock independently of
// their original.
func (s *DocumentStore) SetNodeLocked(ctx context.Context, neti, nodei int, locked bool) error {
	return s.updateNode(ctx, "setNodeLocked", neti, nodei, nil, func(node *Node) {
		node.Locked = locked
	})
}

// NodeFloating reports whether the species is floating (as opposed to a
// boundary species). Delegates to the original for aliases.
func (s *DocumentStore) NodeFloating(neti, nodei int) (bool, error) {
	node, err := s.concreteNodeCopy("nodeFloating", neti, nodei)
	if err != nil {
		return false, err
	}
	return node.Floating, nil
}

// SetNodeFloating sets the floating flag on the node's identity.
func (s *DocumentStore) SetNodeFloating(ctx context.Context, neti, nodei int, floating bool) error {
	return s.updateConcreteNode(ctx, "setNodeFloating", neti, nodei, nil, func(node *Node) {
		node.Floating = floating
	})
}

// NodeConcentration returns the species concentration of the node's identity.
func (s *DocumentStore) NodeConcentration(neti, nodei int) (float64, error) {
	node, err := s.concreteNodeCopy("nodeConcentration", neti, nodei)
	if err != nil {
		return 0, err
	}
	return node.Concentration, nil
}

// SetNodeConcentration sets the species concentration; it must not be
// negative.
func (s *DocumentStore) SetNodeConcentration(ctx context.Context, neti, nodei int, conc float64) error {
	const op = "setNodeConcentration"
	return s.updateConcreteNode(ctx, op, neti, nodei, func(n *Network) error {
		return checkNonNegative(op, conc, neti, nodei)
	}, func(node *Node) {
		node.Concentration = conc
	})
}

// NodeFillColor returns the identity fill color.
func (s *DocumentStore) NodeFillColor(neti, nodei int) (Color, error) {
	node, err := s.concreteNodeCopy("nodeFillColor", neti, nodei)
	if err != nil {
		return Color{}, err
	}
	return node.FillColor, nil
}

// SetNodeFillRGB sets the fill color channels, preserving alpha.
func (s *DocumentStore) SetNodeFillRGB(ctx context.Context, neti, nodei, r, g, b int) error {
	const op = "setNodeFillRGB"
	return s.updateConcreteNode(ctx, op, neti, nodei, func(n *Network) error {
		return checkChannels(op, r, g, b, neti, nodei)
	}, func(node *Node) {
		node.FillColor.R = uint8(r)
		node.FillColor.G = uint8(g)
		node.FillColor.B = uint8(b)
	})
}

// SetNodeFillAlpha sets the fill alpha as a fraction in [0, 1].
func (s *DocumentStore) SetNodeFillAlpha(ctx context.Context, neti, nodei int, a float64) error {
	const op = "setNodeFillAlpha"
	return s.updateConcreteNode(ctx, op, neti, nodei, func(n *Network) error {
		return checkAlpha(op, a, neti, nodei)
	}, func(node *Node) {
		node.FillColor = node.FillColor.WithAlphaF(a)
	})
}

// NodeOutlineColor returns the identity outline color.
func (s *DocumentStore) NodeOutlineColor(neti, nodei int) (Color, error) {
	node, err := s.concreteNodeCopy("nodeOutlineColor", neti, nodei)
	if err != nil {
		return Color{}, err
	}
	return node.OutlineColor, nil
}

// SetNodeOutlineRGB sets the outline color channels, preserving alpha.
func (s *DocumentStore) SetNodeOutlineRGB(ctx context.Context, neti, nodei, r, g, b int) error {
	const op = "setNodeOutlineRGB"
	return s.updateConcreteNode(ctx, op, neti, nodei, func(n *Network) error {
		return checkChannels(op, r, g, b, neti, nodei)
	}, func(node *Node) {
		node.OutlineColor.R = uint8(r)
		node.OutlineColor.G = uint8(g)
		node.OutlineColor.B = uint8(b)
	})
}

// SetNodeOutlineAlpha sets the outline alpha as a fraction in [0, 1].
func (s *DocumentStore) SetNodeOutlineAlpha(ctx context.Context, neti, nodei int, a float64) error {
	const op = "setNodeOutlineAlpha"
	return s.updateConcreteNode(ctx, op, neti, nodei, func(n *Network) error {
		return checkAlpha(op, a, neti, nodei)
	}, func(node *Node) {
		node.OutlineColor = node.OutlineColor.WithAlphaF(a)
	})
}

// NodeOutlineThickness returns the identity outline thickness.
func (s *DocumentStore) NodeOutlineThickness(neti, nodei int) (float64, error) {
	node, err := s.concreteNodeCopy("nodeOutlineThickness", neti, nodei)
	if err != nil {
		return 0, err
	}
	return node.OutlineThickness, nil
}

// SetNodeOutlineThickness sets the identity outline thickness; it must be
// positive.
func (s *DocumentStore) SetNodeOutlineThickness(ctx context.Context, neti, nodei int, thickness float64) error {
	const op = "setNodeOutlineThickness"
	return s.updateConcreteNode(ctx, op, neti, nodei, func(n *Network) error {
		return checkPositive(op, thickness, neti, nodei)
	}, func(node *Node) {
		node.OutlineThickness = thickness
	})
}

// nodeCopy returns a value copy of the node record itself, alias or original.
func (s *DocumentStore) nodeCopy(op string, neti, nodei int) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, nodei)
	if err != nil {
		return Node{}, err
	}
	node, err := nodeOf(op, n, neti, nodei)
	if err != nil {
		return Node{}, err
	}
	return *node, nil
}

// concreteNodeCopy returns a value copy of the node's identity record,
// resolving aliases to their original.
func (s *DocumentStore) concreteNodeCopy(op string, neti, nodei int) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, nodei)
	if err != nil {
		return Node{}, err
	}
	node, _, err := concreteNode(op, n, neti, nodei)
	if err != nil {
		return Node{}, err
	}
	return *node, nil
}

// updateNode runs a glyph-level setter as one transaction.
func (s *DocumentStore) updateNode(ctx context.Context, op string, neti, nodei int, check func(*Network) error, apply func(*Node)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, nodei)
	if err != nil {
		return err
	}
	if _, err := nodeOf(op, n, neti, nodei); err != nil {
		return err
	}
	if check != nil {
		if err := check(n); err != nil {
			return err
		}
	}
	t := beginTx(s.state)
	node, err := t.mutNode(op, neti, nodei)
	if err != nil {
		return err
	}
	apply(node)
	t.record(EntityNode, ActionUpdate, neti, nodei)
	return s.commit(ctx, t)
}

// updateConcreteNode runs an identity-level setter as one transaction,
// resolving aliases so the write lands on the original.
func (s *DocumentStore) updateConcreteNode(ctx context.Context, op string, neti, nodei int, check func(*Network) error, apply func(*Node)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, nodei)
	if err != nil {
		return err
	}
	_, origIdx, err := concreteNode(op, n, neti, nodei)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(n); err != nil {
			return err
		}
	}
	t := beginTx(s.state)
	node, err := t.mutNode(op, neti, origIdx)
	if err != nil {
		return err
	}
	apply(node)
	t.record(EntityNode, ActionUpdate, neti, origIdx)
	return s.commit(ctx, t)
}
