package core

import (
	"context"
	"sort"

	"rxncore/pkg/domain"
)

// CreateReaction creates an empty reaction and returns its index. Endpoints
// are attached afterwards with AddSrcNode and AddDestNode.
func (s *DocumentStore) CreateReaction(ctx context.Context, neti int, id string) (int, error) {
	const op = "createReaction"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, id)
	if err != nil {
		return 0, err
	}
	if err := checkReactionIDFree(op, n, id, neti); err != nil {
		return 0, err
	}
	t := beginTx(s.state)
	mn, err := t.mutNetwork(op, neti)
	if err != nil {
		return 0, err
	}
	reai := mn.LastReactionIndex
	rea := domain.NewReaction(id)
	mn.Reactions[reai] = &rea
	mn.LastReactionIndex++
	t.record(EntityReaction, ActionCreate, neti, reai)
	if err := s.commit(ctx, t); err != nil {
		return 0, err
	}
	return reai, nil
}

// DeleteReaction removes the reaction at the given index.
func (s *DocumentStore) DeleteReaction(ctx context.Context, neti, reai int) error {
	const op = "deleteReaction"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, reai)
	if err != nil {
		return err
	}
	if _, err := reactionOf(op, n, neti, reai); err != nil {
		return err
	}
	t := beginTx(s.state)
	mn, err := t.mutNetwork(op, neti)
	if err != nil {
		return err
	}
	delete(mn.Reactions, reai)
	t.record(EntityReaction, ActionDelete, neti, reai)
	return s.commit(ctx, t)
}

// ClearReactions removes every reaction from the network.
func (s *DocumentStore) ClearReactions(ctx context.Context, neti int) error {
	const op = "clearReactions"
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.state.network(op, neti); err != nil {
		return err
	}
	t := beginTx(s.state)
	mn, err := t.mutNetwork(op, neti)
	if err != nil {
		return err
	}
	for reai := range mn.Reactions {
		t.record(EntityReaction, ActionDelete, neti, reai)
	}
	mn.Reactions = make(map[int]*Reaction)
	return s.commit(ctx, t)
}

// ReactionIndex resolves a reaction ID to its index.
func (s *DocumentStore) ReactionIndex(neti int, id string) (int, error) {
	const op = "reactionIndex"
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, id)
	if err != nil {
		return 0, err
	}
	for _, i := range sortedReactionIndices(n) {
		if n.Reactions[i].ID == id {
			return i, nil
		}
	}
	return 0, domain.NewError(domain.CodeIDNotFound, op, neti, id)
}

// ReactionID returns the ID of the reaction at the given index.
func (s *DocumentStore) ReactionID(neti, reai int) (string, error) {
	rea, err := s.reactionCopy("reactionID", neti, reai)
	if err != nil {
		return "", err
	}
	return rea.ID, nil
}

// SetReactionID renames a reaction; the new ID must be free.
func (s *DocumentStore) SetReactionID(ctx context.Context, neti, reai int, id string) error {
	const op = "setReactionID"
	return s.updateReaction(ctx, op, neti, reai, func(n *Network, rea *Reaction) error {
		if rea.ID == id {
			return nil
		}
		return checkReactionIDFree(op, n, id, neti, reai)
	}, func(rea *Reaction) {
		rea.ID = id
	})
}

// NumberOfReactions counts the network's reactions.
func (s *DocumentStore) NumberOfReactions(neti int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("numberOfReactions", neti)
	if err != nil {
		return 0, err
	}
	return len(n.Reactions), nil
}

// ReactionIndices returns the live reaction indices in ascending order.
func (s *DocumentStore) ReactionIndices(neti int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("reactionIndices", neti)
	if err != nil {
		return nil, err
	}
	return sortedReactionIndices(n), nil
}

// ReactionIDs returns every reaction ID in ascending index order.
func (s *DocumentStore) ReactionIDs(neti int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("reactionIDs", neti)
	if err != nil {
		return nil, err
	}
	indices := sortedReactionIndices(n)
	out := make([]string, 0, len(indices))
	for _, i := range indices {
		out = append(out, n.Reactions[i].ID)
	}
	return out, nil
}

func sortedReactionIndices(n *Network) []int {
	out := make([]int, 0, len(n.Reactions))
	for i := range n.Reactions {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// RateLaw returns the reaction's rate law string.
func (s *DocumentStore) RateLaw(neti, reai int) (string, error) {
	rea, err := s.reactionCopy("rateLaw", neti, reai)
	if err != nil {
		return "", err
	}
	return rea.RateLaw, nil
}

// SetRateLaw replaces the reaction's rate law string. The string is opaque to
// the model; the empty string means no rate law.
func (s *DocumentStore) SetRateLaw(ctx context.Context, neti, reai int, rateLaw string) error {
	return s.updateReaction(ctx, "setRateLaw", neti, reai, nil, func(rea *Reaction) {
		rea.RateLaw = rateLaw
	})
}

// ReactionFillColor returns the reaction's stroke color.
func (s *DocumentStore) ReactionFillColor(neti, reai int) (Color, error) {
	rea, err := s.reactionCopy("reactionFillColor", neti, reai)
	if err != nil {
		return Color{}, err
	}
	return rea.FillColor, nil
}

// SetReactionFillRGB sets the stroke color channels, preserving alpha.
func (s *DocumentStore) SetReactionFillRGB(ctx context.Context, neti, reai, r, g, b int) error {
	const op = "setReactionFillRGB"
	return s.updateReaction(ctx, op, neti, reai, func(n *Network, rea *Reaction) error {
		return checkChannels(op, r, g, b, neti, reai)
	}, func(rea *Reaction) {
		rea.FillColor.R = uint8(r)
		rea.FillColor.G = uint8(g)
		rea.FillColor.B = uint8(b)
	})
}

// SetReactionFillAlpha sets the stroke alpha as a fraction in [0, 1].
func (s *DocumentStore) SetReactionFillAlpha(ctx context.Context, neti, reai int, a float64) error {
	const op = "setReactionFillAlpha"
	return s.updateReaction(ctx, op, neti, reai, func(n *Network, rea *Reaction) error {
		return checkAlpha(op, a, neti, reai)
	}, func(rea *Reaction) {
		rea.FillColor = rea.FillColor.WithAlphaF(a)
	})
}

// ReactionThickness returns the reaction's line thickness.
func (s *DocumentStore) ReactionThickness(neti, reai int) (float64, error) {
	rea, err := s.reactionCopy("reactionThickness", neti, reai)
	if err != nil {
		return 0, err
	}
	return rea.Thickness, nil
}

// SetReactionThickness sets the line thickness; it must be positive.
func (s *DocumentStore) SetReactionThickness(ctx context.Context, neti, reai int, thickness float64) error {
	const op = "setReactionThickness"
	return s.updateReaction(ctx, op, neti, reai, func(n *Network, rea *Reaction) error {
		return checkPositive(op, thickness, neti, reai)
	}, func(rea *Reaction) {
		rea.Thickness = thickness
	})
}

// ReactionCenterHandle returns the curve handle at the reaction center.
func (s *DocumentStore) ReactionCenterHandle(neti, reai int) (float64, float64, error) {
	rea, err := s.reactionCopy("reactionCenterHandle", neti, reai)
	if err != nil {
		return 0, 0, err
	}
	return rea.CenterHandleX, rea.CenterHandleY, nil
}

// SetReactionCenterHandle positions the center curve handle. Handles are
// unconstrained; they may sit anywhere relative to the canvas.
func (s *DocumentStore) SetReactionCenterHandle(ctx context.Context, neti, reai int, x, y float64) error {
	return s.updateReaction(ctx, "setReactionCenterHandle", neti, reai, nil, func(rea *Reaction) {
		rea.CenterHandleX = x
		rea.CenterHandleY = y
	})
}

// AddSrcNode attaches a node as a reaction source with the given
// stoichiometry. The node must not already be a source of this reaction.
func (s *DocumentStore) AddSrcNode(ctx context.Context, neti, reai, nodei int, stoich float64) error {
	return s.addEndpoint(ctx, "addSrcNode", neti, reai, nodei, stoich, true)
}

// AddDestNode attaches a node as a reaction target with the given
// stoichiometry. The node must not already be a target of this reaction.
func (s *DocumentStore) AddDestNode(ctx context.Context, neti, reai, nodei int, stoich float64) error {
	return s.addEndpoint(ctx, "addDestNode", neti, reai, nodei, stoich, false)
}

func (s *DocumentStore) addEndpoint(ctx context.Context, op string, neti, reai, nodei int, stoich float64, src bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, reai, nodei)
	if err != nil {
		return err
	}
	rea, err := reactionOf(op, n, neti, reai, nodei)
	if err != nil {
		return err
	}
	if _, err := nodeOf(op, n, neti, nodei, reai); err != nil {
		return err
	}
	side := rea.Sources
	if !src {
		side = rea.Targets
	}
	if _, ok := side[nodei]; ok {
		return domain.NewError(domain.CodeIDRepeat, op, neti, reai, nodei)
	}
	if err := checkStoich(op, stoich, neti, reai, nodei); err != nil {
		return err
	}
	t := beginTx(s.state)
	mrea, err := t.mutReaction(op, neti, reai)
	if err != nil {
		return err
	}
	if src {
		mrea.Sources[nodei] = SpeciesRef{Stoich: stoich}
	} else {
		mrea.Targets[nodei] = SpeciesRef{Stoich: stoich}
	}
	t.record(EntityReaction, ActionUpdate, neti, reai)
	return s.commit(ctx, t)
}

// DeleteSrcNode detaches a source endpoint from the reaction.
func (s *DocumentStore) DeleteSrcNode(ctx context.Context, neti, reai, nodei int) error {
	return s.deleteEndpoint(ctx, "deleteSrcNode", neti, reai, nodei, true)
}

// DeleteDestNode detaches a target endpoint from the reaction.
func (s *DocumentStore) DeleteDestNode(ctx context.Context, neti, reai, nodei int) error {
	return s.deleteEndpoint(ctx, "deleteDestNode", neti, reai, nodei, false)
}

func (s *DocumentStore) deleteEndpoint(ctx context.Context, op string, neti, reai, nodei int, src bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, reai, nodei)
	if err != nil {
		return err
	}
	rea, err := reactionOf(op, n, neti, reai, nodei)
	if err != nil {
		return err
	}
	side := rea.Sources
	if !src {
		side = rea.Targets
	}
	if _, ok := side[nodei]; !ok {
		return domain.NewError(domain.CodeIDNotFound, op, neti, reai, nodei)
	}
	t := beginTx(s.state)
	mrea, err := t.mutReaction(op, neti, reai)
	if err != nil {
		return err
	}
	if src {
		delete(mrea.Sources, nodei)
	} else {
		delete(mrea.Targets, nodei)
	}
	t.record(EntityReaction, ActionUpdate, neti, reai)
	return s.commit(ctx, t)
}

// ReactionSrcStoich returns the stoichiometry of one source endpoint.
func (s *DocumentStore) ReactionSrcStoich(neti, reai, nodei int) (float64, error) {
	ref, err := s.endpointRef("reactionSrcStoich", neti, reai, nodei, true)
	if err != nil {
		return 0, err
	}
	return ref.Stoich, nil
}

// ReactionDestStoich returns the stoichiometry of one target endpoint.
func (s *DocumentStore) ReactionDestStoich(neti, reai, nodei int) (float64, error) {
	ref, err := s.endpointRef("reactionDestStoich", neti, reai, nodei, false)
	if err != nil {
		return 0, err
	}
	return ref.Stoich, nil
}

// SetReactionSrcStoich replaces the stoichiometry of one source endpoint.
func (s *DocumentStore) SetReactionSrcStoich(ctx context.Context, neti, reai, nodei int, stoich float64) error {
	return s.setEndpoint(ctx, "setReactionSrcStoich", neti, reai, nodei, true, func(op string) error {
		return checkStoich(op, stoich, neti, reai, nodei)
	}, func(ref *SpeciesRef) {
		ref.Stoich = stoich
	})
}

// SetReactionDestStoich replaces the stoichiometry of one target endpoint.
func (s *DocumentStore) SetReactionDestStoich(ctx context.Context, neti, reai, nodei int, stoich float64) error {
	return s.setEndpoint(ctx, "setReactionDestStoich", neti, reai, nodei, false, func(op string) error {
		return checkStoich(op, stoich, neti, reai, nodei)
	}, func(ref *SpeciesRef) {
		ref.Stoich = stoich
	})
}

// ReactionSrcHandle returns the curve handle of one source endpoint.
func (s *DocumentStore) ReactionSrcHandle(neti, reai, nodei int) (float64, float64, error) {
	ref, err := s.endpointRef("reactionSrcHandle", neti, reai, nodei, true)
	if err != nil {
		return 0, 0, err
	}
	return ref.HandleX, ref.HandleY, nil
}

// ReactionDestHandle returns the curve handle of one target endpoint.
func (s *DocumentStore) ReactionDestHandle(neti, reai, nodei int) (float64, float64, error) {
	ref, err := s.endpointRef("reactionDestHandle", neti, reai, nodei, false)
	if err != nil {
		return 0, 0, err
	}
	return ref.HandleX, ref.HandleY, nil
}

// SetReactionSrcHandle positions the curve handle of one source endpoint.
func (s *DocumentStore) SetReactionSrcHandle(ctx context.Context, neti, reai, nodei int, x, y float64) error {
	return s.setEndpoint(ctx, "setReactionSrcHandle", neti, reai, nodei, true, nil, func(ref *SpeciesRef) {
		ref.HandleX = x
		ref.HandleY = y
	})
}

// SetReactionDestHandle positions the curve handle of one target endpoint.
func (s *DocumentStore) SetReactionDestHandle(ctx context.Context, neti, reai, nodei int, x, y float64) error {
	return s.setEndpoint(ctx, "setReactionDestHandle", neti, reai, nodei, false, nil, func(ref *SpeciesRef) {
		ref.HandleX = x
		ref.HandleY = y
	})
}

// NumberOfSrcNodes counts the reaction's source endpoints.
func (s *DocumentStore) NumberOfSrcNodes(neti, reai int) (int, error) {
	rea, err := s.reactionCopy("numberOfSrcNodes", neti, reai)
	if err != nil {
		return 0, err
	}
	return len(rea.Sources), nil
}

// NumberOfDestNodes counts the reaction's target endpoints.
func (s *DocumentStore) NumberOfDestNodes(neti, reai int) (int, error) {
	rea, err := s.reactionCopy("numberOfDestNodes", neti, reai)
	if err != nil {
		return 0, err
	}
	return len(rea.Targets), nil
}

// ReactionSrcNodeIndices returns the source endpoint node indices in
// ascending order.
func (s *DocumentStore) ReactionSrcNodeIndices(neti, reai int) ([]int, error) {
	return s.endpointIndices("reactionSrcNodeIndices", neti, reai, true)
}

// ReactionDestNodeIndices returns the target endpoint node indices in
// ascending order.
func (s *DocumentStore) ReactionDestNodeIndices(neti, reai int) ([]int, error) {
	return s.endpointIndices("reactionDestNodeIndices", neti, reai, false)
}

// ReactionSrcNodeIDs returns the identity IDs of the source endpoints in
// endpoint index order. Alias endpoints report the ID of their original.
func (s *DocumentStore) ReactionSrcNodeIDs(neti, reai int) ([]string, error) {
	return s.endpointIDs("reactionSrcNodeIDs", neti, reai, true)
}

// ReactionDestNodeIDs returns the identity IDs of the target endpoints in
// endpoint index order.
func (s *DocumentStore) ReactionDestNodeIDs(neti, reai int) ([]string, error) {
	return s.endpointIDs("reactionDestNodeIDs", neti, reai, false)
}

// ReactionSrcStoichs returns source stoichiometries aligned with
// ReactionSrcNodeIndices.
func (s *DocumentStore) ReactionSrcStoichs(neti, reai int) ([]float64, error) {
	return s.endpointStoichs("reactionSrcStoichs", neti, reai, true)
}

// ReactionDestStoichs returns target stoichiometries aligned with
// ReactionDestNodeIndices.
func (s *DocumentStore) ReactionDestStoichs(neti, reai int) ([]float64, error) {
	return s.endpointStoichs("reactionDestStoichs", neti, reai, false)
}

// SrcReactions returns the indices of reactions naming the node as a source.
func (s *DocumentStore) SrcReactions(neti, nodei int) ([]int, error) {
	return s.reactionsOfNode("srcReactions", neti, nodei, true)
}

// DestReactions returns the indices of reactions naming the node as a target.
func (s *DocumentStore) DestReactions(neti, nodei int) ([]int, error) {
	return s.reactionsOfNode("destReactions", neti, nodei, false)
}

func (s *DocumentStore) reactionsOfNode(op string, neti, nodei int, src bool) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, nodei)
	if err != nil {
		return nil, err
	}
	if _, err := nodeOf(op, n, neti, nodei); err != nil {
		return nil, err
	}
	var out []int
	for _, reai := range sortedReactionIndices(n) {
		side := n.Reactions[reai].Sources
		if !src {
			side = n.Reactions[reai].Targets
		}
		if _, ok := side[nodei]; ok {
			out = append(out, reai)
		}
	}
	return out, nil
}

func (s *DocumentStore) reactionCopy(op string, neti, reai int) (Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, reai)
	if err != nil {
		return Reaction{}, err
	}
	rea, err := reactionOf(op, n, neti, reai)
	if err != nil {
		return Reaction{}, err
	}
	return domain.CloneReaction(*rea), nil
}

// updateReaction runs a reaction-level setter as one transaction.
func (s *DocumentStore) updateReaction(ctx context.Context, op string, neti, reai int, check func(*Network, *Reaction) error, apply func(*Reaction)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, reai)
	if err != nil {
		return err
	}
	rea, err := reactionOf(op, n, neti, reai)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(n, rea); err != nil {
			return err
		}
	}
	t := beginTx(s.state)
	mrea, err := t.mutReaction(op, neti, reai)
	if err != nil {
		return err
	}
	apply(mrea)
	t.record(EntityReaction, ActionUpdate, neti, reai)
	return s.commit(ctx, t)
}

func (s *DocumentStore) endpointRef(op string, neti, reai, nodei int, src bool) (SpeciesRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, reai, nodei)
	if err != nil {
		return SpeciesRef{}, err
	}
	rea, err := reactionOf(op, n, neti, reai, nodei)
	if err != nil {
		return SpeciesRef{}, err
	}
	side := rea.Sources
	if !src {
		side = rea.Targets
	}
	ref, ok := side[nodei]
	if !ok {
		return SpeciesRef{}, domain.NewError(domain.CodeIDNotFound, op, neti, reai, nodei)
	}
	return ref, nil
}

func (s *DocumentStore) setEndpoint(ctx context.Context, op string, neti, reai, nodei int, src bool, check func(string) error, apply func(*SpeciesRef)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, reai, nodei)
	if err != nil {
		return err
	}
	rea, err := reactionOf(op, n, neti, reai, nodei)
	if err != nil {
		return err
	}
	side := rea.Sources
	if !src {
		side = rea.Targets
	}
	if _, ok := side[nodei]; !ok {
		return domain.NewError(domain.CodeIDNotFound, op, neti, reai, nodei)
	}
	if check != nil {
		if err := check(op); err != nil {
			return err
		}
	}
	t := beginTx(s.state)
	mrea, err := t.mutReaction(op, neti, reai)
	if err != nil {
		return err
	}
	mside := mrea.Sources
	if !src {
		mside = mrea.Targets
	}
	ref := mside[nodei]
	apply(&ref)
	mside[nodei] = ref
	t.record(EntityReaction, ActionUpdate, neti, reai)
	return s.commit(ctx, t)
}

func (s *DocumentStore) endpointIndices(op string, neti, reai int, src bool) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, reai)
	if err != nil {
		return nil, err
	}
	rea, err := reactionOf(op, n, neti, reai)
	if err != nil {
		return nil, err
	}
	side := rea.Sources
	if !src {
		side = rea.Targets
	}
	out := make([]int, 0, len(side))
	for i := range side {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

func (s *DocumentStore) endpointIDs(op string, neti, reai int, src bool) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, reai)
	if err != nil {
		return nil, err
	}
	rea, err := reactionOf(op, n, neti, reai)
	if err != nil {
		return nil, err
	}
	side := rea.Sources
	if !src {
		side = rea.Targets
	}
	indices := make([]int, 0, len(side))
	for i := range side {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	out := make([]string, 0, len(indices))
	for _, i := range indices {
		id, _ := n.NodeIdentity(i)
		out = append(out, id)
	}
	return out, nil
}

func (s *DocumentStore) endpointStoichs(op string, neti, reai int, src bool) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network(op, neti, reai)
	if err != nil {
		return nil, err
	}
	rea, err := reactionOf(op, n, neti, reai)
	if err != nil {
		return nil, err
	}
	side := rea.Sources
	if !src {
		side = rea.Targets
	}
	indices := make([]int, 0, len(side))
	for i := range side {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	out := make([]float64, 0, len(indices))
	for _, i := range indices {
		out = append(out, side[i].Stoich)
	}
	return out, nil
}
