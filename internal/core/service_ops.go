package core

import "context"

// run times one mutating operation and records its outcome.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	start := s.clock.Now()
	err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	if s.metrics != nil {
		s.metrics.Observe(ctx, op, err == nil, duration)
	}
	if err != nil {
		s.logger.Error("operation failed", "op", op, "error", err)
		return err
	}
	s.logger.Debug("operation committed", "op", op, "duration_ms", float64(duration.Milliseconds()))
	return nil
}

func (s *Service) runIndex(ctx context.Context, op string, fn func(context.Context) (int, error)) (int, error) {
	var idx int
	err := s.run(ctx, op, func(ctx context.Context) error {
		var err error
		idx, err = fn(ctx)
		return err
	})
	return idx, err
}

// NewNetwork creates an empty network document.
func (s *Service) NewNetwork(ctx context.Context, id string) (int, error) {
	return s.runIndex(ctx, "new_network", func(ctx context.Context) (int, error) {
		return s.store.NewNetwork(ctx, id)
	})
}

// DeleteNetwork removes a network.
func (s *Service) DeleteNetwork(ctx context.Context, neti int) error {
	return s.run(ctx, "delete_network", func(ctx context.Context) error {
		return s.store.DeleteNetwork(ctx, neti)
	})
}

// ClearNetworks removes every network.
func (s *Service) ClearNetworks(ctx context.Context) error {
	return s.run(ctx, "clear_networks", func(ctx context.Context) error {
		return s.store.ClearNetworks(ctx)
	})
}

// ClearNetwork empties one network.
func (s *Service) ClearNetwork(ctx context.Context, neti int) error {
	return s.run(ctx, "clear_network", func(ctx context.Context) error {
		return s.store.ClearNetwork(ctx, neti)
	})
}

// SetParameter creates or updates a named parameter.
func (s *Service) SetParameter(ctx context.Context, neti int, id string, value float64) error {
	return s.run(ctx, "set_parameter", func(ctx context.Context) error {
		return s.store.SetParameter(ctx, neti, id, value)
	})
}

// RemoveParameter deletes a named parameter.
func (s *Service) RemoveParameter(ctx context.Context, neti int, id string) error {
	return s.run(ctx, "remove_parameter", func(ctx context.Context) error {
		return s.store.RemoveParameter(ctx, neti, id)
	})
}

// LoadNetwork adds a network decoded from its document form.
func (s *Service) LoadNetwork(ctx context.Context, data []byte) (int, error) {
	return s.runIndex(ctx, "load_network", func(ctx context.Context) (int, error) {
		return s.store.LoadNetwork(ctx, data)
	})
}

// AddNode creates an original node.
func (s *Service) AddNode(ctx context.Context, neti int, id string, x, y, w, h float64) (int, error) {
	return s.runIndex(ctx, "add_node", func(ctx context.Context) (int, error) {
		return s.store.AddNode(ctx, neti, id, x, y, w, h)
	})
}

// AddAliasNode creates an alias glyph of an existing node.
func (s *Service) AddAliasNode(ctx context.Context, neti, originali int, x, y, w, h float64) (int, error) {
	return s.runIndex(ctx, "add_alias_node", func(ctx context.Context) (int, error) {
		return s.store.AddAliasNode(ctx, neti, originali, x, y, w, h)
	})
}

// AliasForReaction re-points one reaction's references at a fresh alias.
func (s *Service) AliasForReaction(ctx context.Context, neti, reai, nodei int, x, y, w, h float64) (int, error) {
	return s.runIndex(ctx, "alias_for_reaction", func(ctx context.Context) (int, error) {
		return s.store.AliasForReaction(ctx, neti, reai, nodei, x, y, w, h)
	})
}

// DeleteNode removes a free node.
func (s *Service) DeleteNode(ctx context.Context, neti, nodei int) error {
	return s.run(ctx, "delete_node", func(ctx context.Context) error {
		return s.store.DeleteNode(ctx, neti, nodei)
	})
}

// SetNodeID renames a node.
func (s *Service) SetNodeID(ctx context.Context, neti, nodei int, id string) error {
	return s.run(ctx, "set_node_id", func(ctx context.Context) error {
		return s.store.SetNodeID(ctx, neti, nodei, id)
	})
}

// SetNodeCoordinate moves a node glyph.
func (s *Service) SetNodeCoordinate(ctx context.Context, neti, nodei int, x, y float64) error {
	return s.run(ctx, "set_node_coordinate", func(ctx context.Context) error {
		return s.store.SetNodeCoordinate(ctx, neti, nodei, x, y)
	})
}

// SetNodeSize resizes a node glyph.
func (s *Service) SetNodeSize(ctx context.Context, neti, nodei int, w, h float64) error {
	return s.run(ctx, "set_node_size", func(ctx context.Context) error {
		return s.store.SetNodeSize(ctx, neti, nodei, w, h)
	})
}

// SetNodeLocked sets the glyph lock flag.
func (s *Service) SetNodeLocked(ctx context.Context, neti, nodei int, locked bool) error {
	return s.run(ctx, "set_node_locked", func(ctx context.Context) error {
		return s.store.SetNodeLocked(ctx, neti, nodei, locked)
	})
}

// SetNodeFloating sets the floating/boundary flag.
func (s *Service) SetNodeFloating(ctx context.Context, neti, nodei int, floating bool) error {
	return s.run(ctx, "set_node_floating", func(ctx context.Context) error {
		return s.store.SetNodeFloating(ctx, neti, nodei, floating)
	})
}

// SetNodeConcentration sets the species concentration.
func (s *Service) SetNodeConcentration(ctx context.Context, neti, nodei int, conc float64) error {
	return s.run(ctx, "set_node_concentration", func(ctx context.Context) error {
		return s.store.SetNodeConcentration(ctx, neti, nodei, conc)
	})
}

// SetNodeFillRGB sets the node fill color channels.
func (s *Service) SetNodeFillRGB(ctx context.Context, neti, nodei, r, g, b int) error {
	return s.run(ctx, "set_node_fill_rgb", func(ctx context.Context) error {
		return s.store.SetNodeFillRGB(ctx, neti, nodei, r, g, b)
	})
}

// SetNodeFillAlpha sets the node fill alpha.
func (s *Service) SetNodeFillAlpha(ctx context.Context, neti, nodei int, a float64) error {
	return s.run(ctx, "set_node_fill_alpha", func(ctx context.Context) error {
		return s.store.SetNodeFillAlpha(ctx, neti, nodei, a)
	})
}

// SetNodeOutlineRGB sets the node outline color channels.
func (s *Service) SetNodeOutlineRGB(ctx context.Context, neti, nodei, r, g, b int) error {
	return s.run(ctx, "set_node_outline_rgb", func(ctx context.Context) error {
		return s.store.SetNodeOutlineRGB(ctx, neti, nodei, r, g, b)
	})
}

// SetNodeOutlineAlpha sets the node outline alpha.
func (s *Service) SetNodeOutlineAlpha(ctx context.Context, neti, nodei int, a float64) error {
	return s.run(ctx, "set_node_outline_alpha", func(ctx context.Context) error {
		return s.store.SetNodeOutlineAlpha(ctx, neti, nodei, a)
	})
}

// SetNodeOutlineThickness sets the node outline thickness.
func (s *Service) SetNodeOutlineThickness(ctx context.Context, neti, nodei int, thickness float64) error {
	return s.run(ctx, "set_node_outline_thickness", func(ctx context.Context) error {
		return s.store.SetNodeOutlineThickness(ctx, neti, nodei, thickness)
	})
}

// CreateReaction creates an empty reaction.
func (s *Service) CreateReaction(ctx context.Context, neti int, id string) (int, error) {
	return s.runIndex(ctx, "create_reaction", func(ctx context.Context) (int, error) {
		return s.store.CreateReaction(ctx, neti, id)
	})
}

// DeleteReaction removes a reaction.
func (s *Service) DeleteReaction(ctx context.Context, neti, reai int) error {
	return s.run(ctx, "delete_reaction", func(ctx context.Context) error {
		return s.store.DeleteReaction(ctx, neti, reai)
	})
}

// ClearReactions removes every reaction in the network.
func (s *Service) ClearReactions(ctx context.Context, neti int) error {
	return s.run(ctx, "clear_reactions", func(ctx context.Context) error {
		return s.store.ClearReactions(ctx, neti)
	})
}

// SetReactionID renames a reaction.
func (s *Service) SetReactionID(ctx context.Context, neti, reai int, id string) error {
	return s.run(ctx, "set_reaction_id", func(ctx context.Context) error {
		return s.store.SetReactionID(ctx, neti, reai, id)
	})
}

// SetRateLaw replaces the reaction's rate law.
func (s *Service) SetRateLaw(ctx context.Context, neti, reai int, rateLaw string) error {
	return s.run(ctx, "set_rate_law", func(ctx context.Context) error {
		return s.store.SetRateLaw(ctx, neti, reai, rateLaw)
	})
}

// SetReactionFillRGB sets the reaction stroke color channels.
func (s *Service) SetReactionFillRGB(ctx context.Context, neti, reai, r, g, b int) error {
	return s.run(ctx, "set_reaction_fill_rgb", func(ctx context.Context) error {
		return s.store.SetReactionFillRGB(ctx, neti, reai, r, g, b)
	})
}

// SetReactionFillAlpha sets the reaction stroke alpha.
func (s *Service) SetReactionFillAlpha(ctx context.Context, neti, reai int, a float64) error {
	return s.run(ctx, "set_reaction_fill_alpha", func(ctx context.Context) error {
		return s.store.SetReactionFillAlpha(ctx, neti, reai, a)
	})
}

// SetReactionThickness sets the reaction line thickness.
func (s *Service) SetReactionThickness(ctx context.Context, neti, reai int, thickness float64) error {
	return s.run(ctx, "set_reaction_thickness", func(ctx context.Context) error {
		return s.store.SetReactionThickness(ctx, neti, reai, thickness)
	})
}

// SetReactionCenterHandle positions the center curve handle.
func (s *Service) SetReactionCenterHandle(ctx context.Context, neti, reai int, x, y float64) error {
	return s.run(ctx, "set_reaction_center_handle", func(ctx context.Context) error {
		return s.store.SetReactionCenterHandle(ctx, neti, reai, x, y)
	})
}

// AddSrcNode attaches a source endpoint.
func (s *Service) AddSrcNode(ctx context.Context, neti, reai, nodei int, stoich float64) error {
	return s.run(ctx, "add_src_node", func(ctx context.Context) error {
		return s.store.AddSrcNode(ctx, neti, reai, nodei, stoich)
	})
}

// AddDestNode attaches a target endpoint.
func (s *Service) AddDestNode(ctx context.Context, neti, reai, nodei int, stoich float64) error {
	return s.run(ctx, "add_dest_node", func(ctx context.Context) error {
		return s.store.AddDestNode(ctx, neti, reai, nodei, stoich)
	})
}

// DeleteSrcNode detaches a source endpoint.
func (s *Service) DeleteSrcNode(ctx context.Context, neti, reai, nodei int) error {
	return s.run(ctx, "delete_src_node", func(ctx context.Context) error {
		return s.store.DeleteSrcNode(ctx, neti, reai, nodei)
	})
}

// DeleteDestNode detaches a target endpoint.
func (s *Service) DeleteDestNode(ctx context.Context, neti, reai, nodei int) error {
	return s.run(ctx, "delete_dest_node", func(ctx context.Context) error {
		return s.store.DeleteDestNode(ctx, neti, reai, nodei)
	})
}

// SetReactionSrcStoich replaces a source stoichiometry.
func (s *Service) SetReactionSrcStoich(ctx context.Context, neti, reai, nodei int, stoich float64) error {
	return s.run(ctx, "set_reaction_src_stoich", func(ctx context.Context) error {
		return s.store.SetReactionSrcStoich(ctx, neti, reai, nodei, stoich)
	})
}

// SetReactionDestStoich replaces a target stoichiometry.
func (s *Service) SetReactionDestStoich(ctx context.Context, neti, reai, nodei int, stoich float64) error {
	return s.run(ctx, "set_reaction_dest_stoich", func(ctx context.Context) error {
		return s.store.SetReactionDestStoich(ctx, neti, reai, nodei, stoich)
	})
}

// SetReactionSrcHandle positions a source endpoint handle.
func (s *Service) SetReactionSrcHandle(ctx context.Context, neti, reai, nodei int, x, y float64) error {
	return s.run(ctx, "set_reaction_src_handle", func(ctx context.Context) error {
		return s.store.SetReactionSrcHandle(ctx, neti, reai, nodei, x, y)
	})
}

// SetReactionDestHandle positions a target endpoint handle.
func (s *Service) SetReactionDestHandle(ctx context.Context, neti, reai, nodei int, x, y float64) error {
	return s.run(ctx, "set_reaction_dest_handle", func(ctx context.Context) error {
		return s.store.SetReactionDestHandle(ctx, neti, reai, nodei, x, y)
	})
}

// AddCompartment creates a compartment.
func (s *Service) AddCompartment(ctx context.Context, neti int, id string, x, y, w, h float64) (int, error) {
	return s.runIndex(ctx, "add_compartment", func(ctx context.Context) (int, error) {
		return s.store.AddCompartment(ctx, neti, id, x, y, w, h)
	})
}

// DeleteCompartment removes a compartment; members fall back to the base
// bucket.
func (s *Service) DeleteCompartment(ctx context.Context, neti, compi int) error {
	return s.run(ctx, "delete_compartment", func(ctx context.Context) error {
		return s.store.DeleteCompartment(ctx, neti, compi)
	})
}

// SetCompartmentID renames a compartment.
func (s *Service) SetCompartmentID(ctx context.Context, neti, compi int, id string) error {
	return s.run(ctx, "set_compartment_id", func(ctx context.Context) error {
		return s.store.SetCompartmentID(ctx, neti, compi, id)
	})
}

// SetCompartmentOfNode moves a node glyph between compartments.
func (s *Service) SetCompartmentOfNode(ctx context.Context, neti, nodei, compi int) error {
	return s.run(ctx, "set_compartment_of_node", func(ctx context.Context) error {
		return s.store.SetCompartmentOfNode(ctx, neti, nodei, compi)
	})
}

// SetCompartmentPosition moves a compartment.
func (s *Service) SetCompartmentPosition(ctx context.Context, neti, compi int, x, y float64) error {
	return s.run(ctx, "set_compartment_position", func(ctx context.Context) error {
		return s.store.SetCompartmentPosition(ctx, neti, compi, x, y)
	})
}

// SetCompartmentSize resizes a compartment.
func (s *Service) SetCompartmentSize(ctx context.Context, neti, compi int, w, h float64) error {
	return s.run(ctx, "set_compartment_size", func(ctx context.Context) error {
		return s.store.SetCompartmentSize(ctx, neti, compi, w, h)
	})
}

// SetCompartmentVolume sets a compartment volume.
func (s *Service) SetCompartmentVolume(ctx context.Context, neti, compi int, volume float64) error {
	return s.run(ctx, "set_compartment_volume", func(ctx context.Context) error {
		return s.store.SetCompartmentVolume(ctx, neti, compi, volume)
	})
}

// SetCompartmentFillRGB sets the compartment fill color channels.
func (s *Service) SetCompartmentFillRGB(ctx context.Context, neti, compi, r, g, b int) error {
	return s.run(ctx, "set_compartment_fill_rgb", func(ctx context.Context) error {
		return s.store.SetCompartmentFillRGB(ctx, neti, compi, r, g, b)
	})
}

// SetCompartmentFillAlpha sets the compartment fill alpha.
func (s *Service) SetCompartmentFillAlpha(ctx context.Context, neti, compi int, a float64) error {
	return s.run(ctx, "set_compartment_fill_alpha", func(ctx context.Context) error {
		return s.store.SetCompartmentFillAlpha(ctx, neti, compi, a)
	})
}

// SetCompartmentOutlineRGB sets the compartment outline color channels.
func (s *Service) SetCompartmentOutlineRGB(ctx context.Context, neti, compi, r, g, b int) error {
	return s.run(ctx, "set_compartment_outline_rgb", func(ctx context.Context) error {
		return s.store.SetCompartmentOutlineRGB(ctx, neti, compi, r, g, b)
	})
}

// SetCompartmentOutlineAlpha sets the compartment outline alpha.
func (s *Service) SetCompartmentOutlineAlpha(ctx context.Context, neti, compi int, a float64) error {
	return s.run(ctx, "set_compartment_outline_alpha", func(ctx context.Context) error {
		return s.store.SetCompartmentOutlineAlpha(ctx, neti, compi, a)
	})
}

// SetCompartmentOutlineThickness sets the compartment outline thickness.
func (s *Service) SetCompartmentOutlineThickness(ctx context.Context, neti, compi int, thickness float64) error {
	return s.run(ctx, "set_compartment_outline_thickness", func(ctx context.Context) error {
		return s.store.SetCompartmentOutlineThickness(ctx, neti, compi, thickness)
	})
}

// CreateUniUni builds a one-source one-target reaction as one undoable step.
func (s *Service) CreateUniUni(ctx context.Context, neti int, id, rateLaw string, srci, desti int, srcStoich, destStoich float64) (int, error) {
	return s.runIndex(ctx, "create_uni_uni", func(ctx context.Context) (int, error) {
		return s.store.CreateUniUni(ctx, neti, id, rateLaw, srci, desti, srcStoich, destStoich)
	})
}

// CreateUniBi builds a one-source two-target reaction as one undoable step.
func (s *Service) CreateUniBi(ctx context.Context, neti int, id, rateLaw string, srci, dest1i, dest2i int, srcStoich, dest1Stoich, dest2Stoich float64) (int, error) {
	return s.runIndex(ctx, "create_uni_bi", func(ctx context.Context) (int, error) {
		return s.store.CreateUniBi(ctx, neti, id, rateLaw, srci, dest1i, dest2i, srcStoich, dest1Stoich, dest2Stoich)
	})
}

// CreateBiUni builds a two-source one-target reaction as one undoable step.
func (s *Service) CreateBiUni(ctx context.Context, neti int, id, rateLaw string, src1i, src2i, desti int, src1Stoich, src2Stoich, destStoich float64) (int, error) {
	return s.runIndex(ctx, "create_bi_uni", func(ctx context.Context) (int, error) {
		return s.store.CreateBiUni(ctx, neti, id, rateLaw, src1i, src2i, desti, src1Stoich, src2Stoich, destStoich)
	})
}

// CreateBiBi builds a two-source two-target reaction as one undoable step.
func (s *Service) CreateBiBi(ctx context.Context, neti int, id, rateLaw string, src1i, src2i, dest1i, dest2i int, src1Stoich, src2Stoich, dest1Stoich, dest2Stoich float64) (int, error) {
	return s.runIndex(ctx, "create_bi_bi", func(ctx context.Context) (int, error) {
		return s.store.CreateBiBi(ctx, neti, id, rateLaw, src1i, src2i, dest1i, dest2i, src1Stoich, src2Stoich, dest1Stoich, dest2Stoich)
	})
}

// StartGroup opens a composite edit.
func (s *Service) StartGroup() {
	s.store.StartGroup()
}

// EndGroup closes a composite edit.
func (s *Service) EndGroup() {
	s.store.EndGroup()
}

// Undo rolls back the most recent undoable step.
func (s *Service) Undo(ctx context.Context) error {
	return s.run(ctx, "undo", func(context.Context) error {
		return s.store.Undo()
	})
}

// Redo replays the most recently undone step.
func (s *Service) Redo(ctx context.Context) error {
	return s.run(ctx, "redo", func(context.Context) error {
		return s.store.Redo()
	})
}
