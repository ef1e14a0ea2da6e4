package core

import "context"

// Composite reaction builders. Each builder creates a reaction, attaches its
// endpoints and sets the rate law under one history group, so a single Undo
// removes the whole reaction. A failing step rolls the group back; no partial
// reaction survives.

type endpoint struct {
	node   int
	stoich float64
}

// CreateUniUni builds a one-source one-target reaction as one undoable step.
func (s *DocumentStore) CreateUniUni(ctx context.Context, neti int, id, rateLaw string, srci, desti int, srcStoich, destStoich float64) (int, error) {
	return s.createComposite(ctx, neti, id, rateLaw,
		[]endpoint{{srci, srcStoich}},
		[]endpoint{{desti, destStoich}})
}

// CreateUniBi builds a one-source two-target reaction as one undoable step.
func (s *DocumentStore) CreateUniBi(ctx context.Context, neti int, id, rateLaw string, srci, dest1i, dest2i int, srcStoich, dest1Stoich, dest2Stoich float64) (int, error) {
	return s.createComposite(ctx, neti, id, rateLaw,
		[]endpoint{{srci, srcStoich}},
		[]endpoint{{dest1i, dest1Stoich}, {dest2i, dest2Stoich}})
}

// CreateBiUni builds a two-source one-target reaction as one undoable step.
func (s *DocumentStore) CreateBiUni(ctx context.Context, neti int, id, rateLaw string, src1i, src2i, desti int, src1Stoich, src2Stoich, destStoich float64) (int, error) {
	return s.createComposite(ctx, neti, id, rateLaw,
		[]endpoint{{src1i, src1Stoich}, {src2i, src2Stoich}},
		[]endpoint{{desti, destStoich}})
}

// CreateBiBi builds a two-source two-target reaction as one undoable step.
func (s *DocumentStore) CreateBiBi(ctx context.Context, neti int, id, rateLaw string, src1i, src2i, dest1i, dest2i int, src1Stoich, src2Stoich, dest1Stoich, dest2Stoich float64) (int, error) {
	return s.createComposite(ctx, neti, id, rateLaw,
		[]endpoint{{src1i, src1Stoich}, {src2i, src2Stoich}},
		[]endpoint{{dest1i, dest1Stoich}, {dest2i, dest2Stoich}})
}

func (s *DocumentStore) createComposite(ctx context.Context, neti int, id, rateLaw string, srcs, dests []endpoint) (int, error) {
	s.StartGroup()
	reai, err := s.CreateReaction(ctx, neti, id)
	if err != nil {
		s.abortGroup()
		return 0, err
	}
	for _, ep := range srcs {
		if err := s.AddSrcNode(ctx, neti, reai, ep.node, ep.stoich); err != nil {
			s.abortGroup()
			return 0, err
		}
	}
	for _, ep := range dests {
		if err := s.AddDestNode(ctx, neti, reai, ep.node, ep.stoich); err != nil {
			s.abortGroup()
			return 0, err
		}
	}
	if err := s.SetRateLaw(ctx, neti, reai, rateLaw); err != nil {
		s.abortGroup()
		return 0, err
	}
	s.EndGroup()
	return reai, nil
}
