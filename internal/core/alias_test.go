package core_test

import (
	"context"
	"testing"

	"rxncore/pkg/domain"
)

func TestAliasSharesIdentityButNotGeometry(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	orig := mustNode(t, s, neti, "A")

	alias, err := s.AddAliasNode(ctx, neti, orig, 200, 200, 40, 20)
	if err != nil {
		t.Fatalf("add alias: %v", err)
	}

	if is, _ := s.IsAliasNode(neti, alias); !is {
		t.Fatalf("expected alias flag")
	}
	if is, _ := s.IsAliasNode(neti, orig); is {
		t.Fatalf("original flagged as alias")
	}
	if oi, err := s.NodeOriginalIndex(neti, alias); err != nil || oi != orig {
		t.Fatalf("original index = %d, %v", oi, err)
	}

	// Identity reads delegate to the original.
	if id, _ := s.NodeID(neti, alias); id != "A" {
		t.Fatalf("alias id = %q", id)
	}
	if err := s.SetNodeConcentration(ctx, neti, alias, 3.5); err != nil {
		t.Fatalf("set concentration via alias: %v", err)
	}
	if conc, _ := s.NodeConcentration(neti, orig); conc != 3.5 {
		t.Fatalf("concentration did not reach original: %v", conc)
	}
	if err := s.SetNodeFillRGB(ctx, neti, alias, 1, 2, 3); err != nil {
		t.Fatalf("set fill via alias: %v", err)
	}
	if fill, _ := s.NodeFillColor(neti, orig); fill.R != 1 || fill.G != 2 || fill.B != 3 {
		t.Fatalf("fill did not reach original: %+v", fill)
	}

	// Geometry stays per glyph.
	if err := s.SetNodeCoordinate(ctx, neti, alias, 300, 300); err != nil {
		t.Fatalf("move alias: %v", err)
	}
	if x, y, _ := s.NodeCoordinate(neti, orig); x != 10 || y != 10 {
		t.Fatalf("moving alias moved original to (%v, %v)", x, y)
	}
	if x, y, _ := s.NodeCoordinate(neti, alias); x != 300 || y != 300 {
		t.Fatalf("alias at (%v, %v)", x, y)
	}
}

func TestAliasOfAliasPointsAtOriginal(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	orig := mustNode(t, s, neti, "A")
	first, err := s.AddAliasNode(ctx, neti, orig, 100, 100, 40, 20)
	if err != nil {
		t.Fatalf("first alias: %v", err)
	}
	second, err := s.AddAliasNode(ctx, neti, first, 200, 200, 40, 20)
	if err != nil {
		t.Fatalf("alias of alias: %v", err)
	}
	if oi, _ := s.NodeOriginalIndex(neti, second); oi != orig {
		t.Fatalf("alias chain not flattened, points at %d", oi)
	}
}

func TestAliasIsNotAnIdentityLookupTarget(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	orig := mustNode(t, s, neti, "A")
	if _, err := s.AddAliasNode(ctx, neti, orig, 100, 100, 40, 20); err != nil {
		t.Fatalf("add alias: %v", err)
	}

	// NodeIndex resolves to the original, never an alias glyph.
	if idx, err := s.NodeIndex(neti, "A"); err != nil || idx != orig {
		t.Fatalf("node index = %d, %v", idx, err)
	}
	// A second original may not reuse the ID even though the alias has none.
	if _, err := s.AddNode(ctx, neti, "A", 0, 0, 10, 10); !domain.IsCode(err, domain.CodeIDRepeat) {
		t.Fatalf("id reuse: got %v", err)
	}
}

func TestDeleteOriginalBlockedByAlias(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	orig := mustNode(t, s, neti, "A")
	alias, err := s.AddAliasNode(ctx, neti, orig, 100, 100, 40, 20)
	if err != nil {
		t.Fatalf("add alias: %v", err)
	}

	if err := s.DeleteNode(ctx, neti, orig); !domain.IsCode(err, domain.CodeNodeNotFree) {
		t.Fatalf("delete original with alias: got %v", err)
	}
	if err := s.DeleteNode(ctx, neti, alias); err != nil {
		t.Fatalf("delete alias: %v", err)
	}
	if err := s.DeleteNode(ctx, neti, orig); err != nil {
		t.Fatalf("delete original after alias gone: %v", err)
	}
}

func TestAliasForReactionRepointsEndpoints(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	a := mustNode(t, s, neti, "A")
	b := mustNode(t, s, neti, "B")
	reai, _ := s.CreateReaction(ctx, neti, "J0")
	if err := s.AddSrcNode(ctx, neti, reai, a, 2); err != nil {
		t.Fatalf("add src: %v", err)
	}
	if err := s.AddDestNode(ctx, neti, reai, b, 1); err != nil {
		t.Fatalf("add dest: %v", err)
	}

	alias, err := s.AliasForReaction(ctx, neti, reai, a, 150, 150, 40, 20)
	if err != nil {
		t.Fatalf("alias for reaction: %v", err)
	}

	srcs, _ := s.ReactionSrcNodeIndices(neti, reai)
	if len(srcs) != 1 || srcs[0] != alias {
		t.Fatalf("reaction srcs = %v, want [%d]", srcs, alias)
	}
	// Stoichiometry survives the re-point.
	if st, err := s.ReactionSrcStoich(neti, reai, alias); err != nil || st != 2 {
		t.Fatalf("stoich after re-point = %v, %v", st, err)
	}
	// The endpoint still reports the identity ID.
	ids, _ := s.ReactionSrcNodeIDs(neti, reai)
	if len(ids) != 1 || ids[0] != "A" {
		t.Fatalf("src ids = %v", ids)
	}

	// The original is now free of this reaction but still aliased.
	if err := s.DeleteNode(ctx, neti, a); !domain.IsCode(err, domain.CodeNodeNotFree) {
		t.Fatalf("original with alias deletable: %v", err)
	}

	// A single undo removes the alias and restores the endpoint.
	if err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	srcs, _ = s.ReactionSrcNodeIndices(neti, reai)
	if len(srcs) != 1 || srcs[0] != a {
		t.Fatalf("after undo, srcs = %v, want [%d]", srcs, a)
	}
	if _, err := s.NodeID(neti, alias); !domain.IsCode(err, domain.CodeNodeIndexNotFound) {
		t.Fatalf("alias survived undo: %v", err)
	}
}

func TestAliasForReactionRequiresMembership(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	a := mustNode(t, s, neti, "A")
	b := mustNode(t, s, neti, "B")
	reai, _ := s.CreateReaction(ctx, neti, "J0")
	if err := s.AddSrcNode(ctx, neti, reai, a, 1); err != nil {
		t.Fatalf("add src: %v", err)
	}

	if _, err := s.AliasForReaction(ctx, neti, reai, b, 0, 0, 40, 20); !domain.IsCode(err, domain.CodeNodeIndexNotFound) {
		t.Fatalf("alias for non-member: got %v", err)
	}
	if n, _ := s.NumberOfNodes(neti); n != 2 {
		t.Fatalf("failed alias-for-reaction created a node")
	}
}
