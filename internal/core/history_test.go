package core_test

import (
	"context"
	"testing"

	"rxncore/internal/core"
	"rxncore/pkg/domain"
)

func TestUndoRedoSingleOperations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Undo(); !domain.IsCode(err, domain.CodeStackEmpty) {
		t.Fatalf("undo on empty stack: got %v", err)
	}
	if err := s.Redo(); !domain.IsCode(err, domain.CodeStackEmpty) {
		t.Fatalf("redo on empty stack: got %v", err)
	}

	neti := mustNetwork(t, s, "net")
	nodei := mustNode(t, s, neti, "A")
	if err := s.SetNodeCoordinate(ctx, neti, nodei, 100, 200); err != nil {
		t.Fatalf("move: %v", err)
	}

	if err := s.Undo(); err != nil {
		t.Fatalf("undo move: %v", err)
	}
	if x, y, _ := s.NodeCoordinate(neti, nodei); x != 10 || y != 10 {
		t.Fatalf("after undo, coordinate = (%v, %v)", x, y)
	}

	if err := s.Redo(); err != nil {
		t.Fatalf("redo move: %v", err)
	}
	if x, y, _ := s.NodeCoordinate(neti, nodei); x != 100 || y != 200 {
		t.Fatalf("after redo, coordinate = (%v, %v)", x, y)
	}

	// Walk all the way back to the empty document.
	for s.CanUndo() {
		if err := s.Undo(); err != nil {
			t.Fatalf("undo: %v", err)
		}
	}
	if n := s.NumberOfNetworks(); n != 0 {
		t.Fatalf("after full undo, %d networks remain", n)
	}
	// And forward again.
	for s.CanRedo() {
		if err := s.Redo(); err != nil {
			t.Fatalf("redo: %v", err)
		}
	}
	if x, y, _ := s.NodeCoordinate(neti, nodei); x != 100 || y != 200 {
		t.Fatalf("after full redo, coordinate = (%v, %v)", x, y)
	}
}

func TestUndoRestoresDeepStructure(t *testing.T) {
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

	if err := s.DeleteReaction(ctx, neti, reai); err != nil {
		t.Fatalf("delete reaction: %v", err)
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("undo delete: %v", err)
	}

	if st, err := s.ReactionSrcStoich(neti, reai, a); err != nil || st != 2 {
		t.Fatalf("restored stoich = %v, %v", st, err)
	}
	ids, err := s.ReactionDestNodeIDs(neti, reai)
	if err != nil || len(ids) != 1 || ids[0] != "B" {
		t.Fatalf("restored dest ids = %v, %v", ids, err)
	}
}

func TestMutationAfterUndoDoesNotCorruptHistory(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	nodei := mustNode(t, s, neti, "A")

	if err := s.SetNodeConcentration(ctx, neti, nodei, 5); err != nil {
		t.Fatalf("set concentration: %v", err)
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}

	// Snapshots must be independent: mutating the restored state cannot
	// bleed into the snapshot still sitting on the redo stack.
	if err := s.SetNodeCoordinate(ctx, neti, nodei, 77, 88); err != nil {
		t.Fatalf("move after undo: %v", err)
	}
	if s.CanRedo() {
		t.Fatalf("new mutation must clear the redo stack")
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("undo move: %v", err)
	}
	if conc, _ := s.NodeConcentration(neti, nodei); conc != 0 {
		t.Fatalf("concentration bled across snapshots: %v", conc)
	}
	if x, y, _ := s.NodeCoordinate(neti, nodei); x != 10 || y != 10 {
		t.Fatalf("coordinate bled across snapshots: (%v, %v)", x, y)
	}
}

func TestGroupedMutationsUndoAsOne(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")

	s.StartGroup()
	a := mustNode(t, s, neti, "A")
	b := mustNode(t, s, neti, "B")
	reai, err := s.CreateReaction(ctx, neti, "J0")
	if err != nil {
		t.Fatalf("create reaction: %v", err)
	}
	if err := s.AddSrcNode(ctx, neti, reai, a, 1); err != nil {
		t.Fatalf("add src: %v", err)
	}
	if err := s.AddDestNode(ctx, neti, reai, b, 1); err != nil {
		t.Fatalf("add dest: %v", err)
	}
	s.EndGroup()

	if err := s.Undo(); err != nil {
		t.Fatalf("undo group: %v", err)
	}
	if n, _ := s.NumberOfNodes(neti); n != 0 {
		t.Fatalf("after group undo, %d nodes remain", n)
	}
	if n, _ := s.NumberOfReactions(neti); n != 0 {
		t.Fatalf("after group undo, %d reactions remain", n)
	}

	if err := s.Redo(); err != nil {
		t.Fatalf("redo group: %v", err)
	}
	if n, _ := s.NumberOfNodes(neti); n != 2 {
		t.Fatalf("after group redo, %d nodes", n)
	}
	if srcs, _ := s.ReactionSrcNodeIndices(neti, reai); len(srcs) != 1 || srcs[0] != a {
		t.Fatalf("after group redo, srcs = %v", srcs)
	}
}

func TestNestedGroupsCollapse(t *testing.T) {
	s := newStore(t)
	neti := mustNetwork(t, s, "net")

	s.StartGroup()
	mustNode(t, s, neti, "A")
	s.StartGroup()
	mustNode(t, s, neti, "B")
	s.EndGroup()
	if !s.Grouping() {
		t.Fatalf("inner EndGroup must not close the outer group")
	}
	mustNode(t, s, neti, "C")
	s.EndGroup()
	if s.Grouping() {
		t.Fatalf("outer EndGroup must close the group")
	}

	if err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if n, _ := s.NumberOfNodes(neti); n != 0 {
		t.Fatalf("nested group undo left %d nodes", n)
	}
}

func TestCompositeFailureRollsBackGroup(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	a := mustNode(t, s, neti, "A")

	// The target index is bad, so the composite fails after the reaction
	// was already created inside its group. Nothing may remain.
	_, err := s.CreateUniUni(ctx, neti, "J0", "k1*A", a, 99, 1, 1)
	if !domain.IsCode(err, domain.CodeNodeIndexNotFound) {
		t.Fatalf("composite with bad target: got %v", err)
	}
	if n, _ := s.NumberOfReactions(neti); n != 0 {
		t.Fatalf("failed composite left %d reactions", n)
	}
	if s.Grouping() {
		t.Fatalf("failed composite left the group open")
	}
	if s.CanRedo() {
		t.Fatalf("failed composite polluted the redo stack")
	}
}

func TestCompositeBuildersProduceCompleteReactions(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	a := mustNode(t, s, neti, "A")
	b := mustNode(t, s, neti, "B")
	c := mustNode(t, s, neti, "C")
	d := mustNode(t, s, neti, "D")

	reai, err := s.CreateBiBi(ctx, neti, "J0", "k1*A*B", a, b, c, d, 1, 2, 1, 1)
	if err != nil {
		t.Fatalf("create bi-bi: %v", err)
	}
	if law, _ := s.RateLaw(neti, reai); law != "k1*A*B" {
		t.Fatalf("rate law = %q", law)
	}
	if srcs, _ := s.ReactionSrcNodeIndices(neti, reai); len(srcs) != 2 {
		t.Fatalf("srcs = %v", srcs)
	}
	if st, _ := s.ReactionSrcStoich(neti, reai, b); st != 2 {
		t.Fatalf("stoich of b = %v", st)
	}

	// One undo removes the whole composite.
	if err := s.Undo(); err != nil {
		t.Fatalf("undo composite: %v", err)
	}
	if n, _ := s.NumberOfReactions(neti); n != 0 {
		t.Fatalf("composite not undone as a unit, %d reactions", n)
	}
}

func TestRedoClearedByNewMutationInsideGroup(t *testing.T) {
	s := newStore(t)
	neti := mustNetwork(t, s, "net")
	mustNode(t, s, neti, "A")
	if err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !s.CanRedo() {
		t.Fatalf("expected redo after undo")
	}

	s.StartGroup()
	mustNode(t, s, neti, "B")
	s.EndGroup()
	if s.CanRedo() {
		t.Fatalf("grouped mutation must clear the redo stack")
	}
}

func TestResetDropsStateAndHistory(t *testing.T) {
	s := newStore(t)
	neti := mustNetwork(t, s, "net")
	mustNode(t, s, neti, "A")

	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.NumberOfNetworks() != 0 {
		t.Fatalf("reset left networks behind")
	}
	if s.CanUndo() || s.CanRedo() {
		t.Fatalf("reset left history behind")
	}
}

func TestResetReportsPersistFailure(t *testing.T) {
	hookErr := domain.NewError(domain.CodeIOFailure, "disk gone")
	s := core.NewDocumentStore(nil, core.WithCommitHook(func(core.Snapshot) error {
		return hookErr
	}))

	err := s.Reset()
	if !domain.IsCode(err, domain.CodeIOFailure) {
		t.Fatalf("reset: got %v, want %s", err, domain.CodeIOFailure)
	}
}
