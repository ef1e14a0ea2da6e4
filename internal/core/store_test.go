package core_test

import (
	"context"
	"testing"

	"rxncore/internal/core"
	"rxncore/pkg/domain"
)

func newStore(t *testing.T) *core.DocumentStore {
	t.Helper()
	return core.NewDocumentStore(nil)
}

func mustNetwork(t *testing.T, s *core.DocumentStore, id string) int {
	t.Helper()
	neti, err := s.NewNetwork(context.Background(), id)
	if err != nil {
		t.Fatalf("new network %s: %v", id, err)
	}
	return neti
}

func mustNode(t *testing.T, s *core.DocumentStore, neti int, id string) int {
	t.Helper()
	nodei, err := s.AddNode(context.Background(), neti, id, 10, 10, 40, 20)
	if err != nil {
		t.Fatalf("add node %s: %v", id, err)
	}
	return nodei
}

func TestNetworkLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	neti := mustNetwork(t, s, "glycolysis")
	if neti != 0 {
		t.Fatalf("expected first network index 0, got %d", neti)
	}
	if got, err := s.NetworkID(neti); err != nil || got != "glycolysis" {
		t.Fatalf("network id = %q, %v", got, err)
	}
	if got, err := s.NetworkIndex("glycolysis"); err != nil || got != neti {
		t.Fatalf("network index = %d, %v", got, err)
	}

	if _, err := s.NewNetwork(ctx, "glycolysis"); !domain.IsCode(err, domain.CodeIDRepeat) {
		t.Fatalf("duplicate network id: got %v, want id_repeat", err)
	}

	second := mustNetwork(t, s, "tca")
	if second != 1 {
		t.Fatalf("expected second network index 1, got %d", second)
	}
	if n := s.NumberOfNetworks(); n != 2 {
		t.Fatalf("expected 2 networks, got %d", n)
	}

	if err := s.DeleteNetwork(ctx, neti); err != nil {
		t.Fatalf("delete network: %v", err)
	}
	if _, err := s.NetworkID(neti); !domain.IsCode(err, domain.CodeNetIndexNotFound) {
		t.Fatalf("deleted network lookup: got %v", err)
	}

	// Indices are never reused after a delete.
	third := mustNetwork(t, s, "ppp")
	if third != 2 {
		t.Fatalf("expected third network index 2, got %d", third)
	}
}

func TestClearNetworksResetsIndexAllocator(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	mustNetwork(t, s, "a")
	mustNetwork(t, s, "b")
	if err := s.ClearNetworks(ctx); err != nil {
		t.Fatalf("clear networks: %v", err)
	}
	if n := s.NumberOfNetworks(); n != 0 {
		t.Fatalf("expected empty store, got %d networks", n)
	}
	if neti := mustNetwork(t, s, "fresh"); neti != 0 {
		t.Fatalf("expected allocator reset to 0, got %d", neti)
	}
}

func TestClearNetworkKeepsIdentityAndIndex(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	neti := mustNetwork(t, s, "net")
	mustNode(t, s, neti, "A")
	if err := s.ClearNetwork(ctx, neti); err != nil {
		t.Fatalf("clear network: %v", err)
	}
	if id, err := s.NetworkID(neti); err != nil || id != "net" {
		t.Fatalf("cleared network id = %q, %v", id, err)
	}
	if n, err := s.NumberOfNodes(neti); err != nil || n != 0 {
		t.Fatalf("cleared network nodes = %d, %v", n, err)
	}
}

func TestNodeCreationAndProperties(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")

	nodei, err := s.AddNode(ctx, neti, "ATP", 5, 6, 40, 25)
	if err != nil {
		t.Fatalf("add node: %v", err)
	}
	if nodei != 0 {
		t.Fatalf("expected node index 0, got %d", nodei)
	}

	x, y, err := s.NodeCoordinate(neti, nodei)
	if err != nil || x != 5 || y != 6 {
		t.Fatalf("coordinate = (%v, %v), %v", x, y, err)
	}
	w, h, err := s.NodeSize(neti, nodei)
	if err != nil || w != 40 || h != 25 {
		t.Fatalf("size = (%v, %v), %v", w, h, err)
	}

	// Defaults from the document model.
	if floating, err := s.NodeFloating(neti, nodei); err != nil || !floating {
		t.Fatalf("floating default = %v, %v", floating, err)
	}
	if locked, err := s.NodeLocked(neti, nodei); err != nil || locked {
		t.Fatalf("locked default = %v, %v", locked, err)
	}
	fill, err := s.NodeFillColor(neti, nodei)
	if err != nil {
		t.Fatalf("fill color: %v", err)
	}
	if fill.R != 255 || fill.G != 150 || fill.B != 80 || fill.A != 255 {
		t.Fatalf("unexpected default fill %+v", fill)
	}

	if err := s.SetNodeFillAlpha(ctx, neti, nodei, 0.5); err != nil {
		t.Fatalf("set fill alpha: %v", err)
	}
	fill, _ = s.NodeFillColor(neti, nodei)
	if fill.R != 255 || fill.G != 150 || fill.B != 80 {
		t.Fatalf("alpha change must preserve rgb, got %+v", fill)
	}
	if a := fill.AlphaF(); a < 0.49 || a > 0.51 {
		t.Fatalf("alpha = %v, want ~0.5", a)
	}

	if err := s.SetNodeFillRGB(ctx, neti, nodei, 10, 20, 30); err != nil {
		t.Fatalf("set fill rgb: %v", err)
	}
	fill, _ = s.NodeFillColor(neti, nodei)
	if fill.R != 10 || fill.G != 20 || fill.B != 30 {
		t.Fatalf("rgb = %+v", fill)
	}
	if a := fill.AlphaF(); a < 0.49 || a > 0.51 {
		t.Fatalf("rgb change must preserve alpha, got %v", a)
	}
}

func TestNodeValidationFailuresLeaveStateUntouched(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	mustNode(t, s, neti, "A")

	cases := []struct {
		name string
		call func() error
		code domain.ErrorCode
	}{
		{"duplicate id", func() error {
			_, err := s.AddNode(ctx, neti, "A", 0, 0, 10, 10)
			return err
		}, domain.CodeIDRepeat},
		{"negative width", func() error {
			_, err := s.AddNode(ctx, neti, "B", 0, 0, -1, 10)
			return err
		}, domain.CodeValueOutOfRange},
		{"zero height", func() error {
			_, err := s.AddNode(ctx, neti, "B", 0, 0, 10, 0)
			return err
		}, domain.CodeValueOutOfRange},
		{"bad network index", func() error {
			_, err := s.AddNode(ctx, 99, "B", 0, 0, 10, 10)
			return err
		}, domain.CodeNetIndexNotFound},
		{"negative concentration", func() error {
			return s.SetNodeConcentration(ctx, neti, 0, -1)
		}, domain.CodeValueOutOfRange},
		{"channel out of range", func() error {
			return s.SetNodeFillRGB(ctx, neti, 0, 0, 300, 0)
		}, domain.CodeValueOutOfRange},
		{"alpha out of range", func() error {
			return s.SetNodeFillAlpha(ctx, neti, 0, 1.5)
		}, domain.CodeValueOutOfRange},
		{"zero thickness", func() error {
			return s.SetNodeOutlineThickness(ctx, neti, 0, 0)
		}, domain.CodeValueOutOfRange},
	}
	for _, tc := range cases {
		err := tc.call()
		if !domain.IsCode(err, tc.code) {
			t.Fatalf("%s: got %v, want %s", tc.name, err, tc.code)
		}
	}

	if n, _ := s.NumberOfNodes(neti); n != 1 {
		t.Fatalf("failed mutations must not add nodes, got %d", n)
	}
	if s.CanRedo() {
		t.Fatalf("failed mutations must not touch history")
	}
}

func TestIndexRangeCheckedBeforeIDUniqueness(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	mustNode(t, s, neti, "A")

	// Both the network index and the ID are bad; the index wins.
	_, err := s.AddNode(ctx, 42, "A", 0, 0, 10, 10)
	if !domain.IsCode(err, domain.CodeNetIndexNotFound) {
		t.Fatalf("got %v, want net_index_not_found", err)
	}
	// Both the ID and the rectangle are bad; the ID wins.
	_, err = s.AddNode(ctx, neti, "A", 0, 0, -5, 10)
	if !domain.IsCode(err, domain.CodeIDRepeat) {
		t.Fatalf("got %v, want id_repeat", err)
	}
}

func TestDeleteNodeBlockedWhileReferenced(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
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

	if err := s.DeleteNode(ctx, neti, a); !domain.IsCode(err, domain.CodeNodeNotFree) {
		t.Fatalf("delete referenced node: got %v, want node_not_free", err)
	}

	if err := s.DeleteReaction(ctx, neti, reai); err != nil {
		t.Fatalf("delete reaction: %v", err)
	}
	if err := s.DeleteNode(ctx, neti, a); err != nil {
		t.Fatalf("delete freed node: %v", err)
	}
	if _, err := s.NodeID(neti, a); !domain.IsCode(err, domain.CodeNodeIndexNotFound) {
		t.Fatalf("deleted node lookup: got %v", err)
	}
}

func TestDeleteNodeRemovesCompartmentMembership(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	nodei := mustNode(t, s, neti, "A")
	compi, err := s.AddCompartment(ctx, neti, "cytosol", 0, 0, 200, 200)
	if err != nil {
		t.Fatalf("add compartment: %v", err)
	}
	if err := s.SetCompartmentOfNode(ctx, neti, nodei, compi); err != nil {
		t.Fatalf("assign compartment: %v", err)
	}

	if err := s.DeleteNode(ctx, neti, nodei); err != nil {
		t.Fatalf("delete node: %v", err)
	}
	members, err := s.NodesInCompartment(neti, compi)
	if err != nil {
		t.Fatalf("nodes in compartment: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("stale membership after delete: %v", members)
	}
}

func TestReactionEndpointsAndStoichiometry(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	a := mustNode(t, s, neti, "A")
	b := mustNode(t, s, neti, "B")
	reai, err := s.CreateReaction(ctx, neti, "J0")
	if err != nil {
		t.Fatalf("create reaction: %v", err)
	}

	if err := s.AddSrcNode(ctx, neti, reai, a, 2); err != nil {
		t.Fatalf("add src: %v", err)
	}
	if err := s.AddDestNode(ctx, neti, reai, b, 1); err != nil {
		t.Fatalf("add dest: %v", err)
	}

	// Non-positive stoichiometry never lands.
	if err := s.AddSrcNode(ctx, neti, reai, b, 0); !domain.IsCode(err, domain.CodeBadStoichiometry) {
		t.Fatalf("zero stoich: got %v", err)
	}
	if err := s.AddSrcNode(ctx, neti, reai, b, -2); !domain.IsCode(err, domain.CodeBadStoichiometry) {
		t.Fatalf("negative stoich: got %v", err)
	}
	if srcs, _ := s.ReactionSrcNodeIndices(neti, reai); len(srcs) != 1 {
		t.Fatalf("rejected stoich mutated endpoints: %v", srcs)
	}

	// Same node twice on the same side is an id repeat.
	if err := s.AddSrcNode(ctx, neti, reai, a, 1); !domain.IsCode(err, domain.CodeIDRepeat) {
		t.Fatalf("duplicate src: got %v", err)
	}

	if st, err := s.ReactionSrcStoich(neti, reai, a); err != nil || st != 2 {
		t.Fatalf("src stoich = %v, %v", st, err)
	}
	if err := s.SetReactionSrcStoich(ctx, neti, reai, a, 3.5); err != nil {
		t.Fatalf("set src stoich: %v", err)
	}
	if st, _ := s.ReactionSrcStoich(neti, reai, a); st != 3.5 {
		t.Fatalf("src stoich after update = %v", st)
	}

	if err := s.DeleteSrcNode(ctx, neti, reai, a); err != nil {
		t.Fatalf("delete src: %v", err)
	}
	if err := s.DeleteSrcNode(ctx, neti, reai, a); !domain.IsCode(err, domain.CodeIDNotFound) {
		t.Fatalf("delete missing src: got %v", err)
	}

	ids, err := s.ReactionDestNodeIDs(neti, reai)
	if err != nil || len(ids) != 1 || ids[0] != "B" {
		t.Fatalf("dest ids = %v, %v", ids, err)
	}
}

func TestReactionsOfNodeFollowsIdentity(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	a := mustNode(t, s, neti, "A")
	b := mustNode(t, s, neti, "B")

	r0, _ := s.CreateReaction(ctx, neti, "J0")
	r1, _ := s.CreateReaction(ctx, neti, "J1")
	if err := s.AddSrcNode(ctx, neti, r0, a, 1); err != nil {
		t.Fatalf("add src: %v", err)
	}
	if err := s.AddDestNode(ctx, neti, r1, a, 1); err != nil {
		t.Fatalf("add dest: %v", err)
	}
	if err := s.AddDestNode(ctx, neti, r0, b, 1); err != nil {
		t.Fatalf("add dest: %v", err)
	}

	srcOf, err := s.SrcReactions(neti, a)
	if err != nil || len(srcOf) != 1 || srcOf[0] != r0 {
		t.Fatalf("src reactions of A = %v, %v", srcOf, err)
	}
	destOf, err := s.DestReactions(neti, a)
	if err != nil || len(destOf) != 1 || destOf[0] != r1 {
		t.Fatalf("dest reactions of A = %v, %v", destOf, err)
	}
}

func TestCompartmentVolumeAcceptsZero(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	compi, err := s.AddCompartment(ctx, neti, "cytosol", 0, 0, 200, 200)
	if err != nil {
		t.Fatalf("add compartment: %v", err)
	}

	if err := s.SetCompartmentVolume(ctx, neti, compi, 0); err != nil {
		t.Fatalf("set volume 0: %v", err)
	}
	if v, err := s.CompartmentVolume(neti, compi); err != nil || v != 0 {
		t.Fatalf("volume = %v, %v, want 0", v, err)
	}
	if err := s.SetCompartmentVolume(ctx, neti, compi, -0.5); !domain.IsCode(err, domain.CodeValueOutOfRange) {
		t.Fatalf("negative volume: got %v, want %s", err, domain.CodeValueOutOfRange)
	}
	if v, _ := s.CompartmentVolume(neti, compi); v != 0 {
		t.Fatalf("volume changed by rejected set: %v", v)
	}
}

func TestCompartmentMembershipMoves(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	nodei := mustNode(t, s, neti, "A")

	cyto, err := s.AddCompartment(ctx, neti, "cytosol", 0, 0, 300, 300)
	if err != nil {
		t.Fatalf("add compartment: %v", err)
	}
	nucleus, err := s.AddCompartment(ctx, neti, "nucleus", 50, 50, 100, 100)
	if err != nil {
		t.Fatalf("add compartment: %v", err)
	}

	if compi, _ := s.CompartmentOfNode(neti, nodei); compi != domain.NoCompartment {
		t.Fatalf("new node compartment = %d, want base", compi)
	}

	if err := s.SetCompartmentOfNode(ctx, neti, nodei, cyto); err != nil {
		t.Fatalf("assign cytosol: %v", err)
	}
	if err := s.SetCompartmentOfNode(ctx, neti, nodei, nucleus); err != nil {
		t.Fatalf("move to nucleus: %v", err)
	}

	if members, _ := s.NodesInCompartment(neti, cyto); len(members) != 0 {
		t.Fatalf("cytosol still holds %v", members)
	}
	if members, _ := s.NodesInCompartment(neti, nucleus); len(members) != 1 || members[0] != nodei {
		t.Fatalf("nucleus members = %v", members)
	}

	// Back to the base bucket.
	if err := s.SetCompartmentOfNode(ctx, neti, nodei, domain.NoCompartment); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if base, _ := s.NodesInCompartment(neti, domain.NoCompartment); len(base) != 1 {
		t.Fatalf("base bucket = %v", base)
	}
}

func TestDeleteCompartmentReleasesMembers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	nodei := mustNode(t, s, neti, "A")
	compi, _ := s.AddCompartment(ctx, neti, "c", 0, 0, 100, 100)
	if err := s.SetCompartmentOfNode(ctx, neti, nodei, compi); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := s.DeleteCompartment(ctx, neti, compi); err != nil {
		t.Fatalf("delete compartment: %v", err)
	}
	if _, err := s.NodeID(neti, nodei); err != nil {
		t.Fatalf("member must survive compartment deletion: %v", err)
	}
	if got, _ := s.CompartmentOfNode(neti, nodei); got != domain.NoCompartment {
		t.Fatalf("member compartment = %d, want base", got)
	}
}

func TestParameters(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")

	if err := s.SetParameter(ctx, neti, "k1", 0.25); err != nil {
		t.Fatalf("set parameter: %v", err)
	}
	if err := s.SetParameter(ctx, neti, "k1", 0.75); err != nil {
		t.Fatalf("overwrite parameter: %v", err)
	}
	params, err := s.Parameters(neti)
	if err != nil || params["k1"] != 0.75 {
		t.Fatalf("parameters = %v, %v", params, err)
	}

	// Returned map is a copy.
	params["k1"] = 99
	if fresh, _ := s.Parameters(neti); fresh["k1"] != 0.75 {
		t.Fatalf("parameters leaked internal map")
	}

	if err := s.RemoveParameter(ctx, neti, "k1"); err != nil {
		t.Fatalf("remove parameter: %v", err)
	}
	if err := s.RemoveParameter(ctx, neti, "k1"); !domain.IsCode(err, domain.CodeIDNotFound) {
		t.Fatalf("remove missing parameter: got %v", err)
	}
}

func TestSetIDsRenameAndCollide(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	neti := mustNetwork(t, s, "net")
	a := mustNode(t, s, neti, "A")
	mustNode(t, s, neti, "B")

	if err := s.SetNodeID(ctx, neti, a, "B"); !domain.IsCode(err, domain.CodeIDRepeat) {
		t.Fatalf("rename collision: got %v", err)
	}
	// Renaming to the current ID is a no-op, not a collision.
	if err := s.SetNodeID(ctx, neti, a, "A"); err != nil {
		t.Fatalf("self rename: %v", err)
	}
	if err := s.SetNodeID(ctx, neti, a, "C"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if idx, err := s.NodeIndex(neti, "C"); err != nil || idx != a {
		t.Fatalf("lookup after rename = %d, %v", idx, err)
	}
	if _, err := s.NodeIndex(neti, "A"); !domain.IsCode(err, domain.CodeIDNotFound) {
		t.Fatalf("old id still resolves: %v", err)
	}
}
