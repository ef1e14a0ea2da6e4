package domain_test

import (
	"bytes"
	"testing"

	"rxncore/pkg/domain"
)

func buildNetwork(t *testing.T) *domain.Network {
	t.Helper()
	net := domain.NewNetwork("demo")

	a := domain.NewNode("A", 10, 10, 40, 20)
	a.Concentration = 2.5
	b := domain.NewNode("B", 120, 10, 40, 20)
	alias := domain.NewAliasNode(0, 10, 200, 40, 20)
	net.Nodes[0] = &a
	net.Nodes[1] = &b
	net.Nodes[2] = &alias
	net.LastNodeIndex = 3

	comp := domain.NewCompartment("cytosol", 0, 0, 400, 300)
	comp.Volume = 2
	comp.Nodes[0] = struct{}{}
	net.Compartments[0] = &comp
	net.Nodes[0].Compartment = 0
	net.LastCompartmentIndex = 1

	rea := domain.NewReaction("J0")
	rea.RateLaw = "k1*A"
	rea.Sources[0] = domain.SpeciesRef{Stoich: 1}
	rea.Targets[1] = domain.SpeciesRef{Stoich: 2}
	net.Reactions[0] = &rea
	net.LastReactionIndex = 1

	net.Parameters["k1"] = 0.3
	return net
}

func TestEncodeDecodeRoundTripIsByteStable(t *testing.T) {
	net := buildNetwork(t)

	first, err := domain.EncodeNetwork(net)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := domain.DecodeNetwork(first)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	second, err := domain.EncodeNetwork(decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("round trip not byte stable:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestDecodePreservesStructure(t *testing.T) {
	data, err := domain.EncodeNetwork(buildNetwork(t))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	net, err := domain.DecodeNetwork(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if net.ID != "demo" || net.Parameters["k1"] != 0.3 {
		t.Fatalf("identity lost: %q %v", net.ID, net.Parameters)
	}
	if net.LastNodeIndex != 3 || net.LastReactionIndex != 1 || net.LastCompartmentIndex != 1 {
		t.Fatalf("allocators lost: %d %d %d", net.LastNodeIndex, net.LastReactionIndex, net.LastCompartmentIndex)
	}
	if !net.Nodes[2].IsAlias() || net.Nodes[2].OriginalIndex != 0 {
		t.Fatalf("alias lost: %+v", net.Nodes[2])
	}
	if net.Nodes[0].Concentration != 2.5 {
		t.Fatalf("concentration lost: %v", net.Nodes[0].Concentration)
	}
	if _, member := net.Compartments[0].Nodes[0]; !member || net.Nodes[0].Compartment != 0 {
		t.Fatalf("compartment membership lost")
	}
	rea := net.Reactions[0]
	if rea.Sources[0].Stoich != 1 || rea.Targets[1].Stoich != 2 || rea.RateLaw != "k1*A" {
		t.Fatalf("reaction lost: %+v", rea)
	}
}

func TestNodeIdentityDelegatesThroughAlias(t *testing.T) {
	net := buildNetwork(t)
	if id, ok := net.NodeIdentity(2); !ok || id != "A" {
		t.Fatalf("alias identity = %q, %v", id, ok)
	}
	if id, ok := net.NodeIdentity(1); !ok || id != "B" {
		t.Fatalf("original identity = %q, %v", id, ok)
	}
	if _, ok := net.NodeIdentity(42); ok {
		t.Fatalf("identity of missing index resolved")
	}
}

func TestDecodeRejectsMalformedDocuments(t *testing.T) {
	if _, err := domain.DecodeNetwork([]byte("{not json")); !domain.IsCode(err, domain.CodeBadDocumentFormat) {
		t.Fatalf("bad json: got %v", err)
	}

	cases := []struct {
		name string
		doc  domain.NetworkDocument
	}{
		{"alias target missing", domain.NetworkDocument{
			ID: "x",
			Nodes: []domain.NodeDocument{
				{Index: 0, Original: 7, X: 0, Y: 0, W: 10, H: 10},
			},
		}},
		{"endpoint unknown id", domain.NetworkDocument{
			ID: "x",
			Nodes: []domain.NodeDocument{
				{Index: 0, ID: "A", Original: domain.NoOriginal, W: 10, H: 10, Compartment: domain.NoCompartment},
			},
			Reactions: []domain.ReactionDocument{
				{Index: 0, ID: "J0", Sources: map[string]float64{"ghost": 1}},
			},
		}},
		{"endpoint bad stoich", domain.NetworkDocument{
			ID: "x",
			Nodes: []domain.NodeDocument{
				{Index: 0, ID: "A", Original: domain.NoOriginal, W: 10, H: 10, Compartment: domain.NoCompartment},
			},
			Reactions: []domain.ReactionDocument{
				{Index: 0, ID: "J0", Sources: map[string]float64{"A": 0}},
			},
		}},
		{"compartment member missing", domain.NetworkDocument{
			ID: "x",
			Compartments: []domain.CompartmentDocument{
				{Index: 0, ID: "c", W: 10, H: 10, Nodes: []int{3}},
			},
		}},
		{"membership disagreement", domain.NetworkDocument{
			ID: "x",
			Nodes: []domain.NodeDocument{
				{Index: 0, ID: "A", Original: domain.NoOriginal, W: 10, H: 10, Compartment: 0},
			},
			Compartments: []domain.CompartmentDocument{
				{Index: 0, ID: "c", W: 10, H: 10},
			},
		}},
	}
	for _, tc := range cases {
		if _, err := domain.NetworkFromDocument(tc.doc); !domain.IsCode(err, domain.CodeBadDocumentFormat) {
			t.Fatalf("%s: got %v, want bad_document_format", tc.name, err)
		}
	}
}

func TestColorAlphaHelpers(t *testing.T) {
	c := domain.RGB(10, 20, 30)
	if c.A != 255 {
		t.Fatalf("RGB default alpha = %d", c.A)
	}
	half := c.WithAlphaF(0.5)
	if half.R != 10 || half.G != 20 || half.B != 30 {
		t.Fatalf("WithAlphaF changed rgb: %+v", half)
	}
	if a := half.AlphaF(); a < 0.49 || a > 0.51 {
		t.Fatalf("AlphaF = %v", a)
	}
}

func TestAliasEndpointCollapsesToIdentityEntry(t *testing.T) {
	net := buildNetwork(t)
	// Node 2 aliases node 0, which already feeds reaction 0.
	net.Reactions[0].Sources[2] = domain.SpeciesRef{Stoich: 3}

	doc := net.ToDocument()
	if len(doc.Reactions) != 1 {
		t.Fatalf("reactions = %d, want 1", len(doc.Reactions))
	}
	if len(doc.Reactions[0].Sources) != 1 {
		t.Fatalf("sources = %v, want the single identity entry", doc.Reactions[0].Sources)
	}
	if got := doc.Reactions[0].Sources["A"]; got != 3 {
		t.Fatalf("sources = %v, want the highest glyph index's stoichiometry under %q", doc.Reactions[0].Sources, "A")
	}

	encoded, err := domain.EncodeNetwork(net)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := domain.DecodeNetwork(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	srcs := decoded.Reactions[0].Sources
	if len(srcs) != 1 {
		t.Fatalf("reloaded sources = %v, want one endpoint", srcs)
	}
	if _, ok := srcs[0]; !ok {
		t.Fatalf("reloaded sources = %v, want relinked to the original's index", srcs)
	}
}
