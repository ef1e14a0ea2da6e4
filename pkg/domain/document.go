package domain

import (
	"bytes"
	"encoding/json"
	"sort"
)

// NodeDocument is the serialized form of a node. Alias glyphs carry an empty
// ID and the index of their original; originals carry Original == -1.
type NodeDocument struct {
	Index            int     `json:"index"`
	ID               string  `json:"id,omitempty"`
	Original         int     `json:"original"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	W                float64 `json:"w"`
	H                float64 `json:"h"`
	FillColor        Color   `json:"fillColor"`
	OutlineColor     Color   `json:"outlineColor"`
	OutlineThickness float64 `json:"outlineThickness"`
	Floating         bool    `json:"floating"`
	Locked           bool    `json:"locked"`
	Concentration    float64 `json:"concentration"`
	Compartment      int     `json:"compartment"`
}

// ReactionDocument is the serialized form of a reaction. Sources and Targets
// are keyed by node ID; alias endpoints resolve to their original's ID, so an
// alias and its original on the same side of one reaction collapse to a
// single entry and reload against the original's index.
type ReactionDocument struct {
	Index     int                `json:"index"`
	ID        string             `json:"id"`
	RateLaw   string             `json:"rateLaw"`
	Sources   map[string]float64 `json:"sources"`
	Targets   map[string]float64 `json:"targets"`
	FillColor Color              `json:"fillColor"`
	Thickness float64            `json:"thickness"`
}

// CompartmentDocument is the serialized form of a compartment.
type CompartmentDocument struct {
	Index            int     `json:"index"`
	ID               string  `json:"id"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	W                float64 `json:"w"`
	H                float64 `json:"h"`
	Volume           float64 `json:"volume"`
	FillColor        Color   `json:"fillColor"`
	OutlineColor     Color   `json:"outlineColor"`
	OutlineThickness float64 `json:"outlineThickness"`
	Nodes            []int   `json:"nodes"`
}

// NetworkDocument is the serialized form of a whole network. Entity slices
// are ordered by ascending registry index, so encoding is deterministic and a
// load→save round trip reproduces byte-identical output.
type NetworkDocument struct {
	ID           string                `json:"id"`
	Parameters   map[string]float64    `json:"parameters"`
	Nodes        []NodeDocument        `json:"nodes"`
	Reactions    []ReactionDocument    `json:"reactions"`
	Compartments []CompartmentDocument `json:"compartments"`
}

// SnapshotNetwork pairs a network document with its registry index.
type SnapshotNetwork struct {
	Index    int             `json:"index"`
	Document NetworkDocument `json:"document"`
}

// Snapshot is the serialized form of an entire document store state, used by
// durable persistence backends. Undo/redo history is session-scoped and not
// part of a snapshot.
type Snapshot struct {
	LastNetworkIndex int               `json:"last_network_index"`
	Networks         []SnapshotNetwork `json:"networks"`
}

// NodeIdentity resolves the identity-level ID of the node at idx, delegating
// through alias references. The second return is false when idx (or a stale
// alias target) names no node.
func (n *Network) NodeIdentity(idx int) (string, bool) {
	node, ok := n.Nodes[idx]
	if !ok {
		return "", false
	}
	if node.IsAlias() {
		original, ok := n.Nodes[node.OriginalIndex]
		if !ok {
			return "", false
		}
		return original.ID, true
	}
	return node.ID, true
}

func sortedIndices[T any](m map[int]T) []int {
	out := make([]int, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// ToDocument converts the network into its serialized form.
func (n *Network) ToDocument() NetworkDocument {
	doc := NetworkDocument{
		ID:           n.ID,
		Parameters:   make(map[string]float64, len(n.Parameters)),
		Nodes:        make([]NodeDocument, 0, len(n.Nodes)),
		Reactions:    make([]ReactionDocument, 0, len(n.Reactions)),
		Compartments: make([]CompartmentDocument, 0, len(n.Compartments)),
	}
	for k, v := range n.Parameters {
		doc.Parameters[k] = v
	}
	for _, i := range sortedIndices(n.Nodes) {
		node := n.Nodes[i]
		doc.Nodes = append(doc.Nodes, NodeDocument{
			Index:            i,
			ID:               node.ID,
			Original:         node.OriginalIndex,
			X:                node.X,
			Y:                node.Y,
			W:                node.W,
			H:                node.H,
			FillColor:        node.FillColor,
			OutlineColor:     node.OutlineColor,
			OutlineThickness: node.OutlineThickness,
			Floating:         node.Floating,
			Locked:           node.Locked,
			Concentration:    node.Concentration,
			Compartment:      node.Compartment,
		})
	}
	for _, i := range sortedIndices(n.Reactions) {
		rea := n.Reactions[i]
		rd := ReactionDocument{
			Index:     i,
			ID:        rea.ID,
			RateLaw:   rea.RateLaw,
			Sources:   make(map[string]float64, len(rea.Sources)),
			Targets:   make(map[string]float64, len(rea.Targets)),
			FillColor: rea.FillColor,
			Thickness: rea.Thickness,
		}
		// Sorted so the highest glyph index wins when endpoints share an
		// identity, keeping encode deterministic.
		for _, nodeIdx := range sortedIndices(rea.Sources) {
			if id, ok := n.NodeIdentity(nodeIdx); ok {
				rd.Sources[id] = rea.Sources[nodeIdx].Stoich
			}
		}
		for _, nodeIdx := range sortedIndices(rea.Targets) {
			if id, ok := n.NodeIdentity(nodeIdx); ok {
				rd.Targets[id] = rea.Targets[nodeIdx].Stoich
			}
		}
		doc.Reactions = append(doc.Reactions, rd)
	}
	for _, i := range sortedIndices(n.Compartments) {
		comp := n.Compartments[i]
		doc.Compartments = append(doc.Compartments, CompartmentDocument{
			Index:            i,
			ID:               comp.ID,
			X:                comp.X,
			Y:                comp.Y,
			W:                comp.W,
			H:                comp.H,
			Volume:           comp.Volume,
			FillColor:        comp.FillColor,
			OutlineColor:     comp.OutlineColor,
			OutlineThickness: comp.OutlineThickness,
			Nodes:            sortedIndices(comp.Nodes),
		})
	}
	return doc
}

// NetworkFromDocument rebuilds a live network from its serialized form,
// re-linking reaction endpoints by node ID. Referential problems (unknown
// IDs, duplicate IDs, dangling alias or compartment references) surface as
// CodeBadDocumentFormat.
func NetworkFromDocument(doc NetworkDocument) (*Network, error) {
	const op = "networkFromDocument"
	net := NewNetwork(doc.ID)
	for k, v := range doc.Parameters {
		net.Parameters[k] = v
	}

	byID := make(map[string]int, len(doc.Nodes))
	for _, nd := range doc.Nodes {
		if _, exists := net.Nodes[nd.Index]; exists {
			return nil, NewError(CodeBadDocumentFormat, op, doc.ID, nd.Index)
		}
		node := &Node{
			Kind:             KindOriginal,
			ID:               nd.ID,
			X:                nd.X,
			Y:                nd.Y,
			W:                nd.W,
			H:                nd.H,
			FillColor:        nd.FillColor,
			OutlineColor:     nd.OutlineColor,
			OutlineThickness: nd.OutlineThickness,
			Floating:         nd.Floating,
			Locked:           nd.Locked,
			Concentration:    nd.Concentration,
			Compartment:      nd.Compartment,
			OriginalIndex:    nd.Original,
		}
		if nd.Original != NoOriginal {
			node.Kind = KindAlias
			node.ID = ""
		} else {
			if _, dup := byID[nd.ID]; dup {
				return nil, NewError(CodeIDRepeat, op, doc.ID, nd.ID)
			}
			byID[nd.ID] = nd.Index
		}
		net.Nodes[nd.Index] = node
		if nd.Index >= net.LastNodeIndex {
			net.LastNodeIndex = nd.Index + 1
		}
	}
	// Alias targets must exist and be originals.
	for idx, node := range net.Nodes {
		if !node.IsAlias() {
			continue
		}
		original, ok := net.Nodes[node.OriginalIndex]
		if !ok || original.IsAlias() {
			return nil, NewError(CodeBadDocumentFormat, op, doc.ID, idx)
		}
	}

	for _, cd := range doc.Compartments {
		if _, exists := net.Compartments[cd.Index]; exists {
			return nil, NewError(CodeBadDocumentFormat, op, doc.ID, cd.Index)
		}
		comp := &Compartment{
			ID:               cd.ID,
			X:                cd.X,
			Y:                cd.Y,
			W:                cd.W,
			H:                cd.H,
			Volume:           cd.Volume,
			FillColor:        cd.FillColor,
			OutlineColor:     cd.OutlineColor,
			OutlineThickness: cd.OutlineThickness,
			Nodes:            make(map[int]struct{}, len(cd.Nodes)),
		}
		for _, nodeIdx := range cd.Nodes {
			if _, ok := net.Nodes[nodeIdx]; !ok {
				return nil, NewError(CodeBadDocumentFormat, op, doc.ID, cd.ID, nodeIdx)
			}
			comp.Nodes[nodeIdx] = struct{}{}
		}
		net.Compartments[cd.Index] = comp
		if cd.Index >= net.LastCompartmentIndex {
			net.LastCompartmentIndex = cd.Index + 1
		}
	}
	// Membership must agree with each node's compartment field.
	for idx, node := range net.Nodes {
		if node.Compartment == NoCompartment {
			continue
		}
		comp, ok := net.Compartments[node.Compartment]
		if !ok {
			return nil, NewError(CodeBadDocumentFormat, op, doc.ID, idx)
		}
		if _, member := comp.Nodes[idx]; !member {
			return nil, NewError(CodeBadDocumentFormat, op, doc.ID, idx)
		}
	}

	for _, rd := range doc.Reactions {
		if _, exists := net.Reactions[rd.Index]; exists {
			return nil, NewError(CodeBadDocumentFormat, op, doc.ID, rd.Index)
		}
		rea := &Reaction{
			ID:        rd.ID,
			RateLaw:   rd.RateLaw,
			Sources:   make(map[int]SpeciesRef, len(rd.Sources)),
			Targets:   make(map[int]SpeciesRef, len(rd.Targets)),
			FillColor: rd.FillColor,
			Thickness: rd.Thickness,
		}
		for id, stoich := range rd.Sources {
			nodeIdx, ok := byID[id]
			if !ok || stoich <= 0 {
				return nil, NewError(CodeBadDocumentFormat, op, doc.ID, rd.ID, id)
			}
			rea.Sources[nodeIdx] = SpeciesRef{Stoich: stoich}
		}
		for id, stoich := range rd.Targets {
			nodeIdx, ok := byID[id]
			if !ok || stoich <= 0 {
				return nil, NewError(CodeBadDocumentFormat, op, doc.ID, rd.ID, id)
			}
			rea.Targets[nodeIdx] = SpeciesRef{Stoich: stoich}
		}
		net.Reactions[rd.Index] = rea
		if rd.Index >= net.LastReactionIndex {
			net.LastReactionIndex = rd.Index + 1
		}
	}
	return net, nil
}

// EncodeNetwork serializes the network to indented, deterministic JSON.
func EncodeNetwork(n *Network) ([]byte, error) {
	data, err := json.MarshalIndent(n.ToDocument(), "", "  ")
	if err != nil {
		return nil, WrapError(CodeBadDocumentFormat, "encodeNetwork", err, n.ID)
	}
	return append(data, '\n'), nil
}

// DecodeNetwork parses a serialized network document and rebuilds the live
// network.
func DecodeNetwork(data []byte) (*Network, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var doc NetworkDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, WrapError(CodeBadDocumentFormat, "decodeNetwork", err)
	}
	return NetworkFromDocument(doc)
}
