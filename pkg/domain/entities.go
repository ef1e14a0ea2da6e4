// Package domain defines the entities, value types, error taxonomy, and rule
// evaluation primitives of the rxncore reaction-network document model.
package domain

// EntityType identifies the type of record held by a network registry.
type EntityType string

// Supported entity type identifiers used in Change records and rule violations.
const (
	// EntityNetwork identifies a whole editable document.
	EntityNetwork EntityType = "network"
	// EntityNode identifies a species glyph.
	EntityNode EntityType = "node"
	// EntityReaction identifies a reaction hyperedge.
	EntityReaction EntityType = "reaction"
	// EntityCompartment identifies a containment region.
	EntityCompartment EntityType = "compartment"
)

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the mutation kinds captured per transaction.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes one mutation applied to an entity during an operation.
type Change struct {
	Entity   EntityType
	Action   Action
	NetIndex int
	Index    int
}

// NoCompartment is the sentinel index for nodes outside every compartment.
const NoCompartment = -1

// NoOriginal is the OriginalIndex value carried by non-alias nodes.
const NoOriginal = -1

// Color is an 8-bit RGBA color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// RGB constructs an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// AlphaF reports the alpha channel as a fraction in [0, 1].
func (c Color) AlphaF() float64 {
	return float64(c.A) / 255
}

// WithAlphaF returns the color with its alpha channel replaced by the given
// fraction in [0, 1].
func (c Color) WithAlphaF(a float64) Color {
	c.A = uint8(a*255 + 0.5)
	return c
}

// NodeKind distinguishes original nodes from alias glyphs that mirror one.
type NodeKind string

const (
	// KindOriginal marks a node that owns its identity-level properties.
	KindOriginal NodeKind = "original"
	// KindAlias marks a glyph that delegates identity to an original node.
	KindAlias NodeKind = "alias"
)

// Node is a species glyph. An alias node owns only its geometry, lock flag and
// compartment membership; every identity-level field (ID, colors, floating
// flag, concentration) is delegated to the original it references and the
// corresponding fields here are meaningful only when Kind is KindOriginal.
type Node struct {
	Kind NodeKind
	ID   string

	X, Y, W, H float64

	FillColor        Color
	OutlineColor     Color
	OutlineThickness float64

	// Floating is false for boundary species.
	Floating      bool
	Locked        bool
	Concentration float64

	// Compartment is the index of the containing compartment, or NoCompartment.
	Compartment int
	// OriginalIndex references the original node when Kind is KindAlias.
	OriginalIndex int
}

// NewNode constructs an original node with the default render attributes.
func NewNode(id string, x, y, w, h float64) Node {
	return Node{
		Kind:             KindOriginal,
		ID:               id,
		X:                x,
		Y:                y,
		W:                w,
		H:                h,
		FillColor:        Color{R: 255, G: 150, B: 80, A: 255},
		OutlineColor:     Color{R: 255, G: 100, B: 80, A: 255},
		OutlineThickness: 3,
		Floating:         true,
		Compartment:      NoCompartment,
		OriginalIndex:    NoOriginal,
	}
}

// NewAliasNode constructs an alias glyph referencing the original node index.
func NewAliasNode(originalIdx int, x, y, w, h float64) Node {
	return Node{
		Kind:          KindAlias,
		X:             x,
		Y:             y,
		W:             w,
		H:             h,
		Compartment:   NoCompartment,
		OriginalIndex: originalIdx,
	}
}

// IsAlias reports whether the node is an alias glyph.
func (n Node) IsAlias() bool {
	return n.Kind == KindAlias
}

// SpeciesRef is one endpoint of a reaction: a stoichiometric coefficient plus
// the position of the curve handle attached to that endpoint.
type SpeciesRef struct {
	Stoich  float64
	HandleX float64
	HandleY float64
}

// Reaction is a directed multi-hyperedge over nodes. Sources and Targets map
// node indices to their stoichiometry; every key must reference a node that
// currently exists in the same network.
type Reaction struct {
	ID      string
	RateLaw string

	Sources map[int]SpeciesRef
	Targets map[int]SpeciesRef

	FillColor     Color
	Thickness     float64
	CenterHandleX float64
	CenterHandleY float64
}

// NewReaction constructs an empty reaction with the default render attributes.
func NewReaction(id string) Reaction {
	return Reaction{
		ID:        id,
		Sources:   make(map[int]SpeciesRef),
		Targets:   make(map[int]SpeciesRef),
		FillColor: Color{R: 255, G: 150, B: 80, A: 255},
		Thickness: 3,
	}
}

// References reports whether the reaction names the node index as a source or
// a target.
func (r Reaction) References(nodeIdx int) bool {
	if _, ok := r.Sources[nodeIdx]; ok {
		return true
	}
	_, ok := r.Targets[nodeIdx]
	return ok
}

// Compartment is a containment region grouping nodes. A node belongs to at
// most one compartment; Nodes holds the member node indices.
type Compartment struct {
	ID string

	X, Y, W, H float64

	Volume           float64
	FillColor        Color
	OutlineColor     Color
	OutlineThickness float64

	Nodes map[int]struct{}
}

// NewCompartment constructs a compartment with the default render attributes.
func NewCompartment(id string, x, y, w, h float64) Compartment {
	return Compartment{
		ID:               id,
		X:                x,
		Y:                y,
		W:                w,
		H:                h,
		Volume:           1,
		FillColor:        Color{R: 0, G: 247, B: 255, A: 255},
		OutlineColor:     Color{R: 0, G: 106, B: 255, A: 255},
		OutlineThickness: 2,
		Nodes:            make(map[int]struct{}),
	}
}

// Network is one editable document: three entity registries plus named
// numeric parameters. Registry keys are stable monotonic indices assigned at
// creation and never reused; deletion leaves gaps, so a stale index fails
// lookup instead of silently naming a different entity.
type Network struct {
	ID string

	Nodes        map[int]*Node
	Reactions    map[int]*Reaction
	Compartments map[int]*Compartment
	Parameters   map[string]float64

	LastNodeIndex        int
	LastReactionIndex    int
	LastCompartmentIndex int
}

// NewNetwork constructs an empty network document.
func NewNetwork(id string) *Network {
	return &Network{
		ID:           id,
		Nodes:        make(map[int]*Node),
		Reactions:    make(map[int]*Reaction),
		Compartments: make(map[int]*Compartment),
		Parameters:   make(map[string]float64),
	}
}

// CloneNode returns an independent copy of the node.
func CloneNode(n Node) Node {
	return n
}

// CloneReaction returns an independent copy of the reaction, including its
// endpoint maps.
func CloneReaction(r Reaction) Reaction {
	cp := r
	cp.Sources = make(map[int]SpeciesRef, len(r.Sources))
	for k, v := range r.Sources {
		cp.Sources[k] = v
	}
	cp.Targets = make(map[int]SpeciesRef, len(r.Targets))
	for k, v := range r.Targets {
		cp.Targets[k] = v
	}
	return cp
}

// CloneCompartment returns an independent copy of the compartment, including
// its membership set.
func CloneCompartment(c Compartment) Compartment {
	cp := c
	cp.Nodes = make(map[int]struct{}, len(c.Nodes))
	for k := range c.Nodes {
		cp.Nodes[k] = struct{}{}
	}
	return cp
}

// CloneNetwork returns a deep, fully independent copy of the network: no
// mutable substructure is shared with the receiver.
func CloneNetwork(n *Network) *Network {
	cp := &Network{
		ID:                   n.ID,
		Nodes:                make(map[int]*Node, len(n.Nodes)),
		Reactions:            make(map[int]*Reaction, len(n.Reactions)),
		Compartments:         make(map[int]*Compartment, len(n.Compartments)),
		Parameters:           make(map[string]float64, len(n.Parameters)),
		LastNodeIndex:        n.LastNodeIndex,
		LastReactionIndex:    n.LastReactionIndex,
		LastCompartmentIndex: n.LastCompartmentIndex,
	}
	for i, node := range n.Nodes {
		c := CloneNode(*node)
		cp.Nodes[i] = &c
	}
	for i, rea := range n.Reactions {
		c := CloneReaction(*rea)
		cp.Reactions[i] = &c
	}
	for i, comp := range n.Compartments {
		c := CloneCompartment(*comp)
		cp.Compartments[i] = &c
	}
	for k, v := range n.Parameters {
		cp.Parameters[k] = v
	}
	return cp
}
