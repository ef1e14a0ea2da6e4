package core

import (
	"sort"

	"rxncore/pkg/domain"
)

// docState is the complete document registry at one point in time: every
// network keyed by its stable index, plus the monotonic index allocator.
//
// States form a persistent structure: a snapshot pushed to the history stacks
// shares all entity pointers with the live state, and every mutation
// path-copies the network and entities it touches instead of writing through
// shared pointers. Pushing a snapshot is therefore O(1) while the observable
// contract (fully independent snapshots) is preserved.
type docState struct {
	networks     map[int]*Network
	lastNetIndex int
}

func newDocState() docState {
	return docState{networks: make(map[int]*Network)}
}

// clone copies the outer registry map only; networks stay shared until a
// transaction copies them individually.
func (st docState) clone() docState {
	cp := docState{
		networks:     make(map[int]*Network, len(st.networks)),
		lastNetIndex: st.lastNetIndex,
	}
	for i, n := range st.networks {
		cp.networks[i] = n
	}
	return cp
}

func (st docState) networkIndices() []int {
	out := make([]int, 0, len(st.networks))
	for i := range st.networks {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (st docState) network(op string, neti int, args ...any) (*Network, error) {
	n, ok := st.networks[neti]
	if !ok {
		return nil, domain.NewError(domain.CodeNetIndexNotFound, op, append([]any{neti}, args...)...)
	}
	return n, nil
}

func nodeOf(op string, n *Network, neti, nodei int, args ...any) (*Node, error) {
	node, ok := n.Nodes[nodei]
	if !ok {
		return nil, domain.NewError(domain.CodeNodeIndexNotFound, op, append([]any{neti, nodei}, args...)...)
	}
	return node, nil
}

// concreteNode resolves nodei through at most one alias hop and returns the
// original node together with its index.
func concreteNode(op string, n *Network, neti, nodei int) (*Node, int, error) {
	node, err := nodeOf(op, n, neti, nodei)
	if err != nil {
		return nil, 0, err
	}
	if !node.IsAlias() {
		return node, nodei, nil
	}
	original, ok := n.Nodes[node.OriginalIndex]
	if !ok {
		return nil, 0, domain.NewError(domain.CodeNodeIndexNotFound, op, neti, node.OriginalIndex)
	}
	return original, node.OriginalIndex, nil
}

func reactionOf(op string, n *Network, neti, reai int, args ...any) (*Reaction, error) {
	rea, ok := n.Reactions[reai]
	if !ok {
		return nil, domain.NewError(domain.CodeReactionIndexNotFound, op, append([]any{neti, reai}, args...)...)
	}
	return rea, nil
}

func compartmentOf(op string, n *Network, neti, compi int, args ...any) (*Compartment, error) {
	comp, ok := n.Compartments[compi]
	if !ok {
		return nil, domain.NewError(domain.CodeCompartmentIndexNotFound, op, append([]any{neti, compi}, args...)...)
	}
	return comp, nil
}

// nodeInReaction reports whether any reaction names the node index as a
// source or a target. The "free nodes" of a network are exactly the nodes for
// which this is false and which have no alias dependents.
func nodeInReaction(n *Network, nodei int) bool {
	for _, rea := range n.Reactions {
		if rea.References(nodei) {
			return true
		}
	}
	return false
}

func hasAliasDependents(n *Network, nodei int) bool {
	for _, node := range n.Nodes {
		if node.IsAlias() && node.OriginalIndex == nodei {
			return true
		}
	}
	return false
}

// shallowCloneNetwork copies the network record and its registry maps while
// sharing the entity pointers; entities are copied individually on write.
func shallowCloneNetwork(n *Network) *Network {
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
		cp.Nodes[i] = node
	}
	for i, rea := range n.Reactions {
		cp.Reactions[i] = rea
	}
	for i, comp := range n.Compartments {
		cp.Compartments[i] = comp
	}
	for k, v := range n.Parameters {
		cp.Parameters[k] = v
	}
	return cp
}

// tx is the mutable candidate state of a single operation. All writes go
// through the mut* accessors, which install private copies of the touched
// network and entities so that committed snapshots are never written through.
type tx struct {
	st      docState
	changes []Change
	touched map[int]bool
}

func beginTx(st docState) *tx {
	return &tx{st: st.clone(), touched: make(map[int]bool)}
}

func (t *tx) record(entity EntityType, action Action, neti, index int) {
	t.changes = append(t.changes, Change{Entity: entity, Action: action, NetIndex: neti, Index: index})
}

// mutNetwork returns a privately owned copy of the network, installing it
// into the candidate state on first touch.
func (t *tx) mutNetwork(op string, neti int) (*Network, error) {
	n, err := t.st.network(op, neti)
	if err != nil {
		return nil, err
	}
	if t.touched[neti] {
		return n, nil
	}
	cp := shallowCloneNetwork(n)
	t.st.networks[neti] = cp
	t.touched[neti] = true
	return cp, nil
}

// mutNode installs and returns a privately owned copy of the node. The
// enclosing network must already be mutable.
func (t *tx) mutNode(op string, neti, nodei int) (*Node, error) {
	n, err := t.mutNetwork(op, neti)
	if err != nil {
		return nil, err
	}
	node, err := nodeOf(op, n, neti, nodei)
	if err != nil {
		return nil, err
	}
	cp := domain.CloneNode(*node)
	n.Nodes[nodei] = &cp
	return &cp, nil
}

// mutConcreteNode resolves aliases before installing the mutable copy, so
// identity-level setters applied to an alias write to its original.
func (t *tx) mutConcreteNode(op string, neti, nodei int) (*Node, error) {
	n, err := t.mutNetwork(op, neti)
	if err != nil {
		return nil, err
	}
	_, origIdx, err := concreteNode(op, n, neti, nodei)
	if err != nil {
		return nil, err
	}
	return t.mutNode(op, neti, origIdx)
}

func (t *tx) mutReaction(op string, neti, reai int) (*Reaction, error) {
	n, err := t.mutNetwork(op, neti)
	if err != nil {
		return nil, err
	}
	rea, err := reactionOf(op, n, neti, reai)
	if err != nil {
		return nil, err
	}
	cp := domain.CloneReaction(*rea)
	n.Reactions[reai] = &cp
	return &cp, nil
}

func (t *tx) mutCompartment(op string, neti, compi int) (*Compartment, error) {
	n, err := t.mutNetwork(op, neti)
	if err != nil {
		return nil, err
	}
	comp, err := compartmentOf(op, n, neti, compi)
	if err != nil {
		return nil, err
	}
	cp := domain.CloneCompartment(*comp)
	n.Compartments[compi] = &cp
	return &cp, nil
}

// stateView adapts a docState to the rule evaluation interface. Networks are
// deep-copied so rules cannot mutate candidate state.
type stateView struct {
	st *docState
}

func (v stateView) NetworkIndices() []int {
	return v.st.networkIndices()
}

func (v stateView) FindNetwork(neti int) (*Network, bool) {
	n, ok := v.st.networks[neti]
	if !ok {
		return nil, false
	}
	return domain.CloneNetwork(n), true
}
