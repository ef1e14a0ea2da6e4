package core

import (
	"context"
	"sync"

	"rxncore/pkg/domain"
)

// CommitHook receives the exported state after every committed mutation,
// including undo and redo. Durable persistence backends register one to
// snapshot the document store.
type CommitHook func(Snapshot) error

// StoreOption customizes DocumentStore construction.
type StoreOption func(*DocumentStore)

// WithCommitHook registers the persistence hook invoked on every commit.
func WithCommitHook(hook CommitHook) StoreOption {
	return func(s *DocumentStore) {
		s.hook = hook
	}
}

// DocumentStore owns the network registry, the undo/redo snapshot stacks and
// the grouping flag. Every mutating operation validates against the current
// state, applies its writes to a copy-on-write candidate, evaluates the rules
// engine against the candidate, and only then commits, so no operation
// partially mutates observable state on failure.
//
// The store is single-writer by contract; the mutex only guards against
// accidental cross-goroutine use by embedding applications.
type DocumentStore struct {
	mu         sync.RWMutex
	state      docState
	undo       []docState
	redo       []docState
	groupDepth int
	engine     *RulesEngine
	hook       CommitHook
	lastResult Result
}

// NewDocumentStore constructs an empty store backed by the provided rules
// engine. A nil engine disables rule evaluation beyond the built-in
// validators.
func NewDocumentStore(engine *RulesEngine, opts ...StoreOption) *DocumentStore {
	s := &DocumentStore{state: newDocState(), engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RulesEngine returns the engine evaluating commit-time rules, creating an
// empty one on first use so plugins can always register.
func (s *DocumentStore) RulesEngine() *RulesEngine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = domain.NewRulesEngine()
	}
	return s.engine
}

// LastRuleResult returns the rule evaluation result of the most recent
// committed mutation (warnings and log-level violations included).
func (s *DocumentStore) LastRuleResult() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := Result{Violations: make([]Violation, len(s.lastResult.Violations))}
	copy(res.Violations, s.lastResult.Violations)
	return res
}

// commit evaluates rules against the candidate state and, when no blocking
// violation is present, pushes the pre-mutation snapshot (unless grouping)
// and swaps in the candidate. Called with the store lock held.
func (s *DocumentStore) commit(ctx context.Context, t *tx) error {
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, stateView{st: &t.st}, t.changes)
		if err != nil {
			return err
		}
		if res.HasBlocking() {
			return RuleViolationError{Result: res}
		}
		s.lastResult = res
	}
	if s.groupDepth == 0 {
		s.redo = nil
		s.undo = append(s.undo, s.state)
	}
	s.state = t.st
	return s.persistLocked()
}

func (s *DocumentStore) persistLocked() error {
	if s.hook == nil {
		return nil
	}
	if err := s.hook(s.exportLocked()); err != nil {
		return domain.WrapError(domain.CodeIOFailure, "persist", err)
	}
	return nil
}

func (s *DocumentStore) exportLocked() Snapshot {
	snap := Snapshot{LastNetworkIndex: s.state.lastNetIndex}
	for _, i := range s.state.networkIndices() {
		snap.Networks = append(snap.Networks, domain.SnapshotNetwork{
			Index:    i,
			Document: s.state.networks[i].ToDocument(),
		})
	}
	return snap
}

// ExportState serializes the current document registry for durable storage.
// History stacks are session-scoped and not exported.
func (s *DocumentStore) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exportLocked()
}

// ImportState replaces the document registry with the snapshot contents and
// clears the history stacks. Used by persistence backends on startup.
func (s *DocumentStore) ImportState(snap Snapshot) error {
	st := newDocState()
	st.lastNetIndex = snap.LastNetworkIndex
	for _, entry := range snap.Networks {
		net, err := domain.NetworkFromDocument(entry.Document)
		if err != nil {
			return err
		}
		st.networks[entry.Index] = net
		if entry.Index >= st.lastNetIndex {
			st.lastNetIndex = entry.Index + 1
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.undo = nil
	s.redo = nil
	s.groupDepth = 0
	return nil
}

// View executes fn against a read-only copy of the current state.
func (s *DocumentStore) View(fn func(RuleView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	return fn(stateView{st: &st})
}

// Reset discards every network and the entire history, returning the store
// to its initial empty state. Unlike ClearNetworks this is not undoable.
func (s *DocumentStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = newDocState()
	s.undo = nil
	s.redo = nil
	s.groupDepth = 0
	s.lastResult = Result{}
	return s.persistLocked()
}
