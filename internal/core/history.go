package core

import "rxncore/pkg/domain"

// The history engine is a two-state machine (idle / grouping). Grouped
// primitives still validate and mutate but suppress intermediate snapshots,
// so a whole composite edit undoes as a single step. Nested StartGroup calls
// collapse into the outermost group.

// StartGroup clears the redo stack and pushes one snapshot of the state
// preceding the upcoming composite edit, then enters grouping mode.
func (s *DocumentStore) StartGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupDepth++
	if s.groupDepth == 1 {
		s.redo = nil
		s.undo = append(s.undo, s.state)
	}
}

// EndGroup leaves grouping mode. No snapshot is taken; the one pushed by
// StartGroup is what the next Undo restores.
func (s *DocumentStore) EndGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groupDepth > 0 {
		s.groupDepth--
	}
}

// abortGroup leaves grouping mode and, when closing the outermost group,
// restores the snapshot StartGroup pushed. Nothing lands on the redo stack.
// Inside a still-open outer group the partial state is left in place; the
// outer group's snapshot covers it.
func (s *DocumentStore) abortGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groupDepth == 0 {
		return
	}
	s.groupDepth--
	if s.groupDepth == 0 && len(s.undo) > 0 {
		s.state = s.undo[len(s.undo)-1]
		s.undo = s.undo[:len(s.undo)-1]
		_ = s.persistLocked()
	}
}

// Grouping reports whether a composite edit is currently open.
func (s *DocumentStore) Grouping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupDepth > 0
}

// CanUndo reports whether an undo snapshot is available.
func (s *DocumentStore) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.undo) > 0
}

// CanRedo reports whether a redo snapshot is available.
func (s *DocumentStore) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.redo) > 0
}

// Undo pushes the current state onto the redo stack and restores the most
// recent undo snapshot.
func (s *DocumentStore) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.undo) == 0 {
		return domain.NewError(domain.CodeStackEmpty, "undo")
	}
	s.redo = append(s.redo, s.state)
	s.state = s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	return s.persistLocked()
}

// Redo pushes the current state onto the undo stack and restores the most
// recent redo snapshot.
func (s *DocumentStore) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.redo) == 0 {
		return domain.NewError(domain.CodeStackEmpty, "redo")
	}
	s.undo = append(s.undo, s.state)
	s.state = s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	return s.persistLocked()
}
