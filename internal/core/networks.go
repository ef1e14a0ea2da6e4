package core

import (
	"context"

	"rxncore/pkg/domain"
)

// NewNetwork creates an empty network document and returns its index.
func (s *DocumentStore) NewNetwork(ctx context.Context, id string) (int, error) {
	const op = "newNetwork"
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.state.networks {
		if n.ID == id {
			return 0, domain.NewError(domain.CodeIDRepeat, op, id)
		}
	}
	t := beginTx(s.state)
	neti := t.st.lastNetIndex
	t.st.networks[neti] = domain.NewNetwork(id)
	t.st.lastNetIndex++
	t.record(EntityNetwork, ActionCreate, neti, -1)
	if err := s.commit(ctx, t); err != nil {
		return 0, err
	}
	return neti, nil
}

// DeleteNetwork removes the network at the given index.
func (s *DocumentStore) DeleteNetwork(ctx context.Context, neti int) error {
	const op = "deleteNetwork"
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.state.network(op, neti); err != nil {
		return err
	}
	t := beginTx(s.state)
	delete(t.st.networks, neti)
	t.record(EntityNetwork, ActionDelete, neti, -1)
	return s.commit(ctx, t)
}

// ClearNetworks removes every network and resets index allocation.
func (s *DocumentStore) ClearNetworks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := beginTx(s.state)
	for neti := range t.st.networks {
		t.record(EntityNetwork, ActionDelete, neti, -1)
	}
	t.st = newDocState()
	return s.commit(ctx, t)
}

// ClearNetwork removes all nodes, reactions, compartments and parameters from
// one network, keeping its identity and index.
func (s *DocumentStore) ClearNetwork(ctx context.Context, neti int) error {
	const op = "clearNetwork"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti)
	if err != nil {
		return err
	}
	t := beginTx(s.state)
	t.st.networks[neti] = domain.NewNetwork(n.ID)
	t.record(EntityNetwork, ActionUpdate, neti, -1)
	return s.commit(ctx, t)
}

// NetworkIndex resolves a network ID to its current index.
func (s *DocumentStore) NetworkIndex(id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, i := range s.state.networkIndices() {
		if s.state.networks[i].ID == id {
			return i, nil
		}
	}
	return 0, domain.NewError(domain.CodeIDNotFound, "networkIndex", id)
}

// NetworkID returns the ID of the network at the given index.
func (s *DocumentStore) NetworkID(neti int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("networkID", neti)
	if err != nil {
		return "", err
	}
	return n.ID, nil
}

// NumberOfNetworks returns the count of live networks.
func (s *DocumentStore) NumberOfNetworks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.networks)
}

// NetworkIndices returns the live network indices in ascending order.
func (s *DocumentStore) NetworkIndices() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.networkIndices()
}

// NetworkCopy returns a deep copy of the network at the given index.
func (s *DocumentStore) NetworkCopy(neti int) (*Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("networkCopy", neti)
	if err != nil {
		return nil, err
	}
	return domain.CloneNetwork(n), nil
}

// SetParameter creates or updates a named numeric parameter of the network.
func (s *DocumentStore) SetParameter(ctx context.Context, neti int, id string, value float64) error {
	const op = "setParameter"
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.state.network(op, neti, id); err != nil {
		return err
	}
	t := beginTx(s.state)
	n, err := t.mutNetwork(op, neti)
	if err != nil {
		return err
	}
	n.Parameters[id] = value
	t.record(EntityNetwork, ActionUpdate, neti, -1)
	return s.commit(ctx, t)
}

// RemoveParameter deletes a named parameter; a missing name is an error, not
// a silent no-op.
func (s *DocumentStore) RemoveParameter(ctx context.Context, neti int, id string) error {
	const op = "removeParameter"
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.state.network(op, neti, id)
	if err != nil {
		return err
	}
	if _, ok := n.Parameters[id]; !ok {
		return domain.NewError(domain.CodeIDNotFound, op, neti, id)
	}
	t := beginTx(s.state)
	mn, err := t.mutNetwork(op, neti)
	if err != nil {
		return err
	}
	delete(mn.Parameters, id)
	t.record(EntityNetwork, ActionUpdate, neti, -1)
	return s.commit(ctx, t)
}

// Parameters returns a copy of the network's parameter table.
func (s *DocumentStore) Parameters(neti int) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("parameters", neti)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(n.Parameters))
	for k, v := range n.Parameters {
		out[k] = v
	}
	return out, nil
}

// SaveNetwork serializes the network at the given index to its canonical
// document form.
func (s *DocumentStore) SaveNetwork(neti int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.network("saveNetwork", neti)
	if err != nil {
		return nil, err
	}
	return domain.EncodeNetwork(n)
}

// LoadNetwork decodes a serialized network document and adds it to the store
// as a new network. The document's ID must not collide with a live network.
func (s *DocumentStore) LoadNetwork(ctx context.Context, data []byte) (int, error) {
	const op = "loadNetwork"
	net, err := domain.DecodeNetwork(data)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.state.networks {
		if n.ID == net.ID {
			return 0, domain.NewError(domain.CodeIDRepeat, op, net.ID)
		}
	}
	t := beginTx(s.state)
	neti := t.st.lastNetIndex
	t.st.networks[neti] = net
	t.st.lastNetIndex++
	t.record(EntityNetwork, ActionCreate, neti, -1)
	if err := s.commit(ctx, t); err != nil {
		return 0, err
	}
	return neti, nil
}
