package core

import (
	"errors"
	"strconv"
	"sync"
)

// LightClient is the capability interface every light-client implementation
// exposes. Call sites accept this interface, not a generic
// parameter, so different chain-type clients (Tendermint, zk-SNARK-backed,
// EVM) can be dispatched through the same registry. Client/consensus/header
// encodings are opaque
// byte payloads at this boundary; each implementation owns its own parsing.
type LightClient interface {
	// VerifyCreation is invoked once at client creation.
	VerifyCreation(caller Address, clientState, consensusState []byte, relayer Address) (CreationResult, error)
	// VerifyMembership proves that value is committed at key, against the
	// consensus state the engine looked up for the claimed proof height.
	VerifyMembership(consensusState []byte, key []byte, proof []byte, value Commitment) error
	// VerifyNonMembership proves the absence of any value at key, against
	// the consensus state the engine looked up for the claimed proof
	// height.
	VerifyNonMembership(consensusState []byte, key []byte, proof []byte) error
	// VerifyHeader validates a header and returns the new consensus state
	// (and, optionally, a new client state) it produces.
	VerifyHeader(caller Address, header []byte, relayer Address) (StateUpdate, error)
	GetTimestamp(consensusState []byte) (Timestamp, error)
	GetLatestHeight(clientState []byte) (Height, error)
	GetCounterpartyChainId(clientState []byte) (string, error)
	Status(clientState []byte) (ClientStatus, error)
}

// Registry maps a client_type tag to a concrete LightClient implementation.
// It is an instance, not package state, so tests can run isolated
// registries.
type Registry struct {
	mu    sync.RWMutex
	impls map[string]LightClient
}

// NewRegistry returns an empty light-client registry.
func NewRegistry() *Registry {
	return &Registry{impls: make(map[string]LightClient)}
}

// RegisterClientType binds clientType to impl. Re-registering the same tag
// overwrites the previous binding.
func (r *Registry) RegisterClientType(clientType string, impl LightClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.impls[clientType] = impl
}

func (r *Registry) get(clientType string) (LightClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	impl, ok := r.impls[clientType]
	return impl, ok
}

// resolve loads the client record and its implementation, and rejects a
// client previously frozen by Misbehaviour: a frozen client must never
// satisfy verify_header or a membership/non-membership check again.
func (r *Registry) resolve(tx *Tx, clientId ClientId) (LightClient, ClientRecord, error) {
	var rec ClientRecord
	ok, err := tx.getJSON(pathClientRecord(clientId), &rec)
	if err != nil {
		return nil, ClientRecord{}, err
	}
	if !ok {
		return nil, ClientRecord{}, ErrClientNotFound
	}
	impl, ok := r.get(rec.ClientType)
	if !ok {
		return nil, ClientRecord{}, ErrClientNotFound
	}
	if rec.Frozen {
		return nil, rec, &LightClientError{ClientId: clientId, Cause: errors.New("client is frozen")}
	}
	return impl, rec, nil
}

// CreateClient allocates a fresh ClientId, verifies and stores the initial
// client/consensus state, and caches the counterparty chain id.
func (r *Registry) CreateClient(tx *Tx, clientType string, clientState, consensusState []byte, height Height, caller, relayer Address) (ClientId, error) {
	impl, ok := r.get(clientType)
	if !ok {
		return 0, ErrClientNotFound
	}
	result, err := impl.VerifyCreation(caller, clientState, consensusState, relayer)
	if err != nil {
		return 0, &LightClientError{Cause: err}
	}
	next, err := tx.nextId("client")
	if err != nil {
		return 0, err
	}
	id := ClientId(next)
	rec := ClientRecord{
		ClientType:          clientType,
		CounterpartyChainId: result.CounterpartyChainId,
		LatestHeight:        height,
	}
	if err := tx.setJSON(pathClientRecord(id), rec); err != nil {
		return 0, err
	}
	tx.Write(pathClientState(id), clientState)
	if err := tx.setJSON(pathConsensusState(id, height), consensusStateEnvelope{Bytes: consensusState}); err != nil {
		return 0, err
	}
	tx.Emit(newEvent("client_created", map[string]string{
		"client_id":   strconv.FormatUint(uint64(id), 10),
		"client_type": clientType,
	}))
	return id, nil
}

// UpdateClient installs a new consensus state at the claimed height. If the
// header's height already has a consensus state the call is a no-op
// returning success.
func (r *Registry) UpdateClient(tx *Tx, clientId ClientId, header []byte, caller, relayer Address) error {
	impl, rec, err := r.resolve(tx, clientId)
	if err != nil {
		return err
	}
	update, err := impl.VerifyHeader(caller, header, relayer)
	if err != nil {
		return &LightClientError{ClientId: clientId, Cause: err}
	}
	if ok, _ := tx.getJSON(pathConsensusState(clientId, update.Height), &consensusStateEnvelope{}); ok {
		return nil // idempotent: this height is already installed
	}
	if err := tx.setJSON(pathConsensusState(clientId, update.Height), consensusStateEnvelope{Bytes: update.ConsensusState}); err != nil {
		return err
	}
	if update.ClientState != nil {
		tx.Write(pathClientState(clientId), update.ClientState)
	}
	if update.Height > rec.LatestHeight {
		rec.LatestHeight = update.Height
		if err := tx.setJSON(pathClientRecord(clientId), rec); err != nil {
			return err
		}
	}
	tx.Emit(newEvent("client_updated", map[string]string{
		"client_id": strconv.FormatUint(uint64(clientId), 10),
		"height":    strconv.FormatUint(uint64(update.Height), 10),
	}))
	return nil
}

// Misbehaviour marks a client frozen; all subsequent calls through this
// registry for the client fail with a LightClientError, which is always
// fatal for the current message.
func (r *Registry) Misbehaviour(tx *Tx, clientId ClientId) error {
	var rec ClientRecord
	ok, err := tx.getJSON(pathClientRecord(clientId), &rec)
	if err != nil {
		return err
	}
	if !ok {
		return ErrClientNotFound
	}
	rec.Frozen = true
	return tx.setJSON(pathClientRecord(clientId), rec)
}

// VerifyMembershipAt looks up the consensus state at height for clientId and
// checks that value is committed at key there.
func (r *Registry) VerifyMembershipAt(tx *Tx, clientId ClientId, height Height, key []byte, proof []byte, value Commitment) error {
	impl, _, err := r.resolve(tx, clientId)
	if err != nil {
		return err
	}
	var env consensusStateEnvelope
	ok, err := tx.getJSON(pathConsensusState(clientId, height), &env)
	if err != nil {
		return err
	}
	if !ok {
		return ErrClientNotFound
	}
	if err := impl.VerifyMembership(env.Bytes, key, proof, value); err != nil {
		return &LightClientError{ClientId: clientId, Cause: err}
	}
	return nil
}

// VerifyNonMembershipAt is the absence-proof counterpart of VerifyMembershipAt.
func (r *Registry) VerifyNonMembershipAt(tx *Tx, clientId ClientId, height Height, key []byte, proof []byte) error {
	impl, _, err := r.resolve(tx, clientId)
	if err != nil {
		return err
	}
	var env consensusStateEnvelope
	ok, err := tx.getJSON(pathConsensusState(clientId, height), &env)
	if err != nil {
		return err
	}
	if !ok {
		return ErrClientNotFound
	}
	if err := impl.VerifyNonMembership(env.Bytes, key, proof); err != nil {
		return &LightClientError{ClientId: clientId, Cause: err}
	}
	return nil
}

// GetTimestampAt returns the counterparty chain's timestamp at height, per
// the client's consensus state there.
func (r *Registry) GetTimestampAt(tx *Tx, clientId ClientId, height Height) (Timestamp, error) {
	impl, _, err := r.resolve(tx, clientId)
	if err != nil {
		return 0, err
	}
	var env consensusStateEnvelope
	ok, err := tx.getJSON(pathConsensusState(clientId, height), &env)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrClientNotFound
	}
	ts, err := impl.GetTimestamp(env.Bytes)
	if err != nil {
		return 0, &LightClientError{ClientId: clientId, Cause: err}
	}
	return ts, nil
}

// Status returns the client's current status.
func (r *Registry) Status(tx *Tx, clientId ClientId) (ClientStatus, error) {
	var rec ClientRecord
	ok, err := tx.getJSON(pathClientRecord(clientId), &rec)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrClientNotFound
	}
	if rec.Frozen {
		return ClientStatusFrozen, nil
	}
	impl, ok := r.get(rec.ClientType)
	if !ok {
		return 0, ErrClientNotFound
	}
	clientState, _ := tx.Read(pathClientState(clientId))
	return impl.Status(clientState)
}

// consensusStateEnvelope wraps an opaque consensus-state payload so it can
// be stored as a JSON record, keeping the byte payload opaque to the store
// itself while still letting UpdateClient test for presence-at-height
// cheaply.
type consensusStateEnvelope struct {
	Bytes []byte `json:"bytes"`
}
