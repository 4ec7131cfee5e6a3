package core

import "strconv"

// Engine holds the dependencies every handshake/packet operation needs: the
// commitment-store-backed Tx it writes through, the light-client registry
// it verifies proofs against, and the authorizer it checks callers against.
// An Engine is an instance, not package state, so a process can run more
// than one chain simulation (tests do exactly this).
type Engine struct {
	Registry   *Registry
	Authorizer *Authorizer
	Modules    *ModuleRegistry
}

// NewEngine wires a registry, authorizer, and application-module registry
// into a usable engine.
func NewEngine(registry *Registry, authorizer *Authorizer, modules *ModuleRegistry) *Engine {
	if modules == nil {
		modules = NewModuleRegistry()
	}
	return &Engine{Registry: registry, Authorizer: authorizer, Modules: modules}
}

// ConnectionOpenInit allocates a ConnectionId and records the Init state,
// binding client_id to its counterparty's client id.
func (e *Engine) ConnectionOpenInit(tx *Tx, clientId, counterpartyClientId ClientId) (ConnectionId, error) {
	if _, ok := tx.Read(pathClientRecord(clientId)); !ok {
		return 0, ErrClientNotFound
	}
	next, err := tx.nextId("connection")
	if err != nil {
		return 0, err
	}
	id := ConnectionId(next)
	rec := ConnectionRecord{
		State:                ConnectionStateInit,
		ClientId:             clientId,
		CounterpartyClientId: counterpartyClientId,
	}
	if err := tx.setJSON(pathConnection(id), rec); err != nil {
		return 0, err
	}
	tx.Emit(newEvent("connection_open_init", map[string]string{
		"connection_id": strconv.FormatUint(uint64(id), 10),
		"client_id":     strconv.FormatUint(uint64(clientId), 10),
	}))
	return id, nil
}

// ConnectionOpenTry allocates a fresh ConnectionId in TryOpen state, proving
// that the counterparty chain already recorded its own Init for this pair.
func (e *Engine) ConnectionOpenTry(tx *Tx, clientId, counterpartyClientId ClientId, counterpartyConnectionId ConnectionId, proofHeight Height, proof []byte) (ConnectionId, error) {
	if _, ok := tx.Read(pathClientRecord(clientId)); !ok {
		return 0, ErrClientNotFound
	}
	want := ConnectionRecord{
		State:                ConnectionStateInit,
		ClientId:             counterpartyClientId,
		CounterpartyClientId: clientId,
	}
	value := connectionCommitmentValue(want)
	if err := e.Registry.VerifyMembershipAt(tx, clientId, proofHeight, pathConnection(counterpartyConnectionId), proof, value); err != nil {
		return 0, err
	}
	next, err := tx.nextId("connection")
	if err != nil {
		return 0, err
	}
	id := ConnectionId(next)
	rec := ConnectionRecord{
		State:                     ConnectionStateTryOpen,
		ClientId:                  clientId,
		CounterpartyClientId:      counterpartyClientId,
		CounterpartyConnectionId:  counterpartyConnectionId,
		HasCounterpartyConnection: true,
	}
	if err := tx.setJSON(pathConnection(id), rec); err != nil {
		return 0, err
	}
	tx.Emit(newEvent("connection_open_try", map[string]string{
		"connection_id": strconv.FormatUint(uint64(id), 10),
	}))
	return id, nil
}

// ConnectionOpenAck transitions an Init connection to Open, proving the
// counterparty recorded TryOpen, and fills in the counterparty connection id.
func (e *Engine) ConnectionOpenAck(tx *Tx, connectionId ConnectionId, counterpartyConnectionId ConnectionId, proofHeight Height, proof []byte) error {
	var rec ConnectionRecord
	ok, err := tx.getJSON(pathConnection(connectionId), &rec)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidConnectionState
	}
	if rec.State != ConnectionStateInit {
		return ErrInvalidConnectionState
	}
	want := ConnectionRecord{
		State:                     ConnectionStateTryOpen,
		ClientId:                  rec.CounterpartyClientId,
		CounterpartyClientId:      rec.ClientId,
		CounterpartyConnectionId:  connectionId,
		HasCounterpartyConnection: true,
	}
	value := connectionCommitmentValue(want)
	if err := e.Registry.VerifyMembershipAt(tx, rec.ClientId, proofHeight, pathConnection(counterpartyConnectionId), proof, value); err != nil {
		return err
	}
	rec.State = ConnectionStateOpen
	rec.CounterpartyConnectionId = counterpartyConnectionId
	rec.HasCounterpartyConnection = true
	if err := tx.setJSON(pathConnection(connectionId), rec); err != nil {
		return err
	}
	tx.Emit(newEvent("connection_open_ack", map[string]string{
		"connection_id": strconv.FormatUint(uint64(connectionId), 10),
	}))
	return nil
}

// ConnectionOpenConfirm transitions a TryOpen connection to Open, proving
// the counterparty has already reached Open.
func (e *Engine) ConnectionOpenConfirm(tx *Tx, connectionId ConnectionId, proofHeight Height, proof []byte) error {
	var rec ConnectionRecord
	ok, err := tx.getJSON(pathConnection(connectionId), &rec)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidConnectionState
	}
	if rec.State != ConnectionStateTryOpen {
		return ErrInvalidConnectionState
	}
	want := ConnectionRecord{
		State:                     ConnectionStateOpen,
		ClientId:                  rec.CounterpartyClientId,
		CounterpartyClientId:      rec.ClientId,
		CounterpartyConnectionId:  connectionId,
		HasCounterpartyConnection: true,
	}
	value := connectionCommitmentValue(want)
	if err := e.Registry.VerifyMembershipAt(tx, rec.ClientId, proofHeight, pathConnection(rec.CounterpartyConnectionId), proof, value); err != nil {
		return err
	}
	rec.State = ConnectionStateOpen
	if err := tx.setJSON(pathConnection(connectionId), rec); err != nil {
		return err
	}
	tx.Emit(newEvent("connection_open_confirm", map[string]string{
		"connection_id": strconv.FormatUint(uint64(connectionId), 10),
	}))
	return nil
}

// GetConnection is the read-only query for a connection record.
func (e *Engine) GetConnection(tx *Tx, id ConnectionId) (ConnectionRecord, bool, error) {
	var rec ConnectionRecord
	ok, err := tx.getJSON(pathConnection(id), &rec)
	return rec, ok, err
}

// connectionCommitmentValue hashes a ConnectionRecord into the 32-byte
// value a counterparty membership proof must match. The commitment store
// itself holds typed JSON records, not raw commitments, for connections
// and channels: record paths are verified by hashing the canonical record,
// the same shape the packet hash uses.
func connectionCommitmentValue(rec ConnectionRecord) Commitment {
	return keccak256(
		[]byte("ibc-union/connection"),
		be32(uint32(rec.State)),
		be32(uint32(rec.ClientId)),
		be32(uint32(rec.CounterpartyClientId)),
		be32(uint32(rec.CounterpartyConnectionId)),
	)
}
