package core

// Queries is the read-only surface split out from Engine so a query path
// never has to hold a *Tx (queries run directly against a committed Store,
// never inside a pending transaction).
type Queries struct {
	Store    *Store
	Registry *Registry
}

// NewQueries builds a query surface over store and registry.
func NewQueries(store *Store, registry *Registry) *Queries {
	return &Queries{Store: store, Registry: registry}
}

// readOnlyTx wraps a fresh, never-committed Tx so query helpers can reuse
// the Tx-scoped getJSON helpers without risking a write leaking through —
// nothing is ever staged on this Tx, so Commit is never called.
func (q *Queries) readOnlyTx() *Tx { return q.Store.Begin() }

// GetClientState returns the raw client-state bytes for clientId.
func (q *Queries) GetClientState(clientId ClientId) ([]byte, bool) {
	return q.readOnlyTx().Read(pathClientState(clientId))
}

// GetConsensusState returns the raw consensus-state bytes clientId
// recorded at height.
func (q *Queries) GetConsensusState(clientId ClientId, height Height) ([]byte, bool, error) {
	var env consensusStateEnvelope
	ok, err := q.readOnlyTx().getJSON(pathConsensusState(clientId, height), &env)
	if err != nil || !ok {
		return nil, ok, err
	}
	return env.Bytes, true, nil
}

// GetConnection returns the connection record for id.
func (q *Queries) GetConnection(id ConnectionId) (ConnectionRecord, bool, error) {
	var rec ConnectionRecord
	ok, err := q.readOnlyTx().getJSON(pathConnection(id), &rec)
	return rec, ok, err
}

// GetChannel returns the channel record for id.
func (q *Queries) GetChannel(id ChannelId) (ChannelRecord, bool, error) {
	var rec ChannelRecord
	ok, err := q.readOnlyTx().getJSON(pathChannel(id), &rec)
	return rec, ok, err
}

// GetBatchPackets returns the aggregate send commitment recorded for a
// batch hash.
func (q *Queries) GetBatchPackets(batchHash Commitment) Commitment {
	return q.Store.ReadCommitment(pathBatchPackets(batchHash))
}

// GetBatchReceipts returns the aggregate ack commitment recorded for a
// batch hash.
func (q *Queries) GetBatchReceipts(batchHash Commitment) Commitment {
	return q.Store.ReadCommitment(pathBatchReceipts(batchHash))
}

// GetStatus returns the current status of a registered client.
func (q *Queries) GetStatus(clientId ClientId) (ClientStatus, error) {
	return q.Registry.Status(q.readOnlyTx(), clientId)
}

// GetClientType returns the client_type tag clientId was created with.
func (q *Queries) GetClientType(clientId ClientId) (string, bool, error) {
	var rec ClientRecord
	ok, err := q.readOnlyTx().getJSON(pathClientRecord(clientId), &rec)
	if err != nil || !ok {
		return "", ok, err
	}
	return rec.ClientType, true, nil
}
