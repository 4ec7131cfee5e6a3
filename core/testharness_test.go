package core

import "encoding/json"

// testAddr builds a deterministic test address from a single byte, an
// abbreviated fixture style useful for relayer addresses.
func testAddr(b byte) Address {
	var a Address
	a[19] = b
	return a
}

// newTestEngine wires a fresh store/registry/authorizer/engine triple with
// the "mock-merkle" light client registered, the harness every handshake and
// packet test in this package builds on.
func newTestEngine(relayers ...Address) (*Engine, *Store) {
	store := NewStore()
	registry := NewRegistry()
	registry.RegisterClientType("mock-merkle", NewMerkleLightClient())
	authorizer := NewAuthorizer(relayers, nil)
	engine := NewEngine(registry, authorizer, NewModuleRegistry())
	return engine, store
}

// createTestClient registers a mock-merkle client for chainId and returns
// its id, committed to store.
func createTestClient(store *Store, engine *Engine, chainId string) ClientId {
	tx := store.Begin()
	cs, _ := json.Marshal(merkleClientState{ChainId: chainId})
	cons, _ := json.Marshal(merkleConsensusState{})
	id, err := engine.Registry.CreateClient(tx, "mock-merkle", cs, cons, Height(1), testAddr(0), testAddr(0))
	if err != nil {
		panic(err)
	}
	tx.Commit()
	return id
}

// proveAt installs, via UpdateClient, a header whose root is set so that a
// trivial single-leaf proof (no siblings, index 0) of value at key verifies
// at the returned height. This mirrors exactly how merkleLightClient is
// documented to work: it trusts whatever root a header carries, so a test
// can stand in for "the counterparty chain really did commit this" without
// hand-building a multi-leaf tree.
func proveAt(store *Store, engine *Engine, clientId ClientId, height Height, key []byte, value []byte) []byte {
	var root [32]byte
	copy(root[:], leafHash(key, value))
	header, _ := json.Marshal(merkleHeader{Root: root, Height: height, Timestamp: Now()})
	tx := store.Begin()
	if err := engine.Registry.UpdateClient(tx, clientId, header, testAddr(0), testAddr(0)); err != nil {
		panic(err)
	}
	tx.Commit()
	proof, _ := json.Marshal(merkleProof{Siblings: nil, Index: 0})
	return proof
}

func proveMembershipAt(store *Store, engine *Engine, clientId ClientId, height Height, key []byte, value Commitment) []byte {
	return proveAt(store, engine, clientId, height, key, value[:])
}

func proveNonMembershipAt(store *Store, engine *Engine, clientId ClientId, height Height, key []byte) []byte {
	return proveAt(store, engine, clientId, height, key, nonMembershipLeaf[:])
}

// openConnection drives a full Init/TryOpen/Ack/Confirm handshake between two
// independent client ids registered against the same store: both sides of a
// channel are simulated within a single store, a single-process two-chain
// simulation. Returns the two Open connection ids.
func openConnection(store *Store, engineA, engineB *Engine, clientA, clientB ClientId) (ConnectionId, ConnectionId) {
	txA := store.Begin()
	connA, err := engineA.ConnectionOpenInit(txA, clientA, clientB)
	if err != nil {
		panic(err)
	}
	txA.Commit()

	proofBForA := proveMembershipAt(store, engineB, clientB, Height(2), pathConnection(connA), connectionCommitmentValue(ConnectionRecord{
		State:                ConnectionStateInit,
		ClientId:             clientA,
		CounterpartyClientId: clientB,
	}))
	txB := store.Begin()
	connB, err := engineB.ConnectionOpenTry(txB, clientB, clientA, connA, Height(2), proofBForA)
	if err != nil {
		panic(err)
	}
	txB.Commit()

	proofAForB := proveMembershipAt(store, engineA, clientA, Height(3), pathConnection(connB), connectionCommitmentValue(ConnectionRecord{
		State:                     ConnectionStateTryOpen,
		ClientId:                  clientB,
		CounterpartyClientId:      clientA,
		CounterpartyConnectionId:  connA,
		HasCounterpartyConnection: true,
	}))
	txA2 := store.Begin()
	if err := engineA.ConnectionOpenAck(txA2, connA, connB, Height(3), proofAForB); err != nil {
		panic(err)
	}
	txA2.Commit()

	proofBForConfirm := proveMembershipAt(store, engineB, clientB, Height(4), pathConnection(connA), connectionCommitmentValue(ConnectionRecord{
		State:                     ConnectionStateOpen,
		ClientId:                  clientA,
		CounterpartyClientId:      clientB,
		CounterpartyConnectionId:  connB,
		HasCounterpartyConnection: true,
	}))
	txB2 := store.Begin()
	if err := engineB.ConnectionOpenConfirm(txB2, connB, Height(4), proofBForConfirm); err != nil {
		panic(err)
	}
	txB2.Commit()

	return connA, connB
}

// openChannel drives a full channel handshake over two already-Open
// connections, returning the two Open channel ids.
func openChannel(store *Store, engineA, engineB *Engine, callerA, callerB Address, connA, connB ConnectionId) (ChannelId, ChannelId) {
	txA := store.Begin()
	chA, err := engineA.ChannelOpenInit(txA, callerA, connA, PortId(callerB.Bytes()), "union-union-1")
	if err != nil {
		panic(err)
	}
	txA.Commit()

	proofBForA := proveMembershipAt(store, engineB, clientOf(store, connB), Height(5), pathChannel(chA), channelCommitmentValue(ChannelRecord{
		State:   ChannelStateInit,
		Version: "union-union-1",
	}))
	txB := store.Begin()
	chB, err := engineB.ChannelOpenTry(txB, callerB, connB, chA, PortId(callerA.Bytes()), "union-union-1", Height(5), proofBForA)
	if err != nil {
		panic(err)
	}
	txB.Commit()

	proofAForB := proveMembershipAt(store, engineA, clientOf(store, connA), Height(6), pathChannel(chB), channelCommitmentValue(ChannelRecord{
		State:                 ChannelStateTryOpen,
		CounterpartyChannelId: chA,
		Version:               "union-union-1",
	}))
	txA2 := store.Begin()
	if err := engineA.ChannelOpenAck(txA2, callerA, chA, chB, Height(6), proofAForB); err != nil {
		panic(err)
	}
	txA2.Commit()

	proofBForConfirm := proveMembershipAt(store, engineB, clientOf(store, connB), Height(7), pathChannel(chA), channelCommitmentValue(ChannelRecord{
		State:                 ChannelStateOpen,
		CounterpartyChannelId: chB,
		Version:               "union-union-1",
	}))
	txB2 := store.Begin()
	if err := engineB.ChannelOpenConfirm(txB2, callerB, chB, Height(7), proofBForConfirm); err != nil {
		panic(err)
	}
	txB2.Commit()

	return chA, chB
}

func clientOf(store *Store, connId ConnectionId) ClientId {
	var rec ConnectionRecord
	tx := store.Begin()
	ok, err := tx.getJSON(pathConnection(connId), &rec)
	if err != nil || !ok {
		panic("connection not found in clientOf helper")
	}
	return rec.ClientId
}
