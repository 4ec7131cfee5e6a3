package core

import (
	"errors"
	"testing"
)

func setupOpenChannelPair(t *testing.T) (engineA, engineB *Engine, store *Store, chA, chB ChannelId, callerA, callerB Address) {
	t.Helper()
	engineA, store = newTestEngine(testAddr(1))
	engineB = &Engine{Registry: engineA.Registry, Authorizer: engineA.Authorizer, Modules: engineA.Modules}
	clientA := createTestClient(store, engineA, "chainB")
	clientB := createTestClient(store, engineA, "chainA")
	connA, connB := openConnection(store, engineA, engineB, clientA, clientB)
	callerA, callerB = testAddr(1), testAddr(2)
	chA, chB = openChannel(store, engineA, engineB, callerA, callerB, connA, connB)
	return
}

func TestChannelHandshakeReachesOpenBothSides(t *testing.T) {
	engineA, engineB, store, chA, chB, _, _ := setupOpenChannelPair(t)

	recA, ok, err := engineA.GetChannel(store.Begin(), chA)
	if err != nil || !ok || recA.State != ChannelStateOpen {
		t.Fatalf("chA: ok=%v err=%v state=%v", ok, err, recA.State)
	}
	recB, ok, err := engineB.GetChannel(store.Begin(), chB)
	if err != nil || !ok || recB.State != ChannelStateOpen {
		t.Fatalf("chB: ok=%v err=%v state=%v", ok, err, recB.State)
	}
	if recA.CounterpartyChannelId != chB || recB.CounterpartyChannelId != chA {
		t.Fatal("each side must record the other's channel id as counterparty")
	}
}

func TestChannelOpenInitRequiresOpenConnection(t *testing.T) {
	engine, store := newTestEngine()
	clientA := createTestClient(store, engine, "chainB")
	tx := store.Begin()
	connA, err := engine.ConnectionOpenInit(tx, clientA, ClientId(2))
	if err != nil {
		t.Fatalf("ConnectionOpenInit: %v", err)
	}
	tx.Commit()

	tx2 := store.Begin()
	if _, err := engine.ChannelOpenInit(tx2, testAddr(1), connA, PortId("peer"), "v1"); !errors.Is(err, ErrInvalidConnectionState) {
		t.Fatalf("got %v want ErrInvalidConnectionState", err)
	}
}

func TestChannelOpenAckRejectsWrongOwner(t *testing.T) {
	engineA, _, store, chA, _, _, _ := setupOpenChannelPair(t)
	tx := store.Begin()
	err := engineA.ChannelOpenAck(tx, testAddr(99), chA, ChannelId(1), Height(1), nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v want ErrUnauthorized", err)
	}
}

func TestChannelOpenConfirmRejectsWrongState(t *testing.T) {
	engineA, _, store, chA, _, callerA, _ := setupOpenChannelPair(t)
	// chA already reached Open; Confirm again must fail on state, not auth.
	tx := store.Begin()
	err := engineA.ChannelOpenConfirm(tx, callerA, chA, Height(1), nil)
	if !errors.Is(err, ErrInvalidChannelState) {
		t.Fatalf("got %v want ErrInvalidChannelState", err)
	}
}
