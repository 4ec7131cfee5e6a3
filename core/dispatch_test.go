package core

import (
	"encoding/json"
	"testing"
)

func TestDispatchUnknownTypeRejected(t *testing.T) {
	engine, store := newTestEngine()
	_, err := engine.Dispatch(store, Envelope{Type: "NotARealMessage"})
	if err != ErrUnknownMessageType {
		t.Fatalf("got %v want ErrUnknownMessageType", err)
	}
}

func TestDispatchFailureLeavesStoreUntouched(t *testing.T) {
	engine, store := newTestEngine()
	payload, _ := json.Marshal(struct {
		Caller           Address   `json:"caller"`
		SourceChannelId  ChannelId `json:"source_channel_id"`
		TimeoutTimestamp Timestamp `json:"timeout_timestamp"`
		Data             []byte    `json:"data"`
	}{testAddr(1), ChannelId(7), 0, []byte("x")})

	if _, err := engine.Dispatch(store, Envelope{Type: MsgPacketSend, Payload: payload}); err == nil {
		t.Fatal("expected PacketSend with a zero timeout to fail dispatch")
	}
	// Nothing about channel 7 should exist: the failed message must not have
	// left any partial state behind.
	if _, ok, err := engine.GetChannel(store.Begin(), ChannelId(7)); err != nil || ok {
		t.Fatalf("dispatch failure must leave the store untouched: ok=%v err=%v", ok, err)
	}
}

func TestDispatchSuccessCommitsAndReturnsRequestId(t *testing.T) {
	engine, store := newTestEngine()
	clientA := createTestClient(store, engine, "chainB")

	payload, _ := json.Marshal(struct {
		ClientId             ClientId `json:"client_id"`
		CounterpartyClientId ClientId `json:"counterparty_client_id"`
	}{clientA, ClientId(2)})

	result, err := engine.Dispatch(store, Envelope{Type: MsgConnectionOpenInit, Payload: payload})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.RequestId == "" {
		t.Fatal("a successful Dispatch must return a non-empty request id")
	}

	connId, ok := result.Data.(ConnectionId)
	if !ok {
		t.Fatalf("expected ConnectionOpenInit to return a ConnectionId, got %T", result.Data)
	}
	rec, ok, err := engine.GetConnection(store.Begin(), connId)
	if err != nil || !ok {
		t.Fatalf("connection must be committed to the store: ok=%v err=%v", ok, err)
	}
	if rec.State != ConnectionStateInit {
		t.Fatalf("got state %v want Init", rec.State)
	}
}

func TestDispatchRoundTripsCreateClientEnvelope(t *testing.T) {
	engine, store := newTestEngine()
	cs, _ := json.Marshal(merkleClientState{ChainId: "chainB"})
	cons, _ := json.Marshal(merkleConsensusState{})
	payload, _ := json.Marshal(struct {
		ClientType     string  `json:"client_type"`
		ClientState    []byte  `json:"client_state"`
		ConsensusState []byte  `json:"consensus_state"`
		Height         Height  `json:"height"`
		Caller         Address `json:"caller"`
		Relayer        Address `json:"relayer"`
	}{"mock-merkle", cs, cons, Height(1), testAddr(0), testAddr(0)})

	result, err := engine.Dispatch(store, Envelope{Type: MsgCreateClient, Payload: payload})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, ok := result.Data.(ClientId); !ok {
		t.Fatalf("expected a ClientId, got %T", result.Data)
	}
}

func TestDispatchMisbehaviourEnvelope(t *testing.T) {
	engine, store := newTestEngine()
	clientId := createTestClient(store, engine, "chainB")
	payload, _ := json.Marshal(struct {
		ClientId ClientId `json:"client_id"`
	}{clientId})

	if _, err := engine.Dispatch(store, Envelope{Type: MsgMisbehaviour, Payload: payload}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	status, err := engine.Registry.Status(store.Begin(), clientId)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status != ClientStatusFrozen {
		t.Fatalf("got %v want Frozen", status)
	}
}
