package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func captureEvents(t *testing.T) *[]Event {
	t.Helper()
	var got []Event
	SetEventBroadcaster(func(topic string, data []byte) error {
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("broadcast payload must be a JSON Event: %v", err)
		}
		if evt.Type != topic {
			t.Fatalf("topic %q must match event type %q", topic, evt.Type)
		}
		got = append(got, evt)
		return nil
	})
	t.Cleanup(func() { SetEventBroadcaster(nil) })
	return &got
}

func TestEventsFlushOnlyOnCommit(t *testing.T) {
	got := captureEvents(t)
	store := NewStore()

	tx := store.Begin()
	tx.Emit(newEvent("packet_send", map[string]string{"hash": "abc"}))
	if len(*got) != 0 {
		t.Fatal("an event must not reach the broadcaster before Commit")
	}
	tx.Rollback()
	if len(*got) != 0 {
		t.Fatal("a rolled-back Tx must never broadcast its events")
	}

	tx2 := store.Begin()
	tx2.Emit(newEvent("packet_send", map[string]string{"hash": "def"}))
	tx2.Commit()
	if len(*got) != 1 || (*got)[0].Attrs["hash"] != "def" {
		t.Fatalf("got events %v, want exactly the committed one", *got)
	}
}

func TestEventBroadcastFailureDoesNotAffectState(t *testing.T) {
	SetEventBroadcaster(func(string, []byte) error { return errors.New("sink down") })
	t.Cleanup(func() { SetEventBroadcaster(nil) })

	store := NewStore()
	tx := store.Begin()
	key := []byte("k")
	tx.Write(key, []byte("v"))
	tx.Emit(newEvent("packet_send", nil))
	tx.Commit()

	if _, ok := store.read(key); !ok {
		t.Fatal("a broadcaster failure must never roll back committed state")
	}
}

func TestSendEventCarriesPacket(t *testing.T) {
	got := captureEvents(t)
	engineA, _, store, chA, _, callerA, _ := setupOpenChannelPair(t)
	*got = (*got)[:0] // drop handshake events, only the send matters here

	packet, _ := sendTestPacket(t, store, engineA, callerA, chA, Now()+1_000_000_000, []byte("payload"))

	if len(*got) != 1 || (*got)[0].Type != "packet_send" {
		t.Fatalf("got events %v, want one packet_send", *got)
	}
	var fromEvent Packet
	if err := json.Unmarshal([]byte((*got)[0].Attrs["packet"]), &fromEvent); err != nil {
		t.Fatalf("packet attribute must round-trip as JSON: %v", err)
	}
	if PacketHash(fromEvent) != PacketHash(packet) {
		t.Fatal("the packet carried on the event must hash to the sent packet")
	}
}
