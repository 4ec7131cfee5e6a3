package core

import (
	"encoding/json"

	"go.uber.org/zap"
)

// BroadcasterFunc is the signature for the pluggable event sink: a
// decoupled Broadcast/SetBroadcaster hook rewritten narrowly around just the
// event bus, since the host transport is external to this engine.
type BroadcasterFunc func(topic string, data []byte) error

var broadcaster BroadcasterFunc

// SetEventBroadcaster installs the sink used by emit. Passing nil disables
// broadcasting (events are simply dropped, which is safe: the engine keeps
// no log of its own and never reads events back).
func SetEventBroadcaster(fn BroadcasterFunc) { broadcaster = fn }

// emit JSON-encodes evt and hands it to the installed broadcaster. It is
// only ever called from Tx.Commit, after a dispatched message's writes have
// already been merged into the store, so a broadcaster failure never rolls
// back state — events are best-effort notification, not protocol state.
func emit(evt Event) {
	logger := zap.L().Sugar()
	raw, err := json.Marshal(evt)
	if err != nil {
		logger.Errorw("marshal event", "type", evt.Type, "error", err)
		return
	}
	if broadcaster == nil {
		logger.Debugw("event dropped, no broadcaster installed", "type", evt.Type)
		return
	}
	if err := broadcaster(evt.Type, raw); err != nil {
		logger.Warnw("broadcast event failed", "type", evt.Type, "error", err)
	}
}

func newEvent(eventType string, attrs map[string]string) Event {
	return Event{Type: eventType, Attrs: attrs}
}

func hashAttr(h Commitment) string { return h.String() }
