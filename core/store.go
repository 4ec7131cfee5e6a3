package core

import (
	"encoding/json"
	"math"
	"sort"
	"sync"
)

// Store is the append-only keyed commitment store: packet-send,
// packet-ack, packet-receipt, batch-send, batch-ack commitments, plus the
// channel/connection/client records and per-client consensus-state cache.
// Reads are pure; writes only happen through a Tx so that every dispatched
// message is transactional.
type Store struct {
	mu       sync.RWMutex
	data     map[string][]byte
	counters map[string]uint32
}

// NewStore returns an empty commitment store.
func NewStore() *Store {
	return &Store{
		data:     make(map[string][]byte),
		counters: make(map[string]uint32),
	}
}

func (s *Store) read(key []byte) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key)]
	return v, ok
}

// Prefix returns all (key, value) pairs whose key starts with prefix.
// Callers that need a stable order (e.g. query listings) should run the
// result through sortedKeys themselves.
func (s *Store) Prefix(prefix []byte) map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte)
	for k, v := range s.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == string(prefix) {
			cp := make([]byte, len(v))
			copy(cp, v)
			out[k] = cp
		}
	}
	return out
}

// ReadCommitment returns the commitment stored at path, or the zero/absent
// sentinel if nothing has been written there.
func (s *Store) ReadCommitment(path []byte) Commitment {
	v, ok := s.read(path)
	if !ok || len(v) != 32 {
		return Commitment{}
	}
	var c Commitment
	copy(c[:], v)
	return c
}

// getJSON loads a JSON record at path into out; returns false if absent.
func (s *Store) getJSON(path []byte, out interface{}) (bool, error) {
	v, ok := s.read(path)
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, out)
}

// sortedKeys returns the keys of a Prefix result in sorted order, for callers
// that need a deterministic listing.
func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Event is a structured fact emitted by a state-changing operation — the
// sole interface to the relayer/indexer pipeline. Its attributes are what
// the emitting operation sets: the ids involved and the packet or batch hash
// where there is one; no block-height or tx-index cursor is attached. The engine
// keeps no log of its own; only the Tx that produced an event remembers it
// until commit.
type Event struct {
	Type  string            `json:"type"`
	Attrs map[string]string `json:"attrs"`
}

// Tx stages writes and events for a single dispatched message. Nothing is
// visible in the backing Store until Commit is called, and nothing is
// broadcast until then either — this is what makes every dispatch entrypoint
// all-or-nothing.
type Tx struct {
	base        *Store
	overlay     map[string][]byte
	tombstones  map[string]bool
	counterBase map[string]uint32
	events      []Event
}

// Begin opens a new transaction against the store.
func (s *Store) Begin() *Tx {
	s.mu.RLock()
	counters := make(map[string]uint32, len(s.counters))
	for k, v := range s.counters {
		counters[k] = v
	}
	s.mu.RUnlock()
	return &Tx{
		base:        s,
		overlay:     make(map[string][]byte),
		tombstones:  make(map[string]bool),
		counterBase: counters,
	}
}

// Read returns the raw bytes at key, checking the transaction's overlay
// before falling back to the committed store.
func (tx *Tx) Read(key []byte) ([]byte, bool) {
	k := string(key)
	if tx.tombstones[k] {
		return nil, false
	}
	if v, ok := tx.overlay[k]; ok {
		return v, true
	}
	return tx.base.read(key)
}

// ReadCommitment is the Tx-scoped equivalent of Store.ReadCommitment.
func (tx *Tx) ReadCommitment(path []byte) Commitment {
	v, ok := tx.Read(path)
	if !ok || len(v) != 32 {
		return Commitment{}
	}
	var c Commitment
	copy(c[:], v)
	return c
}

// Write stages a raw byte write.
func (tx *Tx) Write(key []byte, value []byte) {
	k := string(key)
	delete(tx.tombstones, k)
	cp := make([]byte, len(value))
	copy(cp, value)
	tx.overlay[k] = cp
}

// WriteCommitment stages a 32-byte commitment write.
func (tx *Tx) WriteCommitment(path []byte, c Commitment) {
	tx.Write(path, c[:])
}

// Delete stages a key for removal. No implicit deletes happen anywhere else
// in this package — every deletion in the engine calls this explicitly.
func (tx *Tx) Delete(key []byte) {
	k := string(key)
	delete(tx.overlay, k)
	tx.tombstones[k] = true
}

// getJSON loads a JSON record, preferring the transaction's staged view.
func (tx *Tx) getJSON(path []byte, out interface{}) (bool, error) {
	v, ok := tx.Read(path)
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, out)
}

// setJSON stages a JSON-encoded record write.
func (tx *Tx) setJSON(path []byte, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tx.Write(path, raw)
	return nil
}

// nextId allocates the next value of a dense, monotonically increasing
// counter scoped to name (e.g. "client", "connection", "channel"). Ids are
// never reused within a contract instance even across failed transactions:
// the counter only advances on Commit, but within the lifetime of this Tx
// the counter is consumed exactly once per call. Returns ErrMathOverflow
// once the counter has exhausted the 32-bit id space rather than silently
// wrapping back to an id that may already be in use.
func (tx *Tx) nextId(name string) (uint32, error) {
	if tx.counterBase[name] == math.MaxUint32 {
		return 0, ErrMathOverflow
	}
	next := tx.counterBase[name] + 1
	tx.counterBase[name] = next
	return next, nil
}

// Emit buffers an event; it becomes visible to the event bus only if the
// transaction commits.
func (tx *Tx) Emit(evt Event) {
	tx.events = append(tx.events, evt)
}

// Commit atomically merges all staged writes, deletes and counter advances
// into the backing store, then flushes buffered events to the event bus.
// Callers must not reuse a Tx after Commit.
func (tx *Tx) Commit() {
	s := tx.base
	s.mu.Lock()
	for k := range tx.tombstones {
		delete(s.data, k)
	}
	for k, v := range tx.overlay {
		s.data[k] = v
	}
	for name, v := range tx.counterBase {
		s.counters[name] = v
	}
	s.mu.Unlock()
	for _, evt := range tx.events {
		emit(evt)
	}
}

// Rollback is a no-op by construction: a Tx that is simply discarded without
// Commit never touched the backing store. It exists so call sites can make
// the abort path explicit.
func (tx *Tx) Rollback() {}
