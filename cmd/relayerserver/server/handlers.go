package server

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	core "union-core/core"
)

// Handlers holds the engine, store and query surface every HTTP route
// needs, as methods so the dependencies flow in from main() instead of
// living in package globals.
type Handlers struct {
	Engine  *core.Engine
	Store   *core.Store
	Queries *core.Queries
}

// Dispatch is the single entrypoint for the message envelope: it decodes
// the tagged-union Envelope from the request body and hands it to
// Engine.Dispatch, which is transactional — the response is either a
// committed Result or the error that caused a full rollback.
func (h *Handlers) Dispatch(w http.ResponseWriter, r *http.Request) {
	var env core.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.Engine.Dispatch(h.Store, env)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, result)
}

func pathUint32(r *http.Request, name string) (uint32, bool) {
	v, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	return uint32(v), err == nil
}

func pathCommitment(r *http.Request, name string) (core.Commitment, bool) {
	raw, err := hex.DecodeString(mux.Vars(r)[name])
	if err != nil || len(raw) != 32 {
		return core.Commitment{}, false
	}
	var c core.Commitment
	copy(c[:], raw)
	return c, true
}

// GetClientState is the GetClientState(client_id) query.
func (h *Handlers) GetClientState(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint32(r, "id")
	if !ok {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	state, ok := h.Queries.GetClientState(core.ClientId(id))
	if !ok {
		http.Error(w, "client not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"client_state": hex.EncodeToString(state)})
}

// GetClientType is the GetClientType(client_id) query.
func (h *Handlers) GetClientType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint32(r, "id")
	if !ok {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	clientType, ok, err := h.Queries.GetClientType(core.ClientId(id))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "client not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"client_type": clientType})
}

// GetStatus is the GetStatus(client_id) query.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint32(r, "id")
	if !ok {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	status, err := h.Queries.GetStatus(core.ClientId(id))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"status": status.String()})
}

// GetConsensusState is the GetConsensusState(client_id, height) query.
func (h *Handlers) GetConsensusState(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint32(r, "id")
	if !ok {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	height, err := strconv.ParseUint(mux.Vars(r)["height"], 10, 64)
	if err != nil {
		http.Error(w, "invalid height", http.StatusBadRequest)
		return
	}
	state, ok, err := h.Queries.GetConsensusState(core.ClientId(id), core.Height(height))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "consensus state not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"consensus_state": hex.EncodeToString(state)})
}

// GetConnection is the GetConnection(id) query.
func (h *Handlers) GetConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint32(r, "id")
	if !ok {
		http.Error(w, "invalid connection id", http.StatusBadRequest)
		return
	}
	conn, ok, err := h.Queries.GetConnection(core.ConnectionId(id))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "connection not found", http.StatusNotFound)
		return
	}
	writeJSON(w, conn)
}

// GetChannel is the GetChannel(id) query.
func (h *Handlers) GetChannel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint32(r, "id")
	if !ok {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
		return
	}
	ch, ok, err := h.Queries.GetChannel(core.ChannelId(id))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "channel not found", http.StatusNotFound)
		return
	}
	writeJSON(w, ch)
}

// GetBatchPackets is the GetBatchPackets(hash) query.
func (h *Handlers) GetBatchPackets(w http.ResponseWriter, r *http.Request) {
	hash, ok := pathCommitment(r, "hash")
	if !ok {
		http.Error(w, "invalid batch hash", http.StatusBadRequest)
		return
	}
	c := h.Queries.GetBatchPackets(hash)
	if c.IsZero() {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"commitment": hex.EncodeToString(c[:])})
}

// GetBatchReceipts is the GetBatchReceipts(hash) query.
func (h *Handlers) GetBatchReceipts(w http.ResponseWriter, r *http.Request) {
	hash, ok := pathCommitment(r, "hash")
	if !ok {
		http.Error(w, "invalid batch hash", http.StatusBadRequest)
		return
	}
	c := h.Queries.GetBatchReceipts(hash)
	if c.IsZero() {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"commitment": hex.EncodeToString(c[:])})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
