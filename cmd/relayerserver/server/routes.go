package server

import (
	"net/http"

	"github.com/gorilla/mux"

	core "union-core/core"
)

// NewRouter wires the HTTP dispatch surface: one POST route decoding a
// tagged-union Envelope and handing it to Engine.Dispatch, plus the
// read-only query routes relayers/indexers poll.
func NewRouter(engine *core.Engine, store *core.Store, queries *core.Queries) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger)
	r.Use(JSONHeaders)

	h := &Handlers{Engine: engine, Store: store, Queries: queries}

	r.HandleFunc("/messages", h.Dispatch).Methods(http.MethodPost)

	r.HandleFunc("/clients/{id}", h.GetClientState).Methods(http.MethodGet)
	r.HandleFunc("/clients/{id}/type", h.GetClientType).Methods(http.MethodGet)
	r.HandleFunc("/clients/{id}/status", h.GetStatus).Methods(http.MethodGet)
	r.HandleFunc("/clients/{id}/consensus/{height}", h.GetConsensusState).Methods(http.MethodGet)
	r.HandleFunc("/connections/{id}", h.GetConnection).Methods(http.MethodGet)
	r.HandleFunc("/channels/{id}", h.GetChannel).Methods(http.MethodGet)
	r.HandleFunc("/batches/packets/{hash}", h.GetBatchPackets).Methods(http.MethodGet)
	r.HandleFunc("/batches/receipts/{hash}", h.GetBatchReceipts).Methods(http.MethodGet)

	return r
}
