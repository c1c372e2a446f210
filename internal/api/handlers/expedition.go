package handlers

import (
	"errors"
	"net/http"

	"github.com/ramonehamilton/LoR-Companion/internal/api/response"
	"github.com/ramonehamilton/LoR-Companion/internal/storage"
)

// ExpeditionHandler serves the expedition status.
type ExpeditionHandler struct {
	store   Store
	tracker Tracker
}

// NewExpeditionHandler creates a new ExpeditionHandler.
func NewExpeditionHandler(store Store, tracker Tracker) *ExpeditionHandler {
	return &ExpeditionHandler{store: store, tracker: tracker}
}

// GetExpedition returns the live expedition state, falling back to the
// latest stored snapshot.
func (h *ExpeditionHandler) GetExpedition(w http.ResponseWriter, r *http.Request) {
	if h.tracker != nil {
		if state := h.tracker.Expedition(); state != nil {
			response.Success(w, state)
			return
		}
	}

	if h.store != nil {
		snapshot, err := h.store.GetLatestExpedition(r.Context())
		if err != nil {
			response.InternalError(w, err)
			return
		}
		if snapshot != nil {
			response.Success(w, snapshot)
			return
		}
	}

	response.NotFound(w, errors.New("no expedition state recorded"))
}

// GetHistory lists stored expedition snapshots, newest first. Query: limit (default 20).
func (h *ExpeditionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, h.store) {
		return
	}

	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	snapshots, err := h.store.ListExpeditions(r.Context(), limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if snapshots == nil {
		snapshots = []*storage.ExpeditionSnapshot{}
	}
	response.List(w, snapshots, len(snapshots))
}
