package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"irisout/internal/effect"
	"irisout/internal/session"
	"irisout/pkg/realtime"
)

const errSessionNotFound = "Session not found or expired"

// API serves the source, effect-state, and stream routes.
type API struct {
	store     *session.Store
	keepalive time.Duration
}

func NewAPI(store *session.Store, keepalive time.Duration) *API {
	return &API{store: store, keepalive: keepalive}
}

func (h *API) RegisterRoutes(r chi.Router) {
	r.Post("/sources", h.createSource)
	r.Post("/effect-states/{id}", h.postEffectState)
	r.Get("/streams", h.openStream)
	r.Delete("/streams", h.deleteStream)
}

func (h *API) createSource(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Create(time.Now().UTC())
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        sess.ID,
		"url":       buildSourceURL(r, sess.ID),
		"expiresAt": sess.ExpiresAt.UnixMilli(),
	})
}

func (h *API) postEffectState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := effect.Decode(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload, err := json.Marshal(state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode effect state")
		return
	}
	if err := h.store.Dispatch(id, string(payload), time.Now().UTC()); err != nil {
		writeError(w, http.StatusNotFound, errSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *API) openStream(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("source_id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "source_id is required")
		return
	}
	feed, err := h.store.Bind(id, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusNotFound, errSessionNotFound)
		return
	}
	realtime.Serve(w, r, feed, h.keepalive)
}

func (h *API) deleteStream(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("source_id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "source_id is required")
		return
	}
	if err := h.store.Delete(id, time.Now().UTC()); err != nil {
		writeError(w, http.StatusNotFound, errSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// buildSourceURL prefers the caller's Origin header so the shareable URL
// points at the frontend that created the session, falling back to this
// server's own host.
func buildSourceURL(r *http.Request, id string) string {
	if origin := strings.TrimSpace(r.Header.Get("Origin")); origin != "" {
		return strings.TrimRight(origin, "/") + "/sources/" + id
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/sources/" + id
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
