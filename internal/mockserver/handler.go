// Package mockserver serves the /api/v1 list contract from a mock.Store.
//
// It exists so the remote client can be exercised end to end and so the CLI
// has something to talk to without the real backend. Sessions are opaque
// "sid" cookies mapped to user ids in memory.
package mockserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/idilsaglam/shoplist/internal/backend"
	"github.com/idilsaglam/shoplist/internal/backend/mock"
	"github.com/idilsaglam/shoplist/internal/wire"
)

// SessionCookie is the name of the cookie carrying the session id.
const SessionCookie = "sid"

// Handler holds the data set and the live sessions.
type Handler struct {
	Store *mock.Store
	Log   *zap.Logger

	mu       sync.Mutex
	sessions map[string]string // sid -> user id
}

// NewHandler constructs a Handler over store.
func NewHandler(store *mock.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:    store,
		Log:      logger,
		sessions: make(map[string]string),
	}
}

// ---------------------------------------------------
// Auth
// ---------------------------------------------------

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body wire.Credentials
	if !h.decode(w, r, &body) {
		return
	}
	u, err := h.Store.Authenticate(body.Name, body.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.startSession(w, u.ID)
	writeJSON(w, http.StatusOK, wire.FromUser(u))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var body wire.Credentials
	if !h.decode(w, r, &body) {
		return
	}
	u, err := h.Store.Register(body.Name, body.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.startSession(w, u.ID)
	writeJSON(w, http.StatusCreated, wire.FromUser(u))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		h.fail(w, r, backend.ErrUnauthorized)
		return
	}
	h.mu.Lock()
	_, ok := h.sessions[c.Value]
	delete(h.sessions, c.Value)
	h.mu.Unlock()
	if !ok {
		h.fail(w, r, backend.ErrUnauthorized)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------
// Profile
// ---------------------------------------------------

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	p, err := h.Store.Profile(uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromProfile(p))
}

func (h *Handler) patchProfile(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	var body wire.ProfilePatch
	if !h.decode(w, r, &body) {
		return
	}
	u, err := h.Store.UpdateUser(uid, body.Name, body.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromUser(u))
}

func (h *Handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	if err := h.Store.DeleteUser(uid); err != nil {
		h.fail(w, r, err)
		return
	}
	h.dropSessions(uid)
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------
// Lists
// ---------------------------------------------------

func (h *Handler) createList(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	var body wire.CreateList
	if !h.decode(w, r, &body) {
		return
	}
	l, err := h.Store.CreateList(uid, body.ListName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wire.FromList(l))
}

func (h *Handler) getList(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	l, err := h.Store.GetList(uid, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromList(l))
}

func (h *Handler) patchList(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	var body backend.ListPatch
	if !h.decode(w, r, &body) {
		return
	}
	l, err := h.Store.UpdateList(uid, chi.URLParam(r, "id"), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromList(l))
}

func (h *Handler) deleteList(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	if err := h.Store.DeleteList(uid, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leaveList(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	if err := h.Store.Leave(uid, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addCollaborator(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	var body wire.ACL
	if !h.decode(w, r, &body) {
		return
	}
	l, err := h.Store.AddCollaborator(uid, body.ListID, body.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromList(l))
}

func (h *Handler) removeCollaborator(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	var body wire.ACL
	if !h.decode(w, r, &body) {
		return
	}
	l, err := h.Store.RemoveCollaborator(uid, body.ListID, body.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromList(l))
}

// ---------------------------------------------------
// Items
// ---------------------------------------------------

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	var body wire.CreateItem
	if !h.decode(w, r, &body) {
		return
	}
	l, err := h.Store.CreateItem(uid, body.ListID, body.Order, body.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wire.FromList(l))
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	it, err := h.Store.GetItem(uid, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromItem(it))
}

func (h *Handler) patchItem(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	var body wire.ItemPatch
	if !h.decode(w, r, &body) {
		return
	}
	l, err := h.Store.SetItemCompletion(uid, chi.URLParam(r, "id"), body.IsComplete)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromList(l))
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	uid := callerID(r)
	if _, err := h.Store.DeleteItem(uid, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------
// helpers
// ---------------------------------------------------

func (h *Handler) startSession(w http.ResponseWriter, uid string) {
	sid := uuid.NewString()
	h.mu.Lock()
	h.sessions[sid] = uid
	h.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) dropSessions(uid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sid, owner := range h.sessions {
		if owner == uid {
			delete(h.sessions, sid)
		}
	}
}

type ctxKey struct{}

// RequireSession rejects requests without a live session cookie and stores
// the caller's user id on the request context.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var uid string
		if c, err := r.Cookie(SessionCookie); err == nil {
			h.mu.Lock()
			uid = h.sessions[c.Value]
			h.mu.Unlock()
		}
		if uid == "" {
			h.fail(w, r, backend.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, uid)))
	})
}

func callerID(r *http.Request) string {
	uid, _ := r.Context().Value(ctxKey{}).(string)
	return uid
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Log.Debug("mockserver: bad request body", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, wire.Error{Error: "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := backend.StatusForKind(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("mockserver: request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, wire.Error{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
