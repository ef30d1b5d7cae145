package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"latexify/internal/gateway/session"
	"latexify/internal/view"
)

type ctxKey struct{}

// SessionHandler exposes the view flow over JSON. Flow failures are logged by
// the controller. Select and generate report them as accepted=false next to
// the unchanged snapshot.
type SessionHandler struct {
	store    *session.Store
	fileName string
}

func NewSessionHandler(store *session.Store, fileName string) *SessionHandler {
	return &SessionHandler{store: store, fileName: fileName}
}

type sessionResponse struct {
	ID       string        `json:"id"`
	Accepted *bool         `json:"accepted,omitempty"`
	Snapshot view.Snapshot `json:"snapshot"`
}

type selectRequest struct {
	TemplateID string `json:"templateId"`
}

type detailsRequest struct {
	Details string `json:"details"`
}

// WithSession resolves the {id} URL parameter. Unknown sessions are 404.
func (h *SessionHandler) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.store.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(ctxKey{}).(*session.Session)
	return sess
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Create()
	sess.Controller.Mount(r.Context())
	writeJSON(w, http.StatusCreated, snapshotOf(sess))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshotOf(sessionFrom(r)))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.store.Delete(sessionFrom(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(req.TemplateID)
	if id == "" {
		http.Error(w, "templateId is required", http.StatusBadRequest)
		return
	}
	sess := sessionFrom(r)
	accepted := sess.Controller.Select(r.Context(), id)
	resp := snapshotOf(sess)
	resp.Accepted = &accepted
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) Details(w http.ResponseWriter, r *http.Request) {
	var req detailsRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess := sessionFrom(r)
	sess.Controller.SetDetails(req.Details)
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

// Generate blocks until the generation finishes. A client that goes away does
// not cancel the outstanding request.
func (h *SessionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	accepted := sess.Controller.Submit(context.WithoutCancel(r.Context()))
	resp := snapshotOf(sess)
	resp.Accepted = &accepted
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	rs := &responseSaver{w: w}
	sessionFrom(r).Controller.Export(r.Context(), rs)
	if !rs.written {
		w.WriteHeader(http.StatusNoContent)
	}
}

func snapshotOf(sess *session.Session) sessionResponse {
	return sessionResponse{ID: sess.ID, Snapshot: sess.Controller.Snapshot()}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
