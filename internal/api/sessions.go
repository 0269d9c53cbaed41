package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dealroom/internal/models"
	"github.com/starford/dealroom/internal/presenter"
)

type sessionKey struct{}

// withSession resolves {sid} and stores the session in the request context.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.sessions.Get(chi.URLParam(r, "sid"))
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody("session not found"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

func sessionFrom(r *http.Request) *presenter.Session {
	return r.Context().Value(sessionKey{}).(*presenter.Session)
}

func writeView(w http.ResponseWriter, r *http.Request, s *presenter.Session) {
	writeJSON(w, http.StatusOK, s.View(r.Context()))
}

// CreateSession handles POST /api/sessions.
//
//	@Summary		Open a dashboard session
//	@Tags			sessions
//	@Produce		json
//	@Success		201	{object}	SessionView
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, s.View(r.Context()))
}

// GetSession handles GET /api/sessions/{sid}.
//
//	@Summary		Render a session
//	@Tags			sessions
//	@Produce		json
//	@Param			sid	path		string	true	"Session id"
//	@Success		200	{object}	SessionView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeView(w, r, sessionFrom(r))
}

// DeleteSession handles DELETE /api/sessions/{sid}.
//
//	@Summary		Discard a session
//	@Tags			sessions
//	@Param			sid	path	string	true	"Session id"
//	@Success		204	"Session discarded"
//	@Security		BearerAuth
//	@Router			/sessions/{sid} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(sessionFrom(r).ID())
	w.WriteHeader(http.StatusNoContent)
}

// Expand handles POST /api/sessions/{sid}/expand. An empty id closes the overlay.
func (h *Handler) Expand(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := sessionFrom(r)
	s.Expand(req.ID)
	writeView(w, r, s)
}

// Close handles POST /api/sessions/{sid}/close.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.Close()
	writeView(w, r, s)
}

// ToggleEditMode handles POST /api/sessions/{sid}/edit-mode.
func (h *Handler) ToggleEditMode(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.ToggleGlobalEditMode()
	writeView(w, r, s)
}

// SetTab handles PUT /api/sessions/{sid}/tab.
func (h *Handler) SetTab(w http.ResponseWriter, r *http.Request) {
	var req TabRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := models.ParseBucket(req.Tab)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	s := sessionFrom(r)
	s.SetTab(b)
	writeView(w, r, s)
}

// SetSearch handles PUT /api/sessions/{sid}/search.
func (h *Handler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := sessionFrom(r)
	s.SetSearch(req.Query)
	writeView(w, r, s)
}

// SetFilter handles PUT /api/sessions/{sid}/filters.
func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := sessionFrom(r)
	if err := s.SetFilter(req.Key, req.Value); err != nil {
		writeError(w, "set filter", err)
		return
	}
	writeView(w, r, s)
}

// ClearFilters handles DELETE /api/sessions/{sid}/filters.
func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.ClearFilters()
	writeView(w, r, s)
}

// StartEditing handles POST /api/sessions/{sid}/fields/{field}/start. Without
// a value the draft is seeded from the committed value.
func (h *Handler) StartEditing(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	s := sessionFrom(r)
	field := chi.URLParam(r, "field")
	if req.Value != nil {
		s.StartEditingFrom(field, *req.Value)
	} else {
		s.StartEditing(r.Context(), field)
	}
	writeView(w, r, s)
}

// UpdateDraft handles PUT /api/sessions/{sid}/fields/{field}/draft.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("value is required"))
		return
	}
	s := sessionFrom(r)
	s.UpdateDraft(chi.URLParam(r, "field"), *req.Value)
	writeView(w, r, s)
}

// SaveEdit handles POST /api/sessions/{sid}/fields/{field}/save.
func (h *Handler) SaveEdit(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	if _, err := s.SaveEdit(r.Context(), chi.URLParam(r, "field")); err != nil {
		writeError(w, "save edit", err)
		return
	}
	writeView(w, r, s)
}

// CancelEdit handles POST /api/sessions/{sid}/fields/{field}/cancel.
func (h *Handler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.CancelEdit(chi.URLParam(r, "field"))
	writeView(w, r, s)
}

// ToggleActionItem handles POST /api/sessions/{sid}/action-items/{itemID}/toggle.
func (h *Handler) ToggleActionItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.ToggleActionItem(chi.URLParam(r, "itemID"))
	writeView(w, r, s)
}

// ToggleContact handles POST /api/sessions/{sid}/contacts/{contactID}/toggle.
func (h *Handler) ToggleContact(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.ToggleContact(chi.URLParam(r, "contactID"))
	writeView(w, r, s)
}

// sessionAppend builds the session append handlers. Blank text and a
// collapsed overlay are silent no-ops.
func (h *Handler) sessionAppend(op string, fn func(s *presenter.Session, r *http.Request, text string) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TextRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		s := sessionFrom(r)
		if _, err := fn(s, r, req.Text); err != nil {
			writeError(w, op, err)
			return
		}
		writeView(w, r, s)
	}
}

// SessionAddComment handles POST /api/sessions/{sid}/comments.
func (h *Handler) SessionAddComment() http.HandlerFunc {
	return h.sessionAppend("session add comment", func(s *presenter.Session, r *http.Request, text string) (bool, error) {
		return s.AddComment(r.Context(), text)
	})
}

// SessionAddIdea handles POST /api/sessions/{sid}/ideas.
func (h *Handler) SessionAddIdea() http.HandlerFunc {
	return h.sessionAppend("session add idea", func(s *presenter.Session, r *http.Request, text string) (bool, error) {
		return s.AddIdea(r.Context(), text)
	})
}

// SessionAddActionItem handles POST /api/sessions/{sid}/action-items.
func (h *Handler) SessionAddActionItem() http.HandlerFunc {
	return h.sessionAppend("session add action item", func(s *presenter.Session, r *http.Request, text string) (bool, error) {
		return s.AddActionItem(r.Context(), text)
	})
}

// SessionSetActionItemCompleted handles PUT /api/sessions/{sid}/action-items/{itemID}/completed.
func (h *Handler) SessionSetActionItemCompleted(w http.ResponseWriter, r *http.Request) {
	var req CompletedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Completed == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("completed is required"))
		return
	}
	s := sessionFrom(r)
	if _, err := s.SetActionItemCompleted(r.Context(), chi.URLParam(r, "itemID"), *req.Completed); err != nil {
		writeError(w, "session set action item completed", err)
		return
	}
	writeView(w, r, s)
}

// UploadPlaceholder handles POST /api/sessions/{sid}/documents/placeholder.
func (h *Handler) UploadPlaceholder(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	if _, err := s.UploadPlaceholderDocument(r.Context()); err != nil {
		writeError(w, "upload placeholder", err)
		return
	}
	writeView(w, r, s)
}

// AddTeamMember handles POST /api/sessions/{sid}/team. The request is only logged.
func (h *Handler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	var req TeamMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := sessionFrom(r)
	s.AddTeamMember(req.Name)
	writeView(w, r, s)
}

// RemoveTeamMember handles DELETE /api/sessions/{sid}/team/{memberID}. The request is only logged.
func (h *Handler) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.RemoveTeamMember(chi.URLParam(r, "memberID"))
	writeView(w, r, s)
}
