package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dealroom/internal/clientservice"
	"github.com/starford/dealroom/internal/models"
	"github.com/starford/dealroom/internal/presenter"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *clientservice.Service
	sessions *presenter.Registry
}

// NewHandler creates a new Handler.
func NewHandler(svc *clientservice.Service, sessions *presenter.Registry) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func etag(d *ClientDetail) string {
	return `"` + d.Checksum + `"`
}

// ListClients handles GET /api/clients.
//
//	@Summary		List the clients of a bucket, optionally filtered
//	@Tags			clients
//	@Produce		json
//	@Param			bucket	query		string	false	"Bucket"	Enums(current, archived, prospective)
//	@Param			q		query		string	false	"Name or client lead substring"
//	@Success		200		{object}	ClientListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients [get]
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b, err := models.ParseBucket(q.Get("bucket"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	query := q.Get("q")
	writeJSON(w, http.StatusOK, ClientListResponse{
		Bucket:  b,
		Query:   query,
		Clients: h.svc.Filter(r.Context(), b, query),
	})
}

// GetClient handles GET /api/clients/{id}.
//
//	@Summary		Get a single client by id
//	@Tags			clients
//	@Produce		json
//	@Param			id	path		string	true	"Client id"
//	@Success		200	{object}	ClientDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{id} [get]
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get client", err)
		return
	}
	w.Header().Set("ETag", etag(d))
	writeJSON(w, http.StatusOK, d)
}

// UpdateClient handles PATCH /api/clients/{id}.
//
//	@Summary		Merge a partial update into a client
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Client id"
//	@Param			If-Match	header		string				false	"Checksum for optimistic concurrency"
//	@Param			body		body		models.ClientPatch	true	"Fields to overwrite"
//	@Success		200			{object}	ClientDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{id} [patch]
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var patch models.ClientPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	d, err := h.svc.UpdateClient(r.Context(), chi.URLParam(r, "id"), patch, ifMatch)
	if err != nil {
		writeError(w, "update client", err)
		return
	}
	w.Header().Set("ETag", etag(d))
	writeJSON(w, http.StatusOK, d)
}

// Counts handles GET /api/counts.
//
//	@Summary		Number of clients per bucket
//	@Tags			clients
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Security		BearerAuth
//	@Router			/counts [get]
func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Counts(r.Context()))
}

// Team handles GET /api/team.
//
//	@Summary		Agency roster with assigned and unassigned members
//	@Tags			team
//	@Produce		json
//	@Success		200	{object}	TeamResponse
//	@Security		BearerAuth
//	@Router			/team [get]
func (h *Handler) Team(w http.ResponseWriter, r *http.Request) {
	members := h.svc.TeamMembers(r.Context())
	assigned, unassigned := models.PartitionTeam(members)
	writeJSON(w, http.StatusOK, TeamResponse{Members: members, Assigned: assigned, Unassigned: unassigned})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across clients
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

type appendFunc func(h *Handler, r *http.Request, id, text string) (*ClientDetail, bool, error)

// appendHandler builds the POST handlers of the growable collections. A blank
// text is a silent no-op answered with 204.
func (h *Handler) appendHandler(op string, fn appendFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TextRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		d, ok, err := fn(h, r, chi.URLParam(r, "id"), req.Text)
		if err != nil {
			writeError(w, op, err)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("ETag", etag(d))
		writeJSON(w, http.StatusCreated, d)
	}
}

// AddComment handles POST /api/clients/{id}/comments.
//
//	@Summary		Append a comment
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Client id"
//	@Param			body	body		TextRequest	true	"Comment text"
//	@Success		201		{object}	ClientDetail
//	@Success		204		"Blank text ignored"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{id}/comments [post]
func (h *Handler) AddComment() http.HandlerFunc {
	return h.appendHandler("add comment", func(h *Handler, r *http.Request, id, text string) (*ClientDetail, bool, error) {
		return h.svc.AddComment(r.Context(), id, text)
	})
}

// AddIdea handles POST /api/clients/{id}/ideas.
//
//	@Summary		Append a big idea
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Client id"
//	@Param			body	body		TextRequest	true	"Idea text"
//	@Success		201		{object}	ClientDetail
//	@Success		204		"Blank text ignored"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{id}/ideas [post]
func (h *Handler) AddIdea() http.HandlerFunc {
	return h.appendHandler("add idea", func(h *Handler, r *http.Request, id, text string) (*ClientDetail, bool, error) {
		return h.svc.AddIdea(r.Context(), id, text)
	})
}

// AddActionItem handles POST /api/clients/{id}/action-items.
//
//	@Summary		Append an action item
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Client id"
//	@Param			body	body		TextRequest	true	"Task"
//	@Success		201		{object}	ClientDetail
//	@Success		204		"Blank text ignored"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{id}/action-items [post]
func (h *Handler) AddActionItem() http.HandlerFunc {
	return h.appendHandler("add action item", func(h *Handler, r *http.Request, id, text string) (*ClientDetail, bool, error) {
		return h.svc.AddActionItem(r.Context(), id, text)
	})
}

// AddDocumentRecord handles POST /api/clients/{id}/documents/records.
//
//	@Summary		List a document without uploading a file
//	@Description	The type defaults to the file extension of the name.
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Client id"
//	@Param			body	body		DocumentRecordRequest	true	"Document name and type"
//	@Success		201		{object}	ClientDetail
//	@Success		204		"Blank name ignored"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{id}/documents/records [post]
func (h *Handler) AddDocumentRecord(w http.ResponseWriter, r *http.Request) {
	var req DocumentRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, ok, err := h.svc.AddDocument(r.Context(), chi.URLParam(r, "id"), req.Name, req.Type)
	if err != nil {
		writeError(w, "add document record", err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("ETag", etag(d))
	writeJSON(w, http.StatusCreated, d)
}

// SetActionItemCompleted handles PUT /api/clients/{id}/action-items/{itemID}/completed.
//
//	@Summary		Set an action item's completed flag
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Client id"
//	@Param			itemID	path		string				true	"Action item id"
//	@Param			body	body		CompletedRequest	true	"Completed flag"
//	@Success		200		{object}	ClientDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{id}/action-items/{itemID}/completed [put]
func (h *Handler) SetActionItemCompleted(w http.ResponseWriter, r *http.Request) {
	var req CompletedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Completed == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("completed is required"))
		return
	}
	d, err := h.svc.SetActionItemCompleted(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), *req.Completed)
	if err != nil {
		writeError(w, "set action item completed", err)
		return
	}
	w.Header().Set("ETag", etag(d))
	writeJSON(w, http.StatusOK, d)
}
