package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadDocument handles POST /api/clients/{id}/documents (multipart/form-data, field "file").
//
//	@Summary		Upload a document for a client
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Client id"
//	@Param			file	formData	file	true	"Document"
//	@Success		201		{object}	DocumentUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{id}/documents [post]
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	clientID := chi.URLParam(r, "id")
	doc, err := h.svc.UploadDocument(r.Context(), clientID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, "upload document", err)
		return
	}

	writeJSON(w, http.StatusCreated, DocumentUploadResponse{
		Document: *doc,
		URL:      fmt.Sprintf("/api/clients/%s/documents/%s", clientID, doc.ID),
	})
}

// DownloadDocument handles GET /api/clients/{id}/documents/{docID}.
//
//	@Summary		Download a stored document
//	@Tags			documents
//	@Produce		octet-stream
//	@Param			id		path	string	true	"Client id"
//	@Param			docID	path	string	true	"Document id"
//	@Success		200		"Document content"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clients/{id}/documents/{docID} [get]
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, info, rc, err := h.svc.OpenDocument(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, "download document", err)
		return
	}
	defer rc.Close()

	ct := info.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("document stream interrupted", slog.String("doc_id", doc.ID), slog.String("error", err.Error()))
	}
}
