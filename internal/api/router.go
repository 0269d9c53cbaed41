package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dealroom/internal/clientservice"
	"github.com/starford/dealroom/internal/presenter"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *clientservice.Service, sessions *presenter.Registry, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, sessions)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Client records.
	r.Get("/clients", h.ListClients)
	r.Route("/clients/{id}", func(r chi.Router) {
		r.Get("/", h.GetClient)
		r.Patch("/", h.UpdateClient)
		r.Post("/comments", h.AddComment())
		r.Post("/ideas", h.AddIdea())
		r.Post("/action-items", h.AddActionItem())
		r.Put("/action-items/{itemID}/completed", h.SetActionItemCompleted)
		r.Post("/documents", h.UploadDocument)
		r.Post("/documents/records", h.AddDocumentRecord)
		r.Get("/documents/{docID}", h.DownloadDocument)
	})
	r.Get("/counts", h.Counts)
	r.Get("/team", h.Team)

	// Search.
	r.Get("/search", h.Search)

	// Dashboard sessions.
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Use(h.withSession)
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/expand", h.Expand)
		r.Post("/close", h.Close)
		r.Post("/edit-mode", h.ToggleEditMode)
		r.Put("/tab", h.SetTab)
		r.Put("/search", h.SetSearch)
		r.Put("/filters", h.SetFilter)
		r.Delete("/filters", h.ClearFilters)
		r.Post("/fields/{field}/start", h.StartEditing)
		r.Put("/fields/{field}/draft", h.UpdateDraft)
		r.Post("/fields/{field}/save", h.SaveEdit)
		r.Post("/fields/{field}/cancel", h.CancelEdit)
		r.Post("/action-items/{itemID}/toggle", h.ToggleActionItem)
		r.Put("/action-items/{itemID}/completed", h.SessionSetActionItemCompleted)
		r.Post("/contacts/{contactID}/toggle", h.ToggleContact)
		r.Post("/comments", h.SessionAddComment())
		r.Post("/ideas", h.SessionAddIdea())
		r.Post("/action-items", h.SessionAddActionItem())
		r.Post("/documents/placeholder", h.UploadPlaceholder)
		r.Post("/team", h.AddTeamMember)
		r.Delete("/team/{memberID}", h.RemoveTeamMember)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
