package api

import (
	"github.com/starford/dealroom/internal/clientservice"
	"github.com/starford/dealroom/internal/index"
	"github.com/starford/dealroom/internal/models"
	"github.com/starford/dealroom/internal/presenter"
)

// ClientDetail is the full client response type (aliased from the domain layer).
type ClientDetail = clientservice.ClientDetail

// SessionView is the session response type (aliased from the presenter).
type SessionView = presenter.View

// ClientListResponse wraps a bucket listing.
type ClientListResponse struct {
	Bucket  models.Bucket   `json:"bucket" example:"current" validate:"required"`
	Query   string          `json:"query,omitempty" example:"netflix"`
	Clients []models.Client `json:"clients" validate:"required"`
}

// TeamResponse wraps the roster and its assigned/unassigned partition.
type TeamResponse struct {
	Members    []models.TeamMember `json:"members" validate:"required"`
	Assigned   []models.TeamMember `json:"assigned" validate:"required"`
	Unassigned []models.TeamMember `json:"unassigned" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// TextRequest is the body of comment, idea and action item appends.
type TextRequest struct {
	Text string `json:"text" example:"Looks good"`
}

// DocumentRecordRequest lists a document by name without storing a file.
type DocumentRecordRequest struct {
	Name string `json:"name" example:"Brand Guidelines.pdf" validate:"required"`
	Type string `json:"type,omitempty" example:"pdf"`
}

// CompletedRequest sets an action item's completed flag.
type CompletedRequest struct {
	Completed *bool `json:"completed" example:"true" validate:"required"`
}

// ExpandRequest selects the expanded client; an empty id closes the overlay.
type ExpandRequest struct {
	ID string `json:"id" example:"2"`
}

// TabRequest selects the active bucket.
type TabRequest struct {
	Tab string `json:"tab" example:"archived" validate:"required"`
}

// SearchRequest sets the card grid search text.
type SearchRequest struct {
	Query string `json:"query" example:"giphy"`
}

// FilterRequest sets one filter value.
type FilterRequest struct {
	Key   string `json:"key" example:"industry" validate:"required"`
	Value string `json:"value" example:"media"`
}

// DraftRequest carries a field draft value.
type DraftRequest struct {
	Value *string `json:"value,omitempty" example:"New scope"`
}

// TeamMemberRequest names a team member to add.
type TeamMemberRequest struct {
	Name string `json:"name" example:"Jordan Lee" validate:"required"`
}

// DocumentUploadResponse is returned after a successful document upload.
type DocumentUploadResponse struct {
	Document models.Document `json:"document" validate:"required"`
	URL      string          `json:"url" example:"/api/clients/2/documents/8f1c" validate:"required"`
}
