// Package presenter holds per-viewer dashboard state: which client card is
// expanded, the active tab and search, and the in-place edit and disclosure
// state of the overlay.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/dealroom/internal/apperr"
	"github.com/starford/dealroom/internal/clientservice"
	"github.com/starford/dealroom/internal/disclosure"
	"github.com/starford/dealroom/internal/fieldedit"
	"github.com/starford/dealroom/internal/models"
)

// Filter keys accepted by SetFilter.
const (
	FilterIndustry    = "industry"
	FilterBudgetRange = "budgetRange"
	FilterDateRange   = "dateRange"
	FilterTeamMember  = "teamMember"
)

var filterKeys = map[string]struct{}{
	FilterIndustry:    {},
	FilterBudgetRange: {},
	FilterDateRange:   {},
	FilterTeamMember:  {},
}

// Clients is the client service as seen by a session.
type Clients interface {
	Get(ctx context.Context, id string) (*clientservice.ClientDetail, error)
	Filter(ctx context.Context, b models.Bucket, query string) []models.Client
	Counts(ctx context.Context) map[models.Bucket]int
	TeamMembers(ctx context.Context) []models.TeamMember
	UpdateClient(ctx context.Context, id string, patch models.ClientPatch, ifMatch string) (*clientservice.ClientDetail, error)
	AddComment(ctx context.Context, id, text string) (*clientservice.ClientDetail, bool, error)
	AddIdea(ctx context.Context, id, text string) (*clientservice.ClientDetail, bool, error)
	AddActionItem(ctx context.Context, id, task string) (*clientservice.ClientDetail, bool, error)
	AddPlaceholderDocument(ctx context.Context, id string) (*clientservice.ClientDetail, error)
	SetActionItemCompleted(ctx context.Context, id, itemID string, completed bool) (*clientservice.ClientDetail, error)
	SetActionItemDescription(ctx context.Context, id, itemID, description string) (*clientservice.ClientDetail, error)
}

// Session is the dashboard state of one viewer. Only one client can be
// expanded at a time; an empty expanded id means every card is collapsed.
type Session struct {
	id            string
	clients       Clients
	logger        *slog.Logger
	resetOnSwitch bool

	mu             sync.Mutex
	expandedID     string
	lastExpandedID string
	globalEditMode bool
	activeTab      models.Bucket
	searchQuery    string
	filters        map[string]string
	fields         *fieldedit.Controller
	actionItems    *disclosure.Set
	contacts       *disclosure.Set
	pending        map[string]string
}

func newSession(id string, clients Clients, logger *slog.Logger, resetOnSwitch bool) *Session {
	s := &Session{
		id:            id,
		clients:       clients,
		logger:        logger,
		resetOnSwitch: resetOnSwitch,
		activeTab:     models.BucketCurrent,
		filters:       make(map[string]string),
		actionItems:   disclosure.New(),
		contacts:      disclosure.New(),
	}
	s.fields = fieldedit.New(func(update map[string]string) {
		s.pending = update
	})
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Expand shows the overlay for the client with the given id. The empty id
// closes the overlay.
func (s *Session) Expand(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.expandedID = ""
		return
	}
	if s.resetOnSwitch && s.lastExpandedID != "" && id != s.lastExpandedID {
		s.fields.Reset()
		s.actionItems.Reset()
		s.contacts.Reset()
	}
	s.expandedID = id
	s.lastExpandedID = id
}

// Close collapses the overlay. Edit and disclosure state are kept.
func (s *Session) Close() { s.Expand("") }

// ExpandedID returns the id of the expanded client, or "".
func (s *Session) ExpandedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expandedID
}

// ToggleGlobalEditMode flips whether edit affordances are shown and returns
// the new value. In-progress edits are unaffected.
func (s *Session) ToggleGlobalEditMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalEditMode = !s.globalEditMode
	return s.globalEditMode
}

// SetTab selects the bucket shown in the card grid.
func (s *Session) SetTab(b models.Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTab = b
}

// SetSearch sets the card grid search text.
func (s *Session) SetSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = query
}

// SetFilter records a filter value. An empty value clears the filter.
// Filters are counted in the view but do not narrow the card grid.
func (s *Session) SetFilter(key, value string) error {
	if _, ok := filterKeys[key]; !ok {
		return fmt.Errorf("presenter: filter %q: %w", key, apperr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.filters, key)
		return nil
	}
	s.filters[key] = value
	return nil
}

// ClearFilters removes every filter.
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.filters)
}

// StartEditing puts field in edit mode seeded with its current committed
// value. It does nothing while collapsed.
func (s *Session) StartEditing(ctx context.Context, field string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expandedID == "" {
		return false
	}
	var current string
	if d, err := s.clients.Get(ctx, s.expandedID); err == nil {
		current = currentValue(d.Client, field)
	}
	s.fields.StartEditing(field, current)
	return true
}

// StartEditingFrom puts field in edit mode seeded with value.
func (s *Session) StartEditingFrom(field, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expandedID == "" {
		return false
	}
	s.fields.StartEditing(field, value)
	return true
}

// UpdateDraft overwrites the draft of a field in edit mode.
func (s *Session) UpdateDraft(field, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expandedID == "" {
		return false
	}
	return s.fields.UpdateDraft(field, value)
}

// SaveEdit commits the draft of field to the expanded client and leaves
// edit mode. Action item description fields update that item; text fields
// are merged into the record.
func (s *Session) SaveEdit(ctx context.Context, field string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expandedID == "" {
		return false, nil
	}
	s.pending = nil
	if !s.fields.SaveEdit(field) {
		return false, nil
	}
	update := s.pending
	s.pending = nil
	return true, s.commit(ctx, update)
}

func (s *Session) commit(ctx context.Context, update map[string]string) error {
	text := make(map[string]string, len(update))
	for field, value := range update {
		if itemID, ok := fieldedit.ParseActionItemField(field); ok {
			if _, err := s.clients.SetActionItemDescription(ctx, s.expandedID, itemID, value); err != nil {
				return s.quiet(err)
			}
			continue
		}
		text[field] = value
	}
	patch := models.ClientPatchFromFields(text)
	if patch.IsEmpty() {
		return nil
	}
	_, err := s.clients.UpdateClient(ctx, s.expandedID, patch, "")
	return s.quiet(err)
}

// CancelEdit leaves edit mode for field and discards its draft.
func (s *Session) CancelEdit(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields.CancelEdit(field)
}

// ToggleActionItem flips the disclosure of an action item.
func (s *Session) ToggleActionItem(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actionItems.Toggle(itemID)
}

// ToggleContact flips the disclosure of a key contact, keyed by contact id.
func (s *Session) ToggleContact(contactID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contacts.Toggle(contactID)
}

// AddComment appends a comment to the expanded client.
func (s *Session) AddComment(ctx context.Context, text string) (bool, error) {
	return s.appendTo(ctx, func(id string) (*clientservice.ClientDetail, bool, error) {
		return s.clients.AddComment(ctx, id, text)
	})
}

// AddIdea appends a big idea to the expanded client.
func (s *Session) AddIdea(ctx context.Context, text string) (bool, error) {
	return s.appendTo(ctx, func(id string) (*clientservice.ClientDetail, bool, error) {
		return s.clients.AddIdea(ctx, id, text)
	})
}

// AddActionItem appends an action item to the expanded client.
func (s *Session) AddActionItem(ctx context.Context, task string) (bool, error) {
	return s.appendTo(ctx, func(id string) (*clientservice.ClientDetail, bool, error) {
		return s.clients.AddActionItem(ctx, id, task)
	})
}

// UploadPlaceholderDocument appends the placeholder document record.
func (s *Session) UploadPlaceholderDocument(ctx context.Context) (bool, error) {
	return s.appendTo(ctx, func(id string) (*clientservice.ClientDetail, bool, error) {
		d, err := s.clients.AddPlaceholderDocument(ctx, id)
		return d, err == nil, err
	})
}

// SetActionItemCompleted commits the completed checkbox of an action item.
func (s *Session) SetActionItemCompleted(ctx context.Context, itemID string, completed bool) (bool, error) {
	return s.appendTo(ctx, func(id string) (*clientservice.ClientDetail, bool, error) {
		d, err := s.clients.SetActionItemCompleted(ctx, id, itemID, completed)
		return d, err == nil, err
	})
}

func (s *Session) appendTo(_ context.Context, fn func(id string) (*clientservice.ClientDetail, bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expandedID == "" {
		return false, nil
	}
	_, ok, err := fn(s.expandedID)
	if err != nil {
		return false, s.quiet(err)
	}
	return ok, nil
}

// AddTeamMember is a stub: the request is logged and nothing changes.
func (s *Session) AddTeamMember(name string) {
	s.logger.Info("add team member requested",
		slog.String("session", s.id),
		slog.String("client", s.ExpandedID()),
		slog.String("name", name))
}

// RemoveTeamMember is a stub: the request is logged and nothing changes.
func (s *Session) RemoveTeamMember(memberID string) {
	s.logger.Info("remove team member requested",
		slog.String("session", s.id),
		slog.String("client", s.ExpandedID()),
		slog.String("member_id", memberID))
}

// quiet turns a missing client or item into a silent no-op.
func (s *Session) quiet(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		s.logger.Debug("presenter: target missing", slog.String("session", s.id), slog.String("error", err.Error()))
		return nil
	}
	return err
}

func currentValue(c models.Client, field string) string {
	if itemID, ok := fieldedit.ParseActionItemField(field); ok {
		for _, it := range c.ActionItems {
			if it.ID == itemID {
				return it.Description
			}
		}
		return ""
	}
	v, _ := models.FieldValue(c, field)
	return v
}
