package presenter

import (
	"context"
	"strings"

	"github.com/starford/dealroom/internal/clientservice"
	"github.com/starford/dealroom/internal/collection"
	"github.com/starford/dealroom/internal/models"
)

// Mode is the presentation state of the client cards.
type Mode string

// Modes.
const (
	ModeCollapsed Mode = "collapsed"
	ModeExpanded  Mode = "expanded"
)

// View is a snapshot of what a session shows.
type View struct {
	SessionID         string                `json:"sessionId"`
	Mode              Mode                  `json:"mode"`
	ActiveTab         models.Bucket         `json:"activeTab"`
	SearchQuery       string                `json:"searchQuery"`
	Filters           map[string]string     `json:"filters"`
	ActiveFilterCount int                   `json:"activeFilterCount"`
	Counts            map[models.Bucket]int `json:"counts"`
	Cards             []Card                `json:"cards"`
	NoClientsFound    bool                  `json:"noClientsFound"`
	Overlay           *Overlay              `json:"overlay,omitempty"`
}

// Card is the compact summary tile of a client.
type Card struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Initial    string `json:"initial"`
	HasLogo    bool   `json:"hasLogo"`
	BrandColor string `json:"brandColor"`
	ClientLead string `json:"clientLead"`
	TeamSize   int    `json:"teamSize"`
	PitchDate  string `json:"pitchDate"`
}

// Overlay is the expanded, editable view of one client.
type Overlay struct {
	Client              clientservice.ClientDetail `json:"client"`
	BrandColor          string                     `json:"brandColor"`
	AssignedMembers     []models.TeamMember        `json:"assignedMembers"`
	UnassignedMembers   []models.TeamMember        `json:"unassignedMembers"`
	CanSubmitInterest   bool                       `json:"canSubmitInterest"`
	EditAffordances     bool                       `json:"editAffordances"`
	Editing             []string                   `json:"editing"`
	Drafts              map[string]string          `json:"drafts"`
	ExpandedActionItems []string                   `json:"expandedActionItems"`
	ExpandedContacts    []string                   `json:"expandedContacts"`
	DocumentKinds       map[string]string          `json:"documentKinds"`
}

// View renders the session. While a client is expanded the overlay is
// included; the card grid always shows the active bucket narrowed by the
// search text. An expanded id that no longer resolves renders as collapsed.
func (s *Session) View(ctx context.Context) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionID:         s.id,
		Mode:              ModeCollapsed,
		ActiveTab:         s.activeTab,
		SearchQuery:       s.searchQuery,
		Filters:           make(map[string]string, len(s.filters)),
		ActiveFilterCount: len(s.filters),
		Counts:            s.clients.Counts(ctx),
		Cards:             []Card{},
	}
	for k, val := range s.filters {
		v.Filters[k] = val
	}
	for _, c := range s.clients.Filter(ctx, s.activeTab, s.searchQuery) {
		v.Cards = append(v.Cards, card(c))
	}
	v.NoClientsFound = len(v.Cards) == 0

	if s.expandedID == "" {
		return v
	}
	d, err := s.clients.Get(ctx, s.expandedID)
	if err != nil {
		return v
	}
	v.Mode = ModeExpanded
	v.Overlay = s.overlay(ctx, *d)
	return v
}

func (s *Session) overlay(ctx context.Context, d clientservice.ClientDetail) *Overlay {
	assigned, unassigned := models.PartitionTeam(s.clients.TeamMembers(ctx))
	kinds := make(map[string]string, len(d.Documents))
	for _, doc := range d.Documents {
		kinds[doc.ID] = collection.DocumentKind(doc.Type)
	}
	return &Overlay{
		Client:              d,
		BrandColor:          d.EffectiveBrandColor(),
		AssignedMembers:     assigned,
		UnassignedMembers:   unassigned,
		CanSubmitInterest:   len(unassigned) > 0,
		EditAffordances:     s.globalEditMode,
		Editing:             s.fields.Editing(),
		Drafts:              s.fields.Drafts(),
		ExpandedActionItems: s.actionItems.Keys(),
		ExpandedContacts:    s.contacts.Keys(),
		DocumentKinds:       kinds,
	}
}

func card(c models.Client) Card {
	var initial string
	if r := []rune(strings.TrimSpace(c.Name)); len(r) > 0 {
		initial = string(r[0])
	}
	return Card{
		ID:         c.ID,
		Name:       c.Name,
		Initial:    initial,
		HasLogo:    c.Logo != "",
		BrandColor: c.EffectiveBrandColor(),
		ClientLead: c.ClientLead,
		TeamSize:   c.TeamSize,
		PitchDate:  c.PitchDate,
	}
}
