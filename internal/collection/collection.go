// Package collection implements the append protocol for the growable
// sub-lists of a client: comments, big ideas, action items and documents.
//
// Every operation is copy-on-write. The input client is never modified; the
// result is a patch whose only set field is the changed collection, ready to
// be merged into the record store.
package collection

import (
	"strings"
	"time"

	"github.com/starford/dealroom/internal/ids"
	"github.com/starford/dealroom/internal/models"
)

// Defaults stamped on entries created from the dashboard.
const (
	CurrentUser     = "Current User"
	JustNow         = "Just now"
	Unassigned      = "Unassigned"
	DateLayout      = "January 2, 2006"
	PlaceholderName = "Sample Document.pdf"
	PlaceholderType = "pdf"
)

// Builder creates new sub-list entries.
type Builder struct {
	ids ids.Generator
	now func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the clock used for due and upload dates.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder returns a Builder drawing ids from gen.
func NewBuilder(gen ids.Generator, opts ...Option) *Builder {
	b := &Builder{ids: gen, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) today() string {
	return b.now().Format(DateLayout)
}

// AddComment appends a comment by the current user. Blank text is ignored.
func (b *Builder) AddComment(c models.Client, text string) (models.ClientPatch, bool) {
	if isBlank(text) {
		return models.ClientPatch{}, false
	}
	comments := appendCopy(c.Comments, models.Comment{
		ID:        b.ids.NewID(),
		Author:    CurrentUser,
		Content:   text,
		Timestamp: JustNow,
	})
	return models.ClientPatch{Comments: &comments}, true
}

// AddIdea appends a big idea with zero votes. Blank text is ignored.
func (b *Builder) AddIdea(c models.Client, text string) (models.ClientPatch, bool) {
	if isBlank(text) {
		return models.ClientPatch{}, false
	}
	ideas := appendCopy(c.BigIdeas, models.Idea{
		ID:        b.ids.NewID(),
		Author:    CurrentUser,
		Content:   text,
		Timestamp: JustNow,
		Votes:     0,
	})
	return models.ClientPatch{BigIdeas: &ideas}, true
}

// AddActionItem appends an open, unassigned action item due today. Blank
// text is ignored.
func (b *Builder) AddActionItem(c models.Client, task string) (models.ClientPatch, bool) {
	if isBlank(task) {
		return models.ClientPatch{}, false
	}
	items := appendCopy(c.ActionItems, models.ActionItem{
		ID:        b.ids.NewID(),
		Task:      task,
		Assignee:  Unassigned,
		Completed: false,
		DueDate:   b.today(),
	})
	return models.ClientPatch{ActionItems: &items}, true
}

// AddDocument appends document metadata uploaded today. A blank name is ignored.
func (b *Builder) AddDocument(c models.Client, name, docType string) (models.ClientPatch, bool) {
	if isBlank(name) {
		return models.ClientPatch{}, false
	}
	return AppendDocument(c, b.NewDocument(name, docType)), true
}

// NewDocument returns document metadata with a fresh id dated today. The
// caller appends it with AppendDocument once the file is stored.
func (b *Builder) NewDocument(name, docType string) models.Document {
	return models.Document{
		ID:         b.ids.NewID(),
		Name:       name,
		Type:       docType,
		UploadDate: b.today(),
	}
}

// PlaceholderDocument appends the fixed placeholder record produced by the
// dashboard's upload button, which has no file behind it.
func (b *Builder) PlaceholderDocument(c models.Client) models.ClientPatch {
	return AppendDocument(c, b.NewDocument(PlaceholderName, PlaceholderType))
}

// AppendDocument appends doc to the client's documents.
func AppendDocument(c models.Client, doc models.Document) models.ClientPatch {
	docs := appendCopy(c.Documents, doc)
	return models.ClientPatch{Documents: &docs}
}

// SetActionItemCompleted sets the completed flag of one action item.
func SetActionItemCompleted(c models.Client, itemID string, completed bool) (models.ClientPatch, bool) {
	return updateActionItem(c, itemID, func(it *models.ActionItem) {
		it.Completed = completed
	})
}

// SetActionItemDescription replaces the description of one action item.
func SetActionItemDescription(c models.Client, itemID, description string) (models.ClientPatch, bool) {
	return updateActionItem(c, itemID, func(it *models.ActionItem) {
		it.Description = description
	})
}

func updateActionItem(c models.Client, itemID string, fn func(*models.ActionItem)) (models.ClientPatch, bool) {
	for i := range c.ActionItems {
		if c.ActionItems[i].ID != itemID {
			continue
		}
		items := make([]models.ActionItem, len(c.ActionItems))
		copy(items, c.ActionItems)
		fn(&items[i])
		return models.ClientPatch{ActionItems: &items}, true
	}
	return models.ClientPatch{}, false
}

// Document kinds used to pick an icon.
const (
	KindSpreadsheet  = "spreadsheet"
	KindPresentation = "presentation"
	KindDocument     = "document"
)

// DocumentKind classifies a document type string.
func DocumentKind(docType string) string {
	t := strings.ToLower(docType)
	switch {
	case strings.Contains(t, "excel"), strings.Contains(t, "csv"), strings.Contains(t, "xlsx"),
		strings.Contains(t, "spreadsheet"):
		return KindSpreadsheet
	case strings.Contains(t, "powerpoint"), strings.Contains(t, "ppt"), strings.Contains(t, "presentation"):
		return KindPresentation
	default:
		return KindDocument
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// appendCopy returns a new slice holding s followed by v. s is left untouched
// even when it has spare capacity.
func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}
