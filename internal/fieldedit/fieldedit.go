// Package fieldedit tracks in-place edits of individual fields: which fields
// are in edit mode and the uncommitted draft value of each.
package fieldedit

import (
	"slices"
	"strings"
)

// CommitFunc receives a partial update of the form {field: draft}.
type CommitFunc func(update map[string]string)

// Controller holds the editing set and the draft values. It is not safe for
// concurrent use; callers serialise access.
type Controller struct {
	editing map[string]struct{}
	drafts  map[string]string
	commit  CommitFunc
}

// New returns a Controller that commits through fn. fn may be nil, in which
// case saves leave edit mode without committing anything.
func New(fn CommitFunc) *Controller {
	return &Controller{
		editing: make(map[string]struct{}),
		drafts:  make(map[string]string),
		commit:  fn,
	}
}

// StartEditing puts field in edit mode with its draft seeded to current.
// Calling it again while editing re-seeds the draft.
func (c *Controller) StartEditing(field, current string) {
	c.editing[field] = struct{}{}
	c.drafts[field] = current
}

// UpdateDraft overwrites the draft of a field in edit mode. It reports false
// and does nothing if the field is not being edited.
func (c *Controller) UpdateDraft(field, value string) bool {
	if !c.IsEditing(field) {
		return false
	}
	c.drafts[field] = value
	return true
}

// SaveEdit commits the draft of field and leaves edit mode. A field that is
// not in edit mode is ignored so that a stale trigger cannot commit.
func (c *Controller) SaveEdit(field string) bool {
	if !c.IsEditing(field) {
		return false
	}
	if c.commit != nil {
		c.commit(map[string]string{field: c.drafts[field]})
	}
	delete(c.editing, field)
	return true
}

// CancelEdit leaves edit mode and discards the draft without committing.
func (c *Controller) CancelEdit(field string) {
	delete(c.editing, field)
	delete(c.drafts, field)
}

// IsEditing reports whether field is in edit mode.
func (c *Controller) IsEditing(field string) bool {
	_, ok := c.editing[field]
	return ok
}

// Draft returns the staged value of field.
func (c *Controller) Draft(field string) (string, bool) {
	v, ok := c.drafts[field]
	return v, ok
}

// Editing returns the fields in edit mode, sorted.
func (c *Controller) Editing() []string {
	out := make([]string, 0, len(c.editing))
	for f := range c.editing {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Drafts returns a copy of the drafts of fields currently in edit mode.
func (c *Controller) Drafts() map[string]string {
	out := make(map[string]string, len(c.editing))
	for f := range c.editing {
		out[f] = c.drafts[f]
	}
	return out
}

// Reset leaves edit mode for every field and drops all drafts.
func (c *Controller) Reset() {
	clear(c.editing)
	clear(c.drafts)
}

const actionItemPrefix = "actionItems."
const descriptionSuffix = ".description"

// ActionItemDescriptionField is the field key used to edit the description
// of the action item with the given id.
func ActionItemDescriptionField(itemID string) string {
	return actionItemPrefix + itemID + descriptionSuffix
}

// ParseActionItemField returns the action item id encoded in field.
func ParseActionItemField(field string) (string, bool) {
	if !strings.HasPrefix(field, actionItemPrefix) || !strings.HasSuffix(field, descriptionSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(field, actionItemPrefix), descriptionSuffix)
	if id == "" {
		return "", false
	}
	return id, true
}
