package models

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks the invariants every stored record keeps: team size and
// idea votes are non-negative, and each owned collection carries non-empty
// ids that are unique within it.
func (c Client) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.TeamSize, validation.Min(0)),
		validation.Field(&c.BigIdeas),
	); err != nil {
		return err
	}
	checks := []struct {
		kind string
		ids  []string
	}{
		{"contact", idsOf(c.KeyContacts, func(v KeyContact) string { return v.ID })},
		{"action item", idsOf(c.ActionItems, func(v ActionItem) string { return v.ID })},
		{"comment", idsOf(c.Comments, func(v Comment) string { return v.ID })},
		{"idea", idsOf(c.BigIdeas, func(v Idea) string { return v.ID })},
		{"document", idsOf(c.Documents, func(v Document) string { return v.ID })},
	}
	for _, chk := range checks {
		if err := uniqueIDs(chk.kind, chk.ids); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects negative vote counts.
func (i Idea) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Votes, validation.Min(0)),
	)
}

func idsOf[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func uniqueIDs(kind string, list []string) error {
	seen := make(map[string]struct{}, len(list))
	for _, id := range list {
		if id == "" {
			return fmt.Errorf("%s without id", kind)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate %s id %q", kind, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
