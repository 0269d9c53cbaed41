package index

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/dealroom/internal/checksum"
	"github.com/starford/dealroom/internal/clientstore"
	"github.com/starford/dealroom/internal/models"
)

// Source is the store the index mirrors.
type Source interface {
	List(b models.Bucket) []models.Client
	Get(id string) (models.Client, models.Bucket, bool)
}

// Sync brings the index up to date with src:
//   - new/changed clients are upserted
//   - clients no longer present are deleted from the index
func Sync(db ClientIndex, src Source, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	live := make(map[string]struct{})
	for _, b := range models.AllBuckets {
		for _, c := range src.List(b) {
			live[c.ID] = struct{}{}
			row, body, err := Document(c, b)
			if err != nil {
				logger.Warn("sync: checksum failed", slog.String("id", c.ID), slog.String("error", err.Error()))
				continue
			}
			if checksums[c.ID] == row.Checksum {
				continue
			}
			if err := db.UpsertClient(row, body); err != nil {
				logger.Warn("sync: index failed", slog.String("id", c.ID), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: indexed", slog.String("id", c.ID))
			}
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := live[id]; !ok {
			if err := db.DeleteClient(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}
	return nil
}

// Follow returns a store listener that keeps db current: updated clients are
// re-indexed and a reset triggers a full Sync. Changes are handled one at a
// time and always index the record as src holds it now, so a listener that
// runs late cannot overwrite a newer entry with its older snapshot.
func Follow(db ClientIndex, src Source, logger *slog.Logger) clientstore.Listener {
	var mu sync.Mutex
	return func(ch clientstore.Change) {
		mu.Lock()
		defer mu.Unlock()
		switch ch.Kind {
		case clientstore.ChangeReset:
			if err := Sync(db, src, logger); err != nil {
				logger.Warn("index: resync failed", slog.String("error", err.Error()))
			}
		case clientstore.ChangeUpdated:
			if err := reindex(db, src, ch.ClientID); err != nil {
				logger.Warn("index: update failed", slog.String("id", ch.ClientID), slog.String("error", err.Error()))
			}
		}
	}
}

// reindex upserts the current state of client id unless the index already
// holds it. A client gone from src is left to the next reset's Sync.
func reindex(db ClientIndex, src Source, id string) error {
	c, b, ok := src.Get(id)
	if !ok {
		return nil
	}
	row, body, err := Document(c, b)
	if err != nil {
		return err
	}
	stored, err := db.GetChecksum(id)
	if err != nil {
		return err
	}
	if stored == row.Checksum {
		return nil
	}
	return db.UpsertClient(row, body)
}

// Document builds the index row and searchable body text for c.
func Document(c models.Client, b models.Bucket) (ClientRow, string, error) {
	cs, err := checksum.SumJSON(c)
	if err != nil {
		return ClientRow{}, "", err
	}
	row := ClientRow{
		ID:         c.ID,
		Bucket:     string(b),
		Name:       c.Name,
		ClientLead: c.ClientLead,
		Checksum:   cs,
		UpdatedAt:  time.Now().UTC(),
	}
	return row, bodyText(c), nil
}

func bodyText(c models.Client) string {
	parts := []string{c.CompanyProfile, c.ProjectScope, c.Budget}
	parts = append(parts, c.Goals...)
	for _, k := range c.KeyContacts {
		parts = append(parts, k.Name, k.Title)
	}
	for _, a := range c.ActionItems {
		parts = append(parts, a.Task, a.Assignee, a.Description)
	}
	for _, cm := range c.Comments {
		parts = append(parts, cm.Content)
	}
	for _, i := range c.BigIdeas {
		parts = append(parts, i.Content)
	}
	for _, d := range c.Documents {
		parts = append(parts, d.Name)
	}

	var sb strings.Builder
	for _, p := range parts {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(p)
	}
	return sb.String()
}
