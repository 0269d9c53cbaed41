// Package clientservice coordinates the client store with search indexing,
// document storage, event publication and metrics.
package clientservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/dealroom/internal/apperr"
	"github.com/starford/dealroom/internal/checksum"
	"github.com/starford/dealroom/internal/clientstore"
	"github.com/starford/dealroom/internal/collection"
	"github.com/starford/dealroom/internal/index"
	"github.com/starford/dealroom/internal/metrics"
	"github.com/starford/dealroom/internal/models"
	"github.com/starford/dealroom/internal/sse"
	"github.com/starford/dealroom/internal/storage"
)

// Metric operation labels.
const (
	OpPatch                 = "patch"
	OpComment               = "comment"
	OpIdea                  = "idea"
	OpActionItem            = "action_item"
	OpDocument              = "document"
	OpActionItemCompleted   = "action_item_completed"
	OpActionItemDescription = "action_item_description"
)

// ClientDetail is a client record together with its bucket and checksum.
type ClientDetail struct {
	models.Client
	Bucket   models.Bucket `json:"bucket"`
	Checksum string        `json:"checksum"`
}

// Publisher broadcasts client changes.
type Publisher interface {
	PublishClientChange(sse.ClientChange)
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records operation counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithPublisher broadcasts every store change through p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// Service coordinates store, index and document operations.
type Service struct {
	store     *clientstore.Store
	builder   *collection.Builder
	db        index.ClientIndex
	docs      storage.Provider
	metrics   *metrics.Metrics
	publisher Publisher
	logger    *slog.Logger
}

// New creates a client service. db and docs may be nil, which disables
// search and document uploads respectively.
func New(store *clientstore.Store, builder *collection.Builder, db index.ClientIndex, docs storage.Provider, opts ...Option) *Service {
	s := &Service{store: store, builder: builder, db: db, docs: docs, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher != nil {
		store.Subscribe(s.publish)
	}
	return s
}

func (s *Service) publish(ch clientstore.Change) {
	counts := make(map[string]int)
	for b, n := range s.store.Counts() {
		counts[string(b)] = n
	}
	s.publisher.PublishClientChange(sse.ClientChange{
		Reset:    ch.Kind == clientstore.ChangeReset,
		ClientID: ch.ClientID,
		Bucket:   string(ch.Bucket),
		Counts:   counts,
	})
}

// Get returns the client with the given id.
func (s *Service) Get(_ context.Context, id string) (*ClientDetail, error) {
	c, b, ok := s.store.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return detail(c, b)
}

// List returns the clients of bucket b.
func (s *Service) List(_ context.Context, b models.Bucket) []models.Client {
	return s.store.List(b)
}

// Filter returns the clients of bucket b matching query on name or client lead.
func (s *Service) Filter(_ context.Context, b models.Bucket, query string) []models.Client {
	return s.store.Filter(b, query)
}

// Counts returns the number of clients per bucket.
func (s *Service) Counts(_ context.Context) map[models.Bucket]int {
	return s.store.Counts()
}

// TeamMembers returns the agency roster.
func (s *Service) TeamMembers(_ context.Context) []models.TeamMember {
	return s.store.TeamMembers()
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return []index.SearchResult{}, nil
	}
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []index.SearchResult{}
	}
	return res, nil
}

// Reset reinitialises every bucket and the roster from seed.
func (s *Service) Reset(_ context.Context, seed clientstore.Seed) {
	s.store.Reset(seed)
	s.logger.Info("clients reset",
		slog.Int("current", len(seed.Current)),
		slog.Int("archived", len(seed.Archived)),
		slog.Int("prospective", len(seed.Prospective)))
}

// UpdateClient merges patch into the client with the given id. A non-empty
// ifMatch must equal the client's current checksum, and the merged record
// must still validate.
func (s *Service) UpdateClient(_ context.Context, id string, patch models.ClientPatch, ifMatch string) (*ClientDetail, error) {
	var conflict bool
	var invalid error
	updated, ok := s.store.Mutate(id, func(c models.Client) (models.ClientPatch, bool) {
		if ifMatch != "" {
			cs, err := checksum.SumJSON(c)
			if err != nil || cs != ifMatch {
				conflict = true
				return models.ClientPatch{}, false
			}
		}
		if err := patch.Apply(c).Validate(); err != nil {
			invalid = err
			return models.ClientPatch{}, false
		}
		return patch, true
	})
	switch {
	case conflict:
		s.metrics.Conflict()
		return nil, apperr.ErrConflict
	case invalid != nil:
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, invalid)
	case !ok:
		return nil, apperr.ErrNotFound
	}
	s.metrics.ClientUpdated(OpPatch)
	_, b, _ := s.store.Get(updated.ID)
	return detail(updated, b)
}

// AddComment appends a comment. Blank text is dropped and reported as not applied.
func (s *Service) AddComment(_ context.Context, id, text string) (*ClientDetail, bool, error) {
	return s.apply(OpComment, id, func(c models.Client) (models.ClientPatch, bool) {
		return s.builder.AddComment(c, text)
	})
}

// AddIdea appends a big idea. Blank text is dropped and reported as not applied.
func (s *Service) AddIdea(_ context.Context, id, text string) (*ClientDetail, bool, error) {
	return s.apply(OpIdea, id, func(c models.Client) (models.ClientPatch, bool) {
		return s.builder.AddIdea(c, text)
	})
}

// AddActionItem appends an action item. Blank text is dropped and reported as not applied.
func (s *Service) AddActionItem(_ context.Context, id, task string) (*ClientDetail, bool, error) {
	return s.apply(OpActionItem, id, func(c models.Client) (models.ClientPatch, bool) {
		return s.builder.AddActionItem(c, task)
	})
}

// AddDocument appends document metadata without a stored file. An empty
// docType is taken from the name's extension. A blank name is dropped and
// reported as not applied.
func (s *Service) AddDocument(_ context.Context, id, name, docType string) (*ClientDetail, bool, error) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(docType) == "" {
		docType = documentType(name)
	}
	return s.apply(OpDocument, id, func(c models.Client) (models.ClientPatch, bool) {
		return s.builder.AddDocument(c, name, docType)
	})
}

// AddPlaceholderDocument appends the fixed placeholder document record.
func (s *Service) AddPlaceholderDocument(_ context.Context, id string) (*ClientDetail, error) {
	d, _, err := s.apply(OpDocument, id, func(c models.Client) (models.ClientPatch, bool) {
		return s.builder.PlaceholderDocument(c), true
	})
	return d, err
}

// SetActionItemCompleted sets the completed flag of one action item.
func (s *Service) SetActionItemCompleted(_ context.Context, id, itemID string, completed bool) (*ClientDetail, error) {
	d, ok, err := s.apply(OpActionItemCompleted, id, func(c models.Client) (models.ClientPatch, bool) {
		return collection.SetActionItemCompleted(c, itemID, completed)
	})
	if err == nil && !ok {
		return nil, fmt.Errorf("clientservice: action item %s: %w", itemID, apperr.ErrNotFound)
	}
	return d, err
}

// SetActionItemDescription replaces the description of one action item.
func (s *Service) SetActionItemDescription(_ context.Context, id, itemID, description string) (*ClientDetail, error) {
	d, ok, err := s.apply(OpActionItemDescription, id, func(c models.Client) (models.ClientPatch, bool) {
		return collection.SetActionItemDescription(c, itemID, description)
	})
	if err == nil && !ok {
		return nil, fmt.Errorf("clientservice: action item %s: %w", itemID, apperr.ErrNotFound)
	}
	return d, err
}

// apply runs fn atomically against the client. It returns ErrNotFound for an
// unknown client and (nil, false, nil) when fn declines the change.
func (s *Service) apply(op, id string, fn func(models.Client) (models.ClientPatch, bool)) (*ClientDetail, bool, error) {
	var found bool
	updated, ok := s.store.Mutate(id, func(c models.Client) (models.ClientPatch, bool) {
		found = true
		return fn(c)
	})
	if !found {
		return nil, false, apperr.ErrNotFound
	}
	if !ok {
		s.metrics.InputIgnored(op)
		return nil, false, nil
	}
	s.metrics.ClientUpdated(op)
	_, b, _ := s.store.Get(updated.ID)
	d, err := detail(updated, b)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// UploadDocument stores r as a document of the client and appends its
// metadata. The blob lives under <clientID>/<docID>/<name>.
func (s *Service) UploadDocument(ctx context.Context, clientID, filename, contentType string, r io.Reader) (*models.Document, error) {
	if s.docs == nil {
		return nil, fmt.Errorf("clientservice: document storage not configured")
	}
	name := cleanFilename(filename)
	if name == "" {
		return nil, fmt.Errorf("clientservice: document name: %w", apperr.ErrInvalidInput)
	}
	if _, _, ok := s.store.Get(clientID); !ok {
		return nil, apperr.ErrNotFound
	}

	doc := s.builder.NewDocument(name, documentType(name))
	key := path.Join(clientID, doc.ID, name)
	info, err := s.docs.Put(ctx, key, r, contentType)
	if err != nil {
		return nil, fmt.Errorf("clientservice: store document: %w", err)
	}

	if _, ok := s.store.Mutate(clientID, func(c models.Client) (models.ClientPatch, bool) {
		return collection.AppendDocument(c, doc), true
	}); !ok {
		// The client vanished (seed reload) while the upload was in flight.
		if err := s.docs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("orphaned document", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, apperr.ErrNotFound
	}
	s.metrics.ClientUpdated(OpDocument)
	s.metrics.DocumentStored(info.Size)
	return &doc, nil
}

// OpenDocument returns the metadata and content of a stored document. The
// caller closes the reader. Documents without a stored file (seeded or
// placeholder records) report ErrNotFound.
func (s *Service) OpenDocument(ctx context.Context, clientID, docID string) (models.Document, storage.Info, io.ReadCloser, error) {
	c, _, ok := s.store.Get(clientID)
	if !ok {
		return models.Document{}, storage.Info{}, nil, apperr.ErrNotFound
	}
	var doc models.Document
	found := false
	for _, d := range c.Documents {
		if d.ID == docID {
			doc, found = d, true
			break
		}
	}
	if !found || s.docs == nil {
		return models.Document{}, storage.Info{}, nil, apperr.ErrNotFound
	}

	items, err := s.docs.List(ctx, path.Join(clientID, docID)+"/")
	if err != nil {
		return models.Document{}, storage.Info{}, nil, fmt.Errorf("clientservice: list documents: %w", err)
	}
	if len(items) == 0 {
		return models.Document{}, storage.Info{}, nil, apperr.ErrNotFound
	}
	info, rc, err := s.docs.Get(ctx, items[0].Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Document{}, storage.Info{}, nil, apperr.ErrNotFound
		}
		return models.Document{}, storage.Info{}, nil, fmt.Errorf("clientservice: open document: %w", err)
	}
	return doc, info, rc, nil
}

func detail(c models.Client, b models.Bucket) (*ClientDetail, error) {
	cs, err := checksum.SumJSON(c)
	if err != nil {
		return nil, fmt.Errorf("clientservice: checksum: %w", err)
	}
	return &ClientDetail{Client: c, Bucket: b, Checksum: cs}, nil
}

// cleanFilename reduces an uploaded filename to its base name.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

func documentType(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "file"
	}
	return ext
}
