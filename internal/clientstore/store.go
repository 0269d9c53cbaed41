// Package clientstore owns the three client buckets and the team roster.
//
// The store is the only writer of client records. All mutation goes through
// UpdateClient, a key-wise merge of a partial update into the record with the
// given id. Reads return deep copies so callers can never alias store state.
package clientstore

import (
	"strings"
	"sync"

	"github.com/starford/dealroom/internal/models"
)

// ChangeKind describes what happened to the store.
type ChangeKind string

// Change kinds.
const (
	ChangeUpdated ChangeKind = "updated"
	ChangeReset   ChangeKind = "reset"
)

// Change is delivered to listeners after every applied mutation.
type Change struct {
	Kind     ChangeKind
	ClientID string
	Bucket   models.Bucket
	Client   models.Client
}

// Listener observes store changes. Listeners run synchronously after the
// store lock is released and must not block.
type Listener func(Change)

// Seed is the initial content of the store.
type Seed struct {
	Current     []models.Client
	Archived    []models.Client
	Prospective []models.Client
	Team        []models.TeamMember
}

// Store holds the client buckets. Safe for concurrent use; each mutation is
// atomic with respect to every other mutation.
type Store struct {
	mu        sync.RWMutex
	buckets   map[models.Bucket][]models.Client
	team      []models.TeamMember
	listeners []Listener
}

// New returns a store initialised from seed.
func New(seed Seed) *Store {
	s := &Store{}
	s.load(seed)
	return s
}

func (s *Store) load(seed Seed) {
	s.buckets = map[models.Bucket][]models.Client{
		models.BucketCurrent:     cloneClients(seed.Current),
		models.BucketArchived:    cloneClients(seed.Archived),
		models.BucketProspective: cloneClients(seed.Prospective),
	}
	s.team = append([]models.TeamMember{}, seed.Team...)
}

// Subscribe registers fn to be called after every applied mutation.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// UpdateClient merges patch into the first record with the given id,
// scanning current, archived and prospective in that order. It reports
// whether a record was updated; an unknown id leaves every bucket untouched.
func (s *Store) UpdateClient(id string, patch models.ClientPatch) bool {
	_, ok := s.Mutate(id, func(models.Client) (models.ClientPatch, bool) {
		return patch, true
	})
	return ok
}

// Mutate runs fn against the current record with the given id and merges the
// patch it returns, all under the store lock, so that read-modify-write
// operations such as appends cannot lose concurrent updates. fn returning
// false leaves the record untouched. The updated record is returned.
func (s *Store) Mutate(id string, fn func(models.Client) (models.ClientPatch, bool)) (models.Client, bool) {
	s.mu.Lock()
	b, i, found := s.locate(id)
	if !found {
		s.mu.Unlock()
		return models.Client{}, false
	}
	list := s.buckets[b]
	patch, ok := fn(list[i].Clone())
	if !ok {
		s.mu.Unlock()
		return models.Client{}, false
	}
	updated := patch.Apply(list[i])
	next := make([]models.Client, len(list))
	copy(next, list)
	next[i] = updated
	s.buckets[b] = next
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, Change{Kind: ChangeUpdated, ClientID: id, Bucket: b, Client: updated.Clone()})
	return updated.Clone(), true
}

// locate finds the first record with id. Callers hold s.mu.
func (s *Store) locate(id string) (models.Bucket, int, bool) {
	for _, b := range models.AllBuckets {
		for i := range s.buckets[b] {
			if s.buckets[b][i].ID == id {
				return b, i, true
			}
		}
	}
	return "", 0, false
}

// Get returns a copy of the client with the given id and its bucket.
func (s *Store) Get(id string) (models.Client, models.Bucket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, i, ok := s.locate(id)
	if !ok {
		return models.Client{}, "", false
	}
	return s.buckets[b][i].Clone(), b, true
}

// List returns copies of the clients in bucket b, in order.
func (s *Store) List(b models.Bucket) []models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneClients(s.buckets[b])
}

// Filter returns the clients of bucket b whose name or client lead contains
// query, case-insensitively. An empty query matches every client.
func (s *Store) Filter(b models.Bucket, query string) []models.Client {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Client{}
	for _, c := range s.buckets[b] {
		if q == "" ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.ClientLead), q) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Counts returns the number of clients in each bucket.
func (s *Store) Counts() map[models.Bucket]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.Bucket]int, len(models.AllBuckets))
	for _, b := range models.AllBuckets {
		out[b] = len(s.buckets[b])
	}
	return out
}

// All returns copies of every client, bucket by bucket.
func (s *Store) All() []models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Client
	for _, b := range models.AllBuckets {
		out = append(out, cloneClients(s.buckets[b])...)
	}
	return out
}

// TeamMembers returns the team roster.
func (s *Store) TeamMembers() []models.TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TeamMember{}, s.team...)
}

// Reset discards all state and reloads from seed.
func (s *Store) Reset(seed Seed) {
	s.mu.Lock()
	s.load(seed)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, Change{Kind: ChangeReset})
}

func notify(listeners []Listener, c Change) {
	for _, fn := range listeners {
		fn(c)
	}
}

func cloneClients(in []models.Client) []models.Client {
	out := make([]models.Client, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
