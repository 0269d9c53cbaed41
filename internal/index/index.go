package index

// ClientIndex defines the interface for client search indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ClientIndex interface {
	UpsertClient(c ClientRow, body string) error
	DeleteClient(id string) error
	GetChecksum(id string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies ClientIndex at compile time.
var _ ClientIndex = (*DB)(nil)
