package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ClientRow represents a row in the clients table.
type ClientRow struct {
	ID         string
	Bucket     string
	Name       string
	ClientLead string
	Checksum   string
	UpdatedAt  time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Bucket  string `json:"bucket"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// UpsertClient inserts or replaces a client and its FTS entry within a transaction.
func (db *DB) UpsertClient(c ClientRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO clients (id, bucket, name, client_lead, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			bucket      = excluded.bucket,
			name        = excluded.name,
			client_lead = excluded.client_lead,
			checksum    = excluded.checksum,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, c.ID, c.Bucket, c.Name, c.ClientLead, c.Checksum, body, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert client: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, c, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteClient removes a client and its FTS entry.
func (db *DB) DeleteClient(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM clients WHERE id = ?`, id)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a client, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM clients WHERE id = ?`, id).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns id -> checksum for every indexed client.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM clients`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}
