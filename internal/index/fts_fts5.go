//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS clients_fts USING fts5(
			id UNINDEXED,
			name,
			client_lead,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, c ClientRow, body string) error {
	_, _ = tx.Exec(`DELETE FROM clients_fts WHERE id = ?`, c.ID)
	_, err := tx.Exec(`INSERT INTO clients_fts (id, name, client_lead, body) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.ClientLead, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM clients_fts WHERE id = ?`, id)
}

// Search performs an FTS5 full-text search and returns matching clients with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.id,
		       c.bucket,
		       f.name,
		       snippet(clients_fts, 3, '<b>', '</b>', '...', 64)
		FROM clients_fts f
		JOIN clients c ON c.id = f.id
		WHERE clients_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Bucket, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
