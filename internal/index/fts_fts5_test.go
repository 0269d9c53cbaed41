//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM clients_fts`).Scan(&count); err != nil {
		t.Fatalf("clients_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := ClientRow{
		ID:        "2",
		Bucket:    "current",
		Name:      "Netflix",
		Checksum:  "f1",
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertClient(row, "Global streaming platform with original programming."); err != nil {
		t.Fatalf("UpsertClient: %v", err)
	}

	results, err := db.Search("streaming", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != "2" || results[0].Bucket != "current" {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertClient(ClientRow{ID: "gone", Checksum: "g", UpdatedAt: time.Now()}, "vanishing content")
	_ = db.DeleteClient("gone")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.ID == "gone" {
			t.Error("deleted client still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertClient(ClientRow{ID: "evo", Name: "Old", Checksum: "1", UpdatedAt: now}, "original text")
	_ = db.UpsertClient(ClientRow{ID: "evo", Name: "New", Checksum: "2", UpdatedAt: now}, "replacement text")

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Name != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
