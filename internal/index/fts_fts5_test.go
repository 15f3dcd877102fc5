//go:build sqlite_fts5

package index

import "testing"

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM zettels_fts`).Scan(&count); err != nil {
		t.Fatalf("zettels_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertZettel(ZettelRow{ID: "fts", Title: "FTS Zettel", Checksum: "f1"}, "zk provides powerful full-text search.", nil); err != nil {
		t.Fatalf("UpsertZettel: %v", err)
	}
	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "fts" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertZettel(ZettelRow{ID: "gone", Checksum: "g"}, "vanishing content", nil)
	_ = db.DeleteZettel("gone")

	results, _ := db.Search("vanishing", 10)
	if len(results) != 0 {
		t.Errorf("deleted zettel still in FTS index: %+v", results)
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertZettel(ZettelRow{ID: "evo", Title: "Old", Checksum: "1"}, "original text", nil)
	_ = db.UpsertZettel(ZettelRow{ID: "evo", Title: "New", Checksum: "2"}, "replacement text", nil)

	if results, _ := db.Search("original", 10); len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ := db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
