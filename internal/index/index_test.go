package index

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/kasten"
	"github.com/starford/zk/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "zk-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testKasten(t *testing.T) *kasten.Kasten {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return kasten.New(store)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM zettels`).Scan(&count); err != nil {
		t.Fatalf("zettels table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM refs`).Scan(&count); err != nil {
		t.Fatalf("refs table missing: %v", err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	row := ZettelRow{
		ID:        "hello",
		Title:     "Hello World",
		Checksum:  "abc123",
		Metadata:  map[string]string{"created": "2020-03-14"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertZettel(row, "This is a hello world zettel.", []string{"other"}); err != nil {
		t.Fatalf("UpsertZettel: %v", err)
	}
	cs, err := db.GetChecksum("hello")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
	got, err := db.GetZettel("hello")
	if err != nil {
		t.Fatalf("GetZettel: %v", err)
	}
	if got.Title != "Hello World" || got.Metadata["created"] != "2020-03-14" {
		t.Errorf("row = %+v", got)
	}
}

func TestGetZettel_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetZettel("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRefsAndBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertZettel(ZettelRow{ID: "a", Checksum: "1"}, "body", []string{"b"})
	_ = db.UpsertZettel(ZettelRow{ID: "c", Checksum: "2"}, "body", []string{"b", "a"})

	bl, err := db.Backlinks("b")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 || bl[0] != "a" || bl[1] != "c" {
		t.Fatalf("backlinks = %v, want [a c]", bl)
	}
	refs, err := db.Refs("c")
	if err != nil {
		t.Fatalf("Refs: %v", err)
	}
	if len(refs) != 2 || refs[0] != "a" || refs[1] != "b" {
		t.Fatalf("refs = %v, want [a b]", refs)
	}
}

func TestDeleteZettel(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertZettel(ZettelRow{ID: "del", Checksum: "x"}, "body", []string{"target"})

	if err := db.DeleteZettel("del"); err != nil {
		t.Fatalf("DeleteZettel: %v", err)
	}
	cs, _ := db.GetChecksum("del")
	if cs != "" {
		t.Errorf("deleted zettel still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertReplacesRefs(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertZettel(ZettelRow{ID: "up", Title: "Old", Checksum: "1"}, "old body", []string{"x"})
	_ = db.UpsertZettel(ZettelRow{ID: "up", Title: "New", Checksum: "2"}, "new body", []string{"y"})

	cs, _ := db.GetChecksum("up")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	if bl, _ := db.Backlinks("x"); len(bl) != 0 {
		t.Error("old ref should be removed on upsert")
	}
	if bl, _ := db.Backlinks("y"); len(bl) != 1 {
		t.Error("new ref should exist")
	}
}

func TestListZettels(t *testing.T) {
	db := testDB(t)
	for _, id := range []string{"c", "a", "b"} {
		_ = db.UpsertZettel(ZettelRow{ID: id, Checksum: id}, "", nil)
	}
	rows, total, err := db.ListZettels(2, 0)
	if err != nil {
		t.Fatalf("ListZettels: %v", err)
	}
	if total != 3 || len(rows) != 2 || rows[0].ID != "a" || rows[1].ID != "b" {
		t.Errorf("rows = %+v total = %d", rows, total)
	}
}

func TestGraph_IncludesDanglingTargets(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertZettel(ZettelRow{ID: "a", Title: "A", Checksum: "1"}, "", []string{"b", "ghost"})
	_ = db.UpsertZettel(ZettelRow{ID: "b", Title: "B", Checksum: "2"}, "", nil)

	nodes, links, err := db.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(nodes) != 3 {
		t.Errorf("nodes = %+v, want a, b, ghost", nodes)
	}
	if len(links) != 2 {
		t.Errorf("links = %+v, want 2", links)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertZettel(ZettelRow{ID: "s", Title: "Search Me", Checksum: "1"}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	k := testKasten(t)
	_ = k.WriteRaw("a", []byte("title: A\nsee zk@b\n"))
	_ = k.WriteRaw("b", []byte("title: B\n"))
	_ = db.UpsertZettel(ZettelRow{ID: "stale", Checksum: "s"}, "", nil)

	stats, err := Sync(db, k, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.Indexed != 2 || stats.Removed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if bl, _ := db.Backlinks("b"); len(bl) != 1 || bl[0] != "a" {
		t.Errorf("backlinks(b) = %v", bl)
	}

	stats, err = Sync(db, k, quietLogger())
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if stats.Indexed != 0 || stats.Removed != 0 {
		t.Errorf("unchanged kasten re-indexed: %+v", stats)
	}
}

func TestOpen_ResetsStaleSchema(t *testing.T) {
	path := t.TempDir() + "/index.db"
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.UpsertZettel(ZettelRow{ID: "a", Title: "A"}, "body", nil); err != nil {
		t.Fatal(err)
	}

	// Reopening at the current version keeps the data.
	db.Close()
	if db, err = Open(path); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := db.GetZettel("a"); err != nil {
		t.Fatalf("zettel lost on reopen: %v", err)
	}

	if _, err := db.conn.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	db.Close()
	if db, err = Open(path); err != nil {
		t.Fatalf("reopen stale: %v", err)
	}
	defer db.Close()
	if _, err := db.GetZettel("a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stale schema should be dropped, got err = %v", err)
	}
}
