package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/zk/internal/apperr"
)

// ZettelRow represents a row in the zettels table.
type ZettelRow struct {
	ID        string
	Title     string
	Checksum  string
	Metadata  map[string]string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GraphNode is a zettel in the reference graph.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GraphLink is a zk@ reference from Source to Target.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// UpsertZettel inserts or replaces a zettel, its FTS entry, and its
// outgoing refs within a transaction.
func (db *DB) UpsertZettel(z ZettelRow, body string, refs []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	meta := z.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, _ := json.Marshal(meta)
	if z.UpdatedAt.IsZero() {
		z.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO zettels (id, title, checksum, metadata, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			metadata   = excluded.metadata,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, z.ID, z.Title, z.Checksum, string(metaJSON), body, z.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert zettel: %w", err)
	}

	if err := ftsUpsert(tx, z.ID, z.Title, body); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM refs WHERE source = ?`, z.ID); err != nil {
		return fmt.Errorf("index: clear refs: %w", err)
	}
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO refs (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range refs {
			if _, err := stmt.Exec(z.ID, target); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteZettel removes a zettel, its FTS entry, and outgoing refs.
func (db *DB) DeleteZettel(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	if _, err := tx.Exec(`DELETE FROM refs WHERE source = ?`, id); err != nil {
		return fmt.Errorf("index: delete refs: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM zettels WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete zettel: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a zettel, or "" if not indexed.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM zettels WHERE id = ?`, id).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetZettel returns the indexed row for id.
func (db *DB) GetZettel(id string) (*ZettelRow, error) {
	row := db.conn.QueryRow(`SELECT id, title, checksum, metadata, updated_at FROM zettels WHERE id = ?`, id)
	z, err := scanZettel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: zettel %q: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get zettel: %w", err)
	}
	return z, nil
}

// ListZettels returns a page of zettels ordered by ID and the total count.
func (db *DB) ListZettels(limit, offset int) ([]ZettelRow, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM zettels`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count zettels: %w", err)
	}
	rows, err := db.conn.Query(`
		SELECT id, title, checksum, metadata, updated_at
		FROM zettels
		ORDER BY id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list zettels: %w", err)
	}
	defer rows.Close()

	var out []ZettelRow
	for rows.Next() {
		z, err := scanZettel(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *z)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanZettel(s scanner) (*ZettelRow, error) {
	var (
		z        ZettelRow
		metaJSON string
	)
	if err := s.Scan(&z.ID, &z.Title, &z.Checksum, &metaJSON, &z.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(metaJSON), &z.Metadata)
	return &z, nil
}

// AllChecksums returns id -> checksum for every indexed zettel.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM zettels`)
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

// Refs returns the targets referenced by source.
func (db *DB) Refs(source string) ([]string, error) {
	return db.queryIDs(`SELECT target FROM refs WHERE source = ? ORDER BY target`, source)
}

// Backlinks returns all zettel IDs that reference target.
func (db *DB) Backlinks(target string) ([]string, error) {
	return db.queryIDs(`SELECT source FROM refs WHERE target = ? ORDER BY source`, target)
}

func (db *DB) queryIDs(query string, arg string) ([]string, error) {
	rows, err := db.conn.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("index: query refs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Graph returns every indexed zettel and every ref between them.
// Refs to zettels that do not exist are included; their targets appear
// as nodes with an empty title.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	rows, err := db.conn.Query(`
		SELECT id, title FROM zettels
		UNION
		SELECT target, '' FROM refs WHERE target NOT IN (SELECT id FROM zettels)
		ORDER BY 1
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer rows.Close()

	var nodes []GraphNode
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.ID, &n.Title); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	linkRows, err := db.conn.Query(`SELECT source, target FROM refs ORDER BY source, target`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph links: %w", err)
	}
	defer linkRows.Close()

	var links []GraphLink
	for linkRows.Next() {
		var l GraphLink
		if err := linkRows.Scan(&l.Source, &l.Target); err != nil {
			return nil, nil, err
		}
		links = append(links, l)
	}
	return nodes, links, linkRows.Err()
}
