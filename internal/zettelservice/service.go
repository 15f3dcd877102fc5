// Package zettelservice coordinates the kasten on disk with the SQLite index.
package zettelservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/checksum"
	"github.com/starford/zk/internal/index"
	"github.com/starford/zk/internal/kasten"
	"github.com/starford/zk/internal/parser"
)

// ZettelDetail is the full representation of a zettel.
type ZettelDetail struct {
	ID        string            `json:"id"`
	Path      string            `json:"path"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Checksum  string            `json:"checksum"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Refs      []string          `json:"refs"`
	Backlinks []string          `json:"backlinks"`
}

// ZettelListItem is a lightweight item in a list response.
type ZettelListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Neighborhood is a zettel together with the zettels it references
// (downstream) and the zettels referencing it (upstream).
type Neighborhood struct {
	ID         string   `json:"id"`
	Upstream   []string `json:"upstream"`
	Downstream []string `json:"downstream"`
}

// Neighbors returns the union of upstream and downstream IDs, sorted.
func (n Neighborhood) Neighbors() []string {
	seen := make(map[string]struct{}, len(n.Upstream)+len(n.Downstream))
	var out []string
	for _, id := range append(append([]string{}, n.Upstream...), n.Downstream...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PrepareResult is returned by Prepare.
type PrepareResult struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Created bool   `json:"created"`
}

// Service coordinates kasten and index operations.
type Service struct {
	kasten *kasten.Kasten
	db     *index.DB
}

// NewService creates a new zettel service.
func NewService(k *kasten.Kasten, db *index.DB) *Service {
	return &Service{kasten: k, db: db}
}

// Kasten returns the underlying kasten.
func (s *Service) Kasten() *kasten.Kasten { return s.kasten }

// GetZettel reads a zettel from disk and enriches it with refs and backlinks.
func (s *Service) GetZettel(_ context.Context, id string) (*ZettelDetail, error) {
	data, err := s.kasten.ReadRaw(id)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(id, data)
}

// Prepare ensures zettel id exists and indexes it when newly created.
func (s *Service) Prepare(_ context.Context, id string) (*PrepareResult, error) {
	path, created, err := s.kasten.Prepare(id)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.reindexOne(id); err != nil {
			return nil, err
		}
	}
	return &PrepareResult{ID: id, Path: path, Created: created}, nil
}

// SaveZettel writes raw content for id. When ifMatch is non-empty it must
// equal the checksum of the current file (optimistic concurrency); a
// missing file only matches an empty ifMatch.
func (s *Service) SaveZettel(_ context.Context, id string, content []byte, ifMatch string) (*ZettelDetail, error) {
	existing, err := s.kasten.ReadRaw(id)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		if ifMatch != "" {
			return nil, apperr.ErrConflict
		}
	case err != nil:
		return nil, err
	case !checksum.Match(existing, ifMatch):
		return nil, apperr.ErrConflict
	}
	if err := s.kasten.WriteRaw(id, content); err != nil {
		return nil, err
	}
	if err := index.IndexZettel(s.db, id, content); err != nil {
		return nil, err
	}
	return s.buildDetail(id, content)
}

// DeleteZettel removes a zettel from disk and index.
func (s *Service) DeleteZettel(_ context.Context, id string) error {
	if err := s.kasten.Remove(id); err != nil {
		return err
	}
	return s.db.DeleteZettel(id)
}

// Rename moves oldID to newID, rewrites references, and reindexes every
// touched zettel.
func (s *Service) Rename(_ context.Context, oldID, newID string) ([]string, error) {
	rewritten, err := s.kasten.Rename(oldID, newID)
	if err != nil {
		return nil, err
	}
	if err := s.db.DeleteZettel(oldID); err != nil {
		return rewritten, err
	}
	touched := append([]string{newID}, rewritten...)
	for _, id := range touched {
		if err := s.reindexOne(id); err != nil {
			return rewritten, err
		}
	}
	return rewritten, nil
}

// ListZettels returns a page of indexed zettels.
func (s *Service) ListZettels(_ context.Context, limit, offset int) ([]ZettelListItem, int, error) {
	rows, total, err := s.db.ListZettels(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ZettelListItem, len(rows))
	for i, r := range rows {
		items[i] = ZettelListItem{
			ID:        r.ID,
			Title:     r.Title,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []index.SearchResult{}, nil
	}
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

// Graph returns all nodes and refs.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	nodes, links, err := s.db.Graph()
	return nonNilSlice(nodes), nonNilSlice(links), err
}

// Refs returns the IDs referenced by id.
func (s *Service) Refs(_ context.Context, id string) ([]string, error) {
	refs, err := s.db.Refs(id)
	return nonNilSlice(refs), err
}

// Backlinks returns the IDs that reference id.
func (s *Service) Backlinks(_ context.Context, id string) ([]string, error) {
	bl, err := s.db.Backlinks(id)
	return nonNilSlice(bl), err
}

// Neighbors returns the upstream and downstream zettels of id.
func (s *Service) Neighbors(ctx context.Context, id string) (*Neighborhood, error) {
	if err := parser.ValidateID(id); err != nil {
		return nil, err
	}
	up, err := s.Backlinks(ctx, id)
	if err != nil {
		return nil, err
	}
	down, err := s.Refs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Neighborhood{ID: id, Upstream: up, Downstream: down}, nil
}

// Reindex brings the index in line with the kasten.
func (s *Service) Reindex(_ context.Context, logger *slog.Logger) (index.SyncStats, error) {
	return index.Sync(s.db, s.kasten, logger)
}

func (s *Service) reindexOne(id string) error {
	data, err := s.kasten.ReadRaw(id)
	if err != nil {
		return err
	}
	if err := index.IndexZettel(s.db, id, data); err != nil {
		return fmt.Errorf("zettelservice: index %s: %w", id, err)
	}
	return nil
}

// buildDetail constructs a ZettelDetail from raw data without re-reading the file.
func (s *Service) buildDetail(id string, data []byte) (*ZettelDetail, error) {
	z, err := parser.Load(id, data)
	if err != nil {
		return nil, err
	}
	path, err := s.kasten.PathFor(id)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(id)
	if err != nil {
		return nil, err
	}
	return &ZettelDetail{
		ID:        id,
		Path:      path,
		Title:     z.Title,
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Metadata:  z.Metadata.Values,
		Refs:      nonNilSlice(z.Refs),
		Backlinks: nonNilSlice(bl),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
