package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/starford/zk/internal/checksum"
	"github.com/starford/zk/internal/kasten"
	"github.com/starford/zk/internal/parser"
)

// SyncStats summarises one Sync pass.
type SyncStats struct {
	Indexed int
	Removed int
	Failed  int
}

// Sync walks the kasten and brings the index up to date:
//   - new/changed zettels are parsed and upserted
//   - zettels removed from disk are deleted from the index
func Sync(db *DB, k *kasten.Kasten, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	metas, err := k.List()
	if err != nil {
		return stats, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.ID] = struct{}{}

		if checksums[m.ID] == m.Checksum {
			continue
		}

		data, err := k.ReadRaw(m.ID)
		if err != nil {
			stats.Failed++
			logger.Warn("sync: read failed", slog.String("id", m.ID), slog.String("error", err.Error()))
			continue
		}
		if err := IndexZettel(db, m.ID, data); err != nil {
			stats.Failed++
			logger.Warn("sync: index failed", slog.String("id", m.ID), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
		logger.Debug("sync: indexed", slog.String("id", m.ID))
	}

	for id := range checksums {
		if _, ok := disk[id]; ok {
			continue
		}
		if err := db.DeleteZettel(id); err != nil {
			stats.Failed++
			logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("sync: removed stale", slog.String("id", id))
	}

	return stats, nil
}

// IndexZettel parses data as zettel id and upserts it into the index.
func IndexZettel(db ZettelIndex, id string, data []byte) error {
	z, err := parser.Load(id, data)
	if err != nil {
		return err
	}
	return db.UpsertZettel(ZettelRow{
		ID:        z.ID,
		Title:     z.Title,
		Checksum:  checksum.Sum(data),
		Metadata:  z.Metadata.Values,
		UpdatedAt: time.Now(),
	}, strings.Join(z.Content, ""), z.Refs)
}
