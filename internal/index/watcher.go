package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/zk/internal/kasten"
	"github.com/starford/zk/internal/parser"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, id string)

// Watch starts an fsnotify watcher on the kasten root and keeps the index
// in sync with zettel files until ctx is cancelled. cb, if non-nil, is
// called after each successful index mutation.
//
// Rename events trigger a debounced reconciliation pass, since fsnotify
// only reports the old name.
func Watch(ctx context.Context, db *DB, k *kasten.Kasten, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := k.Root()
	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	notify := func(kind, id string) {
		if cb != nil {
			cb(kind, id)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, k, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			id, ok := zettelID(root, ev.Name)
			if !ok {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := k.ReadRaw(id)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("id", id), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := IndexZettel(db, id, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("id", id), slog.String("error", idxErr.Error()))
					continue
				}
				kind := EventUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = EventCreated
				}
				logger.Debug("watcher: indexed", slog.String("id", id), slog.String("op", kind))
				notify(kind, id)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteZettel(id); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("id", id), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("id", id))
				notify(EventDeleted, id)

			case ev.Op&fsnotify.Rename != 0:
				if delErr := db.DeleteZettel(id); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("id", id), slog.String("error", delErr.Error()))
				} else {
					notify(EventDeleted, id)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// zettelID maps an absolute event path to a zettel ID. Temp files from
// atomic writes and anything outside the kasten root are ignored.
func zettelID(root, absPath string) (string, bool) {
	if filepath.Dir(absPath) != root {
		return "", false
	}
	name := filepath.Base(absPath)
	if !strings.HasSuffix(name, kasten.Ext) {
		return "", false
	}
	id := strings.TrimSuffix(name, kasten.Ext)
	if parser.ValidateID(id) != nil {
		return "", false
	}
	return id, true
}

// reconcile drops index entries without a file and indexes files whose
// checksum differs from the index.
func reconcile(db *DB, k *kasten.Kasten, logger *slog.Logger, notify func(kind, id string)) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := k.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.ID] = m.Checksum
	}

	for id := range checksums {
		if _, ok := disk[id]; ok {
			continue
		}
		if delErr := db.DeleteZettel(id); delErr == nil {
			logger.Debug("reconcile: removed stale", slog.String("id", id))
			notify(EventDeleted, id)
		}
	}

	for id, cs := range disk {
		if checksums[id] == cs {
			continue
		}
		data, readErr := k.ReadRaw(id)
		if readErr != nil {
			continue
		}
		if idxErr := IndexZettel(db, id, data); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("id", id))
			notify(EventCreated, id)
		}
	}
}
