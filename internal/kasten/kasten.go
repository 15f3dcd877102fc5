// Package kasten maps zettel IDs onto files in a Zettelkasten directory.
package kasten

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/parser"
	"github.com/starford/zk/internal/storage"
)

// Ext is the file extension of every zettel.
const Ext = ".md"

// Kasten is a flat directory of <id>.md zettel files.
type Kasten struct {
	store storage.Provider
}

// New creates a Kasten on top of store.
func New(store storage.Provider) *Kasten {
	return &Kasten{store: store}
}

// Root returns the absolute kasten directory.
func (k *Kasten) Root() string { return k.store.Root() }

// Store exposes the underlying provider.
func (k *Kasten) Store() storage.Provider { return k.store }

// RelPath returns the kasten-relative file name for id.
func RelPath(id string) string { return id + Ext }

// PathFor returns the absolute file path for id.
func (k *Kasten) PathFor(id string) (string, error) {
	if err := parser.ValidateID(id); err != nil {
		return "", err
	}
	return k.store.Abs(RelPath(id))
}

// Contains reports whether a zettel with id exists.
func (k *Kasten) Contains(id string) (bool, error) {
	if err := parser.ValidateID(id); err != nil {
		return false, err
	}
	return k.store.Exists(RelPath(id))
}

// ReadRaw returns the file contents of zettel id.
func (k *Kasten) ReadRaw(id string) ([]byte, error) {
	if err := parser.ValidateID(id); err != nil {
		return nil, err
	}
	data, err := k.store.Read(RelPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("kasten: zettel %q: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// WriteRaw replaces the file contents of zettel id.
func (k *Kasten) WriteRaw(id string, data []byte) error {
	if err := parser.ValidateID(id); err != nil {
		return err
	}
	return k.store.Write(RelPath(id), data)
}

// Load reads and parses zettel id.
func (k *Kasten) Load(id string) (*models.Zettel, error) {
	data, err := k.ReadRaw(id)
	if err != nil {
		return nil, err
	}
	return parser.Load(id, data)
}

// Save writes z to its file, replacing any previous content.
func (k *Kasten) Save(z *models.Zettel) error {
	return k.WriteRaw(z.ID, parser.Render(z))
}

// Prepare makes sure zettel id exists on disk, creating an empty one
// when missing, and returns its absolute path.
func (k *Kasten) Prepare(id string) (path string, created bool, err error) {
	ok, err := k.Contains(id)
	if err != nil {
		return "", false, err
	}
	if !ok {
		if err := k.Save(models.New(id)); err != nil {
			return "", false, err
		}
		created = true
	}
	path, err = k.PathFor(id)
	if err != nil {
		return "", false, err
	}
	return path, created, nil
}

// Remove deletes zettel id.
func (k *Kasten) Remove(id string) error {
	ok, err := k.Contains(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("kasten: zettel %q: %w", id, apperr.ErrNotFound)
	}
	return k.store.Delete(RelPath(id))
}

// List returns every zettel at the top level of the kasten whose file
// stem is a valid ID.
func (k *Kasten) List() ([]models.ZettelMetadata, error) {
	metas, err := k.store.List("")
	if err != nil {
		return nil, err
	}
	out := metas[:0]
	for _, m := range metas {
		if filepath.Dir(m.Path) != "." || parser.ValidateID(m.ID) != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Rename moves zettel oldID to newID and rewrites zk@oldID references
// in every zettel. It returns the IDs of the zettels that were rewritten.
func (k *Kasten) Rename(oldID, newID string) ([]string, error) {
	if err := parser.ValidateID(newID); err != nil {
		return nil, err
	}
	ok, err := k.Contains(oldID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("kasten: zettel %q: %w", oldID, apperr.ErrNotFound)
	}
	exists, err := k.Contains(newID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("kasten: zettel %q: %w", newID, apperr.ErrAlreadyExists)
	}
	if err := k.store.Move(RelPath(oldID), RelPath(newID)); err != nil {
		return nil, err
	}

	metas, err := k.List()
	if err != nil {
		return nil, err
	}
	var rewritten []string
	for _, m := range metas {
		data, err := k.store.Read(m.Path)
		if err != nil {
			return rewritten, err
		}
		out, n := parser.RewriteRefs(string(data), oldID, newID)
		if n == 0 {
			continue
		}
		if err := k.store.Write(m.Path, []byte(out)); err != nil {
			return rewritten, err
		}
		rewritten = append(rewritten, m.ID)
	}
	return rewritten, nil
}
