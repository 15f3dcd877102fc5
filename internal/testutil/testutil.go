// Package testutil provides shared test helpers: temporary kastens and
// databases, and recording fakes for the editor and resolver.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/zk/internal/index"
	"github.com/starford/zk/internal/kasten"
	"github.com/starford/zk/internal/resolver"
	"github.com/starford/zk/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "zk-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestKasten creates a Kasten in a temporary directory.
func TestKasten(t *testing.T) *kasten.Kasten {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return kasten.New(store)
}

// Editor is a fake editor.Editor that records every call.
type Editor struct {
	Windows int
	Word    string
	Err     error

	Calls    []string
	Messages []string
	Opened   []string
}

func (e *Editor) record(call string) error {
	e.Calls = append(e.Calls, call)
	return e.Err
}

func (e *Editor) WindowCount() (int, error) {
	return e.Windows, e.record("windows")
}

func (e *Editor) SplitVertical() error {
	if err := e.record("vsplit"); err != nil {
		return err
	}
	e.Windows++
	return nil
}

func (e *Editor) FocusPrevious() error { return e.record("wincmd p") }

func (e *Editor) Open(path string) error {
	if err := e.record("edit " + path); err != nil {
		return err
	}
	e.Opened = append(e.Opened, path)
	return nil
}

func (e *Editor) Message(msg string) error {
	e.Messages = append(e.Messages, msg)
	return e.record("message")
}

func (e *Editor) CursorWORD() (string, error) { return e.Word, e.record("cword") }

// Resolver is a fake resolver.Resolver returning a canned Result.
type Resolver struct {
	Result resolver.Result
	Err    error
	IDs    []string
}

func (r *Resolver) Prepare(_ context.Context, id string) (resolver.Result, error) {
	r.IDs = append(r.IDs, id)
	return r.Result, r.Err
}
