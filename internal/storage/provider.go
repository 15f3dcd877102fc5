// Package storage defines the kasten file-system abstraction.
package storage

import "github.com/starford/zk/internal/models"

// Provider is the interface for kasten file operations.
// All paths are relative to the kasten root.
type Provider interface {
	// Root returns the absolute kasten directory.
	Root() string
	// Abs resolves a relative path to an absolute one inside the root.
	Abs(path string) (string, error)
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.ZettelMetadata, error)
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
}
