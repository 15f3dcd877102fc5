// Package models defines the domain types for zk.
package models

import "time"

// DefaultID is the zettel opened when no ID is given.
const DefaultID = "index"

// Metadata is an ordered set of "key: value" header lines.
type Metadata struct {
	Keys   []string          `json:"keys,omitempty"`
	Values map[string]string `json:"values,omitempty"`
}

// Set adds or replaces key, keeping first-insertion order.
func (m *Metadata) Set(key, value string) {
	if m.Values == nil {
		m.Values = make(map[string]string)
	}
	if _, ok := m.Values[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Values[key] = value
}

// Get returns the value for key and whether it was present.
func (m *Metadata) Get(key string) (string, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// Delete removes key if present.
func (m *Metadata) Delete(key string) {
	if _, ok := m.Values[key]; !ok {
		return
	}
	delete(m.Values, key)
	for i, k := range m.Keys {
		if k == key {
			m.Keys = append(m.Keys[:i], m.Keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (m *Metadata) Len() int { return len(m.Keys) }

// Zettel is a single atomic note in the kasten.
type Zettel struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Metadata Metadata `json:"metadata"`
	// Content holds the body lines, each including its trailing newline.
	Content []string `json:"content,omitempty"`
	Refs    []string `json:"refs,omitempty"`
}

// New returns an empty zettel whose title is its ID.
func New(id string) *Zettel {
	return &Zettel{ID: id, Title: id}
}

// ZettelMetadata is the lightweight representation returned by list operations.
type ZettelMetadata struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
