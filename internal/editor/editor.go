// Package editor abstracts the host editor's window and buffer primitives.
package editor

import (
	"errors"
	"fmt"

	"github.com/neovim/go-client/nvim"
)

// ErrNoAddress is returned when no editor socket address is known.
var ErrNoAddress = errors.New("editor: no nvim address (set --nvim or $NVIM)")

// Editor is the set of host capabilities the opener relies on.
type Editor interface {
	// WindowCount returns the number of windows in the current tab.
	WindowCount() (int, error)
	// SplitVertical creates a new vertical split and focuses it.
	SplitVertical() error
	// FocusPrevious moves focus to the previously active window.
	FocusPrevious() error
	// Open edits path in the current window.
	Open(path string) error
	// Message shows msg to the user.
	Message(msg string) error
	// CursorWORD returns the whitespace-delimited token under the cursor.
	CursorWORD() (string, error)
}

// Nvim drives a running Neovim instance over its RPC socket.
type Nvim struct {
	v *nvim.Nvim
}

var _ Editor = (*Nvim)(nil)

// Dial connects to the Neovim listening on address (a unix socket path
// or host:port, as found in $NVIM).
func Dial(address string) (*Nvim, error) {
	if address == "" {
		return nil, ErrNoAddress
	}
	v, err := nvim.Dial(address)
	if err != nil {
		return nil, fmt.Errorf("editor: dial %s: %w", address, err)
	}
	return &Nvim{v: v}, nil
}

// Close releases the RPC connection.
func (n *Nvim) Close() error {
	return n.v.Close()
}

func (n *Nvim) WindowCount() (int, error) {
	var count int
	if err := n.v.Eval("winnr('$')", &count); err != nil {
		return 0, fmt.Errorf("editor: window count: %w", err)
	}
	return count, nil
}

func (n *Nvim) SplitVertical() error {
	return n.command("vsplit")
}

func (n *Nvim) FocusPrevious() error {
	return n.command("wincmd p")
}

func (n *Nvim) Open(path string) error {
	var escaped string
	if err := n.v.Call("fnameescape", &escaped, path); err != nil {
		return fmt.Errorf("editor: escape %s: %w", path, err)
	}
	return n.command("edit " + escaped)
}

func (n *Nvim) Message(msg string) error {
	return n.v.WriteOut(msg + "\n")
}

func (n *Nvim) CursorWORD() (string, error) {
	var word string
	if err := n.v.Eval("expand('<cWORD>')", &word); err != nil {
		return "", fmt.Errorf("editor: cursor word: %w", err)
	}
	return word, nil
}

func (n *Nvim) command(cmd string) error {
	if err := n.v.Command(cmd); err != nil {
		return fmt.Errorf("editor: %s: %w", cmd, err)
	}
	return nil
}
