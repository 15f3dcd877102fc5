// Package opener resolves zettel references and shows the resulting file
// in the editor's window layout.
package opener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/editor"
	"github.com/starford/zk/internal/parser"
	"github.com/starford/zk/internal/resolver"
)

// FailureMessage is shown when the resolver exits non-zero.
const FailureMessage = "Failed to prepare zettel."

// RejectMessage returns the message shown for a token that is not a reference.
func RejectMessage(token string) string {
	return `Not a zettel ref: "` + token + `"`
}

// Opener ties a Resolver to an Editor.
type Opener struct {
	resolver resolver.Resolver
	editor   editor.Editor
	logger   *slog.Logger
}

// New creates an Opener.
func New(r resolver.Resolver, e editor.Editor, logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{resolver: r, editor: e, logger: logger}
}

// Follow validates token as a zk@<id> reference and opens the referenced
// zettel. An empty token is replaced with the WORD under the editor cursor.
// A token that is not a reference is reported to the user and the resolver
// is never invoked.
func (o *Opener) Follow(ctx context.Context, token string) error {
	if token == "" {
		word, err := o.editor.CursorWORD()
		if err != nil {
			return err
		}
		token = word
	}

	ref := parser.ParseRef(token)
	if !ref.Valid() {
		if err := o.editor.Message(RejectMessage(token)); err != nil {
			return err
		}
		return fmt.Errorf("opener: %q: %w", token, apperr.ErrInvalidRef)
	}
	return o.Open(ctx, ref.ID)
}

// Open asks the resolver for arg's file and opens it. arg is passed to
// the resolver as given; only Follow validates against the reference
// pattern.
func (o *Opener) Open(ctx context.Context, arg string) error {
	res, err := o.resolver.Prepare(ctx, arg)
	if err != nil {
		o.logger.Debug("opener: resolver did not run", slog.String("arg", arg), slog.String("error", err.Error()))
		if msgErr := o.editor.Message(FailureMessage); msgErr != nil {
			return errors.Join(apperr.ErrResolveFailed, err, msgErr)
		}
		return fmt.Errorf("opener: %q: %w", arg, errors.Join(apperr.ErrResolveFailed, err))
	}
	path := res.Path()

	if !res.OK() {
		o.logger.Debug("opener: resolve failed", slog.String("arg", arg), slog.Int("exit_code", res.ExitCode))
		if err := o.editor.Message(FailureMessage); err != nil {
			return err
		}
		return fmt.Errorf("opener: %q: %w", arg, apperr.ErrResolveFailed)
	}

	count, err := o.editor.WindowCount()
	if err != nil {
		return err
	}
	if count == 1 {
		err = o.editor.SplitVertical()
	} else {
		err = o.editor.FocusPrevious()
	}
	if err != nil {
		return err
	}

	o.logger.Debug("opener: opening", slog.String("arg", arg), slog.String("path", path))
	return o.editor.Open(path)
}
