package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/zk/internal/mcpserver"
	"github.com/starford/zk/internal/opener"
	"github.com/starford/zk/internal/zettelservice"
)

func (a *App) idOrDefault(id string) string {
	if id == "" {
		return a.config.Kasten.DefaultID
	}
	return id
}

// Prepare creates zettel id if needed and prints its absolute path.
// This is the command the resolver runs.
func (a *App) Prepare(_ context.Context, id string) error {
	id = a.idOrDefault(id)
	path, created, err := a.kasten.Prepare(id)
	if err != nil {
		return err
	}
	if created {
		a.logger.Debug("zettel created", slog.String("id", id))
	}
	_, err = fmt.Fprintln(a.stdout, path)
	return err
}

// Edit prepares zettel id and opens it in the configured editor.
func (a *App) Edit(ctx context.Context, id string) error {
	path, _, err := a.kasten.Prepare(a.idOrDefault(id))
	if err != nil {
		return err
	}
	argv := strings.Fields(a.config.Editor.Program())
	if len(argv) == 0 {
		argv = []string{"vim"}
	}
	return a.runner().Interactive(ctx, argv[0], append(argv[1:], path)...)
}

// Shell starts a shell in the kasten directory, or runs command there.
func (a *App) Shell(ctx context.Context, command string) error {
	return a.runner().Shell(ctx, command)
}

// Sync commits local changes, rebases onto the remote and pushes.
func (a *App) Sync(ctx context.Context) error {
	return a.git().Sync(ctx, time.Now())
}

// Open resolves arg and shows it in Neovim.
func (a *App) Open(ctx context.Context, arg string) error {
	return a.withOpener(func(o *opener.Opener) error {
		return o.Open(ctx, arg)
	})
}

// Follow opens the zettel referenced by token, or by the WORD under the
// Neovim cursor when token is empty.
func (a *App) Follow(ctx context.Context, token string) error {
	return a.withOpener(func(o *opener.Opener) error {
		return o.Follow(ctx, token)
	})
}

func (a *App) withOpener(fn func(*opener.Opener) error) error {
	ed, closeEditor, err := a.dial(a.nvimAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEditor(); err != nil {
			a.logger.Debug("close editor", slog.String("error", err.Error()))
		}
	}()
	return fn(opener.New(a.resolver, ed, a.logger))
}

// Rename moves oldID to newID and rewrites every reference to it.
func (a *App) Rename(ctx context.Context, oldID, newID string) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	rewritten, err := svc.Rename(ctx, oldID, newID)
	if err != nil {
		return err
	}
	a.logger.Info("zettel renamed",
		slog.String("from", oldID),
		slog.String("to", newID),
		slog.Int("rewritten", len(rewritten)))
	for _, id := range rewritten {
		fmt.Fprintln(a.stdout, id)
	}
	return nil
}

// Remove deletes zettel id.
func (a *App) Remove(ctx context.Context, id string) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	return svc.DeleteZettel(ctx, id)
}

// Search prints "<id>\t<title>" for every zettel matching query.
func (a *App) Search(ctx context.Context, query string, limit int) error {
	svc, err := a.freshService(ctx)
	if err != nil {
		return err
	}
	results, err := svc.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(a.stdout, "%s\t%s\n", r.ID, r.Title)
	}
	return nil
}

// Refs prints the IDs zettel id references.
func (a *App) Refs(ctx context.Context, id string) error {
	svc, err := a.freshService(ctx)
	if err != nil {
		return err
	}
	refs, err := svc.Refs(ctx, a.idOrDefault(id))
	if err != nil {
		return err
	}
	a.printLines(refs)
	return nil
}

// Backlinks prints the IDs that reference zettel id.
func (a *App) Backlinks(ctx context.Context, id string) error {
	svc, err := a.freshService(ctx)
	if err != nil {
		return err
	}
	bl, err := svc.Backlinks(ctx, a.idOrDefault(id))
	if err != nil {
		return err
	}
	a.printLines(bl)
	return nil
}

// Graph prints the neighbors of id ("<- up", "-> down"), or every
// reference as "source -> target" when id is empty.
func (a *App) Graph(ctx context.Context, id string) error {
	svc, err := a.freshService(ctx)
	if err != nil {
		return err
	}
	if id != "" {
		n, err := svc.Neighbors(ctx, id)
		if err != nil {
			return err
		}
		for _, up := range n.Upstream {
			fmt.Fprintf(a.stdout, "<- %s\n", up)
		}
		for _, down := range n.Downstream {
			fmt.Fprintf(a.stdout, "-> %s\n", down)
		}
		return nil
	}
	_, links, err := svc.Graph(ctx)
	if err != nil {
		return err
	}
	for _, l := range links {
		fmt.Fprintf(a.stdout, "%s -> %s\n", l.Source, l.Target)
	}
	return nil
}

// Reindex brings the SQLite index in line with the kasten.
func (a *App) Reindex(ctx context.Context) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	stats, err := svc.Reindex(ctx, a.logger)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "indexed %d, removed %d, failed %d\n", stats.Indexed, stats.Removed, stats.Failed)
	return err
}

// MCP serves the kasten tools over stdio until stdin closes.
func (a *App) MCP(ctx context.Context) error {
	svc, err := a.freshService(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, a.version).ServeStdio()
}

// freshService returns the service after syncing the index, so queries
// see edits made outside of zk.
func (a *App) freshService(ctx context.Context) (*zettelservice.Service, error) {
	svc, err := a.service()
	if err != nil {
		return nil, err
	}
	if _, err := svc.Reindex(ctx, a.logger); err != nil {
		return nil, fmt.Errorf("sync index: %w", err)
	}
	return svc, nil
}

func (a *App) printLines(lines []string) {
	for _, l := range lines {
		fmt.Fprintln(a.stdout, l)
	}
}
