// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/zk/internal/index"
	"github.com/starford/zk/internal/kasten"
	"github.com/starford/zk/internal/resolver"
	"github.com/starford/zk/internal/storage"
	"github.com/starford/zk/internal/vcs"
	"github.com/starford/zk/internal/zettelservice"
)

// App runs zk commands against one Zettelkasten.
type App struct {
	application

	kasten *kasten.Kasten
	db     *index.DB
	svc    *zettelservice.Service
}

// New builds an App from opts. The kasten directory is created if it
// does not exist; the index is opened lazily by the commands that need it.
func New(opts ...Option) (*App, error) {
	app := &App{}
	for _, opt := range opts {
		opt(&app.application)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.version == "" {
		app.version = "dev"
	}

	// Logs go to stderr; stdout carries command output such as the path
	// printed by prepare.
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(app.stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}

	if app.resolver == nil {
		args := cfg.Resolver.Args
		if args == nil {
			args = []string{"-Z", cfg.Kasten.Path}
		}
		app.resolver = resolver.NewProcess(cfg.Resolver.Command, app.logger, args...)
	}
	if app.dial == nil {
		app.dial = dialNvim
	}

	store, err := storage.NewFS(cfg.Kasten.Path)
	if err != nil {
		return nil, fmt.Errorf("init kasten: %w", err)
	}
	app.kasten = kasten.New(store)

	app.logger.Debug("Configuration loaded",
		slog.String("kasten_path", cfg.Kasten.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return app, nil
}

// Close releases the index if it was opened.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Kasten returns the Zettelkasten the app operates on.
func (a *App) Kasten() *kasten.Kasten { return a.kasten }

// service opens the index on first use.
func (a *App) service() (*zettelservice.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	path := a.config.SQLite.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	a.db = db
	a.svc = zettelservice.NewService(a.kasten, db)
	return a.svc, nil
}

func (a *App) runner() *vcs.Runner {
	r := vcs.NewRunner(a.kasten.Root(), a.logger)
	r.Stdin, r.Stdout, r.Stderr = a.stdin, a.stdout, a.stderr
	return r
}

func (a *App) git() *vcs.Git { return vcs.NewGit(a.runner()) }

// LogFailure logs the error that ends a command. Subprocess failures
// carry the command line and whatever the process printed.
func LogFailure(logger *slog.Logger, err error) {
	var ce *vcs.CommandError
	if !errors.As(err, &ce) {
		logger.Error("application error", slog.String("error", err.Error()))
		return
	}
	attrs := []any{slog.String("cmd", ce.Cmd), slog.String("error", ce.Err.Error())}
	if out := strings.TrimSpace(ce.Output); out != "" {
		attrs = append(attrs, slog.String("output", out))
	}
	logger.Error("a subcommand failed", attrs...)
}
