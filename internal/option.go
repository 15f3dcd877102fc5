package internal

import (
	"io"
	"log/slog"

	"github.com/starford/zk/internal/editor"
	"github.com/starford/zk/internal/resolver"
)

// EditorDialer connects to the editor at address. The returned close
// function releases the connection.
type EditorDialer func(address string) (editor.Editor, func() error, error)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	logger   *slog.Logger
	version  string
	nvimAddr string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	resolver resolver.Resolver
	dial     EditorDialer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the JSON logger built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithNvimAddress sets the socket of the Neovim instance driven by
// open and follow.
func WithNvimAddress(addr string) Option {
	return func(a *application) {
		a.nvimAddr = addr
	}
}

// WithIO replaces the process stdio used by commands and subprocesses.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(a *application) {
		a.stdin = stdin
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithResolver replaces the resolver process used by open and follow.
func WithResolver(r resolver.Resolver) Option {
	return func(a *application) {
		a.resolver = r
	}
}

// WithEditorDialer replaces the Neovim RPC dialer.
func WithEditorDialer(d EditorDialer) Option {
	return func(a *application) {
		a.dial = d
	}
}

func dialNvim(address string) (editor.Editor, func() error, error) {
	n, err := editor.Dial(address)
	if err != nil {
		return nil, nil, err
	}
	return n, n.Close, nil
}
