package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/zk/internal/checksum"
	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/parser"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Kasten   KastenConfig      `yaml:"kasten"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Resolver ResolverConfig    `yaml:"resolver"`
	Editor   EditorConfig      `yaml:"editor"`
}

// Validate validates the configuration. It also fills in paths derived
// from other settings, so it must run after every override is applied.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Kasten.Validate(); err != nil {
		return err
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = defaultIndexPath(c.Kasten.Path)
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Resolver.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// KastenConfig locates the Zettelkasten directory.
type KastenConfig struct {
	Path      string `yaml:"path"`
	DefaultID string `yaml:"default_id"`
}

// Validate validates the kasten configuration and expands a leading ~
// in Path.
func (c *KastenConfig) Validate() error {
	c.Path = expandHome(c.Path)
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.DefaultID, validation.Required, validation.By(func(any) error {
			return parser.ValidateID(c.DefaultID)
		})),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	c.Path = expandHome(c.Path)
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ResolverConfig names the program that turns a zettel ID into a file
// path. It is run as `<command> <args...> prepare <id>`.
type ResolverConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Validate validates the resolver configuration.
func (c *ResolverConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Command, validation.Required),
	)
}

// EditorConfig holds the editor used by `zk edit`.
type EditorConfig struct {
	Command string `yaml:"command"`
}

// Program returns the configured editor, then $EDITOR, then vim.
func (c *EditorConfig) Program() string {
	if strings.TrimSpace(c.Command) != "" {
		return c.Command
	}
	if e := os.Getenv("EDITOR"); strings.TrimSpace(e) != "" {
		return e
	}
	return "vim"
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Kasten: KastenConfig{
			Path:      "~/zk",
			DefaultID: models.DefaultID,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Resolver: ResolverConfig{
			Command: "zk",
		},
	}
}

// defaultIndexPath keeps the index out of the kasten so it never ends
// up in a `zk sync` commit.
func defaultIndexPath(kastenPath string) string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	abs, err := filepath.Abs(kastenPath)
	if err != nil {
		abs = kastenPath
	}
	return filepath.Join(dir, "zk", checksum.Sum([]byte(abs))[:16]+".db")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
