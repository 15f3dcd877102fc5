package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/zk/internal"
	pkgconfig "github.com/starford/zk/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Decode(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if p := cmd.String("zk-path"); p != "" {
		cfg.Kasten.Path = p
	}
	if err := pkgconfig.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp builds the application for a single command invocation.
func withApp(fn func(ctx context.Context, app *internal.App, cmd *cli.Command) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		app, err := internal.New(
			internal.WithConfig(cfg),
			internal.WithVersion(version),
			internal.WithNvimAddress(cmd.String("nvim")),
		)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(ctx, app, cmd)
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "zk",
		Usage:   "Plaintext Zettelkasten with zk@<id> references",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to config file (optional)",
				Sources: cli.EnvVars("ZK_CONFIG"),
			},
			&cli.StringFlag{
				Name:        "zk-path",
				Aliases:     []string{"Z"},
				Usage:       "Zettelkasten directory",
				DefaultText: "~/zk",
				Sources:     cli.EnvVars("ZK_PATH"),
			},
			&cli.StringFlag{
				Name:    "nvim",
				Usage:   "Neovim RPC socket used by open and follow",
				Sources: cli.EnvVars("NVIM"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "prepare",
				Usage:     "Create a zettel if missing and print its absolute path",
				ArgsUsage: "[ID]",
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					return app.Prepare(ctx, cmd.Args().First())
				}),
			},
			{
				Name:      "edit",
				Usage:     "Edit a zettel with $EDITOR",
				ArgsUsage: "[ID]",
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					return app.Edit(ctx, cmd.Args().First())
				}),
			},
			{
				Name:  "sh",
				Usage: "Run a shell (or a command) in the Zettelkasten directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "command", Aliases: []string{"c"}, Usage: "Command to run with sh -c"},
				},
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					return app.Shell(ctx, cmd.String("command"))
				}),
			},
			{
				Name:  "sync",
				Usage: "Commit local changes, pull with rebase and push",
				Action: withApp(func(ctx context.Context, app *internal.App, _ *cli.Command) error {
					return app.Sync(ctx)
				}),
			},
			{
				Name:      "open",
				Usage:     "Open a zettel in the running Neovim",
				ArgsUsage: "ARG",
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return fmt.Errorf("open: expected exactly one argument")
					}
					return app.Open(ctx, cmd.Args().First())
				}),
			},
			{
				Name:      "follow",
				Usage:     "Open the zk@<id> reference under the Neovim cursor (or TOKEN)",
				ArgsUsage: "[TOKEN]",
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					return app.Follow(ctx, cmd.Args().First())
				}),
			},
			{
				Name:      "mv",
				Usage:     "Rename a zettel and rewrite references to it",
				ArgsUsage: "OLD NEW",
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					if cmd.NArg() != 2 {
						return fmt.Errorf("mv: expected OLD and NEW")
					}
					return app.Rename(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
				}),
			},
			{
				Name:      "rm",
				Usage:     "Remove a zettel",
				ArgsUsage: "ID",
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return fmt.Errorf("rm: expected ID")
					}
					return app.Remove(ctx, cmd.Args().First())
				}),
			},
			{
				Name:      "search",
				Usage:     "Full-text search",
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum results"},
				},
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					return app.Search(ctx, cmd.Args().First(), int(cmd.Int("limit")))
				}),
			},
			{
				Name:      "refs",
				Usage:     "List zettels referenced by ID",
				ArgsUsage: "[ID]",
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					return app.Refs(ctx, cmd.Args().First())
				}),
			},
			{
				Name:      "backlinks",
				Usage:     "List zettels referencing ID",
				ArgsUsage: "[ID]",
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					return app.Backlinks(ctx, cmd.Args().First())
				}),
			},
			{
				Name:      "graph",
				Usage:     "Show the neighbors of ID, or every reference",
				ArgsUsage: "[ID]",
				Action: withApp(func(ctx context.Context, app *internal.App, cmd *cli.Command) error {
					return app.Graph(ctx, cmd.Args().First())
				}),
			},
			{
				Name:  "reindex",
				Usage: "Synchronise the search index with the Zettelkasten",
				Action: withApp(func(ctx context.Context, app *internal.App, _ *cli.Command) error {
					return app.Reindex(ctx)
				}),
			},
			{
				Name:  "serve",
				Usage: "Serve the HTTP API and keep the index live",
				Action: withApp(func(ctx context.Context, app *internal.App, _ *cli.Command) error {
					return app.Serve(ctx)
				}),
			},
			{
				Name:  "mcp",
				Usage: "Serve MCP tools over stdio",
				Action: withApp(func(ctx context.Context, app *internal.App, _ *cli.Command) error {
					return app.MCP(ctx)
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		internal.LogFailure(slog.Default(), err)
		os.Exit(1)
	}
}
