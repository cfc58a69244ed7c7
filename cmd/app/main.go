package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/ravnholt/laguz/internal"
	"github.com/ravnholt/laguz/internal/mcpserver"
	"github.com/ravnholt/laguz/internal/vault"
	pkgconfig "github.com/ravnholt/laguz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Logs go to stderr: stdout carries the MCP protocol stream.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	eng, err := vault.Open(cfg.Vault.Path,
		vault.WithLogger(logger),
		vault.WithIgnoreGlobs(cfg.Vault.IgnoreGlobs),
		vault.WithDebounce(cfg.Vault.Debounce()),
	)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}
	defer eng.Close()

	return mcpserver.New(eng).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "laguz",
		Usage: "Live Markdown vault with a wikilink graph, filesystem sync, and a REST API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server and filesystem watcher",
				Action: runServe,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
