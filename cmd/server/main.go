// Package main implements the entry point for the Tasker API server, which
// manages user accounts, sessions, avatars and per-user task lists.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/platform/postgres"
	"github.com/spf13/pflag"
)

// options holds the command-line flags.
type options struct {
	configPath string
	migrate    string
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// parseFlags parses args into options. A help request yields pflag.ErrHelp.
func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("tasker-api", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVar(&opts.configPath, "config", "", "path to a YAML config file (default: ./config.yaml when present)")
	flagSet.StringVar(&opts.migrate, "migrate", "",
		fmt.Sprintf("run a migration command %v and exit", postgres.MigrationCommands))

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// run loads configuration, connects to the database and either runs a
// migration command or serves HTTP until ctx ends or a shutdown signal arrives.
func run(ctx context.Context, args []string, output io.Writer) error {
	opts, err := parseFlags(args, output)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("avatar_storage", cfg.Avatar.Storage),
		slog.Bool("mail_enabled", cfg.Mail.SendGridAPIKey != ""))

	db, err := setupDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if opts.migrate != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, opts.migrate, log)
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
