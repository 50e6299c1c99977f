package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leaflens/cmd/config"
	migration "leaflens/cmd/database/migrate"
	"leaflens/internal/utils"
	"leaflens/internal/utils/logging"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "leaflens",
		Short:         "LeafLens plant identification backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate()
			},
		},
	)
	return root
}

func setup() (*zap.Logger, error) {
	utils.LoadConfig()
	return logging.NewLogger(utils.GetConfig("LOG_LEVEL"))
}

func migrate() error {
	log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, backend, err := config.ConnectDB(log)
	if err != nil {
		return err
	}
	if err := migration.Migrate(db); err != nil {
		return err
	}
	log.Info("database migration complete", zap.String("backend", backend))
	return nil
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	hub, err := initSentry()
	if err != nil {
		log.Warn("sentry disabled", zap.Error(err))
	}
	if hub != nil {
		defer hub.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, backend, err := config.ConnectDB(log)
	if err != nil {
		return err
	}
	// the ephemeral backends start empty and always need a schema
	if err := migration.Migrate(db); err != nil {
		return err
	}
	log.Info("storage ready", zap.String("backend", backend))

	app, err := config.NewApp(ctx, db, log, hub)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + utils.GetConfig("APP_PORT"))
	}()
	log.Info("server started", zap.String("port", utils.GetConfig("APP_PORT")))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// initSentry returns nil when SENTRY_DSN is not configured.
func initSentry() (*sentry.Hub, error) {
	dsn := utils.GetConfig("SENTRY_DSN")
	if dsn == "" {
		return nil, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              dsn,
		SampleRate:       1.0,
		AttachStacktrace: true,
		Environment:      "production",
		ServerName:       "",
		Release:          "leaflens",
	})
	if err != nil {
		return nil, err
	}
	return sentry.NewHub(client, sentry.NewScope()), nil
}
