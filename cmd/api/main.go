package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/visit-logger/internal/app"
	"github.com/jwalitptl/visit-logger/internal/config"
	"github.com/jwalitptl/visit-logger/internal/repository/postgres"
	"github.com/jwalitptl/visit-logger/internal/seed"
	eventsvc "github.com/jwalitptl/visit-logger/internal/service/event"
	"github.com/jwalitptl/visit-logger/pkg/logger"
	"github.com/jwalitptl/visit-logger/pkg/messaging"
	"github.com/jwalitptl/visit-logger/pkg/metrics"
	"github.com/jwalitptl/visit-logger/pkg/security"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "visit-logger",
		Short:         "Clinic visit logger API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		seedCmd(&configPath),
		migrateCmd(&configPath),
		eventsCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load(path string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, log, nil
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log, app.Options{})
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Error().Err(err).Msg("closing app")
				}
			}()

			srv := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      a.Engine(),
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Int("port", cfg.Server.Port).Str("store", cfg.Store.Backend).Msg("Starting server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			return nil
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default doctor and catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Store.Backend == config.BackendMemory {
				return errors.New("seeding the memory store has no lasting effect; it is seeded on serve")
			}

			repos, _, err := app.OpenStore(cmd.Context(), cfg, metrics.New(cfg.Metrics.Namespace, nil))
			if err != nil {
				return err
			}
			if repos.Close != nil {
				defer repos.Close()
			}

			if err := seed.Run(cmd.Context(), repos, security.NewBcryptHasher(cfg.Auth.BcryptCost)); err != nil {
				return err
			}
			log.Info().Str("store", cfg.Store.Backend).Msg("Seed complete")
			return nil
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the relational schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Store.Backend != config.BackendPostgres {
				return fmt.Errorf("migrate applies to the postgres backend, not %q", cfg.Store.Backend)
			}

			db, err := postgres.NewDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info().Str("database", cfg.Database.Name).Msg("Schema up to date")
			return nil
		},
	}
}

func eventsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print domain events from the broker until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(*configPath)
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled {
				return errors.New("redis.enabled is false; there is no event stream")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			broker, err := app.OpenBroker(ctx, cfg.Redis, log)
			if err != nil {
				return err
			}
			defer broker.Close()
			events := eventsvc.NewService(broker, cfg.Redis.Channel, nil)

			err = events.Stream(ctx, func(e messaging.Event) {
				log.Info().
					Str("type", e.Type).
					Str("doctor_id", e.DoctorID).
					Str("entity_id", e.EntityID).
					Time("occurred_at", e.OccurredAt).
					Msg("Event")
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
