// Command dbpilot is a Gemini-backed database assistant. The default
// command opens a terminal chat; "serve" exposes the same assistant as a
// web chat UI; "migrate" applies the example schema migrations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dbpilot/dbpilot/internal/app"
	"github.com/dbpilot/dbpilot/internal/config"
	"github.com/dbpilot/dbpilot/internal/logging"
	"github.com/dbpilot/dbpilot/internal/store"
)

var (
	// Global flags
	configFile string
	envFile    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dbpilot",
	Short: "dbpilot - chat assistant with guarded SQL tools",
	Long: `dbpilot wires a Gemini model to a PostgreSQL database.

The model answers everyday questions directly and maps database requests to
guarded function tools (create/drop table, insert, read, update, delete,
list tables). Identifiers are validated and values always travel as bind
parameters, so the model never writes raw SQL.

Run without arguments to start the interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Debug = true
		}

		logger, err = logging.New(cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

// serveCmd runs the web chat frontend.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web chat UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// migrateCmd applies the example schema migrations.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func runChat() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Chat(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	if ctx.Err() != nil {
		fmt.Println("\nInterrupted.")
	}
	return nil
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.StartServer(); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownGracePeriod())
	defer cancel()

	if err := application.Server().Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := application.Server().Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
	return nil
}

func runMigrate() error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	version, err := store.Migrate(cfg.Database.MigrateURL())
	if err != nil {
		return err
	}

	logger.Info("migrations applied", zap.Uint("schema_version", version))
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to dotenv file loaded before config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
