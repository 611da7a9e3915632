package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saltyorg/lms/internal/config"
	"github.com/saltyorg/lms/internal/database"
	"github.com/saltyorg/lms/internal/logging"
	"github.com/saltyorg/lms/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "lms",
		Short:         "LMS - minimal learning management server",
		Long:          `LMS serves course pages and a JSON API for creating courses and enrolling students.`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	flags.IntP("port", "p", config.DefaultPort, "HTTP server port (or set LMS_PORT)")
	flags.StringP("bind", "b", config.DefaultBind, "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	flags.StringP("db", "d", config.DefaultDBPath, "SQLite database path (or set LMS_DB_PATH)")
	flags.CountP("verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.String("log-file", "", "Log file path (default: lms.log next to the database)")

	defaults := config.DefaultTimeoutConfig()
	rootCmd.Flags().Bool("seed", true, "Insert sample courses on startup when none exist")
	rootCmd.Flags().Duration("read-timeout", defaults.Read, "Timeout for reading a request")
	rootCmd.Flags().Duration("idle-timeout", defaults.Idle, "Keep-alive idle timeout")
	rootCmd.Flags().Duration("request-timeout", defaults.Request, "Timeout for handling a single request")
	rootCmd.Flags().Duration("shutdown-timeout", defaults.Shutdown, "Graceful shutdown timeout")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create the schema and insert sample courses if none exist",
		RunE:  runSeed,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lms %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration, configures logging and opens the database with
// its schema in place.
func setup(cmd *cobra.Command) (*config.Config, *database.DB, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	logging.Apply(cfg.LogLevel(), cfg.Log, cfg.DBPath)

	db, err := database.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	return cfg, db, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Bind == "0.0.0.0" || cfg.Bind == "::" || cfg.Bind == "" {
		log.Warn().Msg("Server is accessible from all interfaces and has no authentication")
	}

	log.Info().
		Str("version", version).
		Str("addr", cfg.Addr()).
		Str("database", cfg.DBPath).
		Msg("Starting LMS")

	if cfg.Seed {
		if _, err := db.Seed(); err != nil {
			return fmt.Errorf("failed to seed sample courses: %w", err)
		}
	}

	server, err := web.NewServer(db, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Dur("uptime", time.Since(start)).Msg("LMS stopped")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	_, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	inserted, err := db.Seed()
	if err != nil {
		return fmt.Errorf("failed to seed sample courses: %w", err)
	}

	if inserted == 0 {
		log.Info().Msg("Courses already present; nothing to seed")
	}
	return nil
}
