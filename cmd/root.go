package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/recall/internal/config"
	"github.com/abhisek/recall/internal/engine"
	"github.com/abhisek/recall/internal/logging"
	"github.com/abhisek/recall/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Adaptive mastery and review engine",
	Long: "recall records learners' answer attempts and turns them into topic mastery,\n" +
		"weakness rankings, spaced-repetition reviews, decay estimates and exam readiness.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. ctx is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: ./recall.yaml if present)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path or Postgres DSN (overrides RECALL_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides log.level)")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(masteryCmd)
	rootCmd.AddCommand(weakCmd)
	rootCmd.AddCommand(velocityCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(rescheduleCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(behaviorCmd)
	rootCmd.AddCommand(readinessCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}

// runtime is everything a command needs to talk to the engine.
type runtime struct {
	cfg    *config.Config
	log    *logrus.Logger
	store  *store.Store
	engine *engine.Engine
}

func (r *runtime) Close() error {
	return r.store.Close()
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.DSN = db
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

// resolveDSN returns the DSN to open. An empty SQLite DSN means the
// default data file.
func resolveDSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.Driver != store.DriverSQLite {
		if cfg.DSN == "" {
			return "", fmt.Errorf("database.dsn is required for driver %q", cfg.Driver)
		}
		return cfg.DSN, nil
	}
	if cfg.DSN == "" {
		return store.DefaultDBPath()
	}
	return cfg.DSN, store.EnsureDir(cfg.DSN)
}

// openRuntime loads config, opens the store and builds the engine.
func openRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	dsn, err := resolveDSN(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	st, err := store.Open(ctx, store.Config{Driver: cfg.Database.Driver, DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.WithFields(logrus.Fields{
		"driver":  cfg.Database.Driver,
		"dialect": st.Dialect(),
	}).Debug("store opened")

	eng := engine.New(engine.ReposFrom(st), engine.Options{
		Thresholds:   cfg.Thresholds.Attempt(),
		SnapshotKeep: cfg.Database.SnapshotKeep,
		Logger:       log,
	})
	return &runtime{cfg: cfg, log: log, store: st, engine: eng}, nil
}

// withRuntime wraps a command body with runtime setup and teardown.
func withRuntime(fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd, args, rt)
	}
}
