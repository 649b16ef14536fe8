package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/app"
	"github.com/kailas-cloud/ragcore/internal/config"
	logpkg "github.com/kailas-cloud/ragcore/internal/logger"
	"github.com/kailas-cloud/ragcore/internal/version"
)

var (
	cfgFile  string
	envName  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "Retrieval-augmented chatbot core for satellite and weather data portals",
	Long: `ragcore indexes documents into a vector index, answers questions with
hybrid retrieval plus knowledge graph facts, and serves both over HTTP.

Configuration is read from config/<env>.yaml (ENV, default local) or --config.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "environment name (default $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(serveCmd, ingestCmd, searchCmd, askCmd, statsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runtimeEnv resolves the environment, config and logger shared by all commands.
func runtimeEnv() (string, config.Config, *zap.Logger, error) {
	env := envName
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return "", config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logpkg.NewLoggerWithFile(env, level, logpkg.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return "", config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return env, cfg, logger, nil
}

// withApp builds the application, runs fn and closes the application.
// adjust, when non-nil, edits the loaded config first.
func withApp(
	ctx context.Context, adjust func(*config.Config), fn func(ctx context.Context, a *app.App) error,
) error {
	_, cfg, logger, err := runtimeEnv()
	if err != nil {
		return err
	}
	if adjust != nil {
		adjust(&cfg)
	}
	defer func() { _ = logger.Sync() }()

	ctx = logpkg.ContextWithLogger(ctx, logger)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	runErr := fn(ctx, a)

	// ctx may already be cancelled by a signal; the final snapshot still runs.
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := a.Close(closeCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// readOnly keeps commands that never modify the index from rewriting the snapshot.
func readOnly(c *config.Config) { c.Index.SaveOnShutdown = false }
