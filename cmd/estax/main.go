package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rpgo/estimated-tax/internal/config"
	"github.com/rpgo/estimated-tax/internal/logging"
	"github.com/rpgo/estimated-tax/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var version = "dev"

// app carries the state shared by every command once the root command's
// pre-run hook has loaded settings.
type app struct {
	v        *viper.Viper
	cfgFile  string
	envFile  string
	registry *storage.Registry

	settings *config.Settings
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), registry: storage.DefaultRegistry(), logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "estax",
		Short: "Form 1040-ES estimated tax calculator",
		Long: `estax works through the IRS Form 1040-ES self-employment tax worksheet and
estimated tax worksheet, tells you whether quarterly estimated payments are
required and keeps saved estimates in a local database.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
		PersistentPostRun: func(_ *cobra.Command, _ []string) { _ = a.logger.Sync() },
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./estax.yaml or $HOME/.config/estax/estax.yaml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console, json)")
	pf.String("db-backend", "", "storage backend (sqlite, postgres, memory)")
	pf.String("dsn", "", "database path or connection string")

	_ = a.v.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("logging.format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("database.backend", pf.Lookup("db-backend"))
	_ = a.v.BindPFlag("database.dsn", pf.Lookup("dsn"))

	rootCmd.AddCommand(a.seCmd())
	rootCmd.AddCommand(a.calcCmd())
	rootCmd.AddCommand(a.taxCmd())
	rootCmd.AddCommand(a.dueCmd())
	rootCmd.AddCommand(a.bracketsCmd())
	rootCmd.AddCommand(a.estimatesCmd())
	rootCmd.AddCommand(a.migrateCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	if err := loadEnvFile(a.envFile); err != nil {
		return err
	}

	s, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:      s.Logging.Level,
		Format:     s.Logging.Format,
		OutputFile: s.Logging.File,
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	a.settings = s
	a.logger = logger
	return nil
}

// loadEnvFile exports the variables of a dotenv file. A missing file is fine;
// variables already set in the environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "estax version %s\n", version)
		},
	}
}
