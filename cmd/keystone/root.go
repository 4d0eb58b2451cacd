package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/keystone/internal/cli"
	"github.com/aretw0/keystone/internal/config"
	"github.com/aretw0/keystone/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "keystone",
	Short: "Keystone records undoable actions on a model tree",
	Long: `Keystone groups every change made by an action on a model tree into one undo event.
This CLI runs a demo session and inspects the histories persisted by the configured store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("store") {
			loaded.Store.Backend, _ = cmd.Flags().GetString("store")
		}
		if cmd.Flags().Changed("dir") {
			loaded.Store.Path, _ = cmd.Flags().GetString("dir")
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		level, err := logging.ParseLevel(loaded.LogLevel)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().String("store", config.BackendFile, "History store backend: memory, file, redis or badger")
	rootCmd.PersistentFlags().String("dir", "", "Directory of the file or badger store")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
}

// openBackend opens the configured history store. Callers must Close it.
func openBackend() (*cli.Backend, error) {
	b, err := cli.OpenBackend(cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return b, nil
}
