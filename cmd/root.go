package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logLevel string
	cfgFile  string
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "adaptivezoo",
	Short: "Adaptive zeroth-order optimization in random subspaces",
	Long: `adaptivezoo minimizes black-box objectives without derivatives. It searches
a random low-dimensional projection of the input space, estimates gradients
from function differences and adapts its step size as the estimates accumulate.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger(logLevel)
		return loadConfig(cmd, cfgFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml); flags override it")
}

func setupLogger(name string) {
	var level slog.Level
	switch name {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// loadConfig binds the executing command's flags to viper. Values resolve
// as flag, then ZOO_* environment variable, then config file, then default.
func loadConfig(cmd *cobra.Command, path string) error {
	viper.SetEnvPrefix("ZOO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	slog.Debug("Loaded config file", "path", viper.ConfigFileUsed())
	return nil
}
