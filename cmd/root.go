package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	verbose bool
)

// Logger is configured by the root command before any subcommand runs.
var Logger = zap.NewNop()

var RootCmd = &cobra.Command{
	Use:   "db-sync",
	Short: "A MySQL schema synchronization script generator",
	Long: `
  ____  ____    ______   ___   _  ____
 |  _ \| __ )  / ___\ \ / / \ | |/ ___|
 | | | |  _ \  \___ \\ V /|  \| | |
 | |_| | |_) |  ___) || | | |\  | |___
 |____/|____/  |____/ |_| |_| \_|\____|

DB SYNC - compares two MySQL/MariaDB schemas and writes the DDL
that brings the target in line with the source. Nothing is executed.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := viper.GetString("log.level")
		if verbose {
			level = "debug"
		}
		l, err := newLogger(level)
		if err != nil {
			return err
		}
		Logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = Logger.Sync()
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, yaml or .env (default is ./db-sync.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	viper.SetDefault("log.level", "info")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if filepath.Base(cfgFile) == ".env" || filepath.Ext(cfgFile) == ".env" {
			viper.SetConfigType("env")
		}
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("db-sync")
		viper.SetConfigType("yaml")
	}

	// SOURCE_HOST overrides source.host
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Error:", fmt.Errorf("read config %s: %w", cfgFile, err))
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log.level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}
