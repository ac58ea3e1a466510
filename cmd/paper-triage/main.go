// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-triage CLI.
// It evaluates a list of research papers against a company and department
// description and reports a relevance verdict per paper.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-triage/internal/logging"
	"github.com/pdiddy/paper-triage/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// Process exit codes.
const (
	exitOK          = 0
	exitItemsFailed = 1
	exitConfig      = 2
)

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	logger = zap.NewNop()
)

// rootCmd is the base command for the paper-triage CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-triage",
	Short: "Rate research papers for relevance to your company and department",
	Long: `paper-triage fetches the title and abstract of each paper in a URL list and
asks a language model whether the paper is relevant to your company and your
department. Papers are processed concurrently under a fixed cap, and oracle
calls are retried with exponential backoff.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(viper.GetString("log.level"), viper.GetString("log.format"))
		if err != nil {
			return err
		}
		logger = l

		s, err := secrets.Load(secrets.DefaultDir, logger.Named("secrets"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-triage.yaml or ~/.config/paper-triage/config.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-triage")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-triage"))
		}
	}

	viper.SetEnvPrefix("PAPER_TRIAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// itemsFailedError reports a batch that finished with failed items.
type itemsFailedError struct {
	failed, total int
}

func (e *itemsFailedError) Error() string {
	return fmt.Sprintf("%d of %d paper(s) failed evaluation", e.failed, e.total)
}

// exitCode maps a command error to the process exit status. Anything that is
// not a per-item failure stopped the run before batch work began.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var failed *itemsFailedError
	if errors.As(err, &failed) {
		return exitItemsFailed
	}
	return exitConfig
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	_ = logger.Sync()
	os.Exit(exitCode(err))
}
