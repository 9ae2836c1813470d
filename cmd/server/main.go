// Package main is the entry point for the copydesk server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/blueberrycongee/copydesk/internal/config"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		envFile    string
	)

	root := &cobra.Command{
		Use:           "copydesk",
		Short:         "LinkedIn copy generation and evaluation service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadEnvFile(envFile)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to configuration file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the config")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configPath, os.Stdout)
		},
	}

	validate := &cobra.Command{
		Use:   "validate-config",
		Short: "Check a configuration file and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromFile(configPath)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d provider slots, rate limit backend %s)\n",
				configPath, len(cfg.Providers), cfg.RateLimit.Backend)
			return nil
		},
	}

	root.AddCommand(serve, validate)
	return root
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
