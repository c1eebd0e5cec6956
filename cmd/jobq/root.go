package main

import (
	"github.com/BranchIntl/jobq/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "jobq",
		Short:        "An in-memory priority job queue with an HTTP API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())

	return rootCmd
}

// addConfigFlags registers flags for the settings most often overridden on
// the command line
func addConfigFlags(cmd *cobra.Command) {
	defaults := config.Default()
	flags := cmd.Flags()
	flags.String("addr", defaults.HTTPAddr, "HTTP listen address")
	flags.Int("concurrency", defaults.Concurrency, "number of workers")
	flags.Int("capacity", defaults.Capacity, "maximum number of tracked jobs")
	flags.Int("max-retries", defaults.DefaultMaxRetries, "default retry budget")
	flags.String("stats", defaults.StatsType, "statistics backend (noop, redis, rabbitmq)")
	flags.String("stats-uri", "", "statistics backend URI")
	flags.String("log-level", defaults.Logging.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Logging.Format, "log format (text, json)")
}

// loadConfig reads the environment and applies explicitly set flags on top
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.HTTPAddr, _ = flags.GetString("addr")
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("capacity") {
		cfg.Capacity, _ = flags.GetInt("capacity")
	}
	if flags.Changed("max-retries") {
		cfg.DefaultMaxRetries, _ = flags.GetInt("max-retries")
	}
	if flags.Changed("stats") {
		cfg.StatsType, _ = flags.GetString("stats")
	}
	if flags.Changed("stats-uri") {
		cfg.StatsURI, _ = flags.GetString("stats-uri")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
