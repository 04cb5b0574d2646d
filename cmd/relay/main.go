package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-relay/cmd/relay/commands"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		debug      bool
	)

	runtime := &commands.Runtime{}

	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Credential-rotating gateway for LLM provider APIs",
		Long: `relay fronts a set of upstream LLM providers with one local endpoint,
rotating API credentials per request and benching the ones that fail.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			runtime.ConfigPath = configFile
			runtime.Logger = commands.NewStderrLogger(debug)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "relay.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewServeCommand(runtime),
		commands.NewMigrateCommand(runtime),
	)

	return rootCmd.Execute()
}
