package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snowmcp/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		logLevel   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "snowmcp",
		Short: "Snowmcp exposes ServiceNow record tables as MCP tools",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(
		newServeCmd(cfg),
		newStdioCmd(cfg),
		newToolsCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
	)

	return cmd
}
