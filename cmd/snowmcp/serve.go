package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"snowmcp/internal/config"
	"snowmcp/internal/server"
	"snowmcp/internal/tools"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var (
		listenAddr   string
		packagesPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over SSE",
		Long: "Run the MCP server over SSE. Each session authenticates with the " +
			server.HeaderInstanceURL + ", " + server.HeaderUsername + " and " +
			server.HeaderPassword + " headers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default().With("component", "sse")

			raw := listenAddr
			if raw == "" {
				raw = cfg.ListenAddr
			}
			addr, err := server.ListenAddr(raw)
			if err != nil {
				return err
			}

			defs, err := selectTools(cfg, packagesPath)
			if err != nil {
				return err
			}

			mcpServer := server.New(version, defs)
			app := server.NewSSEApp(addr, mcpServer, cfg.Timeout(), logger)
			return app.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (host:port)")
	cmd.Flags().StringVar(&packagesPath, "tool-packages", "", "path to a tool packages YAML file")
	return cmd
}

func selectTools(cfg *config.Config, packagesPath string) ([]tools.Definition, error) {
	packages, err := tools.LoadPackages(packagesPath)
	if err != nil {
		return nil, err
	}
	return packages.Select(cfg.ToolPackage)
}
