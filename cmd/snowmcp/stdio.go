package main

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"snowmcp/internal/auth"
	"snowmcp/internal/config"
	"snowmcp/internal/server"
	"snowmcp/internal/session"
	"snowmcp/internal/snow"
)

func newStdioCmd(cfg *config.Config) *cobra.Command {
	var packagesPath string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Run the MCP server over stdio using configured credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.InstanceURL == "" {
				return fmt.Errorf("instance_url is required (set SERVICENOW_INSTANCE_URL or the instance_url config key)")
			}

			authCfg, err := cfg.AuthManagerConfig()
			if err != nil {
				return err
			}
			client := snow.NewClient(cfg.InstanceURL, auth.NewManager(authCfg), cfg.Timeout())

			defs, err := selectTools(cfg, packagesPath)
			if err != nil {
				return err
			}

			mcpServer := server.New(version, defs)
			return mcpserver.ServeStdio(mcpServer,
				mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
					return session.WithClient(ctx, client)
				}),
			)
		},
	}

	cmd.Flags().StringVar(&packagesPath, "tool-packages", "", "path to a tool packages YAML file")
	return cmd
}
