package main

import (
	"strings"

	"github.com/spf13/cobra"

	"snowmcp/internal/config"
	"snowmcp/internal/tools"
)

func newToolsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var packagesPath string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List tool packages and the tools they expose",
		RunE: func(cmd *cobra.Command, args []string) error {
			packages, err := tools.LoadPackages(packagesPath)
			if err != nil {
				return err
			}

			if *jsonOutput {
				return writeJSON(packages)
			}
			for _, name := range packages.Names() {
				marker := " "
				if name == cfg.ToolPackage {
					marker = "*"
				}
				if err := writePlain("%s %s: %s\n", marker, name, strings.Join(packages[name], ", ")); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&packagesPath, "tool-packages", "", "path to a tool packages YAML file")
	return cmd
}
