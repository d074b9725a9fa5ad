package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	toolsJSON     bool
	toolsCategory string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools offered by the tool host",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "print the raw catalog as JSON")
	toolsCmd.Flags().StringVar(&toolsCategory, "category", "", "only list tools in this category (os, math, filesystem, text, network, database)")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	tools, err := e.client().ListToolsInCategory(cmd.Context(), toolsCategory)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if toolsJSON {
		data, err := json.MarshalIndent(tools, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	for _, t := range tools {
		fmt.Fprintf(out, "%s(%s)\n", t.Name, strings.Join(t.ParameterNames(), ", "))
		if t.Description != "" {
			fmt.Fprintf(out, "    %s\n", t.Description)
		}
	}
	fmt.Fprintf(out, "%d tools\n", len(tools))
	return nil
}
