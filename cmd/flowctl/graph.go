package main

import (
	"os"

	"github.com/fangliji/flowable-engine/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <path>",
	Short: "Export the process graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) for a definition file or every definition of a directory.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Graph(args[0], cmd.OutOrStdout())
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <path>",
	Short: "Summarize process definitions",
	Long:  `Prints the nodes, flows and diagram of definitions as markdown, styled when writing to a terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		styled, width := false, 80
		if fd := int(os.Stdout.Fd()); cmd.OutOrStdout() == os.Stdout && term.IsTerminal(fd) {
			styled = true
			if w, _, err := term.GetSize(fd); err == nil && w > 0 {
				width = w
			}
		}
		return cli.Describe(args[0], cmd.OutOrStdout(), styled, width)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(describeCmd)
}
