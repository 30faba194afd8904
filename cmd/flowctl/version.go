package main

import (
	"fmt"
	"strings"

	"github.com/fangliji/flowable-engine"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowctl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flowctl version %s\n", strings.TrimSpace(flowable.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
