package main

import (
	"github.com/fangliji/flowable-engine/internal/cli"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock <process-instance-id>",
	Short: "Show the read/write leases of a process instance",
	Long:  `Reads the leases guarding the graph of a process instance from the configured lease store.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.Lease(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
}
