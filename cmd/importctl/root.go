package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "importctl",
		Short:         "Operate CSV import jobs",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSlice("env-file", []string{".env", ".env.local"}, "Env files to load when present")
	cmd.AddCommand(newProcessCmd())
	return cmd
}
