package main

import (
	"fmt"

	"github.com/aretw0/keystone"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of keystone",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "keystone version %s\n", keystone.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
