package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/gator"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gator",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gator version %s\n", strings.TrimSpace(gator.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
