package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/emberly"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of emberly",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "emberly version %s\n", strings.TrimSpace(emberly.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
