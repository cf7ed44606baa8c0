package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	voyago "github.com/voyago/voyago"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of voyago",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("voyago version %s\n", strings.TrimSpace(voyago.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
