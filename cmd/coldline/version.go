package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/coldline"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of coldline",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("coldline version %s\n", strings.TrimSpace(coldline.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
