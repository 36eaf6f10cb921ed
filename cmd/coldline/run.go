package main

import (
	"fmt"
	"os"

	"github.com/aretw0/coldline/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd starts a simulated call on the local terminal. No telephony or
// speech provider is involved; the operator plays the prospect.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulated call in the terminal",
	Long: `Starts a call against an in-memory bridge and drives the conversation
flow from stdin. Useful for exercising persona scripts before dialing
real prospects.`,
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadScript(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		console := cli.NewConsole(os.Stdin, os.Stdout, newLogger(cmd))
		if err := console.Run(cmd.Context(), s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
