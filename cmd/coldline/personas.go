package main

import (
	"fmt"

	"github.com/aretw0/coldline/internal/script"
	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the builtin persona scripts",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range script.BuiltinNames() {
			s, err := script.Builtin(name)
			if err != nil {
				fmt.Printf("%s\t(unloadable: %v)\n", name, err)
				continue
			}
			fmt.Printf("%s\t%s (%s)\n", name, s.AgentName, s.Company)
		}
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}
