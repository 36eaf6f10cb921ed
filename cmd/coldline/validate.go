package main

import (
	"fmt"
	"os"

	"github.com/aretw0/coldline/internal/script"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [script.yaml]",
	Short: "Check a persona script for consistency",
	Long:  `Parses the script, renders every acknowledgement template and compiles the conversation flow, reporting the first problem found.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Script is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	var (
		s   *script.Script
		err error
	)
	if len(args) > 0 {
		s, err = script.Load(args[0])
	} else {
		s, err = loadScript(cmd)
	}
	if err != nil {
		return err
	}
	if _, err := s.Compile(); err != nil {
		return err
	}
	return nil
}
