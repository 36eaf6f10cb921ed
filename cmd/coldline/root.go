package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/coldline/internal/logging"
	"github.com/aretw0/coldline/internal/script"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coldline",
	Short: "Coldline is an outbound phone call orchestrator",
	Long: `Coldline drives outbound sales calls through a fixed conversation flow:
greeting, qualification, objection handling, closing and goodbye. It places
calls over SIP via LiveKit and exposes a small control API per call.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("persona", "jack", "Builtin persona to run")
	rootCmd.PersistentFlags().String("script", "", "Path to a persona script file (overrides --persona)")
}

// loadScript resolves the --script/--persona flags into a validated script.
func loadScript(cmd *cobra.Command) (*script.Script, error) {
	if path, _ := cmd.Flags().GetString("script"); path != "" {
		return script.Load(path)
	}
	persona, _ := cmd.Flags().GetString("persona")
	return script.Builtin(persona)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	name, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return logging.New(level)
}
