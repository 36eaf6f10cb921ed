package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/coldline/internal/config"
	"github.com/aretw0/coldline/pkg/adapters/livekit"
	"github.com/aretw0/coldline/pkg/domain"
	"github.com/aretw0/coldline/pkg/ports"
	"github.com/spf13/cobra"
)

// dispatchCmd submits a call job to the deployment. The agent worker
// picks the job up and places the actual call; this command only
// enqueues and reports.
var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Submit an outbound call job",
	Long: `Creates an agent dispatch for the given phone number. The job is routed
by the persona's agent name; a worker running "coldline agent" picks it
up and drives the call. Dispatch failures are reported once, never retried.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDispatch(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(dispatchCmd)

	dispatchCmd.Flags().String("to", "", "Phone number to dial (E.164)")
	dispatchCmd.Flags().String("room", "", "Call session name (defaults to a generated one)")
	_ = dispatchCmd.MarkFlagRequired("to")
}

func runDispatch(cmd *cobra.Command) error {
	s, err := loadScript(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("incomplete environment: %w", err)
	}

	phone, _ := cmd.Flags().GetString("to")
	if phone == "" {
		return domain.ErrMissingPhoneNumber
	}
	payload, err := json.Marshal(domain.JobMetadata{PhoneNumber: phone})
	if err != nil {
		return err
	}

	room, _ := cmd.Flags().GetString("room")
	if room == "" {
		room = livekit.RoomName(s.Persona)
	}

	client := livekit.NewDispatchClient(livekit.Credentials{
		URL:       cfg.LiveKit.URL,
		APIKey:    cfg.LiveKit.APIKey,
		APISecret: cfg.LiveKit.APISecret,
	})

	ctx := cmd.Context()
	if err := client.Check(ctx); err != nil {
		return err
	}

	info, err := client.CreateDispatch(ctx, ports.DispatchRequest{
		AgentName: s.AgentName,
		Room:      room,
		Metadata:  string(payload),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Dispatched call job %s\n", info.ID)
	fmt.Printf("  room:    %s\n", info.Room)
	fmt.Printf("  persona: %s\n", s.Persona)
	fmt.Printf("  to:      %s\n", phone)
	return nil
}
