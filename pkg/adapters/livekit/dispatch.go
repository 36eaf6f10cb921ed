package livekit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/aretw0/coldline/pkg/ports"
)

// DispatchClient implements ports.Dispatcher on the LiveKit agent
// dispatch API.
type DispatchClient struct {
	dispatch *lksdk.AgentDispatchClient
	rooms    *lksdk.RoomServiceClient
}

// NewDispatchClient creates a dispatcher for the given deployment.
func NewDispatchClient(creds Credentials) *DispatchClient {
	url := HTTPURL(creds.URL)
	return &DispatchClient{
		dispatch: lksdk.NewAgentDispatchServiceClient(url, creds.APIKey, creds.APISecret),
		rooms:    lksdk.NewRoomServiceClient(url, creds.APIKey, creds.APISecret),
	}
}

// Check verifies connectivity and credentials with a cheap room listing
// before any dispatch is attempted.
func (c *DispatchClient) Check(ctx context.Context) error {
	if _, err := c.rooms.ListRooms(ctx, &livekit.ListRoomsRequest{}); err != nil {
		return fmt.Errorf("api connection failed: %w", err)
	}
	return nil
}

// CreateDispatch submits a call job routed by agent name.
func (c *DispatchClient) CreateDispatch(ctx context.Context, req ports.DispatchRequest) (*ports.DispatchInfo, error) {
	dispatch, err := c.dispatch.CreateDispatch(ctx, &livekit.CreateAgentDispatchRequest{
		AgentName: req.AgentName,
		Room:      req.Room,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent dispatch: %w", err)
	}
	return &ports.DispatchInfo{
		ID:   dispatch.Id,
		Room: dispatch.Room,
	}, nil
}

// RoomName builds a uniquely-named call session identifier for a
// persona. The random suffix keeps concurrent dispatches for the same
// persona from colliding.
func RoomName(persona string) string {
	return fmt.Sprintf("%s-outbound-call-%s", persona, uuid.NewString()[:8])
}
