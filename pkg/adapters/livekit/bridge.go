// Package livekit implements the telephony bridge and the job
// dispatcher on the LiveKit server API: SIP participants for outbound
// dialing, room deletion for termination, and agent dispatch for job
// submission.
package livekit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/twitchtv/twirp"

	"github.com/aretw0/coldline/internal/logging"
	"github.com/aretw0/coldline/pkg/domain"
	"github.com/aretw0/coldline/pkg/ports"
)

// Credentials selects the LiveKit deployment and outbound trunk.
type Credentials struct {
	URL       string
	APIKey    string
	APISecret string
	TrunkID   string
}

// Bridge implements ports.Telephony for one call session (room).
type Bridge struct {
	room   string
	trunk  string
	sip    *lksdk.SIPClient
	rooms  *lksdk.RoomServiceClient
	logger *slog.Logger

	hangup     chan struct{}
	hangupOnce sync.Once
}

// BridgeOption configures the Bridge.
type BridgeOption func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// NewBridge creates a telephony bridge bound to the given room.
func NewBridge(creds Credentials, room string, opts ...BridgeOption) *Bridge {
	url := HTTPURL(creds.URL)
	b := &Bridge{
		room:   room,
		trunk:  creds.TrunkID,
		sip:    lksdk.NewSIPClient(url, creds.APIKey, creds.APISecret),
		rooms:  lksdk.NewRoomServiceClient(url, creds.APIKey, creds.APISecret),
		logger: logging.NewNop(),
		hangup: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dial creates a SIP participant on the outbound trunk and blocks until
// the remote party answers. Provider rejections are mapped to
// *domain.DialError carrying the SIP status from the error metadata.
func (b *Bridge) Dial(ctx context.Context, target string, opts ports.DialOptions) error {
	identity := opts.Identity
	if identity == "" {
		identity = target
	}

	b.logger.Info("dialing sip participant", "room", b.room, "target", target)
	_, err := b.sip.CreateSIPParticipant(ctx, &livekit.CreateSIPParticipantRequest{
		RoomName:            b.room,
		SipTrunkId:          b.trunk,
		SipCallTo:           target,
		ParticipantIdentity: identity,
		WaitUntilAnswered:   true,
		KrispEnabled:        opts.NoiseCancellation,
	})
	if err != nil {
		return dialError(target, err)
	}
	return nil
}

// AwaitParticipant polls the room until the remote identity appears.
// CreateSIPParticipant already waits for the answer, so this normally
// returns on the first poll.
func (b *Bridge) AwaitParticipant(ctx context.Context, identity string) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		res, err := b.rooms.ListParticipants(ctx, &livekit.ListParticipantsRequest{Room: b.room})
		if err == nil {
			for _, p := range res.Participants {
				if p.Identity == identity {
					return nil
				}
			}
		} else {
			b.logger.Debug("participant poll failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Terminate deletes the room, dropping every participant. Errors are
// returned for logging only; the caller treats termination as best
// effort.
func (b *Bridge) Terminate(ctx context.Context) error {
	_, err := b.rooms.DeleteRoom(ctx, &livekit.DeleteRoomRequest{Room: b.room})
	if err != nil {
		return fmt.Errorf("failed to delete room %s: %w", b.room, err)
	}
	return nil
}

// Hangup returns a channel closed when the remote party drops the call.
func (b *Bridge) Hangup() <-chan struct{} {
	return b.hangup
}

// MarkRemoteHangup signals a remote disconnect. The hosting worker's
// room event handler calls this when the SIP participant leaves.
func (b *Bridge) MarkRemoteHangup() {
	b.hangupOnce.Do(func() { close(b.hangup) })
}

func dialError(target string, err error) *domain.DialError {
	de := &domain.DialError{
		Target: target,
		Reason: err.Error(),
		Err:    err,
	}
	var terr twirp.Error
	if errors.As(err, &terr) {
		de.Reason = terr.Msg()
		de.ProviderStatus = terr.Meta("sip_status")
	}
	return de
}
