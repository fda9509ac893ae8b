package player

import (
	"context"

	"github.com/varkess/beatwarden/internal/domain/track"
)

// Resolver turns a user-supplied locator into a playable track.
// Resolution may be slow (network); callers run it before touching any
// coordinator state.
type Resolver interface {
	Resolve(ctx context.Context, locator string) (track.Track, error)
}

// Transport owns streaming connections to voice destinations.
type Transport interface {
	// Connect establishes a voice session for the guild. Joining an
	// unreachable destination returns an error and no session.
	Connect(ctx context.Context, guildID, channelID string) (Session, error)
}

// Session is one live voice connection.
type Session interface {
	// Play streams t and invokes onDone exactly once when the track
	// finishes, errors out, or is cut short by StopCurrent.
	Play(t track.Track, onDone func(error)) error

	// StopCurrent cuts the in-flight track, if any. It does not
	// disconnect; the completion signal still fires through onDone.
	StopCurrent()

	// Move relocates the connection to another channel in the same
	// guild, keeping the session and any in-flight track alive.
	Move(ctx context.Context, channelID string) error

	// ChannelID returns the currently connected channel.
	ChannelID() string

	// Disconnect tears the connection down.
	Disconnect() error
}
