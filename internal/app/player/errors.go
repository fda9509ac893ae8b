package player

import "github.com/cockroachdb/errors"

// Errors
var (
	// ErrNotConnected is returned when playback is attempted with no
	// voice session established.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrNothingPlaying is returned by Skip when no track is current.
	ErrNothingPlaying = errors.New("nothing is playing")

	// ErrStopped is returned for operations on a stopped coordinator.
	// A stopped coordinator is never reused; callers should obtain a
	// fresh one from the registry.
	ErrStopped = errors.New("player is stopped")
)
