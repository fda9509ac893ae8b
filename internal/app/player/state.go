// Package player provides per-guild playback coordination: a FIFO
// queue of resolved tracks, a single consumption loop per guild, and a
// process-wide registry of active coordinators.
package player

// State represents a coordinator's playback state.
type State int

const (
	StateIdle    State = iota // No track playing, loop parked or not started
	StatePlaying              // Track is playing
	StateStopped              // Terminal; the coordinator is never reused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
