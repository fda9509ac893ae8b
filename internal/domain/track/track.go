// Package track provides the Track domain entity.
package track

import "time"

// Track represents one resolved, playable piece of media.
// A Track is immutable once resolved; ownership transfers between the
// queue and the coordinator's current slot, it is never shared.
type Track struct {
	Locator     string        // User-supplied URL or search phrase
	StreamURL   string        // Resolved audio stream reference
	Title       string        // Display title, may be empty
	Duration    time.Duration // Zero when the source does not report one
	RequestedBy Requester     // Who asked for the track
}

// Requester identifies the user who requested a track.
type Requester struct {
	ID   string // Discord user ID
	Name string // Display name at request time
}

// DisplayTitle returns the track title, falling back to the locator
// when resolution produced no title.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Locator
}

// IsResolved reports whether the track carries a playable stream reference.
func (t Track) IsResolved() bool {
	return t.StreamURL != ""
}
