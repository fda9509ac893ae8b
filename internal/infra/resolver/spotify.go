package resolver

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/varkess/beatwarden/internal/domain/track"
	"github.com/varkess/beatwarden/internal/infra/spotify"
)

// TrackMetadata looks up artist and title for a Spotify track locator.
type TrackMetadata interface {
	Track(ctx context.Context, locator string) (spotify.TrackMeta, error)
}

// Spotify handles Spotify track links. Spotify does not serve audio,
// so the resolver fetches the track metadata and delegates the actual
// stream lookup to the next resolver as a search query.
type Spotify struct {
	meta TrackMetadata
	next Resolver
}

// NewSpotify creates the resolver. Delegated lookups go through next.
func NewSpotify(meta TrackMetadata, next Resolver) *Spotify {
	return &Spotify{meta: meta, next: next}
}

func (s *Spotify) Name() string { return "spotify" }

// Resolve maps the Spotify link to an "artist title" search and keeps
// the Spotify metadata for display.
func (s *Spotify) Resolve(ctx context.Context, locator string) (track.Track, error) {
	if !spotify.IsTrackLocator(locator) {
		return track.Track{}, ErrUnsupported
	}

	meta, err := s.meta.Track(ctx, locator)
	if err != nil {
		return track.Track{}, errors.Wrap(err, "spotify metadata")
	}

	t, err := s.next.Resolve(ctx, fmt.Sprintf("%s %s", meta.Artist, meta.Title))
	if err != nil {
		return track.Track{}, errors.Wrapf(err, "find stream for spotify track %q", meta.Title)
	}

	t.Locator = locator
	t.Title = fmt.Sprintf("%s - %s", meta.Artist, meta.Title)
	if meta.Duration > 0 {
		t.Duration = meta.Duration
	}
	return t, nil
}
