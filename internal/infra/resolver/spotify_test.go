package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varkess/beatwarden/internal/domain/track"
	"github.com/varkess/beatwarden/internal/infra/spotify"
)

type stubMetadata struct {
	meta spotify.TrackMeta
	err  error
}

func (s *stubMetadata) Track(ctx context.Context, locator string) (spotify.TrackMeta, error) {
	return s.meta, s.err
}

func TestSpotify_DelegatesAsSearch(t *testing.T) {
	next := &captureResolver{track: track.Track{
		StreamURL: "https://cdn.example.com/a.webm",
		Duration:  200 * time.Second,
	}}
	s := NewSpotify(&stubMetadata{meta: spotify.TrackMeta{
		Artist:   "Rick Astley",
		Title:    "Never Gonna Give You Up",
		Duration: 213 * time.Second,
	}}, next)

	locator := "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"
	got, err := s.Resolve(context.Background(), locator)
	require.NoError(t, err)

	assert.Equal(t, "Rick Astley Never Gonna Give You Up", next.lastLocator)
	assert.Equal(t, locator, got.Locator)
	assert.Equal(t, "Rick Astley - Never Gonna Give You Up", got.Title)
	assert.Equal(t, "https://cdn.example.com/a.webm", got.StreamURL)
	assert.Equal(t, 213*time.Second, got.Duration, "spotify duration wins")
}

func TestSpotify_DeclinesNonSpotify(t *testing.T) {
	s := NewSpotify(&stubMetadata{}, &captureResolver{})

	_, err := s.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSpotify_MetadataFailure(t *testing.T) {
	s := NewSpotify(&stubMetadata{err: errors.New("401 unauthorized")}, &captureResolver{})

	_, err := s.Resolve(context.Background(), "spotify:track:4uLU6hMCjMI75M1A2tKUQC")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupported)
}

type captureResolver struct {
	track       track.Track
	err         error
	lastLocator string
}

func (c *captureResolver) Name() string { return "capture" }

func (c *captureResolver) Resolve(ctx context.Context, locator string) (track.Track, error) {
	c.lastLocator = locator
	return c.track, c.err
}
