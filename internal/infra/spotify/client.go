// Package spotify looks up track metadata on the Spotify API.
package spotify

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Market       string
}

// TrackMeta is the metadata needed to find a playable rendition of a
// Spotify track elsewhere.
type TrackMeta struct {
	Artist   string
	Title    string
	Duration time.Duration
}

// Client is a read-only Spotify API client. It uses the client
// credentials flow, so no user login is involved.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are required")
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := creds.Token(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "spotify token")
	}

	httpClient := spotifyauth.New().Client(ctx, token)

	market := cfg.Market
	if market == "" {
		market = "US"
	}

	return &Client{
		client:     spotify.New(httpClient),
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// Track retrieves metadata for a track given its ID, URL, or URI.
func (c *Client) Track(ctx context.Context, locator string) (TrackMeta, error) {
	id := ExtractTrackID(locator)

	var result *spotify.FullTrack
	err := c.retry(func() error {
		t, err := c.client.GetTrack(ctx, spotify.ID(id), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return TrackMeta{}, errors.Wrap(err, "get spotify track")
	}

	artists := make([]string, len(result.Artists))
	for i, a := range result.Artists {
		artists[i] = a.Name
	}

	return TrackMeta{
		Artist:   strings.Join(artists, ", "),
		Title:    result.Name,
		Duration: time.Duration(result.Duration) * time.Millisecond,
	}, nil
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// IsTrackLocator reports whether the input looks like a Spotify track
// URL or URI.
func IsTrackLocator(input string) bool {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "spotify:track:") {
		return true
	}
	return strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/")
}

// ExtractTrackID extracts the track ID from a Spotify track URL or URI.
func ExtractTrackID(input string) string {
	input = strings.TrimSpace(input)
	// URI format: spotify:track:TRACK_ID
	if strings.HasPrefix(input, "spotify:track:") {
		return strings.TrimPrefix(input, "spotify:track:")
	}

	// URL format: https://open.spotify.com/track/TRACK_ID or
	// https://open.spotify.com/intl-XX/track/TRACK_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/") {
		parts := strings.Split(input, "/track/")
		if len(parts) >= 2 {
			id := strings.Split(parts[len(parts)-1], "?")[0]
			id = strings.TrimRight(id, "/")
			return id
		}
	}

	// Assume it's already a track ID.
	return input
}
