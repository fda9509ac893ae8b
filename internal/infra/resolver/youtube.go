package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kkdai/youtube/v2"

	"github.com/varkess/beatwarden/internal/domain/track"
)

// YouTube resolves youtube.com and youtu.be links natively, without a
// subprocess. Anything else is declined so the chain can fall through
// to yt-dlp.
type YouTube struct {
	client *youtube.Client
}

// NewYouTube creates the resolver.
func NewYouTube() *YouTube {
	return &YouTube{client: &youtube.Client{}}
}

func (y *YouTube) Name() string { return "youtube" }

// Resolve fetches the video metadata and picks the first audio format.
func (y *YouTube) Resolve(ctx context.Context, locator string) (track.Track, error) {
	if !isYouTubeURL(locator) {
		return track.Track{}, ErrUnsupported
	}

	video, err := y.client.GetVideoContext(ctx, locator)
	if err != nil {
		return track.Track{}, errors.Wrap(err, "fetch video")
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return track.Track{}, errors.New("no audio formats for video")
	}

	streamURL, err := y.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return track.Track{}, errors.Wrap(err, "get stream URL")
	}

	return track.Track{
		Locator:   locator,
		StreamURL: streamURL,
		Title:     video.Title,
		Duration:  video.Duration,
	}, nil
}

func isYouTubeURL(locator string) bool {
	u, err := url.Parse(locator)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be":
		return true
	}
	return false
}
