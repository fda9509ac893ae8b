package resolver

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/varkess/beatwarden/internal/domain/track"
)

// YTDLP shells out to yt-dlp. It handles any locator: URLs go through
// as-is and plain text becomes a search, so it works as the chain's
// catch-all.
type YTDLP struct {
	path string
}

// NewYTDLP creates a resolver invoking the yt-dlp binary at path.
func NewYTDLP(path string) *YTDLP {
	if path == "" {
		path = "yt-dlp"
	}
	return &YTDLP{path: path}
}

func (y *YTDLP) Name() string { return "yt-dlp" }

// Resolve asks yt-dlp for metadata and the best audio stream URL
// without downloading anything.
func (y *YTDLP) Resolve(ctx context.Context, locator string) (track.Track, error) {
	arg := locator
	if !strings.HasPrefix(locator, "http://") && !strings.HasPrefix(locator, "https://") {
		arg = "ytsearch1:" + locator
	}

	cmd := exec.CommandContext(ctx, y.path, "-j", "-f", "bestaudio", "--no-playlist", arg)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return track.Track{}, errors.Newf("yt-dlp failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return track.Track{}, errors.Wrap(err, "run yt-dlp")
	}

	t, err := parseInfo(output)
	if err != nil {
		return track.Track{}, err
	}
	t.Locator = locator
	return t, nil
}

// parseInfo extracts title, duration and stream URL from a yt-dlp -j
// info document.
func parseInfo(data []byte) (track.Track, error) {
	var info struct {
		Title    string  `json:"title"`
		Duration float64 `json:"duration"`
		URL      string  `json:"url"`
		Formats  []struct {
			URL string `json:"url"`
		} `json:"formats"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return track.Track{}, errors.Wrap(err, "decode yt-dlp output")
	}

	streamURL := strings.TrimSpace(info.URL)
	if streamURL == "" && len(info.Formats) > 0 {
		streamURL = strings.TrimSpace(info.Formats[len(info.Formats)-1].URL)
	}
	if streamURL == "" {
		return track.Track{}, errors.New("yt-dlp returned no stream URL")
	}

	return track.Track{
		Title:     info.Title,
		StreamURL: streamURL,
		Duration:  time.Duration(info.Duration * float64(time.Second)),
	}, nil
}
