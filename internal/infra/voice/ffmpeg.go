package voice

import (
	"context"
	"io"
	"os/exec"
	"strconv"

	"github.com/cockroachdb/errors"
)

const (
	sampleRate = 48000
	channels   = 2
	bitrate    = "96k"
)

// startFFmpeg launches ffmpeg transcoding the remote stream to Ogg
// Opus on stdout. Killing happens through ctx; the returned wait must
// be called after the output is drained to reap the process.
func startFFmpeg(ctx context.Context, path, streamURL string) (io.ReadCloser, func() error, error) {
	cmd := exec.CommandContext(ctx, path,
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", streamURL,
		"-vn",
		"-c:a", "libopus",
		"-b:a", bitrate,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-f", "ogg",
		"-loglevel", "warning",
		"pipe:1",
	)

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, errors.Wrap(err, "ffmpeg stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, errors.Wrap(err, "start ffmpeg")
	}
	return out, cmd.Wait, nil
}
