package voice

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/varkess/beatwarden/internal/domain/track"
)

// sendTimeout bounds how long a stalled voice connection can block a
// packet send before the stream is abandoned.
const sendTimeout = 2 * time.Second

type session struct {
	ffmpegPath string

	mu     sync.Mutex
	vc     *discordgo.VoiceConnection
	cancel context.CancelFunc
}

// Play starts streaming the track in the background. onDone fires
// exactly once when the stream ends, errors out, or is cut by
// StopCurrent (a cut stream completes with a nil error).
func (s *session) Play(t track.Track, onDone func(error)) error {
	if !t.IsResolved() {
		return errors.Newf("track %q has no stream URL", t.DisplayTitle())
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	vc := s.vc
	s.mu.Unlock()

	go func() {
		err := s.stream(ctx, vc, t)
		cancel()
		onDone(err)
	}()
	return nil
}

func (s *session) stream(ctx context.Context, vc *discordgo.VoiceConnection, t track.Track) error {
	out, wait, err := startFFmpeg(ctx, s.ffmpegPath, t.StreamURL)
	if err != nil {
		return err
	}
	defer func() {
		out.Close()
		wait()
	}()

	vc.Speaking(true)
	defer vc.Speaking(false)

	ogg := newOggReader(out)
	for {
		pkt, err := ogg.NextPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read audio stream")
		}
		if isOpusHeader(pkt) {
			continue
		}

		select {
		case vc.OpusSend <- pkt:
		case <-ctx.Done():
			return nil
		case <-time.After(sendTimeout):
			return errors.New("voice send timed out")
		}
	}
}

// StopCurrent cuts the in-flight stream, if any. Safe to call at any
// time; the Play completion callback still fires.
func (s *session) StopCurrent() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Move switches the session to another channel in the same guild.
func (s *session) Move(ctx context.Context, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	vc := s.vc
	s.mu.Unlock()
	return errors.Wrapf(vc.ChangeChannel(channelID, false, true), "move to channel %s", channelID)
}

// ChannelID returns the channel the session is connected to.
func (s *session) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vc.ChannelID
}

// Disconnect leaves the voice channel.
func (s *session) Disconnect() error {
	s.StopCurrent()
	s.mu.Lock()
	vc := s.vc
	s.mu.Unlock()
	return errors.Wrap(vc.Disconnect(), "leave voice channel")
}
