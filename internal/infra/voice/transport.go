// Package voice streams audio into Discord voice channels.
package voice

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/varkess/beatwarden/internal/app/player"
)

// Transport dials Discord voice channels over an existing gateway
// session.
type Transport struct {
	discord    *discordgo.Session
	ffmpegPath string
}

// NewTransport creates a transport. Streaming subprocesses use the
// ffmpeg binary at ffmpegPath.
func NewTransport(discord *discordgo.Session, ffmpegPath string) *Transport {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transport{discord: discord, ffmpegPath: ffmpegPath}
}

// Connect joins the voice channel and returns the live session.
func (t *Transport) Connect(ctx context.Context, guildID, channelID string) (player.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vc, err := t.discord.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, errors.Wrapf(err, "join voice channel %s", channelID)
	}
	return &session{vc: vc, ffmpegPath: t.ffmpegPath}, nil
}
