package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/varkess/beatwarden/internal/app/player"
	"github.com/varkess/beatwarden/internal/domain/track"
)

func (b *Bot) handleMusic(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, opts := options(i)
	switch sub {
	case "play":
		b.handlePlay(s, i, opts["query"].StringValue())
	case "skip":
		b.handleSkip(s, i)
	case "stop":
		b.handleStop(s, i)
	case "queue":
		b.handleQueue(s, i)
	}
}

func (b *Bot) handlePlay(s *discordgo.Session, i *discordgo.InteractionCreate, query string) {
	vs, err := s.State.VoiceState(i.GuildID, i.Member.User.ID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		respond(s, i, "Join a voice channel first, then ask me to play something.")
		return
	}
	channelID := vs.ChannelID

	// Resolution hits the network; acknowledge now and follow up.
	if !deferReply(s, i) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(b.cfg.Player.ResolveTimeoutSec)*time.Second)
	defer cancel()

	t, err := b.resolver.Resolve(ctx, query)
	if err != nil {
		followUp(s, i, fmt.Sprintf("Could not find anything for `%s`.", query))
		return
	}
	t.RequestedBy = track.Requester{ID: i.Member.User.ID, Name: i.Member.User.Username}

	c := b.registry.GetOrCreate(i.GuildID, b.buildCoordinator(i.GuildID))
	if err := c.Connect(ctx, channelID); err != nil {
		if errors.Is(err, player.ErrStopped) {
			// The previous player wound down between lookup and connect;
			// a fresh lookup gets a live one.
			c = b.registry.GetOrCreate(i.GuildID, b.buildCoordinator(i.GuildID))
			err = c.Connect(ctx, channelID)
		}
		if err != nil {
			followUp(s, i, "I could not join your voice channel.")
			return
		}
	}

	c.Enqueue(t)
	followUp(s, i, fmt.Sprintf("Queued **%s**.", t.DisplayTitle()))
}

func (b *Bot) buildCoordinator(guildID string) func() *player.Coordinator {
	return func() *player.Coordinator {
		return player.NewCoordinator(guildID, b.transport)
	}
}

func (b *Bot) handleSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c, ok := b.registry.Get(i.GuildID)
	if !ok {
		respond(s, i, "Nothing is playing.")
		return
	}
	if err := c.Skip(); err != nil {
		respond(s, i, "Nothing is playing.")
		return
	}
	respondPublic(s, i, "Skipped.")
}

func (b *Bot) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c, ok := b.registry.Get(i.GuildID)
	if !ok {
		respond(s, i, "I am not playing anything here.")
		return
	}
	c.Stop()
	respondPublic(s, i, "Stopped playback and cleared the queue.")
}

func (b *Bot) handleQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c, ok := b.registry.Get(i.GuildID)
	if !ok {
		respond(s, i, "The queue is empty.")
		return
	}

	st := c.Status()
	switch {
	case st.Current != "":
		respond(s, i, fmt.Sprintf("Now playing **%s** with %d track(s) queued.", st.Current, st.Queued))
	case st.Queued > 0:
		respond(s, i, fmt.Sprintf("%d track(s) queued, nothing playing yet.", st.Queued))
	default:
		respond(s, i, "The queue is empty.")
	}
}
