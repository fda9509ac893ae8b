package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"

	"github.com/varkess/beatwarden/internal/app/moderation"
)

// onMessageCreate runs every guild message through the detector chain
// and applies the verdict.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil || m.Author.Bot {
		return
	}
	if m.Author.ID == s.State.User.ID {
		return
	}

	features, err := b.store.Features(context.Background(), m.GuildID)
	if err != nil {
		zlog.Warn().Err(err).Str("guild", m.GuildID).Msg("feature lookup failed, detectors run with defaults")
		features = nil
	}

	enabled := make(map[string]bool, len(features))
	for name, state := range features {
		enabled[name] = state.Enabled
	}

	v := b.detectors.Check(moderation.Message{
		GuildID:   m.GuildID,
		UserID:    m.Author.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}, enabled)
	if !v.Flagged {
		return
	}

	// A per-guild timeout override beats the detector's own setting.
	timeout := v.Timeout
	if state, ok := features[v.Rule]; ok && state.TimeoutMinutes > 0 {
		timeout = time.Duration(state.TimeoutMinutes) * time.Minute
	}

	log := zlog.With().Str("guild", m.GuildID).Str("user", m.Author.ID).Str("rule", v.Rule).Logger()
	log.Info().Msg("message flagged")

	if v.Delete {
		if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			log.Warn().Err(err).Msg("flagged message delete failed")
		}
	}

	if timeout > 0 {
		until := time.Now().Add(timeout)
		if err := s.GuildMemberTimeout(m.GuildID, m.Author.ID, &until); err != nil {
			log.Warn().Err(err).Msg("automatic timeout failed")
			return
		}
	}

	if _, err := s.ChannelMessageSend(m.ChannelID,
		fmt.Sprintf("<@%s> %s", m.Author.ID, v.Reason)); err != nil {
		log.Warn().Err(err).Msg("verdict notice failed")
	}
}
