package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/varkess/beatwarden/internal/app/broadcast"
)

func (b *Bot) handleDM(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionManageMessages) {
		return
	}
	_, opts := options(i)
	user := opts["user"].UserValue(s)
	message := opts["message"].StringValue()

	if err := b.dms.Direct(context.Background(), user.ID, message); err != nil {
		respond(s, i, fmt.Sprintf("Could not DM **%s**. They may have DMs closed.", user.Username))
		return
	}
	respond(s, i, fmt.Sprintf("Message sent to **%s**.", user.Username))
}

func (b *Bot) handleDMEveryone(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionAdministrator) {
		return
	}
	_, opts := options(i)
	message := opts["message"].StringValue()

	// Paging through the member list can take a while on big servers.
	if !deferReply(s, i) {
		return
	}

	members, err := b.guildMembers(s, i.GuildID)
	if err != nil {
		zlog.Error().Err(err).Msg("member listing failed")
		followUp(s, i, "Could not list the server members.")
		return
	}

	_, err = b.dms.Start(i.GuildID, members, message)
	if errors.Is(err, broadcast.ErrRunActive) {
		followUp(s, i, "A dmeveryone run is already in progress. Stop it first with /dmeveryonestop.")
		return
	}
	if err != nil {
		followUp(s, i, "Could not start the broadcast.")
		return
	}
	followUp(s, i, fmt.Sprintf("Messaging %d member(s) in the background. Use /dmeveryonestop to cancel.",
		len(members)))
}

func (b *Bot) handleDMEveryoneStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionAdministrator) {
		return
	}
	if b.dms.Stop(i.GuildID) {
		respondPublic(s, i, "Broadcast cancelled.")
		return
	}
	respond(s, i, "No broadcast is running.")
}

// guildMembers pages through the full member list.
func (b *Bot) guildMembers(s *discordgo.Session, guildID string) ([]broadcast.Member, error) {
	var members []broadcast.Member
	after := ""
	for {
		page, err := s.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, errors.Wrap(err, "list guild members")
		}
		if len(page) == 0 {
			return members, nil
		}
		for _, m := range page {
			members = append(members, broadcast.Member{ID: m.User.ID, IsBot: m.User.Bot})
		}
		after = page[len(page)-1].User.ID
	}
}
