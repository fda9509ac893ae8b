package bot

import (
	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"
)

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" || i.Member == nil {
		respond(s, i, "This command only works inside a server.")
		return
	}

	data := i.ApplicationCommandData()
	switch data.Name {
	case "music":
		b.handleMusic(s, i)
	case "ban":
		b.handleBan(s, i)
	case "unban":
		b.handleUnban(s, i)
	case "timeout":
		b.handleTimeout(s, i)
	case "untimeout":
		b.handleUntimeout(s, i)
	case "warn":
		b.handleWarn(s, i)
	case "unwarn":
		b.handleUnwarn(s, i)
	case "viewwarns":
		b.handleViewWarns(s, i)
	case "feature":
		b.handleFeature(s, i)
	case "settimeout":
		b.handleSetTimeout(s, i)
	case "dm":
		b.handleDM(s, i)
	case "dmeveryone":
		b.handleDMEveryone(s, i)
	case "dmeveryonestop":
		b.handleDMEveryoneStop(s, i)
	default:
		zlog.Warn().Str("command", data.Name).Msg("unknown command")
	}
}

// options flattens the interaction's options, descending into the
// subcommand when one is present. The returned name is the subcommand
// name, empty for plain commands.
func options(i *discordgo.InteractionCreate) (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	opts := i.ApplicationCommandData().Options
	sub := ""
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		sub = opts[0].Name
		opts = opts[0].Options
	}
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return sub, m
}

// respond sends an immediate ephemeral reply.
func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		zlog.Warn().Err(err).Msg("interaction response failed")
	}
}

// respondPublic sends an immediate reply visible to the channel.
func respondPublic(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		zlog.Warn().Err(err).Msg("interaction response failed")
	}
}

// deferReply acknowledges the interaction so a slow handler gets the
// full followup window.
func deferReply(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		zlog.Warn().Err(err).Msg("interaction defer failed")
		return false
	}
	return true
}

// followUp completes a deferred interaction.
func followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	if err != nil {
		zlog.Warn().Err(err).Msg("interaction followup failed")
	}
}

// requirePermission replies with a refusal and returns false when the
// invoking member lacks the permission bit.
func requirePermission(s *discordgo.Session, i *discordgo.InteractionCreate, perm int64) bool {
	if i.Member.Permissions&perm != 0 {
		return true
	}
	respond(s, i, "You do not have permission to use this command.")
	return false
}
