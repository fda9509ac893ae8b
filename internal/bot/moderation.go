package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/varkess/beatwarden/internal/infra/store"
)

func (b *Bot) handleBan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionBanMembers) {
		return
	}
	_, opts := options(i)
	user := opts["user"].UserValue(s)
	reason := optionalString(opts, "reason")

	if err := s.GuildBanCreateWithReason(i.GuildID, user.ID, reason, 0); err != nil {
		zlog.Error().Err(err).Str("user", user.ID).Msg("ban failed")
		respond(s, i, "Ban failed. Check my role permissions and position.")
		return
	}
	respondPublic(s, i, fmt.Sprintf("Banned **%s**. %s", user.Username, reasonSuffix(reason)))
}

func (b *Bot) handleUnban(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionBanMembers) {
		return
	}
	_, opts := options(i)
	user := opts["user"].UserValue(s)

	if err := s.GuildBanDelete(i.GuildID, user.ID); err != nil {
		respond(s, i, "Unban failed. Is that user actually banned?")
		return
	}
	respondPublic(s, i, fmt.Sprintf("Unbanned **%s**.", user.Username))
}

func (b *Bot) handleTimeout(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionModerateMembers) {
		return
	}
	_, opts := options(i)
	user := opts["user"].UserValue(s)
	minutes := int(opts["minutes"].IntValue())
	reason := optionalString(opts, "reason")

	until := time.Now().Add(time.Duration(minutes) * time.Minute)
	if err := s.GuildMemberTimeout(i.GuildID, user.ID, &until); err != nil {
		zlog.Error().Err(err).Str("user", user.ID).Msg("timeout failed")
		respond(s, i, "Timeout failed. Check my role permissions and position.")
		return
	}
	respondPublic(s, i, fmt.Sprintf("Timed **%s** out for %d minute(s). %s",
		user.Username, minutes, reasonSuffix(reason)))
}

func (b *Bot) handleUntimeout(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionModerateMembers) {
		return
	}
	_, opts := options(i)
	user := opts["user"].UserValue(s)

	if err := s.GuildMemberTimeout(i.GuildID, user.ID, nil); err != nil {
		respond(s, i, "Could not lift the timeout.")
		return
	}
	respondPublic(s, i, fmt.Sprintf("Lifted the timeout on **%s**.", user.Username))
}

func (b *Bot) handleWarn(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionModerateMembers) {
		return
	}
	_, opts := options(i)
	user := opts["user"].UserValue(s)
	reason := opts["reason"].StringValue()

	ctx := context.Background()
	if _, err := b.store.AddWarn(ctx, i.GuildID, user.ID, reason, i.Member.User.ID); err != nil {
		zlog.Error().Err(err).Msg("warn storage failed")
		respond(s, i, "Could not record the warning.")
		return
	}

	warns, err := b.store.Warns(ctx, i.GuildID, user.ID)
	if err != nil {
		warns = nil
	}

	// Best effort; users can close their DMs.
	if err := b.sendDM(user.ID, fmt.Sprintf("You have been warned: %s", reason)); err != nil {
		zlog.Debug().Err(err).Str("user", user.ID).Msg("warn DM skipped")
	}

	respondPublic(s, i, fmt.Sprintf("Warned **%s** (warning #%d): %s",
		user.Username, len(warns), reason))
}

func (b *Bot) handleUnwarn(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionModerateMembers) {
		return
	}
	_, opts := options(i)
	user := opts["user"].UserValue(s)
	index := int(opts["index"].IntValue())

	err := b.store.RemoveWarn(context.Background(), i.GuildID, user.ID, index)
	if errors.Is(err, store.ErrWarnNotFound) {
		respond(s, i, fmt.Sprintf("**%s** has no warning #%d.", user.Username, index))
		return
	}
	if err != nil {
		zlog.Error().Err(err).Msg("unwarn storage failed")
		respond(s, i, "Could not remove the warning.")
		return
	}
	respondPublic(s, i, fmt.Sprintf("Removed warning #%d from **%s**.", index, user.Username))
}

func (b *Bot) handleViewWarns(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_, opts := options(i)
	user := opts["user"].UserValue(s)

	warns, err := b.store.Warns(context.Background(), i.GuildID, user.ID)
	if err != nil {
		zlog.Error().Err(err).Msg("warn lookup failed")
		respond(s, i, "Could not look up warnings.")
		return
	}
	if len(warns) == 0 {
		respond(s, i, fmt.Sprintf("**%s** has no warnings.", user.Username))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Warnings for **%s**:\n", user.Username)
	for n, w := range warns {
		fmt.Fprintf(&sb, "%d. %s (<@%s>, %s)\n",
			n+1, w.Reason, w.ModeratorID, w.CreatedAt.Format("2006-01-02"))
	}
	respond(s, i, sb.String())
}

func (b *Bot) handleFeature(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionManageServer) {
		return
	}
	_, opts := options(i)
	feature := opts["feature"].StringValue()
	enabled := opts["enabled"].BoolValue()

	if err := b.store.SetFeature(context.Background(), i.GuildID, feature, enabled); err != nil {
		zlog.Error().Err(err).Msg("feature toggle failed")
		respond(s, i, "Could not update the feature.")
		return
	}
	word := "disabled"
	if enabled {
		word = "enabled"
	}
	respondPublic(s, i, fmt.Sprintf("Feature `%s` is now %s.", feature, word))
}

func (b *Bot) handleSetTimeout(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !requirePermission(s, i, discordgo.PermissionManageServer) {
		return
	}
	_, opts := options(i)
	feature := opts["feature"].StringValue()
	minutes := int(opts["minutes"].IntValue())

	if err := b.store.SetFeatureTimeout(context.Background(), i.GuildID, feature, minutes); err != nil {
		zlog.Error().Err(err).Msg("feature timeout update failed")
		respond(s, i, "Could not update the timeout.")
		return
	}
	respondPublic(s, i, fmt.Sprintf("Feature `%s` now times offenders out for %d minute(s).",
		feature, minutes))
}

func optionalString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if o, ok := opts[name]; ok {
		return o.StringValue()
	}
	return ""
}

func reasonSuffix(reason string) string {
	if reason == "" {
		return ""
	}
	return "Reason: " + reason
}
