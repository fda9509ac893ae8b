// Package bot wires the Discord gateway to the player, moderation and
// broadcast services.
package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/varkess/beatwarden/internal/app/broadcast"
	"github.com/varkess/beatwarden/internal/app/moderation"
	"github.com/varkess/beatwarden/internal/app/player"
	"github.com/varkess/beatwarden/internal/infra/config"
	"github.com/varkess/beatwarden/internal/infra/store"
)

// Bot is the running Discord bot.
type Bot struct {
	cfg       *config.Config
	discord   *discordgo.Session
	store     *store.Store
	registry  *player.Registry
	transport player.Transport
	resolver  player.Resolver
	detectors *moderation.Chain
	dms       *broadcast.Manager

	registeredCommands []*discordgo.ApplicationCommand
}

// New assembles a bot from its parts. The gateway session must not be
// opened yet; Start opens it.
func New(cfg *config.Config, discord *discordgo.Session, st *store.Store, transport player.Transport, res player.Resolver) (*Bot, error) {
	b := &Bot{
		cfg:       cfg,
		discord:   discord,
		store:     st,
		registry:  player.NewRegistry(),
		transport: transport,
		resolver:  res,
	}

	chain, err := buildDetectorChain(cfg)
	if err != nil {
		return nil, err
	}
	b.detectors = chain

	b.dms = broadcast.NewManager(
		cfg.Broadcast.MessagesPerSecond,
		cfg.Broadcast.Burst,
		b.sendDM,
	)

	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	discord.AddHandler(b.onReady)
	discord.AddHandler(b.onInteractionCreate)
	discord.AddHandler(b.onMessageCreate)

	return b, nil
}

// buildDetectorChain instantiates every detector enabled in the file
// configuration, applying its settings.
func buildDetectorChain(cfg *config.Config) (*moderation.Chain, error) {
	chain := moderation.NewChain()
	for name, factory := range moderation.GetRegistered() {
		if !cfg.IsDetectorEnabled(name) {
			continue
		}
		d := factory()
		if err := d.Configure(cfg.DetectorSettings(name)); err != nil {
			return nil, errors.Wrapf(err, "configure detector %s", name)
		}
		chain.Add(d)
	}
	return chain, nil
}

// Start opens the gateway connection and blocks until the context is
// cancelled, then shuts everything down.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.discord.Open(); err != nil {
		return errors.Wrap(err, "open gateway session")
	}

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	b.registry.Shutdown()
	b.dms.Shutdown()
	b.unregisterCommands()
	return errors.Wrap(b.discord.Close(), "close gateway session")
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	zlog.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway ready")
	b.registerCommands()
}

// registerCommands pushes the slash command set to Discord, scoped to
// the configured guild when one is set.
func (b *Bot) registerCommands() {
	appID := b.discord.State.User.ID
	guildID := b.cfg.Discord.GuildID

	for _, def := range commandDefinitions() {
		created, err := b.discord.ApplicationCommandCreate(appID, guildID, def)
		if err != nil {
			zlog.Error().Err(err).Str("command", def.Name).Msg("command registration failed")
			continue
		}
		b.registeredCommands = append(b.registeredCommands, created)
		// Stay well under Discord's rate limit.
		time.Sleep(25 * time.Millisecond)
	}
	zlog.Info().Int("count", len(b.registeredCommands)).Msg("slash commands registered")
}

func (b *Bot) unregisterCommands() {
	appID := b.discord.State.User.ID
	guildID := b.cfg.Discord.GuildID

	for _, cmd := range b.registeredCommands {
		if err := b.discord.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			zlog.Warn().Err(err).Str("command", cmd.Name).Msg("command removal failed")
		}
	}
}

// sendDM opens (or reuses) the DM channel with a user and delivers one
// message.
func (b *Bot) sendDM(userID, content string) error {
	ch, err := b.discord.UserChannelCreate(userID)
	if err != nil {
		return errors.Wrap(err, "open DM channel")
	}
	_, err = b.discord.ChannelMessageSend(ch.ID, content)
	return errors.Wrap(err, "send DM")
}
