// Package main provides the bot entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/varkess/beatwarden/internal/app/moderation"
	"github.com/varkess/beatwarden/internal/bot"
	"github.com/varkess/beatwarden/internal/infra/config"
	"github.com/varkess/beatwarden/internal/infra/logger"
	"github.com/varkess/beatwarden/internal/infra/resolver"
	"github.com/varkess/beatwarden/internal/infra/spotify"
	"github.com/varkess/beatwarden/internal/infra/store"
	"github.com/varkess/beatwarden/internal/infra/voice"
)

var (
	app        = kingpin.New("beatwarden", "Discord moderation and music bot")
	configPath = app.Flag("config", "Path to config file").Default("config/bot.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// list-detectors command
	listDetectorsCmd = app.Command("list-detectors", "List available message detectors and exit")
)

func init() {
	// start command (default)
	app.Command("start", "Start the bot (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listDetectorsCmd.FullCommand() {
		printDetectors()
		return
	}

	loggerConfig := logger.Config{Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Bot error: %v", err)
		os.Exit(1)
	}
}

// run executes the main bot logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	discord, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	res, err := buildResolver(ctx, cfg)
	if err != nil {
		return err
	}

	transport := voice.NewTransport(discord, cfg.Player.FFmpegPath)

	b, err := bot.New(cfg, discord, st, transport, res)
	if err != nil {
		return fmt.Errorf("failed to assemble bot: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Translate shutdown signals into context cancellation.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		zlog.Info().Msg("Received shutdown signal...")
		cancel()
	}()

	if err := b.Start(runCtx); err != nil {
		return fmt.Errorf("bot stopped with error: %w", err)
	}

	zlog.Info().Msg("Bot stopped")
	return nil
}

// buildResolver assembles the locator resolution chain: native YouTube
// first, Spotify metadata mapping when credentials are configured, and
// yt-dlp as the catch-all for everything else.
func buildResolver(ctx context.Context, cfg *config.Config) (*resolver.Chain, error) {
	ytdlp := resolver.NewYTDLP(cfg.Player.YTDLPPath)

	resolvers := []resolver.Resolver{resolver.NewYouTube()}
	if cfg.SpotifyEnabled() {
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify client: %w", err)
		}
		resolvers = append(resolvers, resolver.NewSpotify(client, ytdlp))
		zlog.Info().Msg("Spotify resolver enabled")
	}
	resolvers = append(resolvers, ytdlp)

	return resolver.NewChain(resolvers...), nil
}

// printDetectors prints available message detectors.
func printDetectors() {
	fmt.Println("Available Detectors:")
	for _, factory := range moderation.GetRegistered() {
		d := factory()
		fmt.Printf("  %-20s - %s\n", d.Name(), d.Description())
	}
}
