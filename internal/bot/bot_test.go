package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varkess/beatwarden/internal/infra/config"
)

func TestCommandDefinitions(t *testing.T) {
	defs := commandDefinitions()
	require.NotEmpty(t, defs)

	seen := make(map[string]bool)
	for _, def := range defs {
		assert.NotEmpty(t, def.Name)
		assert.NotEmpty(t, def.Description)
		assert.False(t, seen[def.Name], "duplicate command %s", def.Name)
		seen[def.Name] = true
	}

	for _, name := range []string{
		"music", "ban", "unban", "timeout", "untimeout",
		"warn", "unwarn", "viewwarns", "feature", "settimeout",
		"dm", "dmeveryone", "dmeveryonestop",
	} {
		assert.True(t, seen[name], "missing command %s", name)
	}
}

func TestCommandDefinitions_MusicSubcommands(t *testing.T) {
	var music *discordgo.ApplicationCommand
	for _, def := range commandDefinitions() {
		if def.Name == "music" {
			music = def
		}
	}
	require.NotNil(t, music)

	subs := make(map[string]bool)
	for _, opt := range music.Options {
		require.Equal(t, discordgo.ApplicationCommandOptionSubCommand, opt.Type)
		subs[opt.Name] = true
	}
	assert.Equal(t, map[string]bool{"play": true, "skip": true, "stop": true, "queue": true}, subs)
}

func TestOptions_Subcommand(t *testing.T) {
	i := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: "music",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{
						Name: "play",
						Type: discordgo.ApplicationCommandOptionSubCommand,
						Options: []*discordgo.ApplicationCommandInteractionDataOption{
							{Name: "query", Type: discordgo.ApplicationCommandOptionString, Value: "some song"},
						},
					},
				},
			},
		},
	}

	sub, opts := options(i)
	assert.Equal(t, "play", sub)
	require.Contains(t, opts, "query")
	assert.Equal(t, "some song", opts["query"].StringValue())
}

func TestOptions_PlainCommand(t *testing.T) {
	i := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: "dmeveryone",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "message", Type: discordgo.ApplicationCommandOptionString, Value: "hello"},
				},
			},
		},
	}

	sub, opts := options(i)
	assert.Empty(t, sub)
	assert.Equal(t, "hello", opts["message"].StringValue())
}

func TestBuildDetectorChain(t *testing.T) {
	cfg := &config.Config{
		Detectors: map[string]config.DetectorConfig{
			"anti_cursing": {Enabled: true},
			"anti_spam":    {Enabled: false},
		},
	}

	chain, err := buildDetectorChain(cfg)
	require.NoError(t, err)
	require.Len(t, chain.Detectors(), 1)
	assert.Equal(t, "anti_cursing", chain.Detectors()[0].Name())
}

func TestBuildDetectorChain_BadSettings(t *testing.T) {
	cfg := &config.Config{
		Detectors: map[string]config.DetectorConfig{
			"anti_spam": {Enabled: true, Settings: map[string]any{"repeat_threshold": 0}},
		},
	}

	_, err := buildDetectorChain(cfg)
	assert.Error(t, err)
}

func TestReasonSuffix(t *testing.T) {
	assert.Empty(t, reasonSuffix(""))
	assert.Equal(t, "Reason: spam", reasonSuffix("spam"))
}
