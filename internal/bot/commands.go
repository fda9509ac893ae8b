package bot

import (
	"sort"

	"github.com/bwmarrin/discordgo"

	"github.com/varkess/beatwarden/internal/app/moderation"
)

// commandDefinitions returns the full slash command set.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "music",
			Description: "Play music in your voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "play",
					Description: "Queue a track by URL or search text",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "query",
							Description: "URL (YouTube, Spotify, ...) or search text",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "skip",
					Description: "Skip the current track",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stop",
					Description: "Stop playback, clear the queue and leave",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "queue",
					Description: "Show the current track and queue depth",
				},
			},
		},
		{
			Name:        "ban",
			Description: "Ban a member",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to ban"),
				reasonOption(false),
			},
		},
		{
			Name:        "unban",
			Description: "Remove a ban",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("User to unban"),
			},
		},
		{
			Name:        "timeout",
			Description: "Time a member out",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to time out"),
				minutesOption("Timeout length in minutes"),
				reasonOption(false),
			},
		},
		{
			Name:        "untimeout",
			Description: "Lift a member's timeout",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to release"),
			},
		},
		{
			Name:        "warn",
			Description: "Record a warning against a member",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to warn"),
				reasonOption(true),
			},
		},
		{
			Name:        "unwarn",
			Description: "Remove one of a member's warnings",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member"),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "index",
					Description: "Warning number as shown by /viewwarns",
					Required:    true,
					MinValue:    float64Ptr(1),
				},
			},
		},
		{
			Name:        "viewwarns",
			Description: "List a member's warnings",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member"),
			},
		},
		{
			Name:        "feature",
			Description: "Enable or disable a moderation feature in this server",
			Options: []*discordgo.ApplicationCommandOption{
				featureOption(),
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "Whether the feature should run",
					Required:    true,
				},
			},
		},
		{
			Name:        "settimeout",
			Description: "Set the timeout a moderation feature applies",
			Options: []*discordgo.ApplicationCommandOption{
				featureOption(),
				minutesOption("Timeout length in minutes"),
			},
		},
		{
			Name:        "dm",
			Description: "Send a member a direct message through the bot",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Recipient"),
				messageOption(),
			},
		},
		{
			Name:        "dmeveryone",
			Description: "Send every member a direct message",
			Options: []*discordgo.ApplicationCommandOption{
				messageOption(),
			},
		},
		{
			Name:        "dmeveryonestop",
			Description: "Cancel an in-flight dmeveryone run",
		},
	}
}

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    true,
	}
}

func reasonOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason",
		Required:    required,
	}
}

func minutesOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "minutes",
		Description: description,
		Required:    true,
		MinValue:    float64Ptr(1),
	}
}

func messageOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "message",
		Description: "Message text",
		Required:    true,
	}
}

// featureOption offers every registered detector as a choice.
func featureOption() *discordgo.ApplicationCommandOption {
	names := make([]string, 0, len(moderation.GetRegistered()))
	for name := range moderation.GetRegistered() {
		names = append(names, name)
	}
	sort.Strings(names)

	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(names))
	for i, name := range names {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name}
	}

	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "feature",
		Description: "Moderation feature",
		Required:    true,
		Choices:     choices,
	}
}

func float64Ptr(v float64) *float64 { return &v }
