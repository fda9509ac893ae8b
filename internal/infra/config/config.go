// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Discord   DiscordConfig             `yaml:"discord"`
	Storage   StorageConfig             `yaml:"storage"`
	Player    PlayerConfig              `yaml:"player"`
	Detectors map[string]DetectorConfig `yaml:"detectors"`
	Broadcast BroadcastConfig           `yaml:"broadcast"`
	Spotify   SpotifyConfig             `yaml:"spotify"`
}

// DiscordConfig represents the Discord connection configuration.
type DiscordConfig struct {
	Token string `yaml:"token" validate:"required"`
	// GuildID scopes slash command registration to one guild. Empty
	// registers commands globally (slow to propagate).
	GuildID string `yaml:"guild_id"`
}

// StorageConfig represents database configuration.
type StorageConfig struct {
	Path string `yaml:"path" default:"beatwarden.db"`
}

// PlayerConfig represents playback configuration.
type PlayerConfig struct {
	FFmpegPath        string `yaml:"ffmpeg_path" default:"ffmpeg"`
	YTDLPPath         string `yaml:"ytdlp_path" default:"yt-dlp"`
	ResolveTimeoutSec int    `yaml:"resolve_timeout_sec" default:"30" validate:"gte=5,lte=300"`
}

// DetectorConfig represents a message detector's configuration.
type DetectorConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// BroadcastConfig bounds the direct message send rate.
type BroadcastConfig struct {
	MessagesPerSecond float64 `yaml:"messages_per_second" default:"1" validate:"gt=0"`
	Burst             int     `yaml:"burst" default:"3" validate:"gte=1"`
}

// SpotifyConfig represents Spotify API configuration. Both fields
// empty disables the Spotify resolver.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"US"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_GUILD_ID"); v != "" {
		c.Discord.GuildID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	if (c.Spotify.ClientID == "") != (c.Spotify.ClientSecret == "") {
		return errors.New("spotify client_id and client_secret must be set together")
	}
	return nil
}

// SpotifyEnabled reports whether Spotify credentials are configured.
func (c *Config) SpotifyEnabled() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}

// IsDetectorEnabled checks if a detector is enabled in the file
// configuration. Guilds can still turn enabled detectors off at
// runtime.
func (c *Config) IsDetectorEnabled(name string) bool {
	if d, ok := c.Detectors[name]; ok {
		return d.Enabled
	}
	return false
}

// DetectorSettings returns the settings for a detector.
func (c *Config) DetectorSettings(name string) map[string]any {
	if d, ok := c.Detectors[name]; ok {
		return d.Settings
	}
	return nil
}
