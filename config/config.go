// Package config loads overlay settings from overlay.yaml, .env files and
// OVERLAY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("config: invalid")

// EnvFiles are loaded before the config file. Missing files are skipped.
var EnvFiles = []string{".env", ".secrets.env"}

type Config struct {
	Window    WindowConfig    `mapstructure:"window"`
	Clock     ClockConfig     `mapstructure:"clock"`
	Twitch    TwitchConfig    `mapstructure:"twitch"`
	Donation  DonationConfig  `mapstructure:"donation"`
	Physics   PhysicsConfig   `mapstructure:"physics"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Reactions ReactionsConfig `mapstructure:"reactions"`
	Prefabs   PrefabsConfig   `mapstructure:"prefabs"`
}

type WindowConfig struct {
	Monitor     int  `mapstructure:"monitor"`
	Width       int  `mapstructure:"width"`
	Height      int  `mapstructure:"height"`
	Transparent bool `mapstructure:"transparent"`
	Passthrough bool `mapstructure:"passthrough"`
	TPS         int  `mapstructure:"tps"`
}

type ClockConfig struct {
	Seconds  float64 `mapstructure:"seconds"`
	X        float64 `mapstructure:"x"`
	Y        float64 `mapstructure:"y"`
	Width    float64 `mapstructure:"width"`
	Height   float64 `mapstructure:"height"`
	FontSize float64 `mapstructure:"font_size"`
}

type TwitchConfig struct {
	ClientID         string `mapstructure:"client_id"`
	ClientSecret     string `mapstructure:"client_secret"`
	Broadcaster      string `mapstructure:"broadcaster"`
	RedirectURL      string `mapstructure:"redirect_url"`
	UserTokenFile    string `mapstructure:"user_token_file"`
	RefreshTokenFile string `mapstructure:"refresh_token_file"`
	AutoConnect      bool   `mapstructure:"auto_connect"`
	EventSubURL      string `mapstructure:"eventsub_url"`
	HelixURL         string `mapstructure:"helix_url"`
	Farewell         string `mapstructure:"farewell"`
}

type DonationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Token   string `mapstructure:"token"`
}

type PhysicsConfig struct {
	Gravity    float64 `mapstructure:"gravity"`
	Damping    float64 `mapstructure:"damping"`
	Iterations int     `mapstructure:"iterations"`
}

type AudioConfig struct {
	Volume float64 `mapstructure:"volume"`
}

type ReactionsConfig struct {
	Script string `mapstructure:"script"`
}

type PrefabsConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

var defaults = map[string]any{
	"window.monitor":            0,
	"window.width":              0,
	"window.height":             0,
	"window.transparent":        true,
	"window.passthrough":        true,
	"window.tps":                60,
	"clock.seconds":             120.0,
	"clock.x":                   40.0,
	"clock.y":                   40.0,
	"clock.width":               260.0,
	"clock.height":              72.0,
	"clock.font_size":           40.0,
	"twitch.client_id":          "",
	"twitch.client_secret":      "",
	"twitch.broadcaster":        "",
	"twitch.redirect_url":       "http://localhost:3000",
	"twitch.user_token_file":    ".user_token",
	"twitch.refresh_token_file": ".refresh_token",
	"twitch.auto_connect":       false,
	"twitch.eventsub_url":       "wss://eventsub.wss.twitch.tv/ws",
	"twitch.helix_url":          "https://api.twitch.tv/helix",
	"twitch.farewell":           "",
	"donation.enabled":          false,
	"donation.addr":             ":8090",
	"donation.token":            "",
	"physics.gravity":           0.0,
	"physics.damping":           0.6,
	"physics.iterations":        10,
	"audio.volume":              0.8,
	"reactions.script":          "scripts/reactions.tengo",
	"prefabs.dir":               "prefabs",
	"prefabs.watch":             true,
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("OVERLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in settings.
func Default() *Config {
	var cfg Config
	if err := newViper().Unmarshal(&cfg); err != nil {
		panic("config: defaults: " + err.Error())
	}
	return &cfg
}

// Load reads env files, then path (when non-empty), then environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(EnvFiles...); err != nil {
		return nil, err
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
			log.Printf("config: %s not found, using defaults", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: env file %s: %w", p, err)
		}
	}
	return nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Window.TPS <= 0:
		return fmt.Errorf("%w: window.tps must be positive", ErrInvalidConfig)
	case c.Window.Width < 0 || c.Window.Height < 0:
		return fmt.Errorf("%w: window size must not be negative", ErrInvalidConfig)
	case c.Clock.Seconds < 0:
		return fmt.Errorf("%w: clock.seconds must not be negative", ErrInvalidConfig)
	case c.Clock.FontSize <= 0:
		return fmt.Errorf("%w: clock.font_size must be positive", ErrInvalidConfig)
	case c.Physics.Damping < 0 || c.Physics.Damping > 1:
		return fmt.Errorf("%w: physics.damping must be within [0,1]", ErrInvalidConfig)
	case c.Physics.Iterations <= 0:
		return fmt.Errorf("%w: physics.iterations must be positive", ErrInvalidConfig)
	case c.Audio.Volume < 0 || c.Audio.Volume > 1:
		return fmt.Errorf("%w: audio.volume must be within [0,1]", ErrInvalidConfig)
	}
	if c.Twitch.AutoConnect && c.Twitch.ClientID == "" {
		return fmt.Errorf("%w: twitch.client_id is required when twitch.auto_connect is set", ErrInvalidConfig)
	}
	for _, f := range []struct{ key, raw string }{
		{"twitch.redirect_url", c.Twitch.RedirectURL},
		{"twitch.eventsub_url", c.Twitch.EventSubURL},
		{"twitch.helix_url", c.Twitch.HelixURL},
	} {
		key, raw := f.key, f.raw
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s %q is not an absolute url", ErrInvalidConfig, key, raw)
		}
	}
	if c.Donation.Enabled {
		if c.Donation.Token == "" {
			return fmt.Errorf("%w: donation.token is required when donations are enabled", ErrInvalidConfig)
		}
		if _, _, err := net.SplitHostPort(c.Donation.Addr); err != nil {
			return fmt.Errorf("%w: donation.addr: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
