// Package config provides Viper-based configuration loading for the relay server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
	// ReadTimeout bounds reading a full HTTP request (not the upgraded socket).
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout bounds writing an HTTP response (not the upgraded socket).
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// StaticDir, when non-empty, is served at "/" for the browser client bundle.
	StaticDir string `mapstructure:"static_dir"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// WebSocketConfig holds per-connection socket settings.
type WebSocketConfig struct {
	// WriteWait is the time allowed to write a single frame to the peer.
	WriteWait time.Duration `mapstructure:"write_wait"`
	// PongWait is the time allowed to read the next pong from the peer.
	PongWait time.Duration `mapstructure:"pong_wait"`
	// MaxMessageSize is the largest inbound frame accepted, in bytes.
	MaxMessageSize int64 `mapstructure:"max_message_size"`
	// SendBuffer is the outbound queue depth per connection.
	SendBuffer int `mapstructure:"send_buffer"`
	// AllowedOrigins lists accepted Origin hosts; empty or "*" accepts any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PingPeriod returns the keepalive ping interval. It is always shorter than PongWait.
func (w WebSocketConfig) PingPeriod() time.Duration {
	return (w.PongWait * 9) / 10
}

// RelayConfig holds room and combat tuning.
type RelayConfig struct {
	// MaxPlayers is the per-room capacity.
	MaxPlayers int `mapstructure:"max_players"`
	// AntiAirCount is the number of AA emplacements generated per room.
	AntiAirCount int `mapstructure:"anti_air_count"`
	// SweepInterval is the period of the bullet/stale-player sweep.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// StaleTimeout is how long a player may go without an update before being pruned.
	StaleTimeout time.Duration `mapstructure:"stale_timeout"`
	// RespawnDelay is the delay between a kill and the victim's respawn.
	RespawnDelay time.Duration `mapstructure:"respawn_delay"`
	// MaxChatLength caps chat messages, in runes.
	MaxChatLength int `mapstructure:"max_chat_length"`
	// AircraftFile optionally points at a YAML aircraft catalog overriding the built-in table.
	AircraftFile string `mapstructure:"aircraft_file"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Components overrides Level per named component logger ("relay", "ws", ...).
	Components map[string]string `mapstructure:"components"`
}

// MetricsConfig controls the OpenTelemetry metric export.
type MetricsConfig struct {
	// Enabled turns on periodic export. When false, instruments still record
	// into the SDK provider but nothing is exported.
	Enabled bool `mapstructure:"enabled"`
	// Interval is the export period.
	Interval time.Duration `mapstructure:"interval"`
	// Output is "stdout", "stderr" or a file path to append to.
	Output string `mapstructure:"output"`
}

// Config is the top-level application configuration.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateHTTP(c.HTTP); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateWebSocket(c.WebSocket); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRelay(c.Relay); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMetrics(c.Metrics); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateHTTP(h HTTPConfig) error {
	var errs []string
	if h.Port < 1 || h.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be 1-65535, got %d", h.Port))
	}
	if h.ReadTimeout < 0 {
		errs = append(errs, "http.read_timeout must not be negative")
	}
	if h.WriteTimeout < 0 {
		errs = append(errs, "http.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateWebSocket(w WebSocketConfig) error {
	var errs []string
	if w.WriteWait <= 0 {
		errs = append(errs, "websocket.write_wait must be positive")
	}
	if w.PongWait <= 0 {
		errs = append(errs, "websocket.pong_wait must be positive")
	}
	if w.MaxMessageSize < 1 {
		errs = append(errs, fmt.Sprintf("websocket.max_message_size must be >= 1, got %d", w.MaxMessageSize))
	}
	if w.SendBuffer < 1 {
		errs = append(errs, fmt.Sprintf("websocket.send_buffer must be >= 1, got %d", w.SendBuffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRelay(r RelayConfig) error {
	var errs []string
	if r.MaxPlayers < 1 {
		errs = append(errs, fmt.Sprintf("relay.max_players must be >= 1, got %d", r.MaxPlayers))
	}
	if r.AntiAirCount < 0 {
		errs = append(errs, fmt.Sprintf("relay.anti_air_count must be >= 0, got %d", r.AntiAirCount))
	}
	if r.SweepInterval <= 0 {
		errs = append(errs, "relay.sweep_interval must be positive")
	}
	if r.StaleTimeout <= 0 {
		errs = append(errs, "relay.stale_timeout must be positive")
	}
	if r.RespawnDelay < 0 {
		errs = append(errs, "relay.respawn_delay must not be negative")
	}
	if r.MaxChatLength < 1 {
		errs = append(errs, fmt.Sprintf("relay.max_chat_length must be >= 1, got %d", r.MaxChatLength))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func validateLogging(l LoggingConfig) error {
	var errs []string
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	for name, level := range l.Components {
		if !validLevels[level] {
			errs = append(errs, fmt.Sprintf("logging.components.%s must be one of [debug, info, warn, error], got %q", name, level))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateMetrics(m MetricsConfig) error {
	if !m.Enabled {
		return nil
	}
	var errs []string
	if m.Interval <= 0 {
		errs = append(errs, "metrics.interval must be positive when metrics are enabled")
	}
	if m.Output == "" {
		errs = append(errs, "metrics.output must be set when metrics are enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path skips the file and uses
// defaults plus environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with DOGFIGHT_ prefix
	v.SetEnvPrefix("DOGFIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration produced by the built-in defaults alone.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.static_dir", "")

	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.max_message_size", 64*1024)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("websocket.allowed_origins", []string{"*"})

	v.SetDefault("relay.max_players", 8)
	v.SetDefault("relay.anti_air_count", 10)
	v.SetDefault("relay.sweep_interval", "1s")
	v.SetDefault("relay.stale_timeout", "60s")
	v.SetDefault("relay.respawn_delay", "3s")
	v.SetDefault("relay.max_chat_length", 200)
	v.SetDefault("relay.aircraft_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.interval", "60s")
	v.SetDefault("metrics.output", "stdout")
}
