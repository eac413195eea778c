package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// AllowedOrigins lists origins permitted to call the HTTP/WS API.
	// Empty means any origin is allowed.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// RoomTTL is how long a room record survives after creation before the
	// janitor deletes it together with its messages.
	RoomTTL         time.Duration `mapstructure:"room_ttl" yaml:"room_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`

	// StoreTimeout bounds each durable read/write so a slow store cannot
	// stall presence transitions.
	StoreTimeout time.Duration `mapstructure:"store_timeout" yaml:"store_timeout"`

	// RoomsPerMinute caps REST room creation; 0 disables the limit.
	RoomsPerMinute int `mapstructure:"rooms_per_minute" yaml:"rooms_per_minute"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "relay.db",
		LogLevel:          "info",
		AllowedOrigins:    nil,
		RoomTTL:           24 * time.Hour,
		CleanupInterval:   time.Hour,
		StoreTimeout:      3 * time.Second,
		RoomsPerMinute:    60,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
	if other.RoomTTL != 0 {
		c.RoomTTL = other.RoomTTL
	}
	if other.CleanupInterval != 0 {
		c.CleanupInterval = other.CleanupInterval
	}
	if other.StoreTimeout != 0 {
		c.StoreTimeout = other.StoreTimeout
	}
	if other.RoomsPerMinute != 0 {
		c.RoomsPerMinute = other.RoomsPerMinute
	}
}
