package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/iamasky/tx-observer/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Replay   ReplayConfig   `mapstructure:"replay"`
	Server   ServerConfig   `mapstructure:"server"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity. Leaving the DSN empty
// disables persistence; the monitor keeps running from memory alone.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// PollerConfig governs the live-ingestion driver.
type PollerConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	BufferCapacity int           `mapstructure:"buffer_capacity"`
	StartupDelay   time.Duration `mapstructure:"startup_delay"`
}

// UpstreamConfig points at the market-data server.
type UpstreamConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// AlertingConfig defines detection parameters and notification routing.
type AlertingConfig struct {
	ThresholdPoints   float64            `mapstructure:"threshold_points"`
	TimeWindowMinutes int                `mapstructure:"time_window_minutes"`
	Direction         string             `mapstructure:"direction"`
	Cooldown          time.Duration      `mapstructure:"cooldown"`
	Notification      NotificationConfig `mapstructure:"notification"`
}

// NotificationConfig 描述 Telegram 推送参数。
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  string `mapstructure:"chat_id"`
}

// ReplayConfig governs historical playback.
type ReplayConfig struct {
	SpeedValue     int           `mapstructure:"speed_value"`
	SpeedUnit      string        `mapstructure:"speed_unit"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	DataResolution time.Duration `mapstructure:"data_resolution"`
}

// ServerConfig tunes the serve command.
type ServerConfig struct {
	Addr       string        `mapstructure:"addr"`
	Resolution time.Duration `mapstructure:"resolution"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TXOBSERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tx-observer")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("poller.interval", "1s")
	v.SetDefault("poller.buffer_capacity", 3600)
	v.SetDefault("poller.startup_delay", "0s")

	v.SetDefault("upstream.base_url", "http://localhost:5000")
	v.SetDefault("upstream.request_timeout", "10s")
	v.SetDefault("upstream.user_agent", "tx-observer/1.0")

	v.SetDefault("alerting.threshold_points", 55.0)
	v.SetDefault("alerting.time_window_minutes", 20)
	v.SetDefault("alerting.direction", "BOTH")
	v.SetDefault("alerting.cooldown", "10m")
	v.SetDefault("alerting.notification.enabled", false)

	v.SetDefault("replay.speed_value", 10)
	v.SetDefault("replay.speed_unit", "MINUTES")
	v.SetDefault("replay.tick_interval", "5s")
	v.SetDefault("replay.data_resolution", "1m")

	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.resolution", "10s")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs the boundary checks before values reach the core.
func (c *Config) Validate() error {
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be greater than zero")
	}
	if c.Poller.BufferCapacity < 0 {
		return fmt.Errorf("poller.buffer_capacity cannot be negative")
	}
	if c.Alerting.ThresholdPoints < 0 {
		return fmt.Errorf("alerting.threshold_points cannot be negative")
	}
	if c.Alerting.TimeWindowMinutes < 1 {
		return fmt.Errorf("alerting.time_window_minutes must be at least 1")
	}
	switch c.Alerting.Direction {
	case "RISE", "FALL", "BOTH":
	default:
		return fmt.Errorf("alerting.direction must be RISE, FALL or BOTH")
	}
	if c.Alerting.Notification.Enabled {
		if c.Alerting.Notification.Token == "" {
			return fmt.Errorf("alerting.notification.token 必须配置")
		}
		if c.Alerting.Notification.ChatID == "" {
			return fmt.Errorf("alerting.notification.chat_id 必须配置")
		}
	}
	if c.Replay.SpeedValue < 1 {
		return fmt.Errorf("replay.speed_value must be at least 1")
	}
	switch c.Replay.SpeedUnit {
	case "SECONDS", "MINUTES":
	default:
		return fmt.Errorf("replay.speed_unit must be SECONDS or MINUTES")
	}
	if c.Replay.DataResolution < time.Second {
		return fmt.Errorf("replay.data_resolution must be at least one second")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
