package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "PORTAL_CONFIG"

// DefaultConfigPaths lists where a config file is searched, first match wins.
var DefaultConfigPaths = []string{
	"portal.yaml",
	"portal.yml",
	"/etc/booking-portal/portal.yaml",
}

// envPrefix namespaces all environment overrides, e.g.
// PORTAL_SERVER__PORT=9090 sets server.port and PORTAL_AUTH__JWT_SECRET sets
// auth.jwt_secret ("__" separates sections, single "_" stays in the key).
const envPrefix = "PORTAL_"

// Config captures every runtime setting of the portal service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Booking  BookingConfig  `koanf:"booking"`
	Stats    StatsConfig    `koanf:"stats"`
	Logging  LoggingConfig  `koanf:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig points at the SQLite file. MigrationsDir, when set, reads
// schema migrations from disk instead of the compiled-in set.
type DatabaseConfig struct {
	DSN           string `koanf:"dsn"`
	MigrationsDir string `koanf:"migrations_dir"`
	MaxOpenConns  int    `koanf:"max_open_conns"`
}

// AuthConfig holds token and login settings. The active authentication
// strategy itself lives in the database, not here.
type AuthConfig struct {
	JWTSecret        string        `koanf:"jwt_secret"`
	TokenTTL         time.Duration `koanf:"token_ttl"`
	BcryptCost       int           `koanf:"bcrypt_cost"`
	MaxLoginAttempts int           `koanf:"max_login_attempts"`
	LockoutWindow    time.Duration `koanf:"lockout_window"`
	CookieSecure     bool          `koanf:"cookie_secure"`
}

// SMTPConfig configures outbound notification mail. An empty host disables
// email entirely.
type SMTPConfig struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	From     string        `koanf:"from"`
	StartTLS bool          `koanf:"start_tls"`
	Timeout  time.Duration `koanf:"timeout"`
}

type BookingConfig struct {
	MinDuration    time.Duration `koanf:"min_duration"`
	MaxDuration    time.Duration `koanf:"max_duration"`
	MaxAttendees   int           `koanf:"max_attendees"`
	MaxOccurrences int           `koanf:"max_occurrences"`
}

type StatsConfig struct {
	WorkdayHours int    `koanf:"workday_hours"`
	Timezone     string `koanf:"timezone"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:          "portal.db",
			MaxOpenConns: 1,
		},
		Auth: AuthConfig{
			TokenTTL:         24 * time.Hour,
			BcryptCost:       bcrypt.DefaultCost,
			MaxLoginAttempts: 5,
			LockoutWindow:    15 * time.Minute,
			CookieSecure:     true,
		},
		SMTP: SMTPConfig{
			Port:     587,
			StartTLS: true,
			Timeout:  10 * time.Second,
		},
		Booking: BookingConfig{
			MinDuration:    15 * time.Minute,
			MaxDuration:    12 * time.Hour,
			MaxAttendees:   50,
			MaxOccurrences: 52,
		},
		Stats: StatsConfig{
			WorkdayHours: 8,
			Timezone:     "Local",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load builds the configuration from three layers: built-in defaults, an
// optional YAML file, and PORTAL_-prefixed environment variables, highest
// last. The result is validated before being returned.
func Load() (Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envTransform maps PORTAL_SECTION__KEY_NAME to section.key_name. Keys
// without a section separator are dropped so unrelated PORTAL_* variables
// cannot pollute the configuration.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if !strings.Contains(key, "__") {
		return ""
	}
	return strings.ReplaceAll(key, "__", ".")
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks the assembled configuration, reporting every missing and
// invalid setting at once rather than failing on the first.
func (c Config) Validate() error {
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		missing = append(missing, "auth.jwt_secret")
	} else if len(c.Auth.JWTSecret) < 32 {
		invalid = append(invalid, "auth.jwt_secret (minimum 32 characters)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		invalid = append(invalid, "server.port")
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		missing = append(missing, "database.dsn")
	}
	if c.Auth.TokenTTL <= 0 {
		invalid = append(invalid, "auth.token_ttl")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		invalid = append(invalid, "auth.bcrypt_cost")
	}
	if c.Auth.MaxLoginAttempts <= 0 {
		invalid = append(invalid, "auth.max_login_attempts")
	}
	if c.Auth.LockoutWindow <= 0 {
		invalid = append(invalid, "auth.lockout_window")
	}
	if c.SMTP.Host != "" {
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			invalid = append(invalid, "smtp.port")
		}
		if strings.TrimSpace(c.SMTP.From) == "" {
			missing = append(missing, "smtp.from")
		}
	}
	if c.Booking.MinDuration <= 0 || c.Booking.MaxDuration < c.Booking.MinDuration {
		invalid = append(invalid, "booking.min_duration/max_duration")
	}
	if c.Booking.MaxAttendees <= 0 {
		invalid = append(invalid, "booking.max_attendees")
	}
	if c.Booking.MaxOccurrences <= 0 {
		invalid = append(invalid, "booking.max_occurrences")
	}
	if c.Stats.WorkdayHours < 1 || c.Stats.WorkdayHours > 24 {
		invalid = append(invalid, "stats.workday_hours")
	}
	if _, err := c.Location(); err != nil {
		invalid = append(invalid, "stats.timezone")
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: required settings are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("config: settings have invalid values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Location resolves the stats timezone. "Local" and "" mean the system zone.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Stats.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
