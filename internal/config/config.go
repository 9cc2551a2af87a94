package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
	StoreDriverPebble   = "pebble"
)

// Snapshot blob drivers
const (
	SnapshotDriverLocal = "local"
	SnapshotDriverS3    = "s3"
	SnapshotDriverGCS   = "gcs"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Snapshot SnapshotConfig
	Notify   NotifyConfig
	CORS     CORSConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig selects and configures the guestbook record store
type StoreConfig struct {
	Driver      string
	FilePath    string
	PebbleDir   string
	MaxMessages int
}

// DatabaseConfig holds database connection settings for the postgres driver
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// AuthConfig holds session token settings
type AuthConfig struct {
	JWTSecret    string
	CookieName   string
	AdminUserIDs []string
}

// SnapshotConfig holds guestbook snapshot settings
type SnapshotConfig struct {
	Driver        string
	Cron          string // empty disables the scheduler
	Prefix        string
	LocalDir      string
	S3Region      string
	S3Bucket      string
	GCSBucket     string
	GCSCredsFile  string
	UploadTimeout time.Duration
}

// NotifyConfig holds owner e-mail notification settings
type NotifyConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SSL          bool
	From         string
	To           string
	OwnerUserID  string
	SiteURL      string
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present, and CONFIG_FILE may name a YAML file
// of KEY: value pairs that act as defaults beneath real environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	src := envSource{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		file, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}

	cfg := src.build()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (s envSource) build() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            s.getEnv("PORT", "8080"),
			ReadTimeout:     s.getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    s.getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: s.getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(s.getEnv("STORE_DRIVER", StoreDriverFile)),
			FilePath:    s.getEnv("STORE_FILE_PATH", "./data/guestbook.json"),
			PebbleDir:   s.getEnv("STORE_PEBBLE_DIR", "./data/pebble"),
			MaxMessages: s.getIntEnv("GUESTBOOK_MAX_MESSAGES", 1000),
		},
		Database: DatabaseConfig{
			Host:           s.getEnv("DB_HOST", "localhost"),
			Port:           s.getEnv("DB_PORT", "5432"),
			User:           s.getEnv("DB_USER", "postgres"),
			Password:       s.getEnv("DB_PASSWORD", "postgres"),
			Name:           s.getEnv("DB_NAME", "guestbook"),
			SSLMode:        s.getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   s.getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:   s.getIntEnv("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:    s.getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: s.getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Auth: AuthConfig{
			JWTSecret:    s.getEnv("AUTH_JWT_SECRET", ""),
			CookieName:   s.getEnv("AUTH_COOKIE_NAME", "guestbook_session"),
			AdminUserIDs: s.getListEnv("ADMIN_USER_IDS", nil),
		},
		Snapshot: SnapshotConfig{
			Driver:        strings.ToLower(s.getEnv("SNAPSHOT_DRIVER", SnapshotDriverLocal)),
			Cron:          s.getEnv("SNAPSHOT_CRON", ""),
			Prefix:        s.getEnv("SNAPSHOT_PREFIX", "guestbook/snapshots"),
			LocalDir:      s.getEnv("SNAPSHOT_LOCAL_DIR", "./data/snapshots"),
			S3Region:      s.getEnv("SNAPSHOT_S3_REGION", "us-east-1"),
			S3Bucket:      s.getEnv("SNAPSHOT_S3_BUCKET", ""),
			GCSBucket:     s.getEnv("SNAPSHOT_GCS_BUCKET", ""),
			GCSCredsFile:  s.getEnv("SNAPSHOT_GCS_CREDENTIALS_FILE", ""),
			UploadTimeout: s.getDurationEnv("SNAPSHOT_UPLOAD_TIMEOUT", time.Minute),
		},
		Notify: NotifyConfig{
			SMTPHost:     s.getEnv("SMTP_HOST", ""),
			SMTPPort:     s.getIntEnv("SMTP_PORT", 465),
			SMTPUsername: s.getEnv("SMTP_USERNAME", ""),
			SMTPPassword: s.getEnv("SMTP_PASSWORD", ""),
			SSL:          s.getBoolEnv("SMTP_SSL", true),
			From:         s.getEnv("NOTIFY_FROM", ""),
			To:           s.getEnv("NOTIFY_TO", ""),
			OwnerUserID:  s.getEnv("NOTIFY_OWNER_ID", ""),
			SiteURL:      s.getEnv("SITE_URL", "http://localhost:3000"),
		},
		CORS: CORSConfig{
			AllowedOrigins: s.getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level:  s.getEnv("LOG_LEVEL", "info"),
			Format: s.getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.FilePath == "" {
			return fmt.Errorf("STORE_FILE_PATH is required for the file driver")
		}
	case StoreDriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required for the postgres driver")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required for the postgres driver")
		}
	case StoreDriverPebble:
		if c.Store.PebbleDir == "" {
			return fmt.Errorf("STORE_PEBBLE_DIR is required for the pebble driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (file, postgres, pebble)", c.Store.Driver)
	}

	if c.Store.MaxMessages <= 0 {
		return fmt.Errorf("GUESTBOOK_MAX_MESSAGES must be positive")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}

	switch c.Snapshot.Driver {
	case SnapshotDriverLocal:
	case SnapshotDriverS3:
		if c.Snapshot.S3Bucket == "" {
			return fmt.Errorf("SNAPSHOT_S3_BUCKET is required for the s3 driver")
		}
	case SnapshotDriverGCS:
		if c.Snapshot.GCSBucket == "" {
			return fmt.Errorf("SNAPSHOT_GCS_BUCKET is required for the gcs driver")
		}
	default:
		return fmt.Errorf("unknown SNAPSHOT_DRIVER %q (local, s3, gcs)", c.Snapshot.Driver)
	}

	if c.Snapshot.Cron != "" && !gronx.IsValid(c.Snapshot.Cron) {
		return fmt.Errorf("SNAPSHOT_CRON %q is not a valid cron expression", c.Snapshot.Cron)
	}

	return nil
}

// IsAdmin reports whether the user id is listed in ADMIN_USER_IDS
func (c *AuthConfig) IsAdmin(userID string) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// NotifyEnabled reports whether owner notifications can be sent
func (c *NotifyConfig) NotifyEnabled() bool {
	return c.SMTPHost != "" && c.To != ""
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case []interface{}:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		case nil:
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(val)
		}
	}
	return out, nil
}

// Helper functions for environment variable parsing

// envSource resolves keys from the process environment, then the config file.
type envSource struct {
	file map[string]string
}

func (s envSource) lookup(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return s.file[key]
}

func (s envSource) getEnv(key, defaultValue string) string {
	if value := s.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func (s envSource) getIntEnv(key string, defaultValue int) int {
	if value := s.lookup(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func (s envSource) getBoolEnv(key string, defaultValue bool) bool {
	if value := s.lookup(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func (s envSource) getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := s.lookup(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func (s envSource) getListEnv(key string, defaultValue []string) []string {
	value := s.lookup(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
