package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverMongoDB = "mongodb"
	DriverMySQL   = "mysql"
	DriverMemory  = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Store        StoreConfig
	MongoDB      MongoDBConfig
	MySQL        MySQLConfig
	Redis        RedisConfig
	RocketMQ     RocketMQConfig
	JWT          JWTConfig
	SMS          SMSConfig
	Reservation  ReservationConfig
	Reaper       ReaperConfig
	Announcement AnnouncementConfig
	Prize        PrizeConfig
	Log          LogConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string
	AllowedHosts    []string
	ShutdownTimeout time.Duration
}

// StoreConfig selects the ticket/order store implementation
type StoreConfig struct {
	Driver string
}

// MongoDBConfig holds MongoDB-specific configuration. Transactions require a
// replica set deployment.
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// MySQLConfig holds MySQL-specific configuration
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis and the
// in-process lock and de-duplication fallbacks are used.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// RocketMQConfig holds RocketMQ producer configuration. An empty Endpoint disables
// publishing of notification events.
type RocketMQConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Topic        string
	StartTimeout time.Duration
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret string
}

// SMSConfig holds SMS gateway configuration
type SMSConfig struct {
	BaseURL  string
	APIKey   string
	Sender   string
	MockSMS  bool
	Timeout  time.Duration
	Disabled bool
}

// ReservationConfig holds checkout configuration. TTL is fixed server side; a
// buyer cannot extend or shorten it.
type ReservationConfig struct {
	TTL time.Duration
}

// ReaperConfig holds expiry sweep configuration
type ReaperConfig struct {
	Enabled                   bool
	Interval                  time.Duration
	BatchSize                 int
	LockTTL                   time.Duration
	WarningCheckpointsMinutes []int
}

// AnnouncementConfig holds round announcement configuration
type AnnouncementConfig struct {
	BatchSize         int
	NotifyConcurrency int
	LockTTL           time.Duration
}

// PrizeConfig holds prize matching policy
type PrizeConfig struct {
	DuplicatePolicy string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// WarningCheckpoints returns the expiry warning checkpoints as durations.
func (r ReaperConfig) WarningCheckpoints() []time.Duration {
	out := make([]time.Duration, 0, len(r.WarningCheckpointsMinutes))
	for _, m := range r.WarningCheckpointsMinutes {
		out = append(out, time.Duration(m)*time.Minute)
	}
	return out
}

// Load loads configuration from an optional .env file, an optional config.yaml in
// path (or ./config) and environment variables such as STORE_DRIVER or MYSQL_DSN.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongoDB, DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Reservation.TTL <= 0 {
		return fmt.Errorf("reservation TTL must be positive, got %s", c.Reservation.TTL)
	}
	if c.Reaper.Interval <= 0 {
		return fmt.Errorf("reaper interval must be positive, got %s", c.Reaper.Interval)
	}
	if c.Reaper.BatchSize <= 0 || c.Announcement.BatchSize <= 0 {
		return fmt.Errorf("batch sizes must be positive")
	}
	switch c.Prize.DuplicatePolicy {
	case "count", "cap":
	default:
		return fmt.Errorf("unknown prize duplicate policy %q", c.Prize.DuplicatePolicy)
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("Server.ShutdownTimeout", 10*time.Second)
	v.SetDefault("Store.Driver", DriverMongoDB)
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MongoDB.Database", "lottery")
	v.SetDefault("MongoDB.Timeout", 10*time.Second)
	v.SetDefault("MySQL.DSN", "lottery:lottery@tcp(localhost:3306)/lottery?parseTime=true&loc=UTC")
	v.SetDefault("MySQL.MaxOpenConns", 32)
	v.SetDefault("MySQL.MaxIdleConns", 8)
	v.SetDefault("MySQL.ConnMaxLifetime", 30*time.Minute)
	v.SetDefault("MySQL.AutoMigrate", false)
	v.SetDefault("Redis.Addr", "")
	v.SetDefault("Redis.Password", "")
	v.SetDefault("Redis.DB", 0)
	v.SetDefault("Redis.Timeout", 5*time.Second)
	v.SetDefault("RocketMQ.Endpoint", "")
	v.SetDefault("RocketMQ.AccessKey", "")
	v.SetDefault("RocketMQ.SecretKey", "")
	v.SetDefault("RocketMQ.Topic", "lottery_notifications")
	v.SetDefault("RocketMQ.StartTimeout", 5*time.Second)
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("SMS.BaseURL", "")
	v.SetDefault("SMS.APIKey", "")
	v.SetDefault("SMS.Sender", "LOTTERY")
	v.SetDefault("SMS.MockSMS", true)
	v.SetDefault("SMS.Timeout", 10*time.Second)
	v.SetDefault("SMS.Disabled", false)
	v.SetDefault("Reservation.TTL", 15*time.Minute)
	v.SetDefault("Reaper.Enabled", true)
	v.SetDefault("Reaper.Interval", time.Minute)
	v.SetDefault("Reaper.BatchSize", 200)
	v.SetDefault("Reaper.LockTTL", 5*time.Minute)
	v.SetDefault("Reaper.WarningCheckpointsMinutes", []int{30, 15, 5, 1})
	v.SetDefault("Announcement.BatchSize", 500)
	v.SetDefault("Announcement.NotifyConcurrency", 8)
	v.SetDefault("Announcement.LockTTL", 30*time.Minute)
	v.SetDefault("Prize.DuplicatePolicy", "count")
	v.SetDefault("Log.Level", "info")
	v.SetDefault("Log.File", "")
	v.SetDefault("Log.MaxSizeMB", 100)
	v.SetDefault("Log.MaxBackups", 7)
	v.SetDefault("Log.MaxAgeDays", 14)
	v.SetDefault("Log.Compress", true)
}
