// Package config loads service configuration from defaults, an optional
// config file, a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

type Config struct {
	Port string

	Database struct {
		URL         string
		Host        string
		Port        string
		User        string
		Password    string
		Name        string
		MaxConns    int
		TimeZone    string
		AutoMigrate bool
	}

	JWT struct {
		Secret string
		Expiry time.Duration
	}

	BcryptCost int

	CORSOrigins []string

	// IdeaUpdateRequireOwner turns on the ownership check for idea updates.
	IdeaUpdateRequireOwner bool
	// SchemaEndpoints mounts the drop-and-recreate table routes.
	SchemaEndpoints bool

	Log struct {
		Level  string
		Dev    bool
		File   string
		MaxAge time.Duration
	}

	SnowflakeNode int64
}

// Load reads configuration. Environment variables win over config.yaml,
// which wins over the defaults below.
func Load() (*Config, error) {
	// load .env file if present so the environment picks values from it
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	cfg.Port = v.GetString("port")

	cfg.Database.URL = v.GetString("database_url")
	cfg.Database.Host = v.GetString("db_host")
	cfg.Database.Port = v.GetString("db_port")
	cfg.Database.User = v.GetString("db_user")
	cfg.Database.Password = v.GetString("db_password")
	cfg.Database.Name = v.GetString("db_name")
	cfg.Database.MaxConns = v.GetInt("db_max_conns")
	cfg.Database.TimeZone = v.GetString("database_timezone")
	cfg.Database.AutoMigrate = v.GetBool("db_auto_migrate")

	cfg.JWT.Secret = v.GetString("jwt_secret")
	cfg.JWT.Expiry = v.GetDuration("jwt_expiry")

	cfg.BcryptCost = v.GetInt("bcrypt_cost")
	cfg.CORSOrigins = splitList(v.GetString("cors_origins"))
	cfg.IdeaUpdateRequireOwner = v.GetBool("idea_update_require_owner")
	cfg.SchemaEndpoints = v.GetBool("enable_schema_endpoints")

	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Dev = v.GetBool("log_dev")
	cfg.Log.File = v.GetString("log_file")
	cfg.Log.MaxAge = v.GetDuration("log_max_age")

	cfg.SnowflakeNode = v.GetInt64("snowflake_node")

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")

	v.SetDefault("database_url", "")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "ideas")
	v.SetDefault("db_max_conns", 10)
	v.SetDefault("database_timezone", "")
	v.SetDefault("db_auto_migrate", false)

	v.SetDefault("jwt_secret", "change-me")
	v.SetDefault("jwt_expiry", time.Hour)

	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("idea_update_require_owner", false)
	v.SetDefault("enable_schema_endpoints", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_dev", false)
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_age", 7*24*time.Hour)

	v.SetDefault("snowflake_node", 1)
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return errors.New("port is required")
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt_secret is required")
	}
	if cfg.JWT.Expiry <= 0 {
		return errors.New("jwt_expiry must be positive")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return fmt.Errorf("bcrypt_cost %d out of range [4,31]", cfg.BcryptCost)
	}
	if cfg.SnowflakeNode < 0 || cfg.SnowflakeNode > 1023 {
		return fmt.Errorf("snowflake_node %d out of range [0,1023]", cfg.SnowflakeNode)
	}
	return nil
}

// DatabaseConfig returns the pool settings. DATABASE_URL wins over the
// individual DB_* values.
func (c *Config) DatabaseConfig() database.Config {
	dsn := c.Database.URL
	if dsn == "" {
		dsn = database.BuildDSN(c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name)
	}
	return database.Config{
		DSN:      dsn,
		MaxConns: c.Database.MaxConns,
		Timeout:  5 * time.Second,
		TimeZone: c.Database.TimeZone,
	}
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() utilities.Config {
	return utilities.Config{
		Level:  c.Log.Level,
		Dev:    c.Log.Dev,
		File:   c.Log.File,
		MaxAge: c.Log.MaxAge,
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
