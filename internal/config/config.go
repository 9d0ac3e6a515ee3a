package config

import (
	"strings"
	"time"

	"cinematch/backend/internal/logging"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	OMDbAPIURL string `mapstructure:"OMDB_API_URL"`
	OMDbAPIKey string `mapstructure:"OMDB_API_KEY"`

	StreamingAPIURL  string `mapstructure:"STREAMING_API_URL"`
	StreamingAPIHost string `mapstructure:"STREAMING_API_HOST"`
	StreamingAPIKey  string `mapstructure:"STREAMING_API_KEY"`
	StreamingCountry string `mapstructure:"STREAMING_COUNTRY"`

	MediaRoot         string `mapstructure:"MEDIA_ROOT"`
	DefaultAvatarPath string `mapstructure:"DEFAULT_AVATAR_PATH"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	SeedDemoUsers bool   `mapstructure:"SEED_DEMO_USERS"`
	CORSOrigins   string `mapstructure:"CORS_ORIGINS"`

	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int `mapstructure:"RATE_LIMIT_BURST"`
}

var AppConfig *Config

// defaults are registered with viper so AutomaticEnv can see every key during Unmarshal.
var defaults = map[string]interface{}{
	"PORT":                  "8080",
	"DATABASE_URL":          "host=localhost user=postgres password=postgres dbname=cinematch port=5432 sslmode=disable TimeZone=UTC",
	"JWT_SECRET":            "",
	"JWT_TTL":               "60m",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"OMDB_API_URL":          "http://www.omdbapi.com/",
	"OMDB_API_KEY":          "",
	"STREAMING_API_URL":     "https://streaming-availability.p.rapidapi.com/search/title",
	"STREAMING_API_HOST":    "streaming-availability.p.rapidapi.com",
	"STREAMING_API_KEY":     "",
	"STREAMING_COUNTRY":     "ca",
	"MEDIA_ROOT":            "./data",
	"DEFAULT_AVATAR_PATH":   "./data/avatars/default_avatar.png",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"SEED_DEMO_USERS":       false,
	"CORS_ORIGINS":          "*",
	"RATE_LIMIT_PER_MINUTE": 60,
	"RATE_LIMIT_BURST":      20,
}

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	cfg, err := Load(".")
	if err != nil {
		logging.Fatal().Err(err).Msg("unable to decode configuration")
	}
	AppConfig = cfg
}

// Load reads .env from dir (if present) layered under the process environment.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		logging.Warn().Msg(".env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
