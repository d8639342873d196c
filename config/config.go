package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Game      GameConfig      `mapstructure:"game"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	Host           string `mapstructure:"host"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type PostgresConfig struct {
	Port     string `mapstructure:"port"`
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

type GameConfig struct {
	RoundDuration int    `mapstructure:"round_duration"`
	MinPlayers    int    `mapstructure:"min_players"`
	MaxPlayers    int    `mapstructure:"max_players"`
	DefaultMode   string `mapstructure:"default_mode"`
}

type CleanupConfig struct {
	MaxAge time.Duration `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	RequestsPerMinute   int `mapstructure:"requests_per_minute"`
	Burst               int `mapstructure:"burst"`
	WSMessagesPerSecond int `mapstructure:"ws_messages_per_second"`
	WSBurst             int `mapstructure:"ws_burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "wordgame-service")
	v.SetDefault("app.version", "0.1.0")

	v.SetDefault("server.port", "8082")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.allowed_origins", "http://localhost:5173")

	v.SetDefault("store.driver", DriverMemory)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "store:")

	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.user", "myuser")
	v.SetDefault("postgres.password", "mypassword")
	v.SetDefault("postgres.db", "wordgamedb")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("game.round_duration", 180)
	v.SetDefault("game.min_players", 2)
	v.SetDefault("game.max_players", 8)
	v.SetDefault("game.default_mode", "secret_word")

	v.SetDefault("cleanup.max_age", 24*time.Hour)

	v.SetDefault("ratelimit.requests_per_minute", 600)
	v.SetDefault("ratelimit.burst", 60)
	v.SetDefault("ratelimit.ws_messages_per_second", 5)
	v.SetDefault("ratelimit.ws_burst", 10)
}

func Read() Config {
	return read(viper.GetViper())
}

func read(v *viper.Viper) Config {
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")
	v.AddConfigPath("/")

	setDefaults(v)

	// ENV overrides with prefix WORDGAME_ and dot-to-underscore replacement
	v.SetEnvPrefix("WORDGAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		zap.L().Warn("Failed to read configuration file", zap.Error(err))
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		zap.L().Error("Configuration could not be parsed", zap.Error(err))
	}

	return config
}
