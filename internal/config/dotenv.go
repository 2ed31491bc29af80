package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                     string
	DatabaseURL              string
	AutoMigrate              bool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	MaxPlayersPerRoom        int
	RoomCodeLength           int
	DefaultLanguage          string
	TimerTickMillis          int
	AllowedOrigins           []string
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	RateLimitPerSecond       float64
	RateLimitBurst           int
	EventBuffer              int
	LogLevel                 string
	Environment              string
}

func Default() Config {
	return Config{
		Port:                     "8080",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		MaxPlayersPerRoom:        8,
		RoomCodeLength:           6,
		DefaultLanguage:          "es",
		TimerTickMillis:          1000,
		AllowedOrigins:           []string{"*"},
		RateLimitPerSecond:       5,
		RateLimitBurst:           10,
		EventBuffer:              256,
		LogLevel:                 "info",
		Environment:              "development",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("AUTO_MIGRATE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.AutoMigrate = value
		}
	}
	positiveInt("DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns)
	positiveInt("DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns)
	positiveInt("DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifetimeSeconds)
	positiveInt("DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleTimeSeconds)
	positiveInt("MAX_PLAYERS_PER_ROOM", &cfg.MaxPlayersPerRoom)
	positiveInt("ROOM_CODE_LENGTH", &cfg.RoomCodeLength)
	positiveInt("TIMER_TICK_MILLIS", &cfg.TimerTickMillis)
	positiveInt("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	positiveInt("EVENT_BUFFER", &cfg.EventBuffer)
	if raw := os.Getenv("DEFAULT_LANGUAGE"); raw != "" {
		cfg.DefaultLanguage = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	if raw := os.Getenv("REDIS_ADDR"); raw != "" {
		cfg.RedisAddr = raw
	}
	if raw := os.Getenv("REDIS_PASSWORD"); raw != "" {
		cfg.RedisPassword = raw
	}
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.RedisDB = value
		}
	}
	if raw := os.Getenv("RATE_LIMIT_PER_SECOND"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			cfg.RateLimitPerSecond = value
		}
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("ENVIRONMENT"); raw != "" {
		cfg.Environment = raw
	}
	return cfg
}

func (c Config) TimerTick() time.Duration {
	return time.Duration(c.TimerTickMillis) * time.Millisecond
}

func (c Config) DBConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeSeconds) * time.Second
}

func (c Config) DBConnMaxIdleTime() time.Duration {
	return time.Duration(c.DBConnMaxIdleTimeSeconds) * time.Second
}

func positiveInt(name string, target *int) {
	raw := os.Getenv(name)
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		*target = value
	}
}
