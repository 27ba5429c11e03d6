package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string
	GinMode        string
	CORSAllow      []string
	HistoryLimit   int
	SendBuffer     int
	MaxMessageSize int64
	RoomIdleTTL    time.Duration // 0 keeps rooms forever
}

func Default() Config {
	return Config{
		Port:           "8080",
		LogLevel:       "info",
		LogFormat:      "text",
		GinMode:        "release",
		CORSAllow:      []string{"*"},
		HistoryLimit:   20000,
		SendBuffer:     256,
		MaxMessageSize: 4096,
	}
}

// Load reads an optional .env file and then the environment. Invalid values
// keep their default; the returned error lists every one of them and the
// Config is usable either way.
func Load() (Config, error) {
	var errs []error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf(".env: %w", err))
	}

	cfg := Default()
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))
	switch v := os.Getenv("GIN_MODE"); v {
	case "":
	case "debug", "release", "test":
		cfg.GinMode = v
	default:
		errs = append(errs, fmt.Errorf("GIN_MODE=%q: want debug, release or test", v))
	}
	if v := os.Getenv("CORS_ALLOW"); v != "" {
		cfg.CORSAllow = splitCSV(v)
	}

	cfg.HistoryLimit = getEnvInt("HISTORY_LIMIT", cfg.HistoryLimit, &errs)
	cfg.SendBuffer = getEnvInt("SEND_BUFFER", cfg.SendBuffer, &errs)
	cfg.MaxMessageSize = int64(getEnvInt("MAX_MESSAGE_SIZE", int(cfg.MaxMessageSize), &errs))

	if v := os.Getenv("ROOM_IDLE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("ROOM_IDLE_TTL=%q: want a non-negative duration", v))
		} else {
			cfg.RoomIdleTTL = d
		}
	}

	return cfg, errors.Join(errs...)
}

func (c Config) Addr() string { return ":" + c.Port }

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses a positive int, recording a problem in errs on failure.
func getEnvInt(k string, def int, errs *[]error) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		*errs = append(*errs, fmt.Errorf("%s=%q: want a positive integer", k, v))
		return def
	}
	return i
}

func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
