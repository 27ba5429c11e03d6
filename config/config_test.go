package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "LOG_FORMAT", "GIN_MODE", "CORS_ALLOW", "HISTORY_LIMIT", "SEND_BUFFER", "MAX_MESSAGE_SIZE", "ROOM_IDLE_TTL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 20000, cfg.HistoryLimit)
	assert.Zero(t, cfg.RoomIdleTTL)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("CORS_ALLOW", "http://localhost:5173, https://board.example.com,")
	t.Setenv("HISTORY_LIMIT", "500")
	t.Setenv("SEND_BUFFER", "64")
	t.Setenv("MAX_MESSAGE_SIZE", "8192")
	t.Setenv("ROOM_IDLE_TTL", "30m")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, []string{"http://localhost:5173", "https://board.example.com"}, cfg.CORSAllow)
	assert.Equal(t, 500, cfg.HistoryLimit)
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.Equal(t, int64(8192), cfg.MaxMessageSize)
	assert.Equal(t, 30*time.Minute, cfg.RoomIdleTTL)
}

func TestLoad_InvalidValuesKeepDefaults(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:    "history limit not a number",
			key:     "HISTORY_LIMIT",
			value:   "lots",
			wantErr: "HISTORY_LIMIT",
			check:   func(t *testing.T, cfg Config) { assert.Equal(t, 20000, cfg.HistoryLimit) },
		},
		{
			name:    "negative send buffer",
			key:     "SEND_BUFFER",
			value:   "-1",
			wantErr: "SEND_BUFFER",
			check:   func(t *testing.T, cfg Config) { assert.Equal(t, 256, cfg.SendBuffer) },
		},
		{
			name:    "unknown gin mode",
			key:     "GIN_MODE",
			value:   "production",
			wantErr: "GIN_MODE",
			check:   func(t *testing.T, cfg Config) { assert.Equal(t, "release", cfg.GinMode) },
		},
		{
			name:    "bad duration",
			key:     "ROOM_IDLE_TTL",
			value:   "soon",
			wantErr: "ROOM_IDLE_TTL",
			check:   func(t *testing.T, cfg Config) { assert.Zero(t, cfg.RoomIdleTTL) },
		},
		{
			name:    "negative duration",
			key:     "ROOM_IDLE_TTL",
			value:   "-5m",
			wantErr: "ROOM_IDLE_TTL",
			check:   func(t *testing.T, cfg Config) { assert.Zero(t, cfg.RoomIdleTTL) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			tt.check(t, cfg)
		})
	}
}
