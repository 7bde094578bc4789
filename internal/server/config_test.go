package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadConfig()
	req.NoError(err)

	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1<<20), cfg.MaxMessageSize)
	assert.Equal(t, 256, cfg.SendBufferSize)
	assert.Less(t, cfg.PingInterval, cfg.PongTimeout)
}

func TestLoadConfigPortForms(t *testing.T) {
	tests := []struct {
		port string
		want string
	}{
		{"8080", ":8080"},
		{":9090", ":9090"},
		{"127.0.0.1:9090", "127.0.0.1:9090"},
	}

	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			t.Setenv("PORT", tt.port)
			cfg, err := LoadConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Addr())
		})
	}
}

func TestLoadConfigRejectsInvalidPort(t *testing.T) {
	t.Setenv("PORT", "80 80")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigOriginList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.example,http://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative message size", "MAX_MESSAGE_SIZE", "-1"},
		{"zero send buffer", "SEND_BUFFER_SIZE", "0"},
		{"unknown log mode", "LOG_MODE", "verbose"},
		{"ping slower than pong window", "PING_INTERVAL", "2m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	cfg := DefaultConfig()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)

	cfg.LogLevel = "nope"
	_, err = NewLogger(cfg)
	require.Error(t, err)

	cfg.LogLevel = "debug"
	cfg.LogMode = "development"
	logger, err = NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
}
