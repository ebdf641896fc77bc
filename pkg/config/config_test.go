package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("INBOX_SCAN_LIMIT", "")
	t.Setenv("AI_TIMEOUT", "")
	t.Setenv("SCRAPER_USE_BROWSER", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 20, cfg.InboxScanLimit)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.False(t, cfg.ScraperUseBrowser)
	assert.Contains(t, cfg.ScraperUserAgent, "Mozilla/5.0")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("INBOX_SCAN_LIMIT", "5")
	t.Setenv("AI_TIMEOUT", "2s")
	t.Setenv("SCRAPER_USE_BROWSER", "true")
	t.Setenv("AI_PROVIDER", "ollama")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5, cfg.InboxScanLimit)
	assert.Equal(t, 2*time.Second, cfg.AITimeout)
	assert.True(t, cfg.ScraperUseBrowser)
	assert.Equal(t, "ollama", cfg.AIProvider)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("INBOX_SCAN_LIMIT", "many")
	t.Setenv("SMTP_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 20, cfg.InboxScanLimit)
	assert.Equal(t, 30*time.Second, cfg.SMTPTimeout)
}

func TestSetupLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.level}
			logger := cfg.SetupLogger()
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}
