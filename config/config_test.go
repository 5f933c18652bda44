package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harveysanders/airpanel/frame"
	"github.com/harveysanders/airpanel/station"
)

func TestLoadExample(t *testing.T) {
	cfg, err := Load(filepath.Join(".", "airpanel.example.toml"))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.Equal(t, 9600, cfg.Baud)
	assert.Equal(t, "panel.png", cfg.Snapshot)
	assert.Equal(t, time.Hour, cfg.Station.Layout.DateInterval)
	assert.Equal(t, time.Second, cfg.Station.TickInterval)
	assert.Equal(t, 3*time.Second, cfg.Station.StaleAfter)
	assert.Equal(t, 64, cfg.Station.BufferCapacity)
	assert.Equal(t, frame.RejectAndResync, cfg.Station.ChecksumPolicy)

	w, h := cfg.Size()
	assert.Equal(t, 320, w)
	assert.Equal(t, 172, h)
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse(`
[loop]
tick = "250ms"
`)
	require.NoError(t, err)

	want := station.DefaultConfig()
	want.TickInterval = 250 * time.Millisecond
	assert.Equal(t, want, cfg.Station)
	assert.Equal(t, DefaultBaud, cfg.Baud)
	assert.Empty(t, cfg.SerialPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad duration", "[loop]\nstale_after = \"soon\"", "parse loop.stale_after"},
		{"bad policy", "[loop]\nchecksum = \"maybe\"", "unknown checksum policy"},
		{"small buffer", "[loop]\nbuffer = 8", "smaller than a frame"},
		{"unknown key", "[loop]\ntick_rate = \"1s\"", "unknown config key"},
		{"zero width", "[display]\nwidth = 0", "invalid display size"},
		{"bad level", "log_level = \"loud\"", "parse log_level"},
		{"syntax", "[loop", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Accept ")
	require.NoError(t, err)
	assert.Equal(t, frame.AcceptAndFlag, p)

	_, err = ParsePolicy("drop")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}
