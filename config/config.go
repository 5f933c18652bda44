// Package config loads the desktop simulator settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/harveysanders/airpanel/frame"
	"github.com/harveysanders/airpanel/station"
)

// ErrUnknownPolicy is returned for a checksum policy other than "accept"
// or "reject".
var ErrUnknownPolicy = errors.New("unknown checksum policy")

// DefaultBaud is the CO2 sensor UART rate.
const DefaultBaud = 9600

// Host is the simulator configuration.
type Host struct {
	Station  station.Config
	LogLevel slog.Level

	// SerialPort is the device the sensor is attached to. Empty selects the
	// synthetic frame generator.
	SerialPort string
	Baud       int

	// Snapshot is the PNG path rewritten after every redraw. Empty disables it.
	Snapshot string
}

type fileConfig struct {
	LogLevel string `toml:"log_level"`
	Serial   struct {
		Port string `toml:"port"`
		Baud int    `toml:"baud"`
	} `toml:"serial"`
	Display struct {
		Width        int    `toml:"width"`
		Height       int    `toml:"height"`
		Snapshot     string `toml:"snapshot"`
		DateInterval string `toml:"date_interval"`
	} `toml:"display"`
	Loop struct {
		Tick       string `toml:"tick"`
		StaleAfter string `toml:"stale_after"`
		Heartbeat  string `toml:"heartbeat"`
		Buffer     int    `toml:"buffer"`
		Checksum   string `toml:"checksum"`
	} `toml:"loop"`
}

// Default returns the settings used when no file is given.
func Default() Host {
	return Host{
		Station:  station.DefaultConfig(),
		LogLevel: slog.LevelInfo,
		Baud:     DefaultBaud,
	}
}

// Load reads path over Default. Keys absent from the file keep their
// default.
func Load(path string) (Host, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Host{}, fmt.Errorf("load config: %w", err)
	}
	return apply(Default(), raw, meta)
}

// Parse is Load for an in-memory document.
func Parse(doc string) (Host, error) {
	var raw fileConfig
	meta, err := toml.Decode(doc, &raw)
	if err != nil {
		return Host{}, fmt.Errorf("parse config: %w", err)
	}
	return apply(Default(), raw, meta)
}

func apply(cfg Host, raw fileConfig, meta toml.MetaData) (Host, error) {
	if keys := meta.Undecoded(); len(keys) > 0 {
		return Host{}, fmt.Errorf("unknown config key %q", keys[0].String())
	}

	if meta.IsDefined("log_level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(raw.LogLevel))); err != nil {
			return Host{}, fmt.Errorf("parse log_level: %w", err)
		}
	}

	if meta.IsDefined("serial", "port") {
		cfg.SerialPort = strings.TrimSpace(raw.Serial.Port)
	}
	if meta.IsDefined("serial", "baud") {
		cfg.Baud = raw.Serial.Baud
	}

	if meta.IsDefined("display", "width") {
		cfg.Station.Layout.Screen.Width = int16(raw.Display.Width)
	}
	if meta.IsDefined("display", "height") {
		cfg.Station.Layout.Screen.Height = int16(raw.Display.Height)
	}
	if meta.IsDefined("display", "snapshot") {
		cfg.Snapshot = strings.TrimSpace(raw.Display.Snapshot)
	}

	durations := []struct {
		key []string
		raw string
		dst *time.Duration
	}{
		{[]string{"display", "date_interval"}, raw.Display.DateInterval, &cfg.Station.Layout.DateInterval},
		{[]string{"loop", "tick"}, raw.Loop.Tick, &cfg.Station.TickInterval},
		{[]string{"loop", "stale_after"}, raw.Loop.StaleAfter, &cfg.Station.StaleAfter},
		{[]string{"loop", "heartbeat"}, raw.Loop.Heartbeat, &cfg.Station.HeartbeatInterval},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key...) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Host{}, fmt.Errorf("parse %s: %w", strings.Join(d.key, "."), err)
		}
		*d.dst = v
	}

	if meta.IsDefined("loop", "buffer") {
		if raw.Loop.Buffer < frame.Size {
			return Host{}, fmt.Errorf("loop.buffer %d is smaller than a frame", raw.Loop.Buffer)
		}
		cfg.Station.BufferCapacity = raw.Loop.Buffer
	}
	if meta.IsDefined("loop", "checksum") {
		p, err := ParsePolicy(raw.Loop.Checksum)
		if err != nil {
			return Host{}, err
		}
		cfg.Station.ChecksumPolicy = p
	}

	if err := validate(cfg); err != nil {
		return Host{}, err
	}
	return cfg, nil
}

// ParsePolicy maps "accept" and "reject" to a checksum policy.
func ParsePolicy(s string) (frame.ChecksumPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case frame.AcceptAndFlag.String():
		return frame.AcceptAndFlag, nil
	case frame.RejectAndResync.String():
		return frame.RejectAndResync, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

func validate(cfg Host) error {
	s := cfg.Station.Layout.Screen
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", s.Width, s.Height)
	}
	if cfg.Station.TickInterval <= 0 {
		return errors.New("loop.tick must be positive")
	}
	if cfg.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", cfg.Baud)
	}
	return nil
}

// Size returns the configured screen size in pixels.
func (h Host) Size() (width, height int) {
	return int(h.Station.Layout.Screen.Width), int(h.Station.Layout.Screen.Height)
}
