// Package station runs the display loop: it drains the CO2 sensor UART into
// a frame reassembler, and once per tick redraws whatever changed on the
// panel.
//
// A Station is driven by repeated calls to Poll from a single goroutine.
// Poll never blocks: it consumes only the bytes already buffered by the
// source and renders only when the tick interval has passed.
package station

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/harveysanders/airpanel/clock"
	"github.com/harveysanders/airpanel/frame"
	"github.com/harveysanders/airpanel/render"
	"github.com/harveysanders/airpanel/weather"
)

// Source is a non-blocking byte source. *machine.UART satisfies it.
type Source interface {
	// Buffered returns the number of bytes ready to be read.
	Buffered() int
	Read(p []byte) (int, error)
}

// Config holds the loop timing and layout parameters.
type Config struct {
	TickInterval      time.Duration // Minimum time between redraws.
	StaleAfter        time.Duration // Silence on the UART before the stale marker shows.
	HeartbeatInterval time.Duration
	BufferCapacity    int
	ChecksumPolicy    frame.ChecksumPolicy
	Layout            render.LayoutConfig
}

// DefaultConfig returns the timing used on the 320x172 panel. The font cell
// size is left for the caller to fill from the canvas font.
func DefaultConfig() Config {
	return Config{
		TickInterval:      time.Second,
		StaleAfter:        3 * time.Second,
		HeartbeatInterval: 2 * time.Second,
		BufferCapacity:    frame.DefaultCapacity,
		ChecksumPolicy:    frame.AcceptAndFlag,
		Layout: render.LayoutConfig{
			Screen:       render.Screen{Width: 320, Height: 172},
			DateInterval: render.DefaultDateInterval,
		},
	}
}

// Report is the state shown after a redraw.
type Report struct {
	CO2         uint16
	ChecksumOK  bool
	HasCO2      bool
	Temperature float32
	Humidity    float32
	HasTemp     bool
	HasHumidity bool
	Stale       bool
	SinceBoot   time.Duration
}

// Deps are the collaborators a Station talks to.
type Deps struct {
	Source Source
	Sensor weather.Poller
	Clock  clock.Clock
	Canvas render.Canvas
	Logger *slog.Logger
	// OnReport, if set, is called after every redraw. It must not block.
	OnReport func(Report)
}

// Station owns the raw byte buffer and the display fields.
type Station struct {
	cfg Config
	Deps

	frames   *frame.Reassembler
	layout   *render.Layout
	retained weather.Retained

	latest  frame.Reading
	haveCO2 bool

	lastByte      time.Duration
	lastRender    time.Duration
	lastHeartbeat time.Duration

	readBuf [frame.DefaultCapacity]byte
	hexBuf  []byte
}

// New returns a Station. Nothing is drawn until Init or the first Poll.
func New(cfg Config, deps Deps) *Station {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127),
		}))
	}
	return &Station{
		cfg:    cfg,
		Deps:   deps,
		frames: frame.NewReassembler(cfg.BufferCapacity, cfg.ChecksumPolicy),
		layout: render.NewLayout(cfg.Layout),
		hexBuf: make([]byte, 0, 3*frame.Size),
	}
}

// Init draws the static screen. Calls after the first do nothing.
func (s *Station) Init() error {
	if s.layout.Initialized() {
		return nil
	}
	ops := s.layout.Init(s.Clock.Today())
	s.Logger.Info("layout:init",
		slog.Int("unitX", int(s.layout.UnitX)),
		slog.Int("dividerY", int(s.layout.DividerY)),
		slog.Int("co2Y", int(s.layout.CO2.Y)),
		slog.String("policy", s.frames.Policy().String()),
	)
	if err := render.Execute(s.Canvas, ops); err != nil {
		return fmt.Errorf("draw layout: %w", err)
	}
	return nil
}

// Poll runs one pass of the loop: ingest, extract, and redraw if due.
func (s *Station) Poll() error {
	if err := s.Init(); err != nil {
		return err
	}
	now := s.Clock.Elapsed()
	err := s.ingest(now)
	s.extract()
	s.heartbeat(now)
	if now-s.lastRender < s.cfg.TickInterval {
		return err
	}
	s.lastRender = now
	if rerr := s.redraw(now); rerr != nil {
		return rerr
	}
	return err
}

func (s *Station) ingest(now time.Duration) error {
	received, dropped := 0, 0
	for s.Source.Buffered() > 0 {
		n, err := s.Source.Read(s.readBuf[:])
		if n > 0 {
			s.lastByte = now
			received += n
			res := s.frames.Append(s.readBuf[:n])
			dropped += res.Dropped
		}
		if err != nil {
			return fmt.Errorf("read uart: %w", err)
		}
		if n == 0 {
			break
		}
	}
	if received > 0 {
		s.Logger.Debug("uart:rx",
			slog.Int("bytes", received),
			slog.Int("buffered", s.frames.Buffered()),
		)
	}
	if dropped > 0 {
		s.Logger.Warn("uart:overflow",
			slog.Int("dropped", dropped),
			slog.Int("capacity", s.cfg.BufferCapacity),
		)
	}
	return nil
}

func (s *Station) extract() {
	for rd := range s.frames.Drain() {
		s.latest = rd
		s.haveCO2 = true
		s.hexBuf = frame.AppendHex(s.hexBuf[:0], rd.Frame[:])
		if !rd.ChecksumOK {
			s.Logger.Warn("co2:checksum-mismatch",
				slog.String("frame", string(s.hexBuf)),
				slog.Int("expected", int(rd.Expected)),
				slog.Int("got", int(rd.Got)),
			)
		}
		s.Logger.Debug("co2:frame",
			slog.String("frame", string(s.hexBuf)),
			slog.Int("co2", int(rd.CO2)),
		)
	}
}

func (s *Station) heartbeat(now time.Duration) {
	if s.cfg.HeartbeatInterval <= 0 || now-s.lastHeartbeat < s.cfg.HeartbeatInterval {
		return
	}
	s.lastHeartbeat = now
	st := s.frames.Stats()
	s.Logger.Debug("heartbeat",
		slog.Duration("uptime", now),
		slog.Uint64("frames", uint64(st.Frames)),
		slog.Uint64("checksumErrors", uint64(st.ChecksumErrors)),
		slog.Uint64("resyncBytes", uint64(st.ResyncBytes)),
		slog.Uint64("droppedBytes", uint64(st.DroppedBytes)),
	)
}

func (s *Station) redraw(now time.Duration) error {
	smp := s.Sensor.Poll()
	if !smp.Cached && (!smp.TempOK || !smp.HumidityOK) {
		s.Logger.Warn("dht:missing",
			slog.Bool("temp", smp.TempOK),
			slog.Bool("humidity", smp.HumidityOK),
			slog.Any("reason", smp.Err),
		)
	}
	s.retained.Update(smp)

	var ops []render.Op
	ops = apply(ops, &s.layout.Date, render.Text(s.Clock.Today()), now)
	if s.haveCO2 {
		ops = apply(ops, &s.layout.CO2, render.Count(s.latest.CO2), now)
	}
	if s.retained.HasTemp {
		ops = apply(ops, &s.layout.Temp, render.Tenths(s.retained.Temperature), now)
	}
	if s.retained.HasHumidity {
		ops = apply(ops, &s.layout.Humidity, render.Tenths(s.retained.Humidity), now)
	}
	stale := now-s.lastByte > s.cfg.StaleAfter
	ops = append(ops, s.layout.Stale.Update(stale)...)

	if len(ops) > 0 {
		s.Logger.Debug("display:update", slog.Int("ops", len(ops)))
	}
	if err := render.Execute(s.Canvas, ops); err != nil {
		return fmt.Errorf("draw update: %w", err)
	}
	if s.OnReport != nil {
		s.OnReport(Report{
			CO2:         s.latest.CO2,
			ChecksumOK:  s.latest.ChecksumOK,
			HasCO2:      s.haveCO2,
			Temperature: s.retained.Temperature,
			Humidity:    s.retained.Humidity,
			HasTemp:     s.retained.HasTemp,
			HasHumidity: s.retained.HasHumidity,
			Stale:       stale,
			SinceBoot:   now,
		})
	}
	return nil
}

func apply(ops []render.Op, f *render.Field, v render.Value, now time.Duration) []render.Op {
	o, next := f.Apply(v, now)
	*f = next
	return append(ops, o...)
}

// Layout exposes the display fields for inspection.
func (s *Station) Layout() *render.Layout { return s.layout }

// Stats returns the reassembler counters.
func (s *Station) Stats() frame.Stats { return s.frames.Stats() }

// Latest returns the newest CO2 reading, if any frame has been decoded.
func (s *Station) Latest() (frame.Reading, bool) { return s.latest, s.haveCO2 }
