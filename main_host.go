//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/harveysanders/airpanel/clock"
	"github.com/harveysanders/airpanel/config"
	"github.com/harveysanders/airpanel/panel"
	"github.com/harveysanders/airpanel/render"
	"github.com/harveysanders/airpanel/station"
	"github.com/harveysanders/airpanel/telemetry"
	"github.com/harveysanders/airpanel/weather"
)

func main() {
	var (
		cfgPath  string
		port     string
		snapshot string
		ticks    int
		seed     uint64
		policy   string
		jsonOut  bool
	)
	flag.StringVar(&cfgPath, "config", "", "TOML settings file.")
	flag.StringVar(&port, "port", "", "Serial device of the CO2 sensor (default: synthetic frames).")
	flag.StringVar(&snapshot, "snapshot", "", "Write the panel to this PNG after every redraw.")
	flag.IntVar(&ticks, "ticks", 0, "Stop after N redraws (0 = run until interrupted).")
	flag.Uint64Var(&seed, "seed", 1, "Seed for the synthetic sensors.")
	flag.StringVar(&policy, "checksum", "", "Checksum policy: accept or reject.")
	flag.BoolVar(&jsonOut, "json", false, "Print each report as its telemetry JSON on stdout.")
	flag.Parse()

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if port != "" {
		cfg.SerialPort = port
	}
	if snapshot != "" {
		cfg.Snapshot = snapshot
	}
	if policy != "" {
		p, err := config.ParsePolicy(policy)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		cfg.Station.ChecksumPolicy = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg, ticks, seed, jsonOut); err != nil && err != context.Canceled {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Host, ticks int, seed uint64, jsonOut bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	var src station.Source
	if cfg.SerialPort != "" {
		p, err := openSerial(cfg.SerialPort, cfg.Baud)
		if err != nil {
			return err
		}
		defer p.Close()
		q := newByteQueue(16 * cfg.Station.BufferCapacity)
		go pump(p, q, logger)
		src = q
		logger.Info("serial:open", slog.String("port", cfg.SerialPort), slog.Int("baud", cfg.Baud))
	} else {
		src = newSynthSource(seed, time.Second)
		logger.Info("serial:synthetic")
	}

	w, h := cfg.Size()
	canvas := panel.NewImage(w, h, render.Black)
	canvas.Path = cfg.Snapshot
	cfg.Station.Layout.Cell = canvas.Metrics()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	redraws := 0
	st := station.New(cfg.Station, station.Deps{
		Source: src,
		Sensor: weather.NewSensor(newSynthDHT(seed)),
		Clock:  clock.NewSystem(),
		Canvas: canvas,
		Logger: logger,
		OnReport: func(r station.Report) {
			redraws++
			if jsonOut {
				b, err := telemetry.Encode("airpanel-host", r)
				if err != nil {
					logger.Error("telemetry:encode", slog.Any("reason", err))
				} else {
					fmt.Println(string(b))
				}
			}
			if ticks > 0 && redraws >= ticks {
				cancel()
			}
		},
	})

	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()
	for {
		if err := st.Poll(); err != nil {
			logger.Error("poll", slog.Any("reason", err))
		}
		select {
		case <-ctx.Done():
			stats := st.Stats()
			logger.Info("stopped",
				slog.Int("redraws", redraws),
				slog.Uint64("frames", uint64(stats.Frames)),
				slog.Uint64("checksumErrors", uint64(stats.ChecksumErrors)),
			)
			if ticks > 0 && redraws >= ticks {
				return nil
			}
			return ctx.Err()
		case <-poll.C:
		}
	}
}
