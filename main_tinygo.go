//go:build tinygo

package main

import (
	"log/slog"
	"machine"
	"net/netip"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/st7789"

	"github.com/harveysanders/airpanel/clock"
	"github.com/harveysanders/airpanel/netstack"
	"github.com/harveysanders/airpanel/panel"
	"github.com/harveysanders/airpanel/render"
	"github.com/harveysanders/airpanel/station"
	"github.com/harveysanders/airpanel/telemetry"
	"github.com/harveysanders/airpanel/weather"
)

const (
	co2Baud          = 9600
	dhtPin           = machine.GP15
	backlightPin     = machine.GP13
	backlightPercent = 80
	pollSleep        = 10 * time.Millisecond
)

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	debugLED := machine.GP21
	debugLED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	uart := machine.UART0
	err := uart.Configure(machine.UARTConfig{
		BaudRate: co2Baud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	if err != nil {
		printErrForever(logger, "configure UART", slog.Any("reason", err))
	}

	err = machine.SPI1.Configure(machine.SPIConfig{
		Frequency: 62_500_000,
		SCK:       machine.GP10,
		SDO:       machine.GP11,
		Mode:      0,
	})
	if err != nil {
		printErrForever(logger, "configure SPI", slog.Any("reason", err))
	}
	dev := st7789.New(machine.SPI1, machine.GP12, machine.GP8, machine.GP9, backlightPin)
	dev.Configure(st7789.Config{
		Width:        172,
		Height:       320,
		Rotation:     drivers.Rotation90,
		ColumnOffset: 34,
	})
	canvas := panel.NewST7789(&dev, render.Black)
	// Hand the backlight pin over from the driver to PWM.
	backlight, err := panel.NewBacklight(machine.PWM6, backlightPin)
	if err != nil {
		printErrForever(logger, "configure backlight", slog.Any("reason", err))
	}
	backlight.Set(backlightPercent)

	cfg := station.DefaultConfig()
	cfg.Layout.Cell = canvas.Metrics()
	w, h := dev.Size()
	cfg.Layout.Screen = render.Screen{Width: w, Height: h}

	var reports chan station.Report
	if netstack.Enabled() {
		reports = make(chan station.Report, 10)
		go publish(logger, reports)
	}

	st := station.New(cfg, station.Deps{
		Source: uart,
		Sensor: weather.NewDHT22(dhtPin),
		Clock:  clock.NewSystem(),
		Canvas: canvas,
		Logger: logger,
		OnReport: func(r station.Report) {
			debugLED.Set(!debugLED.Get())
			if reports != nil && !telemetry.Offer(reports, r) {
				logger.Warn("telemetry:dropped", slog.Duration("sinceBoot", r.SinceBoot))
			}
		},
	})
	if err := st.Init(); err != nil {
		printErrForever(logger, "draw layout", slog.Any("reason", err))
	}

	for {
		if err := st.Poll(); err != nil {
			logger.Error("poll", slog.Any("reason", err))
		}
		time.Sleep(pollSleep)
	}
}

// publish joins WiFi and forwards reports to the broker. Failures are
// logged; the panel keeps running without telemetry.
func publish(logger *slog.Logger, reports <-chan station.Report) {
	ssid, pass, broker := netstack.Credentials()
	stack, err := netstack.Join(netstack.Config{
		SSID:     ssid,
		Password: pass,
		Hostname: "airpanel",
		Logger:   logger,
	})
	if err != nil {
		logger.Error("wifi:unavailable", slog.Any("reason", err))
		return
	}
	go stack.Run(5 * time.Millisecond)
	if _, err := stack.DHCP(netip.Addr{}); err != nil {
		logger.Error("dhcp:unavailable", slog.Any("reason", err))
		return
	}

	p := telemetry.Publisher{ID: "airpanel", Logger: logger}
	if err := p.Run(stack, broker, reports); err != nil {
		printErrForever(logger, "telemetry", slog.Any("reason", err))
	}
}

// printErrForever logs msg once a second so a late serial monitor still
// sees it. It blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
