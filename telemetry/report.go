// Package telemetry publishes the panel readings to an MQTT broker over the
// Pico W radio.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/harveysanders/airpanel/station"
)

// DefaultTopic is the topic readings are published to.
const DefaultTopic = "airpanel/readings"

// Reading is the JSON document published for each redraw. Values the panel
// has not received yet are omitted.
type Reading struct {
	Device      string        `json:"device"`
	CO2         *uint16       `json:"co2_ppm,omitempty"`
	ChecksumOK  bool          `json:"checksum_ok"`
	Temperature *float32      `json:"temperature,omitempty"` // Celsius.
	Humidity    *float32      `json:"humidity,omitempty"`    // Relative humidity percentage.
	Stale       bool          `json:"stale"`
	SinceBootNS time.Duration `json:"since_boot_ns"`
}

// FromReport converts a station report.
func FromReport(device string, r station.Report) Reading {
	rd := Reading{
		Device:      device,
		ChecksumOK:  r.ChecksumOK,
		Stale:       r.Stale,
		SinceBootNS: r.SinceBoot,
	}
	if r.HasCO2 {
		co2 := r.CO2
		rd.CO2 = &co2
	}
	if r.HasTemp {
		t := r.Temperature
		rd.Temperature = &t
	}
	if r.HasHumidity {
		h := r.Humidity
		rd.Humidity = &h
	}
	return rd
}

// Encode returns the JSON payload for r.
func Encode(device string, r station.Report) ([]byte, error) {
	return json.Marshal(FromReport(device, r))
}

// Offer queues r on ch without blocking. It reports false when the queue is
// full and the report was dropped.
func Offer(ch chan<- station.Report, r station.Report) bool {
	select {
	case ch <- r:
		return true
	default:
		return false
	}
}
