//go:build tinygo

package weather

import (
	"machine"

	"tinygo.org/x/drivers/dht"
)

type dhtDevice struct {
	dev dht.Device
}

func (d dhtDevice) ReadMeasurements() error { return d.dev.ReadMeasurements() }

func (d dhtDevice) Temperature() (float32, error) { return d.dev.TemperatureFloat(dht.C) }

func (d dhtDevice) Humidity() (float32, error) { return d.dev.HumidityFloat() }

// NewDHT22 returns a Sensor reading a DHT22 on pin.
func NewDHT22(pin machine.Pin) *Sensor {
	return NewSensor(dhtDevice{dev: dht.New(pin, dht.DHT22)})
}
