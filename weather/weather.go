// Package weather provides temperature and humidity sensing from a DHT22
// (AM2302). It throttles reads to the sensor's minimum 2-second sampling
// interval and reports temperature and humidity as independently valid, so a
// failed conversion of one does not discard the other.
package weather

import (
	"time"
)

// MinReadInterval is the DHT22 minimum time between conversions.
const MinReadInterval = 2 * time.Second

// Device is the subset of a DHT driver used by Sensor.
type Device interface {
	ReadMeasurements() error
	Temperature() (float32, error) // Degrees Celsius.
	Humidity() (float32, error)    // Relative humidity percentage.
}

// Sample is one poll result. A quantity whose OK flag is false is missing.
type Sample struct {
	Temperature float32
	Humidity    float32
	TempOK      bool
	HumidityOK  bool
	Cached      bool  // Returned from the throttle cache without touching the device.
	Err         error // Last device error, if any.
}

// Poller is implemented by anything that yields Samples.
type Poller interface {
	Poll() Sample
}

// Sensor wraps a DHT device with throttling. Readings taken less than
// minReadInterval after the last device access are served from cache.
type Sensor struct {
	dev             Device
	now             func() time.Time
	minReadInterval time.Duration // Minimum time between device reads.
	lastReadTime    time.Time     // Last time the device was queried.
	last            Sample        // Result of the last device read.
	hasRead         bool
}

// NewSensor returns a Sensor for dev using the wall clock.
func NewSensor(dev Device) *Sensor {
	return &Sensor{
		dev:             dev,
		now:             time.Now,
		minReadInterval: MinReadInterval,
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *Sensor) SetClock(now func() time.Time) { s.now = now }

// Poll reads the device unless the last read was within the throttle
// interval. Missing quantities are flagged rather than zeroed so callers can
// keep their last known-good value.
func (s *Sensor) Poll() Sample {
	now := s.now()
	if s.hasRead && now.Sub(s.lastReadTime) < s.minReadInterval {
		cached := s.last
		cached.Cached = true
		return cached
	}
	s.lastReadTime = now
	s.hasRead = true

	var smp Sample
	if err := s.dev.ReadMeasurements(); err != nil {
		smp.Err = err
		s.last = smp
		return smp
	}
	if t, err := s.dev.Temperature(); err == nil {
		smp.Temperature, smp.TempOK = t, true
	} else {
		smp.Err = err
	}
	if h, err := s.dev.Humidity(); err == nil {
		smp.Humidity, smp.HumidityOK = h, true
	} else {
		smp.Err = err
	}
	s.last = smp
	return smp
}

// Retained keeps the last known-good temperature and humidity across
// missing samples.
type Retained struct {
	Temperature float32
	Humidity    float32
	HasTemp     bool
	HasHumidity bool
}

// Update folds s into r. Missing quantities leave the previous value in
// place.
func (r *Retained) Update(s Sample) {
	if s.TempOK {
		r.Temperature, r.HasTemp = s.Temperature, true
	}
	if s.HumidityOK {
		r.Humidity, r.HasHumidity = s.Humidity, true
	}
}
