//go:build tinygo

package panel

import (
	"fmt"
	"machine"
	"time"
)

// pwm is the subset of a machine PWM slice the backlight needs.
type pwm interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// Backlight dims the panel LED through a PWM slice. On the RP2040, GP13 is
// driven by PWM6.
type Backlight struct {
	pwm pwm
	ch  uint8
}

// NewBacklight configures p at 1kHz on pin.
func NewBacklight(p pwm, pin machine.Pin) (*Backlight, error) {
	err := p.Configure(machine.PWMConfig{
		Period: uint64(time.Second) / 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("configure backlight pwm: %w", err)
	}
	ch, err := p.Channel(pin)
	if err != nil {
		return nil, fmt.Errorf("backlight pwm channel: %w", err)
	}
	return &Backlight{pwm: p, ch: ch}, nil
}

// Set sets the brightness in percent.
func (b *Backlight) Set(percent uint8) {
	b.pwm.Set(b.ch, Duty(percent, b.pwm.Top()))
}
