//go:build !tinygo

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/harveysanders/airpanel/frame"
)

// byteQueue hands bytes from a reader goroutine to the station loop. It
// satisfies station.Source.
type byteQueue struct {
	mu   sync.Mutex
	buf  []byte
	max  int
	lost int
	err  error
}

func newByteQueue(max int) *byteQueue {
	return &byteQueue{max: max}
}

// push appends p, dropping whatever does not fit.
func (q *byteQueue) push(p []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	room := q.max - len(q.buf)
	if room < len(p) {
		q.lost += len(p) - max(room, 0)
		p = p[:max(room, 0)]
	}
	q.buf = append(q.buf, p...)
}

// fail makes the next Read return err.
func (q *byteQueue) fail(err error) {
	q.mu.Lock()
	q.err = err
	q.mu.Unlock()
}

func (q *byteQueue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return 1
	}
	return len(q.buf)
}

func (q *byteQueue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		err := q.err
		q.err = nil
		return 0, err
	}
	n := copy(p, q.buf)
	q.buf = q.buf[:copy(q.buf, q.buf[n:])]
	return n, nil
}

// Lost returns the number of bytes dropped because the queue was full.
func (q *byteQueue) Lost() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lost
}

// openSerial opens the sensor port in 8N1.
func openSerial(path string, baud int) (serial.Port, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return port, nil
}

// pump copies r into q until r fails. A read timeout returns (0, nil) and
// is not an error.
func pump(r io.Reader, q *byteQueue, logger *slog.Logger) {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			q.push(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Error("serial:read", slog.Any("reason", err))
			}
			q.fail(err)
			return
		}
	}
}

// synthSource emits one sensor frame per period, with occasional line
// noise and corrupted checksums, so the panel can run without hardware.
type synthSource struct {
	q      *byteQueue
	rng    *rand.Rand
	now    func() time.Time
	period time.Duration
	next   time.Time
	co2    float64

	NoiseRate   float64 // Chance of junk bytes before a frame.
	CorruptRate float64 // Chance of a bad checksum byte.
}

func newSynthSource(seed uint64, period time.Duration) *synthSource {
	return &synthSource{
		q:           newByteQueue(4 * frame.DefaultCapacity),
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:         time.Now,
		period:      period,
		co2:         600,
		NoiseRate:   0.05,
		CorruptRate: 0.02,
	}
}

func (s *synthSource) generate() {
	now := s.now()
	if s.next.IsZero() {
		s.next = now
	}
	for !now.Before(s.next) {
		s.next = s.next.Add(s.period)
		s.co2 = math.Min(2500, math.Max(400, s.co2+s.rng.NormFloat64()*15))
		if s.rng.Float64() < s.NoiseRate {
			junk := make([]byte, 1+s.rng.IntN(5))
			for i := range junk {
				junk[i] = byte(s.rng.UintN(256))
			}
			s.q.push(junk)
		}
		f := frame.Encode(uint16(s.co2))
		if s.rng.Float64() < s.CorruptRate {
			f[frame.Size-1] ^= 0x5a
		}
		s.q.push(f[:])
	}
}

func (s *synthSource) Buffered() int {
	s.generate()
	return s.q.Buffered()
}

func (s *synthSource) Read(p []byte) (int, error) { return s.q.Read(p) }

// synthDHT is a weather.Device with slowly drifting values. Every
// failEvery-th read times out.
type synthDHT struct {
	rng       *rand.Rand
	temp, hum float64
	reads     int
	failEvery int
}

var errSynthTimeout = errors.New("dht: timeout")

func newSynthDHT(seed uint64) *synthDHT {
	return &synthDHT{
		rng:       rand.New(rand.NewPCG(seed, seed+1)),
		temp:      22,
		hum:       45,
		failEvery: 7,
	}
}

func (d *synthDHT) ReadMeasurements() error {
	d.reads++
	if d.failEvery > 0 && d.reads%d.failEvery == 0 {
		return errSynthTimeout
	}
	d.temp = math.Min(35, math.Max(10, d.temp+d.rng.NormFloat64()*0.2))
	d.hum = math.Min(90, math.Max(15, d.hum+d.rng.NormFloat64()*0.5))
	return nil
}

func (d *synthDHT) Temperature() (float32, error) { return float32(d.temp), nil }
func (d *synthDHT) Humidity() (float32, error)    { return float32(d.hum), nil }
