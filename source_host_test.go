//go:build !tinygo

package main

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harveysanders/airpanel/frame"
	"github.com/harveysanders/airpanel/weather"
)

func TestByteQueue(t *testing.T) {
	q := newByteQueue(8)
	q.push([]byte{1, 2, 3})
	q.push([]byte{4, 5, 6, 7, 8, 9, 10})
	assert.Equal(t, 8, q.Buffered())
	assert.Equal(t, 2, q.Lost())

	p := make([]byte, 5)
	n, err := q.Read(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, p[:n])
	assert.Equal(t, 3, q.Buffered())

	q.fail(io.ErrUnexpectedEOF)
	assert.Equal(t, 1, q.Buffered(), "a pending error counts as readable")
	_, err = q.Read(p)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	n, err = q.Read(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{6, 7, 8}, p[:n])
}

func TestPumpStopsOnEOF(t *testing.T) {
	q := newByteQueue(64)
	logs := &bytes.Buffer{}
	pump(bytes.NewReader([]byte{0x42, 0x4d}), q, slog.New(slog.NewTextHandler(logs, nil)))
	p := make([]byte, 4)
	_, err := q.Read(p)
	assert.ErrorIs(t, err, io.EOF)
	n, _ := q.Read(p)
	assert.Equal(t, 2, n)
	assert.Empty(t, logs.String())
}

func TestSynthSourceFramesDecode(t *testing.T) {
	now := time.Date(2025, 11, 17, 8, 0, 0, 0, time.UTC)
	s := newSynthSource(7, time.Second)
	s.now = func() time.Time { return now }
	s.NoiseRate = 0.5
	s.CorruptRate = 0

	r := frame.NewReassembler(frame.DefaultCapacity, frame.RejectAndResync)
	got := 0
	buf := make([]byte, frame.DefaultCapacity)
	for i := 0; i < 20; i++ {
		for s.Buffered() > 0 {
			n, err := s.Read(buf)
			require.NoError(t, err)
			r.Feed(buf[:n], func(rd frame.Reading) {
				assert.True(t, rd.ChecksumOK)
				assert.GreaterOrEqual(t, rd.CO2, uint16(400))
				assert.LessOrEqual(t, rd.CO2, uint16(2500))
				got++
			})
		}
		now = now.Add(time.Second)
	}
	assert.Equal(t, 20, got)
}

func TestSynthDHTFails(t *testing.T) {
	d := newSynthDHT(3)
	s := weather.NewSensor(d)
	now := time.Date(2025, 11, 17, 8, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	failures := 0
	for i := 0; i < 14; i++ {
		if smp := s.Poll(); smp.Err != nil {
			failures++
		}
		now = now.Add(weather.MinReadInterval)
	}
	assert.Equal(t, 2, failures)
}
