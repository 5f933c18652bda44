package frame

import (
	"bytes"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(r *Reassembler) []Reading {
	return slices.Collect(r.Drain())
}

func TestDecodeKnownFrame(t *testing.T) {
	in := []byte{0x42, 0x4D, 0, 0, 0, 0, 0x01, 0xC2, 0, 0, 0, 0, 0, 0, 0, 0}
	in[15] = Checksum(in[:15])

	r := NewReassembler(DefaultCapacity, AcceptAndFlag)
	res := r.Append(in)
	require.True(t, res.OK())

	got := collect(r)
	require.Len(t, got, 1)
	assert.Equal(t, uint16(450), got[0].CO2)
	assert.True(t, got[0].ChecksumOK)
	assert.Equal(t, 0, r.Buffered())
}

func TestResyncSkipsLeadingGarbage(t *testing.T) {
	f := Encode(812)
	in := append([]byte{0x00}, f[:]...)

	r := NewReassembler(DefaultCapacity, AcceptAndFlag)
	r.Append(in)

	got := collect(r)
	require.Len(t, got, 1)
	assert.Equal(t, uint16(812), got[0].CO2)
	assert.True(t, got[0].ChecksumOK)
	assert.Equal(t, uint32(1), r.Stats().ResyncBytes)
}

func TestChecksumMismatch(t *testing.T) {
	f := Encode(1234)
	f[15] ^= 0xFF

	t.Run("accept and flag", func(t *testing.T) {
		r := NewReassembler(DefaultCapacity, AcceptAndFlag)
		r.Append(f[:])
		got := collect(r)
		require.Len(t, got, 1)
		assert.Equal(t, uint16(1234), got[0].CO2)
		assert.False(t, got[0].ChecksumOK)
		assert.Equal(t, f[15], got[0].Got)
		assert.Equal(t, Checksum(f[:15]), got[0].Expected)
		assert.Equal(t, uint32(1), r.Stats().ChecksumErrors)
	})

	t.Run("reject and resync", func(t *testing.T) {
		good := Encode(600)
		in := append(f[:], good[:]...)
		r := NewReassembler(DefaultCapacity, RejectAndResync)
		r.Append(in)
		got := collect(r)
		require.Len(t, got, 1)
		assert.Equal(t, uint16(600), got[0].CO2)
		assert.True(t, got[0].ChecksumOK)
		st := r.Stats()
		assert.Equal(t, uint32(1), st.Rejected)
		assert.Equal(t, uint32(1), st.Frames)
	})
}

func TestHeaderStraddlesAppends(t *testing.T) {
	f := Encode(999)
	r := NewReassembler(DefaultCapacity, AcceptAndFlag)

	r.Append([]byte{0x17, 0x42})
	assert.Empty(t, collect(r))
	r.Append(f[1:9])
	assert.Empty(t, collect(r))
	r.Append(f[9:])

	got := collect(r)
	require.Len(t, got, 1)
	assert.Equal(t, uint16(999), got[0].CO2)
}

func TestChunkingInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		var stream []byte
		for len(stream) < DefaultCapacity-Size {
			if rng.Intn(3) == 0 {
				stream = append(stream, byte(rng.Intn(256)))
				continue
			}
			f := Encode(uint16(rng.Intn(5000)))
			if rng.Intn(4) == 0 {
				f[15]++
			}
			stream = append(stream, f[:]...)
		}
		stream = stream[:min(len(stream), DefaultCapacity)]

		batch := NewReassembler(DefaultCapacity, AcceptAndFlag)
		require.True(t, batch.Append(stream).OK())
		want := collect(batch)

		single := NewReassembler(DefaultCapacity, AcceptAndFlag)
		var got []Reading
		for _, b := range stream {
			require.True(t, single.Append([]byte{b}).OK())
			got = append(got, collect(single)...)
		}
		require.Equal(t, want, got, "trial %d stream % X", trial, stream)
	}
}

func TestAppendReportsOverflow(t *testing.T) {
	r := NewReassembler(DefaultCapacity, AcceptAndFlag)
	res := r.Append(bytes.Repeat([]byte{0xAA}, DefaultCapacity+10))
	assert.False(t, res.OK())
	assert.Equal(t, DefaultCapacity, res.Accepted)
	assert.Equal(t, 10, res.Dropped)
	assert.Equal(t, uint32(10), r.Stats().DroppedBytes)

	// Resync drains noise down to less than a frame.
	assert.Empty(t, collect(r))
	assert.Equal(t, Size-1, r.Buffered())
}

func TestFeedNeverDrops(t *testing.T) {
	var stream []byte
	var want []uint16
	for i := 0; i < 20; i++ {
		stream = append(stream, 0x00, 0x42)
		f := Encode(uint16(400 + i))
		stream = append(stream, f[:]...)
		want = append(want, uint16(400+i))
	}
	require.Greater(t, len(stream), DefaultCapacity)

	r := NewReassembler(DefaultCapacity, AcceptAndFlag)
	var got []uint16
	r.Feed(stream, func(rd Reading) { got = append(got, rd.CO2) })
	assert.Equal(t, want, got)
	assert.Zero(t, r.Stats().DroppedBytes)
}

func TestDrainStopsEarly(t *testing.T) {
	a, b := Encode(1), Encode(2)
	r := NewReassembler(DefaultCapacity, AcceptAndFlag)
	r.Append(append(a[:], b[:]...))

	for rd := range r.Drain() {
		assert.Equal(t, uint16(1), rd.CO2)
		break
	}
	assert.Equal(t, Size, r.Buffered())
	got := collect(r)
	require.Len(t, got, 1)
	assert.Equal(t, uint16(2), got[0].CO2)
}

func TestFalseHeaderInsidePayload(t *testing.T) {
	// Payload bytes 6-7 spell the magic header; the frame is still consumed
	// whole once its real header lines up.
	f := Encode(0x424D)
	r := NewReassembler(DefaultCapacity, AcceptAndFlag)
	r.Append(f[:])
	got := collect(r)
	require.Len(t, got, 1)
	assert.Equal(t, uint16(0x424D), got[0].CO2)
	assert.Zero(t, r.Buffered())
}

func TestRingWraps(t *testing.T) {
	rb := newRing(4)
	assert.Equal(t, 3, rb.Push([]byte{1, 2, 3}))
	rb.Discard(2)
	assert.Equal(t, 3, rb.Push([]byte{4, 5, 6, 7}))
	assert.Equal(t, 4, rb.Len())
	dst := make([]byte, 4)
	rb.Peek(dst)
	assert.Equal(t, []byte{3, 4, 5, 6}, dst)
}

func TestAppendHex(t *testing.T) {
	assert.Equal(t, "42 4D 0A", string(AppendHex(nil, []byte{0x42, 0x4D, 0x0A})))
}
