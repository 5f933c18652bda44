// Package frame decodes the passive output of a CO2 sensor that emits one
// fixed 16-byte frame per second over a UART.
//
// Frame layout (integers big-endian):
//
//	byte 0-1   magic 0x42 0x4D
//	byte 2-5   reserved
//	byte 6-7   CO2 concentration in ppm
//	byte 8-14  reserved
//	byte 15    sum(byte 0..14) & 0xFF
//
// The Reassembler accepts the byte stream in arbitrary chunks and
// resynchronizes on noise by dropping one byte at a time until a header
// lines up.
package frame

import (
	"iter"
)

const (
	// Size is the length of one sensor frame in bytes.
	Size = 16
	// DefaultCapacity is the raw buffer capacity used by the firmware.
	DefaultCapacity = 64

	magic0 = 0x42
	magic1 = 0x4D
)

// ChecksumPolicy selects what the Reassembler does with a frame whose
// checksum byte does not match.
type ChecksumPolicy uint8

const (
	// AcceptAndFlag emits the frame with Reading.ChecksumOK set to false.
	AcceptAndFlag ChecksumPolicy = iota
	// RejectAndResync discards the candidate header byte and keeps scanning
	// from the next byte. Nothing is emitted for the frame.
	RejectAndResync
)

func (p ChecksumPolicy) String() string {
	switch p {
	case AcceptAndFlag:
		return "accept"
	case RejectAndResync:
		return "reject"
	}
	return "unknown"
}

// Reading is one decoded sensor frame.
type Reading struct {
	CO2        uint16     // Concentration in ppm, decoded from bytes 6-7.
	ChecksumOK bool       // Whether byte 15 matched the computed sum.
	Expected   uint8      // Computed checksum.
	Got        uint8      // Checksum byte received.
	Frame      [Size]byte // Copy of the raw frame, for diagnostics.
}

// AppendResult reports how many bytes an Append stored and how many were
// dropped because the buffer was full.
type AppendResult struct {
	Accepted int
	Dropped  int
}

// OK reports whether every byte was stored.
func (r AppendResult) OK() bool { return r.Dropped == 0 }

// Stats are running counters kept by a Reassembler.
type Stats struct {
	Frames         uint32 // Frames emitted.
	ChecksumErrors uint32 // Frames whose checksum did not match, emitted or not.
	Rejected       uint32 // Frames discarded under RejectAndResync.
	ResyncBytes    uint32 // Bytes dropped while hunting for a header.
	DroppedBytes   uint32 // Bytes lost to a full buffer.
}

// Reassembler turns a raw byte stream into Readings. It is not safe for
// concurrent use; one goroutine owns it.
type Reassembler struct {
	buf     ring
	policy  ChecksumPolicy
	stats   Stats
	scratch [Size]byte
}

// NewReassembler returns a Reassembler with a buffer of the given capacity.
// Capacities smaller than one frame are raised to Size.
func NewReassembler(capacity int, policy ChecksumPolicy) *Reassembler {
	if capacity < Size {
		capacity = Size
	}
	return &Reassembler{
		buf:    newRing(capacity),
		policy: policy,
	}
}

// Append stores as much of p as the buffer has room for. Bytes beyond the
// free capacity are dropped and counted in the result.
func (r *Reassembler) Append(p []byte) AppendResult {
	n := r.buf.Push(p)
	res := AppendResult{Accepted: n, Dropped: len(p) - n}
	r.stats.DroppedBytes += uint32(res.Dropped)
	return res
}

// Next extracts the next frame from the buffer. It returns false once fewer
// than Size bytes remain; the leftover bytes stay buffered for the next
// Append.
func (r *Reassembler) Next() (Reading, bool) {
	for r.buf.Len() >= Size {
		if r.buf.At(0) != magic0 || r.buf.At(1) != magic1 {
			r.buf.Discard(1)
			r.stats.ResyncBytes++
			continue
		}
		r.buf.Peek(r.scratch[:])
		rd := Decode(r.scratch[:])
		if !rd.ChecksumOK {
			r.stats.ChecksumErrors++
			if r.policy == RejectAndResync {
				r.buf.Discard(1)
				r.stats.Rejected++
				continue
			}
		}
		r.buf.Discard(Size)
		r.stats.Frames++
		return rd, true
	}
	return Reading{}, false
}

// Drain returns a sequence over the frames currently extractable. Stopping
// early leaves the remaining frames buffered.
func (r *Reassembler) Drain() iter.Seq[Reading] {
	return func(yield func(Reading) bool) {
		for {
			rd, ok := r.Next()
			if !ok || !yield(rd) {
				return
			}
		}
	}
}

// Feed appends p in slices no larger than the free capacity, calling emit
// for every frame extracted in between. Unlike Append it never drops bytes:
// draining always leaves fewer than Size bytes buffered.
func (r *Reassembler) Feed(p []byte, emit func(Reading)) {
	for len(p) > 0 {
		n := r.buf.Push(p)
		p = p[n:]
		for rd, ok := r.Next(); ok; rd, ok = r.Next() {
			emit(rd)
		}
	}
}

// Buffered returns the number of bytes waiting in the buffer.
func (r *Reassembler) Buffered() int { return r.buf.Len() }

// Policy returns the checksum policy chosen at construction.
func (r *Reassembler) Policy() ChecksumPolicy { return r.policy }

// Stats returns a snapshot of the running counters.
func (r *Reassembler) Stats() Stats { return r.stats }
