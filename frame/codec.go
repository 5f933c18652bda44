package frame

import "encoding/binary"

// Checksum returns the low byte of the sum of b.
func Checksum(b []byte) uint8 {
	var sum uint8
	for _, v := range b {
		sum += v
	}
	return sum
}

// Decode parses one frame. The CO2 value is decoded even when the checksum
// does not match. frame must hold at least Size bytes and start at the
// magic header.
func Decode(frame []byte) Reading {
	var rd Reading
	copy(rd.Frame[:], frame[:Size])
	rd.Expected = Checksum(frame[:Size-1])
	rd.Got = frame[Size-1]
	rd.ChecksumOK = rd.Expected == rd.Got
	rd.CO2 = binary.BigEndian.Uint16(frame[6:8])
	return rd
}

// Encode builds a valid frame carrying co2.
func Encode(co2 uint16) [Size]byte {
	var f [Size]byte
	f[0], f[1] = magic0, magic1
	binary.BigEndian.PutUint16(f[6:8], co2)
	f[Size-1] = Checksum(f[:Size-1])
	return f
}

// AppendHex appends the frame as space separated upper-case hex pairs.
func AppendHex(dst []byte, b []byte) []byte {
	const hextable = "0123456789ABCDEF"
	for i, v := range b {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = append(dst, hextable[v>>4], hextable[v&0x0F])
	}
	return dst
}
