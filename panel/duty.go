package panel

// Duty converts a brightness percentage to a PWM compare value for a
// counter that wraps at top. Values above 100 are clamped.
func Duty(percent uint8, top uint32) uint32 {
	if percent >= 100 {
		return top
	}
	return uint32(uint64(top) * uint64(percent) / 100)
}
