package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDuty(t *testing.T) {
	tests := []struct {
		percent uint8
		top     uint32
		want    uint32
	}{
		{0, 65535, 0},
		{50, 1000, 500},
		{100, 65535, 65535},
		{180, 65535, 65535},
		{33, 0xffffffff, 1417339207},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Duty(tt.percent, tt.top), "percent=%d top=%d", tt.percent, tt.top)
	}
}
