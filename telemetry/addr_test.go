package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHostPort(t *testing.T) {
	host, port, err := splitHostPort("10.0.0.9:1883")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", host)
	assert.Equal(t, uint16(1883), port)

	host, port, err = splitHostPort("broker.local:8883")
	require.NoError(t, err)
	assert.Equal(t, "broker.local", host)
	assert.Equal(t, uint16(8883), port)

	_, _, err = splitHostPort("broker.local")
	assert.ErrorIs(t, err, errMissingPort)
	_, _, err = splitHostPort(":1883")
	assert.ErrorIs(t, err, errEmptyHost)
	_, _, err = splitHostPort("host:70000")
	assert.Error(t, err)
}
