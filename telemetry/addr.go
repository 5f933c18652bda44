package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errEmptyHost   = errors.New("empty host")
	errMissingPort = errors.New("missing port")
)

// splitHostPort splits a broker address. lneto takes the port as a number,
// and the host may be a name to resolve over DNS.
func splitHostPort(addr string) (string, uint16, error) {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 {
		return "", 0, errMissingPort
	}
	host := addr[:i]
	if host == "" {
		return "", 0, errEmptyHost
	}
	port, err := strconv.ParseUint(addr[i+1:], 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("port: %w", err)
	}
	return host, uint16(port), nil
}
