//go:build tinygo

// Package netstack brings up the Pico W radio and an lneto TCP/IP stack for
// the telemetry publisher.
//
// Credentials are set at link time:
//
//	tinygo flash -target=pico-w -ldflags="-X 'github.com/harveysanders/airpanel/netstack.ssid=home' -X 'github.com/harveysanders/airpanel/netstack.pass=secret'"
package netstack

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/lneto/x/xnet"
)

const mtu = cyw43439.MTU

var (
	ssid   string
	pass   string
	broker string
)

// ErrNoSSID is returned by Join when no network name was linked in.
var ErrNoSSID = errors.New("netstack: no ssid configured")

// Credentials returns the WiFi network and MQTT broker address set via
// linker flags.
func Credentials() (network, password, brokerAddr string) { return ssid, pass, broker }

// Enabled reports whether the firmware was linked with WiFi credentials.
func Enabled() bool { return ssid != "" }

// Config configures the radio and stack.
type Config struct {
	SSID     string
	Password string
	// Hostname is sent with DHCP requests.
	Hostname string
	// StaticAddr is used when DHCP does not complete. Optional.
	StaticAddr netip.Addr
	// JoinRetry is the pause between failed join attempts. Zero means 5s.
	JoinRetry time.Duration
	// JoinAttempts bounds the join loop. Zero retries forever.
	JoinAttempts int
	Logger       *slog.Logger
}

// Stack couples the CYW43439 device with an lneto StackAsync.
type Stack struct {
	s       xnet.StackAsync
	dev     *cyw43439.Device
	log     *slog.Logger
	sendbuf []byte
}

// Join initializes the radio, joins the network and resets the stack. It
// does not configure an address; call DHCP next.
func Join(cfg Config) (*Stack, error) {
	if cfg.SSID == "" {
		return nil, ErrNoSSID
	}
	if cfg.Hostname == "" {
		cfg.Hostname = "airpanel"
	}
	if cfg.JoinRetry == 0 {
		cfg.JoinRetry = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127),
		}))
	}

	start := time.Now()
	dev := cyw43439.NewPicoWDevice()
	dev.SetLogger(logger)
	if err := dev.Init(cyw43439.DefaultWifiConfig()); err != nil {
		return nil, fmt.Errorf("wifi init: %w", err)
	}
	logger.Info("wifi:init", slog.Duration("took", time.Since(start)))

	for attempt := 1; ; attempt++ {
		err := dev.JoinWPA2(cfg.SSID, cfg.Password)
		if err == nil {
			break
		}
		logger.Error("wifi:join-failed",
			slog.String("ssid", cfg.SSID),
			slog.Int("attempt", attempt),
			slog.Any("reason", err),
		)
		if cfg.JoinAttempts > 0 && attempt >= cfg.JoinAttempts {
			return nil, fmt.Errorf("wifi join %q: %w", cfg.SSID, err)
		}
		time.Sleep(cfg.JoinRetry)
	}

	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, fmt.Errorf("hardware address: %w", err)
	}
	logger.Info("wifi:joined",
		slog.String("ssid", cfg.SSID),
		slog.String("mac", net.HardwareAddr(mac[:]).String()),
	)

	st := &Stack{dev: dev, log: logger, sendbuf: make([]byte, mtu)}
	err = st.s.Reset(xnet.StackConfig{
		Hostname:        cfg.Hostname,
		MaxTCPConns:     1,
		RandSeed:        time.Since(start).Nanoseconds(),
		HardwareAddress: mac,
		MTU:             mtu,
	})
	if err != nil {
		return nil, fmt.Errorf("stack reset: %w", err)
	}
	dev.RecvEthHandle(func(pkt []byte) error {
		return st.s.Demux(pkt, 0)
	})
	return st, nil
}

// DHCP requests an address. If DHCP fails and static is valid, static is
// assigned instead.
func (s *Stack) DHCP(static netip.Addr) (netip.Addr, error) {
	requested := [4]byte{}
	if static.Is4() {
		requested = static.As4()
	}
	rstack := s.s.StackRetrying(50 * time.Millisecond)

	s.log.Info("dhcp:start")
	res, err := rstack.DoDHCPv4(requested, 3*time.Second, 3)
	if err != nil {
		if static.Is4() && !static.IsUnspecified() {
			s.log.Warn("dhcp:fallback-static", slog.String("ip", static.String()), slog.Any("reason", err))
			s.s.SetIPAddr(static)
			return static, nil
		}
		return netip.Addr{}, fmt.Errorf("dhcp: %w", err)
	}
	if err := s.s.AssimilateDHCPResults(res); err != nil {
		return netip.Addr{}, fmt.Errorf("apply dhcp lease: %w", err)
	}
	gw, err := rstack.DoResolveHardwareAddress6(res.Router, 500*time.Millisecond, 4)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolve gateway: %w", err)
	}
	s.s.SetGateway6(gw)

	s.log.Info("dhcp:done",
		slog.String("ip", res.AssignedAddr.String()),
		slog.String("router", res.Router.String()),
		slog.Uint64("leaseSec", uint64(res.TLease)),
	)
	return res.AssignedAddr, nil
}

// Pump moves at most one packet in each direction between the radio and
// the stack.
func (s *Stack) Pump() (sent int, err error) {
	_, errRecv := s.dev.PollOne()
	if errRecv != nil {
		s.log.Error("net:poll", slog.Any("reason", errRecv))
	}
	sent, err = s.s.Encapsulate(s.sendbuf, -1, 0)
	if err != nil {
		s.log.Error("net:encapsulate", slog.Int("plen", sent), slog.Any("reason", err))
		return 0, err
	}
	if sent == 0 {
		return 0, errRecv
	}
	if err := s.dev.SendEth(s.sendbuf[:sent]); err != nil {
		s.log.Error("net:send", slog.Int("plen", sent), slog.Any("reason", err))
		return sent, err
	}
	return sent, errRecv
}

// Run pumps packets until the process exits, sleeping when idle.
func (s *Stack) Run(idle time.Duration) {
	for {
		sent, _ := s.Pump()
		if sent == 0 {
			time.Sleep(idle)
		}
	}
}

// Async exposes the lneto stack for dialing and DNS lookups.
func (s *Stack) Async() *xnet.StackAsync { return &s.s }

// Addr returns the assigned IP address.
func (s *Stack) Addr() netip.Addr { return s.s.Addr() }
