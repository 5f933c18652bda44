//go:build tinygo

package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"runtime"
	"time"

	"github.com/soypat/lneto/tcp"
	mqtt "github.com/soypat/natiu-mqtt"

	"github.com/harveysanders/airpanel/netstack"
	"github.com/harveysanders/airpanel/station"
)

// Publisher forwards station reports to an MQTT broker. Run owns the
// connection and reconnects after any failure.
type Publisher struct {
	ID       string
	Topic    string // DefaultTopic if empty.
	Username string
	Password string // Requires Username.
	Timeout  time.Duration
	// KeepAlive is how often the connection is serviced when no report
	// arrives.
	KeepAlive  time.Duration
	TCPBufSize int
	Logger     *slog.Logger
}

// Run dials addr ("host:port") through stack and publishes every report
// received on reports. It returns only if addr cannot be resolved.
func (p *Publisher) Run(stack *netstack.Stack, addr string, reports <-chan station.Report) error {
	const pollTime = 5 * time.Millisecond
	p.defaults()

	host, port, err := splitHostPort(addr)
	if err != nil {
		return fmt.Errorf("broker address %q: %w", addr, err)
	}
	ls := stack.Async()
	rstack := ls.StackRetrying(pollTime)

	ip, err := netip.ParseAddr(host)
	if err != nil {
		p.Logger.Info("dns:resolving", slog.String("host", host))
		addrs, err := rstack.DoLookupIP(host, 5*time.Second, 3)
		if err != nil {
			return fmt.Errorf("dns lookup %s: %w", host, err)
		}
		if len(addrs) == 0 {
			return fmt.Errorf("dns lookup %s: no addresses", host)
		}
		ip = addrs[0]
	}
	server := netip.AddrPortFrom(ip, port)
	p.Logger.Info("mqtt:broker", slog.String("addr", server.String()), slog.String("topic", p.Topic))

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
		OnPub: func(_ mqtt.Header, v mqtt.VariablesPublish, _ io.Reader) error {
			p.Logger.Debug("mqtt:rx", slog.String("topic", string(v.TopicName)))
			return nil
		},
	})
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(p.ID))
	if p.Username != "" {
		varconn.Username = []byte(p.Username)
		if p.Password != "" {
			varconn.Password = []byte(p.Password)
		}
	}

	var conn tcp.Conn
	err = conn.Configure(tcp.ConnConfig{
		RxBuf:             make([]byte, p.TCPBufSize),
		TxBuf:             make([]byte, p.TCPBufSize),
		TxPacketQueueSize: 3,
	})
	if err != nil {
		return fmt.Errorf("tcp configure: %w", err)
	}
	closeConn := func(reason string) {
		p.Logger.Warn("tcp:closing", slog.String("reason", reason))
		conn.Close()
		for i := 0; i < 50 && !conn.State().IsClosed(); i++ {
			time.Sleep(100 * time.Millisecond)
		}
		conn.Abort()
	}

	flags, _ := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	pub := mqtt.VariablesPublish{TopicName: []byte(p.Topic)}

	for {
		localPort := uint16(ls.Prand32()>>17) + 1024
		p.Logger.Info("tcp:dialing", slog.Uint64("localPort", uint64(localPort)))
		if err := rstack.DoDialTCP(&conn, localPort, server, 10*time.Second, 3); err != nil {
			p.Logger.Error("tcp:dial-failed", slog.Any("reason", err))
			closeConn("dial failed")
			time.Sleep(2 * time.Second)
			continue
		}

		conn.SetDeadline(time.Now().Add(p.Timeout))
		if err := client.StartConnect(&conn, &varconn); err != nil {
			p.Logger.Error("mqtt:connect-failed", slog.Any("reason", err))
			closeConn("connect failed")
			continue
		}
		for retries := 50; retries > 0 && !client.IsConnected(); retries-- {
			time.Sleep(100 * time.Millisecond)
			if err := client.HandleNext(); err != nil {
				p.Logger.Debug("mqtt:handle-next", slog.Any("reason", err))
			}
		}
		if !client.IsConnected() {
			p.Logger.Error("mqtt:connect-timeout", slog.Any("reason", client.Err()))
			closeConn("connect timed out")
			continue
		}
		p.Logger.Info("mqtt:connected")

		p.serve(client, &conn, ls.Prand32, flags, pub, reports)

		p.Logger.Error("mqtt:disconnected", slog.Any("reason", client.Err()))
		closeConn("disconnected")
		runtime.Gosched()
	}
}

func (p *Publisher) serve(client *mqtt.Client, conn *tcp.Conn, prand func() uint32,
	flags mqtt.PacketFlags, pub mqtt.VariablesPublish, reports <-chan station.Report) {
	keepAlive := time.NewTicker(p.KeepAlive)
	defer keepAlive.Stop()
	for client.IsConnected() {
		select {
		case r := <-reports:
			payload, err := Encode(p.ID, r)
			if err != nil {
				p.Logger.Error("mqtt:encode-failed", slog.Any("reason", err))
				continue
			}
			conn.SetDeadline(time.Now().Add(p.Timeout))
			pub.PacketIdentifier = uint16(prand())
			if err := client.PublishPayload(flags, pub, payload); err != nil {
				p.Logger.Error("mqtt:publish-failed", slog.Any("reason", err))
				continue
			}
			p.Logger.Debug("mqtt:published",
				slog.Uint64("packetID", uint64(pub.PacketIdentifier)),
				slog.Int("bytes", len(payload)),
			)
			if err := client.HandleNext(); err != nil {
				p.Logger.Debug("mqtt:handle-next", slog.Any("reason", err))
			}
		case <-keepAlive.C:
			if err := client.HandleNext(); err != nil {
				p.Logger.Debug("mqtt:handle-next", slog.Any("reason", err))
			}
		default:
			// TinyGo schedules goroutines cooperatively on one core.
			runtime.Gosched()
		}
	}
}

func (p *Publisher) defaults() {
	if p.ID == "" {
		p.ID = "airpanel"
	}
	if p.Topic == "" {
		p.Topic = DefaultTopic
	}
	if p.Timeout == 0 {
		p.Timeout = 5 * time.Second
	}
	if p.KeepAlive == 0 {
		p.KeepAlive = 10 * time.Second
	}
	if p.TCPBufSize == 0 {
		p.TCPBufSize = 2030 // MTU - ethhdr - iphdr - tcphdr
	}
	if p.Logger == nil {
		p.Logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
}
