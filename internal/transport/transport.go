package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xtort/kasa-hs300/internal/logging"
	"github.com/xtort/kasa-hs300/internal/protocol"
)

// Proto selects the wire transport for a request.
type Proto string

const (
	TCP Proto = "tcp"
	UDP Proto = "udp"
)

// ParseProto parses a transport name from configuration or flags.
func ParseProto(s string) (Proto, error) {
	switch s {
	case "tcp", "":
		return TCP, nil
	case "udp":
		return UDP, nil
	default:
		return "", fmt.Errorf("unknown transport %q (must be tcp or udp)", s)
	}
}

const (
	// DefaultPort is the fixed device port for both transports.
	DefaultPort = 9999

	// DefaultTimeout bounds dial plus one request/reply round trip.
	DefaultTimeout = 2 * time.Second

	// maxTCPReply caps the declared reply length. Real sysinfo replies
	// top out around 2 KiB; anything near this limit is garbage framing.
	maxTCPReply = 1 << 16

	// maxDatagram is the receive buffer for a UDP reply.
	maxDatagram = 2048
)

// Client sends single request/reply exchanges to one device. It holds no
// socket between calls; every Send dials, exchanges, and closes.
type Client struct {
	Address   string
	Port      int
	Timeout   time.Duration
	Preferred Proto
}

// NewClient creates a transport client. Zero port and timeout get the
// protocol defaults; an empty preferred transport means TCP.
func NewClient(address string, port int, timeout time.Duration, preferred Proto) *Client {
	if port == 0 {
		port = DefaultPort
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if preferred == "" {
		preferred = TCP
	}
	return &Client{Address: address, Port: port, Timeout: timeout, Preferred: preferred}
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Send sends one plaintext payload over the preferred transport and
// returns the decrypted reply. No retry, no fallback.
func (c *Client) Send(payload []byte) ([]byte, error) {
	return c.SendVia(c.Preferred, payload)
}

// SendVia sends one payload over an explicit transport.
func (c *Client) SendVia(proto Proto, payload []byte) ([]byte, error) {
	logging.LogRawBytes("transport send", payload)

	var reply []byte
	var err error
	switch proto {
	case TCP:
		reply, err = c.sendTCP(payload)
	case UDP:
		reply, err = c.sendUDP(payload)
	default:
		return nil, fmt.Errorf("unsupported transport %q", proto)
	}
	if err != nil {
		return nil, err
	}

	logging.LogRawBytes("transport reply", reply)
	logging.LogExchange(c.addr(), string(proto), len(payload), len(reply))
	return reply, nil
}

// Alternate returns the transport that is not the preferred one.
func (c *Client) Alternate() Proto {
	if c.Preferred == TCP {
		return UDP
	}
	return TCP
}

// SendWithFallback sends over the preferred transport and, if that
// fails, retries exactly once over the other transport. The fallback is
// per-call: a success over the alternate does not change Preferred.
func (c *Client) SendWithFallback(payload []byte) ([]byte, error) {
	reply, err := c.SendVia(c.Preferred, payload)
	if err == nil {
		return reply, nil
	}

	alt := c.Alternate()
	logging.Warn("preferred transport failed, trying fallback",
		zap.String("device", c.addr()),
		zap.String("preferred", string(c.Preferred)),
		zap.String("fallback", string(alt)),
		zap.Error(err),
	)

	reply, altErr := c.SendVia(alt, payload)
	if altErr != nil {
		return nil, fmt.Errorf("%s failed: %w (%s fallback also failed: %v)", c.Preferred, err, alt, altErr)
	}
	return reply, nil
}

// sendTCP performs one length-prefixed exchange. The socket is closed on
// every exit path; a single deadline covers write and read.
func (c *Client) sendTCP(payload []byte) ([]byte, error) {
	conn, err := net.DialTimeout("tcp", c.addr(), c.timeout())
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", c.addr(), err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.timeout())); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	body := protocol.Encrypt(payload)
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(body)))
	copy(frame[4:], body)

	if _, err := conn.Write(frame); err != nil {
		return nil, fmt.Errorf("write to %s: %w", c.addr(), err)
	}

	var header [4]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return nil, fmt.Errorf("read reply header from %s: %w", c.addr(), err)
	}

	replyLen := binary.BigEndian.Uint32(header[:])
	if replyLen > maxTCPReply {
		return nil, fmt.Errorf("reply from %s declares %d bytes, refusing", c.addr(), replyLen)
	}

	reply := make([]byte, replyLen)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return nil, fmt.Errorf("read reply body from %s: %w", c.addr(), err)
	}

	return protocol.Decrypt(reply), nil
}

// sendUDP performs one datagram exchange: no length prefix, one reply
// datagram within the timeout.
func (c *Client) sendUDP(payload []byte) ([]byte, error) {
	conn, err := net.DialTimeout("udp", c.addr(), c.timeout())
	if err != nil {
		return nil, fmt.Errorf("dial udp %s: %w", c.addr(), err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.timeout())); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := conn.Write(protocol.Encrypt(payload)); err != nil {
		return nil, fmt.Errorf("send datagram to %s: %w", c.addr(), err)
	}

	buf := make([]byte, maxDatagram)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read datagram from %s: %w", c.addr(), err)
	}

	return protocol.Decrypt(buf[:n]), nil
}
