package retroarch

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultAddress is RetroArch's network-command endpoint.
	DefaultAddress = "127.0.0.1:55355"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 2 * time.Second

	// DefaultChunkSize is the largest read or write sent in one datagram.
	DefaultChunkSize uint32 = 2048

	defaultBufferSize = 1024 * 1024
)

// Client speaks RetroArch network commands over UDP.
// It is safe for concurrent use; requests are serialized.
type Client struct {
	address   string
	timeout   time.Duration
	chunkSize uint32
	logger    *slog.Logger

	mu   sync.Mutex
	conn *net.UDPConn
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithChunkSize sets the largest transfer per datagram.
func WithChunkSize(n uint32) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the RetroArch endpoint at address.
func NewClient(address string, opts ...Option) *Client {
	c := &Client{
		address:   address,
		timeout:   DefaultTimeout,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// ChunkSize returns the transfer size per datagram.
func (c *Client) ChunkSize() uint32 {
	return c.chunkSize
}

// Connect dials the endpoint and checks that RetroArch answers VERSION.
func (c *Client) Connect(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", c.address)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", c.address, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("failed to connect to RetroArch: %w", err)
	}
	if err := conn.SetReadBuffer(defaultBufferSize); err != nil {
		c.logger.Debug("failed to set read buffer", "error", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	version, err := c.Version(ctx)
	if err != nil {
		_ = c.Close()
		return fmt.Errorf("failed to communicate with RetroArch: %w", err)
	}
	c.logger.Info("connected to RetroArch", "address", c.address, "version", version)
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Version returns RetroArch's version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	return c.send(ctx, "VERSION")
}

// ReadMemory reads length bytes at the absolute core address, splitting the
// request into chunks.
func (c *Client) ReadMemory(ctx context.Context, address, length uint32) ([]byte, error) {
	out := make([]byte, 0, length)
	for done := uint32(0); done < length; {
		n := min(c.chunkSize, length-done)
		chunk, err := c.readChunk(ctx, address+done, n)
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk at 0x%08x: %w", address+done, err)
		}
		out = append(out, chunk...)
		done += n
	}
	return out, nil
}

// WriteMemory writes data at the absolute core address in chunks.
func (c *Client) WriteMemory(ctx context.Context, address uint32, data []byte) error {
	for done := 0; done < len(data); {
		n := min(int(c.chunkSize), len(data)-done)
		if err := c.writeChunk(ctx, address+uint32(done), data[done:done+n]); err != nil {
			return fmt.Errorf("failed to write chunk at 0x%08x: %w", address+uint32(done), err)
		}
		done += n
	}
	return nil
}

// readChunk sends READ_CORE_MEMORY and parses
// "READ_CORE_MEMORY <addr> <b0> <b1> ..." or "READ_CORE_MEMORY <addr> -1 ...".
func (c *Client) readChunk(ctx context.Context, address, length uint32) ([]byte, error) {
	resp, err := c.send(ctx, fmt.Sprintf("READ_CORE_MEMORY %x %d", address, length))
	if err != nil {
		return nil, err
	}
	fields, err := parseReply(resp, "READ_CORE_MEMORY", address)
	if err != nil {
		return nil, err
	}
	if len(fields) != int(length) {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidResponse, length, len(fields))
	}

	data := make([]byte, length)
	for i, f := range fields {
		b, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: byte %q: %w", ErrInvalidResponse, f, err)
		}
		data[i] = byte(b)
	}
	return data, nil
}

// writeChunk sends WRITE_CORE_MEMORY and expects
// "WRITE_CORE_MEMORY <addr> <count>".
func (c *Client) writeChunk(ctx context.Context, address uint32, data []byte) error {
	var b strings.Builder
	fmt.Fprintf(&b, "WRITE_CORE_MEMORY %x", address)
	for _, v := range data {
		fmt.Fprintf(&b, " %02x", v)
	}
	resp, err := c.send(ctx, b.String())
	if err != nil {
		return err
	}
	fields, err := parseReply(resp, "WRITE_CORE_MEMORY", address)
	if err != nil {
		return err
	}
	if len(fields) < 1 {
		return fmt.Errorf("%w: missing write count", ErrInvalidResponse)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n != len(data) {
		return fmt.Errorf("%w: wrote %q of %d bytes", ErrInvalidResponse, fields[0], len(data))
	}
	return nil
}

// parseReply checks the command echo and address and returns the payload.
func parseReply(resp, command string, address uint32) ([]string, error) {
	parts := strings.Fields(resp)
	if len(parts) < 3 || parts[0] != command {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResponse, resp)
	}
	echoed, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil || uint32(echoed) != address {
		return nil, fmt.Errorf("%w: reply for address %q", ErrInvalidResponse, parts[1])
	}
	if parts[2] == "-1" {
		return nil, fmt.Errorf("%w: %s 0x%08x: %s", ErrCoreRefused, command, address, strings.Join(parts[3:], " "))
	}
	return parts[2:], nil
}

// send writes one command datagram and waits for its reply.
func (c *Client) send(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return "", ErrNotConnected
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("failed to set deadline: %w", err)
	}

	if _, err := c.conn.Write([]byte(command + "\n")); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}

	buf := make([]byte, max(32*1024, int(c.chunkSize)*4))
	n, err := c.conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return strings.TrimSpace(string(buf[:n])), nil
}
