package adcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// DefaultPort is the standard ADCP TCP port.
const DefaultPort = 53595

// DefaultMaxLineLength bounds a single reply line.
const DefaultMaxLineLength = 64 * 1024

// ErrLineTooLong is returned when a reply exceeds the line length bound.
var ErrLineTooLong = errors.New("adcp: reply line too long")

// Transport is a bidirectional byte stream that reads whole lines.
// Implementations need not be safe for concurrent use.
type Transport interface {
	// Open connects to address. ctx bounds the dial.
	Open(ctx context.Context, address string) error
	// ReadLine blocks until one LF-terminated line arrives, ctx ends or the
	// stream fails. The returned slice includes the terminator.
	ReadLine(ctx context.Context) ([]byte, error)
	// Write sends p in full.
	Write(ctx context.Context, p []byte) error
	// Connected reports whether Open succeeded and Close has not been called.
	Connected() bool
	// Close releases the stream. Safe to call more than once.
	Close() error
}

// TCPTransport is the production Transport over a TCP connection.
type TCPTransport struct {
	// Dialer is used by Open. A zero net.Dialer is used when nil.
	Dialer *net.Dialer
	// ReadTimeout and WriteTimeout apply when ctx carries no earlier deadline.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxLineLength overrides DefaultMaxLineLength when positive.
	MaxLineLength int

	conn   net.Conn
	reader *bufio.Reader
}

// NewTCPTransport creates a transport with the given per-operation bounds.
func NewTCPTransport(readTimeout, writeTimeout time.Duration) *TCPTransport {
	return &TCPTransport{
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

func (t *TCPTransport) Open(ctx context.Context, address string) error {
	if t.conn != nil {
		return fmt.Errorf("transport already open to %s", t.conn.RemoteAddr())
	}
	dialer := t.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	t.conn = conn
	t.reader = bufio.NewReader(conn)
	return nil
}

func (t *TCPTransport) ReadLine(ctx context.Context) ([]byte, error) {
	if t.conn == nil {
		return nil, net.ErrClosed
	}
	// The callback may still run after Close has cleared t.conn.
	conn := t.conn
	if err := conn.SetReadDeadline(deadlineFor(ctx, t.ReadTimeout)); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		// Unblock a pending read as soon as ctx ends.
		_ = conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	line, err := t.readLine()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("read: %w", ctxErr)
		}
		return nil, err
	}
	return line, nil
}

func (t *TCPTransport) readLine() ([]byte, error) {
	limit := t.MaxLineLength
	if limit <= 0 {
		limit = DefaultMaxLineLength
	}
	var buf bytes.Buffer
	for {
		chunk, err := t.reader.ReadSlice('\n')
		buf.Write(chunk)
		if buf.Len() > limit {
			return nil, ErrLineTooLong
		}
		switch {
		case err == nil:
			return buf.Bytes(), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && buf.Len() > 0:
			// Peer closed after an unterminated final line.
			return buf.Bytes(), nil
		default:
			return nil, err
		}
	}
}

func (t *TCPTransport) Write(ctx context.Context, p []byte) error {
	if t.conn == nil {
		return net.ErrClosed
	}
	conn := t.conn
	if err := conn.SetWriteDeadline(deadlineFor(ctx, t.WriteTimeout)); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetWriteDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write(p); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("write: %w", ctxErr)
		}
		return err
	}
	return nil
}

func (t *TCPTransport) Connected() bool {
	return t.conn != nil
}

func (t *TCPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	return err
}

// RemoteAddr returns the peer address, or "" when closed.
func (t *TCPTransport) RemoteAddr() string {
	if t.conn == nil {
		return ""
	}
	return t.conn.RemoteAddr().String()
}

// deadlineFor picks the earlier of now+timeout and the ctx deadline.
// The zero time means no deadline.
func deadlineFor(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}
	return d
}
