package adcp

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/muurk/adcpctl/internal/logging"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthPending
	StateReady
	StateClosing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateAuthPending:
		return "AUTH_PENDING"
	case StateReady:
		return "READY"
	case StateClosing:
		return "CLOSING"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	// NoKeySentinel is the first line sent by a device with authentication disabled.
	NoKeySentinel = "NOKEY"
	// AuthOKSentinel is the device's reply to an accepted digest.
	AuthOKSentinel = "OK"
)

// Default timing. The settle interval gives slow firmware time to produce
// a reply before the read starts.
const (
	DefaultConnectTimeout  = 5 * time.Second
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultSettleInterval  = 100 * time.Millisecond
	DefaultCommandInterval = 0
)

// Config describes one projector endpoint. It is immutable once a Session
// has been created from it.
type Config struct {
	Host   string
	Port   int
	Secret Secret

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// SettleInterval is waited after every write, before reading the reply.
	SettleInterval time.Duration
	// CommandInterval is the minimum spacing between consecutive commands.
	CommandInterval time.Duration
}

// DefaultConfig returns a Config for host with default port and timing.
func DefaultConfig(host string) Config {
	return Config{
		Host:            host,
		Port:            DefaultPort,
		ConnectTimeout:  DefaultConnectTimeout,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		SettleInterval:  DefaultSettleInterval,
		CommandInterval: DefaultCommandInterval,
	}
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the endpoint fields.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", c.Port)
	}
	for name, d := range map[string]time.Duration{
		"connect timeout":  c.ConnectTimeout,
		"read timeout":     c.ReadTimeout,
		"write timeout":    c.WriteTimeout,
		"settle interval":  c.SettleInterval,
		"command interval": c.CommandInterval,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Option configures a Session.
type Option func(*Session)

// WithTransport replaces the default TCP transport.
func WithTransport(t Transport) Option {
	return func(s *Session) { s.transport = t }
}

// WithHasher replaces the SHA-256 digest scheme.
func WithHasher(h Hasher) Option {
	return func(s *Session) { s.hasher = h }
}

// WithLogger sets the base logger. The session adds its own fields.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithStateObserver registers fn to be called on every state transition.
func WithStateObserver(fn func(old, new State)) Option {
	return func(s *Session) { s.onStateChange = fn }
}

// Session is one ADCP conversation with a single projector. Commands are
// strictly sequential: one request, one reply. A Session is not safe for
// concurrent use; share it through a single goroutine.
type Session struct {
	cfg       Config
	transport Transport
	hasher    Hasher
	logger    *zap.Logger
	id        string
	limiter   *rate.Limiter

	state         State
	lastErr       error
	onStateChange func(old, new State)
}

// NewSession creates a disconnected session for cfg.
func NewSession(cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		hasher: SHA256Hasher{},
		id:     uuid.NewString(),
		state:  StateDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transport == nil {
		// Per-operation bounds come from ctx, see withTimeout.
		s.transport = &TCPTransport{}
	}
	if s.logger == nil {
		s.logger = logging.GetLogger()
	}
	s.logger = s.logger.With(
		zap.String("session_id", s.id),
		zap.String("addr", cfg.Address()),
	)
	if cfg.CommandInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(cfg.CommandInterval), 1)
	}
	return s
}

// ID returns the session's correlation id.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Err returns the error that moved the session to Failed, if any.
func (s *Session) Err() error { return s.lastErr }

// Address returns the device address.
func (s *Session) Address() string { return s.cfg.Address() }

// OnStateChange registers fn to be called on every state transition,
// replacing any earlier observer.
func (s *Session) OnStateChange(fn func(old, new State)) {
	s.onStateChange = fn
}

// Connect opens the transport and completes the authentication handshake.
// On success the session is Ready. Calling Connect on a session that is not
// Disconnected or Failed returns ErrTypeNotReady without touching the stream.
func (s *Session) Connect(ctx context.Context) error {
	switch s.state {
	case StateDisconnected, StateFailed:
	default:
		return NewNotReadyError(fmt.Sprintf("session already connected (state %s)", s.state))
	}

	s.lastErr = nil
	s.setState(StateConnecting)
	addr := s.cfg.Address()

	dialCtx, cancel := withTimeout(ctx, s.cfg.ConnectTimeout)
	err := s.transport.Open(dialCtx, addr)
	cancel()
	if err != nil {
		return s.fail(ClassifyDialError(err, addr))
	}
	logging.LogConnection(s.logger, addr, "connected")

	if err := s.settle(ctx); err != nil {
		return s.fail(ClassifyIOError(err, addr, "settle"))
	}
	line, err := s.readLine(ctx)
	if err != nil {
		return s.fail(ClassifyIOError(err, addr, "read challenge"))
	}

	challenge := DecodeLine(line)
	if string(challenge) == NoKeySentinel {
		s.logger.Info("Device authentication disabled")
		s.setState(StateReady)
		return nil
	}

	s.setState(StateAuthPending)
	return s.authenticate(ctx, challenge)
}

// authenticate answers challenge and waits for the verdict. The challenge
// buffer is zeroed before returning.
func (s *Session) authenticate(ctx context.Context, challenge []byte) error {
	defer clear(challenge)
	addr := s.cfg.Address()

	if s.cfg.Secret.IsZero() {
		return s.fail(NewAuthRejectedError("device requires authentication but no password is configured"))
	}

	digest := []byte(s.hasher.Digest(challenge, s.cfg.Secret.Reveal()) + LineTerminator)
	defer clear(digest)

	writeCtx, cancel := withTimeout(ctx, s.cfg.WriteTimeout)
	err := s.transport.Write(writeCtx, digest)
	cancel()
	if err != nil {
		return s.fail(ClassifyIOError(err, addr, "send digest"))
	}
	s.logger.Debug("Authentication digest sent", zap.Int("length", len(digest)))

	if err := s.settle(ctx); err != nil {
		return s.fail(ClassifyIOError(err, addr, "settle"))
	}
	line, err := s.readLine(ctx)
	if err != nil {
		return s.fail(ClassifyIOError(err, addr, "read auth reply"))
	}

	reply := bytes.TrimSpace(DecodeLine(line))
	if string(reply) != AuthOKSentinel {
		return s.fail(NewAuthRejectedError(fmt.Sprintf("device rejected credentials (reply %q)", reply)))
	}

	s.logger.Info("Authenticated")
	s.setState(StateReady)
	return nil
}

// Send writes cmd and returns the single reply line. Device refusals such as
// err_cmd are returned as the line, not as an error; see ReplyError.
func (s *Session) Send(ctx context.Context, cmd Command) (RawLine, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if cmd.IsZero() {
		return nil, fmt.Errorf("%w: zero command", ErrInvalidCommand)
	}

	addr := s.cfg.Address()
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			// No bytes were exchanged, so the stream is still usable.
			return nil, &Error{
				Type:      ErrTypeTimeout,
				Message:   "waiting for command slot",
				Err:       err,
				Address:   addr,
				Retryable: true,
			}
		}
	}

	wire := Encode(cmd)
	if err := s.write(ctx, wire); err != nil {
		return nil, s.fail(ClassifyIOError(err, addr, "send "+cmd.Name()))
	}
	if err := s.settle(ctx); err != nil {
		return nil, s.fail(ClassifyIOError(err, addr, "settle"))
	}
	line, err := s.readLine(ctx)
	if err != nil {
		return nil, s.fail(ClassifyIOError(err, addr, "read reply to "+cmd.Name()))
	}
	return DecodeLine(line), nil
}

// Query sends cmd and decodes the reply as a structured JSON array.
// A malformed reply leaves the session Ready.
func (s *Session) Query(ctx context.Context, cmd Command) (*StructuredReply, error) {
	line, err := s.Send(ctx, cmd)
	if err != nil {
		return nil, err
	}
	reply, err := DecodeStructured(line)
	if err != nil {
		s.logger.Warn("Malformed structured reply",
			zap.String("command", cmd.Name()),
			zap.Error(err),
		)
		return nil, err
	}
	return reply, nil
}

// Close releases the transport and returns the session to Disconnected.
// It is idempotent.
func (s *Session) Close() error {
	switch s.state {
	case StateDisconnected:
		return nil
	case StateFailed:
		// fail() already released the transport.
		s.setState(StateDisconnected)
		return nil
	}

	s.setState(StateClosing)
	err := s.transport.Close()
	s.setState(StateDisconnected)
	if err != nil {
		s.logger.Debug("Transport close error", zap.Error(err))
		return &Error{
			Type:    ErrTypeTransport,
			Message: "close failed",
			Err:     err,
			Address: s.cfg.Address(),
		}
	}
	logging.LogConnection(s.logger, s.cfg.Address(), "closed")
	return nil
}

func (s *Session) ready() error {
	if s.state != StateReady {
		return NewNotReadyError(fmt.Sprintf("session is %s", s.state))
	}
	if !s.transport.Connected() {
		s.fail(&Error{
			Type:      ErrTypeTransport,
			Message:   "transport lost",
			Address:   s.cfg.Address(),
			Retryable: true,
		})
		return NewNotReadyError("transport is not connected")
	}
	return nil
}

func (s *Session) fail(e *Error) error {
	if err := s.transport.Close(); err != nil {
		s.logger.Debug("Transport close error", zap.Error(err))
	}
	s.lastErr = e
	s.setState(StateFailed)
	s.logger.Warn("Session failed",
		zap.Stringer("type", e.Type),
		zap.String("reason", e.Message),
		zap.Error(e.Err),
	)
	return e
}

func (s *Session) setState(next State) {
	prev := s.state
	if prev == next {
		return
	}
	s.state = next
	logging.LogStateChange(s.logger, prev, next)
	if s.onStateChange != nil {
		s.onStateChange(prev, next)
	}
}

func (s *Session) write(ctx context.Context, wire []byte) error {
	ctx, cancel := withTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	logging.LogWire(s.logger, "send", wire)
	return s.transport.Write(ctx, wire)
}

func (s *Session) readLine(ctx context.Context) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()
	line, err := s.transport.ReadLine(ctx)
	if err != nil {
		return nil, err
	}
	logging.LogWire(s.logger, "recv", line)
	return line, nil
}

func (s *Session) settle(ctx context.Context) error {
	if s.cfg.SettleInterval <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.SettleInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
