package simulator

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/adcpctl/internal/adcp"
	"github.com/muurk/adcpctl/internal/logging"
)

// Config holds the simulator configuration
type Config struct {
	Host     string
	Port     int
	Password string // Empty means the device greets with NOKEY

	Model  string
	Serial string
	ExtROM string // Reported as the fourth version record when set

	// Replies overrides the reply for an exact command line.
	Replies map[string]string
	// Challenge generates the per-connection challenge. Random hex when nil.
	Challenge func() string
	// ReplyDelay is waited before every line the device sends.
	ReplyDelay time.Duration

	Logger *zap.Logger
}

// Server is a TCP server that speaks ADCP like a projector
type Server struct {
	config      Config
	device      *Device
	logger      *zap.Logger
	listener    net.Listener
	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]net.Conn
	closing     bool
}

// New creates a new Server instance
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Server{
		config:      config,
		device:      NewDevice(config),
		logger:      logger.Named("simulator"),
		activeConns: make(map[string]net.Conn),
	}
}

// Device returns the emulated projector.
func (s *Server) Device() *Device {
	return s.device
}

// Listen binds the listening socket. Port 0 picks a free port.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.logger.Info("Simulator listening for connections",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("auth", s.config.Password != ""),
	)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is canceled, then shuts down.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("simulator: Serve called before Listen")
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.acceptConnections()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Start binds and serves; it blocks until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// acceptConnections accepts and handles incoming connections
func (s *Server) acceptConnections() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		if !s.track(conn) {
			continue
		}
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// track registers conn with the shutdown bookkeeping. A connection that
// arrives once Shutdown has started is closed and refused.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		_ = conn.Close()
		return false
	}
	s.activeConns[conn.RemoteAddr().String()] = conn
	s.wg.Add(1)
	return true
}

// handleConnection runs one client conversation: greeting, optional
// challenge, then one reply per command line.
func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		logging.LogConnection(s.logger, remoteAddr, "connection_closed")
	}()

	logging.LogConnection(s.logger, remoteAddr, "connection_accepted")

	reader := bufio.NewReader(conn)
	if !s.handshake(conn, reader, remoteAddr) {
		return
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		logging.LogWire(s.logger, "recv", []byte(line))

		reply := s.device.Handle(strings.TrimRight(line, "\r\n"))
		if err := s.writeLine(conn, reply); err != nil {
			s.logger.Debug("Write failed", zap.String("remote_addr", remoteAddr), zap.Error(err))
			return
		}
	}
}

func (s *Server) handshake(conn net.Conn, reader *bufio.Reader, remoteAddr string) bool {
	if s.config.Password == "" {
		return s.writeLine(conn, adcp.NoKeySentinel) == nil
	}

	challenge := s.newChallenge()
	if err := s.writeLine(conn, challenge); err != nil {
		return false
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	expected := adcp.Digest([]byte(challenge), []byte(s.config.Password))
	if strings.TrimSpace(line) != expected {
		s.logger.Warn("Authentication failed", zap.String("remote_addr", remoteAddr))
		_ = s.writeLine(conn, ReplyErrAuth)
		return false
	}

	s.logger.Info("Client authenticated", zap.String("remote_addr", remoteAddr))
	return s.writeLine(conn, adcp.AuthOKSentinel) == nil
}

func (s *Server) newChallenge() string {
	if s.config.Challenge != nil {
		return s.config.Challenge()
	}
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))
}

func (s *Server) writeLine(conn net.Conn, line string) error {
	if s.config.ReplyDelay > 0 {
		time.Sleep(s.config.ReplyDelay)
	}
	wire := []byte(line + adcp.LineTerminator)
	logging.LogWire(s.logger, "send", wire)
	_, err := conn.Write(wire)
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down simulator...")

	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error("Error closing listener", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.closing = true
	for addr, conn := range s.activeConns {
		s.logger.Debug("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All connections closed gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Shutdown timeout, forcing close")
		return ctx.Err()
	}
}

// ActiveConnections returns the number of active connections
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}
