package simulator

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/muurk/adcpctl/internal/adcp"
)

const testPassword = "Projector1"

func startSimulator(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.Logger = zap.NewNop()

	srv := New(cfg)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return srv
}

func sessionFor(t *testing.T, srv *Server, password string) *adcp.Session {
	t.Helper()
	tcp := srv.Addr().(*net.TCPAddr)
	cfg := adcp.DefaultConfig(tcp.IP.String())
	cfg.Port = tcp.Port
	cfg.Secret = adcp.NewSecret(password)
	cfg.SettleInterval = time.Millisecond
	cfg.ReadTimeout = time.Second

	s := adcp.NewSession(cfg, adcp.WithLogger(zap.NewNop()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSimulatorNoKey(t *testing.T) {
	srv := startSimulator(t, Config{})
	s := sessionFor(t, srv, "")

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, adcp.StateReady, s.State())

	reply, err := s.Send(context.Background(), adcp.ModelName)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, reply.Text())
}

func TestSimulatorChallengeAccepted(t *testing.T) {
	srv := startSimulator(t, Config{
		Password:  testPassword,
		Challenge: func() string { return "AB12" },
	})
	s := sessionFor(t, srv, testPassword)

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, adcp.StateReady, s.State())
}

func TestSimulatorChallengeRejected(t *testing.T) {
	srv := startSimulator(t, Config{Password: testPassword})
	s := sessionFor(t, srv, "wrong")

	err := s.Connect(context.Background())

	assert.True(t, adcp.IsAuthRejected(err), "got %v", err)
	assert.Equal(t, adcp.StateFailed, s.State())
}

func TestSimulatorChallengeWithoutPassword(t *testing.T) {
	srv := startSimulator(t, Config{Password: testPassword})
	s := sessionFor(t, srv, "")

	err := s.Connect(context.Background())

	assert.True(t, adcp.IsAuthRejected(err), "got %v", err)
}

func TestSimulatorReadStatus(t *testing.T) {
	srv := startSimulator(t, Config{Password: testPassword, ExtROM: "0.90"})
	s := sessionFor(t, srv, testPassword)
	require.NoError(t, s.Connect(context.Background()))

	st, err := adcp.ReadStatus(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, st.ModelName)
	assert.Equal(t, DefaultSerial, st.SerialNumber)
	assert.Equal(t, "1234", st.OperationTime)
	assert.Equal(t, "567", st.LightSourceTime)
	assert.Equal(t, "0.90", st.ExtROM)
	assert.Equal(t, "HDMI1", st.Input)
	assert.Equal(t, "STANDBY", st.PowerStatus)
	assert.Empty(t, st.Absent)
}

func TestSimulatorStatusWithoutExtROM(t *testing.T) {
	srv := startSimulator(t, Config{})
	s := sessionFor(t, srv, "")
	require.NoError(t, s.Connect(context.Background()))

	st, err := adcp.ReadStatus(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "1.00", st.SubROM)
	assert.Equal(t, []string{adcp.FieldExtROM}, st.Absent)
}

func TestSimulatorPowerAndInput(t *testing.T) {
	srv := startSimulator(t, Config{})
	s := sessionFor(t, srv, "")
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))

	reply, err := s.Send(ctx, adcp.InputB)
	require.NoError(t, err)
	assert.Equal(t, ReplyErrOff, reply.String())

	reply, err = s.Send(ctx, adcp.PowerOn)
	require.NoError(t, err)
	assert.True(t, reply.IsOK())
	assert.Equal(t, PowerOn, srv.Device().Power())

	reply, err = s.Send(ctx, adcp.InputB)
	require.NoError(t, err)
	assert.True(t, reply.IsOK())
	assert.Equal(t, "hdmi2", srv.Device().Input())

	reply, err = s.Send(ctx, adcp.InputNet)
	require.NoError(t, err)
	assert.True(t, reply.IsOK())

	reply, err = s.Send(ctx, adcp.PowerStatus)
	require.NoError(t, err)
	assert.Equal(t, PowerOn, reply.Text())
}

func TestSimulatorUnknownCommand(t *testing.T) {
	srv := startSimulator(t, Config{})
	s := sessionFor(t, srv, "")
	require.NoError(t, s.Connect(context.Background()))

	cmd, err := adcp.QueryCommand("lens_shift")
	require.NoError(t, err)
	reply, err := s.Send(context.Background(), cmd)

	require.NoError(t, err)
	assert.Equal(t, ReplyErrCmd, reply.String())
	assert.Equal(t, adcp.StateReady, s.State())
}

func TestSimulatorMalformedOverride(t *testing.T) {
	srv := startSimulator(t, Config{Replies: map[string]string{"timer ?": `[{"operation":"12`}})
	s := sessionFor(t, srv, "")
	require.NoError(t, s.Connect(context.Background()))

	_, err := s.Query(context.Background(), adcp.Timer)

	assert.True(t, adcp.IsMalformed(err))
	assert.Equal(t, adcp.StateReady, s.State())

	// The session is still usable.
	reply, err := s.Send(context.Background(), adcp.SerialNum)
	require.NoError(t, err)
	assert.Equal(t, DefaultSerial, reply.Text())
}

func TestSimulatorSlowReplyTimesOut(t *testing.T) {
	srv := startSimulator(t, Config{ReplyDelay: 300 * time.Millisecond})
	s := sessionFor(t, srv, "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.Connect(ctx)

	assert.True(t, adcp.IsTimeout(err), "got %v", err)
	assert.Equal(t, adcp.StateFailed, s.State())
}

func TestSimulatorShutdownClosesSessions(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Logger: zap.NewNop()}
	srv := New(cfg)
	require.NoError(t, srv.Listen())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	s := sessionFor(t, srv, "")
	require.NoError(t, s.Connect(context.Background()))
	require.Eventually(t, func() bool { return srv.ActiveConnections() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 0, srv.ActiveConnections())

	_, err := s.Send(context.Background(), adcp.ModelName)
	assert.True(t, adcp.IsTransportError(err), "got %v", err)
	assert.Equal(t, adcp.StateFailed, s.State())
}

func TestSimulatorRefusesConnectionsAfterShutdown(t *testing.T) {
	srv := New(Config{Host: "127.0.0.1", Logger: zap.NewNop()})
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	// A connection accepted while the listener was closing.
	late, peer := net.Pipe()
	defer peer.Close()
	assert.False(t, srv.track(late))
	assert.Equal(t, 0, srv.ActiveConnections())

	_, err := late.Write([]byte("x"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	// Nothing is left for a second shutdown to wait on.
	require.NoError(t, srv.Shutdown(ctx))
}

func TestDeviceHandle(t *testing.T) {
	d := NewDevice(Config{Model: "VPL-VW290"})

	tests := []struct {
		line string
		want string
	}{
		{"modelname ?", `"VPL-VW290"`},
		{"modelname \"x\"", ReplyErrCmd},
		{"power_status ?", `"standby"`},
		{"key \"menu\"", ReplyErrOff},
		{"key \"bogus\"", ReplyErrVal},
		{"power \"sideways\"", ReplyErrVal},
		{"input \"hdmi9\"", ReplyErrVal},
		{"version ?", `[{"main":"1.10"},{"main_data":"1.02"},{"sub":"1.00"}]`},
		{"", ReplyErrCmd},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Handle(tt.line))
		})
	}
}
