package adcp

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoff(RetryPolicy{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2})

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		assert.Equal(t, w, b.Next(), "step %d", i)
	}
	assert.Equal(t, 5, b.Attempts())

	b.Reset()
	assert.Equal(t, time.Second, b.Current())
	assert.Equal(t, 0, b.Attempts())
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(RetryPolicy{})
	assert.Equal(t, DefaultInitialBackoff, b.Current())

	// Max below initial is raised to initial.
	b = NewBackoff(RetryPolicy{Initial: 2 * time.Second, Max: time.Second})
	assert.Equal(t, 2*time.Second, b.Next())
	assert.Equal(t, 2*time.Second, b.Next())
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff(RetryPolicy{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2, Jitter: 0.5})
	for range 20 {
		base := b.Current()
		d := b.Next()
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/2)
	}
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2}
}

func TestConnectWithRetryEventuallySucceeds(t *testing.T) {
	tr := &mockTransport{}
	s := NewSession(testConfig(""), WithTransport(tr), WithLogger(zap.NewNop()))

	tr.On("Open", mock.Anything, mock.Anything).Return(syscall.ECONNREFUSED).Twice()
	tr.On("Close").Return(nil)
	tr.expectOpen()
	tr.expectRead("NOKEY\r\n")

	require.NoError(t, ConnectWithRetry(context.Background(), s, fastPolicy(3)))
	assert.Equal(t, StateReady, s.State())
	tr.AssertNumberOfCalls(t, "Open", 3)
}

func TestConnectWithRetryGivesUp(t *testing.T) {
	tr := &mockTransport{}
	s := NewSession(testConfig(""), WithTransport(tr), WithLogger(zap.NewNop()))

	tr.On("Open", mock.Anything, mock.Anything).Return(syscall.ECONNREFUSED)
	tr.On("Close").Return(nil)

	err := ConnectWithRetry(context.Background(), s, fastPolicy(3))

	assert.True(t, IsConnectError(err))
	tr.AssertNumberOfCalls(t, "Open", 3)
	assert.Equal(t, StateDisconnected, s.State())
}

func TestConnectWithRetryStopsOnAuthRejected(t *testing.T) {
	tr := &mockTransport{}
	s := NewSession(testConfig("wrong"), WithTransport(tr), WithLogger(zap.NewNop()))

	tr.On("Open", mock.Anything, mock.Anything).Return(nil)
	tr.On("ReadLine", mock.Anything).Return([]byte("AB12\r\n"), nil).Once()
	tr.On("Write", mock.Anything, mock.Anything).Return(nil)
	tr.On("ReadLine", mock.Anything).Return([]byte("err_auth\r\n"), nil).Once()
	tr.On("Close").Return(nil)

	err := ConnectWithRetry(context.Background(), s, fastPolicy(5))

	assert.True(t, IsAuthRejected(err))
	tr.AssertNumberOfCalls(t, "Open", 1)
	assert.Equal(t, StateFailed, s.State())
}

func TestConnectWithRetrySingleAttempt(t *testing.T) {
	tr := &mockTransport{}
	s := NewSession(testConfig(""), WithTransport(tr), WithLogger(zap.NewNop()))
	tr.On("Open", mock.Anything, mock.Anything).Return(errors.New("boom"))
	tr.On("Close").Return(nil)

	require.Error(t, ConnectWithRetry(context.Background(), s, RetryPolicy{}))
	tr.AssertNumberOfCalls(t, "Open", 1)
}

func TestConnectWithRetryCanceledDuringBackoff(t *testing.T) {
	tr := &mockTransport{}
	s := NewSession(testConfig(""), WithTransport(tr), WithLogger(zap.NewNop()))
	tr.On("Open", mock.Anything, mock.Anything).Return(syscall.ECONNREFUSED)
	tr.On("Close").Return(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	policy := RetryPolicy{MaxAttempts: 5, Initial: time.Hour, Max: time.Hour}

	err := ConnectWithRetry(ctx, s, policy)

	assert.True(t, IsConnectError(err))
	tr.AssertNumberOfCalls(t, "Open", 1)
}
