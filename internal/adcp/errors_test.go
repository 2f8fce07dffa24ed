package adcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"
)

// timeoutError implements net.Error with Timeout() = true
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

func TestClassifyDialError_Timeout(t *testing.T) {
	err := &net.OpError{Op: "dial", Net: "tcp", Err: &timeoutError{}}

	e := ClassifyDialError(err, "192.168.1.50:53595")

	if e.Type != ErrTypeConnect {
		t.Errorf("Expected error type %v, got %v", ErrTypeConnect, e.Type)
	}
	if e.NetworkSubtype != NetworkErrorTimeout {
		t.Errorf("Expected network subtype %v, got %v", NetworkErrorTimeout, e.NetworkSubtype)
	}
	if !e.Retryable {
		t.Error("Expected connect timeout to be retryable")
	}
}

func TestClassifyDialError_ConnectionRefused(t *testing.T) {
	err := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	e := ClassifyDialError(err, "192.168.1.50:53595")

	if e.Type != ErrTypeConnect {
		t.Errorf("Expected error type %v, got %v", ErrTypeConnect, e.Type)
	}
	if e.NetworkSubtype != NetworkErrorConnectionRefused {
		t.Errorf("Expected network subtype %v, got %v", NetworkErrorConnectionRefused, e.NetworkSubtype)
	}
	if e.Address != "192.168.1.50:53595" {
		t.Errorf("Address = %s", e.Address)
	}
}

func TestClassifyDialError_DNS(t *testing.T) {
	err := &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Name: "projector.local", Err: "no such host"}}

	e := ClassifyDialError(err, "projector.local:53595")

	if e.NetworkSubtype != NetworkErrorDNS {
		t.Errorf("Expected network subtype %v, got %v", NetworkErrorDNS, e.NetworkSubtype)
	}
	if e.Retryable {
		t.Error("DNS errors should not be retryable")
	}
}

func TestClassifyDialError_Unreachable(t *testing.T) {
	host := ClassifyDialError(&net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH}, "10.0.0.9:53595")
	if host.NetworkSubtype != NetworkErrorHostUnreachable {
		t.Errorf("Expected host unreachable, got %v", host.NetworkSubtype)
	}

	network := ClassifyDialError(&net.OpError{Op: "dial", Err: syscall.ENETUNREACH}, "10.0.0.9:53595")
	if network.NetworkSubtype != NetworkErrorNetworkUnreachable {
		t.Errorf("Expected network unreachable, got %v", network.NetworkSubtype)
	}
}

func TestClassifyDialError_Nil(t *testing.T) {
	if ClassifyDialError(nil, "x") != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestClassifyIOError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		wantSub   NetworkErrorSubtype
		retryable bool
	}{
		{"deadline", fmt.Errorf("read: %w", context.DeadlineExceeded), ErrTypeTimeout, NetworkErrorTimeout, true},
		{"os deadline", os.ErrDeadlineExceeded, ErrTypeTimeout, NetworkErrorTimeout, true},
		{"net timeout", &timeoutError{}, ErrTypeTimeout, NetworkErrorTimeout, true},
		{"canceled", context.Canceled, ErrTypeTimeout, NetworkErrorCanceled, false},
		{"eof", io.EOF, ErrTypeTransport, NetworkErrorClosed, true},
		{"closed", net.ErrClosed, ErrTypeTransport, NetworkErrorClosed, true},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, ErrTypeTransport, NetworkErrorClosed, true},
		{"other", errors.New("boom"), ErrTypeTransport, NetworkErrorGeneral, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ClassifyIOError(tt.err, "h:1", "read reply")
			if e.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", e.Type, tt.wantType)
			}
			if e.NetworkSubtype != tt.wantSub {
				t.Errorf("NetworkSubtype = %v, want %v", e.NetworkSubtype, tt.wantSub)
			}
			if e.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", e.Retryable, tt.retryable)
			}
			if !errors.Is(e, tt.err) {
				t.Error("Expected underlying error to be preserved")
			}
		})
	}
}

func TestClassifyIOError_PassesThroughTaggedErrors(t *testing.T) {
	orig := NewAuthRejectedError("nope")
	if got := ClassifyIOError(fmt.Errorf("wrapped: %w", orig), "h:1", "x"); got != orig {
		t.Errorf("Expected the tagged error back, got %v", got)
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"connect", &Error{Type: ErrTypeConnect}, IsConnectError},
		{"timeout", &Error{Type: ErrTypeTimeout}, IsTimeout},
		{"auth", NewAuthRejectedError("x"), IsAuthRejected},
		{"malformed", NewMalformedError("x", nil), IsMalformed},
		{"field", NewFieldAbsentError(3, "ext"), IsFieldAbsent},
		{"not ready", NewNotReadyError("x"), IsNotReady},
		{"transport", &Error{Type: ErrTypeTransport}, IsTransportError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Error("Expected helper to match")
			}
			if !tt.check(fmt.Errorf("context: %w", tt.err)) {
				t.Error("Expected helper to match through wrapping")
			}
			if tt.check(errors.New("plain")) {
				t.Error("Expected helper not to match a plain error")
			}
		})
	}
}

func TestErrorIsSentinels(t *testing.T) {
	err := fmt.Errorf("status: %w", &Error{Type: ErrTypeTimeout, Message: "read reply timed out"})

	if !errors.Is(err, ErrTimeout) {
		t.Error("Expected errors.Is to match the timeout sentinel")
	}
	if errors.Is(err, ErrTransport) {
		t.Error("Expected errors.Is not to match another kind")
	}
	if errors.Is(err, &Error{Type: ErrTypeTimeout, Message: "other"}) {
		t.Error("Only message-less targets act as sentinels")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("plain")) {
		t.Error("Unknown errors should not be retryable")
	}
	if IsRetryable(NewAuthRejectedError("x")) {
		t.Error("Auth rejection should not be retryable")
	}
	if !IsRetryable(&Error{Type: ErrTypeTransport, Retryable: true}) {
		t.Error("Expected retryable transport error")
	}
}

func TestErrorString(t *testing.T) {
	e := &Error{Type: ErrTypeTimeout, Message: "read reply timed out", Err: context.DeadlineExceeded}
	got := e.Error()
	if !strings.Contains(got, "Timeout") || !strings.Contains(got, "read reply timed out") || !strings.Contains(got, "deadline") {
		t.Errorf("Unexpected error string %q", got)
	}
}

func TestTroubleshootingHint(t *testing.T) {
	refused := &Error{Type: ErrTypeConnect, NetworkSubtype: NetworkErrorConnectionRefused}
	hints := TroubleshootingHint(refused)
	if len(hints) == 0 {
		t.Fatal("Expected hints for refused connection")
	}
	if !strings.Contains(strings.Join(hints, " "), "53595") {
		t.Error("Expected default port in hints")
	}

	unreach := &Error{Type: ErrTypeConnect, NetworkSubtype: NetworkErrorHostUnreachable, Address: "10.0.0.9:53595"}
	if !strings.Contains(strings.Join(TroubleshootingHint(unreach), " "), "ping 10.0.0.9") {
		t.Error("Expected ping hint with host only")
	}

	if TroubleshootingHint(errors.New("plain")) != nil {
		t.Error("Expected no hints for untagged errors")
	}
}

func TestShortMessage(t *testing.T) {
	if got := ShortMessage(NewAuthRejectedError("x")); got != "Authentication failed - check password" {
		t.Errorf("ShortMessage = %q", got)
	}
	if got := ShortMessage(errors.New("plain")); got != "plain" {
		t.Errorf("ShortMessage = %q", got)
	}
}
