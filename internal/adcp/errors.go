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
)

// ErrorType represents the category of a session failure
type ErrorType int

const (
	// ErrTypeConnect indicates the transport could not establish the stream
	ErrTypeConnect ErrorType = iota
	// ErrTypeTimeout indicates a read or write exceeded its bound
	ErrTypeTimeout
	// ErrTypeAuthRejected indicates the device rejected the computed digest
	ErrTypeAuthRejected
	// ErrTypeMalformed indicates a structured reply failed to parse
	ErrTypeMalformed
	// ErrTypeFieldAbsent indicates a requested index or key is missing from a structured reply
	ErrTypeFieldAbsent
	// ErrTypeNotReady indicates a command was attempted outside the Ready state
	ErrTypeNotReady
	// ErrTypeTransport indicates a read/write failure on an established stream
	ErrTypeTransport
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
	NetworkErrorClosed
	NetworkErrorCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnect:
		return "Connect Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeAuthRejected:
		return "Authentication Rejected"
	case ErrTypeMalformed:
		return "Malformed Reply"
	case ErrTypeFieldAbsent:
		return "Field Absent"
	case ErrTypeNotReady:
		return "Not Ready"
	case ErrTypeTransport:
		return "Transport Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is the tagged failure returned by every session operation
type Error struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	Address        string              // Device address (for context)
	Retryable      bool                // Whether reconnecting may succeed
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a kind sentinel (an *Error without a message)
// of the same type, so errors.Is(err, ErrTimeout) works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" {
		return false
	}
	return t.Type == e.Type
}

// Kind sentinels for errors.Is.
var (
	ErrConnect      = &Error{Type: ErrTypeConnect}
	ErrTimeout      = &Error{Type: ErrTypeTimeout}
	ErrAuthRejected = &Error{Type: ErrTypeAuthRejected}
	ErrMalformed    = &Error{Type: ErrTypeMalformed}
	ErrFieldAbsent  = &Error{Type: ErrTypeFieldAbsent}
	ErrNotReady     = &Error{Type: ErrTypeNotReady}
	ErrTransport    = &Error{Type: ErrTypeTransport}
)

// ErrInvalidCommand is returned when a command's wire form would violate framing.
var ErrInvalidCommand = errors.New("adcp: invalid command")

// ClassifyDialError analyzes a failed connection attempt. The result is
// always ErrTypeConnect; the network subtype says why.
func ClassifyDialError(err error, address string) *Error {
	if err == nil {
		return nil
	}

	e := &Error{
		Type:      ErrTypeConnect,
		Message:   "could not connect to device",
		Err:       err,
		Address:   address,
		Retryable: true,
	}

	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.Canceled):
		e.Message = "connect canceled"
		e.NetworkSubtype = NetworkErrorCanceled
		e.Retryable = false
	case isTimeout(err):
		e.Message = "connect timed out"
		e.NetworkSubtype = NetworkErrorTimeout
	case errors.As(err, &dnsErr):
		e.Message = fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name)
		e.NetworkSubtype = NetworkErrorDNS
		e.Retryable = false
	case errors.Is(err, syscall.ECONNREFUSED):
		e.Message = "device refused connection"
		e.NetworkSubtype = NetworkErrorConnectionRefused
	case errors.Is(err, syscall.EHOSTUNREACH):
		e.Message = "host unreachable"
		e.NetworkSubtype = NetworkErrorHostUnreachable
	case errors.Is(err, syscall.ENETUNREACH):
		e.Message = "network unreachable"
		e.NetworkSubtype = NetworkErrorNetworkUnreachable
	}

	return e
}

// ClassifyIOError analyzes a read or write failure on an open stream.
// op names the protocol step, e.g. "read challenge".
func ClassifyIOError(err error, address, op string) *Error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return already
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{
			Type:           ErrTypeTimeout,
			Message:        op + " canceled",
			Err:            err,
			NetworkSubtype: NetworkErrorCanceled,
			Address:        address,
			Retryable:      false,
		}
	case isTimeout(err):
		return &Error{
			Type:           ErrTypeTimeout,
			Message:        op + " timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			Address:        address,
			Retryable:      true,
		}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return &Error{
			Type:           ErrTypeTransport,
			Message:        op + ": connection closed by device",
			Err:            err,
			NetworkSubtype: NetworkErrorClosed,
			Address:        address,
			Retryable:      true,
		}
	}

	return &Error{
		Type:           ErrTypeTransport,
		Message:        op + " failed",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		Address:        address,
		Retryable:      true,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// NewAuthRejectedError creates an authentication failure. Not retryable:
// the same secret will be rejected again.
func NewAuthRejectedError(message string) *Error {
	return &Error{
		Type:      ErrTypeAuthRejected,
		Message:   message,
		Retryable: false,
	}
}

// NewMalformedError creates a structured reply decoding error
func NewMalformedError(message string, err error) *Error {
	return &Error{
		Type:      ErrTypeMalformed,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// NewFieldAbsentError creates an error describing a missing index/key pair
func NewFieldAbsentError(index int, key string) *Error {
	return &Error{
		Type:    ErrTypeFieldAbsent,
		Message: fmt.Sprintf("no field %q at index %d", key, index),
	}
}

// NewNotReadyError creates a usage error for commands issued in the wrong state
func NewNotReadyError(message string) *Error {
	return &Error{
		Type:      ErrTypeNotReady,
		Message:   message,
		Retryable: false,
	}
}

func errorType(err error) (ErrorType, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

func isType(err error, want ErrorType) bool {
	t, ok := errorType(err)
	return ok && t == want
}

// IsConnectError checks if an error is a connection failure
func IsConnectError(err error) bool { return isType(err, ErrTypeConnect) }

// IsTimeout checks if an error is a read/write timeout
func IsTimeout(err error) bool { return isType(err, ErrTypeTimeout) }

// IsAuthRejected checks if the device rejected the credentials
func IsAuthRejected(err error) bool { return isType(err, ErrTypeAuthRejected) }

// IsMalformed checks if a structured reply failed to decode
func IsMalformed(err error) bool { return isType(err, ErrTypeMalformed) }

// IsFieldAbsent checks if a structured reply field was missing
func IsFieldAbsent(err error) bool { return isType(err, ErrTypeFieldAbsent) }

// IsNotReady checks if a command was issued outside the Ready state
func IsNotReady(err error) bool { return isType(err, ErrTypeNotReady) }

// IsTransportError checks if an established stream failed
func IsTransportError(err error) bool { return isType(err, ErrTypeTransport) }

// IsRetryable checks if reconnecting could clear the error
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// TroubleshootingHint returns user-facing advice lines for an error
func TroubleshootingHint(err error) []string {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}

	switch e.Type {
	case ErrTypeConnect:
		switch e.NetworkSubtype {
		case NetworkErrorConnectionRefused:
			return []string{
				"The projector refused the connection",
				"Check that ADCP is enabled in the projector's network menu",
				fmt.Sprintf("Verify the port (default is %d)", DefaultPort),
			}
		case NetworkErrorDNS:
			return []string{
				"Use the projector's IP address instead of a hostname",
			}
		case NetworkErrorHostUnreachable, NetworkErrorNetworkUnreachable:
			return []string{
				"Verify the projector IP address is correct",
				"Check that you're on the same network as the projector",
				"Try pinging the projector: ping " + hostOf(e.Address),
			}
		case NetworkErrorTimeout:
			return []string{
				"The projector did not answer in time",
				"Check that it is powered (standby still answers ADCP)",
				"Try increasing --timeout",
			}
		}
		return []string{
			"Check your network connection",
			"Verify the projector is powered on",
		}
	case ErrTypeTimeout:
		return []string{
			"The projector stopped answering mid-exchange",
			"Try increasing --timeout or --settle for slow firmware",
		}
	case ErrTypeAuthRejected:
		return []string{
			"The projector rejected the password",
			"Set the password with --password or ADCP_PASSWORD",
			"Check the projector's ADCP authentication setting",
		}
	case ErrTypeTransport:
		return []string{
			"The projector closed the connection",
			"It may only allow one ADCP client at a time",
		}
	case ErrTypeMalformed:
		return []string{
			"The projector returned a reply that could not be parsed",
			"Run with --log-level debug to see the raw reply",
		}
	}
	return nil
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Type {
	case ErrTypeConnect:
		switch e.NetworkSubtype {
		case NetworkErrorConnectionRefused:
			return "Projector refused connection - is ADCP enabled?"
		case NetworkErrorTimeout:
			return "Projector not responding (connect timeout)"
		case NetworkErrorDNS:
			return "Cannot resolve projector hostname"
		default:
			return "Projector unreachable - check network connection"
		}
	case ErrTypeTimeout:
		return "Projector not responding (timeout)"
	case ErrTypeAuthRejected:
		return "Authentication failed - check password"
	case ErrTypeNotReady:
		return "Session not ready: " + e.Message
	default:
		return e.Message
	}
}

func hostOf(address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return strings.TrimSpace(address)
	}
	return host
}
