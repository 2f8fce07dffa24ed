package adcp

import (
	"fmt"
	"io"
)

const redacted = "[redacted]"

// Secret holds the shared authentication password. Every formatting path
// (fmt verbs, zap Stringer fields, text and JSON encoders) prints a
// placeholder instead of the value.
type Secret struct {
	b []byte
}

// NewSecret copies s into a Secret.
func NewSecret(s string) Secret {
	if s == "" {
		return Secret{}
	}
	return Secret{b: []byte(s)}
}

// IsZero reports whether no secret is configured.
func (s Secret) IsZero() bool {
	return len(s.b) == 0
}

// Reveal returns the raw secret bytes. Only the authentication step should call it.
func (s Secret) Reveal() []byte {
	return s.b
}

// Wipe zeroes the secret in place.
func (s *Secret) Wipe() {
	clear(s.b)
	s.b = nil
}

func (s Secret) String() string {
	if s.IsZero() {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string {
	return "adcp.Secret{" + s.String() + "}"
}

// Format covers %v, %+v, %#v, %s, %q and %x alike.
func (s Secret) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('#') {
		_, _ = io.WriteString(f, s.GoString())
		return
	}
	_, _ = io.WriteString(f, s.String())
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
