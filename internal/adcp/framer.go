package adcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RawLine is one decoded reply line with its terminator removed.
type RawLine []byte

func (l RawLine) String() string { return string(l) }

// Text returns the line with surrounding quotes removed.
func (l RawLine) Text() string { return Unquote(string(l)) }

// IsOK reports whether the device acknowledged a set command.
func (l RawLine) IsOK() bool { return strings.TrimSpace(string(l)) == "ok" }

// Encode returns the bytes to write for cmd.
func Encode(cmd Command) []byte {
	return cmd.Wire()
}

// DecodeLine strips exactly one trailing CRLF, or a lone LF, from raw.
// The result never aliases raw.
func DecodeLine(raw []byte) RawLine {
	line := raw
	switch {
	case bytes.HasSuffix(line, []byte(LineTerminator)):
		line = line[:len(line)-2]
	case bytes.HasSuffix(line, []byte("\n")):
		line = line[:len(line)-1]
	}
	return RawLine(bytes.Clone(line))
}

// Unquote removes leading and trailing double quotes.
func Unquote(s string) string {
	return strings.Trim(s, `"`)
}

// IsStructured reports whether a reply looks like a JSON array.
func IsStructured(line []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(line), []byte("["))
}

// DeviceReplyError is a device-side refusal such as err_cmd or err_val.
type DeviceReplyError struct {
	Code string
}

var deviceErrorText = map[string]string{
	"err_cmd":      "unknown command",
	"err_option":   "invalid option",
	"err_val":      "invalid value",
	"err_inactive": "command not available in the current state",
	"err_auth":     "authentication required",
}

func (e *DeviceReplyError) Error() string {
	if text, ok := deviceErrorText[e.Code]; ok {
		return fmt.Sprintf("device replied %s (%s)", e.Code, text)
	}
	if strings.HasPrefix(e.Code, "err_internal") {
		return fmt.Sprintf("device replied %s (internal error)", e.Code)
	}
	return "device replied " + e.Code
}

// IsDeviceErrorReply reports whether line is an err_* reply.
func IsDeviceErrorReply(line []byte) bool {
	return strings.HasPrefix(Unquote(strings.TrimSpace(string(line))), "err_")
}

// ReplyError returns a *DeviceReplyError for err_* replies and nil otherwise.
func ReplyError(line []byte) error {
	if !IsDeviceErrorReply(line) {
		return nil
	}
	return &DeviceReplyError{Code: Unquote(strings.TrimSpace(string(line)))}
}

// Record is one object of a structured reply. String values are unquoted;
// other JSON values keep their literal text.
type Record map[string]string

// StructuredReply is a decoded JSON-array reply. A nil *StructuredReply
// reports every field as absent.
type StructuredReply struct {
	records []Record
	raw     []byte
}

// DecodeStructured parses raw as a JSON array of flat objects. Anything
// else (truncated JSON, a bare object, null, non-object elements) is
// reported as ErrTypeMalformed.
func DecodeStructured(raw []byte) (*StructuredReply, error) {
	body := bytes.TrimSpace(DecodeLine(raw))
	if len(body) == 0 {
		return nil, NewMalformedError("empty reply", nil)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, NewMalformedError("reply is not a JSON array", err)
	}
	if elems == nil {
		return nil, NewMalformedError("reply is null", nil)
	}

	records := make([]Record, 0, len(elems))
	for i, elem := range elems {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(elem, &obj); err != nil {
			return nil, NewMalformedError(fmt.Sprintf("element %d is not an object", i), err)
		}
		if obj == nil {
			return nil, NewMalformedError(fmt.Sprintf("element %d is null", i), nil)
		}
		rec := make(Record, len(obj))
		for k, v := range obj {
			rec[k] = scalarText(v)
		}
		records = append(records, rec)
	}

	return &StructuredReply{records: records, raw: bytes.Clone(body)}, nil
}

func scalarText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) > 0 && v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return Unquote(s)
		}
	}
	return string(v)
}

// Len returns the number of records.
func (r *StructuredReply) Len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// Field returns the value at records[index][key].
func (r *StructuredReply) Field(index int, key string) (string, bool) {
	if r == nil || index < 0 || index >= len(r.records) {
		return "", false
	}
	v, ok := r.records[index][key]
	return v, ok
}

// Lookup is Field with an ErrTypeFieldAbsent error instead of a bool.
func (r *StructuredReply) Lookup(index int, key string) (string, error) {
	v, ok := r.Field(index, key)
	if !ok {
		return "", NewFieldAbsentError(index, key)
	}
	return v, nil
}

// Records returns a copy of all records.
func (r *StructuredReply) Records() []Record {
	if r == nil {
		return nil
	}
	out := make([]Record, len(r.records))
	for i, rec := range r.records {
		cp := make(Record, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

// Raw returns the reply body as received, without terminator.
func (r *StructuredReply) Raw() []byte {
	if r == nil {
		return nil
	}
	return bytes.Clone(r.raw)
}
