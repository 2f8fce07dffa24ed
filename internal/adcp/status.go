package adcp

import (
	"context"
	"fmt"
	"strings"
)

// Commander is the part of Session that ReadStatus needs.
type Commander interface {
	Send(ctx context.Context, cmd Command) (RawLine, error)
}

// Status is a snapshot of the projector's identification and state.
// Fields the device did not report are empty and named in Absent.
type Status struct {
	ModelName       string `json:"model_name,omitempty" yaml:"model_name,omitempty"`
	SerialNumber    string `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	OperationTime   string `json:"operation_time,omitempty" yaml:"operation_time,omitempty"`
	LightSourceTime string `json:"light_source_time,omitempty" yaml:"light_source_time,omitempty"`
	MainROM         string `json:"main_rom,omitempty" yaml:"main_rom,omitempty"`
	NVMROM          string `json:"nvm_rom,omitempty" yaml:"nvm_rom,omitempty"`
	SubROM          string `json:"sub_rom,omitempty" yaml:"sub_rom,omitempty"`
	ExtROM          string `json:"ext_rom,omitempty" yaml:"ext_rom,omitempty"`
	Input           string `json:"input,omitempty" yaml:"input,omitempty"`
	PowerStatus     string `json:"power_status,omitempty" yaml:"power_status,omitempty"`

	Absent   []string `json:"absent,omitempty" yaml:"absent,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Status field names, as used in Absent.
const (
	FieldModelName       = "model_name"
	FieldSerialNumber    = "serial_number"
	FieldOperationTime   = "operation_time"
	FieldLightSourceTime = "light_source_time"
	FieldMainROM         = "main_rom"
	FieldNVMROM          = "nvm_rom"
	FieldSubROM          = "sub_rom"
	FieldExtROM          = "ext_rom"
	FieldInput           = "input"
	FieldPowerStatus     = "power_status"
)

type structuredField struct {
	index int
	key   string
	name  string
	set   func(*Status, string)
}

var timerFields = []structuredField{
	{0, "operation", FieldOperationTime, func(st *Status, v string) { st.OperationTime = v }},
	{1, "light_src", FieldLightSourceTime, func(st *Status, v string) { st.LightSourceTime = v }},
}

var versionFields = []structuredField{
	{0, "main", FieldMainROM, func(st *Status, v string) { st.MainROM = v }},
	{1, "main_data", FieldNVMROM, func(st *Status, v string) { st.NVMROM = v }},
	{2, "sub", FieldSubROM, func(st *Status, v string) { st.SubROM = v }},
	{3, "ext", FieldExtROM, func(st *Status, v string) { st.ExtROM = v }},
}

// ReadStatus runs the status query sequence: model, serial, timers,
// firmware versions, input, power. Device refusals, malformed replies and
// missing fields become Absent/Warnings entries; any other error aborts
// and is returned together with what was collected so far.
func ReadStatus(ctx context.Context, c Commander) (*Status, error) {
	st := &Status{}

	plain := func(cmd Command, name string, set func(string)) error {
		line, err := c.Send(ctx, cmd)
		if err != nil {
			return err
		}
		if derr := ReplyError(line); derr != nil {
			st.absent(name)
			st.warn("%s: %v", cmd.Name(), derr)
			return nil
		}
		set(line.Text())
		return nil
	}

	structured := func(cmd Command, fields []structuredField) error {
		line, err := c.Send(ctx, cmd)
		if err != nil {
			return err
		}
		absentAll := func() {
			for _, f := range fields {
				st.absent(f.name)
			}
		}
		if derr := ReplyError(line); derr != nil {
			absentAll()
			st.warn("%s: %v", cmd.Name(), derr)
			return nil
		}
		reply, err := DecodeStructured(line)
		if err != nil {
			absentAll()
			st.warn("%s: %v", cmd.Name(), err)
			return nil
		}
		for _, f := range fields {
			v, ok := reply.Field(f.index, f.key)
			if !ok {
				st.absent(f.name)
				continue
			}
			f.set(st, v)
		}
		return nil
	}

	steps := []func() error{
		func() error { return plain(ModelName, FieldModelName, func(v string) { st.ModelName = v }) },
		func() error { return plain(SerialNum, FieldSerialNumber, func(v string) { st.SerialNumber = v }) },
		func() error { return structured(Timer, timerFields) },
		func() error { return structured(Version, versionFields) },
		func() error { return plain(InputStatus, FieldInput, func(v string) { st.Input = strings.ToUpper(v) }) },
		func() error {
			return plain(PowerStatus, FieldPowerStatus, func(v string) { st.PowerStatus = strings.ToUpper(v) })
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return st, err
		}
	}
	return st, nil
}

func (st *Status) absent(name string) {
	st.Absent = append(st.Absent, name)
}

func (st *Status) warn(format string, args ...any) {
	st.Warnings = append(st.Warnings, fmt.Sprintf(format, args...))
}

// IsAbsent reports whether the named field was not reported.
func (st *Status) IsAbsent(name string) bool {
	for _, n := range st.Absent {
		if n == name {
			return true
		}
	}
	return false
}
