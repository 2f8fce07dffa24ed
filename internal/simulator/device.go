package simulator

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/muurk/adcpctl/internal/adcp"
)

// Device replies used by the simulator.
const (
	ReplyOK       = "ok"
	ReplyErrCmd   = "err_cmd"
	ReplyErrVal   = "err_val"
	ReplyErrOff   = "err_inactive"
	ReplyErrAuth  = "err_auth"
	PowerStandby  = "standby"
	PowerOn       = "on"
	DefaultModel  = "VPL-XW5000"
	DefaultSerial = "1234567"
	DefaultInput  = "hdmi1"
)

var navigationKeys = map[string]bool{
	"menu": true, "return": true, "up": true, "down": true, "left": true,
	"right": true, "enter": true, "blank": true, "muting": true, "pattern": true,
}

var inputKeys = map[string]string{
	"input_a": "hdmi1",
	"input_b": "hdmi2",
	"input_c": "hdmi3",
	"input_d": "hdmi4",
}

// Device is the emulated projector state shared by all connections.
type Device struct {
	mu sync.Mutex

	model          string
	serial         string
	power          string
	input          string
	operationHours int
	lightHours     int
	versions       []map[string]string
	overrides      map[string]string
}

// NewDevice creates a projector in standby.
func NewDevice(cfg Config) *Device {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	serial := cfg.Serial
	if serial == "" {
		serial = DefaultSerial
	}
	versions := []map[string]string{
		{"main": "1.10"},
		{"main_data": "1.02"},
		{"sub": "1.00"},
	}
	if cfg.ExtROM != "" {
		versions = append(versions, map[string]string{"ext": cfg.ExtROM})
	}
	overrides := make(map[string]string, len(cfg.Replies))
	for k, v := range cfg.Replies {
		overrides[k] = v
	}
	return &Device{
		model:          model,
		serial:         serial,
		power:          PowerStandby,
		input:          DefaultInput,
		operationHours: 1234,
		lightHours:     567,
		versions:       versions,
		overrides:      overrides,
	}
}

// Handle returns the reply line (without terminator) for one command line.
func (d *Device) Handle(line string) string {
	line = strings.TrimSpace(line)

	d.mu.Lock()
	defer d.mu.Unlock()

	if reply, ok := d.overrides[line]; ok {
		return reply
	}

	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	query := arg == "?"
	value := adcp.Unquote(arg)

	switch verb {
	case "modelname":
		return d.queryOnly(query, strconv.Quote(d.model))
	case "serialnum":
		return d.queryOnly(query, strconv.Quote(d.serial))
	case "power_status":
		return d.queryOnly(query, strconv.Quote(d.power))
	case "timer":
		return d.queryOnly(query, mustJSON([]map[string]string{
			{"operation": strconv.Itoa(d.operationHours)},
			{"light_src": strconv.Itoa(d.lightHours)},
		}))
	case "version":
		return d.queryOnly(query, mustJSON(d.versions))
	case "power":
		return d.setPower(value)
	case "input":
		if query {
			return strconv.Quote(d.input)
		}
		if value != "network" {
			return ReplyErrVal
		}
		return d.switchInput(value)
	case "key":
		if target, ok := inputKeys[value]; ok {
			return d.switchInput(target)
		}
		if !navigationKeys[value] {
			return ReplyErrVal
		}
		if d.power != PowerOn {
			return ReplyErrOff
		}
		return ReplyOK
	}
	return ReplyErrCmd
}

func (d *Device) queryOnly(query bool, reply string) string {
	if !query {
		return ReplyErrCmd
	}
	return reply
}

func (d *Device) setPower(value string) string {
	switch value {
	case "on":
		d.power = PowerOn
	case "off":
		d.power = PowerStandby
	default:
		return ReplyErrVal
	}
	return ReplyOK
}

func (d *Device) switchInput(target string) string {
	if d.power != PowerOn {
		return ReplyErrOff
	}
	d.input = target
	return ReplyOK
}

// Power returns the current power state.
func (d *Device) Power() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.power
}

// Input returns the current input.
func (d *Device) Input() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.input
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
