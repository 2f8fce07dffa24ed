package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/adcpctl/internal/adcp"
	"github.com/muurk/adcpctl/internal/config"
	"github.com/muurk/adcpctl/internal/ui"
)

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	s := config.DefaultSettings()
	s.Host = "from-profile"
	s.Port = 1234

	f := rootFlags{host: "from-flag", port: 9999, settle: 250 * time.Millisecond}
	require.NoError(t, applyFlags(&s, changedSet("settle"), f))

	assert.Equal(t, "from-profile", s.Host)
	assert.Equal(t, 1234, s.Port)
	assert.Equal(t, 250*time.Millisecond, s.SettleInterval)
}

func TestApplyFlagsTimeoutSetsAllThree(t *testing.T) {
	s := config.DefaultSettings()

	require.NoError(t, applyFlags(&s, changedSet("timeout"), rootFlags{timeout: 2 * time.Second}))
	assert.Equal(t, 2*time.Second, s.ConnectTimeout)
	assert.Equal(t, 2*time.Second, s.ReadTimeout)
	assert.Equal(t, 2*time.Second, s.WriteTimeout)

	assert.Error(t, applyFlags(&s, changedSet("timeout"), rootFlags{timeout: 0}))
}

func TestApplyFlagsPasswordAndFormat(t *testing.T) {
	s := config.DefaultSettings()

	f := rootFlags{password: "Projector1", format: "JSON", interval: time.Second, retries: 5}
	require.NoError(t, applyFlags(&s, changedSet("password", "format", "interval", "retries"), f))

	assert.Equal(t, "Projector1", string(s.Secret.Reveal()))
	assert.Equal(t, config.FormatJSON, s.Format)
	assert.Equal(t, time.Second, s.CommandInterval)
	assert.Equal(t, 5, s.Retries)

	err := applyFlags(&s, changedSet("format"), rootFlags{format: "xml"})
	assert.Error(t, err)
}

func TestKeyCommand(t *testing.T) {
	c, err := keyCommand("menu")
	require.NoError(t, err)
	assert.Equal(t, adcp.KeyMenu.Line(), c.Line())

	c, err = keyCommand("KEY_UP")
	require.NoError(t, err)
	assert.Equal(t, adcp.KeyUp.Line(), c.Line())

	c, err = keyCommand("blank")
	require.NoError(t, err)
	assert.Equal(t, adcp.Blank.Line(), c.Line())

	_, err = keyCommand("power_on")
	assert.Error(t, err, "non-key catalog entries are not keys")
}

func TestKeyNamesSorted(t *testing.T) {
	names := keyNames()
	assert.Contains(t, names, "menu")
	assert.Contains(t, names, "pattern")
	assert.IsNonDecreasing(t, names)
}

func TestInputCommand(t *testing.T) {
	tests := []struct {
		target string
		line   string
	}{
		{"a", `key "input_a"`},
		{"D", `key "input_d"`},
		{"network", `input "network"`},
		{"net", `input "network"`},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			c, err := inputCommand(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.line, c.Line())
		})
	}

	_, err := inputCommand("hdmi9")
	assert.Error(t, err)
}

func TestReplyFields(t *testing.T) {
	fields := replyFields(adcp.RawLine(`"VPL-XW5000"`))
	assert.Equal(t, []ui.Field{ui.F("Reply", "VPL-XW5000")}, fields)

	fields = replyFields(adcp.RawLine(`[{"operation":"12","extra":"x"},{"light_src":"3"}]`))
	assert.Equal(t, []ui.Field{
		ui.F("[0] extra", "x"),
		ui.F("[0] operation", "12"),
		ui.F("[1] light_src", "3"),
	}, fields)

	fields = replyFields(adcp.RawLine(`[]`))
	assert.Equal(t, []ui.Field{ui.F("Reply", "(empty list)")}, fields)

	fields = replyFields(adcp.RawLine(`[{"operation"`))
	require.Len(t, fields, 2)
	assert.Equal(t, "Warning", fields[1].Key)
}

func TestNewReplyReport(t *testing.T) {
	r := newReplyReport(adcp.Timer, adcp.RawLine(`[{"operation":"12"}]`))
	assert.Equal(t, "timer", r.Command)
	assert.Equal(t, "timer ?", r.Line)
	require.Len(t, r.Records, 1)
	assert.Equal(t, "12", r.Records[0]["operation"])
	assert.Empty(t, r.Error)

	r = newReplyReport(adcp.PowerOn, adcp.RawLine("err_inactive"))
	assert.Contains(t, r.Error, "err_inactive")
	assert.Nil(t, r.Records)

	r = newReplyReport(adcp.Version, adcp.RawLine("[nope"))
	assert.NotEmpty(t, r.DecodeError)
}

func TestWriteStatus(t *testing.T) {
	st := &adcp.Status{ModelName: "VPL-XW5000", SerialNumber: "1234567", PowerStatus: "standby"}

	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, config.FormatJSON, st))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "VPL-XW5000", decoded["model_name"])

	buf.Reset()
	require.NoError(t, writeStatus(&buf, config.FormatCompact, st))
	assert.Contains(t, buf.String(), "VPL-XW5000")
}

func TestWriteCatalogJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCatalog(ui.NewPrinter(&buf), config.FormatJSON, adcp.DefaultCatalog()))

	var entries []catalogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	assert.Len(t, entries, adcp.DefaultCatalog().Len())
	assert.Equal(t, catalogEntry{Name: "modelname", Line: "modelname ?", Category: "query"}, entries[0])
}

func TestWriteCatalogCompact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCatalog(ui.NewPrinter(&buf), config.FormatCompact, adcp.DefaultCatalog()))
	assert.Contains(t, buf.String(), "=== INPUT ===")
	assert.Contains(t, buf.String(), `input "network"`)
}

func TestShowSettingsHidesPassword(t *testing.T) {
	s := config.DefaultSettings()
	s.Host = "10.0.0.5"
	s.Secret = adcp.NewSecret("hunter2")

	var buf bytes.Buffer
	require.NoError(t, showSettings(&buf, s, config.NewRegistry(), "yaml"))
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "# password: set (not shown)")
	assert.Contains(t, buf.String(), "host: 10.0.0.5")

	buf.Reset()
	require.NoError(t, showSettings(&buf, s, nil, "toml"))
	assert.Contains(t, buf.String(), `host = "10.0.0.5"`)
	assert.Contains(t, buf.String(), "# saved profiles: (none)")

	assert.Error(t, showSettings(&buf, s, nil, "ini"))
}

func TestTeardownWipesPassword(t *testing.T) {
	saved := settings
	defer func() { settings = saved }()

	settings.Secret = adcp.NewSecret("Projector1")
	raw := settings.Secret.Reveal()

	teardown()

	assert.True(t, settings.Secret.IsZero())
	assert.Equal(t, make([]byte, len(raw)), raw)
}
