package adcp

import (
	"strings"
	"testing"
)

func getSampleStatus() *Status {
	return &Status{
		ModelName:       "VPL-XW5000",
		SerialNumber:    "1234567",
		OperationTime:   "1234",
		LightSourceTime: "567",
		MainROM:         "1.10",
		NVMROM:          "1.02",
		SubROM:          "1.00",
		Input:           "HDMI1",
		PowerStatus:     "STANDBY",
	}
}

func TestStatus_Summary(t *testing.T) {
	summary := getSampleStatus().Summary()

	for _, part := range []string{"VPL-XW5000", "1234567", "STANDBY", "HDMI1"} {
		if !strings.Contains(summary, part) {
			t.Errorf("Summary() missing %q: %s", part, summary)
		}
	}
	if strings.Contains(summary, "\n") {
		t.Error("Summary() should be a single line")
	}
}

func TestStatus_FormatFirmware(t *testing.T) {
	st := getSampleStatus()

	if strings.Contains(st.FormatFirmware(), "Ext ROM") {
		t.Error("FormatFirmware() should omit Ext ROM when not reported")
	}

	st.ExtROM = "0.90"
	if !strings.Contains(st.FormatFirmware(), "Ext ROM:  0.90") {
		t.Error("FormatFirmware() should show Ext ROM when reported")
	}
}

func TestStatus_FormatCompact(t *testing.T) {
	compact := getSampleStatus().FormatCompact()

	lines := strings.Split(strings.TrimSpace(compact), "\n")
	if len(lines) != 4 {
		t.Errorf("FormatCompact() should have 4 lines, got %d", len(lines))
	}

	for _, part := range []string{"VPL-XW5000", "1234567", "operation 1234", "light source 567", "main 1.10"} {
		if !strings.Contains(compact, part) {
			t.Errorf("FormatCompact() missing expected part: %s", part)
		}
	}
}

func TestStatus_FormatDetailed(t *testing.T) {
	st := getSampleStatus()
	st.SerialNumber = ""
	st.Warnings = []string{"serialnum: device replied err_cmd"}
	detailed := st.FormatDetailed()

	for _, section := range []string{"=== Projector ===", "=== Timers (hours) ===", "=== Firmware ===", "=== Warnings ==="} {
		if !strings.Contains(detailed, section) {
			t.Errorf("FormatDetailed() missing section: %s", section)
		}
	}
	if !strings.Contains(detailed, "Serial Number: (not reported)") {
		t.Error("FormatDetailed() should mark absent fields")
	}
	if !strings.Contains(detailed, "err_cmd") {
		t.Error("FormatDetailed() should list warnings")
	}
}

func TestCatalog_FormatTable(t *testing.T) {
	table := DefaultCatalog().FormatTable()

	for _, want := range []string{"=== QUERY ===", "=== POWER ===", "=== KEY ===", "=== INPUT ===", `power "on"`, "modelname ?"} {
		if !strings.Contains(table, want) {
			t.Errorf("FormatTable() missing %q", want)
		}
	}

	// Query section comes first.
	if strings.Index(table, "QUERY") > strings.Index(table, "POWER") {
		t.Error("FormatTable() should list queries before power commands")
	}
}
