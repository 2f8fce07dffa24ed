package adcp

import (
	"fmt"
	"strings"
)

const notReported = "(not reported)"

func orAbsent(v string) string {
	if v == "" {
		return notReported
	}
	return v
}

// Summary returns a one-line summary of the projector status
func (st *Status) Summary() string {
	return fmt.Sprintf("%s #%s (power: %s, input: %s)",
		orAbsent(st.ModelName), orAbsent(st.SerialNumber),
		orAbsent(st.PowerStatus), orAbsent(st.Input))
}

// FormatIdentity returns the model and serial number section
func (st *Status) FormatIdentity() string {
	var b strings.Builder

	b.WriteString("=== Projector ===\n")
	b.WriteString(fmt.Sprintf("Model Name:    %s\n", orAbsent(st.ModelName)))
	b.WriteString(fmt.Sprintf("Serial Number: %s\n", orAbsent(st.SerialNumber)))
	b.WriteString(fmt.Sprintf("Power Status:  %s\n", orAbsent(st.PowerStatus)))
	b.WriteString(fmt.Sprintf("Input:         %s\n", orAbsent(st.Input)))

	return b.String()
}

// FormatTimers returns the operating hours section
func (st *Status) FormatTimers() string {
	var b strings.Builder

	b.WriteString("=== Timers (hours) ===\n")
	b.WriteString(fmt.Sprintf("Operation:    %s\n", orAbsent(st.OperationTime)))
	b.WriteString(fmt.Sprintf("Light Source: %s\n", orAbsent(st.LightSourceTime)))

	return b.String()
}

// FormatFirmware returns the ROM versions section. The external ROM
// line is only shown when the device reported one.
func (st *Status) FormatFirmware() string {
	var b strings.Builder

	b.WriteString("=== Firmware ===\n")
	b.WriteString(fmt.Sprintf("Main ROM: %s\n", orAbsent(st.MainROM)))
	b.WriteString(fmt.Sprintf("NVM ROM:  %s\n", orAbsent(st.NVMROM)))
	b.WriteString(fmt.Sprintf("Sub ROM:  %s\n", orAbsent(st.SubROM)))
	if st.ExtROM != "" {
		b.WriteString(fmt.Sprintf("Ext ROM:  %s\n", st.ExtROM))
	}

	return b.String()
}

// FormatCompact returns a compact multi-line format suitable for terminal display
func (st *Status) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Projector: %s (serial %s)\n", orAbsent(st.ModelName), orAbsent(st.SerialNumber)))
	b.WriteString(fmt.Sprintf("Power:     %s  Input: %s\n", orAbsent(st.PowerStatus), orAbsent(st.Input)))
	b.WriteString(fmt.Sprintf("Hours:     operation %s, light source %s\n", orAbsent(st.OperationTime), orAbsent(st.LightSourceTime)))
	roms := []string{"main " + orAbsent(st.MainROM), "nvm " + orAbsent(st.NVMROM), "sub " + orAbsent(st.SubROM)}
	if st.ExtROM != "" {
		roms = append(roms, "ext "+st.ExtROM)
	}
	b.WriteString(fmt.Sprintf("Firmware:  %s\n", strings.Join(roms, ", ")))

	return b.String()
}

// FormatDetailed returns every section plus any warnings collected while
// the status was read.
func (st *Status) FormatDetailed() string {
	var b strings.Builder

	b.WriteString(st.FormatIdentity())
	b.WriteString("\n")
	b.WriteString(st.FormatTimers())
	b.WriteString("\n")
	b.WriteString(st.FormatFirmware())

	if len(st.Warnings) > 0 {
		b.WriteString("\n=== Warnings ===\n")
		for _, w := range st.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}

	return b.String()
}

// FormatTable returns the catalog as a name / wire line table grouped by
// category.
func (c *Catalog) FormatTable() string {
	var b strings.Builder

	for i, cat := range []Category{CategoryQuery, CategoryPower, CategoryKey, CategoryInput} {
		cmds := c.ByCategory(cat)
		if len(cmds) == 0 {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("=== %s ===\n", strings.ToUpper(string(cat))))
		for _, cmd := range cmds {
			b.WriteString(fmt.Sprintf("  %-15s %s\n", cmd.Name(), cmd.Line()))
		}
	}

	return b.String()
}
