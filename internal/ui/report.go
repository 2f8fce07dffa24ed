package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/adcpctl/internal/adcp"
)

const absentValue = "—"

func valueOr(v string) string {
	if v == "" {
		return absentValue
	}
	return v
}

// StatusFields returns the status as ordered detail lines
func StatusFields(st *adcp.Status) []Field {
	fields := []Field{
		F("Model", valueOr(st.ModelName)),
		F("Serial", valueOr(st.SerialNumber)),
		F("Power", valueOr(st.PowerStatus)),
		F("Input", valueOr(st.Input)),
		F("Operation hours", valueOr(st.OperationTime)),
		F("Light source hrs", valueOr(st.LightSourceTime)),
		F("Main ROM", valueOr(st.MainROM)),
		F("NVM ROM", valueOr(st.NVMROM)),
		F("Sub ROM", valueOr(st.SubROM)),
	}
	if st.ExtROM != "" {
		fields = append(fields, F("Ext ROM", st.ExtROM))
	}
	return fields
}

// RenderStatus renders a boxed status report. Warnings collected while
// reading the status are listed under the fields.
func RenderStatus(st *adcp.Status, width int) string {
	width = clampWidth(width)
	fields := StatusFields(st)
	if st.PowerStatus != "" {
		fields[2].Value = PowerStyle(st.PowerStatus).Render(st.PowerStatus)
	}

	sections := []struct {
		title  string
		fields []Field
	}{
		{"Projector", fields[:4]},
		{"Timers", fields[4:6]},
		{"Firmware", fields[6:]},
	}

	var lines []string
	for _, s := range sections {
		lines = append(lines, "", SectionTitleStyle.Render("   "+s.title))
		lines = append(lines, renderFields(s.fields)...)
	}

	if len(st.Warnings) > 0 {
		lines = append(lines, "", WarningTitleStyle.Render("   "+WarningMarker+"  Warnings"))
		for _, w := range st.Warnings {
			lines = append(lines, TroubleshootingItemStyle.Render("     • "+w))
		}
	}
	lines = append(lines, "")

	return ResultBoxStyle(width, PrimaryColor).Render(strings.Join(lines, "\n"))
}

// RenderCatalog renders the command catalog grouped by category
func RenderCatalog(c *adcp.Catalog, width int) string {
	width = clampWidth(width)

	nameStyle := lipgloss.NewStyle().Foreground(TextColor).Width(18)
	var lines []string
	for _, cat := range []adcp.Category{adcp.CategoryQuery, adcp.CategoryPower, adcp.CategoryKey, adcp.CategoryInput} {
		cmds := c.ByCategory(cat)
		if len(cmds) == 0 {
			continue
		}
		lines = append(lines, "", SectionTitleStyle.Render("   "+strings.ToUpper(string(cat))))
		for _, cmd := range cmds {
			lines = append(lines, "     "+nameStyle.Render(cmd.Name())+StepNoteStyle.Render(cmd.Line()))
		}
	}
	lines = append(lines, "")

	return ResultBoxStyle(width, PrimaryColor).Render(strings.Join(lines, "\n"))
}
