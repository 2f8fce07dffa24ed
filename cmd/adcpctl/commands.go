package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/adcpctl/internal/adcp"
	"github.com/muurk/adcpctl/internal/config"
	"github.com/muurk/adcpctl/internal/ui"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(rawCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(inputCmd)
	rootCmd.AddCommand(commandsCmd)
}

// statusSteps names the queries ReadStatus sends, in order
var statusSteps = []string{
	"Model name",
	"Serial number",
	"Timers",
	"Firmware versions",
	"Input",
	"Power status",
}

// statusCmd reads the projector's identification and state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read the projector status",
	Long: `Read model name, serial number, operating hours, firmware versions,
current input and power status.

Queries the projector does not support are reported as absent rather
than failing the whole read.`,
	Example: `  # Detailed status report
  adcpctl status --host 192.168.1.50

  # Machine-readable output
  adcpctl status --host 192.168.1.50 --format json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true
	ctx := cmd.Context()
	p := ui.NewPrinter(cmd.OutOrStdout())

	if settings.Format != config.FormatDetailed {
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		st, err := adcp.ReadStatus(ctx, sess)
		if err != nil {
			return err
		}
		return writeStatus(p.Out(), settings.Format, st)
	}

	var st *adcp.Status
	runner := ui.NewRunner(ui.RunnerConfig{
		Title:     "Projector Status",
		Command:   "adcpctl status",
		Params:    connectionParams(),
		StepNames: statusSteps,
		Output:    p.Out(),
	})
	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Field, error) {
		sess, err := openSession(ctx)
		if err != nil {
			return nil, err
		}
		defer sess.Close()

		st, err = adcp.ReadStatus(ctx, &ui.StepCommander{Next: sess, OnStep: onStep})
		if err != nil {
			return nil, err
		}
		details := []ui.Field{ui.F("Projector", st.Summary())}
		if len(st.Absent) > 0 {
			details = append(details, ui.F("Not reported", strings.Join(st.Absent, ", ")))
		}
		return details, nil
	})
	if err != nil {
		return err
	}

	p.Newline()
	p.Show(ui.RenderStatus(st, p.Width()))
	return nil
}

// writeStatus prints a status in the compact or json format
func writeStatus(w io.Writer, format config.Format, st *adcp.Status) error {
	if format == config.FormatJSON {
		return writeJSON(w, st)
	}
	_, err := fmt.Fprint(w, st.FormatCompact())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// sendCmd sends a catalog command by name
var sendCmd = &cobra.Command{
	Use:   "send <name>",
	Short: "Send a named command from the catalog",
	Long: `Send one command from the built-in catalog and print the reply.

Run 'adcpctl commands' to list the available names.`,
	Example: `  adcpctl send power_status
  adcpctl send key_menu`,
	Args: cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return adcp.DefaultCatalog().Names(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ok := adcp.DefaultCatalog().Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown command %q (run 'adcpctl commands' for the list)", args[0])
		}
		return runOne(cmd, args, "Send "+c.Name(), c)
	},
}

// rawCmd sends an arbitrary line
var rawCmd = &cobra.Command{
	Use:   "raw <line>",
	Short: "Send an arbitrary ADCP line",
	Long: `Send a line exactly as given (the CRLF terminator is added) and print
the reply. Useful for commands that are not in the catalog.`,
	Example: `  adcpctl raw 'picture_mode ?'
  adcpctl raw 'blank "on"'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := adcp.ParseCommand(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return runOne(cmd, args, "Raw command", c)
	},
}

// getCmd queries a setting
var getCmd = &cobra.Command{
	Use:   "get <verb>",
	Short: "Query a value (sends '<verb> ?')",
	Example: `  adcpctl get power_status
  adcpctl get timer`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := adcp.QueryCommand(args[0])
		if err != nil {
			return err
		}
		return runOne(cmd, args, "Query "+args[0], c)
	},
}

// setCmd sets a value
var setCmd = &cobra.Command{
	Use:   "set <verb> <value>",
	Short: "Set a value (sends '<verb> \"<value>\"')",
	Example: `  adcpctl set picture_mode cinema_film1
  adcpctl set blank on`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := adcp.SetCommand(args[0], args[1])
		if err != nil {
			return err
		}
		return runOne(cmd, args, "Set "+args[0], c)
	},
}

// keyCmd presses a remote control key
var keyCmd = &cobra.Command{
	Use:   "key <name>",
	Short: "Press a remote control key",
	Long: `Press a remote control key: ` + strings.Join(keyNames(), ", ") + `.

Navigation keys are refused while the projector is in standby.`,
	Example: `  adcpctl key menu
  adcpctl key down`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: keyNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := keyCommand(args[0])
		if err != nil {
			return err
		}
		return runOne(cmd, args, "Key "+args[0], c)
	},
}

// inputCmd selects an input
var inputCmd = &cobra.Command{
	Use:       "input <a|b|c|d|network>",
	Short:     "Select an input",
	ValidArgs: []string{"a", "b", "c", "d", "network"},
	Args:      cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := inputCommand(args[0])
		if err != nil {
			return err
		}
		return runOne(cmd, args, "Input "+args[0], c)
	},
}

// keyNames lists the key command names without their "key_" prefix
func keyNames() []string {
	var names []string
	for _, c := range adcp.DefaultCatalog().ByCategory(adcp.CategoryKey) {
		names = append(names, strings.TrimPrefix(c.Name(), "key_"))
	}
	sort.Strings(names)
	return names
}

// keyCommand maps a key name ("menu" or "key_menu") to its catalog command
func keyCommand(name string) (adcp.Command, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range adcp.DefaultCatalog().ByCategory(adcp.CategoryKey) {
		if c.Name() == name || c.Name() == "key_"+name {
			return c, nil
		}
	}
	return adcp.Command{}, fmt.Errorf("unknown key %q (want one of %s)", name, strings.Join(keyNames(), ", "))
}

// inputCommand maps an input target to its catalog command
func inputCommand(target string) (adcp.Command, error) {
	switch t := strings.ToLower(strings.TrimSpace(target)); t {
	case "a", "b", "c", "d":
		c, _ := adcp.DefaultCatalog().Lookup("input_" + t)
		return c, nil
	case "network", "net":
		return adcp.InputNet, nil
	}
	return adcp.Command{}, fmt.Errorf("unknown input %q (want a, b, c, d or network)", target)
}

// replyReport is the json form of one command and its reply
type replyReport struct {
	Command     string        `json:"command"`
	Line        string        `json:"line"`
	Reply       string        `json:"reply"`
	Records     []adcp.Record `json:"records,omitempty"`
	Error       string        `json:"error,omitempty"`
	DecodeError string        `json:"decode_error,omitempty"`
}

func newReplyReport(c adcp.Command, reply adcp.RawLine) replyReport {
	r := replyReport{Command: c.Name(), Line: c.Line(), Reply: reply.String()}
	if err := adcp.ReplyError(reply); err != nil {
		r.Error = err.Error()
		return r
	}
	if adcp.IsStructured(reply) {
		sr, err := adcp.DecodeStructured(reply)
		if err != nil {
			r.DecodeError = err.Error()
			return r
		}
		r.Records = sr.Records()
	}
	return r
}

// replyFields turns a reply into result box lines. Structured replies get
// one line per field.
func replyFields(reply adcp.RawLine) []ui.Field {
	if !adcp.IsStructured(reply) {
		return []ui.Field{ui.F("Reply", reply.Text())}
	}
	sr, err := adcp.DecodeStructured(reply)
	if err != nil {
		return []ui.Field{ui.F("Reply", reply.String()), ui.F("Warning", err.Error())}
	}

	var fields []ui.Field
	for i, rec := range sr.Records() {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, ui.F(fmt.Sprintf("[%d] %s", i, k), rec[k]))
		}
	}
	if len(fields) == 0 {
		fields = append(fields, ui.F("Reply", "(empty list)"))
	}
	return fields
}

// runOne connects, sends a single command and prints the reply. Device
// error replies are returned as errors so the exit status is non-zero.
func runOne(cmd *cobra.Command, args []string, title string, c adcp.Command) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()
	p := ui.NewPrinter(cmd.OutOrStdout())

	send := func(ctx context.Context) (adcp.RawLine, error) {
		sess, err := openSession(ctx)
		if err != nil {
			return nil, err
		}
		defer sess.Close()
		return sess.Send(ctx, c)
	}

	switch settings.Format {
	case config.FormatJSON:
		reply, err := send(ctx)
		if err != nil {
			return err
		}
		if err := writeJSON(p.Out(), newReplyReport(c, reply)); err != nil {
			return err
		}
		return adcp.ReplyError(reply)
	case config.FormatCompact:
		reply, err := send(ctx)
		if err != nil {
			return err
		}
		p.Println(reply.String())
		return adcp.ReplyError(reply)
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   title,
		Command: strings.TrimSpace(cmd.CommandPath() + " " + strings.Join(args, " ")),
		Params:  append(connectionParams(), ui.F("Line", c.Line())),
		Output:  p.Out(),
	})
	return runner.Run(ctx, func(ctx context.Context, _ ui.StepCallback) ([]ui.Field, error) {
		reply, err := send(ctx)
		if err != nil {
			return nil, err
		}
		if err := adcp.ReplyError(reply); err != nil {
			return []ui.Field{ui.F("Reply", reply.String())}, err
		}
		return replyFields(reply), nil
	})
}

// commandsCmd lists the catalog
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the built-in command catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeCatalog(ui.NewPrinter(cmd.OutOrStdout()), settings.Format, adcp.DefaultCatalog())
	},
}

type catalogEntry struct {
	Name     string `json:"name"`
	Line     string `json:"line"`
	Category string `json:"category"`
}

func writeCatalog(p *ui.Printer, format config.Format, c *adcp.Catalog) error {
	switch format {
	case config.FormatJSON:
		entries := make([]catalogEntry, 0, c.Len())
		for _, e := range c.Entries() {
			entries = append(entries, catalogEntry{Name: e.Command.Name(), Line: e.Command.Line(), Category: string(e.Category)})
		}
		return writeJSON(p.Out(), entries)
	case config.FormatCompact:
		p.Print(c.FormatTable())
		return nil
	}
	p.Show(ui.RenderCatalog(c, p.Width()))
	return nil
}
