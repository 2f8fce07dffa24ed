// Package interactive provides the interactive ADCP shell for adcpctl.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/muurk/adcpctl/internal/adcp"
)

// Session is the part of *adcp.Session the shell drives.
type Session interface {
	adcp.Commander
	Connect(ctx context.Context) error
	Close() error
	State() adcp.State
	Address() string
}

// Shell runs a read-eval-print loop over one projector session.
type Shell struct {
	sess    Session
	catalog *adcp.Catalog
	out     io.Writer
	rl      *readline.Instance
}

// New creates a shell reading from the terminal.
func New(sess Session) (*Shell, error) {
	catalog := adcp.DefaultCatalog()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "adcp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(catalog),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := newShell(sess, rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(sess Session, out io.Writer) *Shell {
	return &Shell{
		sess:    sess,
		catalog: adcp.DefaultCatalog(),
		out:     out,
	}
}

func completer(c *adcp.Catalog) readline.AutoCompleter {
	names := make([]readline.PrefixCompleterInterface, 0, c.Len())
	for _, name := range c.Names() {
		names = append(names, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("status"),
		readline.PcItem("commands"),
		readline.PcItem("send", names...),
		readline.PcItem("get"),
		readline.PcItem("set"),
		readline.PcItem("raw"),
		readline.PcItem("state"),
		readline.PcItem("reconnect"),
		readline.PcItem("quit"),
	)
}

// Stdout returns a writer that coordinates with the readline prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run reads commands until quit, EOF or ctx is canceled.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	fmt.Fprintf(s.out, "Connected to %s. Type 'help' for commands.\n", s.sess.Address())

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}

		if s.Execute(ctx, line) {
			return
		}
	}
}

// Execute runs one input line and reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) (quit bool) {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "status", "st":
		s.cmdStatus(ctx)

	case "commands", "list", "ls":
		fmt.Fprint(s.out, s.catalog.FormatTable())

	case "send":
		s.cmdSend(ctx, args)

	case "get":
		s.cmdGet(ctx, args)

	case "set":
		s.cmdSet(ctx, args)

	case "raw":
		s.cmdRaw(ctx, input)

	case "state":
		fmt.Fprintf(s.out, "%s (%s)\n", s.sess.State(), s.sess.Address())

	case "reconnect":
		s.cmdReconnect(ctx)

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true

	default:
		if c, ok := s.catalog.Lookup(cmd); ok && len(args) == 0 {
			s.send(ctx, c)
			return false
		}
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
ADCP Shell Commands:
  Reading:
    status             - Read model, serial, timers, firmware, input and power
    commands           - List the built-in commands
    state              - Show the session state

  Sending:
    send <name>        - Send a built-in command (or just type its name)
    get <verb>         - Send "<verb> ?"
    set <verb> <value> - Send "<verb> "<value>""
    raw <line>         - Send a line exactly as typed

  Session:
    reconnect          - Close and reconnect
    quit               - Exit the shell`)
}

func (s *Shell) cmdStatus(ctx context.Context) {
	st, err := adcp.ReadStatus(ctx, s.sess)
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Fprint(s.out, st.FormatDetailed())
}

func (s *Shell) cmdSend(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: send <name>")
		return
	}
	c, ok := s.catalog.Lookup(args[0])
	if !ok {
		fmt.Fprintf(s.out, "Unknown command name: %s (type 'commands' for the list)\n", args[0])
		return
	}
	s.send(ctx, c)
}

func (s *Shell) cmdGet(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: get <verb>")
		return
	}
	c, err := adcp.QueryCommand(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.send(ctx, c)
}

func (s *Shell) cmdSet(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: set <verb> <value>")
		return
	}
	c, err := adcp.SetCommand(args[0], strings.Join(args[1:], " "))
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.send(ctx, c)
}

// cmdRaw sends everything after the keyword, keeping inner spacing.
func (s *Shell) cmdRaw(ctx context.Context, input string) {
	_, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		fmt.Fprintln(s.out, "Usage: raw <line>")
		return
	}
	c, err := adcp.ParseCommand(rest)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.send(ctx, c)
}

func (s *Shell) cmdReconnect(ctx context.Context) {
	if err := s.sess.Close(); err != nil {
		fmt.Fprintf(s.out, "Close: %v\n", err)
	}
	if err := s.sess.Connect(ctx); err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintf(s.out, "Reconnected to %s\n", s.sess.Address())
}

func (s *Shell) send(ctx context.Context, c adcp.Command) {
	reply, err := s.sess.Send(ctx, c)
	if err != nil {
		s.printError(err)
		return
	}
	if rerr := adcp.ReplyError(reply); rerr != nil {
		fmt.Fprintf(s.out, "%s  (%v)\n", reply, rerr)
		return
	}
	fmt.Fprintln(s.out, reply.String())
}

func (s *Shell) printError(err error) {
	fmt.Fprintf(s.out, "Error: %s\n", adcp.ShortMessage(err))
	if s.sess.State() != adcp.StateReady {
		fmt.Fprintln(s.out, "The session is no longer connected; type 'reconnect' to try again.")
	}
}
