package adcp

import (
	"fmt"
	"sort"
	"strings"
)

// LineTerminator ends every line in both directions.
const LineTerminator = "\r\n"

// Command is a named, immutable ADCP command. Its wire form always ends
// with exactly one CRLF and carries no other CR or LF.
type Command struct {
	name string
	wire string
}

// NewCommand validates line (without terminator) and returns a command
// named name.
func NewCommand(name, line string) (Command, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Command{}, fmt.Errorf("%w: empty name", ErrInvalidCommand)
	}
	if strings.TrimSpace(line) == "" {
		return Command{}, fmt.Errorf("%w: %s: empty command line", ErrInvalidCommand, name)
	}
	if strings.ContainsAny(line, "\r\n") {
		return Command{}, fmt.Errorf("%w: %s: line break inside command", ErrInvalidCommand, name)
	}
	return Command{name: name, wire: line + LineTerminator}, nil
}

func mustCommand(name, line string) Command {
	c, err := NewCommand(name, line)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the catalog name of the command.
func (c Command) Name() string { return c.name }

// Line returns the command text without terminator.
func (c Command) Line() string { return strings.TrimSuffix(c.wire, LineTerminator) }

// Wire returns a fresh copy of the exact bytes written to the device.
func (c Command) Wire() []byte { return []byte(c.wire) }

// IsZero reports whether c is the zero Command.
func (c Command) IsZero() bool { return c.wire == "" }

func (c Command) String() string { return c.name }

// ParseCommand builds an ad-hoc command from raw user input. A trailing
// line break is accepted and normalized; the first word becomes the name.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty command line", ErrInvalidCommand)
	}
	return NewCommand(fields[0], line)
}

// QueryCommand builds `<verb> ?`.
func QueryCommand(verb string) (Command, error) {
	if err := checkVerb(verb); err != nil {
		return Command{}, err
	}
	return NewCommand(verb, verb+" ?")
}

// SetCommand builds `<verb> "<value>"`.
func SetCommand(verb, value string) (Command, error) {
	if err := checkVerb(verb); err != nil {
		return Command{}, err
	}
	if strings.ContainsAny(value, "\"\r\n") {
		return Command{}, fmt.Errorf("%w: value %q contains a quote or line break", ErrInvalidCommand, value)
	}
	return NewCommand(verb, fmt.Sprintf("%s %q", verb, value))
}

func checkVerb(verb string) error {
	if verb == "" || strings.ContainsAny(verb, " \t\r\n\"") {
		return fmt.Errorf("%w: bad verb %q", ErrInvalidCommand, verb)
	}
	return nil
}

// Catalog command names.
const (
	CmdModelName   = "modelname"
	CmdSerialNum   = "serialnum"
	CmdTimer       = "timer"
	CmdPowerStatus = "power_status"
	CmdInputStatus = "input_status"
	CmdVersion     = "version"
	CmdPowerOn     = "power_on"
	CmdPowerOff    = "power_off"
	CmdKeyMenu     = "key_menu"
	CmdKeyReturn   = "key_return"
	CmdKeyUp       = "key_up"
	CmdKeyDown     = "key_down"
	CmdKeyLeft     = "key_left"
	CmdKeyRight    = "key_right"
	CmdKeyEnter    = "key_enter"
	CmdBlank       = "blank"
	CmdMuting      = "muting"
	CmdPattern     = "pattern"
	CmdInputA      = "input_a"
	CmdInputB      = "input_b"
	CmdInputC      = "input_c"
	CmdInputD      = "input_d"
	CmdInputNet    = "input_network"
)

// Predefined commands.
var (
	ModelName   = mustCommand(CmdModelName, "modelname ?")
	SerialNum   = mustCommand(CmdSerialNum, "serialnum ?")
	Timer       = mustCommand(CmdTimer, "timer ?")
	PowerStatus = mustCommand(CmdPowerStatus, "power_status ?")
	InputStatus = mustCommand(CmdInputStatus, "input ?")
	Version     = mustCommand(CmdVersion, "version ?")

	PowerOn  = mustCommand(CmdPowerOn, `power "on"`)
	PowerOff = mustCommand(CmdPowerOff, `power "off"`)

	KeyMenu   = mustCommand(CmdKeyMenu, `key "menu"`)
	KeyReturn = mustCommand(CmdKeyReturn, `key "return"`)
	KeyUp     = mustCommand(CmdKeyUp, `key "up"`)
	KeyDown   = mustCommand(CmdKeyDown, `key "down"`)
	KeyLeft   = mustCommand(CmdKeyLeft, `key "left"`)
	KeyRight  = mustCommand(CmdKeyRight, `key "right"`)
	KeyEnter  = mustCommand(CmdKeyEnter, `key "enter"`)
	Blank     = mustCommand(CmdBlank, `key "blank"`)
	Muting    = mustCommand(CmdMuting, `key "muting"`)
	Pattern   = mustCommand(CmdPattern, `key "pattern"`)

	InputA   = mustCommand(CmdInputA, `key "input_a"`)
	InputB   = mustCommand(CmdInputB, `key "input_b"`)
	InputC   = mustCommand(CmdInputC, `key "input_c"`)
	InputD   = mustCommand(CmdInputD, `key "input_d"`)
	InputNet = mustCommand(CmdInputNet, `input "network"`)
)

// Category groups catalog entries for display.
type Category string

const (
	CategoryQuery Category = "query"
	CategoryPower Category = "power"
	CategoryKey   Category = "key"
	CategoryInput Category = "input"
)

// Entry is a catalog command with its display category.
type Entry struct {
	Command  Command
	Category Category
}

// Catalog is a read-only name index of commands. It is validated when built
// and safe for concurrent reads.
type Catalog struct {
	entries map[string]Entry
	names   []string
}

// NewCatalog validates entries and indexes them by name.
func NewCatalog(entries ...Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Command.IsZero() {
			return nil, fmt.Errorf("%w: zero command in catalog", ErrInvalidCommand)
		}
		// Re-validate in case the entry was built by hand.
		if _, err := NewCommand(e.Command.name, e.Command.Line()); err != nil {
			return nil, err
		}
		key := strings.ToLower(e.Command.name)
		if _, dup := c.entries[key]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidCommand, e.Command.name)
		}
		c.entries[key] = e
		c.names = append(c.names, key)
	}
	return c, nil
}

// Lookup finds a command by name, case-insensitively.
func (c *Catalog) Lookup(name string) (Command, bool) {
	e, ok := c.entries[strings.ToLower(strings.TrimSpace(name))]
	return e.Command, ok
}

// Names returns the command names in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Entries returns all entries in declaration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.entries[n])
	}
	return out
}

// ByCategory returns the commands of one category, sorted by name.
func (c *Catalog) ByCategory(cat Category) []Command {
	var out []Command
	for _, n := range c.names {
		if e := c.entries[n]; e.Category == cat {
			out = append(out, e.Command)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Len returns the number of commands.
func (c *Catalog) Len() int { return len(c.names) }

var defaultCatalog = mustCatalog(
	Entry{ModelName, CategoryQuery},
	Entry{SerialNum, CategoryQuery},
	Entry{Timer, CategoryQuery},
	Entry{PowerStatus, CategoryQuery},
	Entry{InputStatus, CategoryQuery},
	Entry{Version, CategoryQuery},
	Entry{PowerOn, CategoryPower},
	Entry{PowerOff, CategoryPower},
	Entry{KeyMenu, CategoryKey},
	Entry{KeyReturn, CategoryKey},
	Entry{KeyUp, CategoryKey},
	Entry{KeyDown, CategoryKey},
	Entry{KeyLeft, CategoryKey},
	Entry{KeyRight, CategoryKey},
	Entry{KeyEnter, CategoryKey},
	Entry{Blank, CategoryKey},
	Entry{Muting, CategoryKey},
	Entry{Pattern, CategoryKey},
	Entry{InputA, CategoryInput},
	Entry{InputB, CategoryInput},
	Entry{InputC, CategoryInput},
	Entry{InputD, CategoryInput},
	Entry{InputNet, CategoryInput},
)

func mustCatalog(entries ...Entry) *Catalog {
	c, err := NewCatalog(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the built-in command table.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}
