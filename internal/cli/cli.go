package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandToggle  Command = "toggle"
	CommandStop    Command = "stop"
	CommandCancel  Command = "cancel"
	CommandStatus  Command = "status"
	CommandHistory Command = "history"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandToggle:  {},
	CommandStop:    {},
	CommandCancel:  {},
	CommandStatus:  {},
	CommandHistory: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// Parsed is the result of parsing command-line arguments.
type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool

	// Output is set by --output for toggle/stop, overriding the daemon's
	// configured default delivery method for this turn only.
	Output string
	// Limit is set by --limit for history; nil means "use the daemon's
	// default".
	Limit *int
}

// Parse interprets argv. --config must precede the command (it names the
// config file the doctor command loads); --output and
// --limit are command-specific and are read only after the command token.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	commandSeen := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			if commandSeen {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
			}
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--output":
			if !commandSeen {
				return Parsed{}, errors.New("--output must follow a command")
			}
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--output requires a value")
			}
			parsed.Output = args[i]
		case "--limit":
			if !commandSeen {
				return Parsed{}, errors.New("--limit must follow a command")
			}
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--limit requires a value")
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return Parsed{}, fmt.Errorf("--limit must be an integer: %w", err)
			}
			parsed.Limit = &n
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}
			if commandSeen {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			commandSeen = true
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [flags]

Commands:
  toggle    Start recording or stop+commit when already recording
  stop      Stop active recording and commit transcript
  cancel    Cancel active recording and discard transcript
  status    Print current state
  history   Print recent completed transcriptions
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH     Config file path (default: $XDG_CONFIG_HOME/speak-anywhere/config.yaml)
  --output METHOD   Override output delivery for toggle/stop (clipboard, type)
  --limit N         Limit history results (default: 10)
  -h, --help        Show help
  --version         Show version
`, binaryName)
}
