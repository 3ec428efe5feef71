package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandStart   Command = "start"
	CommandRetry   Command = "retry"
	CommandRecord  Command = "record"
	CommandStop    Command = "stop"
	CommandSubmit  Command = "submit"
	CommandSkip    Command = "skip"
	CommandToggle  Command = "toggle"
	CommandStatus  Command = "status"
	CommandResults Command = "results"
	CommandExport  Command = "export"
	CommandServe   Command = "serve"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandStart:   {},
	CommandRetry:   {},
	CommandRecord:  {},
	CommandStop:    {},
	CommandSubmit:  {},
	CommandSkip:    {},
	CommandToggle:  {},
	CommandStatus:  {},
	CommandResults: {},
	CommandExport:  {},
	CommandServe:   {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// Forwarded reports whether cmd is relayed to a running owner over IPC.
func (c Command) Forwarded() bool {
	switch c {
	case CommandStart, CommandRetry, CommandRecord, CommandStop, CommandSubmit, CommandSkip, CommandToggle, CommandStatus:
		return true
	default:
		return false
	}
}

type Parsed struct {
	Command    Command
	ConfigPath string
	Email      string
	JobID      string
	Out        string
	Addr       string
	ShowHelp   bool
}

// commandFlags lists the value flags each command accepts after its name.
var commandFlags = map[Command][]string{
	CommandRun:     {"--email", "--job"},
	CommandResults: {"--email"},
	CommandExport:  {"--email", "--out"},
	CommandServe:   {"--addr"},
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	seenCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
			return parsed, nil
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			if seenCommand {
				return Parsed{}, fmt.Errorf("--config must come before command %q", parsed.Command)
			}
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--email", "--job", "--out", "--addr":
			if !seenCommand || !accepts(parsed.Command, arg) {
				return Parsed{}, fmt.Errorf("flag %s is not valid for command %q", arg, parsed.Command)
			}
			i++
			if i >= len(args) || strings.TrimSpace(args[i]) == "" {
				return Parsed{}, fmt.Errorf("%s requires a value", arg)
			}
			assign(&parsed, arg, strings.TrimSpace(args[i]))
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}
			if seenCommand {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			seenCommand = true
		}
	}

	if parsed.Command == CommandExport && parsed.Out == "" {
		return Parsed{}, errors.New("export requires --out FILE")
	}

	return parsed, nil
}

func accepts(cmd Command, flag string) bool {
	for _, f := range commandFlags[cmd] {
		if f == flag {
			return true
		}
	}
	return false
}

func assign(parsed *Parsed, flag, value string) {
	switch flag {
	case "--email":
		parsed.Email = value
	case "--job":
		parsed.JobID = value
	case "--out":
		parsed.Out = value
	case "--addr":
		parsed.Addr = value
	}
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [flags]

Session:
  run       Start an interview session (--email E, --job ID)
  start     Begin the interview once the camera is ready
  retry     Retry camera and microphone setup
  record    Start recording an answer
  stop      Stop recording and transcribe
  submit    Submit the transcribed answer
  skip      Skip the current question
  toggle    Record, stop, or submit depending on state
  status    Print current state and progress

Results:
  results   List recent result summaries (--email E)
  export    Write result summaries to a workbook (--email E --out FILE)

Service:
  serve     Run the interview HTTP API (--addr :8080)

Other:
  devices   List audio inputs and video devices
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/intervu/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
