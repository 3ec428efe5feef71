package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const textPlaceholder = "{text}"

// CommandSpeaker runs an external synthesizer (espeak-ng, piper, spd-say) per line.
// Argv may contain a {text} placeholder; otherwise the text is written to stdin.
type CommandSpeaker struct {
	Argv []string
}

// NewCommandSpeaker constructs a speaker from a parsed command line.
func NewCommandSpeaker(argv []string) *CommandSpeaker {
	return &CommandSpeaker{Argv: append([]string(nil), argv...)}
}

// Speak blocks until the synthesizer exits. Cancelling ctx kills the process.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	argv, stdin := expandArgv(s.Argv, text)
	err := runCommandWithInput(ctx, argv, stdin)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func expandArgv(argv []string, text string) ([]string, string) {
	out := make([]string, len(argv))
	substituted := false
	for i, arg := range argv {
		if strings.Contains(arg, textPlaceholder) {
			arg = strings.ReplaceAll(arg, textPlaceholder, text)
			substituted = true
		}
		out[i] = arg
	}
	if substituted {
		return out, ""
	}
	return out, text
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return errors.New("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
