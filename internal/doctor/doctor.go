// Package doctor runs readiness diagnostics for config, speech, capture devices, and the API.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/intervu/internal/apiclient"
	"github.com/rbright/intervu/internal/audio"
	"github.com/rbright/intervu/internal/capture"
	"github.com/rbright/intervu/internal/config"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	message := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		message = fmt.Sprintf("using defaults (%q not found)", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: message})

	if cfg.Config.Speech.Enable {
		checks = append(checks, checkCommand(cfg.Config.Speech.Cmd.Argv, "speech.cmd"))
	}
	if len(cfg.Config.Camera.Preview.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.Camera.Preview.Argv, "camera.preview_cmd"))
	}

	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkCamera(cfg.Config))
	checks = append(checks, checkAPIHealth(cfg.Config))

	return Report{Checks: checks}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkCamera opens and immediately releases the configured video device.
func checkCamera(cfg config.Config) Check {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	stream, err := capture.V4L2Camera{Device: cfg.Camera.Device}.Open(ctx)
	if err != nil {
		return Check{Name: "camera.device", Pass: false, Message: err.Error()}
	}
	defer func() { _ = stream.Close() }()
	return Check{Name: "camera.device", Pass: true, Message: fmt.Sprintf("opened %s", stream.Device())}
}

// checkAPIHealth probes the collaborator API health endpoint.
func checkAPIHealth(cfg config.Config) Check {
	client, err := apiclient.New(cfg.API.BaseURL, probeTimeout)
	if err != nil {
		return Check{Name: "api.health", Pass: false, Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		return Check{Name: "api.health", Pass: false, Message: err.Error()}
	}
	return Check{Name: "api.health", Pass: true, Message: fmt.Sprintf("ok at %s", client.BaseURL())}
}
