package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseValidConfig(t *testing.T) {
	input := `
{
  // collaborator API
  "api": {"base_url": "https://intervu.example.com", "timeout_ms": 15000},
  "interview": {"email": "ada@example.com", "job_id": "sre-42"},
  "camera": {"device": "/dev/video2", "preview_cmd": "ffplay -loglevel quiet {device}"},
  "audio": {"input": "Elgato Wave", "fallback": "default"},
  "speech": {"cmd": "spd-say --wait {text}", "gap_ms": 250, "cues": false},
  "cache": {"ttl_hours": 0},
  "live": {"enable": true},
  "debug": {"audio_dump": true},
}
`

	cfg, warnings, err := Parse(input, Default())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if cfg.API.BaseURL != "https://intervu.example.com" {
		t.Fatalf("unexpected api.base_url: %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 15*time.Second {
		t.Fatalf("unexpected api timeout: %s", cfg.API.Timeout())
	}
	if cfg.Interview.Email != "ada@example.com" || cfg.Interview.JobID != "sre-42" {
		t.Fatalf("unexpected interview section: %+v", cfg.Interview)
	}
	if got := strings.Join(cfg.Camera.Preview.Argv, "|"); got != "ffplay|-loglevel|quiet|{device}" {
		t.Fatalf("unexpected preview argv: %s", got)
	}
	if cfg.Audio.Input != "Elgato Wave" {
		t.Fatalf("unexpected audio.input: %s", cfg.Audio.Input)
	}
	if cfg.Speech.Gap() != 250*time.Millisecond || cfg.Speech.Cues {
		t.Fatalf("unexpected speech section: %+v", cfg.Speech)
	}
	if cfg.Cache.TTL() != 0 {
		t.Fatalf("expected disabled cache ttl, got %s", cfg.Cache.TTL())
	}
	if !cfg.Live.Enable || !cfg.Debug.EnableAudioDump {
		t.Fatalf("expected live and audio dump enabled")
	}
}

func TestParseEmptyContentUsesBase(t *testing.T) {
	cfg, _, err := Parse("  \n", Default())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.API.BaseURL != Default().API.BaseURL {
		t.Fatalf("expected default base url, got %s", cfg.API.BaseURL)
	}
}

func TestParseUnknownKeyFails(t *testing.T) {
	_, _, err := Parse(`{"recorder": {"bitrate": 64}}`, Default())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseRejectsNonObject(t *testing.T) {
	_, _, err := Parse("api.base_url = http://x", Default())
	if err == nil || !strings.Contains(err.Error(), "JSONC object") {
		t.Fatalf("expected JSONC object error, got %v", err)
	}
}

func TestParseValidationErrorSurfaces(t *testing.T) {
	_, _, err := Parse(`{"server": {"store": "postgres"}}`, Default())
	if err == nil || !strings.Contains(err.Error(), "server.store") {
		t.Fatalf("expected server.store error, got %v", err)
	}
}
