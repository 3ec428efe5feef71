package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	base := strings.TrimSpace(cfg.API.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("api.base_url must not be empty")
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api.base_url must be an http(s) URL")
	}
	if cfg.API.TimeoutMS < 0 {
		return nil, fmt.Errorf("api.timeout_ms must be >= 0")
	}

	if cfg.Speech.GapMS < 0 {
		return nil, fmt.Errorf("speech.gap_ms must be >= 0")
	}
	if cfg.Speech.Enable && len(cfg.Speech.Cmd.Argv) == 0 {
		return nil, fmt.Errorf("speech.cmd must not be empty when speech.enable=true")
	}
	if cfg.Camera.Preview.Raw != "" && len(cfg.Camera.Preview.Argv) == 0 {
		return nil, fmt.Errorf("camera.preview_cmd is configured but empty")
	}

	if cfg.Cache.TTLHours < 0 {
		return nil, fmt.Errorf("cache.ttl_hours must be >= 0")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return nil, fmt.Errorf("server.addr must not be empty")
	}
	switch cfg.Server.Store {
	case StoreMemory:
	case StoreFirestore:
		if strings.TrimSpace(cfg.Server.FirestoreProject) == "" {
			warnings = append(warnings, Warning{Message: "server.firestore_project is empty; GOOGLE_CLOUD_PROJECT will be used"})
		}
	default:
		return nil, fmt.Errorf("server.store must be one of: %s, %s", StoreMemory, StoreFirestore)
	}

	switch cfg.Gemini.Backend {
	case GeminiBackendAPI:
		if strings.TrimSpace(cfg.Gemini.APIKeyEnv) == "" {
			return nil, fmt.Errorf("gemini.api_key_env must not be empty when gemini.backend=%s", GeminiBackendAPI)
		}
	case GeminiBackendVertex:
		if strings.TrimSpace(cfg.Gemini.Project) == "" {
			return nil, fmt.Errorf("gemini.project must not be empty when gemini.backend=%s", GeminiBackendVertex)
		}
	default:
		return nil, fmt.Errorf("gemini.backend must be one of: %s, %s", GeminiBackendAPI, GeminiBackendVertex)
	}
	if strings.TrimSpace(cfg.Gemini.Model) == "" {
		return nil, fmt.Errorf("gemini.model must not be empty")
	}

	if cfg.Log.MaxSizeMB <= 0 {
		return nil, fmt.Errorf("log.max_size_mb must be > 0")
	}
	if cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		return nil, fmt.Errorf("log.max_backups and log.max_age_days must be >= 0")
	}

	if strings.TrimSpace(cfg.Interview.Email) == "" {
		warnings = append(warnings, Warning{Message: "interview.email is empty; the default (N/A) question set will be used unless --email is given"})
	}

	return warnings, nil
}
