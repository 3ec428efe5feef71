// Package config resolves, parses, validates, and defaults intervu configuration.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the fully materialized runtime configuration used by intervu.
type Config struct {
	API       APIConfig
	Interview InterviewConfig
	Camera    CameraConfig
	Audio     AudioConfig
	Speech    SpeechConfig
	Cache     CacheConfig
	Server    ServerConfig
	Gemini    GeminiConfig
	Live      LiveConfig
	Log       LogConfig
	Debug     DebugConfig
}

// APIConfig locates the collaborator HTTP API.
type APIConfig struct {
	BaseURL   string
	TimeoutMS int
}

// Timeout is zero (unbounded) unless timeout_ms is set.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// InterviewConfig holds defaults for `intervu run`.
type InterviewConfig struct {
	Email string
	JobID string
}

// CameraConfig selects the video device and optional preview command.
type CameraConfig struct {
	Device  string
	Preview CommandConfig
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// SpeechConfig controls interviewer voice output and recording cues.
type SpeechConfig struct {
	Enable bool
	Cmd    CommandConfig
	GapMS  int
	Cues   bool
}

func (c SpeechConfig) Gap() time.Duration {
	return time.Duration(c.GapMS) * time.Millisecond
}

// CacheConfig controls the local single-slot result cache.
type CacheConfig struct {
	Dir      string
	TTLHours int
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

const (
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
)

// ServerConfig controls `intervu serve`.
type ServerConfig struct {
	Addr             string
	CORSOrigins      []string
	Store            string
	SeedFile         string
	FirestoreProject string
	ArchiveBucket    string
}

// Project falls back to GOOGLE_CLOUD_PROJECT when firestore_project is unset.
func (c ServerConfig) Project() string {
	if p := strings.TrimSpace(c.FirestoreProject); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT"))
}

const (
	GeminiBackendAPI    = "gemini_api"
	GeminiBackendVertex = "vertex_ai"
)

// GeminiConfig selects the scoring/transcription model. Secrets are read from the named env var.
type GeminiConfig struct {
	Backend   string
	Model     string
	APIKeyEnv string
	Project   string
	Location  string
}

func (c GeminiConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.APIKeyEnv))
}

// LiveConfig toggles streaming session events to the API's live hub.
type LiveConfig struct {
	Enable bool
}

// LogConfig controls log file rotation.
type LogConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
