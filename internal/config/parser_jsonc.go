package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	API       *jsoncAPI       `json:"api"`
	Interview *jsoncInterview `json:"interview"`
	Camera    *jsoncCamera    `json:"camera"`
	Audio     *jsoncAudio     `json:"audio"`
	Speech    *jsoncSpeech    `json:"speech"`
	Cache     *jsoncCache     `json:"cache"`
	Server    *jsoncServer    `json:"server"`
	Gemini    *jsoncGemini    `json:"gemini"`
	Live      *jsoncLive      `json:"live"`
	Log       *jsoncLog       `json:"log"`
	Debug     *jsoncDebug     `json:"debug"`
}

type jsoncAPI struct {
	BaseURL   *string `json:"base_url"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncInterview struct {
	Email *string `json:"email"`
	JobID *string `json:"job_id"`
}

type jsoncCamera struct {
	Device     *string `json:"device"`
	PreviewCmd *string `json:"preview_cmd"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncSpeech struct {
	Enable *bool   `json:"enable"`
	Cmd    *string `json:"cmd"`
	GapMS  *int    `json:"gap_ms"`
	Cues   *bool   `json:"cues"`
}

type jsoncCache struct {
	Dir      *string `json:"dir"`
	TTLHours *int    `json:"ttl_hours"`
}

type jsoncServer struct {
	Addr             *string          `json:"addr"`
	CORSOrigins      *jsoncStringList `json:"cors_origins"`
	Store            *string          `json:"store"`
	SeedFile         *string          `json:"seed_file"`
	FirestoreProject *string          `json:"firestore_project"`
	ArchiveBucket    *string          `json:"archive_bucket"`
}

type jsoncGemini struct {
	Backend   *string `json:"backend"`
	Model     *string `json:"model"`
	APIKeyEnv *string `json:"api_key_env"`
	Project   *string `json:"project"`
	Location  *string `json:"location"`
}

type jsoncLive struct {
	Enable *bool `json:"enable"`
}

type jsoncLog struct {
	MaxSizeMB  *int `json:"max_size_mb"`
	MaxBackups *int `json:"max_backups"`
	MaxAgeDays *int `json:"max_age_days"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func parseCommand(key string, raw *string) (CommandConfig, error) {
	argv, err := parseArgv(*raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return CommandConfig{Raw: *raw, Argv: argv}, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if p := payload.API; p != nil {
		setString(&cfg.API.BaseURL, p.BaseURL)
		setInt(&cfg.API.TimeoutMS, p.TimeoutMS)
	}

	if p := payload.Interview; p != nil {
		setString(&cfg.Interview.Email, p.Email)
		setString(&cfg.Interview.JobID, p.JobID)
	}

	if p := payload.Camera; p != nil {
		setString(&cfg.Camera.Device, p.Device)
		if p.PreviewCmd != nil {
			cmd, err := parseCommand("camera.preview_cmd", p.PreviewCmd)
			if err != nil {
				return err
			}
			cfg.Camera.Preview = cmd
		}
	}

	if p := payload.Audio; p != nil {
		if p.Input != nil {
			cfg.Audio.Input = *p.Input
		}
		if p.Fallback != nil {
			cfg.Audio.Fallback = *p.Fallback
		}
	}

	if p := payload.Speech; p != nil {
		setBool(&cfg.Speech.Enable, p.Enable)
		setInt(&cfg.Speech.GapMS, p.GapMS)
		setBool(&cfg.Speech.Cues, p.Cues)
		if p.Cmd != nil {
			cmd, err := parseCommand("speech.cmd", p.Cmd)
			if err != nil {
				return err
			}
			cfg.Speech.Cmd = cmd
		}
	}

	if p := payload.Cache; p != nil {
		setString(&cfg.Cache.Dir, p.Dir)
		setInt(&cfg.Cache.TTLHours, p.TTLHours)
	}

	if p := payload.Server; p != nil {
		setString(&cfg.Server.Addr, p.Addr)
		if p.CORSOrigins != nil {
			cfg.Server.CORSOrigins = append([]string(nil), (*p.CORSOrigins)...)
		}
		if p.Store != nil {
			cfg.Server.Store = strings.ToLower(strings.TrimSpace(*p.Store))
		}
		setString(&cfg.Server.SeedFile, p.SeedFile)
		setString(&cfg.Server.FirestoreProject, p.FirestoreProject)
		setString(&cfg.Server.ArchiveBucket, p.ArchiveBucket)
	}

	if p := payload.Gemini; p != nil {
		if p.Backend != nil {
			cfg.Gemini.Backend = strings.ToLower(strings.TrimSpace(*p.Backend))
		}
		setString(&cfg.Gemini.Model, p.Model)
		setString(&cfg.Gemini.APIKeyEnv, p.APIKeyEnv)
		setString(&cfg.Gemini.Project, p.Project)
		setString(&cfg.Gemini.Location, p.Location)
	}

	if p := payload.Live; p != nil {
		setBool(&cfg.Live.Enable, p.Enable)
	}

	if p := payload.Log; p != nil {
		setInt(&cfg.Log.MaxSizeMB, p.MaxSizeMB)
		setInt(&cfg.Log.MaxBackups, p.MaxBackups)
		setInt(&cfg.Log.MaxAgeDays, p.MaxAgeDays)
	}

	if p := payload.Debug; p != nil {
		setBool(&cfg.Debug.EnableAudioDump, p.AudioDump)
	}

	return nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
