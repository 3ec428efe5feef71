package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	speech := "espeak-ng {text}"

	return Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8080",
		},
		Camera: CameraConfig{Device: "auto"},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Speech: SpeechConfig{
			Enable: true,
			Cmd:    CommandConfig{Raw: speech, Argv: mustParseArgv(speech)},
			GapMS:  400,
			Cues:   true,
		},
		Cache: CacheConfig{TTLHours: 24},
		Server: ServerConfig{
			Addr:  ":8080",
			Store: StoreMemory,
		},
		Gemini: GeminiConfig{
			Backend:   GeminiBackendAPI,
			Model:     "gemini-2.5-flash",
			APIKeyEnv: "GEMINI_API_KEY",
			Location:  "us-central1",
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
