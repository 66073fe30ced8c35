package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:     "info",
			DefaultModel: "gemini",
		},
		Server: ServerConfig{
			Host:       "127.0.0.1",
			Port:       3002,
			CORSOrigin: "*",
		},
		Database: DatabaseConfig{
			Path: "~/.webloom/webloom.db",
		},
		Auth: AuthConfig{
			JWTSecret:    "${WEBLOOM_JWT_SECRET:-webloom-dev-secret}",
			TokenTTLDays: 7,
		},
		Models: map[string]ModelConfig{
			"gemini": {
				Enabled: true,
				APIKey:  "${GEMINI_API_KEY:-}",
				Model:   "gemini-2.5-flash",
			},
			"ollama": {
				Enabled: false,
				APIBase: "http://localhost:11434",
				Model:   "llama3.1:8b",
			},
		},
		Answer: AnswerConfig{
			SearchLimit:            10,
			RecentFallbackLimit:    5,
			SnippetLength:          200,
			ContextPreviewLength:   1000,
			GenerateTimeoutSeconds: 30,
		},
		Capture: CaptureConfig{
			MaxContentLength: 50000,
			ProfileDir:       "~/.webloom/chrome-profile",
			Headless:         true,
		},
		Telegram: TelegramConfig{
			Enabled: false,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "/metrics",
		},
	}
}
