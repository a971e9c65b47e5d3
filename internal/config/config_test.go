package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadFromTOML(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 8000
api_token = "file-token"

[listener]
keywords = ["chicken nugget", "chicken nuggets"]
buffer_seconds = 4.0
mic_sample_rate = 16000
detection_cooldown_seconds = 15.0
silence_threshold = 0.001

[transcription]
openai_api_key = "sk-test"
model = "gpt-4o-mini-transcribe"

[notify]
api_base = "http://localhost:8000"
api_token = "file-token"
to_number = "+15551234567"

[logging]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Listener.Keywords) != 2 {
		t.Errorf("Expected 2 keywords, got %d", len(cfg.Listener.Keywords))
	}
	if cfg.Listener.SilenceThreshold != 0.001 {
		t.Errorf("Expected silence threshold 0.001, got %f", cfg.Listener.SilenceThreshold)
	}
	if cfg.Notify.ToNumber != "+15551234567" {
		t.Errorf("Expected to_number +15551234567, got %s", cfg.Notify.ToNumber)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfigFile(t, `
[listener]
keywords = ["from file"]
detection_cooldown_seconds = 15.0

[notify]
to_number = "+15550000000"
`)

	t.Setenv("KEYWORDS", "chicken nugget, chicken nuggets")
	t.Setenv("DETECTION_COOLDOWN_SECONDS", "30")
	t.Setenv("TO_NUMBER", "+15551234567")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Listener.Keywords) != 2 || cfg.Listener.Keywords[0] != "chicken nugget" {
		t.Errorf("Expected KEYWORDS env to override file, got %v", cfg.Listener.Keywords)
	}
	if cfg.Listener.CooldownSeconds != 30 {
		t.Errorf("Expected cooldown 30 from env, got %f", cfg.Listener.CooldownSeconds)
	}
	if cfg.Notify.ToNumber != "+15551234567" {
		t.Errorf("Expected TO_NUMBER env to override file, got %s", cfg.Notify.ToNumber)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("KEYWORDS", "chicken nugget")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SMS_API_BASE", "http://localhost:8000")
	t.Setenv("API_TOKEN", "secret")
	t.Setenv("TO_NUMBER", "+15551234567")
	t.Setenv("SILENCE_THRESHOLD", "0.002")

	cfg := FromEnv()

	if cfg.Transcription.OpenAIAPIKey != "sk-test" {
		t.Errorf("Expected OPENAI_API_KEY sk-test, got %s", cfg.Transcription.OpenAIAPIKey)
	}
	if cfg.Notify.APIToken != "secret" || cfg.Server.APIToken != "secret" {
		t.Errorf("Expected API_TOKEN to apply to both notify and server, got %q / %q",
			cfg.Notify.APIToken, cfg.Server.APIToken)
	}
	if cfg.Listener.SilenceThreshold != 0.002 {
		t.Errorf("Expected silence threshold 0.002, got %f", cfg.Listener.SilenceThreshold)
	}

	if err := cfg.ValidateListener(); err != nil {
		t.Errorf("Expected env-only config to validate for the listener: %v", err)
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple list",
			input:    "chicken nugget,chicken nuggets",
			expected: []string{"chicken nugget", "chicken nuggets"},
		},
		{
			name:     "whitespace trimmed",
			input:    " chicken nugget ,  nuggets ",
			expected: []string{"chicken nugget", "nuggets"},
		},
		{
			name:     "empty entries dropped",
			input:    "nugget,,  ,fries",
			expected: []string{"nugget", "fries"},
		},
		{
			name:     "single phrase",
			input:    "chicken nugget",
			expected: []string{"chicken nugget"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitKeywords(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Expected %v, got %v", tt.expected, got)
					break
				}
			}
		})
	}
}

func validListenerConfig() *Config {
	cfg := &Config{}
	cfg.Listener.Keywords = []string{"chicken nugget"}
	cfg.Transcription.OpenAIAPIKey = "sk-test"
	cfg.Notify.APIBase = "http://localhost:8000"
	cfg.Notify.APIToken = "secret"
	cfg.Notify.ToNumber = "+15551234567"
	return cfg
}

func TestValidateListenerDefaults(t *testing.T) {
	cfg := validListenerConfig()

	if err := cfg.ValidateListener(); err != nil {
		t.Fatalf("Expected valid config, got: %v", err)
	}

	if cfg.Listener.BufferSeconds != 4 {
		t.Errorf("Expected default buffer 4s, got %f", cfg.Listener.BufferSeconds)
	}
	if cfg.Listener.SampleRate != 16000 {
		t.Errorf("Expected default sample rate 16000, got %d", cfg.Listener.SampleRate)
	}
	if cfg.Listener.CooldownSeconds != 15 {
		t.Errorf("Expected default cooldown 15s, got %f", cfg.Listener.CooldownSeconds)
	}
	if cfg.Transcription.Model != "gpt-4o-mini-transcribe" {
		t.Errorf("Expected default model gpt-4o-mini-transcribe, got %s", cfg.Transcription.Model)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("Expected default logging info/console, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestValidateListenerErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{
			name:   "no keywords",
			mutate: func(c *Config) { c.Listener.Keywords = nil },
			errSub: "keyword",
		},
		{
			name:   "negative cooldown",
			mutate: func(c *Config) { c.Listener.CooldownSeconds = -1 },
			errSub: "detection_cooldown_seconds",
		},
		{
			name:   "silence threshold out of range",
			mutate: func(c *Config) { c.Listener.SilenceThreshold = 1.5 },
			errSub: "silence_threshold",
		},
		{
			name:   "missing openai key",
			mutate: func(c *Config) { c.Transcription.OpenAIAPIKey = "" },
			errSub: "OPENAI_API_KEY",
		},
		{
			name:   "missing api base",
			mutate: func(c *Config) { c.Notify.APIBase = "" },
			errSub: "api_base",
		},
		{
			name:   "missing api token",
			mutate: func(c *Config) { c.Notify.APIToken = "" },
			errSub: "API_TOKEN",
		},
		{
			name:   "missing destination number",
			mutate: func(c *Config) { c.Notify.ToNumber = "" },
			errSub: "TO_NUMBER",
		},
		{
			name:   "invalid log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			errSub: "log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validListenerConfig()
			tt.mutate(cfg)
			err := cfg.ValidateListener()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.errSub, err)
			}
		})
	}
}

func validGatewayConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8000
	cfg.SMS.AccountSID = "AC00000000000000000000000000000000"
	cfg.SMS.AuthToken = "token"
	cfg.SMS.MessagingServiceSID = "MG00000000000000000000000000000000"
	return cfg
}

func TestValidateGatewayDefaults(t *testing.T) {
	cfg := validGatewayConfig()

	if err := cfg.ValidateGateway(); err != nil {
		t.Fatalf("Expected valid config, got: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Storage.SQLitePath != "earshot.db" {
		t.Errorf("Expected default sqlite path earshot.db, got %s", cfg.Storage.SQLitePath)
	}
	if cfg.Storage.MaxMessagesInAPI != 100 {
		t.Errorf("Expected default max messages 100, got %d", cfg.Storage.MaxMessagesInAPI)
	}
}

func TestValidateGatewayErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{
			name:   "invalid port",
			mutate: func(c *Config) { c.Server.Port = 0 },
			errSub: "port",
		},
		{
			name:   "missing account sid",
			mutate: func(c *Config) { c.SMS.AccountSID = "" },
			errSub: "TWILIO_ACCOUNT_SID",
		},
		{
			name:   "no credentials",
			mutate: func(c *Config) { c.SMS.AuthToken = "" },
			errSub: "credentials",
		},
		{
			name: "no sender",
			mutate: func(c *Config) {
				c.SMS.MessagingServiceSID = ""
				c.SMS.FromNumber = ""
			},
			errSub: "TWILIO_MESSAGING_SERVICE_SID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validGatewayConfig()
			tt.mutate(cfg)
			err := cfg.ValidateGateway()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.errSub, err)
			}
		})
	}
}
