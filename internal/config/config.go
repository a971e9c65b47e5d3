package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server        ServerConfig        `toml:"server"`        // Gateway HTTP server settings
	Listener      ListenerConfig      `toml:"listener"`      // Microphone keyword listener settings
	Transcription TranscriptionConfig `toml:"transcription"` // Speech-to-text settings
	Notify        NotifyConfig        `toml:"notify"`        // Gateway client settings used by the listener
	SMS           SMSConfig           `toml:"sms"`           // Twilio settings used by the gateway
	Logging       LoggingConfig       `toml:"logging"`       // Application logging settings
	Storage       StorageConfig       `toml:"storage"`       // Message log persistence settings
}

// ServerConfig contains gateway HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // HTTP port for the gateway
	Host             string `toml:"host"`                  // Host address to bind to
	APIToken         string `toml:"api_token"`             // Bearer token required on /send (empty = endpoint locked down)
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Keep-alive idle timeout
}

// ListenerConfig contains microphone capture and detection settings
type ListenerConfig struct {
	Keywords         []string `toml:"keywords"`                   // Phrases that trigger a notification (case-insensitive)
	BufferSeconds    float64  `toml:"buffer_seconds"`             // Duration of each captured audio frame
	SampleRate       int      `toml:"mic_sample_rate"`            // Microphone sample rate in Hz (16000 works well for Whisper-family models)
	CooldownSeconds  float64  `toml:"detection_cooldown_seconds"` // Minimum time between two outbound notifications
	SilenceThreshold float64  `toml:"silence_threshold"`          // Normalized RMS below which a frame is skipped without transcription
	PrintTranscripts bool     `toml:"print_transcripts"`          // Log every transcription at info level
}

// TranscriptionConfig contains settings for the speech-to-text service
type TranscriptionConfig struct {
	OpenAIAPIKey   string `toml:"openai_api_key"`      // OpenAI API key for transcription
	OpenAIBaseURL  string `toml:"openai_api_base_url"` // Optional OpenAI base URL (e.g. for proxies)
	Model          string `toml:"model"`               // Transcription model (e.g. "gpt-4o-mini-transcribe")
	Language       string `toml:"language"`            // Primary language hint (e.g. "en")
	TimeoutSeconds int    `toml:"timeout_seconds"`     // HTTP timeout for transcription requests
}

// NotifyConfig contains settings for the listener's gateway client
type NotifyConfig struct {
	APIBase        string `toml:"api_base"`        // Base URL of the SMS gateway (e.g. http://localhost:8000)
	APIToken       string `toml:"api_token"`       // Bearer token for the gateway /send endpoint
	ToNumber       string `toml:"to_number"`       // Destination number in E.164 format
	Message        string `toml:"message"`         // Fixed message body; empty = include the detected transcript
	TimeoutSeconds int    `toml:"timeout_seconds"` // HTTP timeout for notification requests
}

// SMSConfig contains Twilio credentials and sender selection for the gateway.
// Either an API key/secret pair or the account auth token must be provided,
// and either a messaging service SID (preferred) or a from number.
type SMSConfig struct {
	AccountSID          string `toml:"account_sid"`           // Twilio account SID
	AuthToken           string `toml:"auth_token"`            // Twilio auth token (alternative to API key/secret)
	APIKey              string `toml:"api_key"`               // Twilio API key (preferred over auth token)
	APISecret           string `toml:"api_secret"`            // Twilio API secret
	MessagingServiceSID string `toml:"messaging_service_sid"` // Messaging service SID (preferred sender)
	FromNumber          string `toml:"from_number"`           // From number, used when no messaging service SID is set
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains message log persistence configuration
type StorageConfig struct {
	SQLitePath       string `toml:"sqlite_path"`         // Path to the SQLite database file
	MaxMessagesInAPI int    `toml:"max_messages_in_api"` // Maximum number of messages returned by /messages
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyEnvOverrides()

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// FromEnv builds a configuration purely from environment variables, for
// running without a config file.
func FromEnv() *Config {
	var config Config
	config.applyEnvOverrides()
	return &config
}

// applyEnvOverrides maps the documented environment variables onto the config.
// Environment values win over the TOML file so credentials never have to live
// on disk.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KEYWORDS"); v != "" {
		c.Listener.Keywords = splitKeywords(v)
	}
	if v := os.Getenv("BUFFER_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Listener.BufferSeconds = f
		}
	}
	if v := os.Getenv("MIC_SAMPLE_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Listener.SampleRate = n
		}
	}
	if v := os.Getenv("DETECTION_COOLDOWN_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Listener.CooldownSeconds = f
		}
	}
	if v := os.Getenv("SILENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Listener.SilenceThreshold = f
		}
	}
	if v := os.Getenv("PRINT_TRANSCRIPTS"); v != "" {
		c.Listener.PrintTranscripts = v == "1" || strings.EqualFold(v, "true")
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Transcription.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_BASE"); v != "" {
		c.Transcription.OpenAIBaseURL = v
	}
	if v := os.Getenv("STT_MODEL"); v != "" {
		c.Transcription.Model = v
	}

	if v := os.Getenv("SMS_API_BASE"); v != "" {
		c.Notify.APIBase = v
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		c.Notify.APIToken = v
		c.Server.APIToken = v
	}
	if v := os.Getenv("TO_NUMBER"); v != "" {
		c.Notify.ToNumber = v
	}
	if v := os.Getenv("MESSAGE"); v != "" {
		c.Notify.Message = v
	}

	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		c.SMS.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		c.SMS.AuthToken = v
	}
	if v := os.Getenv("TWILIO_API_KEY"); v != "" {
		c.SMS.APIKey = v
	}
	if v := os.Getenv("TWILIO_API_SECRET"); v != "" {
		c.SMS.APISecret = v
	}
	if v := os.Getenv("TWILIO_MESSAGING_SERVICE_SID"); v != "" {
		c.SMS.MessagingServiceSID = v
	}
	if v := os.Getenv("TWILIO_FROM_NUMBER"); v != "" {
		c.SMS.FromNumber = v
	}
}

// splitKeywords parses a comma-separated phrase list, trimming whitespace and
// dropping empty entries while preserving order.
func splitKeywords(s string) []string {
	parts := strings.Split(s, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}

// Validate validates the configuration shared by both binaries
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
		if c.Logging.Level == "" {
			c.Logging.Level = "info"
		}
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "json", "console":
		if c.Logging.Format == "" {
			c.Logging.Format = "console"
		}
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// ValidateListener validates the settings required by the listener binary
func (c *Config) ValidateListener() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if len(c.Listener.Keywords) == 0 {
		return fmt.Errorf("at least one keyword is required (set keywords in config or the KEYWORDS env var)")
	}
	if c.Listener.BufferSeconds <= 0 {
		c.Listener.BufferSeconds = 4
	}
	if c.Listener.SampleRate <= 0 {
		c.Listener.SampleRate = 16000
	}
	if c.Listener.CooldownSeconds < 0 {
		return fmt.Errorf("detection_cooldown_seconds must not be negative: %f", c.Listener.CooldownSeconds)
	}
	if c.Listener.CooldownSeconds == 0 {
		c.Listener.CooldownSeconds = 15
	}
	if c.Listener.SilenceThreshold < 0 || c.Listener.SilenceThreshold >= 1 {
		return fmt.Errorf("silence_threshold must be in [0, 1): %f", c.Listener.SilenceThreshold)
	}

	if c.Transcription.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for transcription")
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = "gpt-4o-mini-transcribe"
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = 30
	}

	if c.Notify.APIBase == "" {
		return fmt.Errorf("notify api_base (or SMS_API_BASE) is required")
	}
	if c.Notify.APIToken == "" {
		return fmt.Errorf("API_TOKEN is required to call the SMS gateway")
	}
	if c.Notify.ToNumber == "" {
		return fmt.Errorf("TO_NUMBER is required")
	}
	if c.Notify.TimeoutSeconds <= 0 {
		c.Notify.TimeoutSeconds = 30
	}

	return nil
}

// ValidateGateway validates the settings required by the gateway binary
func (c *Config) ValidateGateway() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.ReadTimeoutSecs <= 0 {
		c.Server.ReadTimeoutSecs = 15
	}
	if c.Server.WriteTimeoutSecs <= 0 {
		c.Server.WriteTimeoutSecs = 15
	}
	if c.Server.IdleTimeoutSecs <= 0 {
		c.Server.IdleTimeoutSecs = 60
	}

	if c.SMS.AccountSID == "" {
		return fmt.Errorf("TWILIO_ACCOUNT_SID is required")
	}
	hasAPIKey := c.SMS.APIKey != "" && c.SMS.APISecret != ""
	if !hasAPIKey && c.SMS.AuthToken == "" {
		return fmt.Errorf("twilio credentials missing: set TWILIO_API_KEY/TWILIO_API_SECRET or TWILIO_AUTH_TOKEN")
	}
	if c.SMS.MessagingServiceSID == "" && c.SMS.FromNumber == "" {
		return fmt.Errorf("configure TWILIO_MESSAGING_SERVICE_SID or TWILIO_FROM_NUMBER")
	}

	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "earshot.db"
	}
	if c.Storage.MaxMessagesInAPI <= 0 {
		c.Storage.MaxMessagesInAPI = 100
	}

	return nil
}
