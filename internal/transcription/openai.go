package transcription

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/earshot-dev/earshot/internal/audio"
	"github.com/earshot-dev/earshot/internal/config"
	"github.com/earshot-dev/earshot/pkg/logger"
)

// OpenAIClient transcribes audio frames through OpenAI's speech-to-text API.
type OpenAIClient struct {
	client   *openai.Client
	model    string
	language string
	logger   *logger.Logger
}

// NewOpenAIClient creates a transcription client from config. A request
// timeout is always applied so a hung API call cannot stall the capture
// loop indefinitely.
func NewOpenAIClient(cfg config.TranscriptionConfig, log *logger.Logger) *OpenAIClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/") + "/v1"
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		language: cfg.Language,
		logger:   log.Named("openai-stt"),
	}
}

// Transcribe encodes the frame as WAV and submits it for transcription.
// Returns the transcribed text with surrounding whitespace trimmed; an empty
// string means the service heard nothing intelligible.
func (c *OpenAIClient) Transcribe(ctx context.Context, frame *audio.Frame) (string, error) {
	wavData, err := audio.EncodeWAV(frame)
	if err != nil {
		return "", &Error{Op: "encode", Err: err}
	}

	start := time.Now()
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       c.model,
		FilePath:    "buffer.wav",
		Reader:      bytes.NewReader(wavData),
		Language:    c.language,
		Temperature: 0,
	})
	if err != nil {
		return "", &Error{Op: "request", Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	c.logger.Debug("Transcription completed",
		logger.Duration("elapsed", time.Since(start)),
		logger.Int("wav_bytes", len(wavData)),
		logger.Int("text_length", len(text)))

	return text, nil
}
