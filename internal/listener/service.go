// Package listener orchestrates the continuous detect-and-notify cycle:
// capture a frame, transcribe it, scan for keywords, and dispatch a
// notification when the cooldown gate is open.
package listener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/earshot-dev/earshot/internal/audio"
	"github.com/earshot-dev/earshot/internal/config"
	"github.com/earshot-dev/earshot/internal/keyword"
	"github.com/earshot-dev/earshot/internal/notify"
	"github.com/earshot-dev/earshot/internal/transcription"
	"github.com/earshot-dev/earshot/pkg/logger"
)

// FrameSource produces audio frames. Read blocks until a frame is available
// or the context is canceled; Close releases the underlying device.
type FrameSource interface {
	Read(ctx context.Context) (*audio.Frame, error)
	Close() error
}

// Service runs the listener loop. All per-process state (keyword set,
// cooldown gate) lives on the service rather than in package globals.
type Service struct {
	source           FrameSource
	transcriber      transcription.Transcriber
	keywords         *keyword.Set
	gate             *CooldownGate
	notifier         notify.Notifier
	toNumber         string
	message          string
	silenceThreshold float64
	printTranscripts bool
	logger           *logger.Logger

	// now is time.Now except in tests
	now func() time.Time

	cycles     int
	detections int
}

// NewService wires the listener loop from its collaborators and validated
// config.
func NewService(
	source FrameSource,
	transcriber transcription.Transcriber,
	notifier notify.Notifier,
	cfg *config.Config,
	log *logger.Logger,
) *Service {
	return &Service{
		source:           source,
		transcriber:      transcriber,
		keywords:         keyword.NewSet(cfg.Listener.Keywords),
		gate:             NewCooldownGate(time.Duration(cfg.Listener.CooldownSeconds * float64(time.Second))),
		notifier:         notifier,
		toNumber:         cfg.Notify.ToNumber,
		message:          cfg.Notify.Message,
		silenceThreshold: cfg.Listener.SilenceThreshold,
		printTranscripts: cfg.Listener.PrintTranscripts,
		logger:           log.Named("listener"),
		now:              time.Now,
	}
}

// Run executes capture cycles until the context is canceled or the audio
// device fails. Per-cycle errors (transcription, notification) are logged
// and never terminate the loop; a capture failure is treated as a fatal
// device error.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("Listener started",
		logger.Int("keyword_count", s.keywords.Len()),
		logger.Float64("silence_threshold", s.silenceThreshold))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Listener stopped", logger.Int("cycles", s.cycles))
			return nil
		default:
		}

		if err := s.cycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Info("Listener stopped", logger.Int("cycles", s.cycles))
				return nil
			}
			return fmt.Errorf("capture cycle failed: %w", err)
		}
	}
}

// cycle runs one pass of the loop. Only capture errors propagate; everything
// downstream is contained here.
func (s *Service) cycle(ctx context.Context) error {
	s.cycles++

	frame, err := s.source.Read(ctx)
	if err != nil {
		return err
	}

	if frame.IsSilent(s.silenceThreshold) {
		s.logger.Debug("Skipping silent frame", logger.Float64("rms", frame.RMS()))
		return nil
	}

	text, err := s.transcriber.Transcribe(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("Transcription failed, continuing to next frame", logger.Error(err))
		return nil
	}
	if text == "" {
		return nil
	}

	if s.printTranscripts {
		s.logger.Info("Transcription", logger.String("text", text))
	}

	if !s.keywords.Match(text) {
		return nil
	}

	now := s.now()
	if !s.gate.Allow(now) {
		s.logger.Debug("Detection suppressed by cooldown", logger.String("text", text))
		return nil
	}
	s.gate.Record(now)
	s.detections++

	body := s.message
	if body == "" {
		body = fmt.Sprintf("Keyword detected: %q", text)
	}

	sid, err := s.notifier.Send(ctx, notify.Request{To: s.toNumber, Body: body})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("Notification failed, continuing to next frame", logger.Error(err))
		return nil
	}

	s.logger.Info("Notification sent",
		logger.String("sid", sid),
		logger.String("text", text),
		logger.Int("detections", s.detections))

	return nil
}
