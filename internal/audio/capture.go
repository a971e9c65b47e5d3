package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/earshot-dev/earshot/pkg/logger"
)

const readChunkSamples = 1024

// Capture owns the default microphone device and produces fixed-duration
// frames on demand. It must be closed to release the device handle.
type Capture struct {
	stream     *portaudio.Stream
	in         []int16
	sampleRate int
	frameLen   int
	duration   time.Duration
	logger     *logger.Logger
	closed     bool
}

// NewCapture initializes PortAudio and opens the default input device as a
// mono PCM16 stream. The returned Capture holds the device exclusively until
// Close is called.
func NewCapture(sampleRate int, bufferSeconds float64, log *logger.Logger) (*Capture, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}
	if bufferSeconds <= 0 {
		return nil, fmt.Errorf("buffer duration must be positive: %f", bufferSeconds)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audio subsystem: %w", err)
	}

	in := make([]int16, readChunkSamples)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(in), in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open microphone stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start microphone stream: %w", err)
	}

	duration := time.Duration(bufferSeconds * float64(time.Second))

	return &Capture{
		stream:     stream,
		in:         in,
		sampleRate: sampleRate,
		frameLen:   int(bufferSeconds * float64(sampleRate)),
		duration:   duration,
		logger:     log.Named("capture"),
	}, nil
}

// Read blocks until a full frame has been captured and returns it. The
// context is checked between device reads, so cancellation interrupts the
// wait within one read chunk (64ms at 16kHz).
func (c *Capture) Read(ctx context.Context) (*Frame, error) {
	samples := make([]int16, 0, c.frameLen)
	start := time.Now()

	for len(samples) < c.frameLen {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := c.stream.Read(); err != nil {
			return nil, fmt.Errorf("microphone read failed: %w", err)
		}

		remaining := c.frameLen - len(samples)
		if remaining < len(c.in) {
			samples = append(samples, c.in[:remaining]...)
		} else {
			samples = append(samples, c.in...)
		}
	}

	return &Frame{
		Samples:    samples,
		SampleRate: c.sampleRate,
		Duration:   c.duration,
		CapturedAt: start,
	}, nil
}

// Close stops the stream and releases the microphone device. Safe to call
// once; subsequent calls are no-ops.
func (c *Capture) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.logger.Info("Releasing microphone device")

	if err := c.stream.Stop(); err != nil {
		c.logger.Warn("Failed to stop microphone stream", logger.Error(err))
	}
	if err := c.stream.Close(); err != nil {
		c.logger.Warn("Failed to close microphone stream", logger.Error(err))
	}
	return portaudio.Terminate()
}
