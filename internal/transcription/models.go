package transcription

import (
	"context"
	"fmt"

	"github.com/earshot-dev/earshot/internal/audio"
)

// Transcriber converts one audio frame into text. Implementations wrap an
// external speech-to-text service; a failed call must be recoverable by the
// caller (skip to the next frame), never fatal.
type Transcriber interface {
	Transcribe(ctx context.Context, frame *audio.Frame) (string, error)
}

// Error wraps a transcription failure (network error, quota exceeded,
// malformed audio). The listener logs these and moves on to the next frame.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcription %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
