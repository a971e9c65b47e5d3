package audio

import (
	"math"
	"time"
)

// Frame is a fixed-duration buffer of PCM16 mono samples captured from the
// microphone. Frames are transient: one is produced per capture cycle,
// consumed by the transcriber, and discarded.
type Frame struct {
	Samples    []int16
	SampleRate int
	Duration   time.Duration
	CapturedAt time.Time
}

// RMS returns the root-mean-square amplitude of the frame normalized to
// [0, 1], where 1 corresponds to a full-scale 16-bit signal.
func (f *Frame) RMS() float64 {
	if len(f.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range f.Samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(f.Samples)))
}

// IsSilent reports whether the frame's RMS amplitude falls below the given
// normalized threshold. Silent frames are skipped before transcription to
// save external API calls.
func (f *Frame) IsSilent(threshold float64) bool {
	return f.RMS() < threshold
}
