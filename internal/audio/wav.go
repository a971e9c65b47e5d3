package audio

import (
	"fmt"
	"io"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV renders a frame as an in-memory WAV file (PCM16 mono) suitable
// for upload to the transcription API.
func EncodeWAV(f *Frame) ([]byte, error) {
	if len(f.Samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty frame")
	}
	if f.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}

	buf := &seekableBuffer{}
	enc := wav.NewEncoder(buf, f.SampleRate, 16, 1, 1)

	intBuf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: 1,
			SampleRate:  f.SampleRate,
		},
		SourceBitDepth: 16,
		Data:           make([]int, len(f.Samples)),
	}
	for i, s := range f.Samples {
		intBuf.Data[i] = int(s)
	}

	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("failed to write WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize WAV encoding: %w", err)
	}

	return buf.data, nil
}

// seekableBuffer is an in-memory io.WriteSeeker. The WAV encoder needs to
// seek back to patch chunk sizes in the header after writing the data chunk.
type seekableBuffer struct {
	data []byte
	pos  int
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		grown := make([]byte, need)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = b.pos + int(offset)
	case io.SeekEnd:
		next = len(b.data) + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position: %d", next)
	}
	b.pos = next
	return int64(next), nil
}
