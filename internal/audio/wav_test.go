package audio

import (
	"bytes"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768, 500}
	f := &Frame{
		Samples:    samples,
		SampleRate: 16000,
		Duration:   time.Duration(len(samples)) * time.Second / 16000,
	}

	data, err := EncodeWAV(f)
	if err != nil {
		t.Fatalf("Failed to encode WAV: %v", err)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		t.Fatal("Encoded data is not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("Failed to decode WAV: %v", err)
	}

	if dec.NumChans != 1 {
		t.Errorf("Expected mono, got %d channels", dec.NumChans)
	}
	if dec.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", dec.SampleRate)
	}
	if dec.BitDepth != 16 {
		t.Errorf("Expected 16-bit samples, got %d", dec.BitDepth)
	}

	if len(buf.Data) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(buf.Data))
	}
	for i, s := range samples {
		if buf.Data[i] != int(s) {
			t.Errorf("Sample %d: expected %d, got %d", i, s, buf.Data[i])
		}
	}
}

func TestEncodeWAVRejectsInvalidFrames(t *testing.T) {
	if _, err := EncodeWAV(&Frame{SampleRate: 16000}); err == nil {
		t.Error("Expected error for empty frame")
	}
	if _, err := EncodeWAV(&Frame{Samples: []int16{1, 2, 3}}); err == nil {
		t.Error("Expected error for missing sample rate")
	}
}

func TestSeekableBuffer(t *testing.T) {
	buf := &seekableBuffer{}

	if _, err := buf.Write([]byte("RIFFxxxxWAVE")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := buf.Seek(4, 0); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if _, err := buf.Write([]byte("1234")); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}

	if string(buf.data) != "RIFF1234WAVE" {
		t.Errorf("Expected RIFF1234WAVE, got %s", string(buf.data))
	}
}
