package pcm

import (
	"encoding/binary"
	"math"
	"testing"
)

func sampleAt(buf []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(buf[i*BytesPerSample:]))
}

func TestEncodeLength(t *testing.T) {
	for _, n := range []int{0, 1, 128, 4096} {
		buf := Encode(make([]float32, n))
		if len(buf) != n*BytesPerSample {
			t.Fatalf("expected %d bytes for %d samples, got %d", n*BytesPerSample, n, len(buf))
		}
	}
}

func TestEncodeScaling(t *testing.T) {
	buf := Encode([]float32{0, 0.5, -0.5, 1, -1})
	if got := sampleAt(buf, 0); got != 0 {
		t.Fatalf("expected 0 for silence, got %d", got)
	}
	if got := sampleAt(buf, 1); got != 16383 {
		t.Fatalf("expected 16383 for 0.5, got %d", got)
	}
	if got := sampleAt(buf, 2); got != -16383 {
		t.Fatalf("expected -16383 for -0.5, got %d", got)
	}
	if got := sampleAt(buf, 3); got != 32767 {
		t.Fatalf("expected 32767 for 1.0, got %d", got)
	}
	if got := sampleAt(buf, 4); got != -32767 {
		t.Fatalf("expected -32767 for -1.0, got %d", got)
	}
}

func TestEncodeClipsOutOfRange(t *testing.T) {
	buf := Encode([]float32{2.5, -2.5, float32(math.Inf(1)), float32(math.Inf(-1))})
	for i, want := range []int16{32767, -32767, 32767, -32767} {
		if got := sampleAt(buf, i); got != want {
			t.Fatalf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestEncodeNaNIsSilence(t *testing.T) {
	buf := Encode([]float32{float32(math.NaN())})
	if got := sampleAt(buf, 0); got != 0 {
		t.Fatalf("expected NaN to encode as 0, got %d", got)
	}
}

func TestEncodeRange(t *testing.T) {
	samples := make([]float32, 256)
	for i := range samples {
		samples[i] = float32(i-128) / 16
	}
	buf := Encode(samples)
	for i := range samples {
		got := sampleAt(buf, i)
		if got < -32767 || got > 32767 {
			t.Fatalf("sample %d out of range: %d", i, got)
		}
	}
}
