// Package pcm converts captured float samples into wire PCM frames.
package pcm

import (
	"encoding/binary"
	"math"
)

// BytesPerSample is the size of one encoded sample on the wire.
const BytesPerSample = 2

// Encode converts float32 samples in [-1, 1] into 16-bit signed
// little-endian PCM. Out-of-range samples are clipped; NaN encodes as
// silence. The returned buffer is freshly allocated per call and owned
// by the caller.
func Encode(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		v := float64(s)
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		case math.IsNaN(v):
			v = 0
		}
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(int16(v*32767)))
	}
	return out
}
