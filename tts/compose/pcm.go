// Package compose assembles per-unit synthesis output into one final
// audio buffer.
package compose

import (
	"encoding/binary"
	"math"
	"time"
)

// Float32ToInt16 converts normalized float samples to signed 16-bit PCM
// with clamping.
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32767
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// Int16ToFloat32 converts signed 16-bit PCM to normalized float samples.
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return out
}

// BytesToFloat32 decodes little-endian 16-bit PCM bytes into normalized
// float samples. Trailing odd bytes are dropped.
func BytesToFloat32(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(s) / 32768
	}
	return out
}

// Float32ToBytes encodes normalized float samples as little-endian 16-bit
// PCM bytes.
func Float32ToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range Float32ToInt16(samples) {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Resample converts samples from one rate to another using linear
// interpolation. Quality is adequate for speech.
func Resample(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(toRate) / float64(fromRate)
	outLen := int(float64(len(samples)) * ratio)
	if outLen == 0 {
		outLen = 1
	}
	out := make([]float32, outLen)

	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// Silence returns a zeroed sample slice covering d at the given rate.
func Silence(d time.Duration, rate int) []float32 {
	n := int(d.Seconds() * float64(rate))
	if n < 0 {
		n = 0
	}
	return make([]float32, n)
}

// RMS computes the root mean square level of the samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}
