package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/zaf/g711"

	"github.com/dgnsrekt/voxify/tts"
	"github.com/dgnsrekt/voxify/tts/compose"
)

// ulawSampleRate is assumed for headerless .ul files written by the
// exporter at the pipeline's canonical rate.
const ulawSampleRate = 16000

// LoadFile reads an exported artifact back into a buffer. The extension
// selects the decoder.
func LoadFile(path string) (*tts.Buffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return loadWAV(path)
	case ".ul":
		return loadULaw(path)
	default:
		return nil, fmt.Errorf("%w: %q", tts.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadWAV(path string) (*tts.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if pcm.Format == nil || pcm.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("decode wav: missing format header")
	}

	ints := make([]int16, len(pcm.Data))
	for i, s := range pcm.Data {
		ints[i] = int16(s)
	}
	samples := compose.Int16ToFloat32(ints)

	// Downmix multi-channel files so playback goes through the mono path.
	if ch := pcm.Format.NumChannels; ch > 1 {
		mono := make([]float32, len(samples)/ch)
		for i := range mono {
			var sum float32
			for c := 0; c < ch; c++ {
				sum += samples[i*ch+c]
			}
			mono[i] = sum / float32(ch)
		}
		samples = mono
	}

	return &tts.Buffer{Samples: samples, SampleRate: pcm.Format.SampleRate}, nil
}

func loadULaw(path string) (*tts.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pcm := g711.DecodeUlaw(data)
	return &tts.Buffer{
		Samples:    compose.BytesToFloat32(pcm),
		SampleRate: ulawSampleRate,
	}, nil
}
