// Package tts provides the core text-to-audio conversion pipeline.
package tts

import (
	"context"
	"time"
)

// Unit is one segmented piece of input text sized for a single synthesis call.
type Unit struct {
	Index int    // Position within the parent request, 0-based
	Text  string // Trimmed text content, never empty
}

// Buffer holds mono audio samples in the range [-1.0, 1.0].
type Buffer struct {
	Samples    []float32
	SampleRate int // Sample rate in Hz, always > 0
}

// Duration returns the playing time of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	samples := make([]float32, len(b.Samples))
	copy(samples, b.Samples)
	return &Buffer{Samples: samples, SampleRate: b.SampleRate}
}

// VoiceOptions holds the resolved synthesis parameters for one request.
type VoiceOptions struct {
	Voice    string  // Voice identifier, engine-specific
	Language string  // Language code (e.g., "en-US")
	Rate     float64 // Speech rate multiplier (1.0 = normal)
}

// Result is the outcome of synthesizing one unit: either a buffer or an error.
type Result struct {
	Unit   Unit
	Buffer *Buffer // nil when Err is set
	Err    error
}

// OK reports whether the unit was synthesized successfully.
func (r Result) OK() bool {
	return r.Err == nil && r.Buffer != nil
}

// Voice describes a voice offered by an engine.
type Voice struct {
	ID       string // Voice identifier
	Name     string // Human-readable name
	Language string // Language code (e.g., "en-US")
	Gender   string // Voice gender
}

// Capabilities describes what an engine can do.
type Capabilities struct {
	MaxTextLength   int  // Maximum text length per synthesis call
	RequiresNetwork bool // Needs internet connection
	NativeRate      int  // Sample rate the engine produces natively
}

// Engine is the synthesis backend boundary. Implementations convert one text
// unit into a mono audio buffer or fail with a *SynthesisError.
type Engine interface {
	// Synthesize converts one unit to audio. The returned buffer carries the
	// engine's native sample rate; the composer resamples as needed.
	Synthesize(ctx context.Context, unit Unit, opts VoiceOptions) (*Buffer, error)

	// Voices returns the list of available voices.
	Voices() []Voice

	// Capabilities returns the engine's capabilities.
	Capabilities() Capabilities

	// Close releases engine resources.
	Close() error
}

// Segmenter splits input text into synthesis-sized units.
type Segmenter interface {
	// Segment splits text into ordered units no longer than maxLen bytes.
	// Returns ErrEmptyInput when the text has no segmentable content.
	Segment(text string, maxLen int) ([]Unit, error)
}

// CompositionSpec is the post-processing policy for one request.
type CompositionSpec struct {
	Gap            time.Duration // Silence inserted between consecutive units
	SampleRate     int           // Target output rate; the pipeline canon is 16 kHz
	Normalize      bool          // RMS-normalize the composed buffer
	Fade           bool          // Linear fade-in/out at the outer boundaries
	NoiseReduction bool          // High-pass noise suppression on the composed buffer
}

// DefaultCompositionSpec returns the pipeline defaults.
func DefaultCompositionSpec() CompositionSpec {
	return CompositionSpec{
		Gap:            500 * time.Millisecond,
		SampleRate:     16000,
		Normalize:      true,
		Fade:           true,
		NoiseReduction: false,
	}
}

// Composer assembles per-unit synthesis results into one exportable buffer.
type Composer interface {
	// Compose concatenates the successful results in unit order, inserting
	// spec.Gap of silence between them and applying the spec's
	// post-processing. Fails with *CompositionError when no result succeeded.
	Compose(results []Result, spec CompositionSpec) (*Buffer, error)
}

// Exporter serializes a composed buffer to disk.
type Exporter interface {
	// Export writes the buffer under the given base name and format tag and
	// returns the resulting artifact.
	Export(buf *Buffer, baseName, format string) (Artifact, error)

	// ValidateFormat rejects unknown format tags. Called at request entry so
	// bad formats fail before any synthesis work happens.
	ValidateFormat(format string) error
}
