package compose

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voxify/tts"
)

const (
	// normTargetDB is the RMS normalization target in dBFS.
	normTargetDB = -3.0

	fadeDuration = 50 * time.Millisecond

	// High-pass cutoff for the noise reduction filter.
	denoiseCutoffHz = 80.0
	denoiseStrength = 0.3
)

// Composer joins per-unit buffers into a single output buffer. Units are
// resampled to a shared rate, separated by silence gaps, then optionally
// normalized, faded, and denoised.
type Composer struct {
	logger *log.Logger
}

// NewComposer creates a composer.
func NewComposer() *Composer {
	return &Composer{logger: log.Default().With("component", "composer")}
}

// Compose implements tts.Composer. Failed units are skipped and the
// survivors joined in unit order. When nothing survives the returned error
// is a *tts.CompositionError listing every failed unit.
func (c *Composer) Compose(results []tts.Result, spec tts.CompositionSpec) (*tts.Buffer, error) {
	if len(results) == 0 {
		return nil, tts.ErrNoContent
	}
	if spec.SampleRate <= 0 {
		spec.SampleRate = tts.DefaultCompositionSpec().SampleRate
	}

	var segments [][]float32
	var failed []int
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, r.Unit.Index)
			continue
		}
		samples := r.Buffer.Samples
		if r.Buffer.SampleRate != spec.SampleRate {
			samples = Resample(samples, r.Buffer.SampleRate, spec.SampleRate)
		}
		segments = append(segments, samples)
	}

	if len(segments) == 0 {
		return nil, &tts.CompositionError{FailedUnits: failed}
	}
	if len(failed) > 0 {
		c.logger.Warn("composing without failed units", "failed", failed, "kept", len(segments))
	}

	out := concatenate(segments, spec.Gap, spec.SampleRate)

	if spec.NoiseReduction {
		out = highPassBlend(out, spec.SampleRate, denoiseCutoffHz, denoiseStrength)
	}
	if spec.Normalize {
		normalize(out, normTargetDB)
	}
	if spec.Fade {
		applyFade(out, spec.SampleRate, fadeDuration)
	}

	return &tts.Buffer{Samples: out, SampleRate: spec.SampleRate}, nil
}

// concatenate joins segments with a silence gap between each pair. The gap
// count is always one less than the segment count.
func concatenate(segments [][]float32, gap time.Duration, rate int) []float32 {
	if len(segments) == 1 {
		out := make([]float32, len(segments[0]))
		copy(out, segments[0])
		return out
	}

	gapSamples := int(gap.Seconds() * float64(rate))
	total := gapSamples * (len(segments) - 1)
	for _, seg := range segments {
		total += len(seg)
	}

	out := make([]float32, 0, total)
	for i, seg := range segments {
		if i > 0 {
			out = append(out, make([]float32, gapSamples)...)
		}
		out = append(out, seg...)
	}
	return out
}

// normalize scales samples in place so the RMS level hits targetDB, then
// rescales if any sample would clip. Silent input is left untouched.
func normalize(samples []float32, targetDB float64) {
	rms := RMS(samples)
	if rms == 0 {
		return
	}

	targetRMS := math.Pow(10, targetDB/20)
	factor := float32(targetRMS / rms)
	for i := range samples {
		samples[i] *= factor
	}

	if peak := Peak(samples); peak > 1.0 {
		for i := range samples {
			samples[i] /= peak
		}
	}
}

// applyFade applies linear fade-in and fade-out ramps in place. Buffers
// shorter than a ramp are left alone.
func applyFade(samples []float32, rate int, d time.Duration) {
	n := int(d.Seconds() * float64(rate))
	if n <= 0 || n >= len(samples) {
		return
	}

	for i := 0; i < n; i++ {
		samples[i] *= float32(i) / float32(n)
	}
	for i := 0; i < n; i++ {
		samples[len(samples)-1-i] *= float32(i) / float32(n)
	}
}

// highPassBlend runs a 4th order Butterworth high-pass over the samples
// and blends the filtered signal with the dry signal at the given
// strength. Low-frequency rumble drops while speech stays intact.
func highPassBlend(samples []float32, rate int, cutoffHz, strength float64) []float32 {
	if len(samples) == 0 || strength <= 0 {
		return samples
	}

	filtered := make([]float64, len(samples))
	for i, s := range samples {
		filtered[i] = float64(s)
	}

	// Two cascaded biquad sections give the 4th order response.
	for _, q := range [2]float64{0.54119610, 1.3065630} {
		b := newHighPassBiquad(cutoffHz, float64(rate), q)
		b.process(filtered)
	}

	out := make([]float32, len(samples))
	dry := 1 - strength
	for i := range samples {
		out[i] = float32(dry*float64(samples[i]) + strength*filtered[i])
	}
	return out
}

// biquad is a direct form I second order filter section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// newHighPassBiquad derives high-pass coefficients for one Butterworth
// section via the bilinear transform.
func newHighPassBiquad(cutoffHz, sampleRate, q float64) *biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha
	return &biquad{
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func (f *biquad) process(samples []float64) {
	for i, x := range samples {
		y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		samples[i] = y
	}
}
