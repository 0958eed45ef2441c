package engines

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voxify/tts"
)

// Fallback wraps a primary engine and switches to a secondary one after
// the primary fails maxFailures times in a row. Once switched it stays on
// the fallback for the rest of its lifetime.
type Fallback struct {
	primary     tts.Engine
	fallback    tts.Engine
	maxFailures int

	mu            sync.Mutex
	failures      int
	usingFallback bool

	logger *log.Logger
}

// NewFallback creates a fallback engine pair.
func NewFallback(primary, fallback tts.Engine, maxFailures int) *Fallback {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &Fallback{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
		logger:      log.Default().With("component", "fallback"),
	}
}

// Synthesize implements tts.Engine.
func (f *Fallback) Synthesize(ctx context.Context, unit tts.Unit, opts tts.VoiceOptions) (*tts.Buffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usingFallback {
		return f.fallback.Synthesize(ctx, unit, opts)
	}

	buf, err := f.primary.Synthesize(ctx, unit, opts)
	if err == nil {
		if f.failures > 0 {
			f.logger.Info("primary engine recovered", "after_failures", f.failures)
			f.failures = 0
		}
		return buf, nil
	}
	if ctx.Err() != nil {
		// Cancellation is the caller's doing, not the engine's.
		return nil, err
	}

	f.failures++
	f.logger.Warn("primary engine failed", "failures", f.failures, "max", f.maxFailures, "error", err)

	if f.failures < f.maxFailures {
		return nil, err
	}

	f.usingFallback = true
	f.logger.Warn("switching to fallback engine")

	buf, fbErr := f.fallback.Synthesize(ctx, unit, opts)
	if fbErr != nil {
		return nil, fmt.Errorf("both engines failed: primary: %v, fallback: %w", err, fbErr)
	}
	return buf, nil
}

// Voices implements tts.Engine, reporting the active engine's voices.
func (f *Fallback) Voices() []tts.Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usingFallback {
		return f.fallback.Voices()
	}
	return f.primary.Voices()
}

// Capabilities implements tts.Engine.
func (f *Fallback) Capabilities() tts.Capabilities {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usingFallback {
		return f.fallback.Capabilities()
	}
	caps := f.primary.Capabilities()
	// The pair can only accept text both engines can take.
	if fb := f.fallback.Capabilities(); fb.MaxTextLength > 0 &&
		(caps.MaxTextLength == 0 || fb.MaxTextLength < caps.MaxTextLength) {
		caps.MaxTextLength = fb.MaxTextLength
	}
	return caps
}

// Close implements tts.Engine, closing both engines.
func (f *Fallback) Close() error {
	err := f.primary.Close()
	if fbErr := f.fallback.Close(); fbErr != nil && err == nil {
		err = fbErr
	}
	return err
}

// UsingFallback reports whether the pair has switched over.
func (f *Fallback) UsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}
