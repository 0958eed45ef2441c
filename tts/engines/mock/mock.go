// Package mock provides a deterministic in-memory synthesis engine for
// tests and offline development.
package mock

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/voxify/tts"
)

const sampleRate = 22050

// Engine synthesizes a quiet tone whose length tracks the text's word
// count. Failure injection hooks let tests exercise retry and degradation
// paths.
type Engine struct {
	mu             sync.Mutex
	delay          time.Duration
	wordsPerMinute int

	failErr       error
	failRemaining int

	callCount int
	closed    bool
}

// New creates a mock engine with no delay.
func New() *Engine {
	return &Engine{wordsPerMinute: 150}
}

// Synthesize implements tts.Engine. Output is deterministic for a given
// text and voice options.
func (e *Engine) Synthesize(ctx context.Context, unit tts.Unit, opts tts.VoiceOptions) (*tts.Buffer, error) {
	e.mu.Lock()
	e.callCount++
	closed := e.closed
	delay := e.delay
	wpm := e.wordsPerMinute

	var err error
	if e.failErr != nil {
		err = e.failErr
		if e.failRemaining > 0 {
			e.failRemaining--
			if e.failRemaining == 0 {
				e.failErr = nil
			}
		}
	}
	e.mu.Unlock()

	if closed {
		return nil, tts.ErrEngineClosed
	}
	if err != nil {
		return nil, err
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d := estimateDuration(unit.Text, wpm, opts.Rate)
	n := int(d.Seconds() * float64(sampleRate))
	if n < 1 {
		n = 1
	}

	samples := make([]float32, n)
	// A low tone rather than silence so composition effects are
	// observable in tests.
	freq := 220.0 + float64(unit.Index%8)*55
	for i := range samples {
		samples[i] = 0.2 * float32(math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}

	return &tts.Buffer{Samples: samples, SampleRate: sampleRate}, nil
}

// Voices implements tts.Engine.
func (e *Engine) Voices() []tts.Voice {
	return []tts.Voice{
		{ID: "mock-voice-1", Name: "Mock Voice 1", Language: "en-US", Gender: "neutral"},
		{ID: "mock-voice-2", Name: "Mock Voice 2", Language: "en-GB", Gender: "female"},
		{ID: "mock-voice-3", Name: "Mock Voice 3", Language: "en-US", Gender: "male"},
	}
}

// Capabilities implements tts.Engine.
func (e *Engine) Capabilities() tts.Capabilities {
	return tts.Capabilities{
		MaxTextLength:   10000,
		RequiresNetwork: false,
		NativeRate:      sampleRate,
	}
}

// Close implements tts.Engine. Synthesize fails after Close.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// SetDelay sets a simulated processing delay per call.
func (e *Engine) SetDelay(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = d
}

// SetWordsPerMinute adjusts the simulated speaking rate.
func (e *Engine) SetWordsPerMinute(wpm int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if wpm > 0 {
		e.wordsPerMinute = wpm
	}
}

// SetFailure makes every subsequent Synthesize call return err until
// ClearFailure.
func (e *Engine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failErr = err
	e.failRemaining = 0
}

// SetFailureCount makes the next n Synthesize calls return err, then
// recover. Useful for exercising retry paths.
func (e *Engine) SetFailureCount(err error, n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failErr = err
	e.failRemaining = n
}

// ClearFailure resets the engine to normal operation.
func (e *Engine) ClearFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failErr = nil
	e.failRemaining = 0
}

// CallCount returns the number of Synthesize calls made.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

func estimateDuration(text string, wpm int, rate float64) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	if rate <= 0 {
		rate = 1.0
	}
	seconds := float64(words) * 60.0 / (float64(wpm) * rate)
	return time.Duration(seconds * float64(time.Second))
}
