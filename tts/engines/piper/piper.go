// Package piper runs the piper binary for offline neural synthesis.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voxify/tts"
	"github.com/dgnsrekt/voxify/tts/compose"
)

const (
	defaultSampleRate = 22050
	maxTextSize       = 5000
	maxAudioSize      = 50 * 1024 * 1024
)

// Config holds piper engine settings.
type Config struct {
	// Binary is the piper executable name or path.
	Binary string

	// Model is the voice model name, used for reporting only.
	Model string

	// ModelPath is the .onnx model file (required).
	ModelPath string

	// SampleRate of the model's raw output. Piper models ship at 22050Hz
	// unless stated otherwise in their config.
	SampleRate int

	// SpeakerID selects a speaker in multi-speaker models.
	SpeakerID int

	// Timeout bounds one synthesis invocation.
	Timeout time.Duration
}

// Engine shells out to piper with --output-raw and parses the PCM stream.
// A fresh process per call keeps state isolation simple; stdin is
// pre-configured before the process starts so piper never races a writer.
type Engine struct {
	cfg    Config
	logger *log.Logger
	closed bool
}

// New creates a piper engine after checking the model file exists.
func New(cfg Config) (*Engine, error) {
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	if cfg.ModelPath == "" {
		return nil, errors.New("piper: model path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("piper: model file not found: %w", err)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Engine{
		cfg:    cfg,
		logger: log.Default().With("component", "piper"),
	}, nil
}

// Synthesize implements tts.Engine.
func (e *Engine) Synthesize(ctx context.Context, unit tts.Unit, opts tts.VoiceOptions) (*tts.Buffer, error) {
	if e.closed {
		return nil, tts.ErrEngineClosed
	}
	if strings.TrimSpace(unit.Text) == "" {
		return nil, tts.NewSynthesisError(unit.Index, tts.ReasonBadText, false, errors.New("empty text"))
	}
	if len(unit.Text) > maxTextSize {
		return nil, tts.NewSynthesisError(unit.Index, tts.ReasonBadText, false,
			fmt.Errorf("text too long: %d bytes (max %d)", len(unit.Text), maxTextSize))
	}

	// Piper's length scale is inverse speed: 2.0 plays at half speed.
	rate := opts.Rate
	if rate <= 0 {
		rate = 1.0
	}
	args := []string{
		"--model", e.cfg.ModelPath,
		"--output-raw",
		"--length-scale", fmt.Sprintf("%.2f", 1.0/rate),
	}
	if e.cfg.SpeakerID > 0 {
		args = append(args, "--speaker", strconv.Itoa(e.cfg.SpeakerID))
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.cfg.Binary, args...)
	cmd.Stdin = strings.NewReader(unit.Text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Process-level failures are usually environmental and worth a
		// retry.
		return nil, tts.NewSynthesisError(unit.Index, tts.ReasonBackend, true,
			fmt.Errorf("piper failed: %w, stderr: %s", err, stderr.String()))
	}

	raw := stdout.Bytes()
	if len(raw) == 0 {
		return nil, tts.NewSynthesisError(unit.Index, tts.ReasonBackend, true,
			fmt.Errorf("piper produced no audio, stderr: %s", stderr.String()))
	}
	if len(raw) > maxAudioSize {
		return nil, tts.NewSynthesisError(unit.Index, tts.ReasonBackend, false,
			fmt.Errorf("piper output too large: %d bytes", len(raw)))
	}

	samples := compose.BytesToFloat32(raw)
	e.logger.Debug("synthesized unit", "unit", unit.Index, "samples", len(samples), "took", time.Since(start))

	return &tts.Buffer{Samples: samples, SampleRate: e.cfg.SampleRate}, nil
}

// Voices implements tts.Engine. Piper exposes one voice per model file.
func (e *Engine) Voices() []tts.Voice {
	name := e.cfg.Model
	if name == "" {
		name = strings.TrimSuffix(e.cfg.ModelPath, ".onnx")
	}
	return []tts.Voice{{
		ID:       name,
		Name:     name,
		Language: languageFromModel(name),
	}}
}

// Capabilities implements tts.Engine.
func (e *Engine) Capabilities() tts.Capabilities {
	return tts.Capabilities{
		MaxTextLength:   maxTextSize,
		RequiresNetwork: false,
		NativeRate:      e.cfg.SampleRate,
	}
}

// Close implements tts.Engine.
func (e *Engine) Close() error {
	e.closed = true
	return nil
}

// languageFromModel extracts the locale prefix from names like
// "en_US-lessac-medium".
func languageFromModel(name string) string {
	if idx := strings.IndexByte(name, '-'); idx > 0 {
		return strings.ReplaceAll(name[:idx], "_", "-")
	}
	return ""
}
