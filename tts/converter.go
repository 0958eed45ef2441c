package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Converter orchestrates the conversion pipeline: it segments input text,
// drives the synthesis engine one unit at a time, composes the surviving
// buffers, and exports the result. The engine is treated as an exclusively
// held resource; the converter never issues overlapping synthesis calls.
type Converter struct {
	engine    Engine
	segmenter Segmenter
	composer  Composer
	exporter  Exporter
	cfg       Config
	logger    *log.Logger
}

// NewConverter creates a converter from its four collaborators and a
// validated configuration.
func NewConverter(engine Engine, segmenter Segmenter, composer Composer, exporter Exporter, cfg Config) *Converter {
	return &Converter{
		engine:    engine,
		segmenter: segmenter,
		composer:  composer,
		exporter:  exporter,
		cfg:       cfg,
		logger:    log.Default().With("component", "converter"),
	}
}

// SetLogger replaces the converter's logger.
func (c *Converter) SetLogger(logger *log.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Close releases the underlying engine.
func (c *Converter) Close() error {
	return c.engine.Close()
}

// ConvertText converts one text through the full pipeline and returns its
// item result. A degraded result carries the indices of units that failed
// synthesis; a nil-artifact result carries the terminal error. baseName may
// be empty, in which case a word-count/timestamp name is derived.
func (c *Converter) ConvertText(ctx context.Context, text, baseName string) ItemResult {
	if err := c.exporter.ValidateFormat(c.cfg.Format); err != nil {
		return ItemResult{Err: err}
	}
	return c.convert(ctx, text, baseName, 0)
}

// ConvertBatch converts each text independently, in input order. One item's
// failure never aborts the batch. Cancellation is checked between items;
// on cancellation the partial report is returned together with ctx.Err().
func (c *Converter) ConvertBatch(ctx context.Context, texts []string, prefix string) (*BatchReport, error) {
	if len(texts) == 0 {
		return nil, ErrNoContent
	}
	if err := c.exporter.ValidateFormat(c.cfg.Format); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "batch"
	}

	report := &BatchReport{}
	for i, text := range texts {
		select {
		case <-ctx.Done():
			c.logger.Warn("batch canceled", "completed", i, "total", len(texts))
			return report, ctx.Err()
		default:
		}

		name := fmt.Sprintf("%s_%03d", prefix, i+1)
		item := c.convert(ctx, text, name, i)
		report.Add(item)

		if item.OK() {
			c.logger.Info("batch item completed", "item", i+1, "total", len(texts), "path", item.Artifact.Path)
		} else {
			c.logger.Warn("batch item failed", "item", i+1, "total", len(texts), "error", item.Err)
		}
	}

	c.logger.Info("batch completed", "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// ConvertQuestionsAndAnswers converts each pair's answer to audio. The
// question is metadata only unless includeQuestions is set, in which case
// the spoken text is "Question: …. Answer: …". Artifacts are named qa_NNN
// so pair order stays recoverable from the filenames.
func (c *Converter) ConvertQuestionsAndAnswers(ctx context.Context, pairs []QAPair, includeQuestions bool) (*BatchReport, error) {
	if len(pairs) == 0 {
		return nil, ErrNoContent
	}

	texts := make([]string, len(pairs))
	for i, pair := range pairs {
		if includeQuestions && pair.Question != "" {
			texts[i] = fmt.Sprintf("Question: %s. Answer: %s", pair.Question, pair.Answer)
		} else {
			texts[i] = pair.Answer
		}
	}

	return c.ConvertBatch(ctx, texts, "qa")
}

// convert runs one text through segment → synthesize → compose → export.
// itemIndex is only used for reporting.
func (c *Converter) convert(ctx context.Context, text, baseName string, itemIndex int) ItemResult {
	sm := NewStateMachine()
	fail := func(err error) ItemResult {
		sm.Transition(StateFailed)
		c.logger.Debug("request failed", "state", sm.Current(), "error", err)
		return ItemResult{Index: itemIndex, Err: err}
	}

	sm.Transition(StateSegmenting)
	units, err := c.segmenter.Segment(text, c.maxUnitLength())
	if err != nil {
		return fail(err)
	}
	c.logger.Debug("text segmented", "units", len(units))

	sm.Transition(StateSynthesizing)
	opts := c.cfg.VoiceOptions()
	results := make([]Result, len(units))
	var failed []int
	for i, unit := range units {
		buf, err := c.synthesizeUnit(ctx, unit, opts)
		results[i] = Result{Unit: unit, Buffer: buf, Err: err}
		if err != nil {
			failed = append(failed, unit.Index)
			c.logger.Warn("unit synthesis failed", "unit", unit.Index, "error", err)
		}
	}

	sm.Transition(StateComposing)
	buf, err := c.composer.Compose(results, c.cfg.CompositionSpec())
	if err != nil {
		return fail(err)
	}

	sm.Transition(StateExporting)
	if baseName == "" {
		baseName = defaultBaseName(text)
	}
	artifact, err := c.exporter.Export(buf, baseName, c.cfg.Format)
	if err != nil {
		return fail(err)
	}

	sm.Transition(StateDone)
	if len(failed) > 0 {
		c.logger.Info("conversion degraded", "path", artifact.Path, "failed_units", failed)
	} else {
		c.logger.Debug("conversion completed", "path", artifact.Path, "duration", artifact.Duration)
	}

	return ItemResult{Index: itemIndex, Artifact: &artifact, FailedUnits: failed}
}

// synthesizeUnit calls the engine for one unit, retrying transient failures
// up to the configured bound with immediate re-invocation. A per-unit
// timeout bounds every attempt; an expired timeout marks the unit failed
// with ReasonTimeout and is not retried.
func (c *Converter) synthesizeUnit(ctx context.Context, unit Unit, opts VoiceOptions) (*Buffer, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		unitCtx, cancel := context.WithTimeout(ctx, c.cfg.UnitTimeout)
		buf, err := c.engine.Synthesize(unitCtx, unit, opts)
		cancel()

		if err == nil {
			if buf == nil || len(buf.Samples) == 0 {
				return nil, NewSynthesisError(unit.Index, ReasonBackend, false, errors.New("engine returned empty buffer"))
			}
			return buf, nil
		}

		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewSynthesisError(unit.Index, ReasonTimeout, false, err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, NewSynthesisError(unit.Index, ReasonTimeout, false, err)
		}

		lastErr = err
		if !IsTransient(err) {
			break
		}
		c.logger.Debug("retrying unit", "unit", unit.Index, "attempt", attempt+1)
	}
	return nil, lastErr
}

func (c *Converter) maxUnitLength() int {
	maxLen := c.cfg.MaxUnitLength
	if caps := c.engine.Capabilities(); caps.MaxTextLength > 0 && caps.MaxTextLength < maxLen {
		maxLen = caps.MaxTextLength
	}
	return maxLen
}

// defaultBaseName derives an artifact name from the text's word count and
// the current time.
func defaultBaseName(text string) string {
	words := len(strings.Fields(text))
	return fmt.Sprintf("tts_output_%dwords_%s", words, time.Now().Format("20060102_150405"))
}
