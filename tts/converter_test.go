package tts_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/voxify/tts"
	"github.com/dgnsrekt/voxify/tts/compose"
	"github.com/dgnsrekt/voxify/tts/engines/mock"
	"github.com/dgnsrekt/voxify/tts/export"
	"github.com/dgnsrekt/voxify/tts/segment"
)

func newTestConverter(t *testing.T, cfg tts.Config) (*tts.Converter, *mock.Engine) {
	t.Helper()
	engine := mock.New()
	conv := tts.NewConverter(
		engine,
		segment.NewSegmenter(),
		compose.NewComposer(),
		export.NewExporter(cfg.OutputDir),
		cfg,
	)
	t.Cleanup(func() { conv.Close() })
	return conv, engine
}

func testConfig(t *testing.T) tts.Config {
	cfg := tts.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.UnitTimeout = 5 * time.Second
	return cfg
}

func TestConvertTextProducesArtifact(t *testing.T) {
	cfg := testConfig(t)
	conv, _ := newTestConverter(t, cfg)

	item := conv.ConvertText(context.Background(), "Hello world. This is a test.", "greeting")
	if !item.OK() {
		t.Fatalf("ConvertText failed: %v", item.Err)
	}

	if item.Artifact.Path != filepath.Join(cfg.OutputDir, "greeting.wav") {
		t.Errorf("Unexpected artifact path: %s", item.Artifact.Path)
	}
	if item.Artifact.Duration <= 0 {
		t.Error("Artifact duration not set")
	}
	if _, err := os.Stat(item.Artifact.Path); err != nil {
		t.Errorf("Artifact file missing: %v", err)
	}
}

func TestConvertTextDefaultName(t *testing.T) {
	cfg := testConfig(t)
	conv, _ := newTestConverter(t, cfg)

	item := conv.ConvertText(context.Background(), "One two three four five.", "")
	if !item.OK() {
		t.Fatalf("ConvertText failed: %v", item.Err)
	}

	base := filepath.Base(item.Artifact.Path)
	if !strings.HasPrefix(base, "tts_output_5words_") {
		t.Errorf("Expected word-count name, got %s", base)
	}
}

func TestConvertTextEmptyInput(t *testing.T) {
	cfg := testConfig(t)
	conv, engine := newTestConverter(t, cfg)

	item := conv.ConvertText(context.Background(), "   ", "empty")
	if !errors.Is(item.Err, tts.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", item.Err)
	}
	if engine.CallCount() != 0 {
		t.Errorf("Engine should not be called for empty input, got %d calls", engine.CallCount())
	}
}

func TestConvertTextRejectsFormatBeforeSynthesis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Format = "ogg"
	conv, engine := newTestConverter(t, cfg)

	item := conv.ConvertText(context.Background(), "Hello world.", "out")
	if !errors.Is(item.Err, tts.ErrUnsupportedFormat) {
		t.Fatalf("Expected ErrUnsupportedFormat, got %v", item.Err)
	}
	if engine.CallCount() != 0 {
		t.Errorf("Engine called %d times before format validation", engine.CallCount())
	}
}

func TestConvertTextRetriesTransientFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retries = 2
	conv, engine := newTestConverter(t, cfg)

	transient := tts.NewSynthesisError(0, tts.ReasonUnavailable, true, errors.New("hiccup"))
	engine.SetFailureCount(transient, 2)

	item := conv.ConvertText(context.Background(), "Short text.", "retried")
	if !item.OK() {
		t.Fatalf("Expected success after retries: %v", item.Err)
	}
	if engine.CallCount() != 3 {
		t.Errorf("Expected 3 attempts, got %d", engine.CallCount())
	}
	if item.Degraded() {
		t.Error("Result should not be degraded after successful retry")
	}
}

func TestConvertTextDoesNotRetryPermanentFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retries = 2
	conv, engine := newTestConverter(t, cfg)

	permanent := tts.NewSynthesisError(0, tts.ReasonBadText, false, errors.New("nope"))
	engine.SetFailure(permanent)

	item := conv.ConvertText(context.Background(), "Short text.", "failed")
	if item.OK() {
		t.Fatal("Expected failure")
	}
	if engine.CallCount() != 1 {
		t.Errorf("Permanent failure retried: %d calls", engine.CallCount())
	}
}

func TestConvertTextTimeoutNotRetried(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retries = 2
	cfg.UnitTimeout = 30 * time.Millisecond
	conv, engine := newTestConverter(t, cfg)
	engine.SetDelay(5 * time.Second)

	item := conv.ConvertText(context.Background(), "Slow text.", "slow")
	if item.OK() {
		t.Fatal("Expected timeout failure")
	}
	if engine.CallCount() != 1 {
		t.Errorf("Timed-out unit retried: %d calls", engine.CallCount())
	}

	var synthErr *tts.SynthesisError
	if !errors.As(item.Err, &synthErr) {
		// All units failed, so the terminal error is a composition error
		// carrying the unit indices.
		var compErr *tts.CompositionError
		if !errors.As(item.Err, &compErr) {
			t.Fatalf("Expected composition error, got %v", item.Err)
		}
	}
}

func TestConvertTextDegradedResult(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retries = 0
	cfg.MaxUnitLength = 20
	conv, engine := newTestConverter(t, cfg)

	// The first synthesis call fails permanently, later ones succeed.
	permanent := tts.NewSynthesisError(0, tts.ReasonBackend, false, errors.New("boom"))
	engine.SetFailureCount(permanent, 1)

	item := conv.ConvertText(context.Background(), "First sentence here. Second sentence here.", "degraded")
	if !item.OK() {
		t.Fatalf("Expected degraded success, got error: %v", item.Err)
	}
	if !item.Degraded() {
		t.Fatal("Expected degraded result")
	}
	if len(item.FailedUnits) != 1 || item.FailedUnits[0] != 0 {
		t.Errorf("Expected failed unit [0], got %v", item.FailedUnits)
	}
}

func TestConvertTextAllUnitsFailed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retries = 0
	conv, engine := newTestConverter(t, cfg)
	engine.SetFailure(tts.NewSynthesisError(0, tts.ReasonBackend, false, errors.New("dead")))

	item := conv.ConvertText(context.Background(), "Doomed text.", "doomed")
	if item.OK() {
		t.Fatal("Expected failure when every unit fails")
	}

	var compErr *tts.CompositionError
	if !errors.As(item.Err, &compErr) {
		t.Fatalf("Expected CompositionError, got %v", item.Err)
	}

	// No partial artifact may be written.
	entries, _ := os.ReadDir(cfg.OutputDir)
	if len(entries) != 0 {
		t.Errorf("Expected no artifacts, found %d", len(entries))
	}
}

func TestConvertBatch(t *testing.T) {
	cfg := testConfig(t)
	conv, _ := newTestConverter(t, cfg)

	texts := []string{
		"The first item in the batch.",
		"The second item in the batch.",
	}
	report, err := conv.ConvertBatch(context.Background(), texts, "chapter")
	if err != nil {
		t.Fatalf("ConvertBatch failed: %v", err)
	}

	if report.Succeeded != 2 || report.Failed != 0 {
		t.Fatalf("Expected 2 successes, got %d/%d", report.Succeeded, report.Failed)
	}
	wantNames := []string{"chapter_001.wav", "chapter_002.wav"}
	for i, item := range report.Items {
		if filepath.Base(item.Artifact.Path) != wantNames[i] {
			t.Errorf("Item %d: expected %s, got %s", i, wantNames[i], filepath.Base(item.Artifact.Path))
		}
	}
	if report.TotalDuration <= 0 || report.TotalBytes <= 0 {
		t.Error("Report totals not accumulated")
	}
}

func TestConvertBatchIsolatesFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retries = 0
	conv, engine := newTestConverter(t, cfg)

	// One failing call: the first item degrades to total failure, the
	// second item proceeds untouched.
	engine.SetFailureCount(tts.NewSynthesisError(0, tts.ReasonBackend, false, errors.New("boom")), 1)

	report, err := conv.ConvertBatch(context.Background(), []string{"Item one.", "Item two."}, "b")
	if err != nil {
		t.Fatalf("ConvertBatch failed: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Errorf("Expected 1 success and 1 failure, got %d/%d", report.Succeeded, report.Failed)
	}
	if report.Items[0].OK() {
		t.Error("First item should have failed")
	}
	if !report.Items[1].OK() {
		t.Errorf("Second item should have succeeded: %v", report.Items[1].Err)
	}
}

func TestConvertBatchEmpty(t *testing.T) {
	cfg := testConfig(t)
	conv, _ := newTestConverter(t, cfg)

	_, err := conv.ConvertBatch(context.Background(), nil, "b")
	if !errors.Is(err, tts.ErrNoContent) {
		t.Errorf("Expected ErrNoContent, got %v", err)
	}
}

func TestConvertBatchCancellation(t *testing.T) {
	cfg := testConfig(t)
	conv, engine := newTestConverter(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := conv.ConvertBatch(ctx, []string{"One.", "Two.", "Three."}, "c")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if report == nil {
		t.Fatal("Expected partial report on cancellation")
	}
	if report.Total() != 0 {
		t.Errorf("Expected no items converted, got %d", report.Total())
	}
	if engine.CallCount() != 0 {
		t.Errorf("Engine called after cancellation: %d", engine.CallCount())
	}
}

func TestConvertQuestionsAndAnswers(t *testing.T) {
	cfg := testConfig(t)
	conv, _ := newTestConverter(t, cfg)

	pairs := []tts.QAPair{
		{Question: "What is the capital of France?", Answer: "The capital of France is Paris."},
		{Question: "What is two plus two?", Answer: "Two plus two equals four."},
	}

	report, err := conv.ConvertQuestionsAndAnswers(context.Background(), pairs, false)
	if err != nil {
		t.Fatalf("ConvertQuestionsAndAnswers failed: %v", err)
	}
	if report.Succeeded != 2 {
		t.Fatalf("Expected 2 artifacts, got %d", report.Succeeded)
	}

	wantNames := []string{"qa_001.wav", "qa_002.wav"}
	for i, item := range report.Items {
		if filepath.Base(item.Artifact.Path) != wantNames[i] {
			t.Errorf("Item %d: expected %s, got %s", i, wantNames[i], filepath.Base(item.Artifact.Path))
		}
	}
}

func TestConvertQAIncludeQuestionsSpeaksMore(t *testing.T) {
	cfg := testConfig(t)
	conv, _ := newTestConverter(t, cfg)

	pairs := []tts.QAPair{
		{Question: "What is the answer to everything?", Answer: "Forty two."},
	}

	answerOnly, err := conv.ConvertQuestionsAndAnswers(context.Background(), pairs, false)
	if err != nil {
		t.Fatalf("Answer-only conversion failed: %v", err)
	}
	withQuestions, err := conv.ConvertQuestionsAndAnswers(context.Background(), pairs, true)
	if err != nil {
		t.Fatalf("Question-inclusive conversion failed: %v", err)
	}

	// The mock engine's output length tracks word count, so speaking the
	// question must lengthen the artifact.
	if withQuestions.TotalDuration <= answerOnly.TotalDuration {
		t.Errorf("Expected longer audio with questions: %v vs %v",
			withQuestions.TotalDuration, answerOnly.TotalDuration)
	}
}

func TestConvertQAEmpty(t *testing.T) {
	cfg := testConfig(t)
	conv, _ := newTestConverter(t, cfg)

	_, err := conv.ConvertQuestionsAndAnswers(context.Background(), nil, false)
	if !errors.Is(err, tts.ErrNoContent) {
		t.Errorf("Expected ErrNoContent, got %v", err)
	}
}
