package gtts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/voxify/tts"
)

func TestNewDefaults(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if e.cfg.Language != "en" {
		t.Errorf("Expected default language en, got %s", e.cfg.Language)
	}
	if e.cfg.RequestsPerMinute != 50 {
		t.Errorf("Expected default rate limit 50, got %d", e.cfg.RequestsPerMinute)
	}
	if e.cfg.Timeout != 10*time.Second {
		t.Errorf("Expected default timeout 10s, got %v", e.cfg.Timeout)
	}
}

func TestLanguageNormalization(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"FR", "fr"},
		{"pt-BR", "pt"},
	}

	for _, tt := range tests {
		e, err := New(Config{Language: tt.in})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if got := e.language(); got != tt.want {
			t.Errorf("language(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSynthesizeRejectsBadText(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close()

	var synthErr *tts.SynthesisError

	_, err = e.Synthesize(context.Background(), tts.Unit{Text: "  "}, tts.VoiceOptions{})
	if !errors.As(err, &synthErr) || synthErr.Reason != tts.ReasonBadText {
		t.Errorf("Expected bad text error for blank unit, got %v", err)
	}

	long := make([]byte, maxTextSize+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = e.Synthesize(context.Background(), tts.Unit{Text: string(long)}, tts.VoiceOptions{})
	if !errors.As(err, &synthErr) || synthErr.Reason != tts.ReasonBadText {
		t.Errorf("Expected bad text error for oversized unit, got %v", err)
	}
}

func TestSynthesizeAfterClose(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	e.Close()

	_, err = e.Synthesize(context.Background(), tts.Unit{Text: "hello"}, tts.VoiceOptions{})
	if !errors.Is(err, tts.ErrEngineClosed) {
		t.Errorf("Expected ErrEngineClosed, got %v", err)
	}
}

func TestCapabilities(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	caps := e.Capabilities()
	if !caps.RequiresNetwork {
		t.Error("Expected RequiresNetwork")
	}
	if caps.MaxTextLength != maxTextSize {
		t.Errorf("Expected max text %d, got %d", maxTextSize, caps.MaxTextLength)
	}
}

func TestVoices(t *testing.T) {
	e, err := New(Config{Language: "fr"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	voices := e.Voices()
	if len(voices) != 1 {
		t.Fatalf("Expected 1 voice, got %d", len(voices))
	}
	if voices[0].Language != "fr" {
		t.Errorf("Expected fr voice, got %s", voices[0].Language)
	}
}
