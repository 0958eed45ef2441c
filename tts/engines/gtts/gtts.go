// Package gtts synthesizes speech through the Google Translate TTS
// endpoint. It needs no API key, which makes it the easiest networked
// engine to try, but requests must stay below Google's informal limits.
package gtts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	mp3 "github.com/hajimehoshi/go-mp3"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/voxify/tts"
	"github.com/dgnsrekt/voxify/tts/compose"
)

const (
	endpoint = "https://translate.google.com/translate_tts"

	// Google rejects long q parameters.
	maxTextSize = 200

	maxResponseSize = 10 * 1024 * 1024
)

// Config holds gtts engine settings.
type Config struct {
	// Language is a two letter code like "en" or "fr".
	Language string

	// Slow requests the half-speed variant.
	Slow bool

	// RequestsPerMinute throttles outgoing requests so Google does not
	// block the client.
	RequestsPerMinute int

	// Timeout bounds one HTTP request.
	Timeout time.Duration
}

// Engine fetches MP3 audio over HTTP and decodes it to PCM.
type Engine struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
	closed  bool
}

// New creates a gtts engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Engine{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		logger:  log.Default().With("component", "gtts"),
	}, nil
}

// Synthesize implements tts.Engine.
func (e *Engine) Synthesize(ctx context.Context, unit tts.Unit, opts tts.VoiceOptions) (*tts.Buffer, error) {
	if e.closed {
		return nil, tts.ErrEngineClosed
	}
	text := strings.TrimSpace(unit.Text)
	if text == "" {
		return nil, tts.NewSynthesisError(unit.Index, tts.ReasonBadText, false, errors.New("empty text"))
	}
	if len(text) > maxTextSize {
		return nil, tts.NewSynthesisError(unit.Index, tts.ReasonBadText, false,
			fmt.Errorf("text too long: %d bytes (max %d)", len(text), maxTextSize))
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	mp3Data, err := e.fetch(ctx, text, unit.Index)
	if err != nil {
		return nil, err
	}

	samples, sampleRate, err := decodeMP3(ctx, mp3Data)
	if err != nil {
		return nil, tts.NewSynthesisError(unit.Index, tts.ReasonBackend, false,
			fmt.Errorf("mp3 decode: %w", err))
	}

	e.logger.Debug("synthesized unit", "unit", unit.Index, "mp3_bytes", len(mp3Data), "samples", len(samples))
	return &tts.Buffer{Samples: samples, SampleRate: sampleRate}, nil
}

func (e *Engine) fetch(ctx context.Context, text string, unitIndex int) ([]byte, error) {
	lang := e.language()

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)
	if e.cfg.Slow {
		q.Set("ttsspeed", "0.3")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Network errors are worth a retry.
		return nil, tts.NewSynthesisError(unitIndex, tts.ReasonUnavailable, true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, tts.NewSynthesisError(unitIndex, tts.ReasonUnavailable, transient,
			fmt.Errorf("translate_tts returned %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, tts.NewSynthesisError(unitIndex, tts.ReasonUnavailable, true, err)
	}
	if len(data) == 0 {
		return nil, tts.NewSynthesisError(unitIndex, tts.ReasonBackend, true, errors.New("empty response body"))
	}
	return data, nil
}

// decodeMP3 decodes MP3 frames to mono float samples. go-mp3 always emits
// 16-bit stereo, so the two channels are averaged.
func decodeMP3(ctx context.Context, data []byte) ([]float32, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}

	var pcm bytes.Buffer
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}
		n, err := decoder.Read(buf)
		if n > 0 {
			pcm.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}

	stereo := compose.BytesToFloat32(pcm.Bytes())
	mono := make([]float32, len(stereo)/2)
	for i := range mono {
		mono[i] = (stereo[i*2] + stereo[i*2+1]) / 2
	}
	return mono, decoder.SampleRate(), nil
}

// Voices implements tts.Engine. The endpoint exposes one voice per
// language.
func (e *Engine) Voices() []tts.Voice {
	lang := e.language()
	return []tts.Voice{{
		ID:       "gtts-" + lang,
		Name:     "Google Translate (" + lang + ")",
		Language: lang,
	}}
}

// Capabilities implements tts.Engine.
func (e *Engine) Capabilities() tts.Capabilities {
	return tts.Capabilities{
		MaxTextLength:   maxTextSize,
		RequiresNetwork: true,
		NativeRate:      24000,
	}
}

// Close implements tts.Engine.
func (e *Engine) Close() error {
	e.closed = true
	e.client.CloseIdleConnections()
	return nil
}

func (e *Engine) language() string {
	// "en-US" style codes are trimmed to the primary subtag.
	lang := e.cfg.Language
	if idx := strings.IndexByte(lang, '-'); idx > 0 {
		lang = lang[:idx]
	}
	return strings.ToLower(lang)
}
