// Package engines wires synthesis engine implementations to configuration.
package engines

import (
	"fmt"

	"github.com/dgnsrekt/voxify/tts"
	"github.com/dgnsrekt/voxify/tts/engines/gtts"
	"github.com/dgnsrekt/voxify/tts/engines/mock"
	"github.com/dgnsrekt/voxify/tts/engines/piper"
)

// ForConfig builds the engine named by cfg.Engine.
func ForConfig(cfg tts.Config) (tts.Engine, error) {
	switch cfg.Engine {
	case "mock":
		eng := mock.New()
		if cfg.Mock.GenerationDelay > 0 {
			eng.SetDelay(cfg.Mock.GenerationDelay)
		}
		if cfg.Mock.WordsPerMinute > 0 {
			eng.SetWordsPerMinute(cfg.Mock.WordsPerMinute)
		}
		return eng, nil
	case "piper":
		return piper.New(piper.Config{
			Binary:     cfg.Piper.Binary,
			Model:      cfg.Piper.Model,
			ModelPath:  cfg.Piper.ModelPath,
			SampleRate: cfg.Piper.SampleRate,
			SpeakerID:  cfg.Piper.SpeakerID,
			Timeout:    cfg.Piper.Timeout,
		})
	case "gtts":
		return gtts.New(gtts.Config{
			Language:          cfg.GTTS.Language,
			Slow:              cfg.GTTS.Slow,
			RequestsPerMinute: cfg.GTTS.RequestsPerMinute,
			Timeout:           cfg.GTTS.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown engine: %q", cfg.Engine)
	}
}
