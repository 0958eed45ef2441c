package tts

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// LoadConfigFromViper builds a Config from viper-managed settings, layered
// over the defaults and environment variables. Precedence: defaults < env <
// config file / flags bound into viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	// Environment variables override defaults.
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}

	if viper.IsSet("engine") {
		cfg.Engine = viper.GetString("engine")
	}
	if viper.IsSet("output_dir") {
		cfg.OutputDir = viper.GetString("output_dir")
	}
	if viper.IsSet("format") {
		cfg.Format = viper.GetString("format")
	}
	if viper.IsSet("overwrite") {
		cfg.Overwrite = viper.GetBool("overwrite")
	}

	if viper.IsSet("voice") {
		cfg.Voice = viper.GetString("voice")
	}
	if viper.IsSet("language") {
		cfg.Language = viper.GetString("language")
	}
	if viper.IsSet("rate") {
		cfg.Rate = viper.GetFloat64("rate")
	}

	if viper.IsSet("max_unit_length") {
		cfg.MaxUnitLength = viper.GetInt("max_unit_length")
	}
	if viper.IsSet("clean_text") {
		cfg.CleanText = viper.GetBool("clean_text")
	}

	if viper.IsSet("sample_rate") {
		cfg.SampleRate = viper.GetInt("sample_rate")
	}
	if viper.IsSet("gap") {
		cfg.Gap = viper.GetDuration("gap")
	}
	if viper.IsSet("normalize") {
		cfg.Normalize = viper.GetBool("normalize")
	}
	if viper.IsSet("fade") {
		cfg.Fade = viper.GetBool("fade")
	}
	if viper.IsSet("noise_reduction") {
		cfg.NoiseReduction = viper.GetBool("noise_reduction")
	}

	if viper.IsSet("unit_timeout") {
		cfg.UnitTimeout = viper.GetDuration("unit_timeout")
	}
	if viper.IsSet("retries") {
		cfg.Retries = viper.GetInt("retries")
	}

	// Piper engine settings
	if viper.IsSet("piper.binary") {
		cfg.Piper.Binary = viper.GetString("piper.binary")
	}
	if viper.IsSet("piper.model") {
		cfg.Piper.Model = viper.GetString("piper.model")
	}
	if viper.IsSet("piper.model_path") {
		cfg.Piper.ModelPath = viper.GetString("piper.model_path")
	}
	if viper.IsSet("piper.sample_rate") {
		cfg.Piper.SampleRate = viper.GetInt("piper.sample_rate")
	}
	if viper.IsSet("piper.speaker_id") {
		cfg.Piper.SpeakerID = viper.GetInt("piper.speaker_id")
	}
	if viper.IsSet("piper.timeout") {
		cfg.Piper.Timeout = viper.GetDuration("piper.timeout")
	}

	// gTTS engine settings
	if viper.IsSet("gtts.language") {
		cfg.GTTS.Language = viper.GetString("gtts.language")
	}
	if viper.IsSet("gtts.slow") {
		cfg.GTTS.Slow = viper.GetBool("gtts.slow")
	}
	if viper.IsSet("gtts.requests_per_minute") {
		cfg.GTTS.RequestsPerMinute = viper.GetInt("gtts.requests_per_minute")
	}
	if viper.IsSet("gtts.timeout") {
		cfg.GTTS.Timeout = viper.GetDuration("gtts.timeout")
	}

	// Mock engine settings
	if viper.IsSet("mock.generation_delay") {
		cfg.Mock.GenerationDelay = viper.GetDuration("mock.generation_delay")
	}
	if viper.IsSet("mock.words_per_minute") {
		cfg.Mock.WordsPerMinute = viper.GetInt("mock.words_per_minute")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
