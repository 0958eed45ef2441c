package tts

import (
	"fmt"
	"strings"
	"time"
)

// Config contains all conversion pipeline options.
type Config struct {
	// Engine selection
	Engine string `yaml:"engine" env:"VOXIFY_ENGINE" envDefault:"mock"`

	// Output settings
	OutputDir string `yaml:"output_dir" env:"VOXIFY_OUTPUT_DIR" envDefault:"output"`
	Format    string `yaml:"format" env:"VOXIFY_FORMAT" envDefault:"wav"`
	Overwrite bool   `yaml:"overwrite" env:"VOXIFY_OVERWRITE" envDefault:"false"`

	// Voice settings
	Voice    string  `yaml:"voice" env:"VOXIFY_VOICE"`
	Language string  `yaml:"language" env:"VOXIFY_LANGUAGE" envDefault:"en-US"`
	Rate     float64 `yaml:"rate" env:"VOXIFY_RATE" envDefault:"1.0"`

	// Segmentation settings
	MaxUnitLength int  `yaml:"max_unit_length" env:"VOXIFY_MAX_UNIT_LENGTH" envDefault:"500"`
	CleanText     bool `yaml:"clean_text" env:"VOXIFY_CLEAN_TEXT" envDefault:"false"`

	// Composition settings
	SampleRate     int           `yaml:"sample_rate" env:"VOXIFY_SAMPLE_RATE" envDefault:"16000"`
	Gap            time.Duration `yaml:"gap" env:"VOXIFY_GAP" envDefault:"500ms"`
	Normalize      bool          `yaml:"normalize" env:"VOXIFY_NORMALIZE" envDefault:"true"`
	Fade           bool          `yaml:"fade" env:"VOXIFY_FADE" envDefault:"true"`
	NoiseReduction bool          `yaml:"noise_reduction" env:"VOXIFY_NOISE_REDUCTION" envDefault:"false"`

	// Synthesis scheduling
	UnitTimeout time.Duration `yaml:"unit_timeout" env:"VOXIFY_UNIT_TIMEOUT" envDefault:"30s"`
	Retries     int           `yaml:"retries" env:"VOXIFY_RETRIES" envDefault:"2"`

	// Engine-specific configurations
	Piper PiperConfig `yaml:"piper"`
	GTTS  GTTSConfig  `yaml:"gtts"`
	Mock  MockConfig  `yaml:"mock"`
}

// PiperConfig contains piper engine specific settings.
type PiperConfig struct {
	Binary     string        `yaml:"binary" env:"VOXIFY_PIPER_BINARY" envDefault:"piper"`
	Model      string        `yaml:"model" env:"VOXIFY_PIPER_MODEL" envDefault:"en_US-lessac-medium"`
	ModelPath  string        `yaml:"model_path" env:"VOXIFY_PIPER_MODEL_PATH"`
	SampleRate int           `yaml:"sample_rate" env:"VOXIFY_PIPER_SAMPLE_RATE" envDefault:"22050"`
	SpeakerID  int           `yaml:"speaker_id" env:"VOXIFY_PIPER_SPEAKER_ID" envDefault:"0"`
	Timeout    time.Duration `yaml:"timeout" env:"VOXIFY_PIPER_TIMEOUT" envDefault:"30s"`
}

// GTTSConfig contains settings for the Google Translate TTS engine.
type GTTSConfig struct {
	Language          string        `yaml:"language" env:"VOXIFY_GTTS_LANGUAGE" envDefault:"en"`
	Slow              bool          `yaml:"slow" env:"VOXIFY_GTTS_SLOW" envDefault:"false"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"VOXIFY_GTTS_RPM" envDefault:"50"`
	Timeout           time.Duration `yaml:"timeout" env:"VOXIFY_GTTS_TIMEOUT" envDefault:"10s"`
}

// MockConfig contains mock engine settings for testing.
type MockConfig struct {
	GenerationDelay time.Duration `yaml:"generation_delay" env:"VOXIFY_MOCK_GENERATION_DELAY" envDefault:"0ms"`
	WordsPerMinute  int           `yaml:"words_per_minute" env:"VOXIFY_MOCK_WORDS_PER_MINUTE" envDefault:"150"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:    "mock",
		OutputDir: "output",
		Format:    "wav",
		Overwrite: false,

		Language: "en-US",
		Rate:     1.0,

		MaxUnitLength: 500,
		CleanText:     false,

		SampleRate:     16000,
		Gap:            500 * time.Millisecond,
		Normalize:      true,
		Fade:           true,
		NoiseReduction: false,

		UnitTimeout: 30 * time.Second,
		Retries:     2,

		Piper: PiperConfig{
			Binary:     "piper",
			Model:      "en_US-lessac-medium",
			SampleRate: 22050,
			Timeout:    30 * time.Second,
		},
		GTTS: GTTSConfig{
			Language:          "en",
			RequestsPerMinute: 50,
			Timeout:           10 * time.Second,
		},
		Mock: MockConfig{
			WordsPerMinute: 150,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validEngines := []string{"mock", "piper", "gtts"}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			engineValid = true
			c.Engine = strings.ToLower(c.Engine)
			break
		}
	}
	if !engineValid {
		return fmt.Errorf("invalid engine '%s': must be one of %v", c.Engine, validEngines)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	validSampleRates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	sampleRateValid := false
	for _, sr := range validSampleRates {
		if c.SampleRate == sr {
			sampleRateValid = true
			break
		}
	}
	if !sampleRateValid {
		return fmt.Errorf("invalid sample rate %d: must be one of %v", c.SampleRate, validSampleRates)
	}

	if c.MaxUnitLength < 10 {
		return fmt.Errorf("max_unit_length must be at least 10, got %d", c.MaxUnitLength)
	}

	if c.Gap < 0 || c.Gap > 10*time.Second {
		return fmt.Errorf("gap must be between 0 and 10s, got %v", c.Gap)
	}

	if c.Rate < 0.25 || c.Rate > 4.0 {
		return fmt.Errorf("rate must be between 0.25 and 4.0, got %f", c.Rate)
	}

	if c.Retries < 0 || c.Retries > 10 {
		return fmt.Errorf("retries must be between 0 and 10, got %d", c.Retries)
	}

	if c.UnitTimeout < time.Second {
		return fmt.Errorf("unit_timeout must be at least 1 second, got %v", c.UnitTimeout)
	}

	switch c.Engine {
	case "piper":
		if err := c.Piper.Validate(); err != nil {
			return fmt.Errorf("piper config: %w", err)
		}
	case "gtts":
		if err := c.GTTS.Validate(); err != nil {
			return fmt.Errorf("gtts config: %w", err)
		}
	}

	return nil
}

// Validate checks if the piper configuration is valid.
func (c *PiperConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("binary path cannot be empty")
	}
	if c.Model == "" && c.ModelPath == "" {
		return fmt.Errorf("either model or model_path must be set")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}
	return nil
}

// Validate checks if the gtts configuration is valid.
func (c *GTTSConfig) Validate() error {
	if c.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}
	if c.RequestsPerMinute < 1 || c.RequestsPerMinute > 300 {
		return fmt.Errorf("requests_per_minute must be between 1 and 300, got %d", c.RequestsPerMinute)
	}
	return nil
}

// VoiceOptions derives the synthesis options from the configuration.
func (c *Config) VoiceOptions() VoiceOptions {
	return VoiceOptions{
		Voice:    c.Voice,
		Language: c.Language,
		Rate:     c.Rate,
	}
}

// CompositionSpec derives the composition policy from the configuration.
func (c *Config) CompositionSpec() CompositionSpec {
	return CompositionSpec{
		Gap:            c.Gap,
		SampleRate:     c.SampleRate,
		Normalize:      c.Normalize,
		Fade:           c.Fade,
		NoiseReduction: c.NoiseReduction,
	}
}
