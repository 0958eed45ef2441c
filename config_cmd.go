package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# synthesis engine: mock, piper, or gtts
engine: "mock"

# where audio artifacts are written
output_dir: "output"
# output format: wav or ulaw
format: "wav"
# overwrite existing files instead of suffixing _1, _2, ...
overwrite: false

# voice selection
# voice: "en_US-lessac-medium"
language: "en-US"
# speech rate multiplier (0.5 to 2.0)
rate: 1.0

# longest text chunk handed to the engine, in characters
max_unit_length: 500
# normalize abbreviations, numbers and symbols before synthesis
clean_text: false

# composition settings
sample_rate: 16000
# silence inserted between sentences
gap: "500ms"
normalize: true
fade: true
noise_reduction: false

# per-sentence synthesis timeout and retry count
unit_timeout: "30s"
retries: 2

# piper engine configuration
piper:
  binary: "piper"
  model: "en_US-lessac-medium"
  # model_path: "/path/to/model.onnx"
  sample_rate: 22050
  speaker_id: 0
  timeout: "30s"

# gtts engine configuration
gtts:
  language: "en"
  slow: false
  requests_per_minute: 50
  timeout: "10s"

# mock engine configuration (for testing)
mock:
  generation_delay: "0ms"
  words_per_minute: 150
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the voxify config file",
	Long:    paragraph(fmt.Sprintf("\n%s the voxify config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("voxify config\nvoxify config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Voxify", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
