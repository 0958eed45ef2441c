// Package export writes composed audio buffers to disk.
package export

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/zaf/g711"

	"github.com/dgnsrekt/voxify/tts"
	"github.com/dgnsrekt/voxify/tts/compose"
)

const (
	// FormatWAV writes a 16-bit PCM WAV container.
	FormatWAV = "wav"
	// FormatULaw writes raw G.711 mu-law frames with no container.
	FormatULaw = "ulaw"
)

var formatExtensions = map[string]string{
	FormatWAV:  ".wav",
	FormatULaw: ".ul",
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(formatExtensions))
	for name := range formatExtensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exporter writes buffers into an output directory with deterministic
// names. Existing files are never silently overwritten; a numeric suffix
// is appended instead unless Overwrite is set.
type Exporter struct {
	OutputDir string
	Overwrite bool

	logger *log.Logger
}

// NewExporter creates an exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{
		OutputDir: dir,
		logger:    log.Default().With("component", "exporter"),
	}
}

// ValidateFormat implements part of tts.Exporter. Unknown formats report
// tts.ErrUnsupportedFormat with the valid set named.
func (e *Exporter) ValidateFormat(format string) error {
	if _, ok := formatExtensions[strings.ToLower(format)]; !ok {
		return fmt.Errorf("%w: %q (supported: %s)",
			tts.ErrUnsupportedFormat, format, strings.Join(Formats(), ", "))
	}
	return nil
}

// Export implements tts.Exporter. The artifact path is OutputDir joined
// with baseName plus the format's extension.
func (e *Exporter) Export(buf *tts.Buffer, baseName, format string) (tts.Artifact, error) {
	if err := e.ValidateFormat(format); err != nil {
		return tts.Artifact{}, err
	}
	if buf == nil || len(buf.Samples) == 0 {
		return tts.Artifact{}, tts.ErrNoContent
	}

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return tts.Artifact{}, &tts.ExportError{
			Path:   e.OutputDir,
			Reason: "create output directory",
			Err:    err,
		}
	}

	format = strings.ToLower(format)
	path, err := e.resolvePath(baseName, formatExtensions[format])
	if err != nil {
		return tts.Artifact{}, err
	}

	switch format {
	case FormatWAV:
		err = writeWAV(path, buf)
	case FormatULaw:
		err = writeULaw(path, buf)
	}
	if err != nil {
		// A partial file is worse than no file.
		os.Remove(path)
		return tts.Artifact{}, &tts.ExportError{Path: path, Reason: "write audio", Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return tts.Artifact{}, &tts.ExportError{Path: path, Reason: "stat artifact", Err: err}
	}

	artifact := tts.Artifact{
		Path:     path,
		Bytes:    info.Size(),
		Duration: buf.Duration(),
		Format:   format,
	}
	e.logger.Debug("artifact written", "path", path, "bytes", artifact.Bytes, "duration", artifact.Duration)
	return artifact, nil
}

// resolvePath finds a non-colliding path for baseName. With Overwrite set
// the direct path is always used.
func (e *Exporter) resolvePath(baseName, ext string) (string, error) {
	base := sanitizeBaseName(baseName)
	path := filepath.Join(e.OutputDir, base+ext)
	if e.Overwrite {
		return path, nil
	}

	for suffix := 0; suffix < 1000; suffix++ {
		candidate := path
		if suffix > 0 {
			candidate = filepath.Join(e.OutputDir, fmt.Sprintf("%s_%d%s", base, suffix, ext))
		}
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", &tts.ExportError{Path: path, Reason: "too many name collisions"}
}

// sanitizeBaseName strips path separators and characters that break on
// common filesystems.
func sanitizeBaseName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "tts_output"
	}
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	return replacer.Replace(name)
}

// writeWAV encodes the buffer as mono 16-bit PCM WAV.
func writeWAV(path string, buf *tts.Buffer) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	ints := compose.Float32ToInt16(buf.Samples)
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: buf.SampleRate},
		Data:   make([]int, len(ints)),
	}
	for i, s := range ints {
		intBuf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(file, buf.SampleRate, 16, 1, 1)
	if err := enc.Write(intBuf); err != nil {
		enc.Close()
		file.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return file.Close()
}

// writeULaw encodes the buffer as headerless G.711 mu-law. Players need
// the sample rate supplied out of band, which is the usual contract for
// .ul files.
func writeULaw(path string, buf *tts.Buffer) error {
	pcm := make([]byte, len(buf.Samples)*2)
	for i, s := range compose.Float32ToInt16(buf.Samples) {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	encoded := g711.EncodeUlaw(pcm)
	return os.WriteFile(path, encoded, 0o644)
}
