// Package segment splits raw text into bounded synthesis units.
package segment

import (
	"strings"
	"unicode"

	"github.com/dgnsrekt/voxify/tts"
)

// Segmenter detects sentence boundaries and groups sentences into units
// that fit an engine's text length limit. Boundary detection is rune based
// so multi-byte input splits cleanly.
type Segmenter struct {
	abbreviations map[string]bool
	cleaner       *Cleaner

	// CleanText runs the normalization pass before segmentation. Off by
	// default so unit texts joined with single spaces reproduce the
	// input modulo whitespace.
	CleanText bool
}

// NewSegmenter creates a segmenter with the default abbreviation set.
func NewSegmenter() *Segmenter {
	return &Segmenter{
		abbreviations: makeAbbreviationMap(),
		cleaner:       NewCleaner(),
	}
}

// Segment implements tts.Segmenter. Units are indexed contiguously from
// zero in input order. Whitespace-only input yields tts.ErrEmptyInput.
func (s *Segmenter) Segment(text string, maxLen int) ([]tts.Unit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, tts.ErrEmptyInput
	}
	if maxLen <= 0 {
		maxLen = 500
	}

	if s.CleanText {
		text = s.cleaner.Clean(text)
	}

	sentences := s.splitSentences(text)
	if len(sentences) == 0 {
		return nil, tts.ErrEmptyInput
	}

	// Greedy grouping: pack sentences into a unit until the next one
	// would push it past maxLen.
	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		if len(sentence) > maxLen {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, splitLong(sentence, maxLen)...)
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(sentence) > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	units := make([]tts.Unit, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		units = append(units, tts.Unit{Index: len(units), Text: chunk})
	}
	if len(units) == 0 {
		return nil, tts.ErrEmptyInput
	}
	return units, nil
}

// splitSentences finds sentence boundaries in plain text.
func (s *Segmenter) splitSentences(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)

	var sentences []string
	lastStart := 0

	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}

		// Collect trailing punctuation like "?!" or "..".
		end := i + 1
		for end < len(runes) && (runes[end] == '.' || runes[end] == '!' || runes[end] == '?') {
			end++
		}
		// A closing quote or bracket belongs to the sentence.
		for end < len(runes) && (runes[end] == '"' || runes[end] == '\'' || runes[end] == ')' || runes[end] == ']') {
			end++
		}

		if !s.isSentenceEnd(runes, i) {
			continue
		}

		sentence := strings.TrimSpace(string(runes[lastStart:end]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		for end < len(runes) && unicode.IsSpace(runes[end]) {
			end++
		}
		lastStart = end
		i = end - 1
	}

	if lastStart < len(runes) {
		if rest := strings.TrimSpace(string(runes[lastStart:])); rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}

// isSentenceEnd reports whether the punctuation at pos terminates a
// sentence rather than an abbreviation, a decimal, or an ellipsis.
func (s *Segmenter) isSentenceEnd(runes []rune, pos int) bool {
	punct := runes[pos]

	if punct == '.' {
		// Word leading up to the period, lowercased with the period kept.
		start := pos - 1
		for start >= 0 && !unicode.IsSpace(runes[start]) {
			start--
		}
		word := strings.ToLower(string(runes[start+1 : pos+1]))

		if s.abbreviations[word] || s.abbreviations[strings.TrimSuffix(word, ".")] {
			return false
		}
		// Multi-dot tokens like "e.g." or "u.s." are abbreviations.
		if strings.Count(word, ".") > 1 {
			return false
		}

		// Decimal number: digit on both sides of the period.
		if pos > 0 && pos+1 < len(runes) && unicode.IsDigit(runes[pos-1]) && unicode.IsDigit(runes[pos+1]) {
			return false
		}

		// Ellipsis is a pause, not a boundary.
		if pos+2 < len(runes) && runes[pos+1] == '.' && runes[pos+2] == '.' {
			return false
		}
	}

	if pos+1 >= len(runes) {
		return true
	}

	next := pos + 1
	for next < len(runes) && (runes[next] == '.' || runes[next] == '!' || runes[next] == '?' ||
		runes[next] == '"' || runes[next] == '\'' || runes[next] == ')' || runes[next] == ']') {
		next++
	}
	if next >= len(runes) {
		return true
	}
	if !unicode.IsSpace(runes[next]) {
		return false
	}
	for next < len(runes) && unicode.IsSpace(runes[next]) {
		next++
	}
	if next < len(runes) && unicode.IsUpper(runes[next]) {
		return true
	}
	// Question and exclamation marks end sentences even before
	// lowercase continuations.
	return punct == '!' || punct == '?'
}

// splitLong breaks a single over-long sentence, preferring clause
// punctuation, then whitespace, then a hard rune cut.
func splitLong(sentence string, maxLen int) []string {
	var parts []string
	rest := sentence
	for len(rest) > maxLen {
		cut := findCut(rest, maxLen)
		parts = append(parts, strings.TrimSpace(rest[:cut]))
		rest = strings.TrimSpace(rest[cut:])
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// findCut picks the latest clause boundary within maxLen bytes, falling
// back to the latest space, then to a rune-aligned hard cut.
func findCut(text string, maxLen int) int {
	window := text[:maxLen]

	if idx := strings.LastIndexAny(window, ",;:"); idx > 0 {
		return idx + 1
	}
	if idx := strings.LastIndexByte(window, ' '); idx > 0 {
		return idx
	}
	// Back off to a rune boundary.
	cut := maxLen
	for cut > 0 && !utf8RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		cut = maxLen
	}
	return cut
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func makeAbbreviationMap() map[string]bool {
	abbrevs := []string{
		"mr", "mrs", "ms", "dr", "prof", "sr", "jr",
		"ph.d", "m.d", "b.a", "m.a", "b.s",
		"llc", "inc", "ltd", "co", "corp",
		"i.e", "e.g", "etc", "vs", "cf", "al",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
		"mon", "tue", "wed", "thu", "fri", "sat", "sun",
		"st", "rd", "ave", "blvd", "ln", "ct",
		"ft", "lbs", "oz", "kg", "km", "cm", "mm", "mi", "yd",
		"hr", "hrs", "min", "mins", "sec", "secs",
	}

	m := make(map[string]bool, len(abbrevs)*2)
	for _, abbrev := range abbrevs {
		m[abbrev] = true
		if !strings.Contains(abbrev, ".") {
			m[abbrev+"."] = true
		}
	}
	return m
}
