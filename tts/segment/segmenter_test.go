package segment

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgnsrekt/voxify/tts"
)

func TestSegmentSimpleSentences(t *testing.T) {
	seg := NewSegmenter()

	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected []string
	}{
		{
			name:   "each sentence its own unit",
			input:  "Hello world. How are you? I'm fine!",
			maxLen: 15,
			expected: []string{
				"Hello world.",
				"How are you?",
				"I'm fine!",
			},
		},
		{
			name:     "short sentences grouped into one unit",
			input:    "First. Second. Third.",
			maxLen:   100,
			expected: []string{"First. Second. Third."},
		},
		{
			name:     "newlines treated as whitespace",
			input:    "First sentence.\nSecond sentence.",
			maxLen:   18,
			expected: []string{"First sentence.", "Second sentence."},
		},
		{
			name:     "abbreviation does not split",
			input:    "Dr. Smith arrived. He sat down.",
			maxLen:   20,
			expected: []string{"Dr. Smith arrived.", "He sat down."},
		},
		{
			name:     "decimal number does not split",
			input:    "The value is 3.14 exactly.",
			maxLen:   100,
			expected: []string{"The value is 3.14 exactly."},
		},
		{
			name:     "ellipsis stays inside the sentence",
			input:    "Wait... I'm thinking. Done!",
			maxLen:   22,
			expected: []string{"Wait... I'm thinking.", "Done!"},
		},
		{
			name:     "no terminal punctuation",
			input:    "just a fragment with no period",
			maxLen:   100,
			expected: []string{"just a fragment with no period"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := seg.Segment(tt.input, tt.maxLen)
			if err != nil {
				t.Fatalf("Segment failed: %v", err)
			}
			if len(units) != len(tt.expected) {
				t.Fatalf("Expected %d units, got %d: %v", len(tt.expected), len(units), units)
			}
			for i, unit := range units {
				if unit.Text != tt.expected[i] {
					t.Errorf("Unit %d: expected %q, got %q", i, tt.expected[i], unit.Text)
				}
				if unit.Index != i {
					t.Errorf("Unit %d has index %d", i, unit.Index)
				}
			}
		})
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	seg := NewSegmenter()

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		_, err := seg.Segment(input, 100)
		if !errors.Is(err, tts.ErrEmptyInput) {
			t.Errorf("Segment(%q): expected ErrEmptyInput, got %v", input, err)
		}
	}
}

func TestSegmentRespectsMaxLength(t *testing.T) {
	seg := NewSegmenter()

	// A single sentence well past the limit must be split.
	long := "The quick brown fox jumps over the lazy dog, then runs across the field, and finally rests under a tall oak tree near the river"
	units, err := seg.Segment(long, 50)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(units) < 2 {
		t.Fatalf("Expected over-long sentence to split, got %d units", len(units))
	}
	for _, unit := range units {
		if len(unit.Text) > 50 {
			t.Errorf("Unit %d exceeds max length: %d bytes", unit.Index, len(unit.Text))
		}
		if strings.TrimSpace(unit.Text) == "" {
			t.Errorf("Unit %d is blank", unit.Index)
		}
	}
}

func TestSegmentPreservesContent(t *testing.T) {
	seg := NewSegmenter()

	input := "One two three. Four five six! Seven eight nine?"
	units, err := seg.Segment(input, 16)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	var texts []string
	for _, unit := range units {
		texts = append(texts, unit.Text)
	}
	joined := strings.Join(texts, " ")

	// Joining the units reproduces the input modulo whitespace.
	wantWords := strings.Fields(input)
	gotWords := strings.Fields(joined)
	if len(wantWords) != len(gotWords) {
		t.Fatalf("Word count changed: want %d, got %d", len(wantWords), len(gotWords))
	}
	for i := range wantWords {
		if wantWords[i] != gotWords[i] {
			t.Errorf("Word %d: want %q, got %q", i, wantWords[i], gotWords[i])
		}
	}
}

func TestSegmentContiguousIndices(t *testing.T) {
	seg := NewSegmenter()

	units, err := seg.Segment("A. B. C. D. E. Longer sentence here. Another one follows. And more.", 10)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	for i, unit := range units {
		if unit.Index != i {
			t.Errorf("Expected index %d, got %d", i, unit.Index)
		}
	}
}

func TestSegmentMultiByteInput(t *testing.T) {
	seg := NewSegmenter()

	units, err := seg.Segment("Héllo wörld. Ça va très bien.", 100)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	for _, unit := range units {
		if !strings.Contains("Héllo wörld. Ça va très bien.", unit.Text) {
			t.Errorf("Unit text mangled: %q", unit.Text)
		}
	}
}

func TestCleanText(t *testing.T) {
	cleaner := NewCleaner()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases",
			input:    "Hello World",
			expected: "hello world",
		},
		{
			name:     "expands abbreviations",
			input:    "Dr. Smith lives on Main St. now",
			expected: "doctor smith lives on main street now",
		},
		{
			name:     "expands small numbers",
			input:    "I have 3 cats and 12 dogs",
			expected: "i have three cats and twelve dogs",
		},
		{
			name:     "expands symbols",
			input:    "cats & dogs at 100%",
			expected: "cats and dogs at 100 percent",
		},
		{
			name:     "collapses whitespace",
			input:    "too    many\n\nspaces",
			expected: "too many spaces",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleaner.Clean(tt.input)
			if got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSegmentWithCleaning(t *testing.T) {
	seg := NewSegmenter()
	seg.CleanText = true

	units, err := seg.Segment("Dr. Smith has 3 cats. They are loud!", 100)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	for _, unit := range units {
		if strings.Contains(unit.Text, "Dr.") || strings.Contains(unit.Text, "3") {
			t.Errorf("Cleaning not applied to unit: %q", unit.Text)
		}
		if unit.Text != strings.ToLower(unit.Text) {
			t.Errorf("Expected lowercased unit, got %q", unit.Text)
		}
	}
}
