package segment

import (
	"regexp"
	"strings"
)

// Cleaner normalizes text for engines that stumble on abbreviations,
// digits, and symbols. The pass lowercases everything, so it is opt in.
type Cleaner struct {
	abbreviations map[string]string
	numbers       map[string]string
	symbols       *strings.Replacer
	stripRegex    *regexp.Regexp
	spaceRegex    *regexp.Regexp
}

// NewCleaner creates a cleaner with the default expansion tables.
func NewCleaner() *Cleaner {
	return &Cleaner{
		abbreviations: map[string]string{
			"dr.":   "doctor",
			"mr.":   "mister",
			"mrs.":  "misses",
			"ms.":   "miss",
			"prof.": "professor",
			"st.":   "street",
			"ave.":  "avenue",
			"blvd.": "boulevard",
			"etc.":  "etcetera",
			"vs.":   "versus",
			"e.g.":  "for example",
			"i.e.":  "that is",
		},
		numbers: map[string]string{
			"0": "zero", "1": "one", "2": "two", "3": "three", "4": "four",
			"5": "five", "6": "six", "7": "seven", "8": "eight", "9": "nine",
			"10": "ten", "11": "eleven", "12": "twelve", "13": "thirteen",
			"14": "fourteen", "15": "fifteen", "16": "sixteen", "17": "seventeen",
			"18": "eighteen", "19": "nineteen", "20": "twenty",
		},
		symbols: strings.NewReplacer(
			"&", " and ",
			"@", " at ",
			"#", " hash ",
			"$", " dollar ",
			"%", " percent ",
			"+", " plus ",
			"=", " equals ",
			"<", " less than ",
			">", " greater than ",
			"|", " or ",
		),
		stripRegex: regexp.MustCompile(`[^\w\s.,!?'-]`),
		spaceRegex: regexp.MustCompile(`\s+`),
	}
}

// Clean lowercases text, expands abbreviations, small numbers, and common
// symbols, then drops characters engines tend to mispronounce.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = c.spaceRegex.ReplaceAllString(text, " ")

	for abbr, expansion := range c.abbreviations {
		text = strings.ReplaceAll(text, abbr, expansion)
	}

	words := strings.Fields(text)
	for i, word := range words {
		trimmed := strings.Trim(word, ".,!?;:'\"-")
		if spoken, ok := c.numbers[trimmed]; ok {
			words[i] = strings.Replace(word, trimmed, spoken, 1)
		}
	}
	text = strings.Join(words, " ")

	text = c.symbols.Replace(text)
	text = c.stripRegex.ReplaceAllString(text, " ")
	text = c.spaceRegex.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
