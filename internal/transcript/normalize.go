// Package transcript normalizes recognized answer text before it reaches the candidate.
package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// labelPattern matches a leading "Transcript:" style label some models prepend.
	labelPattern = regexp.MustCompile(`(?i)^(transcript(ion)?|answer)\s*:\s*`)
	// noSpeechPattern matches whole-answer markers for silence or unintelligible audio.
	noSpeechPattern = regexp.MustCompile(`(?i)^[\[(]\s*(no speech|silence|inaudible|unintelligible|blank[_ ]audio)\s*[\])]\.?$`)
	pronounIPattern = regexp.MustCompile(`\bi\b('(m|d|ll|ve|re|s)\b)?`)
)

// Options controls which normalizations Normalize applies beyond whitespace cleanup.
type Options struct {
	CapitalizeSentences bool
}

// Normalize collapses whitespace, strips model framing, and optionally applies sentence case.
// Answers that only mark silence normalize to "".
func Normalize(text string, opts Options) string {
	text = strings.Join(strings.Fields(text), " ")
	text = labelPattern.ReplaceAllString(text, "")
	text = trimQuotes(text)
	if text == "" || noSpeechPattern.MatchString(text) {
		return ""
	}

	if opts.CapitalizeSentences {
		text = capitalizeSentenceStarts(text)
		text = pronounIPattern.ReplaceAllStringFunc(text, func(m string) string {
			return "I" + m[1:]
		})
	}
	return text
}

func trimQuotes(text string) string {
	for len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			text = strings.TrimSpace(text[1 : len(text)-1])
			continue
		}
		break
	}
	return text
}

// capitalizeSentenceStarts uppercases the first letter of the text and of every word
// following ". ", "! " or "? ". Periods inside tokens (3.5, e.g.) are not boundaries.
func capitalizeSentenceStarts(text string) string {
	runes := []rune(text)
	atStart := true
	for i, r := range runes {
		switch {
		case atStart && unicode.IsLetter(r):
			if !lowercaseAbbreviationAt(runes, i) {
				runes[i] = unicode.ToUpper(r)
			}
			atStart = false
		case atStart && unicode.IsDigit(r):
			atStart = false
		case r == '!' || r == '?':
			atStart = followedBySpace(runes, i)
		case r == '.':
			atStart = followedBySpace(runes, i) && !abbreviationBefore(runes, i)
		}
	}
	return string(runes)
}

func followedBySpace(runes []rune, i int) bool {
	return i+1 < len(runes) && unicode.IsSpace(runes[i+1])
}

// abbreviationBefore reports whether the period at i closes a dotted abbreviation such as "e.g." or "U.S.".
func abbreviationBefore(runes []rune, i int) bool {
	start := i
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	word := strings.ToLower(string(runes[start:i]))
	if strings.Contains(word, ".") {
		return true
	}
	_, ok := nonTerminalAbbreviations[word]
	return ok
}

func lowercaseAbbreviationAt(runes []rune, i int) bool {
	end := i
	for end < len(runes) && !unicode.IsSpace(runes[end]) {
		end++
	}
	word := strings.TrimRight(strings.ToLower(string(runes[i:end])), ".,;:")
	_, ok := lowercaseAbbreviations[word]
	return ok
}

var (
	nonTerminalAbbreviations = map[string]struct{}{
		"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "sr": {}, "jr": {},
		"vs": {}, "approx": {}, "dept": {}, "inc": {}, "ltd": {}, "no": {},
	}
	lowercaseAbbreviations = map[string]struct{}{
		"e.g": {}, "i.e": {}, "etc": {}, "vs": {},
	}
)
