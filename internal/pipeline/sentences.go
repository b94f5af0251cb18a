package pipeline

import (
	"strings"
	"unicode"
)

// SplitSentences splits a script after '.', '?' or '!' when whitespace
// follows. Terminal punctuation stays with its sentence; blank pieces are
// dropped.
func SplitSentences(script string) []string {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil
	}
	var out []string
	runes := []rune(script)
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '?', '!':
		default:
			continue
		}
		if !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// KeywordPositions maps each keyword to the 1-based index of the first
// sentence that mentions it, ignoring case. Keywords never mentioned map to 0.
func KeywordPositions(sentences, keywords []string) map[string]int {
	if len(keywords) == 0 {
		return nil
	}
	lowered := make([]string, len(sentences))
	for i, s := range sentences {
		lowered[i] = strings.ToLower(s)
	}
	out := make(map[string]int, len(keywords))
	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw))
		out[kw] = 0
		if needle == "" {
			continue
		}
		for i, s := range lowered {
			if strings.Contains(s, needle) {
				out[kw] = i + 1
				break
			}
		}
	}
	return out
}
