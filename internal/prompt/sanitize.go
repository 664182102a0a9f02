package prompt

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```.*?```"),
	regexp.MustCompile("```"),
	regexp.MustCompile(`<\|[^|>]*\|>`),
	regexp.MustCompile(`\{\{.*?\}\}`),
	regexp.MustCompile(`</?[a-zA-Z][^<>]*>`),
	regexp.MustCompile(`(?i)\b(ignore|disregard|forget)\s+(all\s+)?(the\s+)?(previous|prior|above)\s+(instructions|prompts?|rules)\b`),
	regexp.MustCompile(`(?i)\b(system|assistant|user)\s*:`),
}

var upper = cases.Upper(language.Und)

// Sanitize normalises user text before it is embedded in a prompt.
// The result never exceeds limit runes; limit <= 0 disables truncation.
func Sanitize(text string, limit int) string {
	if text == "" {
		return ""
	}
	text = norm.NFKC.String(text)
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			return ' '
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, text)
	for _, re := range injectionPatterns {
		text = re.ReplaceAllString(text, " ")
	}
	text = strings.Join(strings.Fields(text), " ")
	return truncateRunes(text, limit)
}

// SanitizeTicker sanitises and upper-cases a ticker symbol.
func SanitizeTicker(ticker string, limit int) string {
	t := Sanitize(ticker, 0)
	t = strings.TrimPrefix(t, "$")
	return truncateRunes(upper.String(t), limit)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit]))
}
