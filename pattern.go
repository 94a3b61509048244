package webproxy

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// PatternContext selects which pattern set the normalizer applies.
type PatternContext string

const (
	// PatternSegment normalizes free page text: URLs, emails, UUIDs, numbers.
	PatternSegment PatternContext = "segment"
	// PatternPath normalizes URL pathnames: emails, UUIDs, numbers. Absolute
	// URLs never occur inside a pathname, so URL extraction is skipped.
	PatternPath PatternContext = "path"
)

// PatternReplacement records every match of one pattern type in a string.
// Values are ordered by first occurrence, so placeholder index N maps to
// Values[N-1].
type PatternReplacement struct {
	Pattern     string   `json:"pattern"`     // "url" | "email" | "uuid" | "numeric"
	Placeholder string   `json:"placeholder"` // "[U", "[E", "[I", "[N"
	Values      []string `json:"values"`
}

// PatternizedText is the result of normalization. Restoring the normalized
// text with its replacements reproduces Original exactly.
type PatternizedText struct {
	Original     string
	Normalized   string
	Replacements []PatternReplacement
	IsUpperCase  bool
}

type patternDef struct {
	name   string
	prefix string
	re     *regexp.Regexp
}

var (
	urlPattern = patternDef{
		name:   "url",
		prefix: "[U",
		re:     regexp.MustCompile(`https?://[^\s<>"')]+`),
	}
	emailPattern = patternDef{
		name:   "email",
		prefix: "[E",
		re:     regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
	}
	uuidPattern = patternDef{
		name:   "uuid",
		prefix: "[I",
		re:     regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`),
	}
	// The alternation lets the replace func skip digits that are part of an
	// already-emitted placeholder or an inline markup token like [HB1]/[/HB1].
	numericPattern = patternDef{
		name:   "numeric",
		prefix: "[N",
		re:     regexp.MustCompile(`\[/?H[ABISUX]\d+\]|\[[UEIN]\d+\]|\d+(?:[.,]\d+)*`),
	}
)

var patternPrefixes = map[string]string{
	"url":     "[U",
	"email":   "[E",
	"uuid":    "[I",
	"numeric": "[N",
}

// trailing sentence punctuation stripped from captured URLs
const urlTrailingPunct = ".,!?;:"

// ApplyPatterns replaces volatile substrings with indexed placeholders so
// the result is cache-friendly and safe to send to the translation backend.
// Pattern precedence is URL, email, UUID, numeric for segment text; emails
// and UUIDs must go before numeric or their digits would be corrupted first.
func ApplyPatterns(text string, ctx PatternContext) PatternizedText {
	pt := PatternizedText{
		Original:    text,
		Normalized:  text,
		IsUpperCase: isAllUpper(text),
	}

	defs := []patternDef{urlPattern, emailPattern, uuidPattern, numericPattern}
	if ctx == PatternPath {
		defs = defs[1:]
	}

	for _, def := range defs {
		rep := PatternReplacement{Pattern: def.name, Placeholder: def.prefix}
		pt.Normalized = def.re.ReplaceAllStringFunc(pt.Normalized, func(m string) string {
			if def.name == "numeric" && strings.HasPrefix(m, "[") {
				// digits inside an existing placeholder token
				return m
			}
			trailing := ""
			if def.name == "url" {
				m, trailing = stripTrailingPunct(m)
				if m == "" {
					return trailing
				}
			}
			rep.Values = append(rep.Values, m)
			return fmt.Sprintf("%s%d]%s", def.prefix, len(rep.Values), trailing)
		})
		if len(rep.Values) > 0 {
			pt.Replacements = append(pt.Replacements, rep)
		}
	}

	return pt
}

// RestorePatterns substitutes recorded values back into text (normalized or
// translated) and re-applies uppercasing when the original was all-caps.
// Replacements are processed in reverse application order. Placeholder
// tokens with no recorded value are left as-is; an unknown pattern name is a
// programmer error.
func RestorePatterns(text string, replacements []PatternReplacement, isUpperCase bool) (string, error) {
	for i := len(replacements) - 1; i >= 0; i-- {
		rep := replacements[i]
		prefix, ok := patternPrefixes[rep.Pattern]
		if !ok {
			return "", &PatternError{Pattern: rep.Pattern}
		}
		if rep.Placeholder == "" {
			rep.Placeholder = prefix
		}
		for n, value := range rep.Values {
			token := fmt.Sprintf("%s%d]", rep.Placeholder, n+1)
			text = strings.ReplaceAll(text, token, value)
		}
	}
	if isUpperCase {
		text = strings.ToUpper(text)
	}
	return text, nil
}

// isAllUpper reports whether every letter in s is uppercase. Strings with no
// letters at all are not considered uppercase.
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// stripTrailingPunct splits sentence punctuation off the end of a captured
// URL so it survives outside the placeholder.
func stripTrailingPunct(s string) (string, string) {
	i := len(s)
	for i > 0 && strings.ContainsRune(urlTrailingPunct, rune(s[i-1])) {
		i--
	}
	return s[:i], s[i:]
}
