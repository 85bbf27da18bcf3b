package engine

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lazypower/rhythm/internal/model"
)

// Content size limits for check-in text, in runes.
const (
	maxEssenceChars = 800
	maxContextChars = 4000
	maxInsightChars = 800
	maxTagChars     = 40
	maxSeeds        = 12
)

// validTagChar returns true if the character is allowed in a tag.
// Allowed: lowercase alphanumeric, hyphens, underscores.
func validTagChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}

// sanitizeTag normalizes a seed, emotion or environment key to [a-z0-9_-].
// Uppercases become lowercase, spaces/dots become hyphens, invalid chars are dropped.
// Returns empty string if the result is empty after sanitization.
func sanitizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}

	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(tag) {
		if validTagChar(r) {
			b.WriteRune(r)
			prevHyphen = (r == '-')
		} else if r == ' ' || r == '.' || r == '/' {
			// Collapse separators to single hyphen
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	result := strings.Trim(b.String(), "-_")
	if len(result) > maxTagChars {
		result = strings.Trim(result[:maxTagChars], "-_")
	}
	return result
}

// validateMoment checks a check-in before it reaches the store and returns
// a cleaned copy. Oversized text is truncated, not rejected.
func validateMoment(m model.Moment) (model.Moment, error) {
	if _, err := model.ParseCategory(string(m.Category)); err != nil {
		return m, err
	}

	m.Essence = strings.TrimSpace(m.Essence)
	if m.Essence == "" {
		return m, fmt.Errorf("empty essence")
	}
	m.Essence = truncateClean(m.Essence, maxEssenceChars)
	m.Context = truncateClean(strings.TrimSpace(m.Context), maxContextChars)

	if len(m.Emotions) > 0 {
		emotions := make(map[string]int, len(m.Emotions))
		for k, v := range m.Emotions {
			key := sanitizeTag(k)
			if key == "" {
				continue
			}
			if v < 1 || v > 10 {
				return m, fmt.Errorf("emotion %q intensity %d, must be between 1 and 10", key, v)
			}
			emotions[key] = v
		}
		m.Emotions = emotions
	}

	var seeds []string
	for _, s := range m.Seeds {
		if tag := sanitizeTag(s); tag != "" && len(seeds) < maxSeeds {
			seeds = append(seeds, tag)
		}
	}
	m.Seeds = seeds

	if len(m.Environment) > 0 {
		env := make(map[string]string, len(m.Environment))
		for k, v := range m.Environment {
			if key := sanitizeTag(k); key != "" {
				env[key] = strings.TrimSpace(v)
			}
		}
		m.Environment = env
	}
	return m, nil
}

// validateThread trims the insight and enforces its size ceiling.
func validateThread(th model.WisdomThread) (model.WisdomThread, error) {
	th.Insight = strings.TrimSpace(th.Insight)
	if th.Insight == "" {
		return th, fmt.Errorf("empty insight")
	}
	th.Insight = truncateClean(th.Insight, maxInsightChars)
	if th.IntegrationLevel < 0 || th.IntegrationLevel > 10 {
		return th, fmt.Errorf("integration level %d out of range", th.IntegrationLevel)
	}
	return th, nil
}

// truncateClean truncates a string to maxLen runes, cutting at the last
// word boundary to avoid mid-word breaks.
func truncateClean(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	// Byte offset of the first rune past the limit.
	cut, n := 0, 0
	for i := range s {
		if n == maxLen {
			cut = i
			break
		}
		n++
	}

	// Back up to last space
	truncated := s[:cut]
	if idx := strings.LastIndexFunc(truncated, unicode.IsSpace); idx > 0 && idx > cut-200 {
		truncated = truncated[:idx]
	}
	return strings.TrimSpace(truncated)
}
