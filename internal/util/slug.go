// Package util provides common utility functions.
package util

import (
	"fmt"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
	// Matches anything that isn't an uppercase letter or digit.
	nonCodeCharRe = regexp.MustCompile(`[^A-Z0-9]`)
)

const (
	// slugTitleMaxLen caps the title-derived portion of a share slug.
	slugTitleMaxLen = 32
	// codeTitleMaxLen caps the title-derived portion of a share code.
	codeTitleMaxLen = 6

	slugSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	codeDigitAlphabet  = "0123456789"
)

// NormalizeSlug converts user input to a canonical URL-safe slug.
//
// Normalization rules:
//  1. Trim whitespace and lowercase
//  2. Replace spaces, underscores, and slashes with dashes
//  3. Remove non-alphanumeric characters (except dashes)
//  4. Collapse multiple dashes
//  5. Trim leading/trailing dashes
//
// Examples:
//
//	"Summer in Kyoto"  → "summer-in-kyoto"
//	"  Road_Trip/2025" → "road-trip-2025"
//	"🏔 Alps!"         → "alps"
func NormalizeSlug(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}

// ShareSlug derives a public share slug from a trip title: the normalized
// title truncated to 32 characters plus a random suffix of suffixLen
// lowercase alphanumerics. Empty or fully-stripped titles fall back to "trip".
func ShareSlug(title string, suffixLen int) (string, error) {
	base := NormalizeSlug(title)
	if base == "" {
		base = "trip"
	}
	if len(base) > slugTitleMaxLen {
		base = strings.Trim(base[:slugTitleMaxLen], "-")
	}

	suffix, err := gonanoid.Generate(slugSuffixAlphabet, suffixLen)
	if err != nil {
		return "", fmt.Errorf("generate slug suffix: %w", err)
	}

	return base + "-" + suffix, nil
}

// ShareCode derives a short human-readable join code from a trip title: the
// first word uppercased and truncated to 6 characters, plus digitLen random
// digits. "Summer in Kyoto" → "SUMMER42".
func ShareCode(title string, digitLen int) (string, error) {
	first := firstWord(title)
	first = nonCodeCharRe.ReplaceAllString(strings.ToUpper(first), "")
	if first == "" {
		first = "TRIP"
	}
	if len(first) > codeTitleMaxLen {
		first = first[:codeTitleMaxLen]
	}

	digits, err := gonanoid.Generate(codeDigitAlphabet, digitLen)
	if err != nil {
		return "", fmt.Errorf("generate code digits: %w", err)
	}

	return first + digits, nil
}

// firstWord returns the first whitespace-delimited word of s.
func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
