// internal/extract/helpers.go
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	numberPattern  = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	unsafeFilename = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
)

// NormalizeSpace collapses all runs of whitespace to single spaces and
// trims the ends.
func NormalizeSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// ParseNumber pulls the first decimal number out of free text, ignoring
// thousands separators. Returns false when the text carries no finite
// number.
func ParseNumber(value string) (float64, bool) {
	text := strings.ReplaceAll(NormalizeSpace(value), ",", "")
	if text == "" {
		return 0, false
	}

	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	num, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsInf(num, 0) || math.IsNaN(num) {
		return 0, false
	}
	return num, true
}

// ParseBool maps common truthy and falsy strings; anything else is truthy
// when non-empty.
func ParseBool(value string) bool {
	switch strings.ToLower(NormalizeSpace(value)) {
	case "true", "yes", "1", "on", "enabled", "checked":
		return true
	case "false", "no", "0", "off", "disabled", "unchecked", "":
		return false
	default:
		return true
	}
}

// SanitizeFilename strips characters that are unsafe in filenames and
// bounds the length. Falls back when nothing survives.
func SanitizeFilename(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	clean := NormalizeSpace(unsafeFilename.ReplaceAllString(name, "_"))
	clean = cutAtRune(clean, 180)
	if clean == "" {
		return fallback
	}
	return clean
}

// Truncate bounds a string at max bytes without splitting a rune.
func Truncate(value string, max int) string {
	if max <= 0 {
		return value
	}
	return cutAtRune(value, max)
}

// cutAtRune slices at most max bytes, backing up to the nearest rune
// boundary so the result is always valid UTF-8.
func cutAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
