package service

import (
	"strconv"
	"strings"
)

// OutputsMatch reports whether a program's actual output should be accepted
// for the expected output. Comparisons are tried from strictest to most
// forgiving; the first match wins. This tolerates the usual cosmetic noise
// in student output (trailing newlines, CRLF, stray blank lines, float
// formatting) without accepting genuinely wrong answers.
func OutputsMatch(expected, actual string) bool {
	if expected == actual {
		return true
	}

	if strings.TrimSpace(expected) == strings.TrimSpace(actual) {
		return true
	}

	if normalizeLines(expected) == normalizeLines(actual) {
		return true
	}

	if stripWhitespace(expected) == stripWhitespace(actual) {
		return true
	}

	if numbersMatch(expected, actual) {
		return true
	}

	return booleansMatch(expected, actual)
}

// normalizeLines collapses line-ending and per-line whitespace differences:
// CRLF and CR become LF, each line is trimmed, and blank lines are dropped.
func normalizeLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		default:
			b.WriteRune(r)
		}
	}

	return strings.ToLower(b.String())
}

// numbersMatch accepts outputs that are both single numeric values within
// an absolute tolerance of 1e-5, so "0.333333" matches "0.3333333333".
func numbersMatch(expected, actual string) bool {
	e, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	if err != nil {
		return false
	}

	a, err := strconv.ParseFloat(strings.TrimSpace(actual), 64)
	if err != nil {
		return false
	}

	diff := e - a
	if diff < 0 {
		diff = -diff
	}

	return diff < 1e-5
}

// booleansMatch treats the common affirmative and negative spellings as
// interchangeable, so "Yes" matches "true" and "NO" matches "0".
func booleansMatch(expected, actual string) bool {
	e, eOK := boolToken(expected)
	a, aOK := boolToken(actual)

	return eOK && aOK && e == a
}

func boolToken(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true, true
	case "no", "n", "false", "0":
		return false, true
	default:
		return false, false
	}
}
