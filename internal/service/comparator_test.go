package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutputsMatch(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		actual   string
		match    bool
	}{
		{"exact", "hello\n", "hello\n", true},
		{"trailing newline", "hello", "hello\n", true},
		{"crlf endings", "a\nb\nc", "a\r\nb\r\nc\r\n", true},
		{"blank lines dropped", "1\n2\n3", "1\n\n2\n\n3\n", true},
		{"per line trailing spaces", "x y\nz", "x y  \nz ", true},
		{"case and spacing", "Hello World", "helloworld", true},
		{"float tolerance", "0.333333", "0.3333333333", true},
		{"float outside tolerance", "0.3333", "0.3433", false},
		{"integer vs float", "5", "5.0", true},
		{"yes equals true", "Yes", "true", true},
		{"no equals zero", "NO", "0", true},
		{"yes does not equal no", "yes", "no", false},
		{"different words", "alpha", "beta", false},
		{"reordered lines", "1\n2", "2\n1", false},
		{"digit swap", "12345", "12354", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.match, OutputsMatch(tc.expected, tc.actual))
		})
	}
}
