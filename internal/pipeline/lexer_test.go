package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLex(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"echo hi", []string{"echo hi"}},
		{"  ls -l  ", []string{"ls -l"}},
		{"a | b > out.txt", []string{"a", "|", "b", ">", "out.txt"}},
		{"cat|grep x", []string{"cat", "|", "grep x"}},
		{"sort<in.txt", []string{"sort", "<", "in.txt"}},
		{"a||b", []string{"a", "|", "", "|", "b"}},
		{"a |", []string{"a", "|", ""}},
		// A break byte at index 0 is not a split point.
		{"|a", []string{"|a"}},
		{"> f", []string{"> f"}},
		{"", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Lex(tt.line))
		})
	}
}

// normalize spaces out every operator that the lexer would split on and
// collapses runs of whitespace.
func normalize(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if i > 0 && isBreak(s[i]) {
			b.WriteString(" " + s[i:i+1] + " ")
			continue
		}
		b.WriteByte(s[i])
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func TestLexRejoinReconstructsInput(t *testing.T) {
	lines := []string{
		"echo hi",
		"echo hi|tr a-z A-Z",
		"  grep -r TODO src/ |sort| uniq -c  >counts.txt",
		"sort < in.txt | head -5",
		"cat file.txt|grep foo|wc -l",
		"a||b",
		"|a",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			rejoined := strings.Join(strings.Fields(strings.Join(Lex(line), " ")), " ")
			assert.Equal(t, normalize(line), rejoined)
		})
	}
}
