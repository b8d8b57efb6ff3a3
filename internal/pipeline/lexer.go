package pipeline

import "strings"

func isBreak(b byte) bool {
	return b == '<' || b == '>' || b == '|'
}

// Lex splits a line into command words and single-byte operator tokens.
//
// A break byte at index 0 is not a split point: it stays at the front of the
// first token. Two adjacent operators produce an empty token between them,
// which Parse rejects.
func Lex(line string) []string {
	var tokens []string
	start := 0
	for i := 1; i < len(line); i++ {
		if !isBreak(line[i]) {
			continue
		}
		tokens = append(tokens, strings.TrimSpace(line[start:i]), line[i:i+1])
		start = i + 1
	}
	return append(tokens, strings.TrimSpace(line[start:]))
}
