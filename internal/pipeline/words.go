package pipeline

import "strings"

// SplitWords splits one command token into words.
//
// Outside quotes a space ends the current word unless the preceding byte is
// a backslash, in which case both are kept literally. A double quote that is
// not preceded by a backslash opens a quoted span; the span becomes a single
// word with its spaces intact, \" inside it decodes to a quote, and the next
// unescaped quote closes it. Every word then has the two-byte sequence \n
// replaced by a newline. Empty words are dropped.
func SplitWords(text string) []string {
	var (
		words  []string
		cur    strings.Builder
		quoted bool
		prev   byte
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ReplaceAll(cur.String(), `\n`, "\n"))
		}
		cur.Reset()
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quoted && c == '"' && prev == '\\':
			s := cur.String()
			cur.Reset()
			cur.WriteString(s[:len(s)-1])
			cur.WriteByte('"')
		case quoted && c == '"':
			flush()
			quoted = false
		case quoted:
			cur.WriteByte(c)
		case c == '"' && prev != '\\':
			flush()
			quoted = true
		case c == ' ' && prev != '\\':
			flush()
		default:
			cur.WriteByte(c)
		}
		prev = c
	}
	flush()
	return words
}
