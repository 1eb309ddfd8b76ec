// Package ctype parses the small subset of C that appears in syscall
// declarations: type specifications and function prototypes. It is shared by
// the kernel-header, man-page, and libc source parsers and by the C renderer.
package ctype

import "regexp"

var (
	spaceRE = regexp.MustCompile(`^\s+`)
	identRE = regexp.MustCompile(`^\w+`)
)

// Tokens that are longer than one symbol but are not identifier runs.
var otherTokens = []string{"...", "[[noreturn]]", "[[deprecated]]"}

// lex splits C source into tokens: identifier runs, known multi-symbol
// tokens, and single symbols. It does not try to recognize compound operators
// like "+="; declarations never contain them.
func lex(text string) []string {
	var tokens []string
	for text != "" {
		if m := spaceRE.FindString(text); m != "" {
			text = text[len(m):]
			continue
		}
		if m := identRE.FindString(text); m != "" {
			tokens = append(tokens, m)
			text = text[len(m):]
			continue
		}
		matched := false
		for _, other := range otherTokens {
			if len(text) >= len(other) && text[:len(other)] == other {
				tokens = append(tokens, other)
				text = text[len(other):]
				matched = true
				break
			}
		}
		if !matched {
			tokens = append(tokens, text[:1])
			text = text[1:]
		}
	}
	return tokens
}
