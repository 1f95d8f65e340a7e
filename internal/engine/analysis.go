package engine

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on non-alphanumeric runes.
// Every engine implementation and the term extractor use this analyzer
// so indexed and extracted terms agree.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
