// Package tokenizer provides text tokenisation for the search engine.
// It lower-cases input, drops every rune that is neither alphanumeric nor
// whitespace, and splits what remains on whitespace runs.
package tokenizer

import (
	"iter"
	"slices"
	"strings"
	"unicode"
)

// Tokenize returns the normalised terms of text in order of appearance.
// The sequence is lazy and may be ranged over any number of times. Repeated
// terms are yielded each time they occur.
func Tokenize(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		var b strings.Builder
		for _, r := range text {
			switch {
			case unicode.IsSpace(r):
				if b.Len() == 0 {
					continue
				}
				if !yield(b.String()) {
					return
				}
				b.Reset()
			case unicode.IsLetter(r) || unicode.IsDigit(r):
				b.WriteRune(unicode.ToLower(r))
			}
		}
		if b.Len() > 0 {
			yield(b.String())
		}
	}
}

// Terms collects Tokenize(text) into a slice.
func Terms(text string) []string {
	return slices.Collect(Tokenize(text))
}

// Unique returns the distinct terms of text as a set.
func Unique(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for term := range Tokenize(text) {
		set[term] = struct{}{}
	}
	return set
}

// Normalize reduces a single whitespace-free word to its index term, or ""
// when nothing alphanumeric remains.
func Normalize(word string) string {
	for term := range Tokenize(word) {
		return term
	}
	return ""
}
