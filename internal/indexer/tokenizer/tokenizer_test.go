package tokenizer

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "whitespace only", text: " \t\n ", want: nil},
		{name: "punctuation only", text: "?!... --- ,;", want: nil},
		{name: "lowercases", text: "The Quick BROWN fox", want: []string{"the", "quick", "brown", "fox"}},
		{name: "strips trailing punctuation", text: "dog.", want: []string{"dog"}},
		{name: "removes inner punctuation without splitting", text: "don't stop-words", want: []string{"dont", "stopwords"}},
		{name: "keeps digits", text: "Route 66, exit 12b", want: []string{"route", "66", "exit", "12b"}},
		{name: "collapses whitespace runs", text: "a   b\t\tc\n\nd", want: []string{"a", "b", "c", "d"}},
		{name: "punctuation between spaces vanishes", text: "fox - dog", want: []string{"fox", "dog"}},
		{name: "keeps repeats", text: "the fox and the dog", want: []string{"the", "fox", "and", "the", "dog"}},
		{name: "unicode letters", text: "Ünïcode Straße", want: []string{"ünïcode", "straße"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Terms(tt.text))
		})
	}
}

func TestTokenizeNeverYieldsEmpty(t *testing.T) {
	for _, text := range []string{"", " ", "!!", "a ! b", " . , x . "} {
		for term := range Tokenize(text) {
			assert.NotEmpty(t, term, "text %q", text)
		}
	}
}

func TestTokenizeIsRestartable(t *testing.T) {
	seq := Tokenize("one two three")
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"one", "two", "three"}, first)
}

func TestTokenizeStopsEarly(t *testing.T) {
	var got []string
	for term := range Tokenize("alpha beta gamma delta") {
		got = append(got, term)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"alpha", "beta"}, got)
}

func TestUnique(t *testing.T) {
	set := Unique("The fox and the dog, the END.")
	assert.Len(t, set, 5)
	for _, term := range []string{"the", "fox", "and", "dog", "end"} {
		assert.Contains(t, set, term)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "fox", Normalize("Fox"))
	assert.Equal(t, "fox", Normalize("fox."))
	assert.Equal(t, "foxdog", Normalize("fox-dog"))
	assert.Equal(t, "", Normalize("!!!"))
	assert.Equal(t, "", Normalize(""))
}

func BenchmarkTokenize(b *testing.B) {
	text := "The quick brown fox jumps over the lazy dog. Distributed search, analytics & indexing!"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for range Tokenize(text) {
		}
	}
}
