package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []Clause
	}{
		{name: "empty", query: "", want: []Clause{}},
		{name: "whitespace", query: "   \t ", want: []Clause{}},
		{name: "single term", query: "Fox", want: []Clause{{OpAND, "fox"}}},
		{name: "implicit and", query: "lazy dog", want: []Clause{{OpAND, "lazy"}, {OpAND, "dog"}}},
		{name: "explicit and", query: "fox AND dog", want: []Clause{{OpAND, "fox"}, {OpAND, "dog"}}},
		{name: "or", query: "fox OR dog", want: []Clause{{OpAND, "fox"}, {OpOR, "dog"}}},
		{
			name:  "mixed left to right",
			query: "fox OR dog cat AND bird",
			want:  []Clause{{OpAND, "fox"}, {OpOR, "dog"}, {OpAND, "cat"}, {OpAND, "bird"}},
		},
		{name: "operands are normalised", query: "Fox. DOG!", want: []Clause{{OpAND, "fox"}, {OpAND, "dog"}}},
		{name: "lowercase and is an operand", query: "fox and dog", want: []Clause{{OpAND, "fox"}, {OpAND, "and"}, {OpAND, "dog"}}},
		{name: "mixed case Or is an operand", query: "fox Or dog", want: []Clause{{OpAND, "fox"}, {OpAND, "or"}, {OpAND, "dog"}}},
		{name: "unknown upper-case word is an operand", query: "fox NOT dog", want: []Clause{{OpAND, "fox"}, {OpAND, "not"}, {OpAND, "dog"}}},
		{name: "leading operator ignored", query: "OR fox", want: []Clause{{OpAND, "fox"}}},
		{name: "leading operators ignored", query: "AND OR fox dog", want: []Clause{{OpAND, "fox"}, {OpAND, "dog"}}},
		{name: "trailing operator ignored", query: "fox OR", want: []Clause{{OpAND, "fox"}}},
		{name: "only operators", query: "AND OR AND", want: []Clause{}},
		{name: "last consecutive operator wins", query: "fox AND OR dog", want: []Clause{{OpAND, "fox"}, {OpOR, "dog"}}},
		{name: "or then and", query: "fox OR AND dog", want: []Clause{{OpAND, "fox"}, {OpAND, "dog"}}},
		{name: "punctuation operand skipped", query: "fox OR !!! dog", want: []Clause{{OpAND, "fox"}, {OpOR, "dog"}}},
		{name: "operator with punctuation is an operand", query: "fox AND. dog", want: []Clause{{OpAND, "fox"}, {OpAND, "and"}, {OpAND, "dog"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Parse(tt.query)
			assert.Equal(t, tt.want, plan.Clauses)
			assert.Equal(t, tt.query, plan.RawQuery)
		})
	}
}

func TestQueryPlanString(t *testing.T) {
	assert.Equal(t, "lazy AND dog", Parse("Lazy dog.").String())
	assert.Equal(t, "lazy AND dog", Parse("lazy AND dog").String())
	assert.Equal(t, "fox OR dog AND cat", Parse("OR fox OR dog cat AND").String())
	assert.Equal(t, "", Parse("").String())
}

func TestQueryPlanTerms(t *testing.T) {
	plan := Parse("fox OR dog cat")
	assert.Equal(t, []string{"fox", "dog", "cat"}, plan.Terms())
	assert.False(t, plan.Empty())
	assert.True(t, Parse(" AND ").Empty())
}

func BenchmarkParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"simple", "distributed systems"},
		{"boolean_and", "search AND analytics AND platform"},
		{"boolean_or", "indexing OR caching OR ranking"},
		{"long", "distributed search analytics platform indexing query processing ranking caching sharding"},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Parse(q.query)
			}
		})
	}
}
