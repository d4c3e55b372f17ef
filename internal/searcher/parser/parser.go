// Package parser turns a raw boolean keyword query into a QueryPlan.
//
// Words are separated by whitespace. The literal upper-case words AND and OR
// are operators; every other word is an operand normalised by the tokenizer.
// Consecutive operands are joined by an implicit AND. Queries are never
// rejected: leading and trailing operators are dropped, the last of several
// consecutive operators wins, and operands that normalise to nothing are
// skipped.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/tokenizer"
)

type Operator int

const (
	OpAND Operator = iota
	OpOR
)

func (o Operator) String() string {
	if o == OpOR {
		return "OR"
	}
	return "AND"
}

// Clause combines the running result with the posting set of Term. The
// operator of the first clause is always OpAND and is not applied.
type Clause struct {
	Op   Operator
	Term string
}

type QueryPlan struct {
	Clauses  []Clause
	RawQuery string
}

func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		Clauses:  make([]Clause, 0),
		RawQuery: query,
	}
	pending := OpAND
	for _, word := range strings.Fields(query) {
		switch word {
		case "AND":
			pending = OpAND
			continue
		case "OR":
			pending = OpOR
			continue
		}
		term := tokenizer.Normalize(word)
		if term == "" {
			continue
		}
		if len(plan.Clauses) == 0 {
			pending = OpAND
		}
		plan.Clauses = append(plan.Clauses, Clause{Op: pending, Term: term})
		pending = OpAND
	}
	return plan
}

// Empty reports whether the plan has no operands.
func (p *QueryPlan) Empty() bool {
	return len(p.Clauses) == 0
}

// Terms returns the operand terms in query order.
func (p *QueryPlan) Terms() []string {
	terms := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		terms[i] = c.Term
	}
	return terms
}

// String renders the plan in canonical form with every operator explicit,
// e.g. "lazy AND dog OR cat". Two queries with the same canonical form
// always have the same result.
func (p *QueryPlan) String() string {
	var b strings.Builder
	for i, c := range p.Clauses {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(c.Op.String())
			b.WriteByte(' ')
		}
		b.WriteString(c.Term)
	}
	return b.String()
}
