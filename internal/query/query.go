// Package query models executable queries as boolean trees of boosted
// term clauses, plus the parsers that build them from request text.
package query

import (
	"fmt"
	"strings"
)

// Occur is the boolean role of a clause within its parent.
type Occur int

// Clause occurrence kinds.
const (
	Should Occur = iota
	Must
	MustNot
)

// Node is an executable query fragment. String returns the canonical
// text form used in debug traces and engine rendering.
type Node interface {
	String() string
}

// Term matches a single token in one field, with an optional boost.
type Term struct {
	Field string
	Text  string
	Boost float64
}

func (t *Term) String() string {
	s := t.Field + ":" + t.Text
	if t.Boost != 0 && t.Boost != 1 {
		s += fmt.Sprintf("^%.4g", t.Boost)
	}
	return s
}

// Clause pairs a node with its boolean role.
type Clause struct {
	Occur Occur
	Node  Node
}

// Boolean combines clauses with must/should/must-not semantics.
// MinShouldMatch of zero makes every should clause optional.
type Boolean struct {
	Clauses        []Clause
	MinShouldMatch int
}

// Add appends a clause.
func (b *Boolean) Add(occur Occur, n Node) {
	b.Clauses = append(b.Clauses, Clause{Occur: occur, Node: n})
}

func (b *Boolean) String() string {
	parts := make([]string, 0, len(b.Clauses))
	for _, c := range b.Clauses {
		s := c.Node.String()
		if _, nested := c.Node.(*Boolean); nested {
			s = "(" + s + ")"
		}
		switch c.Occur {
		case Must:
			s = "+" + s
		case MustNot:
			s = "-" + s
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
