package redis

import (
	"fmt"
	"strings"

	"github.com/querystack/relfeed/internal/query"
)

// Render translates a query tree plus filters into a RediSearch
// dialect-2 query string. Filters are conjoined with the main query.
func Render(q query.Node, filters []query.Node) string {
	parts := []string{renderNode(q)}
	for _, f := range filters {
		parts = append(parts, "("+renderNode(f)+")")
	}
	return strings.Join(parts, " ")
}

func renderNode(n query.Node) string {
	switch q := n.(type) {
	case *query.Term:
		return renderTerm(q)
	case *query.Boolean:
		return renderBoolean(q)
	default:
		return ""
	}
}

func renderTerm(t *query.Term) string {
	s := fmt.Sprintf("@%s:(%s)", t.Field, escapeToken(t.Text))
	if t.Boost != 0 && t.Boost != 1 {
		s = fmt.Sprintf("(%s)=>{$weight:%.4g;}", s, t.Boost)
	}
	return s
}

// renderBoolean renders must clauses as conjunctions, should clauses as
// a disjunction group and must-not clauses with the - prefix. A
// minimum-should-match of zero maps onto a plain disjunction, which is
// the only value this pipeline produces.
func renderBoolean(b *query.Boolean) string {
	var musts, shoulds, nots []string
	for _, c := range b.Clauses {
		s := renderNode(c.Node)
		if s == "" {
			continue
		}
		if _, nested := c.Node.(*query.Boolean); nested {
			s = "(" + s + ")"
		}
		switch c.Occur {
		case query.Must:
			musts = append(musts, s)
		case query.MustNot:
			nots = append(nots, "-"+s)
		case query.Should:
			shoulds = append(shoulds, s)
		}
	}

	var parts []string
	parts = append(parts, musts...)
	if len(shoulds) == 1 {
		parts = append(parts, shoulds[0])
	} else if len(shoulds) > 1 {
		parts = append(parts, "("+strings.Join(shoulds, " | ")+")")
	}
	parts = append(parts, nots...)

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

var tokenEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`,`, `\,`,
)

func escapeToken(s string) string {
	return tokenEscaper.Replace(s)
}
