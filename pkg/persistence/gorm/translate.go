package gorm

import (
	"fmt"
	"strings"

	"github.com/narwhalmedia/querykit/pkg/errors"
	"github.com/narwhalmedia/querykit/pkg/specification"
	"github.com/narwhalmedia/querykit/pkg/sqltext"
)

// Clause is the SQL form of a predicate tree.
//
// SQL is empty when nothing could be translated. Exact is false when
// untranslatable conjuncts were dropped; the clause then selects a superset
// of the matching rows and the predicate must still run in memory.
type Clause struct {
	SQL   string
	Args  []any
	Exact bool
}

// Empty reports whether the clause carries no condition.
func (c Clause) Empty() bool { return c.SQL == "" }

func (c Clause) String() string {
	return fmt.Sprintf("sql: %s\nargs: %v\nexact: %t\n", c.SQL, c.Args, c.Exact)
}

// Translate renders a predicate tree as a WHERE condition.
//
// AND keeps the conjuncts it can translate and drops the rest. OR and NOT
// translate only when every operand does, and NOT additionally requires an
// exact operand since negating a superset would lose rows.
func Translate(n specification.Node) Clause {
	switch n := n.(type) {
	case *specification.Const:
		return Clause{SQL: "1 = 1", Exact: true}
	case *specification.Predicate:
		if !n.Translatable() {
			return Clause{}
		}
		text, args, err := Positional(n.Symbol)
		if err != nil || text == "" {
			return Clause{}
		}
		if strings.Contains(text, "--") {
			// Keep the closing parenthesis out of a trailing line comment.
			text += "\n"
		}
		return Clause{SQL: "(" + text + ")", Args: args, Exact: true}
	case *specification.And:
		left, right := Translate(n.Left), Translate(n.Right)
		switch {
		case left.Empty() && right.Empty():
			return Clause{}
		case left.Empty():
			right.Exact = false
			return right
		case right.Empty():
			left.Exact = false
			return left
		}
		return join("AND", left, right)
	case *specification.Or:
		left, right := Translate(n.Left), Translate(n.Right)
		if left.Empty() || right.Empty() {
			return Clause{}
		}
		return join("OR", left, right)
	case *specification.Not:
		operand := Translate(n.Operand)
		if operand.Empty() || !operand.Exact {
			return Clause{}
		}
		return Clause{SQL: "NOT " + operand.SQL, Args: operand.Args, Exact: true}
	default:
		return Clause{}
	}
}

func join(op string, left, right Clause) Clause {
	args := make([]any, 0, len(left.Args)+len(right.Args))
	args = append(args, left.Args...)
	args = append(args, right.Args...)
	return Clause{
		SQL:   "(" + left.SQL + " " + op + " " + right.SQL + ")",
		Args:  args,
		Exact: left.Exact && right.Exact,
	}
}

// Positional converts a fragment to text with positional ? placeholders.
// Interpolated @name placeholders are replaced in order of appearance.
//
// Text inside single-quoted literals, double-quoted identifiers and -- line
// comments is copied unchanged. Block comments and dollar-quoted strings are
// not recognized, so fragments must not put @name inside them.
func Positional(f sqltext.Fragment) (string, []any, error) {
	switch f := f.(type) {
	case sqltext.Raw:
		return f.Text, append([]any(nil), f.Args...), nil
	case sqltext.Interpolated:
		return interpolate(f.Text, f.Params)
	case nil:
		return "", nil, nil
	default:
		return "", nil, errors.InvalidArgument(fmt.Sprintf("unsupported query text %T", f))
	}
}

func interpolate(text string, params map[string]any) (string, []any, error) {
	var (
		b     strings.Builder
		args  []any
		quote byte
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
			continue
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
			continue
		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = len(text) - i
			}
			b.WriteString(text[i : i+end])
			i += end - 1
			continue
		}
		if c != '@' || (i > 0 && isIdentByte(text[i-1])) {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(text) && isIdentByte(text[j]) {
			j++
		}
		if j == i+1 {
			b.WriteByte(c)
			continue
		}
		name := text[i+1 : j]
		value, ok := params[name]
		if !ok {
			return "", nil, errors.InvalidArgument(fmt.Sprintf("missing value for parameter @%s", name))
		}
		b.WriteByte('?')
		args = append(args, value)
		i = j - 1
	}
	return b.String(), args, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
