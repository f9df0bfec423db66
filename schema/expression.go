package schema

import "strings"

// Language selects the expression dialect an Expression is written in.
type Language string

const (
	// LangQuery is the path/query dialect: dotted field access with
	// array indexing, e.g. "customer.orders[0].total".
	LangQuery Language = "query"
	// LangScript is the full scripting dialect.
	LangScript Language = "script"
)

// Expression is a raw expression string plus its dialect, as stored in
// node props. The zero Expression evaluates to nothing.
type Expression struct {
	Raw      string
	Language Language
}

// IsZero reports whether e carries no expression.
func (e Expression) IsZero() bool {
	return strings.TrimSpace(e.Raw) == ""
}

// ExpressionFromValue reconstructs an Expression from a prop value.
// Accepted shapes are a map {"raw": ..., "language": ...} and a bare
// string (which takes the fallback language). Anything else degrades
// to the zero Expression rather than erroring.
func ExpressionFromValue(v Value, fallback Language) Expression {
	switch v.Kind() {
	case String:
		s, _ := v.Str()
		return Expression{Raw: s, Language: fallback}
	case Map:
		raw, ok := v.Field("raw").Str()
		if !ok {
			return Expression{}
		}
		lang := fallback
		if l, ok := v.Field("language").Str(); ok {
			switch Language(strings.ToLower(l)) {
			case LangQuery:
				lang = LangQuery
			case LangScript:
				lang = LangScript
			}
		}
		return Expression{Raw: raw, Language: lang}
	default:
		return Expression{}
	}
}
