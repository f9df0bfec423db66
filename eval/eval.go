// Package eval evaluates the expressions embedded in template
// documents: conditions, iterables, value lookups, and inline
// interpolation, each seen through the current loop scope merged over
// the top-level data.
//
// Two dialects are supported. The query dialect is a dotted path with
// array indexing ("customer.orders[0].total"). The script dialect is a
// full expression language (expr-lang) with the merged scope as its
// environment and a path("...") helper bridging back to query lookups.
//
// The evaluator contract is lenient by design: empty or invalid
// expressions yield empty results, never errors. Errors are reserved
// for genuine evaluator failure and abort the document being rendered.
package eval

import (
	"strings"

	"github.com/expr-lang/expr"

	"github.com/lvillar/docpdf/schema"
)

// Evaluator is the expression contract the renderer consumes.
// Implementations must tolerate empty and invalid expressions by
// returning empty results rather than errors, and must be safe for
// concurrent use.
type Evaluator interface {
	// Evaluate returns the expression's value, or nil when the
	// expression is absent or does not evaluate.
	Evaluate(e schema.Expression, data, loop map[string]any) (any, error)

	// EvaluateCondition returns the expression's truth value. ok is
	// false when there is no usable condition (absent, invalid, or
	// failing to evaluate); callers skip regardless of any inverse
	// flag in that case.
	EvaluateCondition(e schema.Expression, data, loop map[string]any) (result, ok bool, err error)

	// EvaluateIterable coerces the expression's value to a slice.
	// Anything that is not a sequence yields nil.
	EvaluateIterable(e schema.Expression, data, loop map[string]any) ([]any, error)

	// InterpolateTemplate replaces every {{ ... }} span in tmpl with
	// the evaluated, stringified inner expression.
	InterpolateTemplate(tmpl string, data, loop map[string]any) (string, error)
}

// Engine is the default Evaluator.
type Engine struct {
	lang schema.Language
}

// New returns an Engine whose interpolation spans and bare-string
// expressions use the given dialect. An empty language means query.
func New(defaultLang schema.Language) *Engine {
	if defaultLang == "" {
		defaultLang = schema.LangQuery
	}
	return &Engine{lang: defaultLang}
}

// Language returns the engine's default dialect.
func (g *Engine) Language() schema.Language { return g.lang }

// Evaluate implements Evaluator.
func (g *Engine) Evaluate(e schema.Expression, data, loop map[string]any) (any, error) {
	if e.IsZero() {
		return nil, nil
	}
	env := mergedEnv(data, loop)
	switch e.Language {
	case schema.LangScript:
		return runScript(e.Raw, env), nil
	default:
		v, _ := lookupPath(env, e.Raw)
		return v, nil
	}
}

// EvaluateCondition implements Evaluator.
func (g *Engine) EvaluateCondition(e schema.Expression, data, loop map[string]any) (result, ok bool, err error) {
	if e.IsZero() {
		return false, false, nil
	}
	env := mergedEnv(data, loop)
	switch e.Language {
	case schema.LangScript:
		out, ran := runScriptChecked(e.Raw, env)
		if !ran {
			return false, false, nil
		}
		return truthy(out), true, nil
	default:
		v, found := lookupPath(env, e.Raw)
		if !found {
			return false, false, nil
		}
		return truthy(v), true, nil
	}
}

// EvaluateIterable implements Evaluator.
func (g *Engine) EvaluateIterable(e schema.Expression, data, loop map[string]any) ([]any, error) {
	v, err := g.Evaluate(e, data, loop)
	if err != nil {
		return nil, err
	}
	return toSlice(v), nil
}

// InterpolateTemplate implements Evaluator. Spans that do not evaluate
// collapse to the empty string; an unterminated span is left verbatim.
func (g *Engine) InterpolateTemplate(tmpl string, data, loop map[string]any) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}
	var b strings.Builder
	rest := tmpl
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		end := strings.Index(rest[open:], "}}")
		if end < 0 {
			b.WriteString(rest[open:])
			break
		}
		raw := strings.TrimSpace(rest[open+2 : open+end])
		v, err := g.Evaluate(schema.Expression{Raw: raw, Language: g.lang}, data, loop)
		if err != nil {
			return "", err
		}
		b.WriteString(Stringify(v))
		rest = rest[open+end+2:]
	}
	return b.String(), nil
}

// runScript compiles and runs an expr-lang program against env.
// Failures of either stage degrade to nil.
func runScript(src string, env map[string]any) any {
	out, _ := runScriptChecked(src, env)
	return out
}

func runScriptChecked(src string, env map[string]any) (any, bool) {
	program, err := expr.Compile(src, expr.Env(withHelpers(env)))
	if err != nil {
		return nil, false
	}
	out, err := expr.Run(program, withHelpers(env))
	if err != nil {
		return nil, false
	}
	return out, true
}

// withHelpers extends env with the script-side helpers. The input map
// is copied so scopes stay immutable.
func withHelpers(env map[string]any) map[string]any {
	out := make(map[string]any, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	out["path"] = func(p string) any {
		v, _ := lookupPath(env, p)
		return v
	}
	return out
}

// mergedEnv overlays the loop scope on the data map, loop bindings
// winning. Neither input is modified.
func mergedEnv(data, loop map[string]any) map[string]any {
	out := make(map[string]any, len(data)+len(loop))
	for k, v := range data {
		out[k] = v
	}
	for k, v := range loop {
		out[k] = v
	}
	return out
}

// LoopScope returns the scope for iteration element i of n: base's
// bindings plus the element under alias, "{alias}_index",
// "{alias}_first", "{alias}_last", and an optional explicit index
// alias. base is copied, never mutated, so sibling iterations and
// nested loops cannot see each other's bindings.
func LoopScope(base map[string]any, alias string, item any, i, n int, indexAlias string) map[string]any {
	if alias == "" {
		alias = "item"
	}
	scope := make(map[string]any, len(base)+5)
	for k, v := range base {
		scope[k] = v
	}
	scope[alias] = item
	scope[alias+"_index"] = i
	scope[alias+"_first"] = i == 0
	scope[alias+"_last"] = i == n-1
	if indexAlias != "" {
		scope[indexAlias] = i
	}
	return scope
}
