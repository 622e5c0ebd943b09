package eval

import (
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldmodel"
)

// celEnv is shared across all matchesExpr clauses: program construction is the expensive part
// of CEL, but the environment itself (the set of declared variables) never varies by clause.
var celEnv = sync.OnceValue(func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("attr", cel.DynType),
		cel.Variable("kind", cel.StringType),
	)
	if err != nil {
		// The declaration set above is fixed and known-valid; a failure here means the cel-go
		// version in use changed its API shape, which is a build-time concern, not a runtime one.
		panic(err)
	}
	return env
})

var celProgramCache sync.Map // string -> cel.Program

// evaluateCelClause evaluates a matchesExpr clause (a non-standard operator layered on top of
// the clause operators) by compiling clause.CelExpression as a CEL expression and running it
// with "attr" bound to the clause's attribute value on the matched context kind and "kind"
// bound to that context kind's name. Any compilation, type-check, or evaluation error is
// treated as a non-match, consistent with the WRONG_TYPE-as-false handling of the built-in
// operators.
func evaluateCelClause(clause *ldmodel.Clause, c ldcontext.Context) bool {
	expr := clause.CelExpression
	if expr == "" {
		return false
	}

	kind := clause.ContextKind
	if kind == "" {
		kind = ldcontext.DefaultKind
	}
	sub, ok := c.ContextByKind(kind)
	if !ok {
		return false
	}
	attrVal := sub.GetValue(clause.Attribute)
	if attrVal.IsNull() {
		return false
	}

	prg, err := celProgramFor(expr)
	if err != nil {
		return false
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"attr": attrVal.AsArbitraryValue(),
		"kind": string(kind),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

func celProgramFor(expr string) (cel.Program, error) {
	if cached, ok := celProgramCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	ast, iss := celEnv().Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	prg, err := celEnv().Program(ast)
	if err != nil {
		return nil, err
	}
	celProgramCache.Store(expr, prg)
	return prg, nil
}
