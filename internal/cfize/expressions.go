package cfize

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/cfize/internal/cferr"
	"github.com/specialistvlad/cfize/internal/surface"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// parseDirectives parses every directive token before any is evaluated and
// checks that each one only calls registered functions and reads registered
// variables. A bad directive anywhere in the text therefore fails the call
// before a single side effect has run. The returned slice is indexed like
// tokens; literal positions hold nil.
func (e *Engine) parseDirectives(tokens []token) ([]hclsyntax.Expression, error) {
	exprs := make([]hclsyntax.Expression, len(tokens))
	for i, tok := range tokens {
		if !tok.isDirective {
			continue
		}
		filename := fmt.Sprintf("directive[%d]", i/2)
		expr, diags := hclsyntax.ParseExpression([]byte(tok.directive), filename, hcl.Pos{Line: 1, Column: 1})
		if diags.HasErrors() {
			return nil, cferr.Evaluation(diags, "parsing directive %q", tok.directive)
		}

		for _, name := range calledFunctions(expr) {
			if _, ok := e.functions[name]; !ok {
				return nil, cferr.Evaluation(nil, "directive %q calls unknown function %q", tok.directive, name)
			}
		}
		for _, traversal := range expr.Variables() {
			if _, ok := e.variables[traversal.RootName()]; !ok {
				return nil, cferr.Evaluation(nil, "directive %q references unknown variable %q", tok.directive, traversal.RootName())
			}
		}
		exprs[i] = expr
	}
	return exprs, nil
}

// calledFunctions walks the syntax tree and returns the sorted, unique names
// of all function calls.
func calledFunctions(expr hclsyntax.Expression) []string {
	seen := make(map[string]struct{})
	hclsyntax.VisitAll(expr, func(node hclsyntax.Node) hcl.Diagnostics {
		if call, ok := node.(*hclsyntax.FunctionCallExpr); ok {
			seen[call.Name] = struct{}{}
		}
		return nil
	})

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// tokenValue coerces a directive result into something the surface join
// accepts: primitives become strings, structured values (string lists,
// intrinsics) are handed over in native form.
func tokenValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, fmt.Errorf("directive evaluated to null")
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("directive evaluated to an unknown value")
	}
	if v.Type().IsPrimitiveType() {
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, err
		}
		return s.AsString(), nil
	}
	return surface.ToNative(v)
}
