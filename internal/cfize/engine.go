package cfize

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/cfize/internal/cferr"
	"github.com/specialistvlad/cfize/internal/ctxlog"
	"github.com/specialistvlad/cfize/internal/surface"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// DirectiveGroup is the named capture group every pattern must expose.
const DirectiveGroup = "directive"

// DefaultPattern matches C{...} with non-greedy inner content.
const DefaultPattern = `C\{(?P<directive>.*?)\}`

// Engine renders template text. It is safe to reuse across calls; each call
// builds its own evaluation context.
type Engine struct {
	surface   surface.Surface
	pattern   *regexp.Regexp
	group     int
	functions map[string]function.Function
	variables map[string]cty.Value
}

// Option configures an Engine.
type Option func(*Engine) error

// WithPattern overrides the capture pattern. The pattern must compile and
// must contain a named group called "directive".
func WithPattern(expr string) Option {
	return func(e *Engine) error {
		re, err := regexp.Compile(expr)
		if err != nil {
			return cferr.Configuration("capture_pattern", "invalid pattern %q: %v", expr, err)
		}
		e.pattern = re
		return nil
	}
}

// WithFunctions adds functions to the registry, replacing any with the same
// name.
func WithFunctions(funcs map[string]function.Function) Option {
	return func(e *Engine) error {
		for name, fn := range funcs {
			e.functions[name] = fn
		}
		return nil
	}
}

// WithVariables exposes variables to directives.
func WithVariables(vars map[string]cty.Value) Option {
	return func(e *Engine) error {
		for name, v := range vars {
			e.variables[name] = v
		}
		return nil
	}
}

// New builds an Engine over the given surface. The capture pattern is
// validated here, before any text is processed.
func New(s surface.Surface, opts ...Option) (*Engine, error) {
	e := &Engine{
		surface:   s,
		pattern:   regexp.MustCompile(DefaultPattern),
		functions: surface.Functions(s),
		variables: make(map[string]cty.Value),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.group = e.pattern.SubexpIndex(DirectiveGroup)
	if e.group < 0 {
		return nil, cferr.Configuration("capture_pattern",
			"pattern %q must include a named group %q", e.pattern.String(), DirectiveGroup)
	}
	return e, nil
}

// Cfize renders text with a one-off Engine.
func Cfize(ctx context.Context, text string, s surface.Surface, opts ...Option) (string, error) {
	e, err := New(s, opts...)
	if err != nil {
		return "", err
	}
	return e.Render(ctx, text)
}

// Render substitutes every directive in text and returns the joined result.
// The result must reduce to a plain string.
func (e *Engine) Render(ctx context.Context, text string) (string, error) {
	out, err := e.Expand(ctx, text)
	if err != nil {
		return "", err
	}
	s, ok := out.(string)
	if !ok {
		return "", cferr.Evaluation(nil, "rendered template is not a plain string (got %T); use Expand", out)
	}
	return s, nil
}

// Expand is the dynamically typed form of Render. text must be a string.
// The surface's join result is returned as is, so with an intrinsic surface
// directives that yield references produce an Fn::Join structure.
func (e *Engine) Expand(ctx context.Context, text any) (any, error) {
	str, ok := text.(string)
	if !ok {
		return nil, cferr.InputType("text", "must be a string, got %T", text)
	}
	logger := ctxlog.FromContext(ctx)

	tokens, err := e.tokenize(str)
	if err != nil {
		return nil, err
	}

	exprs, err := e.parseDirectives(tokens)
	if err != nil {
		return nil, err
	}
	logger.Debug("Template tokenized.", "tokens", len(tokens), "directives", len(exprs))

	evalCtx := e.evalContext()
	parts := make([]any, 0, len(tokens))
	for i, tok := range tokens {
		if !tok.isDirective {
			if tok.text != "" {
				parts = append(parts, tok.text)
			}
			continue
		}

		val, diags := exprs[i].Value(evalCtx)
		if diags.HasErrors() {
			return nil, directiveError(tok.directive, diags)
		}
		part, err := tokenValue(val)
		if err != nil {
			return nil, cferr.Evaluation(err, "directive %q", tok.directive)
		}
		logger.Debug("Directive evaluated.", "directive", tok.directive)
		if part != "" {
			parts = append(parts, part)
		}
	}

	joined, err := e.surface.Join("", parts)
	if err != nil {
		return nil, cferr.Evaluation(err, "reassembling template")
	}
	return joined, nil
}

// directiveError keeps a classified error raised by a registered function
// (for example a missing builder option) and wraps anything else as an
// evaluation error.
func directiveError(directive string, diags hcl.Diagnostics) error {
	for _, diag := range diags {
		extra, ok := diag.Extra.(hclsyntax.FunctionCallDiagExtra)
		if !ok {
			continue
		}
		var classified *cferr.Error
		if errors.As(extra.FunctionCallError(), &classified) {
			return fmt.Errorf("directive %q: %w", directive, classified)
		}
	}
	return cferr.Evaluation(diags, "directive %q", directive)
}

// evalContext builds the single context shared by all directives of one call.
func (e *Engine) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(e.variables))
	for k, v := range e.variables {
		vars[k] = v
	}
	funcs := make(map[string]function.Function, len(e.functions))
	for k, fn := range e.functions {
		funcs[k] = fn
	}
	return &hcl.EvalContext{Variables: vars, Functions: funcs}
}
