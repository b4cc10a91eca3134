// Package surface defines the scripting surface shared by directive
// evaluation and the bootstrap builder: a join primitive, a base64 primitive
// and the stack-name/region accessors.
//
// Two implementations are provided. Literal resolves everything to plain
// strings up front. Intrinsic emits CloudFormation intrinsic functions
// (Fn::Join, Fn::Base64, Ref) so the values resolve at stack creation time.
package surface

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Surface is the capability set injected into every evaluation context.
type Surface interface {
	// Join concatenates parts with sep. Parts may be strings or nested
	// string lists; anything that cannot be reduced to a string fails.
	Join(sep string, parts []any) (any, error)
	// Base64 encodes a string (or a value the surface can encode).
	Base64(value any) (any, error)
	StackName() any
	Region() any
}

// Literal is a Surface whose stack name and region are known strings.
type Literal struct {
	stack  string
	region string
}

// NewLiteral returns a Literal surface for the given stack and region.
func NewLiteral(stack, region string) *Literal {
	return &Literal{stack: stack, region: region}
}

func (l *Literal) Join(sep string, parts []any) (any, error) {
	flat, err := flatten(parts, false)
	if err != nil {
		return nil, err
	}
	strs := make([]string, len(flat))
	for i, p := range flat {
		strs[i] = p.(string)
	}
	return strings.Join(strs, sep), nil
}

func (l *Literal) Base64(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("base64: expected a string, got %T", value)
	}
	return base64.StdEncoding.EncodeToString([]byte(s)), nil
}

func (l *Literal) StackName() any { return l.stack }

func (l *Literal) Region() any { return l.region }

// Intrinsic is a Surface that renders CloudFormation intrinsic functions.
// Join folds runs of plain strings and only emits Fn::Join when a reference
// remains, so text without references still comes back as a string.
type Intrinsic struct{}

// NewIntrinsic returns the intrinsic-function surface.
func NewIntrinsic() *Intrinsic {
	return &Intrinsic{}
}

func (Intrinsic) Join(sep string, parts []any) (any, error) {
	flat, err := flatten(parts, true)
	if err != nil {
		return nil, err
	}

	var folded []any
	var run []string
	flush := func() {
		if run != nil {
			folded = append(folded, strings.Join(run, sep))
			run = nil
		}
	}
	for _, p := range flat {
		if s, ok := p.(string); ok {
			run = append(run, s)
			continue
		}
		flush()
		folded = append(folded, p)
	}
	flush()

	switch {
	case len(folded) == 0:
		return "", nil
	case len(folded) == 1:
		if s, ok := folded[0].(string); ok {
			return s, nil
		}
	}
	return map[string]any{"Fn::Join": []any{sep, folded}}, nil
}

func (Intrinsic) Base64(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return map[string]any{"Fn::Base64": v}, nil
	case map[string]any:
		if !IsIntrinsic(v) {
			return nil, fmt.Errorf("base64: %v is not an intrinsic function", v)
		}
		return map[string]any{"Fn::Base64": v}, nil
	default:
		return nil, fmt.Errorf("base64: expected a string or intrinsic, got %T", value)
	}
}

func (Intrinsic) StackName() any { return Ref("AWS::StackName") }

func (Intrinsic) Region() any { return Ref("AWS::Region") }

// Ref builds a {"Ref": name} intrinsic.
func Ref(name string) map[string]any {
	return map[string]any{"Ref": name}
}

// IsIntrinsic reports whether m is a single-key Ref or Fn:: mapping.
func IsIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || strings.HasPrefix(k, "Fn::")
	}
	return false
}

// flatten reduces nested string lists to a flat slice of leaves. With
// allowIntrinsic set, intrinsic mappings are accepted as leaves.
func flatten(parts []any, allowIntrinsic bool) ([]any, error) {
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			out = append(out, v)
		case []string:
			for _, s := range v {
				out = append(out, s)
			}
		case []any:
			nested, err := flatten(v, allowIntrinsic)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		case map[string]any:
			if allowIntrinsic && IsIntrinsic(v) {
				out = append(out, v)
				continue
			}
			return nil, fmt.Errorf("join: %v cannot be reduced to a string", v)
		default:
			return nil, fmt.Errorf("join: element of type %T cannot be reduced to a string", p)
		}
	}
	return out, nil
}
