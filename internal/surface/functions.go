package surface

import (
	"github.com/specialistvlad/cfize/internal/cferr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Functions returns the fixed function registry exposed to directives for
// the given surface. Hosts may add to the returned map before building an
// evaluation context.
func Functions(s Surface) map[string]function.Function {
	return map[string]function.Function{
		"join":       joinFunc(s),
		"base64":     base64Func(s),
		"stack_name": accessorFunc("Returns the stack name.", s.StackName),
		"region":     accessorFunc("Returns the stack region.", s.Region),
		"ref":        refFunc,
		"obj":        objFunc,
		"upper":      stdlib.UpperFunc,
		"lower":      stdlib.LowerFunc,
		"format":     stdlib.FormatFunc,
		"concat":     stdlib.ConcatFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
	}
}

func joinFunc(s Surface) function.Function {
	return function.New(&function.Spec{
		Description: "Joins strings or nested string lists with a separator.",
		Params: []function.Parameter{
			{Name: "separator", Type: cty.String},
		},
		VarParam: &function.Parameter{Name: "parts", Type: cty.DynamicPseudoType},
		Type:     function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			parts := make([]any, 0, len(args)-1)
			for _, arg := range args[1:] {
				native, err := ToNative(arg)
				if err != nil {
					return cty.NilVal, err
				}
				parts = append(parts, native)
			}
			joined, err := s.Join(args[0].AsString(), parts)
			if err != nil {
				return cty.NilVal, err
			}
			return FromNative(joined)
		},
	})
}

func base64Func(s Surface) function.Function {
	return function.New(&function.Spec{
		Description: "Base64-encodes a value through the surface.",
		Params: []function.Parameter{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
		Type: function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			native, err := ToNative(args[0])
			if err != nil {
				return cty.NilVal, err
			}
			encoded, err := s.Base64(native)
			if err != nil {
				return cty.NilVal, err
			}
			return FromNative(encoded)
		},
	})
}

func accessorFunc(desc string, get func() any) function.Function {
	return function.New(&function.Spec{
		Description: desc,
		Params:      []function.Parameter{},
		Type:        function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(_ []cty.Value, _ cty.Type) (cty.Value, error) {
			return FromNative(get())
		},
	})
}

var refFunc = function.New(&function.Spec{
	Description: "Builds a Ref intrinsic for a logical resource or parameter name.",
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.DynamicPseudoType),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return FromNative(Ref(args[0].AsString()))
	},
})

// objFunc builds an object from alternating key/value arguments. It stands in
// for an object literal where the capture pattern cannot contain braces.
var objFunc = function.New(&function.Spec{
	Description: "Builds an object from alternating key and value arguments.",
	Params:      []function.Parameter{},
	VarParam:    &function.Parameter{Name: "pairs", Type: cty.DynamicPseudoType},
	Type:        function.StaticReturnType(cty.DynamicPseudoType),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return Pairs("obj", args)
	},
})

// Pairs folds alternating key/value arguments into an object value. Keys
// must be strings and may not repeat. key names the caller in errors.
func Pairs(key string, args []cty.Value) (cty.Value, error) {
	if len(args)%2 != 0 {
		return cty.NilVal, cferr.InputType(key, "expects key/value pairs, got %d arguments", len(args))
	}
	attrs := make(map[string]cty.Value, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		k := args[i]
		if k.IsNull() || !k.IsKnown() || k.Type() != cty.String {
			return cty.NilVal, cferr.InputType(key, "argument %d must be a string key, got %s", i+1, k.Type().FriendlyName())
		}
		name := k.AsString()
		if _, dup := attrs[name]; dup {
			return cty.NilVal, cferr.InputType(key, "duplicate key %q", name)
		}
		attrs[name] = args[i+1]
	}
	return cty.ObjectVal(attrs), nil
}
