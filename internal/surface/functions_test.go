package surface_test

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/cfize/internal/cferr"
	"github.com/specialistvlad/cfize/internal/surface"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// evalExpr is a test helper that evaluates an expression against the
// surface's function registry.
func evalExpr(t *testing.T, s surface.Surface, src string) (cty.Value, hcl.Diagnostics) {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.Pos{Line: 1, Column: 1})
	require.False(t, diags.HasErrors(), "Expression parsing failed: %s", diags.Error())
	return expr.Value(&hcl.EvalContext{Functions: surface.Functions(s)})
}

func TestFunctions_LiteralSurface(t *testing.T) {
	s := surface.NewLiteral("web", "eu-west-1")

	testCases := []struct {
		expr string
		want string
	}{
		{`join(",", "a", ["b", "c"])`, "a,b,c"},
		{`base64("hello")`, "aGVsbG8="},
		{`stack_name()`, "web"},
		{`region()`, "eu-west-1"},
		{`join("/", stack_name(), region())`, "web/eu-west-1"},
		{`upper("x")`, "X"},
		{`format("%s-%d", "n", 3)`, "n-3"},
	}
	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			got, diags := evalExpr(t, s, tc.expr)
			require.False(t, diags.HasErrors(), diags.Error())
			require.Equal(t, cty.StringVal(tc.want), got)
		})
	}
}

func TestFunctions_JoinFailureSurfacesAsDiagnostic(t *testing.T) {
	_, diags := evalExpr(t, surface.NewLiteral("web", "eu-west-1"), `join("", ref("Thing"))`)
	require.True(t, diags.HasErrors())
}

func TestFunctions_IntrinsicSurface(t *testing.T) {
	got, diags := evalExpr(t, surface.NewIntrinsic(), `join("", "name=", stack_name())`)
	require.False(t, diags.HasErrors(), diags.Error())

	native, err := surface.ToNative(got)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"Fn::Join": []any{"", []any{"name=", map[string]any{"Ref": "AWS::StackName"}}},
	}, native)
}

func TestFunctions_ObjBuildsObjectsWithoutBraces(t *testing.T) {
	got, diags := evalExpr(t, surface.NewLiteral("web", "eu-west-1"),
		`obj("type", "S3", "buckets", ["a", "b"], "nested", obj("region", region()))`)
	require.False(t, diags.HasErrors(), diags.Error())

	native, err := surface.ToNative(got)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"type":    "S3",
		"buckets": []any{"a", "b"},
		"nested":  map[string]any{"region": "eu-west-1"},
	}, native)
}

func TestPairs_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []cty.Value
		wantErr string
	}{
		{"odd count", []cty.Value{cty.StringVal("a")}, "key/value pairs"},
		{"number key", []cty.Value{cty.NumberIntVal(1), cty.StringVal("a")}, "string key"},
		{"duplicate key", []cty.Value{cty.StringVal("a"), cty.True, cty.StringVal("a"), cty.False}, `duplicate key "a"`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := surface.Pairs("options", tc.args)

			require.ErrorIs(t, err, cferr.ErrInputType)
			require.ErrorContains(t, err, "options")
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
