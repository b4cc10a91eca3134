package bootstrap_test

import (
	"encoding/base64"
	"testing"

	"github.com/specialistvlad/cfize/internal/bootstrap"
	"github.com/specialistvlad/cfize/internal/surface"
	"github.com/stretchr/testify/require"
)

// fakeResource is a minimal in-memory resource binding.
type fakeResource struct {
	name  string
	attrs map[string]any
}

func newFakeResource(name string) *fakeResource {
	return &fakeResource{name: name, attrs: map[string]any{}}
}

func (r *fakeResource) Name() string { return r.name }

func (r *fakeResource) Attribute(key string) (any, bool) {
	v, ok := r.attrs[key]
	return v, ok
}

func (r *fakeResource) SetAttribute(key string, value any) { r.attrs[key] = value }

func (r *fakeResource) metadata(t *testing.T) map[string]any {
	t.Helper()
	md, ok := r.attrs[bootstrap.MetadataAttribute].(map[string]any)
	require.True(t, ok, "metadata missing or not a mapping")
	return md
}

func (r *fakeResource) init(t *testing.T) map[string]any {
	t.Helper()
	init, ok := r.metadata(t)[bootstrap.InitKey].(map[string]any)
	require.True(t, ok, "init metadata missing or not a mapping")
	return init
}

// userData decodes the literal surface's base64 user data.
func (r *fakeResource) userData(t *testing.T) string {
	t.Helper()
	encoded, ok := r.attrs[bootstrap.UserDataAttribute].(string)
	require.True(t, ok, "user data missing or not a string")
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	return string(raw)
}

func newLiteralBuilder(name string) (*bootstrap.Builder, *fakeResource) {
	r := newFakeResource(name)
	return bootstrap.New(r, surface.NewLiteral("web-stack", "eu-west-1")), r
}
