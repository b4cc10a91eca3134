package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/cfize/internal/cferr"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// blockPattern lets directives contain braces.
const blockPattern = `(?s)<%=(?P<directive>.*?)%>`

func testConfig(t *testing.T, overrides Config) *Config {
	t.Helper()
	base := Config{
		TemplatePath: "-",
		ResourceName: "WebServer",
		StackName:    "web-stack",
		Region:       "eu-west-1",
		LogLevel:     "error",
	}
	if overrides.Surface != "" {
		base.Surface = overrides.Surface
	}
	if overrides.Output != "" {
		base.Output = overrides.Output
	}
	if overrides.Pattern != "" {
		base.Pattern = overrides.Pattern
	}
	if overrides.TemplatePath != "" {
		base.TemplatePath = overrides.TemplatePath
	}
	cfg, err := NewConfig(base)
	require.NoError(t, err)
	return cfg
}

func TestNewConfig_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing template", Config{ResourceName: "R"}, "TemplatePath"},
		{"missing resource", Config{TemplatePath: "-"}, "ResourceName"},
		{"bad surface", Config{TemplatePath: "-", ResourceName: "R", Surface: "ruby"}, "invalid surface"},
		{"literal needs stack", Config{TemplatePath: "-", ResourceName: "R"}, "StackName and Region"},
		{"bad output", Config{TemplatePath: "-", ResourceName: "R", Surface: "intrinsic", Output: "xml"}, "invalid output"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.cfg)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(Config{TemplatePath: "-", ResourceName: "R", Surface: "intrinsic"})

	require.NoError(t, err)
	require.Equal(t, "AWS::EC2::Instance", cfg.ResourceType)
	require.Equal(t, OutputYAML, cfg.Output)
}

func TestNewApp_RejectsPatternWithoutDirectiveGroup(t *testing.T) {
	cfg := testConfig(t, Config{Pattern: `C\{(.*?)\}`})

	_, err := NewApp(&bytes.Buffer{}, &bytes.Buffer{}, cfg)

	require.ErrorIs(t, err, cferr.ErrConfiguration)
}

func TestRun_PlainTextFromStdin(t *testing.T) {
	out := &bytes.Buffer{}
	a, err := NewApp(out, &bytes.Buffer{}, testConfig(t, Config{}))
	require.NoError(t, err)

	err = a.Run(context.Background(), strings.NewReader("stack C{stack_name()} for C{resource.name}\n"))

	require.NoError(t, err)
	require.Equal(t, "stack web-stack for WebServer\n", out.String())
}

func TestRun_BootstrapDirectiveEmitsResourceDocument(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	path := filepath.Join(dir, "web.tmpl")
	tmpl := `# web <%= cfn_init_config_set("default", ["install"]) %><%= cfn_init_setup({ cfn_init_config_set = "default", signal = "WebServer" }) %>`
	require.NoError(t, os.WriteFile(path, []byte(tmpl), 0600))

	out := &bytes.Buffer{}
	a, err := NewApp(out, &bytes.Buffer{}, testConfig(t, Config{TemplatePath: path, Pattern: blockPattern}))
	require.NoError(t, err)

	// --- Act ---
	err = a.Run(context.Background(), nil)

	// --- Assert ---
	require.NoError(t, err)
	rendered, doc, found := strings.Cut(out.String(), "\n---\n")
	require.True(t, found)
	require.Equal(t, "# web ", rendered)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(doc), &parsed))
	web := parsed["Resources"].(map[string]any)["WebServer"].(map[string]any)
	encoded := web["Properties"].(map[string]any)["UserData"].(string)
	script, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Contains(t, string(script), "--configsets 'default' --stack web-stack --resource WebServer")
	// cfn_init_setup resets Init metadata.
	require.Equal(t, map[string]any{}, web["Metadata"].(map[string]any)["AWS::CloudFormation::Init"])
}

func TestRun_BootstrapWithDefaultPattern(t *testing.T) {
	// --- Arrange ---
	tmpl := `#!C{cfn_auth("S3Access", "type", "S3", "roleName", "web")}` +
		`C{cfn_init_setup("cfn_init_config_set", "default", "signal", "WebServer")}` +
		`C{cfn_init_config("install", "commands", obj("hello", obj("command", "echo hello")))}` +
		`C{cfn_init_config_set("default", ["install"])} C{resource.name}`
	out := &bytes.Buffer{}
	a, err := NewApp(out, &bytes.Buffer{}, testConfig(t, Config{}))
	require.NoError(t, err)

	// --- Act ---
	err = a.Run(context.Background(), strings.NewReader(tmpl))

	// --- Assert ---
	require.NoError(t, err)
	rendered, doc, found := strings.Cut(out.String(), "\n---\n")
	require.True(t, found)
	require.Equal(t, "#! WebServer", rendered)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(doc), &parsed))
	web := parsed["Resources"].(map[string]any)["WebServer"].(map[string]any)
	script, err := base64.StdEncoding.DecodeString(web["Properties"].(map[string]any)["UserData"].(string))
	require.NoError(t, err)
	require.Contains(t, string(script), "--configsets 'default' --stack web-stack --resource WebServer")
	require.Contains(t, string(script), "cfn-signal -s true --resource 'WebServer'")

	md := web["Metadata"].(map[string]any)
	require.Equal(t, map[string]any{"S3Access": map[string]any{"type": "S3", "roleName": "web"}},
		md["AWS::CloudFormation::Authentication"])
	init := md["AWS::CloudFormation::Init"].(map[string]any)
	require.Equal(t, map[string]any{"commands": map[string]any{"hello": map[string]any{"command": "echo hello"}}},
		init["install"])
	require.Equal(t, []any{"install"}, init["configSets"].(map[string]any)["default"])
}

func TestRun_IntrinsicSurfaceWritesStructure(t *testing.T) {
	out := &bytes.Buffer{}
	a, err := NewApp(out, &bytes.Buffer{}, testConfig(t, Config{Surface: SurfaceIntrinsic, Output: OutputJSON}))
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background(), strings.NewReader("stack=C{stack_name()}")))

	require.JSONEq(t, `{"Fn::Join": ["", ["stack=", {"Ref": "AWS::StackName"}]]}`, out.String())
}

func TestRun_EvaluationErrorIsReturned(t *testing.T) {
	out := &bytes.Buffer{}
	a, err := NewApp(out, &bytes.Buffer{}, testConfig(t, Config{Pattern: blockPattern}))
	require.NoError(t, err)

	err = a.Run(context.Background(), strings.NewReader("<%= cfn_init_setup({}) %>"))

	require.ErrorIs(t, err, cferr.ErrConfiguration)
	require.ErrorContains(t, err, "cfn_init_config_set")
	require.Empty(t, out.String())
}

func TestRun_MissingFile(t *testing.T) {
	a, err := NewApp(&bytes.Buffer{}, &bytes.Buffer{}, testConfig(t, Config{TemplatePath: filepath.Join(t.TempDir(), "nope")}))
	require.NoError(t, err)

	require.ErrorContains(t, a.Run(context.Background(), nil), "reading template")
}
