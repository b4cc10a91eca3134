package app

import (
	"errors"
	"fmt"
)

// Surface names accepted by Config.Surface.
const (
	SurfaceLiteral   = "literal"
	SurfaceIntrinsic = "intrinsic"
)

// Output formats for the resource document.
const (
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// Config holds everything an App needs to render one template.
type Config struct {
	TemplatePath string // file path, "-" for stdin
	ResourceName string
	ResourceType string

	StackName string
	Region    string
	Surface   string
	Pattern   string // empty selects the default C{...} pattern

	Output    string
	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.TemplatePath == "" {
		return nil, errors.New("TemplatePath is a required configuration field and cannot be empty")
	}
	if cfg.ResourceName == "" {
		return nil, errors.New("ResourceName is a required configuration field and cannot be empty")
	}
	if cfg.ResourceType == "" {
		cfg.ResourceType = "AWS::EC2::Instance"
	}

	switch cfg.Surface {
	case "":
		cfg.Surface = SurfaceLiteral
	case SurfaceLiteral, SurfaceIntrinsic:
	default:
		return nil, fmt.Errorf("invalid surface %q: must be %q or %q", cfg.Surface, SurfaceLiteral, SurfaceIntrinsic)
	}
	if cfg.Surface == SurfaceLiteral && (cfg.StackName == "" || cfg.Region == "") {
		return nil, errors.New("the literal surface needs both StackName and Region")
	}

	switch cfg.Output {
	case "":
		cfg.Output = OutputYAML
	case OutputYAML, OutputJSON:
	default:
		return nil, fmt.Errorf("invalid output %q: must be %q or %q", cfg.Output, OutputYAML, OutputJSON)
	}

	return &cfg, nil
}
