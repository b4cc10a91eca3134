package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/cfize/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("cfize", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
cfize - render C{...} directives and cfn-init bootstrap metadata.

Usage:
  cfize [options] [TEMPLATE_PATH]

Arguments:
  TEMPLATE_PATH
    Path to the template text. Use "-" to read from stdin.

Options:
`)
		flagSet.PrintDefaults()
	}

	templateFlag := flagSet.String("template", "", "Path to the template text.")
	tFlag := flagSet.String("t", "", "Path to the template text (shorthand).")
	resourceFlag := flagSet.String("resource", "", "Logical name of the resource the directives are bound to.")
	resourceTypeFlag := flagSet.String("resource-type", "AWS::EC2::Instance", "Type of the bound resource.")
	stackFlag := flagSet.String("stack-name", "", "Stack name used by the literal surface.")
	regionFlag := flagSet.String("region", "", "Region used by the literal surface.")
	surfaceFlag := flagSet.String("surface", app.SurfaceLiteral, "Scripting surface. Options: 'literal' or 'intrinsic'.")
	patternFlag := flagSet.String("pattern", "", "Capture pattern with a named group 'directive'. Defaults to C{...}.")
	outputFlag := flagSet.String("output", app.OutputYAML, "Resource document format. Options: 'yaml' or 'json'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *templateFlag != "" {
		path = *templateFlag
	} else if *tFlag != "" {
		path = *tFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		slog.Debug("No template path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		TemplatePath: path,
		ResourceName: *resourceFlag,
		ResourceType: *resourceTypeFlag,
		StackName:    *stackFlag,
		Region:       *regionFlag,
		Surface:      strings.ToLower(*surfaceFlag),
		Pattern:      *patternFlag,
		Output:       strings.ToLower(*outputFlag),
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
