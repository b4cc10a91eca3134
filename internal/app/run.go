package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/cfize/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Run reads the template (from in when the path is "-"), renders it and
// writes the rendered text followed, when directives touched the resource,
// by the resource document.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "template", a.config.TemplatePath)

	text, err := a.readTemplate(in)
	if err != nil {
		return err
	}

	out, err := a.engine.Expand(ctx, text)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", a.config.TemplatePath, err)
	}

	// Intrinsic surfaces hand back an Fn::Join structure when the text
	// still carries references.
	if s, ok := out.(string); ok {
		if _, err := io.WriteString(a.outW, s); err != nil {
			return err
		}
	} else if err := a.writeValue(out); err != nil {
		return err
	}

	if a.resource.Metadata != nil || len(a.resource.Properties) > 0 {
		if _, err := io.WriteString(a.outW, "\n---\n"); err != nil {
			return err
		}
		if err := a.writeTemplate(); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) readTemplate(in io.Reader) (string, error) {
	if a.config.TemplatePath == "-" {
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("reading template from stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(a.config.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("reading template: %w", err)
	}
	return string(b), nil
}

func (a *App) writeValue(v any) error {
	if a.config.Output == OutputJSON {
		enc := json.NewEncoder(a.outW)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(a.outW)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (a *App) writeTemplate() error {
	if a.config.Output == OutputJSON {
		return a.template.WriteJSON(a.outW)
	}
	return a.template.WriteYAML(a.outW)
}
