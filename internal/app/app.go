package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/specialistvlad/cfize/internal/bootstrap"
	"github.com/specialistvlad/cfize/internal/cfize"
	"github.com/specialistvlad/cfize/internal/ctxlog"
	"github.com/specialistvlad/cfize/internal/resource"
	"github.com/specialistvlad/cfize/internal/surface"
	"github.com/zclconf/go-cty/cty"
)

// App renders one template against one bound resource.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	template *resource.Template
	resource *resource.Resource
	engine   *cfize.Engine
}

// NewApp builds the surface, the resource binding, the bootstrap builder
// and the engine. Logs go to logW so they never mix with rendered output.
func NewApp(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var s surface.Surface
	if cfg.Surface == SurfaceIntrinsic {
		s = surface.NewIntrinsic()
	} else {
		s = surface.NewLiteral(cfg.StackName, cfg.Region)
	}

	tmpl := resource.NewTemplate("")
	res := resource.New(cfg.ResourceName, cfg.ResourceType)
	if err := tmpl.Add(res); err != nil {
		return nil, err
	}
	builder := bootstrap.New(res, s)

	opts := []cfize.Option{
		cfize.WithFunctions(bootstrap.Functions(ctx, builder)),
		cfize.WithVariables(map[string]cty.Value{
			"resource": cty.ObjectVal(map[string]cty.Value{
				"name": cty.StringVal(res.Name()),
				"type": cty.StringVal(res.Type),
			}),
		}),
	}
	if cfg.Pattern != "" {
		opts = append(opts, cfize.WithPattern(cfg.Pattern))
	}
	engine, err := cfize.New(s, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Engine configured.", "surface", cfg.Surface, "resource", res.Name())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		template: tmpl,
		resource: res,
		engine:   engine,
	}, nil
}

// Resource returns the bound resource. This is primarily for testing.
func (a *App) Resource() *resource.Resource {
	return a.resource
}
