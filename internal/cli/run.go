package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/internal/config"
	"github.com/aretw0/stepgrid/internal/logging"
	"github.com/aretw0/stepgrid/internal/presentation/tui"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/muesli/termenv"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Config       config.Config
	TemplatePath string // layout file
	TemplateID   string // id in the template library
	Algorithm    string // overrides the template and config algorithm
	Random       bool   // randomize a blank grid before searching
	Headless     bool
	JSON         bool // one snapshot per line
	Interactive  bool // stdout is a terminal
	Debug        bool
	Output       io.Writer
	Logger       *slog.Logger
}

// Run builds an engine from opts and drives it to completion.
// An interrupted run is not an error.
func Run(ctx context.Context, opts RunOptions) (domain.Status, error) {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.TemplatePath != "" && opts.TemplateID != "" {
		return domain.StatusIdle, fmt.Errorf("a template file and a library id cannot be used together")
	}

	engine, err := BuildEngine(ctx, opts)
	if err != nil {
		return domain.StatusIdle, err
	}

	r := &stepgrid.Runner{
		Output:   opts.Output,
		Delay:    opts.Config.Grid.Delay,
		MaxSteps: opts.Config.Grid.MaxSteps,
		Headless: opts.Headless,
	}

	switch {
	case opts.JSON:
		r.Renderer = jsonFrame
		r.Summarizer = func(*domain.Snapshot) string { return "" }
		if opts.Headless {
			// Headless JSON still needs the final snapshot.
			r.Summarizer = jsonFrame
		}
	case opts.Interactive && !opts.Headless:
		tui.PrintBanner(opts.Output, stepgrid.Version)
		r.Renderer = tui.ClearScreen(tui.NewGridRenderer(termenv.EnvColorProfile(), nil))
		render := tui.NewRenderer()
		r.Summarizer = func(s *domain.Snapshot) string {
			out, err := render(tui.SummaryMarkdown(s))
			if err != nil {
				return stepgrid.Summary(s)
			}
			return out
		}
	}

	opts.Logger.Info("Run started",
		"template", engine.Name,
		"algorithm", engine.Algorithm(),
		"columns", engine.Columns(),
		"rows", engine.Rows(),
	)
	status, err := r.Run(ctx, engine)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			opts.Logger.Info("Run interrupted", "steps", engine.Steps(), "status", status)
			return status, nil
		}
		return status, err
	}
	opts.Logger.Info("Run finished", "steps", engine.Steps(), "status", status)
	return status, nil
}

// BuildEngine picks the grid source: a layout file, a saved or library template,
// or a blank grid of the configured size (randomized on request).
func BuildEngine(ctx context.Context, opts RunOptions) (*stepgrid.Engine, error) {
	cfg := opts.Config
	engineOpts := append(EngineOptions(cfg, opts.Logger, opts.Debug), stepgrid.WithLogger(opts.Logger))
	if opts.Algorithm != "" {
		algo, err := domain.ParseAlgorithm(opts.Algorithm)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, stepgrid.WithAlgorithm(algo))
	}
	withDefault := func() []stepgrid.Option {
		if opts.Algorithm != "" {
			return engineOpts
		}
		return append([]stepgrid.Option{stepgrid.WithAlgorithm(cfg.Algorithm())}, engineOpts...)
	}

	switch {
	case opts.TemplatePath != "":
		data, err := os.ReadFile(opts.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}
		return stepgrid.New(data, withDefault()...)

	case opts.TemplateID != "":
		tmpl, err := loadTemplate(ctx, cfg, opts.TemplateID)
		if err != nil {
			return nil, err
		}
		if tmpl.Algorithm == "" {
			return stepgrid.FromTemplate(tmpl, withDefault()...)
		}
		return stepgrid.FromTemplate(tmpl, engineOpts...)

	default:
		engine, err := stepgrid.NewBlank(cfg.Grid.Columns, cfg.Grid.Rows, withDefault()...)
		if err != nil {
			return nil, err
		}
		if opts.Random {
			engine.Randomize(cfg.Randomize())
		}
		return engine, nil
	}
}

// loadTemplate resolves id against the configured store, then the library.
func loadTemplate(ctx context.Context, cfg config.Config, id string) (*domain.Template, error) {
	backend, err := OpenBackend(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	library, err := OpenLibrary(cfg.Library.Dir)
	if err != nil {
		return nil, err
	}
	return FindTemplate(ctx, id, library, backend.Store)
}

func jsonFrame(s *domain.Snapshot) string {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(data)
}
