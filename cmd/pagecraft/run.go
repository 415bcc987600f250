package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagecraft/internal/config"
	"git.home.luguber.info/inful/pagecraft/internal/events"
	"git.home.luguber.info/inful/pagecraft/internal/llm"
	"git.home.luguber.info/inful/pagecraft/internal/metrics"
	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
	"git.home.luguber.info/inful/pagecraft/internal/runstore"
	"git.home.luguber.info/inful/pagecraft/internal/stages"
	"git.home.luguber.info/inful/pagecraft/internal/watch"
	"git.home.luguber.info/inful/pagecraft/internal/writer"
)

// app holds the wired collaborators for one or more generation runs.
type app struct {
	cfg      *config.Config
	runner   *pipeline.Runner
	writer   *writer.Writer
	recorder metrics.Recorder
	registry *prom.Registry
	closers  []func()
}

func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
}

// newApp wires configuration into a ready-to-run pipeline.
func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		a.registry = prom.NewRegistry()
		a.recorder = metrics.NewPrometheusRecorder(a.registry)
	}

	temperature := config.DefaultTemperature
	if cfg.LLM.Temperature != nil {
		temperature = *cfg.LLM.Temperature
	}
	maxRetries := config.DefaultMaxRetries
	if cfg.LLM.MaxRetries != nil {
		maxRetries = *cfg.LLM.MaxRetries
	}
	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  maxRetries,
		RetryDelay:  cfg.LLM.RetryDelay,
	}, a.recorder)
	if err != nil {
		return nil, err
	}

	a.writer = writer.New(cfg.Output.Directory, cfg.Output.Pretty, cfg.Output.Preview)

	deps := stages.Deps{
		LLM:     client,
		Prompts: llm.NewPromptSet(cfg.Prompts.Dir),
		Writer:  a.writer,
	}
	graph, err := pipeline.NewGraph(stages.Definitions(deps))
	if err != nil {
		return nil, err
	}

	observers := pipeline.MultiObserver{pipeline.RecorderObserver{Recorder: a.recorder}}
	if cfg.Store.Enabled {
		store, err := runstore.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open run store: %w", err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		observers = append(observers, runstore.NewObserver(store))
	}
	if cfg.Events.Enabled {
		pub, err := events.NewPublisher(cfg.Events.URL, cfg.Events.Subject)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect event publisher: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		observers = append(observers, pub)
	}

	a.runner = pipeline.NewRunner(graph, a.recorder, observers)
	return a, nil
}

// generate runs the full pipeline for the product payload in the input file.
func (a *app) generate(ctx context.Context, input string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("input is not a JSON object: %w", err)
	}

	st := pipeline.NewState(raw)
	slog.Info("Starting generation run", "run", st.RunID, "input", input)

	runErr := a.runner.Run(ctx, st)

	if st.Product != nil {
		if perr := st.Report.Persist(a.writer.OutputDirFor(st.Product)); perr != nil {
			slog.Warn("Failed to persist run report", "run", st.RunID, "error", perr)
		}
	}
	slog.Info("Run finished", "summary", st.Report.Summary())
	return runErr
}

func runGenerate(cfg *config.Config, input string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.generate(context.Background(), input)
}

func runWatch(ctx context.Context, cfg *config.Config, input string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Metrics.Enabled {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metrics.HTTPHandler(a.registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Metrics endpoint listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	regenerate := func(runCtx context.Context, reason string) {
		slog.Info("Regenerating pages", "reason", reason)
		if err := a.generate(runCtx, input); err != nil {
			slog.Error("Regeneration failed", "reason", reason, "error", err)
		}
	}

	// Initial generation before settling into watch mode.
	regenerate(ctx, "startup")

	w, err := watch.New(input, cfg.Watch.Debounce, cfg.Watch.Interval, regenerate)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
