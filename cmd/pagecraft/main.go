package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagecraft/internal/config"
	"git.home.luguber.info/inful/pagecraft/internal/product"
	"git.home.luguber.info/inful/pagecraft/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"pagecraft.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Generate struct {
		Input  string `short:"i" help:"Product JSON input file" required:""`
		Output string `short:"o" help:"Output directory for generated pages (overrides config)"`
	} `cmd:"" help:"Generate the FAQ, Product and Comparison pages for a product"`

	Validate struct {
		Input string `short:"i" help:"Product JSON input file" required:""`
	} `cmd:"" help:"Validate a product payload without generating pages"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Watch struct {
		Input  string `short:"i" help:"Product JSON input file" required:""`
		Output string `short:"o" help:"Output directory for generated pages (overrides config)"`
	} `cmd:"" help:"Regenerate pages whenever the input file changes"`

	Version struct{} `cmd:"" help:"Print the pagecraft version"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "generate":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if CLI.Generate.Output != "" {
			cfg.Output.Directory = CLI.Generate.Output
		}
		if err := runGenerate(cfg, CLI.Generate.Input); err != nil {
			slog.Error("Generation failed", "error", err)
			os.Exit(1)
		}
	case "validate":
		if err := runValidate(CLI.Validate.Input); err != nil {
			slog.Error("Validation failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Configuration written", "path", CLI.Config)
	case "watch":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if CLI.Watch.Output != "" {
			cfg.Output.Directory = CLI.Watch.Output
		}
		runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		if err := runWatch(runCtx, cfg, CLI.Watch.Input); err != nil {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("pagecraft %s (built %s, commit %s)\n", version.Version, version.BuildTime, version.GitCommit)
	}
}

func runValidate(input string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}
	rec, err := product.ParseJSON(data)
	if err != nil {
		return err
	}
	slog.Info("Product payload is valid",
		"product", rec.Name, "category", rec.Category, "price", rec.Price, "attributes", len(rec.Attributes))
	return nil
}
