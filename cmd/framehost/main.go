// Package main provides the CLI entry point for framehost.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/user/framehost/pkg/adapters/filesink"
	"github.com/user/framehost/pkg/adapters/logger"
	"github.com/user/framehost/pkg/adapters/nullsink"
	"github.com/user/framehost/pkg/adapters/osfilesystem"
	"github.com/user/framehost/pkg/adapters/statusserver"
	"github.com/user/framehost/pkg/config"
	"github.com/user/framehost/pkg/metrics"
	"github.com/user/framehost/pkg/orchestrator"
	"github.com/user/framehost/pkg/plugin"
	_ "github.com/user/framehost/pkg/plugins"
	"github.com/user/framehost/pkg/ports"
	"github.com/user/framehost/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "framehost",
		Usage:     l10n.T("Run video frames through processing plugins"),
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			runCommand(),
			pluginsCommand(),
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: l10n.T("Process one or more streams"),
		Description: l10n.T("Streams come from a YAML config file, from the stream flags, or both. " +
			"The stream flags add one stream after those in the file."),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T("Input")},

			&cli.StringFlag{Name: "plugin", Aliases: []string{"p"}, Usage: l10n.T("Plugin name for a single stream"), Category: l10n.T("Stream")},
			&cli.StringFlag{Name: "opts", Usage: l10n.T("Plugin options as key=value,key=value"), Category: l10n.T("Stream")},
			&cli.StringFlag{Name: "id", Usage: l10n.T("Stream id (default: random UUID)"), Category: l10n.T("Stream")},
			&cli.StringFlag{Name: "source", Value: orchestrator.SourceTestsrc, Usage: l10n.T("Source type (testsrc, images, mp4)"), Category: l10n.T("Stream")},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: l10n.T("Source path for images or mp4"), Category: l10n.T("Stream")},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Value: 320, Usage: l10n.T("Test source width"), Category: l10n.T("Stream")},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Value: 240, Usage: l10n.T("Test source height"), Category: l10n.T("Stream")},
			&cli.IntFlag{Name: "frames", Aliases: []string{"n"}, Usage: l10n.T("Test source frame count"), Category: l10n.T("Stream")},
			&cli.StringFlag{Name: "fps", Usage: l10n.T("Source frame rate, e.g. 25 or 30000/1001"), Category: l10n.T("Stream")},
			&cli.StringFlag{Name: "output-type", Value: orchestrator.OutputNull, Usage: l10n.T("Output type (null, images, mp4)"), Category: l10n.T("Stream")},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output path for images or mp4"), Category: l10n.T("Stream")},
			&cli.IntFlag{Name: "parallel", Usage: l10n.T("Plugin instances for a one_to_one plugin"), Category: l10n.T("Stream")},

			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: l10n.T("Streams processed concurrently"), Category: l10n.T("Execution")},
			&cli.StringFlag{Name: "clone-policy", Usage: l10n.T("Frame clone policy (copy, share)"), Category: l10n.T("Execution")},
			&cli.IntFlag{Name: "buffer", Usage: l10n.T("Frames queued per output before the stage blocks"), Category: l10n.T("Execution")},

			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Save stage configs and frames for inspection"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "metrics-addr", Usage: l10n.T("Serve status and metrics on this address"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a run summary (Markdown, or JSON for .json)"), Category: l10n.T("Debug")},

			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
			&cli.StringFlag{Name: "log-format", Usage: l10n.T("Log format (console, json)"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
		},
		Action: runAction,
	}
}

func pluginsCommand() *cli.Command {
	return &cli.Command{
		Name:  "plugins",
		Usage: l10n.T("List registered plugins and their pixel formats"),
		Action: func(c *cli.Context) error {
			for _, name := range plugin.Default.Names() {
				p, err := plugin.Default.New(name)
				if err != nil {
					return err
				}
				formats, err := p.QueryFormats()
				if err != nil {
					fmt.Fprintf(c.App.Writer, "%-12s %s\n", name, l10n.F("(formats unavailable: %v)", err))
					continue
				}
				fmt.Fprintf(c.App.Writer, "%-12s %s\n", name, strings.Join(formats, ", "))
			}
			return nil
		},
	}
}

// loadConfig reads the config file, if any, and applies flags over it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("clone-policy") {
		cfg.ClonePolicy = c.String("clone-policy")
	}
	if c.IsSet("buffer") {
		cfg.Buffer = c.Int("buffer")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.String("summary")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}

	if name := c.String("plugin"); name != "" {
		cfg.Streams = append(cfg.Streams, config.StreamConfig{
			ID: c.String("id"),
			Source: config.SourceConfig{
				Type:      c.String("source"),
				Path:      c.String("input"),
				Width:     c.Int("width"),
				Height:    c.Int("height"),
				Frames:    c.Int("frames"),
				FrameRate: c.String("fps"),
			},
			Plugin:   config.PluginConfig{Name: name, Opts: c.String("opts")},
			Output:   config.OutputConfig{Type: c.String("output-type"), Path: c.String("output")},
			Parallel: c.Int("parallel"),
		})
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if len(cfg.Streams) == 0 {
		return cfg, fmt.Errorf("%w: no streams, give --config or --plugin", config.ErrInvalid)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, quiet bool, w io.Writer) ports.Logger {
	if quiet {
		return logger.NewNoop()
	}
	level, _ := ports.ParseLogLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		return logger.NewStructured(level, w)
	}
	if w != os.Stderr {
		return logger.NewConsoleWriter(level, w)
	}
	return logger.NewConsole(level)
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg, c.Bool("quiet"), c.App.ErrWriter)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, aborting streams...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs)
	} else {
		sink = nullsink.New()
	}

	reg := prometheus.NewRegistry()
	orch := orchestrator.New(fs, sink, log, orchestrator.WithMetrics(metrics.New(reg)))

	if cfg.MetricsAddr != "" {
		srv := statusserver.New(orch, reg, log)
		if _, err := srv.Start(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("start status server: %w", err)
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	result, runErr := orch.Run(ctx, cfg.ToOrchestratorConfig())

	if cfg.Summary != "" && result.RunID != "" {
		if err := writeSummary(fs, cfg, result); err != nil {
			log.Error("Failed to write summary: %v", err)
		} else {
			log.Info("Summary saved to %s", cfg.Summary)
		}
	}

	if runErr != nil {
		return runErr
	}
	log.Info("Processed %d streams in %d ms", len(result.Streams), result.Duration.Milliseconds())
	return nil
}

func writeSummary(fs ports.FileSystem, cfg config.Config, result orchestrator.RunResult) error {
	var formatter summarizer.Formatter = summarizer.NewMarkdownFormatter(
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	if strings.EqualFold(filepath.Ext(cfg.Summary), ".json") {
		formatter = summarizer.JSONFormatter
	}
	return summarizer.NewWriter(formatter, fs).Write(cfg.Summary, buildSummary(cfg, result))
}
