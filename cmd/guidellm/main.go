// Command guidellm drives one load-benchmark invocation against an
// OpenAI-compatible backend: load config, probe the backend, run the
// benchmarker, print the report.
//
// Ported from the teacher's main.go (yaml config file -> benchmark ->
// summary pipeline), generalized from the teacher's single bench.Benchmark
// run to the full engine (rate strategies, phases, sweep) and from
// log.Panic-on-error to zerolog structured logging plus plain os.Exit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	yaml "gopkg.in/yaml.v2"

	"github.com/guidellm/guidellm-go/internal/backend"
	"github.com/guidellm/guidellm-go/internal/benchmarker"
	"github.com/guidellm/guidellm-go/internal/clock"
	"github.com/guidellm/guidellm-go/internal/config"
	"github.com/guidellm/guidellm-go/internal/model"
	"github.com/guidellm/guidellm-go/internal/source"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	configFile := "guidellm.yaml"
	if len(os.Args) > 1 {
		if len(os.Args) != 2 {
			fmt.Fprintf(os.Stderr, "Usage: %s [config.yaml]\n\tThe default config file name is: %s\n", os.Args[0], configFile)
			os.Exit(2)
		}
		configFile = os.Args[1]
	}

	if err := run(log, configFile); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(log zerolog.Logger, configFile string) error {
	cfg := config.Default()

	if bytes, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(bytes, &cfg); err != nil {
			return fmt.Errorf("config_invalid: parsing %s: %w", configFile, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("config_invalid: reading %s: %w", configFile, err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Info().Str("target", cfg.Target).Str("rate_type", string(cfg.RateType)).Msg("starting benchmark")

	clk := clock.NewSystem()

	client := backend.NewHTTPClient(backend.TransportOptions{
		Protocol:         cfg.Protocol,
		ReuseConnections: true,
		RequestTimeout:   cfg.RequestTimeout,
	})
	adapter := backend.NewHTTPAdapter(client, cfg.Target, cfg.Model, clk)

	src := source.NewSynthetic(model.Payload{
		Endpoint:    model.EndpointChat,
		Messages:    []model.ChatMessage{{Role: "user", Content: "Tell me about the weather today."}},
		MaxTokens:   128,
		Temperature: 0.0,
	})

	b := benchmarker.New(cfg, adapter, src, clk, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn().Msg("received interrupt, cancelling run")
		cancel()
	}()

	if err := b.Probe(ctx); err != nil {
		return err
	}

	sweep, err := b.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("benchmark run ended with an error; printing partial report")
	}

	fmt.Println(sweep.String())

	outPath := cfg.OutputPath
	if outPath == "" {
		outPath = "out/report.yaml"
	}
	if writeErr := writeReport(outPath, sweep); writeErr != nil {
		log.Error().Err(writeErr).Str("path", outPath).Msg("failed to persist report")
	}

	return err
}

func writeReport(path string, sweep interface{}) error {
	data, err := yaml.Marshal(sweep)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
