// Command arbiter runs a prompt through the resilient LLM client from the
// command line. It is the operational smoke test for a deployment's
// configuration: provider credentials, failover order, and cache wiring.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/asheridan/go-arbiter/internal/llm"
	"github.com/asheridan/go-arbiter/internal/llm/configuration"
	"github.com/asheridan/go-arbiter/internal/llm/fallback"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

func main() {
	var (
		configPath   = flag.String("config", "", "path to YAML config file (required; must configure at least one provider)")
		model        = flag.String("model", "gpt-4o-mini", "model identifier")
		systemPrompt = flag.String("system", "", "system prompt")
		prompt       = flag.String("prompt", "", "user prompt (required)")
		maxTokens    = flag.Int64("max-tokens", 1024, "completion token limit")
		temperature  = flag.Float64("temperature", 0.0, "sampling temperature")
		preferred    = flag.String("provider", "", "preferred provider for this call")
		verbose      = flag.Bool("v", false, "debug logging")
		showHealth   = flag.Bool("health", false, "print provider health after the call")
	)
	flag.Parse()

	// Missing .env is fine; explicit environment wins either way.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))

	if *prompt == "" || *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: arbiter -config config.yaml -prompt \"...\"")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(*configPath, *model, *systemPrompt, *prompt, *maxTokens, *temperature, *preferred, *showHealth); err != nil {
		slog.Error("arbiter failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, model, systemPrompt, prompt string, maxTokens int64, temperature float64, preferred string, showHealth bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build client: %w", err)
	}
	defer client.Close()

	var opts []fallback.Option
	if preferred != "" {
		opts = append(opts, fallback.WithPreferredProvider(preferred))
	}

	req := &transport.Request{
		Operation:    transport.OpGeneration,
		Model:        model,
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
	}
	result := client.Execute(ctx, req, opts...)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))

	if showHealth {
		for provider, state := range client.HealthSnapshot() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", provider, state)
		}
	}

	if !result.Success {
		return fmt.Errorf("request degraded after %d attempts", result.AttemptsMade)
	}
	return nil
}

func loadConfig(path string) (*configuration.Config, error) {
	// Defaults alone configure no providers, so a config file is mandatory.
	if path == "" {
		return nil, fmt.Errorf("config file is required (-config)")
	}
	return configuration.Load(path)
}
