package cli

import (
	"context"
	"errors"
	"testing"

	"gastos/internal/config"
)

func TestLoadConfigRunsValidator(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LLM_MODEL", "test-model")

	var seen *config.Config
	cfg, logger := LoadConfig(func(c *config.Config) error {
		seen = c
		return nil
	})
	if seen != cfg {
		t.Fatal("validator must receive the loaded config")
	}
	if cfg.LLMModel != "test-model" {
		t.Errorf("LLMModel = %q, want test-model", cfg.LLMModel)
	}
	if logger == nil {
		t.Fatal("logger must be set")
	}
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext()
	cancel()
	<-ctx.Done()
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Fatalf("ctx.Err() = %v", ctx.Err())
	}
}
