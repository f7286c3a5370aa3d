package config

import (
	"strings"
	"testing"
)

// TestDefaultsValidate verifies the shipped defaults are usable
func TestDefaultsValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Defaults failed validation: %v", err)
	}
}

// TestValidateReportsEveryProblem verifies errors are joined, not short-circuited
func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Sim.StepsPerSecond = 0
	cfg.Combat.HitCap = -1
	cfg.Server.Port = 70000

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"steps per second", "hit cap", "invalid port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %q, got %v", want, err)
		}
	}
}

// TestSimFromEnv verifies environment overrides
func TestSimFromEnv(t *testing.T) {
	t.Setenv("SIM_STEPS_PER_SECOND", "60")
	t.Setenv("SIM_WORLD_SEED", "0xdeadbeef")
	t.Setenv("SIM_WORKERS", "not-a-number")

	cfg := SimFromEnv()
	if cfg.StepsPerSecond != 60 {
		t.Errorf("Expected 60 steps per second, got %d", cfg.StepsPerSecond)
	}
	if cfg.WorldSeed != 0xdeadbeef {
		t.Errorf("Expected seed 0xdeadbeef, got %#x", cfg.WorldSeed)
	}
	if cfg.Workers != DefaultSim().Workers {
		t.Errorf("Invalid override changed workers to %d", cfg.Workers)
	}
}

// TestServerFromEnv verifies list parsing and token pickup
func TestServerFromEnv(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://a.example ,, https://b.example")
	t.Setenv("ADMIN_TOKEN", "secret")

	cfg := ServerFromEnv()
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.AdminToken != "secret" {
		t.Errorf("Expected admin token, got %q", cfg.AdminToken)
	}
}

// TestCombatFromEnvAllowsZeroLoops verifies zero is a valid loop cap override
func TestCombatFromEnvAllowsZeroLoops(t *testing.T) {
	t.Setenv("COMBAT_LOOP_MAX", "0")
	if cfg := CombatFromEnv(); cfg.LoopMax != 0 {
		t.Errorf("Expected loop max 0, got %d", cfg.LoopMax)
	}
}
