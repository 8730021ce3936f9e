package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultUsesStubSolver(t *testing.T) {
	cfg := Default()
	if cfg.Solver != "stub" {
		t.Fatalf("Default().Solver = %q, want \"stub\"", cfg.Solver)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`horn: true`), "verifier.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Solver != "stub" {
		t.Fatalf("Parse should default Solver to \"stub\", got %q", cfg.Solver)
	}
	if !cfg.Horn {
		t.Fatalf("Parse did not preserve horn: true")
	}
}

func TestParseRejectsUnknownSolver(t *testing.T) {
	_, err := Parse([]byte(`solver: magic`), "verifier.yaml")
	if err == nil {
		t.Fatalf("expected an error for an unknown solver backend")
	}
}

func TestParseRequiresGRPCTargetForGRPCSolver(t *testing.T) {
	_, err := Parse([]byte(`solver: grpc`), "verifier.yaml")
	if err == nil {
		t.Fatalf("expected an error when solver: grpc has no grpc_target")
	}
}

func TestParseAcceptsGRPCWithTarget(t *testing.T) {
	cfg, err := Parse([]byte("solver: grpc\ngrpc_target: localhost:9000\n"), "verifier.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.GRPCTarget != "localhost:9000" {
		t.Fatalf("GRPCTarget = %q", cfg.GRPCTarget)
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verifier.yaml")
	if err := os.WriteFile(path, []byte("cache_path: verdicts.db\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CachePath != "verdicts.db" {
		t.Fatalf("CachePath = %q", cfg.CachePath)
	}
}

func TestFindWalksUpToParent(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, configFileName), []byte("solver: stub\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	found, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := filepath.Join(root, configFileName)
	if found != want {
		t.Fatalf("Find = %q, want %q", found, want)
	}
}

func TestFindReturnsEmptyWhenAbsent(t *testing.T) {
	found, err := Find(t.TempDir())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found != "" {
		t.Fatalf("Find = %q, want empty string", found)
	}
}
