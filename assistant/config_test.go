package assistant

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigProfileLookup(t *testing.T) {
	cfg := Config{Profiles: map[string]Profile{
		"work": {Model: "claude-sonnet-4-5", Workspace: "/srv/work"},
		"home": {Provider: "openai"},
	}}

	p, err := cfg.Profile("work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Model != "claude-sonnet-4-5" || p.Workspace != "/srv/work" {
		t.Errorf("profile = %+v", p)
	}
}

func TestConfigProfileUnknownListsNames(t *testing.T) {
	cfg := Config{Profiles: map[string]Profile{"b": {}, "a": {}}}
	_, err := cfg.Profile("missing")
	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
	// Known names come back sorted so the hint is stable.
	if !strings.Contains(err.Error(), "a, b") {
		t.Errorf("error = %v, want sorted known names", err)
	}
}

func TestSessionPathResolvesBareNames(t *testing.T) {
	got, err := SessionPath("refactor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(got) != "refactor.json" {
		t.Errorf("path = %q, want it to end in refactor.json", got)
	}
	if filepath.Base(filepath.Dir(got)) != "sessions" {
		t.Errorf("path = %q, want it under the sessions directory", got)
	}
}

func TestSessionPathPassesThroughPaths(t *testing.T) {
	for _, name := range []string{"/tmp/s.json", "dir/s", "saved.json"} {
		got, err := SessionPath(name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != name {
			t.Errorf("SessionPath(%q) = %q, want unchanged", name, got)
		}
	}
}

func TestDefaultConfigIterations(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxIterations != DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want %d", cfg.MaxIterations, DefaultMaxIterations)
	}
}
