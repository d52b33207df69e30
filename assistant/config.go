package assistant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Profile is a named bundle of settings selected with --profile.
type Profile struct {
	Model        string   `json:"model,omitempty"`
	Provider     string   `json:"provider,omitempty"`
	Workspace    string   `json:"workspace,omitempty"`
	AutoAddPaths []string `json:"auto_add_paths,omitempty"`
}

// Config holds user-level settings persisted between runs.
type Config struct {
	DefaultModel     string             `json:"default_model,omitempty"`
	DefaultProvider  string             `json:"default_provider,omitempty"`
	AutoApproveReads bool               `json:"auto_approve_reads,omitempty"`
	MaxIterations    int                `json:"max_iterations,omitempty"`
	LogLevel         string             `json:"log_level,omitempty"`
	Profiles         map[string]Profile `json:"profiles,omitempty"`
}

// Profile returns the named profile, or an error listing known names.
func (c Config) Profile(name string) (Profile, error) {
	if p, ok := c.Profiles[name]; ok {
		return p, nil
	}
	names := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return Profile{}, fmt.Errorf("unknown profile %q (known: %s)", name, strings.Join(names, ", "))
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		DefaultModel:  "claude-sonnet-4-5",
		MaxIterations: DefaultMaxIterations,
	}
}

// ConfigDir returns the directory holding user configuration and saved
// sessions, typically ~/.codeforge.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".codeforge"), nil
}

func configPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// SessionPath resolves a session name to its file under the sessions
// directory. Names that already look like paths are used as-is.
func SessionPath(name string) (string, error) {
	if strings.ContainsAny(name, "/\\") || strings.HasSuffix(name, ".json") {
		return name, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions", name+".json"), nil
}

// LoadConfig reads the user config file, falling back to defaults when the
// file is absent.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path, err := configPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return cfg, nil
}

// SaveConfig writes the user config file, creating the directory if needed.
func SaveConfig(cfg Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
