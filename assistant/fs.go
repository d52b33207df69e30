package assistant

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// MaxWriteBytes is the largest content a single create or edit may produce.
const MaxWriteBytes = 10 * 1024 * 1024

// DirEntry is one item in a directory listing.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
}

// Filesystem abstracts the workspace the dispatcher operates on. The
// concrete implementation is Workspace; tests substitute fakes.
type Filesystem interface {
	ReadFile(path string) (string, error)
	WriteFile(path string, content string) error
	ListDirectory(path string) ([]DirEntry, error)
	Exists(path string) bool
	Resolve(path string) (string, error)
	Root() string
}

// Workspace is a Filesystem rooted at a project directory on the local
// machine. Relative paths resolve against the root; absolute paths are
// allowed but flagged when they leave the root.
type Workspace struct {
	root string
}

// NewWorkspace creates a Workspace rooted at dir, creating it if needed.
func NewWorkspace(dir string) (*Workspace, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// Resolve normalizes a path against the workspace root.
func (w *Workspace) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", fmt.Errorf("invalid path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.root, path)
	}
	return filepath.Clean(path), nil
}

// Contains reports whether a resolved path lies under the workspace root.
func (w *Workspace) Contains(resolved string) bool {
	rel, err := filepath.Rel(w.root, resolved)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

func (w *Workspace) ReadFile(path string) (string, error) {
	resolved, err := w.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (w *Workspace) WriteFile(path string, content string) error {
	resolved, err := w.Resolve(path)
	if err != nil {
		return err
	}
	if int64(len(content)) > MaxWriteBytes {
		return &SizeExceededError{Path: path, Size: int64(len(content)), Limit: MaxWriteBytes}
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return err
	}
	return os.WriteFile(resolved, []byte(content), 0o644)
}

func (w *Workspace) Exists(path string) bool {
	resolved, err := w.Resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(resolved)
	return err == nil
}

func (w *Workspace) ListDirectory(path string) ([]DirEntry, error) {
	if path == "" {
		path = "."
	}
	resolved, err := w.Resolve(path)
	if err != nil {
		return nil, err
	}
	items, err := os.ReadDir(resolved)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(items))
	for _, item := range items {
		entry := DirEntry{Name: item.Name(), IsDir: item.IsDir()}
		if info, err := item.Info(); err == nil && !item.IsDir() {
			entry.Size = info.Size()
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

var windowsDrivePattern = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// IsSensitivePath reports whether a path points near the filesystem root,
// where writes are more likely to be a model mistake than an intent. Such
// paths require explicit confirmation even when confirmations are relaxed.
func IsSensitivePath(path string) bool {
	if windowsDrivePattern.MatchString(path) {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	return len(parts) < 3
}

// IsBinaryContent sniffs content for a NUL byte in its first kilobyte,
// the same heuristic git uses.
func IsBinaryContent(data []byte) bool {
	limit := len(data)
	if limit > 1024 {
		limit = 1024
	}
	for _, b := range data[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}
