package assistant

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// MaxContextFileBytes is the largest file that may be pinned as context.
const MaxContextFileBytes = 5 * 1024 * 1024

// IgnoreFileName is the per-workspace exclusion list, one pattern per line.
const IgnoreFileName = ".aiignore"

// defaultIgnorePatterns always apply, whether or not an ignore file exists.
var defaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	"__pycache__/",
	".venv/",
	"vendor/",
	"*.pyc",
	"*.o",
	"*.exe",
	".DS_Store",
}

// IgnoreList decides which workspace paths are excluded from context
// loading. Patterns come in four forms: a directory prefix ("dist/"), an
// exact base name ("Makefile"), an extension glob ("*.log"), or a relative
// path ("docs/internal.md").
type IgnoreList struct {
	patterns []string
}

// LoadIgnoreList reads the workspace ignore file, if present, and combines
// it with the default patterns. A missing file is not an error.
func LoadIgnoreList(root string) *IgnoreList {
	patterns := append([]string{}, defaultIgnorePatterns...)

	f, err := os.Open(filepath.Join(root, IgnoreFileName))
	if err == nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, line)
		}
	}
	return &IgnoreList{patterns: patterns}
}

// Match returns the pattern that excludes relPath, or "" if none does.
// relPath is slash-separated and relative to the workspace root.
func (l *IgnoreList) Match(relPath string) string {
	relPath = filepath.ToSlash(relPath)
	base := relPath
	if idx := strings.LastIndex(relPath, "/"); idx >= 0 {
		base = relPath[idx+1:]
	}

	for _, p := range l.patterns {
		switch {
		case strings.HasSuffix(p, "/"):
			dir := strings.TrimSuffix(p, "/")
			if relPath == dir || strings.HasPrefix(relPath, dir+"/") ||
				strings.Contains(relPath, "/"+dir+"/") {
				return p
			}
		case strings.HasPrefix(p, "*."):
			if matched, _ := filepath.Match(p, base); matched {
				return p
			}
		case !strings.Contains(p, "/"):
			if base == p {
				return p
			}
		default:
			if relPath == p {
				return p
			}
		}
	}
	return ""
}

// ContextLoader pins workspace files into the transcript, enforcing ignore
// patterns, the size cap, and the binary sniff.
type ContextLoader struct {
	ws         *Workspace
	ignore     *IgnoreList
	transcript *Transcript
}

// NewContextLoader creates a loader bound to a workspace and transcript.
func NewContextLoader(ws *Workspace, transcript *Transcript) *ContextLoader {
	return &ContextLoader{
		ws:         ws,
		ignore:     LoadIgnoreList(ws.Root()),
		transcript: transcript,
	}
}

// ReloadIgnoreList re-reads the workspace ignore file.
func (c *ContextLoader) ReloadIgnoreList() {
	c.ignore = LoadIgnoreList(c.ws.Root())
}

// AddFile pins a single file's content as conversation context. It returns
// the workspace-relative path that was pinned.
func (c *ContextLoader) AddFile(path string) (string, error) {
	resolved, err := c.ws.Resolve(path)
	if err != nil {
		return "", err
	}

	rel := resolved
	if c.ws.Contains(resolved) {
		rel, _ = filepath.Rel(c.ws.Root(), resolved)
		if pattern := c.ignore.Match(rel); pattern != "" {
			return "", &IgnoredPathError{Path: rel, Pattern: pattern}
		}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if info.Size() > MaxContextFileBytes {
		return "", &SizeExceededError{Path: rel, Size: info.Size(), Limit: MaxContextFileBytes}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	if IsBinaryContent(data) {
		return "", &BinaryFileError{Path: rel}
	}

	c.transcript.AddFileContext(rel, string(data))
	return rel, nil
}

// AddDirectory pins every eligible file under dir, skipping ignored,
// oversized, and binary files. It returns the pinned paths and the paths
// that were skipped, each with the reason.
func (c *ContextLoader) AddDirectory(dir string) (added []string, skipped map[string]string, err error) {
	resolved, err := c.ws.Resolve(dir)
	if err != nil {
		return nil, nil, err
	}

	skipped = make(map[string]string)
	walkErr := filepath.WalkDir(resolved, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			rel, relErr := filepath.Rel(c.ws.Root(), path)
			if relErr == nil && c.ignore.Match(rel+"/") != "" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := c.AddFile(path)
		if err != nil {
			display := path
			if r, relErr := filepath.Rel(c.ws.Root(), path); relErr == nil {
				display = r
			}
			skipped[display] = err.Error()
			return nil
		}
		added = append(added, rel)
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}
	return added, skipped, nil
}

// Refresh pins a path's current content after a write. An already
// pinned entry is updated in place; a file written for the first time
// gets a fresh entry, so the transcript always reflects what is on
// disk.
func (c *ContextLoader) Refresh(path, content string) {
	resolved, err := c.ws.Resolve(path)
	if err != nil {
		return
	}
	rel := resolved
	if c.ws.Contains(resolved) {
		rel, _ = filepath.Rel(c.ws.Root(), resolved)
	}
	c.transcript.AddFileContext(rel, content)
}
