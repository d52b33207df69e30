package assistant

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWorkspaceReadWrite(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := ws.WriteFile("sub/dir/file.txt", "content"); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ws.ReadFile("sub/dir/file.txt")
	if err != nil || got != "content" {
		t.Errorf("read = %q, %v", got, err)
	}
	if !ws.Exists("sub/dir/file.txt") {
		t.Error("Exists = false for written file")
	}
	if ws.Exists("ghost.txt") {
		t.Error("Exists = true for missing file")
	}
}

func TestWorkspaceWriteSizeLimit(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	big := strings.Repeat("x", MaxWriteBytes+1)
	err = ws.WriteFile("big.txt", big)
	var sizeErr *SizeExceededError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("expected SizeExceededError, got %v", err)
	}
	if ws.Exists("big.txt") {
		t.Error("oversized write must not create the file")
	}
}

func TestWorkspaceContains(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}

	inside, _ := ws.Resolve("a/b.txt")
	if !ws.Contains(inside) {
		t.Errorf("Contains(%q) = false", inside)
	}
	outside, _ := ws.Resolve("../escape.txt")
	if ws.Contains(outside) {
		t.Errorf("Contains(%q) = true for path above root", outside)
	}
	if !ws.Contains(ws.Root()) {
		t.Error("root itself should be contained")
	}
}

func TestWorkspaceListDirectory(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteFile("b.txt", "bb"); err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteFile("a.txt", "a"); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(ws.Root(), "dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := ws.ListDirectory("")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Name != "a.txt" || entries[1].Name != "b.txt" || entries[2].Name != "dir" {
		t.Errorf("order = %v, want sorted by name", entries)
	}
	if !entries[2].IsDir {
		t.Error("dir not flagged as directory")
	}
	if entries[1].Size != 2 {
		t.Errorf("b.txt size = %d, want 2", entries[1].Size)
	}
}

func TestIsSensitivePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/etc/passwd", true},
		{"/usr", true},
		{"/", true},
		{"/home/user/project/file.go", false},
		{"relative/path.go", false},
		{"file.go", false},
		{`C:\Windows`, false}, // drive-letter paths are not unix-rooted
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsSensitivePath(tt.path); got != tt.want {
				t.Errorf("IsSensitivePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsBinaryContent(t *testing.T) {
	if IsBinaryContent([]byte("plain text\nwith lines\n")) {
		t.Error("text flagged as binary")
	}
	if !IsBinaryContent([]byte{0x7f, 'E', 'L', 'F', 0x00, 0x01}) {
		t.Error("NUL byte not detected")
	}
	// NUL beyond the first kilobyte is not sniffed.
	data := append([]byte(strings.Repeat("a", 2048)), 0x00)
	if IsBinaryContent(data) {
		t.Error("sniff window should stop at 1KB")
	}
}
