package cmd

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadInputSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.jq")
	if err := os.WriteFile(path, []byte("  .blocks\n\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name   string
		source string
		stdin  string
		want   string
	}{
		{"file is trimmed", path, "", ".blocks"},
		{"path whitespace is trimmed", "  " + path + "  ", "", ".blocks"},
		{"stdin", "-", "from stdin\n", "from stdin"},
		{"padded dash is stdin", " - ", "x", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readInputSource(tt.source, strings.NewReader(tt.stdin))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadInputBytesErrors(t *testing.T) {
	for _, source := range []string{"", "   "} {
		if _, err := readInputBytes(source, nil); err == nil || !strings.Contains(err.Error(), "empty input source") {
			t.Errorf("readInputBytes(%q) = %v, want empty input source error", source, err)
		}
	}

	_, err := readInputBytes("/nonexistent/path/doc.json", nil)
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected a wrapped path error, got %v", err)
	}
}

func TestReadInputBytesKeepsContent(t *testing.T) {
	got, err := readInputBytes("-", strings.NewReader("\n[1]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "\n[1]\n" {
		t.Errorf("got %q", got)
	}
}
