package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/ragcore/internal/version"
)

func TestSnippet(t *testing.T) {
	if got := snippet("  a\n\tb  c "); got != "a b c" {
		t.Errorf("whitespace collapse: got %q", got)
	}
	long := strings.Repeat("é", 130)
	got := snippet(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != 123 {
		t.Errorf("truncation: got %d runes", len([]rune(got)))
	}
}

func TestOpenInput(t *testing.T) {
	stdin := strings.NewReader("from stdin")
	r, closeFn, err := openInput("-", stdin)
	if err != nil {
		t.Fatalf("stdin: %v", err)
	}
	closeFn()
	if r != stdin {
		t.Error("expected stdin reader for -")
	}

	path := filepath.Join(t.TempDir(), "docs.jsonl")
	if err := os.WriteFile(path, []byte(`{"content":"x"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	r, closeFn, err = openInput(path, stdin)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	defer closeFn()
	data, _ := io.ReadAll(r)
	if string(data) != `{"content":"x"}` {
		t.Errorf("file contents: got %q", data)
	}

	if _, _, err := openInput(filepath.Join(t.TempDir(), "missing"), stdin); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	var info version.BuildInfo
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if info.Version != version.Version {
		t.Errorf("version: got %q, want %q", info.Version, version.Version)
	}
}
