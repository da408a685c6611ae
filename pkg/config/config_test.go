package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	os.WriteFile(path, []byte(`
format: json
trace: out/trace.jsonl
warnings_as_errors: true
log_level: debug
`), 0644)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Format != FormatJSON {
		t.Fatalf("format=%q want json", cfg.Format)
	}
	if cfg.Trace != filepath.Join(dir, "out", "trace.jsonl") {
		t.Fatalf("trace=%q", cfg.Trace)
	}
	if !cfg.WarningsAsErrors {
		t.Fatal("warnings_as_errors not set")
	}
	if cfg.Root != dir {
		t.Fatalf("Root=%q want %q", cfg.Root, dir)
	}
}

func TestLoadFileEmptyKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	os.WriteFile(path, nil, 0644)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Format != FormatText || cfg.LogLevel != "warn" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadFileRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", "colour: red\n"},
		{"bad format", "format: xml\n"},
		{"bad level", "log_level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			os.WriteFile(path, []byte(tt.body), 0644)
			if _, err := LoadFile(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "crates", "core")
	os.MkdirAll(sub, 0755)

	os.WriteFile(filepath.Join(root, FileName), []byte("format: json\n"), 0644)
	doc := filepath.Join(sub, "specs.yaml")
	os.WriteFile(doc, []byte("apiVersion: specref/v0\n"), 0644)

	cfg, err := Discover(doc)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config, got nil")
	}
	if cfg.Root != root || cfg.Format != FormatJSON {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestDiscoverNotFound(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Discover(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatal("expected nil config when no specref.yaml found")
	}

	cfg, err = DiscoverOrDefault(dir)
	if err != nil || cfg == nil || cfg.Format != FormatText {
		t.Fatalf("DiscoverOrDefault = %+v, %v", cfg, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelWarn,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := (&Config{LogLevel: "info"}).NewLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "k=v") {
		t.Errorf("log output = %q", out)
	}
}
