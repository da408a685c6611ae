package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/specref/pkg/kernel/trace"
)

const cliDoc = `
apiVersion: specref/v0
program:
  traits:
    - id: TraitFoo
      name: crate::TraitFoo
      span: {file: src/lib.rs, line: 1}
  procedures:
    - id: TraitFoo.bar
      name: crate::TraitFoo::bar
      trait: TraitFoo
      span: {file: src/lib.rs, line: 2}
    - id: ImplA.bar
      name: <crate::A as crate::TraitFoo>::bar
      span: {file: src/lib.rs, line: 7}
      overrides:
        - method: TraitFoo.bar
specs:
  procedures:
    TraitFoo.bar:
      kind: pure
      pre: ["x > 0"]
    ImplA.bar:
      kind: IMPL_KIND
      post: ["result >= 0"]
  loops:
    main.loop0:
      invariant: ["i <= n"]
calls:
  - called: ImplA.bar
  - called: TraitFoo.bar
`

// writeWorkspace creates a document (and optional specref.yaml) in a fresh
// directory and returns the document path.
func writeWorkspace(t *testing.T, implKind, config string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "specs.yaml")
	if err := os.WriteFile(path, []byte(strings.ReplaceAll(cliDoc, "IMPL_KIND", implKind)), 0o644); err != nil {
		t.Fatal(err)
	}
	if config != "" {
		if err := os.WriteFile(filepath.Join(dir, "specref.yaml"), []byte(config), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--no-color"))
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidateCommand(t *testing.T) {
	path := writeWorkspace(t, "pure", "")
	out, _, err := execute(t, "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "is valid (2 procedures, 2 specifications, 2 call sites)") {
		t.Errorf("output = %q", out)
	}
}

func TestCheckCommand_Passes(t *testing.T) {
	path := writeWorkspace(t, "pure", "")
	out, _, err := execute(t, "check", path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "✓ no diagnostics") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "2 call site(s)") {
		t.Errorf("output = %q", out)
	}
}

func TestCheckCommand_KindMismatch(t *testing.T) {
	path := writeWorkspace(t, "impure", "")
	out, _, err := execute(t, "check", path)
	if err == nil {
		t.Fatal("expected check to fail")
	}
	if !strings.Contains(out, "1 error(s), 0 warning(s)") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "This procedure is of kind 'impure'") {
		t.Errorf("missing kind note: %q", out)
	}
}

func TestCheckCommand_JSONAndTraceFromConfig(t *testing.T) {
	path := writeWorkspace(t, "pure", "format: json\ntrace: run.jsonl\n")
	out, _, err := execute(t, "check", path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	var result struct {
		Status      string `json:"status"`
		Resolutions []struct {
			Query string `json:"query"`
		} `json:"resolutions"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if result.Status != "passed" {
		t.Errorf("status = %q", result.Status)
	}
	if len(result.Resolutions) != 2 {
		t.Errorf("resolutions = %d, want 2", len(result.Resolutions))
	}

	tracePath := filepath.Join(filepath.Dir(path), "run.jsonl")
	vr, err := trace.VerifyFile(tracePath)
	if err != nil {
		t.Fatal(err)
	}
	if !vr.Valid || vr.EventCount == 0 {
		t.Errorf("trace verify = %+v", vr)
	}

	out, _, err = execute(t, "trace", "verify", tracePath)
	if err != nil {
		t.Fatalf("trace verify: %v", err)
	}
	for _, want := range []string{"hash chain intact", "pass:        passed, 0 diagnostic(s)", "resolutions: 1 refined"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestResolveCommand(t *testing.T) {
	path := writeWorkspace(t, "pure", "")
	out, _, err := execute(t, "resolve", path, "ImplA.bar")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var got struct {
		Query string         `json:"query"`
		Spec  map[string]any `json:"spec"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Query != "ImplA.bar" {
		t.Errorf("query = %q", got.Query)
	}
	if got.Spec["pre"] == nil || got.Spec["post"] == nil {
		t.Errorf("spec = %v", got.Spec)
	}
}

func TestChainCommand_Mermaid(t *testing.T) {
	path := writeWorkspace(t, "pure", "")
	out, _, err := execute(t, "chain", path, "ImplA.bar", "--diagram", "mermaid")
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if !strings.HasPrefix(out, "flowchart BT") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "refines") {
		t.Errorf("missing edge: %q", out)
	}
}

func TestExplainCommand_Raw(t *testing.T) {
	path := writeWorkspace(t, "pure", "")
	out, _, err := execute(t, "explain", path, "ImplA.bar", "--raw")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.Contains(out, "ImplA.bar") {
		t.Errorf("output = %q", out)
	}
}

func TestLoopCommand(t *testing.T) {
	path := writeWorkspace(t, "pure", "")
	out, _, err := execute(t, "loop", path, "main.loop0")
	if err != nil {
		t.Fatalf("loop: %v", err)
	}
	if strings.TrimSpace(out) != "invariant i <= n" {
		t.Errorf("output = %q", out)
	}

	if _, _, err := execute(t, "loop", path, "main.loop9"); err == nil {
		t.Error("expected error for unknown loop site")
	}
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := execute(t, "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !json.Valid([]byte(out)) {
		t.Errorf("schema output is not JSON: %q", out)
	}
}
