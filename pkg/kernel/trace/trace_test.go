package trace

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestWriter_Emit(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "pass-1")

	err := tw.EmitResolution(EventRefined, "ImplA.bar[T=i32]", map[string]any{
		"trait_query": "TraitFoo.bar[T=i32]",
	})
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}

	var evt Event
	if err := json.Unmarshal(buf.Bytes(), &evt); err != nil {
		t.Fatalf("JSON unmarshal: %v (raw: %s)", err, buf.String())
	}
	if evt.Type != EventRefined {
		t.Errorf("type = %q, want refined", evt.Type)
	}
	if evt.PassID != "pass-1" {
		t.Errorf("pass_id = %q", evt.PassID)
	}
	if evt.Data["query"] != "ImplA.bar[T=i32]" || evt.Data["trait_query"] != "TraitFoo.bar[T=i32]" {
		t.Errorf("data = %v", evt.Data)
	}
	if tw.Count() != 1 {
		t.Errorf("count = %d", tw.Count())
	}
}

func TestWriter_HashChaining(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "pass-1")

	tw.EmitPassStart("doc.yaml", 2)
	tw.EmitResolution(EventPassthrough, "f[]", nil)
	tw.EmitResolution(EventCacheHit, "g[]", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	var first, second Event
	json.Unmarshal([]byte(lines[0]), &first)
	json.Unmarshal([]byte(lines[1]), &second)
	if first.PrevHash != strings.Repeat("0", 64) {
		t.Errorf("first event prev_hash = %q, want 64 zeros", first.PrevHash)
	}
	if second.PrevHash != hashLine([]byte(lines[0])) {
		t.Error("second event should chain to the hash of the first line")
	}
}

func TestWriter_PassComplete_ChainHash(t *testing.T) {
	t.Setenv(SigningKeyEnv, "")
	var buf bytes.Buffer
	tw := NewWriter(&buf, "pass-1")

	tw.EmitPassStart("doc.yaml", 1)
	tw.EmitPassComplete("ok", 0, time.Second)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var evt Event
	json.Unmarshal([]byte(lines[len(lines)-1]), &evt)

	chainHash, ok := evt.Data["chain_hash"].(string)
	if !ok || len(chainHash) != 64 {
		t.Errorf("chain_hash = %q", chainHash)
	}
	if _, signed := evt.Data["signature"]; signed {
		t.Error("unexpected signature without key")
	}
}

func TestVerify_Valid(t *testing.T) {
	t.Setenv(SigningKeyEnv, "s3cret")
	var buf bytes.Buffer
	tw := NewWriter(&buf, "pass-1")
	tw.EmitPassStart("doc.yaml", 1)
	tw.EmitResolution(EventRefined, "q", nil)
	tw.EmitPassComplete("ok", 0, time.Millisecond)

	res, err := Verify(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid || res.EventCount != 3 || res.BrokenAt != -1 {
		t.Errorf("result = %+v", res)
	}
	if !res.Signed || !res.SignatureOK || res.SigningKeyID == "" {
		t.Errorf("signature not verified: %+v", res)
	}

	t.Setenv(SigningKeyEnv, "")
	res, _ = Verify(bytes.NewReader(buf.Bytes()))
	if !res.SignatureNoKey {
		t.Error("expected SignatureNoKey without a key")
	}
}

func TestVerify_EventSummary(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "pass-1")
	tw.EmitPassStart("doc.yaml", 3)
	tw.EmitResolution(EventRefined, "ImplA.bar[T=i32]", nil)
	tw.EmitResolution(EventKindViolation, "ImplA.bar[T=i32]", nil)
	tw.EmitResolution(EventCacheHit, "ImplA.bar[T=i32]", nil)
	tw.EmitResolution(EventCacheHit, "ImplA.bar[T=i32]", nil)
	tw.EmitPassComplete("failed", 1, time.Millisecond)

	res, err := Verify(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	want := map[EventType]int{
		EventPassStart: 1, EventRefined: 1, EventKindViolation: 1, EventCacheHit: 2, EventPassComplete: 1,
	}
	if !reflect.DeepEqual(res.Events, want) {
		t.Errorf("Events = %v, want %v", res.Events, want)
	}
	if res.Status != "failed" || res.Diagnostics != 1 {
		t.Errorf("status = %q, diagnostics = %d", res.Status, res.Diagnostics)
	}
}

func TestVerify_Tampered(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "pass-1")
	tw.EmitResolution(EventPassthrough, "f[]", nil)
	tw.EmitResolution(EventPassthrough, "g[]", nil)
	tw.EmitResolution(EventPassthrough, "h[]", nil)

	tampered := strings.Replace(buf.String(), `"g[]"`, `"x[]"`, 1)
	res, err := Verify(strings.NewReader(tampered))
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid || res.BrokenAt != 3 {
		t.Errorf("expected break at event 3, got %+v", res)
	}
}

func TestVerify_InvalidJSON(t *testing.T) {
	res, err := Verify(strings.NewReader("{not json}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid || res.BrokenAt != 1 {
		t.Errorf("result = %+v", res)
	}
}
