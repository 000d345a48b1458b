package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelShouldEmit(t *testing.T) {
	if LevelOff.ShouldEmit(ScopeRun) {
		t.Fatalf("off must not emit")
	}
	if !LevelDocument.ShouldEmit(ScopeDocument) || LevelDocument.ShouldEmit(ScopeCheck) {
		t.Fatalf("document level should stop at document scope")
	}
	if !LevelDebug.ShouldEmit(ScopeNode) {
		t.Fatalf("debug should emit node scope")
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if lvl, err := ParseLevel("verbose"); err != nil || lvl != LevelCheck {
		t.Fatalf("verbose should map to check level, got %v %v", lvl, err)
	}
}

func TestStartNestsSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelCheck, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	ctx, run := Start(ctx, ScopeRun, "run")
	docCtx, doc := Start(ctx, ScopeDocument, "document:a.liquid")
	if CurrentSpan(docCtx).SpanID != doc.ID() {
		t.Fatalf("context should carry the document span")
	}
	_, node := Start(docCtx, ScopeNode, "node")
	if node.ID() != 0 {
		t.Fatalf("node scope must be filtered at check level")
	}
	doc.WithExtra("offenses", "2").End("")
	run.End("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 events, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], `"name":"document:a.liquid"`) || !strings.Contains(lines[1], `"parent_id":`) {
		t.Fatalf("document begin should carry its parent: %s", lines[1])
	}
	if !strings.Contains(lines[2], `"offenses":"2"`) {
		t.Fatalf("end event should carry extras: %s", lines[2])
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeRun, Name: name})
	}
	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("unexpected dump:\n%s", buf.String())
	}
	m := NewMultiTracer(LevelDebug, Nop, r)
	if got, ok := Ring(m); !ok || got != r {
		t.Fatalf("Ring should find the ring inside a multi tracer")
	}
}

func TestNopByDefault(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop tracer")
	}
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("LevelOff should build a disabled tracer")
	}
	if StartHeartbeat(tr, 0) != nil {
		t.Fatalf("heartbeat must not start when tracing is off")
	}
}
