package document

import (
	"errors"
	"testing"

	"themecheck/internal/parser"
)

func TestChangeReusesTreeForSameText(t *testing.T) {
	m := NewManager()
	uri := "file:///t/a.liquid"
	if !m.Open(uri, "{{ a }}", 1) {
		t.Fatalf("liquid uri should be accepted")
	}
	first, _ := m.Get(uri)
	m.Change(uri, "{{ a }}", 2)
	second, _ := m.Get(uri)

	if second.Version != 2 {
		t.Fatalf("expected version 2, got %d", second.Version)
	}
	if first == second {
		t.Fatalf("documents must be replaced, not mutated")
	}
	if first.AST != second.AST {
		t.Fatalf("unchanged text should reuse the tree")
	}
	if m.Parses() != 1 {
		t.Fatalf("expected a single parse, got %d", m.Parses())
	}
}

func TestCacheAvoidsReparsingRevertedText(t *testing.T) {
	m := NewManager()
	uri := "file:///t/a.json"
	m.Open(uri, `{"a": 1}`, 1)
	m.Change(uri, `{"a": 2}`, 2)
	m.Change(uri, `{"a": 1}`, 3)
	if m.Parses() != 2 {
		t.Fatalf("reverted text should come from the cache, got %d parses", m.Parses())
	}

	uncached := NewManager(WithCacheSize(0))
	uncached.Open(uri, `{"a": 1}`, 1)
	uncached.Change(uri, `{"a": 2}`, 2)
	uncached.Change(uri, `{"a": 1}`, 3)
	if uncached.Parses() != 3 {
		t.Fatalf("expected 3 parses without a cache, got %d", uncached.Parses())
	}
}

func TestParseFailureIsStored(t *testing.T) {
	m := NewManager()
	uri := "file:///t/broken.liquid"
	m.Open(uri, "{% if x %}", 1)
	doc, ok := m.Get(uri)
	if !ok {
		t.Fatalf("broken documents are still stored")
	}
	if doc.AST != nil || doc.ParseErr == nil {
		t.Fatalf("expected a parse error and no tree")
	}
	var perr *parser.Error
	if !errors.As(doc.ParseErr, &perr) {
		t.Fatalf("expected *parser.Error, got %T", doc.ParseErr)
	}
	if doc.Text != "{% if x %}" {
		t.Fatalf("text must be kept")
	}
}

func TestUnsupportedURIsIgnored(t *testing.T) {
	m := NewManager()
	if m.Open("file:///t/assets/app.js", "x", 1) {
		t.Fatalf("js files are not supported")
	}
	if m.Len() != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestSnapshotAndClose(t *testing.T) {
	m := NewManager()
	m.Open("file:///t/b.liquid", "b", 1)
	m.Open("file:///t/a.liquid", "a", 1)
	m.Open("file:///tt/c.liquid", "c", 1)

	snap := m.Snapshot("file:///t")
	if len(snap) != 2 || snap[0].URI != "file:///t/a.liquid" || snap[1].URI != "file:///t/b.liquid" {
		t.Fatalf("unexpected snapshot %v", snap)
	}
	if len(m.Snapshot("")) != 3 {
		t.Fatalf("empty root selects everything")
	}
	m.Close("file:///t/a.liquid")
	if _, ok := m.Get("file:///t/a.liquid"); ok {
		t.Fatalf("closed document still present")
	}
}
