package fix

import (
	"testing"

	"themecheck/internal/source"
)

func realizeJSON(t *testing.T, src string, fn func(c *JSONCorrector)) string {
	t.Helper()
	c, err := NewCorrector(source.KindData, src)
	if err != nil {
		t.Fatalf("NewCorrector failed: %v", err)
	}
	descs, err := Realize(c, JSONFix(fn))
	if err != nil {
		t.Fatalf("Realize failed: %v", err)
	}
	if len(descs) != 1 {
		t.Fatalf("expected exactly one description, got %d", len(descs))
	}
	if descs[0].StartIndex != 0 || descs[0].EndIndex != len(src) {
		t.Fatalf("expected whole-document description, got %d-%d", descs[0].StartIndex, descs[0].EndIndex)
	}
	out, err := Apply(src, descs[0])
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	return out
}

func TestJSONCorrectorAddDeepMerge(t *testing.T) {
	out := realizeJSON(t, `{"a":{"b":"b"}}`, func(c *JSONCorrector) {
		c.Add("c.d.e", "e")
		c.Add("c.d.f", "f")
	})
	want := `{
  "a": {
    "b": "b"
  },
  "c": {
    "d": {
      "e": "e",
      "f": "f"
    }
  }
}`
	if out != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", out, want)
	}
}

func TestJSONCorrectorRemoveKeepsParent(t *testing.T) {
	out := realizeJSON(t, `{"a":{"b":"b"}}`, func(c *JSONCorrector) {
		c.Remove("a.b")
	})
	want := `{
  "a": {}
}`
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestJSONCorrectorOverwritesNonObjectAncestor(t *testing.T) {
	out := realizeJSON(t, "{\"a\": \"leaf\", \"n\": 1.50}\n", func(c *JSONCorrector) {
		c.Add("a.b", true)
		c.Add("list", []any{1, "x"})
	})
	want := `{
  "a": {
    "b": true
  },
  "n": 1.50,
  "list": [
    1,
    "x"
  ]
}
`
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestJSONCorrectorMergesObjectValue(t *testing.T) {
	out := realizeJSON(t, `{"x":{"keep":1,"sub":{"a":1}}}`, func(c *JSONCorrector) {
		c.Add("x", map[string]any{"sub": map[string]any{"b": 2}, "new": "<b>"})
	})
	want := `{
  "x": {
    "keep": 1,
    "sub": {
      "a": 1,
      "b": 2
    },
    "new": "<b>"
  }
}`
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestJSONCorrectorNoopEditsLeaveSource(t *testing.T) {
	cases := []struct {
		name string
		src  string
		edit func(c *JSONCorrector)
	}{
		{"missing path", `{"a":1}`, func(c *JSONCorrector) { c.Remove("b.c") }},
		{"path through array", `{"list":[{"a":1}]}`, func(c *JSONCorrector) { c.Remove("list.0.a") }},
		{"array root remove", `[1,2]`, func(c *JSONCorrector) { c.Remove("a") }},
		{"array root add", `[1,2]`, func(c *JSONCorrector) { c.Add("a.b", "x") }},
		{"scalar root add", `"text"`, func(c *JSONCorrector) { c.Add("a", 1) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewCorrector(source.KindData, tc.src)
			if err != nil {
				t.Fatalf("NewCorrector failed: %v", err)
			}
			descs, err := Realize(c, JSONFix(tc.edit))
			if err != nil {
				t.Fatalf("Realize failed: %v", err)
			}
			if len(descs) != 0 {
				t.Fatalf("expected no descriptions, got %+v", descs)
			}
		})
	}
}

func TestJSONCorrectorRemoveAfterNoopStillRewrites(t *testing.T) {
	out := realizeJSON(t, `{"a":1,"b":2}`, func(c *JSONCorrector) {
		c.Remove("missing")
		c.Remove("b")
	})
	if out != "{\n  \"a\": 1\n}" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestJSONCorrectorUntouched(t *testing.T) {
	c, err := NewJSONCorrector(`{"a":1}`)
	if err != nil {
		t.Fatalf("NewJSONCorrector failed: %v", err)
	}
	if got := Flatten(c.Fix()); len(got) != 0 {
		t.Fatalf("expected no descriptions, got %+v", got)
	}
}

func TestJSONCorrectorInvalidSource(t *testing.T) {
	if _, err := NewCorrector(source.KindData, `{"a":`); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
