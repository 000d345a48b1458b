package fix

import (
	"errors"
	"math/rand"
	"testing"

	"themecheck/internal/source"
)

func TestApplyIdentity(t *testing.T) {
	src := "Hello, world!"
	out, err := Apply(src, Many{})
	if err != nil {
		t.Fatalf("Apply with no fixes failed: %v", err)
	}
	if out != src {
		t.Fatalf("expected identity, got %q", out)
	}
	out, err = Apply(src, nil)
	if err != nil || out != src {
		t.Fatalf("Apply(nil) = %q, %v", out, err)
	}
}

func TestApplyOverlapping(t *testing.T) {
	_, err := Apply("Hello, world!", Many{
		Description{StartIndex: 5, EndIndex: 7, InsertText: "wonderful "},
		Description{StartIndex: 6, EndIndex: 8, InsertText: "beautiful "},
	})
	if !errors.Is(err, ErrOverlappingRanges) {
		t.Fatalf("expected overlapping error, got %v", err)
	}
	if err.Error() != "Overlapping ranges are not allowed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestApplyAdjacentCompose(t *testing.T) {
	out, err := Apply("Hello, world!", Many{
		Description{StartIndex: 6, EndIndex: 6, InsertText: " wonderful"},
		Description{StartIndex: 6, EndIndex: 7, InsertText: " and beautiful "},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out != "Hello, wonderful and beautiful world!" {
		t.Fatalf("unexpected result %q", out)
	}
}

func TestApplyOverboard(t *testing.T) {
	cases := []Description{
		{StartIndex: 10, EndIndex: 20, InsertText: "x"},
		{StartIndex: -1, EndIndex: 2},
		{StartIndex: 4, EndIndex: 2},
	}
	for _, d := range cases {
		_, err := Apply("Hello, world!", d)
		if !errors.Is(err, ErrOverboard) {
			t.Fatalf("Apply(%+v): expected overboard error, got %v", d, err)
		}
		if err.Error() != "Fix description is going overboard" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	}
}

func TestApplyOrderIndependent(t *testing.T) {
	src := "The quick brown fox jumps over the lazy dog"
	descs := []Description{
		{StartIndex: 0, EndIndex: 3, InsertText: "A"},
		{StartIndex: 4, EndIndex: 9, InsertText: "slow"},
		{StartIndex: 16, EndIndex: 16, InsertText: "red "},
		{StartIndex: 20, EndIndex: 25, InsertText: "leaps"},
		{StartIndex: 35, EndIndex: 39, InsertText: ""},
	}
	want, err := Apply(src, toMany(descs))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	expectedLen := len(src)
	for _, d := range descs {
		expectedLen += len(d.InsertText) - (d.EndIndex - d.StartIndex)
	}
	if len(want) != expectedLen {
		t.Fatalf("length %d, want %d", len(want), expectedLen)
	}

	rng := rand.New(rand.NewSource(7))
	for range 20 {
		shuffled := append([]Description(nil), descs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got, err := Apply(src, toMany(shuffled))
		if err != nil {
			t.Fatalf("Apply(shuffled) failed: %v", err)
		}
		if got != want {
			t.Fatalf("order dependent result %q vs %q", got, want)
		}
	}
}

func TestFlattenNested(t *testing.T) {
	f := Many{
		Description{StartIndex: 1},
		Many{
			Description{StartIndex: 2},
			Many{Description{StartIndex: 3}},
		},
		&Description{StartIndex: 4},
	}
	got := Flatten(f)
	if len(got) != 4 {
		t.Fatalf("expected 4 descriptions, got %d", len(got))
	}
	for i, d := range got {
		if d.StartIndex != i+1 {
			t.Fatalf("unexpected order %+v", got)
		}
	}
}

func TestStringCorrector(t *testing.T) {
	c := NewStringCorrector("{{x}}")
	build := StringFix(func(c *StringCorrector) {
		c.Insert(2, " ")
		c.Insert(3, " ")
	})
	descs, err := Realize(c, build)
	if err != nil {
		t.Fatalf("Realize failed: %v", err)
	}
	out, err := Apply(c.Source(), toMany(descs))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out != "{{ x }}" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestBuilderCorrectorMismatch(t *testing.T) {
	jc, err := NewJSONCorrector(`{}`)
	if err != nil {
		t.Fatalf("NewJSONCorrector failed: %v", err)
	}
	err = StringFix(func(*StringCorrector) {})(jc)
	if !errors.Is(err, ErrCorrectorMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	err = JSONFix(func(*JSONCorrector) {})(NewStringCorrector(""))
	if !errors.Is(err, ErrCorrectorMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestRealizeFailsWholeBatch(t *testing.T) {
	c := NewStringCorrector("abcdef")
	_, err := Realize(c,
		StringFix(func(c *StringCorrector) { c.Replace(0, 3, "x") }),
		StringFix(func(c *StringCorrector) { c.Replace(2, 4, "y") }),
	)
	if !errors.Is(err, ErrOverlappingRanges) {
		t.Fatalf("expected overlap failure, got %v", err)
	}
}

func TestGreedySkipsConflicts(t *testing.T) {
	cands := []Candidate{
		{ID: "a", Title: "replace abc", Build: StringFix(func(c *StringCorrector) { c.Replace(0, 3, "X") })},
		{ID: "b", Title: "replace cd", Build: StringFix(func(c *StringCorrector) { c.Replace(2, 4, "Y") })},
		{ID: "c", Title: "append", Build: StringFix(func(c *StringCorrector) { c.Insert(6, "!") })},
		{ID: "d", Title: "wrong kind", Build: JSONFix(func(c *JSONCorrector) { c.Add("a", 1) })},
	}
	res, err := Greedy(source.KindTemplate, "abcdef", cands)
	if err != nil {
		t.Fatalf("Greedy failed: %v", err)
	}
	if res.Output != "Xdef!" {
		t.Fatalf("unexpected output %q", res.Output)
	}
	if len(res.Applied) != 2 || res.Applied[0].ID != "a" || res.Applied[1].ID != "c" {
		t.Fatalf("unexpected applied %+v", res.Applied)
	}
	if len(res.Skipped) != 2 || res.Skipped[0].ID != "b" || res.Skipped[1].ID != "d" {
		t.Fatalf("unexpected skipped %+v", res.Skipped)
	}
}

func TestGreedyNoFixes(t *testing.T) {
	_, err := Greedy(source.KindTemplate, "abc", nil)
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
}
