package fix

import (
	"errors"
	"fmt"

	"themecheck/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// Realize runs every builder against c and validates the combined result.
// Any failing builder or an invalid combination fails the whole batch. The
// returned descriptions are sorted by position.
func Realize(c Corrector, builders ...Builder) ([]Description, error) {
	for i, build := range builders {
		if build == nil {
			continue
		}
		if err := build(c); err != nil {
			return nil, fmt.Errorf("fix %d: %w", i, err)
		}
	}
	descs := Sorted(c.Fix())
	if _, err := Apply(c.Source(), toMany(descs)); err != nil {
		return nil, err
	}
	return descs, nil
}

func toMany(descs []Description) Many {
	out := make(Many, len(descs))
	for i, d := range descs {
		out[i] = d
	}
	return out
}

// Candidate is one fix offered to Greedy.
type Candidate struct {
	ID    string
	Title string
	Build Builder
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID        string
	Title     string
	EditCount int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// GreedyResult aggregates applied fixes, skipped ones and the patched text.
type GreedyResult struct {
	Applied      []AppliedFix
	Skipped      []SkippedFix
	Descriptions []Description
	Output       string
}

// Greedy accepts candidates in order, skipping any whose addition would make
// the batch fail. Each attempt starts from a fresh corrector over text so a
// rejected candidate leaves no trace.
func Greedy(kind source.Kind, text string, candidates []Candidate) (*GreedyResult, error) {
	result := &GreedyResult{
		Applied: make([]AppliedFix, 0),
		Skipped: make([]SkippedFix, 0),
		Output:  text,
	}
	accepted := make([]Builder, 0, len(candidates))
	var prevCount int
	for _, cand := range candidates {
		if cand.Build == nil {
			result.Skipped = append(result.Skipped, SkippedFix{ID: cand.ID, Title: cand.Title, Reason: "fix has no builder"})
			continue
		}
		c, err := NewCorrector(kind, text)
		if err != nil {
			return result, err
		}
		descs, err := Realize(c, append(accepted, cand.Build)...)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedFix{ID: cand.ID, Title: cand.Title, Reason: err.Error()})
			continue
		}
		edits := len(descs) - prevCount
		if edits < 0 || kind == source.KindData {
			edits = 1
		}
		prevCount = len(descs)
		accepted = append(accepted, cand.Build)
		result.Applied = append(result.Applied, AppliedFix{ID: cand.ID, Title: cand.Title, EditCount: edits})
		result.Descriptions = descs
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	out, err := Apply(text, toMany(result.Descriptions))
	if err != nil {
		return result, err
	}
	result.Output = out
	return result, nil
}
