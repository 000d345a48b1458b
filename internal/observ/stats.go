package observ

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type stat struct {
	calls    int
	failures int
	total    time.Duration
	max      time.Duration
}

// Stats aggregates per-check durations across every document of a run.
// The zero value is ready to use; a nil *Stats ignores observations.
type Stats struct {
	mu      sync.Mutex
	entries map[string]*stat
}

func NewStats() *Stats {
	return &Stats{entries: make(map[string]*stat)}
}

// Observe records one run of name that took d.
func (s *Stats) Observe(name string, d time.Duration, failed bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string]*stat)
	}
	e := s.entries[name]
	if e == nil {
		e = &stat{}
		s.entries[name] = e
	}
	e.calls++
	e.total += d
	if d > e.max {
		e.max = d
	}
	if failed {
		e.failures++
	}
}

// CheckReport is the aggregate for one check.
type CheckReport struct {
	Name     string  `json:"name" msgpack:"name"`
	Calls    int     `json:"calls" msgpack:"calls"`
	Failures int     `json:"failures,omitempty" msgpack:"failures,omitempty"`
	TotalMS  float64 `json:"total_ms" msgpack:"total_ms"`
	MaxMS    float64 `json:"max_ms" msgpack:"max_ms"`
}

// Report returns the aggregates, slowest first.
func (s *Stats) Report() []CheckReport {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CheckReport, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, CheckReport{
			Name:     name,
			Calls:    e.calls,
			Failures: e.failures,
			TotalMS:  durationToMillis(e.total),
			MaxMS:    durationToMillis(e.max),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMS != out[j].TotalMS {
			return out[i].TotalMS > out[j].TotalMS
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *Stats) Summary() string {
	var sb strings.Builder
	sb.WriteString("checks:\n")
	for _, r := range s.Report() {
		fmt.Fprintf(&sb, "  %-24s %8.2f ms  max %7.2f ms  x%d", r.Name, r.TotalMS, r.MaxMS, r.Calls)
		if r.Failures > 0 {
			fmt.Fprintf(&sb, "  failed %d", r.Failures)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
