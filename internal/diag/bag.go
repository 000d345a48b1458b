package diag

import (
	"fmt"
)

// Bag collects offenses across documents for batch output.
type Bag struct {
	items []Offense
	max   int
}

// NewBag creates a bag holding at most max offenses; max <= 0 means no limit.
func NewBag(max int) *Bag {
	return &Bag{max: max}
}

// Add добавляет offense, учитывая лимит.
// Возвращает false, если offense не добавлен (достигнут лимит).
func (b *Bag) Add(o Offense) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, o)
	return true
}

func (b *Bag) AddAll(items []Offense) int {
	added := 0
	for _, o := range items {
		if !b.Add(o) {
			break
		}
		added++
	}
	return added
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice.
func (b *Bag) Items() []Offense {
	return b.items
}

// HasAtLeast reports whether any offense is at least as severe as sev.
func (b *Bag) HasAtLeast(sev Severity) bool {
	for i := range b.items {
		if b.items[i].Severity >= sev {
			return true
		}
	}
	return false
}

// Count returns the number of offenses per severity.
func (b *Bag) Count() map[Severity]int {
	out := make(map[Severity]int, 3)
	for i := range b.items {
		out[b.items[i].Severity]++
	}
	return out
}

func (b *Bag) Sort() {
	Sort(b.items)
}

// простая дедупликация (по check+uri+range+message)
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	out := make([]Offense, 0, len(b.items))
	for _, o := range b.items {
		key := fmt.Sprintf("%s:%s:%d-%d:%s", o.Check, o.URI, o.Start.Index, o.End.Index, o.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
	}
	b.items = out
}
