// Package diagnostics stores the offenses last computed for each document
// version and addresses them by ordinal id. Prune keeps the ids of the
// survivors, so ids may have gaps until the next Set renumbers from 0.
package diagnostics

import (
	"slices"
	"sync"

	"themecheck/internal/diag"
)

// Anomaly is an offense addressed by an id that is stable within one
// document version.
type Anomaly struct {
	ID      int
	Offense diag.Offense
}

// State is the stored diagnostics of one uri.
type State struct {
	Version   int
	Anomalies []Anomaly
}

// Offenses returns the offenses of s in id order.
func (s State) Offenses() []diag.Offense {
	out := make([]diag.Offense, len(s.Anomalies))
	for i, a := range s.Anomalies {
		out[i] = a.Offense
	}
	return out
}

// Find returns the anomaly with id.
func (s State) Find(id int) (Anomaly, bool) {
	for _, a := range s.Anomalies {
		if a.ID == id {
			return a, true
		}
	}
	return Anomaly{}, false
}

// Manager is last-write-wins per uri. Callers discard results for obsolete
// versions before calling Set.
type Manager struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewManager() *Manager {
	return &Manager{states: make(map[string]State)}
}

// Set replaces the state of uri, numbering offenses from 0 in order.
func (m *Manager) Set(uri string, version int, offenses []diag.Offense) State {
	st := State{Version: version, Anomalies: make([]Anomaly, len(offenses))}
	for i, o := range offenses {
		st.Anomalies[i] = Anomaly{ID: i, Offense: o}
	}
	m.mu.Lock()
	m.states[uri] = st
	m.mu.Unlock()
	return st
}

// Get returns a copy of the state of uri.
func (m *Manager) Get(uri string) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[uri]
	if !ok {
		return State{}, false
	}
	st.Anomalies = slices.Clone(st.Anomalies)
	return st, true
}

func (m *Manager) Delete(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, uri)
}

// Prune removes the anomalies with the given ids if the stored version is
// still version. Remaining anomalies keep their ids. It reports whether the
// state was changed.
func (m *Manager) Prune(uri string, version int, ids []int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[uri]
	if !ok || st.Version != version {
		return false
	}
	kept := make([]Anomaly, 0, len(st.Anomalies))
	for _, a := range st.Anomalies {
		if !slices.Contains(ids, a.ID) {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(st.Anomalies) {
		return false
	}
	m.states[uri] = State{Version: version, Anomalies: kept}
	return true
}

// URIs lists every uri with stored state.
func (m *Manager) URIs() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.states))
	for uri := range m.states {
		out = append(out, uri)
	}
	m.mu.RUnlock()
	slices.Sort(out)
	return out
}
