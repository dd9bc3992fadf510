package index

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Disabled is always alternative 0 of every signal.
const Disabled = "Disabled"

var ErrInvalidDefault = errors.New("invalid default")

// Location is one place a signal appears in the pin table.
type Location struct {
	Pin string
	Mux int
}

// MuxEntry lists the pins a signal can be routed to.
type MuxEntry struct {
	signal       *Signal
	alternatives []string
	locations    []Location
	defaultIndex int
	explicit     bool
	fixed        bool
	rejected     []string
}

func newMuxEntry(sig *Signal) *MuxEntry {
	return &MuxEntry{signal: sig, alternatives: []string{Disabled}}
}

func (e *MuxEntry) Signal() *Signal { return e.signal }

// Alternatives returns Disabled followed by the pins in first-seen order.
func (e *MuxEntry) Alternatives() []string { return slices.Clone(e.alternatives) }

// Pins returns the real alternatives, without Disabled.
func (e *MuxEntry) Pins() []string { return slices.Clone(e.alternatives[1:]) }

func (e *MuxEntry) Len() int { return len(e.alternatives) }

func (e *MuxEntry) Locations() []Location { return slices.Clone(e.locations) }

func (e *MuxEntry) DefaultIndex() int { return e.defaultIndex }

func (e *MuxEntry) Default() string { return e.alternatives[e.defaultIndex] }

// Explicit reports whether a Default directive chose the default.
func (e *MuxEntry) Explicit() bool { return e.explicit }

func (e *MuxEntry) Fixed() bool { return e.fixed }

// Rejected lists pins named by Default directives that were not alternatives.
func (e *MuxEntry) Rejected() []string { return slices.Clone(e.rejected) }

// IndexOf returns the position of pin in the alternatives, or -1.
func (e *MuxEntry) IndexOf(pin string) int {
	return slices.Index(e.alternatives, pin)
}

// Selectable reports whether there is a real choice between pins.
func (e *MuxEntry) Selectable() bool { return len(e.alternatives) > 2 }

// Constant reports whether the signal has exactly one pin.
func (e *MuxEntry) Constant() bool { return len(e.alternatives) == 2 }

type MuxTable struct {
	entries map[string]*MuxEntry
}

func NewMuxTable() *MuxTable {
	return &MuxTable{entries: make(map[string]*MuxEntry)}
}

// RecordAlternative notes that sig is available on pin at mux setting mux.
// Pins are listed once even if they carry the signal on several columns.
func (t *MuxTable) RecordAlternative(sig *Signal, pin string, mux int) {
	e := t.entry(sig)
	e.locations = append(e.locations, Location{Pin: pin, Mux: mux})
	if pin == Disabled || slices.Contains(e.alternatives, pin) {
		return
	}
	e.alternatives = append(e.alternatives, pin)
}

func (t *MuxTable) entry(sig *Signal) *MuxEntry {
	key := sig.Key()
	e, ok := t.entries[key]
	if !ok {
		e = newMuxEntry(sig)
		t.entries[key] = e
	}
	return e
}

// SetDefault selects pin as the reset routing of sig.
func (t *MuxTable) SetDefault(sig *Signal, pin string) error {
	e, ok := t.entries[sig.Key()]
	if !ok {
		return fmt.Errorf("%w: %s has no alternatives", ErrInvalidDefault, sig.Key())
	}
	idx := e.IndexOf(pin)
	if idx < 0 {
		e.rejected = append(e.rejected, pin)
		return fmt.Errorf("%w: %s is not an alternative for %s %v", ErrInvalidDefault, pin, sig.Key(), e.alternatives)
	}
	e.defaultIndex = idx
	e.explicit = true
	return nil
}

// Fix routes a single-pin signal to that pin. Fixed signals are shown as
// constant in configuration menus.
func (t *MuxTable) Fix(sig *Signal) error {
	e, ok := t.entries[sig.Key()]
	if !ok || !e.Constant() {
		return fmt.Errorf("%w: %s does not have exactly one pin", ErrInvalidDefault, sig.Key())
	}
	e.defaultIndex = 1
	e.fixed = true
	return nil
}

func (t *MuxTable) Lookup(key string) (*MuxEntry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// Entries returns every entry ordered by signal key.
func (t *MuxTable) Entries() []*MuxEntry {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*MuxEntry, len(keys))
	for i, k := range keys {
		out[i] = t.entries[k]
	}
	return out
}

func (t *MuxTable) Len() int { return len(t.entries) }
