package index

import (
	"slices"
	"strings"

	"github.com/usbdm-community/pinmux-tools/internal/parser"
)

// Mapping is a signal available on a pin at a multiplexor setting.
type Mapping struct {
	Signal *Signal
	Mux    int
}

type Pin struct {
	name     string
	mappings []Mapping
	byFamily map[Family][]Mapping
	Position parser.Position
}

func (p *Pin) Name() string { return p.name }

// Mappings returns the pin's mappings of family f in discovery order.
func (p *Pin) Mappings(f Family) []Mapping { return slices.Clone(p.byFamily[f]) }

// All returns every mapping in discovery order.
func (p *Pin) All() []Mapping { return slices.Clone(p.mappings) }

func (p *Pin) HasFamily(f Family) bool { return len(p.byFamily[f]) > 0 }

// Port returns the pin's GPIO mapping if it has one.
func (p *Pin) Port() (Mapping, bool) {
	if ports := p.byFamily[FamilyPort]; len(ports) > 0 {
		return ports[0], true
	}
	return Mapping{}, false
}

// Description is `<pin> = <sig>,<sig>...` listing the non-port signals.
func (p *Pin) Description() string {
	var names []string
	for _, m := range p.mappings {
		if m.Signal.Family() == FamilyPort {
			continue
		}
		names = append(names, m.Signal.Key())
	}
	if len(names) == 0 {
		return p.name
	}
	return p.name + " = " + strings.Join(names, ",")
}

type PinRegistry struct {
	pins      map[string]*Pin
	mux       *MuxTable
	instances *PeripheralInstanceSet
}

func NewPinRegistry(mux *MuxTable, instances *PeripheralInstanceSet) *PinRegistry {
	return &PinRegistry{
		pins:      make(map[string]*Pin),
		mux:       mux,
		instances: instances,
	}
}

// GetOrCreate returns the pin called name, creating it if needed. The
// second result is true when the pin is new.
func (r *PinRegistry) GetOrCreate(name string) (*Pin, bool) {
	if p, ok := r.pins[name]; ok {
		return p, false
	}
	p := &Pin{name: name, byFamily: make(map[Family][]Mapping)}
	r.pins[name] = p
	return p, true
}

func (r *PinRegistry) Lookup(name string) (*Pin, bool) {
	p, ok := r.pins[name]
	return p, ok
}

// AddMapping attaches sig to pin at setting mux and records the
// alternative. Non-port signals also mark their peripheral instance used.
func (r *PinRegistry) AddMapping(pin *Pin, sig *Signal, mux int) {
	m := Mapping{Signal: sig, Mux: mux}
	pin.mappings = append(pin.mappings, m)
	pin.byFamily[sig.Family()] = append(pin.byFamily[sig.Family()], m)
	r.mux.RecordAlternative(sig, pin.name, mux)
	if sig.Family() != FamilyPort {
		r.instances.Add(sig.Base(), sig.Instance())
	}
}

// Pins returns every pin ordered by ComparePortNames.
func (r *PinRegistry) Pins() []*Pin {
	out := make([]*Pin, 0, len(r.pins))
	for _, p := range r.pins {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Pin) int {
		if c := parser.ComparePortNames(a.name, b.name); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	return out
}

func (r *PinRegistry) Len() int { return len(r.pins) }
