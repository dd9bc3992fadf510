package validator

import (
	"fmt"

	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/parser"
)

type ViolationKind int

const (
	ViolationMultiplePorts ViolationKind = iota
	ViolationPortMux
	ViolationMultipleADC
	ViolationADCMux
)

func (k ViolationKind) String() string {
	switch k {
	case ViolationMultiplePorts:
		return "multiple ports"
	case ViolationPortMux:
		return "port mux"
	case ViolationMultipleADC:
		return "multiple ADC locations"
	case ViolationADCMux:
		return "ADC mux"
	}
	return "unknown"
}

// StructuralError aborts generation for a device.
type StructuralError struct {
	Kind      ViolationKind
	Signal    string
	Pin       string
	Locations []index.Location
}

func (e *StructuralError) Error() string {
	switch e.Kind {
	case ViolationMultiplePorts:
		if e.Signal == "" {
			return fmt.Sprintf("Multiple ports mapped to pin %s: %v", e.Pin, e.Locations)
		}
		return fmt.Sprintf("Multiple ports mapped for %s: %v", e.Signal, e.Locations)
	case ViolationPortMux:
		return fmt.Sprintf("Port %s on %s not mapped to mux 1: %v", e.Signal, e.Pin, e.Locations)
	case ViolationMultipleADC:
		return fmt.Sprintf("Multiple ADC locations for %s: %v", e.Signal, e.Locations)
	case ViolationADCMux:
		return fmt.Sprintf("ADC %s on %s not mapped to mux 0: %v", e.Signal, e.Pin, e.Locations)
	}
	return "structural error"
}

// CheckStructure verifies the routing rules that make a table unusable when
// broken. A pin carries at most one port signal; a port signal sits on one
// pin at mux 1; an ADC signal sits on one pin at mux 0. The first violation
// found, pins before signals, is returned.
func CheckStructure(m *index.Model) error {
	for _, pin := range m.Pins.Pins() {
		if ports := pin.Mappings(index.FamilyPort); len(ports) > 1 {
			locs := make([]index.Location, len(ports))
			for i, p := range ports {
				locs[i] = index.Location{Pin: pin.Name(), Mux: p.Mux}
			}
			return &StructuralError{Kind: ViolationMultiplePorts, Pin: pin.Name(), Locations: locs}
		}
	}

	for _, e := range m.Mux.Entries() {
		sig := e.Signal()
		locs := e.Locations()
		switch sig.Family() {
		case index.FamilyPort:
			if len(locs) != 1 {
				return &StructuralError{Kind: ViolationMultiplePorts, Signal: sig.Key(), Locations: locs}
			}
			if locs[0].Mux != 1 {
				return &StructuralError{Kind: ViolationPortMux, Signal: sig.Key(), Pin: locs[0].Pin, Locations: locs}
			}
		case index.FamilyADC:
			if len(locs) != 1 {
				return &StructuralError{Kind: ViolationMultipleADC, Signal: sig.Key(), Locations: locs}
			}
			if locs[0].Mux != 0 {
				return &StructuralError{Kind: ViolationADCMux, Signal: sig.Key(), Pin: locs[0].Pin, Locations: locs}
			}
		}
	}
	return nil
}

// CheckAliases reports aliases whose pin is not in the table.
func (v *Validator) CheckAliases(m *index.Model, positions map[string]parser.Position) {
	for _, alias := range m.Aliases.Aliases() {
		pin, _ := m.Aliases.Resolve(alias)
		if _, ok := m.Pins.Lookup(pin); !ok {
			v.Errorf(CodeUnknownAliasTarget, positions[alias], "Alias %s names unknown pin %s", alias, pin)
		}
	}
}
