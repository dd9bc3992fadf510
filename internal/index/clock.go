package index

import (
	"strings"
)

const DefaultClockRegister = "SIM->SCGC6"

// ClockInfo is the clock gate of a peripheral instance.
type ClockInfo struct {
	Register string
	Mask     string
	// Synthesized is set when no ClockInfo row named the peripheral.
	Synthesized bool
}

// SynthesizeMask derives the conventional mask macro, e.g.
// SIM->SCGC6 and FTM0 give SIM_SCGC6_FTM0_MASK.
func SynthesizeMask(register, peripheral string) string {
	return strings.ReplaceAll(register, "->", "_") + "_" + peripheral + "_MASK"
}

type ClockResolver struct {
	entries         map[string]ClockInfo
	defaultRegister string
}

func NewClockResolver(defaultRegister string) *ClockResolver {
	if defaultRegister == "" {
		defaultRegister = DefaultClockRegister
	}
	return &ClockResolver{
		entries:         make(map[string]ClockInfo),
		defaultRegister: defaultRegister,
	}
}

// Register records the clock gate of peripheral. An empty mask is derived
// from the register.
func (c *ClockResolver) Register(peripheral, register, mask string) {
	if mask == "" {
		mask = SynthesizeMask(register, peripheral)
	}
	c.entries[peripheral] = ClockInfo{Register: register, Mask: mask}
}

func (c *ClockResolver) Lookup(peripheral string) (ClockInfo, bool) {
	ci, ok := c.entries[peripheral]
	return ci, ok
}

// Resolve returns the recorded clock gate, or one built from the default
// register.
func (c *ClockResolver) Resolve(peripheral string) ClockInfo {
	if ci, ok := c.entries[peripheral]; ok {
		return ci
	}
	return ClockInfo{
		Register:    c.defaultRegister,
		Mask:        SynthesizeMask(c.defaultRegister, peripheral),
		Synthesized: true,
	}
}

func (c *ClockResolver) DefaultRegister() string { return c.defaultRegister }
