package emitter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/parser"
)

// descriptor is one constant I/O object bound to a pin.
type descriptor struct {
	pin     *index.Pin
	mapping index.Mapping
	name    string
	// macro prefixes the pin mapping defines, e.g. PTA3_FTM_1.
	macro string
}

func (e *Emitter) descriptors(fams ...index.Family) []descriptor {
	var out []descriptor
	for _, fam := range fams {
		prefix := "analogueIO_"
		if fam.Timer() {
			prefix = "pwmIO_"
		}
		for _, pin := range e.model.Pins.Pins() {
			for i, m := range pin.Mappings(fam) {
				out = append(out, descriptor{
					pin:     pin,
					mapping: m,
					name:    prefix + pin.Name() + suffix(i),
					macro:   pin.Name() + "_" + fam.String() + suffix(i),
				})
			}
		}
	}
	return out
}

func (e *Emitter) portPins() []*index.Pin {
	var out []*index.Pin
	for _, pin := range e.model.Pins.Pins() {
		if _, ok := pin.Port(); ok {
			out = append(out, pin)
		}
	}
	return out
}

func (e *Emitter) renderGpioHeader(w *textWriter) {
	name := e.FileName(KindGpioHeader)
	w.headerPreamble(name, e.opts.Version, "Pin declarations for "+e.model.Device)
	w.include("derivative.h")
	w.include(e.opts.PinMappingBase + ".h")
	w.include(e.opts.GpioBase + "_defs.h")
	w.blank()

	if pins := e.portPins(); len(pins) > 0 {
		w.groupOpen("DigitalIO_Group", "Digital Input/Output", "Allows use of port pins as simple digital inputs or outputs")
		for _, pin := range pins {
			w.line("extern const DigitalIO %-24s //!< Digital I/O on %s", "digitalIO_"+pin.Name()+";", pin.Name())
		}
		w.groupClose()
	}

	if adcs := e.descriptors(index.FamilyADC); len(adcs) > 0 {
		w.groupOpen("AnalogueIO_Group", "Analogue Input", "Allows use of port pins as analogue inputs")
		for _, d := range adcs {
			e.guarded(w, d.mapping.Signal, d.pin.Name(), func() {
				w.line("extern const AnalogueIO %-24s //!< %s on %s", d.name+";", d.mapping.Signal.Key(), d.pin.Name())
			})
		}
		w.groupClose()
	}

	if pwms := e.descriptors(index.FamilyFTM, index.FamilyTPM); len(pwms) > 0 {
		w.groupOpen("PwmIO_Group", "PWM, Input capture, Output compare", "Allows use of port pins as PWM outputs")
		for _, d := range pwms {
			e.guarded(w, d.mapping.Signal, d.pin.Name(), func() {
				w.line("extern const PwmIO %-24s //!< %s on %s", d.name+";", d.mapping.Signal.Key(), d.pin.Name())
			})
		}
		w.groupClose()
	}

	e.writeAliases(w)
	e.writeTrailer(w)
	w.headerPostamble(name)
}

func (e *Emitter) writeAliases(w *textWriter) {
	aliases := e.model.Aliases.Aliases()
	if len(aliases) == 0 {
		return
	}
	slices.SortStableFunc(aliases, parser.ComparePortNames)

	kinds := []struct {
		prefix string
		has    func(p *index.Pin) bool
	}{
		{"digitalIO_", func(p *index.Pin) bool { return p.HasFamily(index.FamilyPort) }},
		{"analogueIO_", func(p *index.Pin) bool { return p.HasFamily(index.FamilyADC) }},
		{"pwmIO_", func(p *index.Pin) bool { return p.HasFamily(index.FamilyFTM) || p.HasFamily(index.FamilyTPM) }},
	}

	w.groupOpen("alias_pin_mappings_GROUP", "Aliases for pins", "Aliases for port pins for example Arduino based names")
	for _, k := range kinds {
		for _, alias := range aliases {
			target, _ := e.model.Aliases.Resolve(alias)
			pin, ok := e.model.Pins.Lookup(target)
			if !ok || !k.has(pin) {
				continue
			}
			w.line("#define %-20s %-20s //!< alias %s=>%s", k.prefix+alias, k.prefix+target, alias, target)
		}
	}
	w.groupClose()
}

// writeTrailer records each signal's default and alternatives, then the
// clock gate of each peripheral instance, inside a C comment. Hidden signals
// are listed only when a default for them was rejected.
func (e *Emitter) writeTrailer(w *textWriter) {
	w.line("/*")
	for _, entry := range e.model.Mux.Entries() {
		if !e.listed(entry) && len(entry.Rejected()) == 0 {
			continue
		}
		line := fmt.Sprintf("%s=%s=[%s]", entry.Signal().Key(), entry.Default(), strings.Join(entry.Alternatives(), ", "))
		if rejected := entry.Rejected(); len(rejected) > 0 {
			line += "=invalid-default(" + strings.Join(rejected, ",") + ")"
		}
		w.line("%s", line)
	}
	w.blank()
	for _, p := range e.model.Instances.Keys() {
		ci := e.model.Clocks.Resolve(p)
		line := fmt.Sprintf("%s=%s=%s", p, ci.Register, ci.Mask)
		if ci.Synthesized {
			line += "=default"
		}
		w.line("%s", line)
	}
	w.line("*/")
}

var clockHelpers = []struct {
	brief, param, name, value string
}{
	{"Create Timer Clock register name from timer number", "number Timer number e.g. 1 => FTM1_CLOCK_REG", "FTM_CLOCK_REG(number)", "CONCAT3_(FTM,number,_CLOCK_REG)"},
	{"Create Timer Clock register mask from timer number", "number Timer number e.g. 1 => FTM1_CLOCK_MASK", "FTM_CLOCK_MASK(number)", "CONCAT3_(FTM,number,_CLOCK_MASK)"},
	{"Create Timer Clock register name from timer number", "number Timer number e.g. 1 => TPM1_CLOCK_REG", "TPM_CLOCK_REG(number)", "CONCAT3_(TPM,number,_CLOCK_REG)"},
	{"Create Timer Clock register mask from timer number", "number Timer number e.g. 1 => TPM1_CLOCK_MASK", "TPM_CLOCK_MASK(number)", "CONCAT3_(TPM,number,_CLOCK_MASK)"},
	{"Create ADC Clock register name from ADC number", "number ADC number e.g. 1 => ADC1_CLOCK_REG", "ADC_CLOCK_REG(number)", "CONCAT3_(ADC,number,_CLOCK_REG)"},
	{"Create ADC Clock register mask from ADC number", "number ADC number e.g. 1 => ADC1_CLOCK_MASK", "ADC_CLOCK_MASK(number)", "CONCAT3_(ADC,number,_CLOCK_MASK)"},
	{"ADC peripheral from number", "", "ADC(num)", "CONCAT2_(ADC,num)"},
	{"FTM peripheral from number", "", "FTM(num)", "CONCAT2_(FTM,num)"},
	{"TPM peripheral from number", "", "TPM(num)", "CONCAT2_(TPM,num)"},
}

func (e *Emitter) renderGpioSource(w *textWriter) {
	w.sourcePreamble(e.FileName(KindGpioSource), "Pin declarations for "+e.model.Device)
	w.include("utilities.h")
	w.include(e.opts.GpioBase + ".h")
	w.include(e.opts.PinMappingBase + ".h")
	w.blank()
	for _, h := range clockHelpers {
		w.macroDoc(h.brief, h.param, h.name, h.value)
	}

	for _, pin := range e.portPins() {
		n := pin.Name()
		w.line("const DigitalIO %s = {&PCR(%s_PORT,%s_NUM), GPIO(%s_PORT), PORT_CLOCK_MASK(%s_PORT), (1UL<<%s_NUM)};",
			"digitalIO_"+n, n, n, n, n, n)
	}

	for _, d := range e.descriptors(index.FamilyADC) {
		macro := d.macro
		e.guarded(w, d.mapping.Signal, d.pin.Name(), func() {
			w.line("const AnalogueIO %s = {%s, ADC(%s_NUM), &ADC_CLOCK_REG(%s_NUM), ADC_CLOCK_MASK(%s_NUM), %s_CH};",
				d.name, e.digitalRef(d.pin), macro, macro, macro, macro)
		})
	}

	for _, d := range e.descriptors(index.FamilyFTM, index.FamilyTPM) {
		f := d.mapping.Signal.Family().String()
		macro := d.macro
		e.guarded(w, d.mapping.Signal, d.pin.Name(), func() {
			w.line("const PwmIO %s = {%s, (volatile %s_Type*)%s(%s_NUM), %s_CH, PORT_PCR_MUX(%s_FN), &%s_CLOCK_REG(%s_NUM), %s_CLOCK_MASK(%s_NUM)};",
				d.name, e.digitalRef(d.pin), f, f, macro, macro, macro, f, macro, f, macro)
		})
	}
}

func (e *Emitter) digitalRef(pin *index.Pin) string {
	if _, ok := pin.Port(); ok {
		return "&digitalIO_" + pin.Name()
	}
	return "0"
}
