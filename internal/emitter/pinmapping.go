package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/usbdm-community/pinmux-tools/internal/index"
)

func (e *Emitter) renderPinMappingHeader(w *textWriter) {
	name := e.FileName(KindPinMappingHeader)
	w.headerPreamble(name, e.opts.Version, "Pin declarations for "+e.model.Device)
	w.include("derivative.h")
	w.blank()
	w.wizardMarker()
	if e.opts.TimerControls {
		e.writeTimerControls(w)
	}
	e.writeClockMacros(w)
	w.sectionOpen("Pin Peripheral mapping")
	for _, entry := range e.model.Mux.Entries() {
		if e.listed(entry) {
			e.writeSelectionMenu(w, entry)
		}
	}
	for _, pin := range e.model.Pins.Pins() {
		e.writePinDefines(w, pin)
	}
	w.sectionClose()
	w.headerPostamble(name)
}

func (e *Emitter) writeClockMacros(w *textWriter) {
	for _, p := range e.model.Instances.Keys() {
		ci := e.model.Clocks.Resolve(p)
		w.define(p+"_CLOCK_REG", ci.Register)
		w.define(p+"_CLOCK_MASK", ci.Mask)
	}
	w.blank()
}

func (e *Emitter) writeSelectionMenu(w *textWriter, entry *index.MuxEntry) {
	key := entry.Signal().Key()
	alts := entry.Alternatives()

	var pins []string
	for _, p := range entry.Pins() {
		pins = append(pins, e.model.Aliases.Decorate(p))
	}
	w.comment("%s maps to [%s]", key, strings.Join(alts, ", "))
	w.option(0, fmt.Sprintf("%s Pin Selection [%s]", key, strings.Join(pins, ", ")), entry.Constant(),
		"Selects which pin is used for "+key)
	for i, alt := range alts {
		if a, ok := e.model.Aliases.AliasOf(alt); ok {
			alt += " (Alias: " + a + ")"
		}
		w.choice(i, alt)
	}
	w.defaultChoice(entry.DefaultIndex())
	w.define(key+"_SEL", strconv.Itoa(entry.DefaultIndex()))
	w.blank()
}

func (e *Emitter) writePinDefines(w *textWriter, pin *index.Pin) {
	if len(pin.All()) == 0 {
		return
	}
	name := pin.Name()
	desc := pin.Description()
	if a, ok := e.model.Aliases.AliasOf(name); ok {
		desc += " (Alias: " + a + ")"
	}
	w.comment("%s", desc)

	if port, ok := pin.Port(); ok {
		w.defineDoc(name+"_PORT", port.Signal.Instance(), name+" Port name")
		w.defineDoc(name+"_NUM", port.Signal.Channel(), name+" Port number")
	}

	for _, fam := range index.Families() {
		if fam == index.FamilyPort {
			continue
		}
		for i, m := range pin.Mappings(fam) {
			e.guarded(w, m.Signal, name, func() {
				e.writeMappingDefines(w, name, fam, i, m)
			})
		}
	}
	w.blank()
}

func (e *Emitter) writeMappingDefines(w *textWriter, pin string, fam index.Family, i int, m index.Mapping) {
	sig := m.Signal
	mux := strconv.Itoa(m.Mux)
	switch fam {
	case index.FamilyADC:
		prefix := pin + "_ADC" + suffix(i)
		w.defineDoc(prefix+"_NUM", sig.Instance(), pin+" ADC number")
		w.defineDoc(prefix+"_CH", sig.Channel(), pin+" ADC channel")
	case index.FamilyFTM, index.FamilyTPM:
		f := fam.String()
		prefix := pin + "_" + f + suffix(i)
		w.defineDoc(prefix+"_NUM", sig.Instance(), pin+" "+f+" number")
		w.defineDoc(prefix+"_CH", sig.Channel(), pin+" "+f+" channel")
		w.defineDoc(prefix+"_FN", mux, pin+" Pin multiplexor for "+f)
	case index.FamilyLPTMR:
		prefix := pin + "_LPTMR" + suffix(i)
		w.defineDoc(prefix+"_NUM", sig.Instance(), pin+" LPTMR number")
		w.defineDoc(prefix+"_ALT", sig.Channel(), pin+" LPTMR input")
		w.defineDoc(prefix+"_FN", mux, pin+" Pin multiplexor for LPTMR")
	default:
		f := fam.String()
		w.defineDoc(sig.Key()+"_FN", mux, pin+" Pin multiplexor for "+f)
		w.defineDoc(sig.Key()+"_GPIO", "digitalIO_"+pin, pin+" = "+f)
	}
}

type timerControl struct {
	family  index.Family
	sources []string
}

var timerControls = []timerControl{
	{index.FamilyFTM, []string{"Disabled", "System clock", "Fixed frequency clock", "External clock"}},
	{index.FamilyTPM, []string{"Disabled", "Internal clock", "External clock"}},
}

func (e *Emitter) writeTimerControls(w *textWriter) {
	bases := e.model.Instances.Bases()
	for _, tc := range timerControls {
		f := tc.family.String()
		used := false
		for _, b := range bases {
			if b == f {
				used = true
			}
		}
		if !used {
			continue
		}
		reg := f + "_SC"
		w.sectionOpen(f + " Clock settings")
		w.comment("%s.CLKS ================================", reg)
		w.comment("")
		w.option(0, reg+".CLKS Clock source", false, fmt.Sprintf("Selects the clock source for the %s module. [%s.CLKS]", f, reg))
		for i, s := range tc.sources {
			w.choice(i, s)
		}
		w.defaultChoice(1)
		w.comment("%s.PS ================================", reg)
		w.comment("")
		w.option(1, reg+".PS Clock prescaler", false, fmt.Sprintf("Selects the prescaler for the %s module. [%s.PS]", f, reg))
		for i := 0; i < 8; i++ {
			w.choice(i, fmt.Sprintf("Divide by %d", 1<<i))
		}
		w.defaultChoice(0)
		w.define(reg, fmt.Sprintf("(%s_CLKS(1)|%s_PS(0))", reg, reg))
		w.blank()
		w.sectionClose()
	}
}
