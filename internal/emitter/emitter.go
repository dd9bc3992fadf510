package emitter

import (
	"errors"
	"fmt"
	"io"

	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/validator"
)

var ErrNotFinalized = errors.New("model not finalized")

type Kind int

const (
	KindPinMappingHeader Kind = iota
	KindGpioHeader
	KindGpioSource
)

func (k Kind) String() string {
	switch k {
	case KindPinMappingHeader:
		return "pin mapping header"
	case KindGpioHeader:
		return "GPIO header"
	case KindGpioSource:
		return "GPIO source"
	}
	return "unknown"
}

// Header reports whether the artifact belongs in the header directory.
func (k Kind) Header() bool { return k != KindGpioSource }

type Artifact struct {
	Kind    Kind
	Name    string
	Content []byte
}

type Options struct {
	Version        string
	PinMappingBase string
	GpioBase       string
	// HiddenFamilies lists families whose signals get no menu or trailer
	// line unless they can be routed to more than one pin.
	HiddenFamilies []index.Family
	// TimerControls adds FTM_SC and TPM_SC clock menus.
	TimerControls bool
}

func DefaultOptions() Options {
	return Options{
		Version:        "1.0.0",
		PinMappingBase: "PinMapping",
		GpioBase:       "GPIO",
		HiddenFamilies: []index.Family{index.FamilyPort},
	}
}

type Emitter struct {
	model  *index.Model
	opts   Options
	hidden map[index.Family]bool
}

// New returns an emitter for m. Empty option fields take their defaults.
func New(m *index.Model, opts Options) *Emitter {
	def := DefaultOptions()
	if opts.Version == "" {
		opts.Version = def.Version
	}
	if opts.PinMappingBase == "" {
		opts.PinMappingBase = def.PinMappingBase
	}
	if opts.GpioBase == "" {
		opts.GpioBase = def.GpioBase
	}
	if opts.HiddenFamilies == nil {
		opts.HiddenFamilies = def.HiddenFamilies
	}
	hidden := make(map[index.Family]bool)
	for _, f := range opts.HiddenFamilies {
		hidden[f] = true
	}
	return &Emitter{model: m, opts: opts, hidden: hidden}
}

// FileName returns the device specific name of an artifact.
func (e *Emitter) FileName(k Kind) string {
	switch k {
	case KindPinMappingHeader:
		return e.opts.PinMappingBase + "-" + e.model.Device + ".h"
	case KindGpioHeader:
		return e.opts.GpioBase + "-" + e.model.Device + ".h"
	default:
		return e.opts.GpioBase + "-" + e.model.Device + ".cpp"
	}
}

func (e *Emitter) check() error {
	if e.model == nil || !e.model.Sealed() {
		return ErrNotFinalized
	}
	return validator.CheckStructure(e.model)
}

// Emit renders every artifact. Nothing is returned unless all succeed.
func (e *Emitter) Emit() ([]Artifact, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	renderers := []struct {
		kind   Kind
		render func(w *textWriter)
	}{
		{KindPinMappingHeader, e.renderPinMappingHeader},
		{KindGpioHeader, e.renderGpioHeader},
		{KindGpioSource, e.renderGpioSource},
	}
	out := make([]Artifact, 0, len(renderers))
	for _, r := range renderers {
		var w textWriter
		r.render(&w)
		out = append(out, Artifact{Kind: r.kind, Name: e.FileName(r.kind), Content: []byte(w.String())})
	}
	return out, nil
}

func (e *Emitter) write(out io.Writer, render func(w *textWriter)) error {
	if err := e.check(); err != nil {
		return err
	}
	var w textWriter
	render(&w)
	if _, err := io.WriteString(out, w.String()); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

func (e *Emitter) WritePinMappingHeader(w io.Writer) error {
	return e.write(w, e.renderPinMappingHeader)
}

func (e *Emitter) WriteGpioHeader(w io.Writer) error {
	return e.write(w, e.renderGpioHeader)
}

func (e *Emitter) WriteGpioSource(w io.Writer) error {
	return e.write(w, e.renderGpioSource)
}

// guard returns the #if line selecting pin for sig, or "" when sig has
// only one pin.
func (e *Emitter) guard(sig *index.Signal, pin string) string {
	entry, ok := e.model.Mux.Lookup(sig.Key())
	if !ok || !entry.Selectable() {
		return ""
	}
	return fmt.Sprintf("#if %s_SEL == %d", sig.Key(), entry.IndexOf(pin))
}

func (e *Emitter) guarded(w *textWriter, sig *index.Signal, pin string, body func()) {
	g := e.guard(sig, pin)
	if g != "" {
		w.line("%s", g)
	}
	body()
	if g != "" {
		w.line("#endif")
	}
}

// suffix distinguishes repeated mappings of one family on a pin.
func suffix(i int) string {
	if i == 0 {
		return ""
	}
	return fmt.Sprintf("_%d", i)
}

// listed reports whether an entry gets a menu and a trailer line.
func (e *Emitter) listed(entry *index.MuxEntry) bool {
	if entry.Len() <= 1 {
		return false
	}
	return entry.Selectable() || !e.hidden[entry.Signal().Family()]
}
