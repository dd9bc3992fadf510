package builder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/logger"
	"github.com/usbdm-community/pinmux-tools/internal/parser"
	"github.com/usbdm-community/pinmux-tools/internal/schema"
	"github.com/usbdm-community/pinmux-tools/internal/validator"
)

type State int

const (
	StateEmpty State = iota
	StatePinsLoaded
	StateAliasesLoaded
	StateDefaultsLoaded
	StateClockInfoLoaded
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StatePinsLoaded:
		return "PinsLoaded"
	case StateAliasesLoaded:
		return "AliasesLoaded"
	case StateDefaultsLoaded:
		return "DefaultsLoaded"
	case StateClockInfoLoaded:
		return "ClockInfoLoaded"
	case StateFinalized:
		return "Finalized"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var ErrOutOfOrder = errors.New("pass run out of order")

// DefaultAutoSelect lists the families whose single-pin signals are routed
// to that pin without a Default row.
var DefaultAutoSelect = []index.Family{index.FamilyADC, index.FamilyFTM, index.FamilyTPM}

type Options struct {
	// Device overrides the name derived from the file name.
	Device               string
	DefaultClockRegister string
	Allow                []string
	Schema               *schema.Schema
	AutoSelect           []index.Family
}

type Builder struct {
	File      string
	opts      Options
	model     *index.Model
	validator *validator.Validator
	state     State
	aliasPos  map[string]parser.Position
}

func NewBuilder(file string, opts Options) *Builder {
	device := opts.Device
	if device == "" {
		device = DeviceName(file)
	}
	if opts.AutoSelect == nil {
		opts.AutoSelect = DefaultAutoSelect
	}
	return &Builder{
		File:      file,
		opts:      opts,
		model:     index.NewModel(device, opts.DefaultClockRegister),
		validator: validator.NewValidator(file, opts.Schema, opts.Allow),
		aliasPos:  make(map[string]parser.Position),
	}
}

// DeviceName is the file name without directory and extension.
func DeviceName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (b *Builder) Model() *index.Model { return b.model }

func (b *Builder) State() State { return b.state }

func (b *Builder) Diagnostics() []validator.Diagnostic { return b.validator.Diagnostics }

func (b *Builder) Validator() *validator.Validator { return b.validator }

func (b *Builder) advance(from, to State) error {
	if b.state != from {
		return fmt.Errorf("%w: %s requires %s, processor is %s", ErrOutOfOrder, to, from, b.state)
	}
	b.state = to
	return nil
}

// Build runs every pass over doc in order and finalizes the model.
func (b *Builder) Build(doc *parser.Document) (*index.Model, error) {
	rows := parser.SortedRows(doc.Rows)
	sorted := &parser.Document{Title: doc.Title, Rows: rows}

	for _, r := range sorted.UnknownRows() {
		b.validator.Warnf(validator.CodeUnknownRow, r.Pos(), "Unknown row type %q ignored", r.Tag())
	}
	if err := b.LoadPins(sorted.PinRows()); err != nil {
		return nil, err
	}
	if err := b.LoadAliases(sorted.AliasRows()); err != nil {
		return nil, err
	}
	if err := b.LoadDefaults(sorted.DefaultRows()); err != nil {
		return nil, err
	}
	if err := b.LoadClockInfo(sorted.ClockInfoRows()); err != nil {
		return nil, err
	}
	if err := b.Finalize(); err != nil {
		return nil, err
	}
	return b.model, nil
}

// LoadPins interns every signal found in the pin rows. Families claim
// columns in priority order; a claimed column is not offered to later
// families.
func (b *Builder) LoadPins(rows []*parser.PinRow) error {
	if err := b.advance(StateEmpty, StatePinsLoaded); err != nil {
		return err
	}
	for _, row := range rows {
		if row.Name() == "" {
			b.validator.Warnf(validator.CodeDiscardedPin, row.Pos(), "Pin row without a name discarded: %q", row.Text())
			continue
		}
		if !b.validator.ValidateRow(row) {
			continue
		}
		pin, created := b.model.Pins.GetOrCreate(row.Name())
		if !created {
			b.validator.Errorf(validator.CodeDuplicatePin, row.Pos(), "Pin %s defined more than once, row ignored", row.Name())
			continue
		}
		pin.Position = row.Pos()

		cols := row.Columns()
		claimed := make([]bool, len(cols))
		seen := make(map[*index.Signal]int)
		for _, fam := range index.Families() {
			for mux, cell := range cols {
				if claimed[mux] {
					continue
				}
				m, ok := index.RecognizeFamily(fam, cell.Value)
				if !ok {
					continue
				}
				claimed[mux] = true
				sig := b.model.Signals.InternMatch(m)
				if first, dup := seen[sig]; dup && fam != index.FamilyPort {
					b.validator.Warnf(validator.CodeRepeatedSignal, cell.Position,
						"%s carries %s on mux %d and %d; the pin mapping cannot select between them", pin.Name(), sig.Key(), first, mux)
				} else if !dup {
					seen[sig] = mux
				}
				b.model.Pins.AddMapping(pin, sig, mux)
			}
		}
		logger.Debugf("%s: %s\n", b.File, pin.Description())
	}
	return nil
}

func (b *Builder) LoadAliases(rows []*parser.AliasRow) error {
	if err := b.advance(StatePinsLoaded, StateAliasesLoaded); err != nil {
		return err
	}
	for _, row := range rows {
		if !b.validator.ValidateRow(row) {
			continue
		}
		if err := b.model.Aliases.Register(row.Alias(), row.Target()); err != nil {
			b.validator.Errorf(validator.CodeAliasConflict, row.Pos(), "%v", err)
			continue
		}
		if _, seen := b.aliasPos[row.Alias()]; !seen {
			b.aliasPos[row.Alias()] = row.Pos()
		}
	}
	return nil
}

func (b *Builder) LoadDefaults(rows []*parser.DefaultRow) error {
	if err := b.advance(StateAliasesLoaded, StateDefaultsLoaded); err != nil {
		return err
	}
	for _, row := range rows {
		if !b.validator.ValidateRow(row) {
			continue
		}
		sig, ok := b.model.Signals.Lookup(row.Signal())
		if !ok {
			b.validator.Errorf(validator.CodeUnknownSignal, row.Pos(), "Default for unknown signal %s", row.Signal())
			continue
		}
		if err := b.model.Mux.SetDefault(sig, row.Pin()); err != nil {
			b.validator.Errorf(validator.CodeInvalidDefault, row.Pos(), "%v", err)
		}
	}
	return nil
}

func (b *Builder) LoadClockInfo(rows []*parser.ClockInfoRow) error {
	if err := b.advance(StateDefaultsLoaded, StateClockInfoLoaded); err != nil {
		return err
	}
	for _, row := range rows {
		if !b.validator.ValidateRow(row) {
			continue
		}
		if !b.model.Instances.Has(row.Peripheral()) {
			b.validator.Warnf(validator.CodeUnknownPeripheral, row.Pos(), "ClockInfo for unused peripheral %s ignored", row.Peripheral())
			continue
		}
		b.model.Clocks.Register(row.Peripheral(), row.Register(), row.Mask())
	}
	return nil
}

// Finalize checks aliases, routes constant signals and enforces the
// structural rules. A structural violation leaves the model unsealed.
func (b *Builder) Finalize() error {
	if b.state != StateClockInfoLoaded {
		return fmt.Errorf("%w: %s requires %s, processor is %s", ErrOutOfOrder, StateFinalized, StateClockInfoLoaded, b.state)
	}
	b.validator.CheckAliases(b.model, b.aliasPos)

	for _, e := range b.model.Mux.Entries() {
		if !e.Constant() || e.Explicit() || !b.autoSelects(e.Signal().Family()) {
			continue
		}
		if err := b.model.Mux.Fix(e.Signal()); err != nil {
			return err
		}
	}

	if err := validator.CheckStructure(b.model); err != nil {
		return fmt.Errorf("%s: %w", b.File, err)
	}
	b.model.Seal()
	b.state = StateFinalized
	return nil
}

func (b *Builder) autoSelects(f index.Family) bool {
	for _, a := range b.opts.AutoSelect {
		if a == f {
			return true
		}
	}
	return false
}
