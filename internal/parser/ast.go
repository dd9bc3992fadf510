package parser

import "strings"

type Node interface {
	Pos() Position
}

type Position struct {
	Line   int
	Column int
}

// Cell is one comma separated field of a row, already trimmed.
type Cell struct {
	Position Position
	Value    string
	Quoted   bool
}

func (c Cell) Pos() Position { return c.Position }

// End returns the column just past the cell's value.
func (c Cell) End() int {
	n := len(c.Value)
	if c.Quoted {
		n += 2
	}
	return c.Position.Column + n
}

// Record holds the raw cells of a row. Trailing empty cells are dropped.
type Record struct {
	Position Position
	Cells    []Cell
}

func (r *Record) Pos() Position { return r.Position }

// Tag is the first cell, the directive keyword.
func (r *Record) Tag() string { return r.Cell(0) }

// Key is the second cell, the name the directive is about.
func (r *Record) Key() string { return r.Cell(1) }

// Cell returns the value of cell i, or "" past the end of the row.
func (r *Record) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i].Value
}

// Args returns every value after the tag.
func (r *Record) Args() []string {
	if len(r.Cells) < 2 {
		return []string{}
	}
	args := make([]string, 0, len(r.Cells)-1)
	for _, c := range r.Cells[1:] {
		args = append(args, c.Value)
	}
	return args
}

// Text is the row joined back with commas, unquoted.
func (r *Record) Text() string {
	vals := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		vals[i] = c.Value
	}
	return strings.Join(vals, ",")
}

// CellAt returns the index of the cell that spans the given column.
func (r *Record) CellAt(col int) (int, bool) {
	for i, c := range r.Cells {
		if col >= c.Position.Column && col < c.End() {
			return i, true
		}
	}
	return -1, false
}

type Document struct {
	Title *Record
	Rows  []Row
}

type Row interface {
	Node
	Raw() *Record
	isRow()
}

// PinRow is `Pin,<name>,<mux0>,<mux1>,...`.
type PinRow struct {
	*Record
}

func (p *PinRow) Raw() *Record { return p.Record }
func (p *PinRow) isRow()       {}

// Name is the pin name.
func (p *PinRow) Name() string { return p.Cell(1) }

// Columns returns the alternative cells; index i is multiplexor setting i.
func (p *PinRow) Columns() []Cell {
	if len(p.Cells) <= MuxColumnOffset {
		return nil
	}
	return p.Cells[MuxColumnOffset:]
}

// MuxColumnOffset is the cell index holding multiplexor setting 0.
const MuxColumnOffset = 2

// AliasRow is `Alias,<alias>,<pin>`.
type AliasRow struct {
	*Record
}

func (a *AliasRow) Raw() *Record   { return a.Record }
func (a *AliasRow) isRow()         {}
func (a *AliasRow) Alias() string  { return a.Cell(1) }
func (a *AliasRow) Target() string { return a.Cell(2) }

// DefaultRow is `Default,<signal>,<pin>`.
type DefaultRow struct {
	*Record
}

func (d *DefaultRow) Raw() *Record   { return d.Record }
func (d *DefaultRow) isRow()         {}
func (d *DefaultRow) Signal() string { return d.Cell(1) }
func (d *DefaultRow) Pin() string    { return d.Cell(2) }

// ClockInfoRow is `ClockInfo,<peripheral>,<register>[,<mask>]`.
type ClockInfoRow struct {
	*Record
}

func (c *ClockInfoRow) Raw() *Record       { return c.Record }
func (c *ClockInfoRow) isRow()             {}
func (c *ClockInfoRow) Peripheral() string { return c.Cell(1) }
func (c *ClockInfoRow) Register() string   { return c.Cell(2) }
func (c *ClockInfoRow) Mask() string       { return c.Cell(3) }

// UnknownRow carries any row whose tag is not a directive.
type UnknownRow struct {
	*Record
}

func (u *UnknownRow) Raw() *Record { return u.Record }
func (u *UnknownRow) isRow()       {}

const (
	TagPin       = "Pin"
	TagAlias     = "Alias"
	TagDefault   = "Default"
	TagClockInfo = "ClockInfo"
)

// IsDirective reports whether tag names one of the directive rows.
func IsDirective(tag string) bool {
	switch tag {
	case TagPin, TagAlias, TagDefault, TagClockInfo:
		return true
	}
	return false
}

func classify(rec *Record) Row {
	switch rec.Tag() {
	case TagPin:
		return &PinRow{rec}
	case TagAlias:
		return &AliasRow{rec}
	case TagDefault:
		return &DefaultRow{rec}
	case TagClockInfo:
		return &ClockInfoRow{rec}
	}
	return &UnknownRow{rec}
}

func (d *Document) PinRows() []*PinRow             { return rowsOf[*PinRow](d.Rows) }
func (d *Document) AliasRows() []*AliasRow         { return rowsOf[*AliasRow](d.Rows) }
func (d *Document) DefaultRows() []*DefaultRow     { return rowsOf[*DefaultRow](d.Rows) }
func (d *Document) ClockInfoRows() []*ClockInfoRow { return rowsOf[*ClockInfoRow](d.Rows) }
func (d *Document) UnknownRows() []*UnknownRow     { return rowsOf[*UnknownRow](d.Rows) }

func rowsOf[T Row](rows []Row) []T {
	var out []T
	for _, r := range rows {
		if t, ok := r.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// RowAt returns the row starting on the given line.
func (d *Document) RowAt(line int) (Row, bool) {
	for _, r := range d.Rows {
		if r.Pos().Line == line {
			return r, true
		}
	}
	return nil, false
}
