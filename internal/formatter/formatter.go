package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/usbdm-community/pinmux-tools/internal/parser"
)

type Formatter struct {
	writer io.Writer
	groups int
	err    error
}

// Format writes doc in canonical form: the title line, then the rows of
// each directive kind in pass order, each group sorted and separated by a
// blank line. Unknown rows come last.
func Format(doc *parser.Document, w io.Writer) error {
	f := &Formatter{writer: w}
	if doc.Title != nil {
		f.record(doc.Title)
	}
	f.group(rows(doc.PinRows()))
	f.group(rows(doc.AliasRows()))
	f.group(rows(doc.DefaultRows()))
	f.group(rows(doc.ClockInfoRows()))
	f.group(rows(doc.UnknownRows()))
	return f.err
}

func rows[T parser.Row](in []T) []parser.Row {
	out := make([]parser.Row, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}

func (f *Formatter) group(rows []parser.Row) {
	if len(rows) == 0 {
		return
	}
	if f.groups > 0 {
		f.printf("\n")
	}
	f.groups++
	for _, r := range parser.SortedRows(rows) {
		f.record(r.Raw())
	}
}

func (f *Formatter) record(rec *parser.Record) {
	cells := make([]string, len(rec.Cells))
	for i, c := range rec.Cells {
		cells[i] = quote(c.Value)
	}
	f.printf("%s\n", strings.Join(cells, ","))
}

func (f *Formatter) printf(format string, args ...interface{}) {
	if f.err != nil {
		return
	}
	_, f.err = fmt.Fprintf(f.writer, format, args...)
}

func quote(v string) string {
	if !strings.ContainsAny(v, ",\"\r\n") && strings.TrimSpace(v) == v {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
