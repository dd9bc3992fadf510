package parser

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestParseBasic(t *testing.T) {
	input := `MK20D5 pins,,,
Pin,PTA3,,FTM0_CH6,,
Pin,PTB2,ADC0_SE12,PTB2,FTM0_CH6
Alias,D15,PTB2
Default,FTM0_6,PTA3
ClockInfo,FTM0,SIM->SCGC6,SIM_SCGC6_FTM0_MASK
`
	p := NewParser(input)
	doc, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if doc.Title == nil || doc.Title.Cell(0) != "MK20D5 pins" {
		t.Errorf("Expected title row, got %+v", doc.Title)
	}
	if len(doc.Rows) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(doc.Rows))
	}

	pins := doc.PinRows()
	if len(pins) != 2 {
		t.Fatalf("Expected 2 pin rows, got %d", len(pins))
	}
	if pins[0].Name() != "PTA3" {
		t.Errorf("Expected PTA3, got %s", pins[0].Name())
	}
	// Trailing empty cells dropped, inner ones kept.
	if len(pins[0].Cells) != 4 {
		t.Errorf("Expected 4 cells, got %d: %v", len(pins[0].Cells), pins[0].Text())
	}
	cols := pins[0].Columns()
	if len(cols) != 2 || cols[0].Value != "" || cols[1].Value != "FTM0_CH6" {
		t.Errorf("Unexpected columns %+v", cols)
	}

	aliases := doc.AliasRows()
	if len(aliases) != 1 || aliases[0].Alias() != "D15" || aliases[0].Target() != "PTB2" {
		t.Errorf("Unexpected alias rows %+v", aliases)
	}
	defaults := doc.DefaultRows()
	if len(defaults) != 1 || defaults[0].Signal() != "FTM0_6" || defaults[0].Pin() != "PTA3" {
		t.Errorf("Unexpected default rows %+v", defaults)
	}
	clocks := doc.ClockInfoRows()
	if len(clocks) != 1 || clocks[0].Register() != "SIM->SCGC6" || clocks[0].Mask() != "SIM_SCGC6_FTM0_MASK" {
		t.Errorf("Unexpected clock rows %+v", clocks)
	}
}

func TestParsePositions(t *testing.T) {
	input := "title\nPin, PTA3 ,FTM0_CH6\n"
	doc, err := NewParser(input).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	row := doc.PinRows()[0]
	if row.Pos().Line != 2 || row.Pos().Column != 1 {
		t.Errorf("Unexpected row position %+v", row.Pos())
	}
	name := row.Cells[1]
	if name.Value != "PTA3" {
		t.Errorf("Expected trimmed cell, got %q", name.Value)
	}
	if name.Position.Column != 6 {
		t.Errorf("Expected column 6, got %d", name.Position.Column)
	}
	if idx, ok := row.CellAt(12); !ok || idx != 2 {
		t.Errorf("Expected cell 2 at column 12, got %d %v", idx, ok)
	}
}

func TestParseQuoted(t *testing.T) {
	input := "title\nPin,\"PTA3\",\"has, comma\",\"say \"\"hi\"\"\"\n"
	doc, err := NewParser(input).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	row := doc.PinRows()[0]
	if row.Cell(2) != "has, comma" {
		t.Errorf("Expected quoted comma to be kept, got %q", row.Cell(2))
	}
	if row.Cell(3) != `say "hi"` {
		t.Errorf("Expected escaped quotes, got %q", row.Cell(3))
	}
	if !row.Cells[1].Quoted {
		t.Errorf("Expected cell to be marked quoted")
	}
}

func TestParseSkipsShortRows(t *testing.T) {
	input := "title\n\nPin\n,,,\nAlias,D1,PTA1\r\nNote,something\n"
	doc, err := NewParser(input).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(doc.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(doc.Rows))
	}
	if pins := doc.PinRows(); len(pins) != 1 || len(pins[0].Raw().Args()) != 0 {
		t.Errorf("Expected the bare Pin row to be kept for validation")
	}
	if len(doc.UnknownRows()) != 1 {
		t.Errorf("Expected the Note row to be kept as unknown")
	}
	if doc.AliasRows()[0].Target() != "PTA1" {
		t.Errorf("CRLF not handled: %q", doc.AliasRows()[0].Target())
	}
}

func TestParseErrors(t *testing.T) {
	_, err := NewParser("title\nPin,\"PTA3\n").Parse()
	if err == nil || !strings.Contains(err.Error(), "unterminated") {
		t.Errorf("Expected unterminated error, got %v", err)
	}

	doc, err := NewParser("title\nPin,\"PTA3\"x,FTM0_CH1\nPin,PTA4,FTM0_CH2\n").Parse()
	if err == nil || !strings.HasPrefix(err.Error(), "2:") {
		t.Errorf("Expected error on line 2, got %v", err)
	}
	var perr *Error
	if !errors.As(err, &perr) || perr.Position.Line != 2 {
		t.Errorf("Expected *Error on line 2, got %#v", err)
	}
	pins := doc.PinRows()
	if len(pins) != 1 || pins[0].Name() != "PTA4" {
		t.Errorf("Expected parsing to continue after bad row, got %d rows", len(pins))
	}
}

func TestComparePortNames(t *testing.T) {
	names := []string{"PTB1", "PTA3", "PTA10", "PTA", "ADC0_SE3", "PTA3_X"}
	slices.SortStableFunc(names, ComparePortNames)
	want := []string{"ADC0_SE3", "PTA10", "PTA3", "PTA", "PTA3_X", "PTB1"}
	if !slices.Equal(names, want) {
		t.Errorf("Expected %v, got %v", want, names)
	}
	if ComparePortNames("PTA3", "PTA3") != 0 {
		t.Errorf("Equal names should compare equal")
	}
}

func TestSortedRowsDeterministic(t *testing.T) {
	a := "title\nPin,PTB2,x\nPin,PTA3,y\nAlias,D1,PTA3\nPin,PTA3,a\n"
	b := "title\nPin,PTA3,a\nAlias,D1,PTA3\nPin,PTA3,y\nPin,PTB2,x\n"
	da, _ := NewParser(a).Parse()
	db, _ := NewParser(b).Parse()
	ra, rb := SortedRows(da.Rows), SortedRows(db.Rows)
	for i := range ra {
		if ra[i].Raw().Text() != rb[i].Raw().Text() {
			t.Errorf("Row %d differs: %q vs %q", i, ra[i].Raw().Text(), rb[i].Raw().Text())
		}
	}
	if ra[0].Raw().Text() != "Alias,D1,PTA3" {
		t.Errorf("Unexpected first row %q", ra[0].Raw().Text())
	}
}
