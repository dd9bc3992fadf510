package devicedb

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/usbdm-community/pinmux-tools/internal/builder"
	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/parser"
	"github.com/usbdm-community/pinmux-tools/internal/validator"
)

const table = `Pin table
Pin,PTA3,,PTA3,FTM0_CH6
Pin,PTB2,ADC0_SE12,PTB2,FTM0_CH6
Alias,D15,PTB2
Default,FTM0_6,PTB2
Default,FTM0_6,PTC9
ClockInfo,FTM0,SIM->SCGC6
`

func build(t *testing.T, device, input string) (*index.Model, []validator.Diagnostic) {
	t.Helper()
	doc, err := parser.NewParser(input).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := builder.NewBuilder(device+".csv", builder.Options{})
	m, err := b.Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m, b.Diagnostics()
}

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "devices.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreAndQuery(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	m, diags := build(t, "MK20D5", table)
	if err := db.Store(ctx, "MK20D5.csv", m, diags); err != nil {
		t.Fatalf("Store: %v", err)
	}

	devices, err := db.Devices(ctx)
	if err != nil || !slices.Equal(devices, []string{"MK20D5"}) {
		t.Fatalf("Devices = %v, %v", devices, err)
	}

	alts, def, err := db.Alternatives(ctx, "MK20D5", "FTM0_6")
	if err != nil {
		t.Fatalf("Alternatives: %v", err)
	}
	if !slices.Equal(alts, []string{index.Disabled, "PTA3", "PTB2"}) || def != 2 {
		t.Errorf("Unexpected alternatives %v default %d", alts, def)
	}

	for tbl, want := range map[string]int{
		"pins":        2,
		"mappings":    5,
		"aliases":     1,
		"clocks":      2,
		"diagnostics": 1,
	} {
		n, err := db.Count(ctx, "MK20D5", tbl)
		if err != nil {
			t.Fatalf("Count %s: %v", tbl, err)
		}
		if n != want {
			t.Errorf("%s: expected %d rows, got %d", tbl, want, n)
		}
	}

	pins, err := db.PinsWithSignal(ctx, "FTM0_6")
	if err != nil {
		t.Fatalf("PinsWithSignal: %v", err)
	}
	if !slices.Equal(pins["MK20D5"], []string{"PTA3", "PTB2"}) {
		t.Errorf("Unexpected pins %v", pins)
	}
}

func TestStoreReplaces(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	m, diags := build(t, "MK20D5", table)
	if err := db.Store(ctx, "MK20D5.csv", m, diags); err != nil {
		t.Fatalf("Store: %v", err)
	}
	smaller, _ := build(t, "MK20D5", "Pin table\nPin,PTA3,,PTA3\n")
	if err := db.Store(ctx, "MK20D5.csv", smaller, nil); err != nil {
		t.Fatalf("Store again: %v", err)
	}
	for tbl, want := range map[string]int{"pins": 1, "mappings": 1, "aliases": 0, "diagnostics": 0} {
		n, err := db.Count(ctx, "MK20D5", tbl)
		if err != nil {
			t.Fatalf("Count %s: %v", tbl, err)
		}
		if n != want {
			t.Errorf("%s after replace: expected %d rows, got %d", tbl, want, n)
		}
	}

	other, _ := build(t, "MKL25Z4", table)
	if err := db.Store(ctx, "MKL25Z4.csv", other, nil); err != nil {
		t.Fatalf("Store other: %v", err)
	}
	devices, _ := db.Devices(ctx)
	if !slices.Equal(devices, []string{"MK20D5", "MKL25Z4"}) {
		t.Errorf("Unexpected devices %v", devices)
	}
}

func TestUnknownDevice(t *testing.T) {
	db := openDB(t)
	if _, _, err := db.Alternatives(context.Background(), "nope", "FTM0_6"); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("Expected ErrUnknownDevice, got %v", err)
	}
	if _, err := db.Count(context.Background(), "nope", "devices"); err == nil {
		t.Errorf("Expected error for table outside the device tables")
	}
}

func TestStoreRefusesUnfinalized(t *testing.T) {
	db := openDB(t)
	m := index.NewModel("raw", index.DefaultClockRegister)
	if err := db.Store(context.Background(), "raw.csv", m, nil); err == nil {
		t.Errorf("Expected error storing an unsealed model")
	}
}
