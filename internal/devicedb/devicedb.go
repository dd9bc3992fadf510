// Package devicedb stores resolved pin models in a SQLite database so
// several devices can be queried side by side.
package devicedb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/logger"
	"github.com/usbdm-community/pinmux-tools/internal/validator"
)

//go:embed schema.sql
var schemaSQL string

var ErrUnknownDevice = errors.New("unknown device")

type DB struct {
	db *sql.DB
	// now is replaced in tests.
	now func() time.Time
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema to %s: %w", path, err)
	}
	return &DB{db: db, now: time.Now}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Store writes a finalized model. Rows of an earlier export of the same
// device are replaced in the same transaction.
func (d *DB) Store(ctx context.Context, file string, m *index.Model, diags []validator.Diagnostic) (err error) {
	if !m.Sealed() {
		return fmt.Errorf("storing %s: model is not finalized", m.Device)
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM devices WHERE name = ?`, m.Device); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO devices (name, file, exported) VALUES (?, ?, ?)`,
		m.Device, file, d.now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	w := &writer{ctx: ctx, tx: tx, id: id}
	w.pins(m)
	w.signals(m)
	w.aliases(m)
	w.clocks(m)
	w.diagnostics(diags)
	if w.err != nil {
		return fmt.Errorf("storing %s: %w", m.Device, w.err)
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	logger.Debugf("stored %s: %d pins, %d signals", m.Device, m.Pins.Len(), m.Signals.Len())
	return nil
}

// writer keeps the first error so the insert loops stay flat.
type writer struct {
	ctx context.Context
	tx  *sql.Tx
	id  int64
	err error
}

func (w *writer) exec(query string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, w.err = w.tx.ExecContext(w.ctx, query, append([]interface{}{w.id}, args...)...)
}

func (w *writer) pins(m *index.Model) {
	for _, p := range m.Pins.Pins() {
		w.exec(`INSERT INTO pins (device_id, name, description, line) VALUES (?, ?, ?, ?)`,
			p.Name(), p.Description(), p.Position.Line)
		for seq, mp := range p.All() {
			w.exec(`INSERT INTO mappings (device_id, pin, signal, mux, seq) VALUES (?, ?, ?, ?, ?)`,
				p.Name(), mp.Signal.Key(), mp.Mux, seq)
		}
	}
}

func (w *writer) signals(m *index.Model) {
	for _, e := range m.Mux.Entries() {
		sig := e.Signal()
		w.exec(`INSERT INTO signals (device_id, key, family, peripheral, channel, default_index, explicit, fixed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sig.Key(), sig.Family().String(), sig.Peripheral(), sig.Channel(), e.DefaultIndex(), e.Explicit(), e.Fixed())
		for i, pin := range e.Alternatives() {
			w.exec(`INSERT INTO alternatives (device_id, signal, idx, pin) VALUES (?, ?, ?, ?)`, sig.Key(), i, pin)
		}
	}
}

func (w *writer) aliases(m *index.Model) {
	for _, a := range m.Aliases.Aliases() {
		pin, _ := m.Aliases.Resolve(a)
		w.exec(`INSERT INTO aliases (device_id, alias, pin) VALUES (?, ?, ?)`, a, pin)
	}
}

func (w *writer) clocks(m *index.Model) {
	for _, p := range m.Instances.Keys() {
		ci := m.Clocks.Resolve(p)
		w.exec(`INSERT INTO clocks (device_id, peripheral, register, mask, synthesized) VALUES (?, ?, ?, ?, ?)`,
			p, ci.Register, ci.Mask, ci.Synthesized)
	}
}

func (w *writer) diagnostics(diags []validator.Diagnostic) {
	for _, dg := range diags {
		w.exec(`INSERT INTO diagnostics (device_id, level, code, message, line, col) VALUES (?, ?, ?, ?, ?, ?)`,
			dg.Level.String(), dg.Code, dg.Message, dg.Position.Line, dg.Position.Column)
	}
}

// Devices returns the stored device names in order.
func (d *DB) Devices(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name FROM devices ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (d *DB) deviceID(ctx context.Context, device string) (int64, error) {
	var id int64
	err := d.db.QueryRowContext(ctx, `SELECT id FROM devices WHERE name = ?`, device).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownDevice, device)
	}
	return id, err
}

// Alternatives returns the pin alternatives of a signal, Disabled first,
// and the index of its default.
func (d *DB) Alternatives(ctx context.Context, device, signal string) ([]string, int, error) {
	id, err := d.deviceID(ctx, device)
	if err != nil {
		return nil, 0, err
	}
	var def int
	err = d.db.QueryRowContext(ctx, `SELECT default_index FROM signals WHERE device_id = ? AND key = ?`, id, signal).Scan(&def)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%s: unknown signal %s", device, signal)
	}
	if err != nil {
		return nil, 0, err
	}
	rows, err := d.db.QueryContext(ctx, `SELECT pin FROM alternatives WHERE device_id = ? AND signal = ? ORDER BY idx`, id, signal)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var pin string
		if err := rows.Scan(&pin); err != nil {
			return nil, 0, err
		}
		out = append(out, pin)
	}
	return out, def, rows.Err()
}

// PinsWithSignal lists, across devices, the pins that can carry signal.
func (d *DB) PinsWithSignal(ctx context.Context, signal string) (map[string][]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT devices.name, mappings.pin FROM mappings
		JOIN devices ON devices.id = mappings.device_id
		WHERE mappings.signal = ?
		ORDER BY devices.name, mappings.pin`, signal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]string)
	for rows.Next() {
		var dev, pin string
		if err := rows.Scan(&dev, &pin); err != nil {
			return nil, err
		}
		out[dev] = append(out[dev], pin)
	}
	return out, rows.Err()
}

// Count returns the number of rows a device has in table.
func (d *DB) Count(ctx context.Context, device, table string) (int, error) {
	switch table {
	case "pins", "signals", "mappings", "alternatives", "aliases", "clocks", "diagnostics":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	id, err := d.deviceID(ctx, device)
	if err != nil {
		return 0, err
	}
	var n int
	err = d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE device_id = ?`, id).Scan(&n)
	return n, err
}
