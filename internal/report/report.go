// Package report renders the outcome of a run for people and for tools.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/usbdm-community/pinmux-tools/internal/builder"
	"github.com/usbdm-community/pinmux-tools/internal/validator"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatYAML:
		return Format(s), nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
}

type Report struct {
	Devices  []DeviceReport `json:"devices" yaml:"devices"`
	Errors   int            `json:"errors" yaml:"errors"`
	Warnings int            `json:"warnings" yaml:"warnings"`
	Failed   int            `json:"failed" yaml:"failed"`
}

type DeviceReport struct {
	File        string       `json:"file" yaml:"file"`
	Device      string       `json:"device" yaml:"device"`
	OK          bool         `json:"ok" yaml:"ok"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
	Violation   *Violation   `json:"violation,omitempty" yaml:"violation,omitempty"`
	Stats       *Stats       `json:"stats,omitempty" yaml:"stats,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

type Violation struct {
	Kind      string   `json:"kind" yaml:"kind"`
	Signal    string   `json:"signal,omitempty" yaml:"signal,omitempty"`
	Pin       string   `json:"pin,omitempty" yaml:"pin,omitempty"`
	Locations []string `json:"locations" yaml:"locations"`
}

type Stats struct {
	Pins       int `json:"pins" yaml:"pins"`
	Signals    int `json:"signals" yaml:"signals"`
	Selectable int `json:"selectable" yaml:"selectable"`
	Aliases    int `json:"aliases" yaml:"aliases"`
}

type Diagnostic struct {
	Level   string `json:"level" yaml:"level"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
}

// New summarises the results of a batch run.
func New(results []builder.Result) *Report {
	r := &Report{Devices: make([]DeviceReport, 0, len(results))}
	for _, res := range results {
		d := DeviceReport{
			File:        res.File,
			Device:      res.Device,
			OK:          res.Err == nil,
			Diagnostics: make([]Diagnostic, 0, len(res.Diagnostics)),
		}
		if res.Err != nil {
			d.Error = res.Err.Error()
			r.Failed++
			var se *validator.StructuralError
			if errors.As(res.Err, &se) {
				d.Violation = violation(se)
			}
		}
		if res.Model != nil {
			d.Stats = stats(res)
		}
		for _, diag := range res.Diagnostics {
			if diag.Level == validator.LevelError {
				r.Errors++
			} else {
				r.Warnings++
			}
			d.Diagnostics = append(d.Diagnostics, Diagnostic{
				Level:   diag.Level.String(),
				Code:    diag.Code,
				Message: diag.Message,
				Line:    diag.Position.Line,
				Column:  diag.Position.Column,
			})
		}
		r.Devices = append(r.Devices, d)
	}
	return r
}

func violation(se *validator.StructuralError) *Violation {
	v := &Violation{
		Kind:      se.Kind.String(),
		Signal:    se.Signal,
		Pin:       se.Pin,
		Locations: make([]string, 0, len(se.Locations)),
	}
	for _, loc := range se.Locations {
		v.Locations = append(v.Locations, fmt.Sprintf("%s@%d", loc.Pin, loc.Mux))
	}
	return v
}

func stats(res builder.Result) *Stats {
	m := res.Model
	s := &Stats{
		Pins:    m.Pins.Len(),
		Signals: m.Signals.Len(),
		Aliases: m.Aliases.Len(),
	}
	for _, e := range m.Mux.Entries() {
		if e.Selectable() {
			s.Selectable++
		}
	}
	return s
}

// HasErrors reports whether any device failed or any error-level
// diagnostic was raised.
func (r *Report) HasErrors() bool {
	return r.Failed > 0 || r.Errors > 0
}

func (r *Report) Write(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return r.writeText(w)
	}
	return fmt.Errorf("unknown report format %q", f)
}

func (r *Report) writeText(w io.Writer) error {
	for _, d := range r.Devices {
		for _, diag := range d.Diagnostics {
			if _, err := fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", d.File, diag.Line, diag.Column, diag.Level, diag.Message); err != nil {
				return err
			}
		}
		if d.Error != "" {
			if _, err := fmt.Fprintf(w, "%s: ERROR: %s\n", d.File, d.Error); err != nil {
				return err
			}
		}
	}
	issues := r.Errors + r.Warnings
	var err error
	switch {
	case issues == 0 && r.Failed == 0:
		_, err = fmt.Fprintln(w, "No issues found.")
	case r.Failed == 0:
		_, err = fmt.Fprintf(w, "\nFound %d issues.\n", issues)
	default:
		_, err = fmt.Fprintf(w, "\nFound %d issues, %d of %d devices failed.\n", issues, r.Failed, len(r.Devices))
	}
	return err
}
