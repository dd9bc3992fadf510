package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/usbdm-community/pinmux-tools/internal/parser"
	"github.com/usbdm-community/pinmux-tools/internal/schema"
)

type DiagnosticLevel int

const (
	LevelError DiagnosticLevel = iota
	LevelWarning
)

func (l DiagnosticLevel) String() string {
	if l == LevelWarning {
		return "WARNING"
	}
	return "ERROR"
}

// Diagnostic codes. Any of them can be listed in lint.allow.
const (
	CodeMalformedRow       = "malformed_row"
	CodeUnknownRow         = "unknown_row"
	CodeDiscardedPin       = "discarded_pin"
	CodeDuplicatePin       = "duplicate_pin"
	CodeRepeatedSignal     = "repeated_signal"
	CodeUnknownSignal      = "unknown_signal"
	CodeInvalidDefault     = "invalid_default"
	CodeAliasConflict      = "alias_conflict"
	CodeUnknownAliasTarget = "unknown_alias_target"
	CodeUnknownPeripheral  = "unknown_peripheral"
)

type Diagnostic struct {
	Level    DiagnosticLevel
	Code     string
	Message  string
	Position parser.Position
	File     string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Position.Line, d.Position.Column, d.Level, d.Message)
}

type Validator struct {
	Diagnostics []Diagnostic
	Schema      *schema.Schema
	File        string
	allow       []string
}

// NewValidator collects diagnostics for file. Codes in allow are dropped.
func NewValidator(file string, s *schema.Schema, allow []string) *Validator {
	if s == nil {
		s = schema.DefaultSchema()
	}
	return &Validator{
		Schema: s,
		File:   file,
		allow:  allow,
	}
}

func (v *Validator) isSuppressed(code string) bool {
	return slices.Contains(v.allow, code) || slices.Contains(v.allow, "all")
}

func (v *Validator) Report(level DiagnosticLevel, code string, pos parser.Position, format string, args ...interface{}) {
	if v.isSuppressed(code) {
		return
	}
	v.Diagnostics = append(v.Diagnostics, Diagnostic{
		Level:    level,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
		File:     v.File,
	})
}

func (v *Validator) Errorf(code string, pos parser.Position, format string, args ...interface{}) {
	v.Report(LevelError, code, pos, format, args...)
}

func (v *Validator) Warnf(code string, pos parser.Position, format string, args ...interface{}) {
	v.Report(LevelWarning, code, pos, format, args...)
}

func (v *Validator) HasErrors() bool {
	for _, d := range v.Diagnostics {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics at level.
func (v *Validator) Count(level DiagnosticLevel) int {
	n := 0
	for _, d := range v.Diagnostics {
		if d.Level == level {
			n++
		}
	}
	return n
}

// Summary formats the diagnostics the way the CLI prints them.
func (v *Validator) Summary() string {
	var sb strings.Builder
	for _, d := range v.Diagnostics {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
