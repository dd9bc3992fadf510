package schema

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed pinmux.cue
var defaultSchemaCUE []byte

// ProjectSchemaFile is looked up in the project root.
const ProjectSchemaFile = ".pinmux_schema.cue"

type Schema struct {
	Context *cue.Context
	Value   cue.Value
}

// DefaultSchema returns the built-in embedded schema
func DefaultSchema() *Schema {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(defaultSchemaCUE, cue.Filename("pinmux.cue"))
	if v.Err() != nil {
		panic(fmt.Sprintf("failed to compile default embedded schema: %v", v.Err()))
	}
	return &Schema{Context: ctx, Value: v}
}

func LoadSchema(ctx *cue.Context, path string) (cue.Value, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, err
	}
	v := ctx.CompileBytes(content, cue.Filename(path))
	if v.Err() != nil {
		return cue.Value{}, fmt.Errorf("failed to compile schema %s: %w", path, v.Err())
	}
	return v, nil
}

// Merge unifies other into s. Overrides can only narrow the built-in rules.
func (s *Schema) Merge(other cue.Value) error {
	merged := s.Value.Unify(other)
	if err := merged.Err(); err != nil {
		return err
	}
	s.Value = merged
	return nil
}

// Directive returns the constraint for rows tagged kind.
func (s *Schema) Directive(kind string) (cue.Value, bool) {
	if kind == "" {
		return cue.Value{}, false
	}
	v := s.Value.LookupPath(cue.ParsePath("#Directives." + kind))
	if !v.Exists() || v.Err() != nil {
		return cue.Value{}, false
	}
	return v, true
}

// LoadFullSchema layers the system, user and project schema files over the
// embedded one. Files that are missing are skipped; files that fail to
// compile or conflict are returned as errors alongside the usable schema.
func LoadFullSchema(projectRoot string) (*Schema, []error) {
	s := DefaultSchema()
	var errs []error

	// 1. System Paths
	paths := []string{
		"/usr/share/pmt/pinmux_schema.cue",
	}

	home, err := os.UserHomeDir()
	if err == nil {
		paths = append(paths, filepath.Join(home, ".local/share/pmt/pinmux_schema.cue"))
	}

	// 2. Project Path
	if projectRoot != "" {
		paths = append(paths, filepath.Join(projectRoot, ProjectSchemaFile))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v, err := LoadSchema(s.Context, path)
		if err == nil {
			err = s.Merge(v)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}

	return s, errs
}
