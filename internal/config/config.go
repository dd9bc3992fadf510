package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/xyproto/env/v2"

	"github.com/usbdm-community/pinmux-tools/internal/builder"
	"github.com/usbdm-community/pinmux-tools/internal/emitter"
	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/schema"
)

// FileName is the project configuration file looked up next to the tables.
const FileName = "pinmux.toml"

type Config struct {
	Device DeviceConfig `toml:"device"`
	Output OutputConfig `toml:"output"`
	Clock  ClockConfig  `toml:"clock"`
	Emit   EmitConfig   `toml:"emit"`
	Lint   LintConfig   `toml:"lint"`
}

type DeviceConfig struct {
	// Name overrides the device name taken from the table file name.
	Name string `toml:"name,omitempty"`
	// Version is written into generated file preambles.
	Version string `toml:"version"`
}

type OutputConfig struct {
	// HeaderDir and SourceDir are relative to the table's directory unless
	// absolute.
	HeaderDir      string `toml:"header_dir"`
	SourceDir      string `toml:"source_dir"`
	PinMappingBase string `toml:"pin_mapping_base"`
	GpioBase       string `toml:"gpio_base"`
}

type ClockConfig struct {
	// DefaultRegister gates peripherals that have no ClockInfo row.
	DefaultRegister string `toml:"default_register"`
}

type EmitConfig struct {
	// HiddenFamilies get no menu unless they can use more than one pin.
	HiddenFamilies []string `toml:"hidden_families"`
	TimerControls  bool     `toml:"timer_controls"`
}

type LintConfig struct {
	// Allow lists diagnostic codes that are not reported.
	Allow []string `toml:"allow"`
}

func Default() *Config {
	return &Config{
		Device: DeviceConfig{Version: "1.0.0"},
		Output: OutputConfig{
			HeaderDir:      "Project_Headers",
			SourceDir:      "Sources",
			PinMappingBase: "PinMapping",
			GpioBase:       "GPIO",
		},
		Clock: ClockConfig{DefaultRegister: index.DefaultClockRegister},
		Emit:  EmitConfig{HiddenFamilies: []string{"PT"}},
		Lint:  LintConfig{Allow: []string{}},
	}
}

// Merge decodes the file at path over c. Keys absent from the file keep
// their current values; unknown keys are an error.
func (c *Config) Merge(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.MergeBytes(content, path)
}

func (c *Config) MergeBytes(content []byte, name string) error {
	d := toml.NewDecoder(bytes.NewReader(content))
	d.DisallowUnknownFields()
	if err := d.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%s: unknown configuration keys:\n%s", name, strict.String())
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return fmt.Errorf("%s:%d:%d: %s", name, row, col, de.Error())
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return c.Validate()
}

// Validate checks values that TOML typing cannot.
func (c *Config) Validate() error {
	for _, f := range c.Emit.HiddenFamilies {
		if _, ok := index.ParseFamily(f); !ok {
			return fmt.Errorf("emit.hidden_families: unknown family %q", f)
		}
	}
	if c.Output.PinMappingBase == "" || c.Output.GpioBase == "" {
		return errors.New("output: file base names must not be empty")
	}
	return nil
}

// HiddenFamilies returns the parsed emit.hidden_families.
func (c *Config) HiddenFamilies() []index.Family {
	out := make([]index.Family, 0, len(c.Emit.HiddenFamilies))
	for _, f := range c.Emit.HiddenFamilies {
		if fam, ok := index.ParseFamily(f); ok {
			out = append(out, fam)
		}
	}
	return out
}

// UserPath returns the per-user configuration file. The environment is
// reloaded first since env caches it on first use.
func UserPath() string {
	env.Load()
	if home := env.Str("PMT_HOME"); home != "" {
		return filepath.Join(home, FileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pmt", FileName)
}

// Load layers the user file, the project file in projectDir and the
// explicit file over the defaults. Missing user and project files are
// skipped; a missing explicit file is an error.
func Load(projectDir, explicit string) (*Config, error) {
	c := Default()
	var layers []string
	if p := UserPath(); p != "" {
		layers = append(layers, p)
	}
	if projectDir != "" {
		layers = append(layers, filepath.Join(projectDir, FileName))
	}
	for _, p := range layers {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := c.Merge(p); err != nil {
			return nil, err
		}
	}
	if explicit != "" {
		if err := c.Merge(explicit); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Marshal renders c as TOML, as written by `pmt init`.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// OutputDirs resolves the header and source directories for a table.
func (c *Config) OutputDirs(tableDir string) (headers, sources string) {
	resolve := func(d string) string {
		if filepath.IsAbs(d) {
			return d
		}
		return filepath.Join(tableDir, d)
	}
	return resolve(c.Output.HeaderDir), resolve(c.Output.SourceDir)
}

func (c *Config) BuilderOptions(s *schema.Schema) builder.Options {
	return builder.Options{
		Device:               c.Device.Name,
		DefaultClockRegister: c.Clock.DefaultRegister,
		Allow:                c.Lint.Allow,
		Schema:               s,
	}
}

func (c *Config) EmitterOptions() emitter.Options {
	return emitter.Options{
		Version:        c.Device.Version,
		PinMappingBase: c.Output.PinMappingBase,
		GpioBase:       c.Output.GpioBase,
		HiddenFamilies: c.HiddenFamilies(),
		TimerControls:  c.Emit.TimerControls,
	}
}
