package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/usbdm-community/pinmux-tools/internal/builder"
	"github.com/usbdm-community/pinmux-tools/internal/config"
	"github.com/usbdm-community/pinmux-tools/internal/emitter"
	"github.com/usbdm-community/pinmux-tools/internal/logger"
)

var (
	generateOpts = struct {
		output string
		stdout bool
	}{}

	generateCmd = &cobra.Command{
		Use:   "generate [files...]",
		Short: "Generate pin mapping headers and GPIO sources",
		Long:  "Generate PinMapping-<device>.h, GPIO-<device>.h and GPIO-<device>.cpp for each pin table. Without arguments every *.csv in the current directory is a device.",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := inputFiles(args)
			if err != nil {
				return err
			}
			cfg, sch, err := loadSettings(projectDir(files))
			if err != nil {
				return err
			}
			var out io.Writer
			if generateOpts.stdout {
				out = cmd.OutOrStdout()
			}
			return generate(cmd.Context(), files, cfg, cfg.BuilderOptions(sch), out, generateOpts.output)
		},
	}
)

func init() {
	generateCmd.Flags().StringVarP(&generateOpts.output, "output", "o", "", "write every artifact into this directory")
	generateCmd.Flags().BoolVar(&generateOpts.stdout, "stdout", false, "write the artifacts to standard output")
}

// generate writes the artifacts of every device that builds. Devices that
// fail are reported and skipped; the error counts them.
func generate(ctx context.Context, files []string, cfg *config.Config, opts builder.Options, stdout io.Writer, outDir string) error {
	results := buildAll(ctx, files, opts)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			logger.Printf("%s: %v", res.File, res.Err)
			failed++
			continue
		}
		arts, err := emitter.New(res.Model, cfg.EmitterOptions()).Emit()
		if err != nil {
			logger.Printf("%s: %v", res.File, err)
			failed++
			continue
		}
		if stdout != nil {
			for _, a := range arts {
				if _, err := stdout.Write(a.Content); err != nil {
					return err
				}
			}
			continue
		}
		headers, sources := cfg.OutputDirs(filepath.Dir(res.File))
		if outDir != "" {
			headers, sources = outDir, outDir
		}
		for _, a := range arts {
			dir := sources
			if a.Kind.Header() {
				dir = headers
			}
			if err := writeArtifact(filepath.Join(dir, a.Name), a.Content); err != nil {
				logger.Printf("%s: %v", res.File, err)
				failed++
				break
			}
			logger.Debugf("wrote %s", filepath.Join(dir, a.Name))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d devices failed", failed, len(results))
	}
	logger.Printf("Generated %d devices.", len(results))
	return nil
}

func writeArtifact(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
