package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/logger"
	"github.com/usbdm-community/pinmux-tools/internal/parser"
	"github.com/usbdm-community/pinmux-tools/internal/validator"
)

// Result is the outcome of processing one pin table.
type Result struct {
	File        string
	Device      string
	Model       *index.Model
	Diagnostics []validator.Diagnostic
	Err         error
}

// BuildFile reads, parses and processes a single pin table.
func BuildFile(file string, opts Options) Result {
	b := NewBuilder(file, opts)
	res := Result{File: file, Device: b.Model().Device}

	content, err := os.ReadFile(file)
	if err != nil {
		res.Err = err
		return res
	}
	doc, err := parser.NewParser(string(content)).Parse()
	if err != nil {
		res.Err = fmt.Errorf("error parsing %s: %w", file, err)
		return res
	}
	res.Model, res.Err = b.Build(doc)
	res.Diagnostics = b.Diagnostics()
	return res
}

// BuildFiles processes every file independently. Results keep the order
// of files. When more than one file is given each device is named after
// its file.
func BuildFiles(ctx context.Context, files []string, opts Options) []Result {
	results := make([]Result, len(files))
	var wg sync.WaitGroup
	sem := make(chan struct{}, 8) // Limit concurrency

	for i, f := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[i] = Result{File: path, Device: DeviceName(path), Err: err}
				return
			}
			o := opts
			if len(files) > 1 {
				o.Device = ""
			}
			logger.Debugf("processing: %s [%s]\n", filepath.Base(path), path)
			results[i] = BuildFile(path, o)
		}(i, f)
	}
	wg.Wait()
	return results
}

// ScanDirectory returns the .csv files directly under dir, sorted.
func ScanDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
