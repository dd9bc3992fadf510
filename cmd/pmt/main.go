package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/usbdm-community/pinmux-tools/internal/builder"
	"github.com/usbdm-community/pinmux-tools/internal/config"
	"github.com/usbdm-community/pinmux-tools/internal/logger"
	"github.com/usbdm-community/pinmux-tools/internal/schema"
)

// errReported is returned once the failure has already been logged.
var errReported = errors.New("failed")

var (
	rootOpts = struct {
		config string
		debug  bool
	}{}

	rootCmd = &cobra.Command{
		Use:   "pmt",
		Short: "Pin multiplexing tools",
		Long:  "pmt turns a device pin table into pin mapping headers and GPIO sources, and checks and formats pin tables.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if rootOpts.debug {
				logger.SetDebug(true)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.config, "config", "c", "", "configuration file layered over the project pinmux.toml")
	rootCmd.PersistentFlags().BoolVar(&rootOpts.debug, "debug", false, "log debug output (same as PMT_DEBUG=1)")
	rootCmd.AddCommand(generateCmd, checkCmd, fmtCmd, exportCmd, initCmd, lspCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			logger.Printf("Error: %v", err)
		}
		os.Exit(1)
	}
}

// inputFiles returns args, or every table in the working directory.
func inputFiles(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	files, err := builder.ScanDirectory(".")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no input files and no *.csv in the current directory")
	}
	return files, nil
}

// projectDir is where pinmux.toml and the schema override are looked up.
func projectDir(files []string) string {
	if len(files) == 0 {
		return "."
	}
	return filepath.Dir(files[0])
}

func loadSettings(dir string) (*config.Config, *schema.Schema, error) {
	cfg, err := config.Load(dir, rootOpts.config)
	if err != nil {
		return nil, nil, err
	}
	sch, errs := schema.LoadFullSchema(dir)
	for _, err := range errs {
		logger.Printf("Warning: %v", err)
	}
	return cfg, sch, nil
}

// buildAll runs the pipeline over files and logs every diagnostic.
func buildAll(ctx context.Context, files []string, opts builder.Options) []builder.Result {
	results := builder.BuildFiles(ctx, files, opts)
	for _, res := range results {
		for _, d := range res.Diagnostics {
			logger.Println(d.String())
		}
	}
	return results
}
