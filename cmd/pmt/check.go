package main

import (
	"github.com/spf13/cobra"

	"github.com/usbdm-community/pinmux-tools/internal/builder"
	"github.com/usbdm-community/pinmux-tools/internal/report"
)

var (
	checkOpts = struct {
		format string
	}{}

	checkCmd = &cobra.Command{
		Use:   "check [files...]",
		Short: "Check pin tables without writing artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(checkOpts.format)
			if err != nil {
				return err
			}
			files, err := inputFiles(args)
			if err != nil {
				return err
			}
			cfg, sch, err := loadSettings(projectDir(files))
			if err != nil {
				return err
			}
			results := builder.BuildFiles(cmd.Context(), files, cfg.BuilderOptions(sch))
			r := report.New(results)

			w := cmd.OutOrStdout()
			if format == report.FormatText {
				w = cmd.ErrOrStderr()
			}
			if err := r.Write(w, format); err != nil {
				return err
			}
			if r.HasErrors() {
				return errReported
			}
			return nil
		},
	}
)

func init() {
	checkCmd.Flags().StringVar(&checkOpts.format, "format", "text", "report format: text, json or yaml")
}
