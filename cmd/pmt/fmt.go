package main

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/usbdm-community/pinmux-tools/internal/formatter"
	"github.com/usbdm-community/pinmux-tools/internal/logger"
	"github.com/usbdm-community/pinmux-tools/internal/parser"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Rewrite pin tables in canonical order",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := inputFiles(args)
		if err != nil {
			return err
		}
		failed := false
		for _, file := range files {
			if err := formatFile(file); err != nil {
				logger.Printf("Error formatting %s: %v", file, err)
				failed = true
			}
		}
		if failed {
			return errReported
		}
		return nil
	},
}

func formatFile(file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	doc, err := parser.NewParser(string(content)).Parse()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := formatter.Format(doc, &buf); err != nil {
		return err
	}
	if bytes.Equal(buf.Bytes(), content) {
		return nil
	}
	if err := os.WriteFile(file, buf.Bytes(), 0644); err != nil {
		return err
	}
	logger.Printf("Formatted %s", file)
	return nil
}
