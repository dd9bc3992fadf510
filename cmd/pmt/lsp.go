package main

import (
	"github.com/spf13/cobra"

	"github.com/usbdm-community/pinmux-tools/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server on stdin and stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, sch, err := loadSettings(".")
		if err != nil {
			return err
		}
		return lsp.RunServer(cfg.BuilderOptions(sch))
	},
}
