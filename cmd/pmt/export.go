package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usbdm-community/pinmux-tools/internal/devicedb"
	"github.com/usbdm-community/pinmux-tools/internal/logger"
)

var (
	exportOpts = struct {
		db string
	}{}

	exportCmd = &cobra.Command{
		Use:   "export --db <file> [files...]",
		Short: "Store resolved pin tables in a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportOpts.db == "" {
				return errors.New("export requires --db")
			}
			files, err := inputFiles(args)
			if err != nil {
				return err
			}
			cfg, sch, err := loadSettings(projectDir(files))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := devicedb.Open(ctx, exportOpts.db)
			if err != nil {
				return err
			}
			defer db.Close()

			results := buildAll(ctx, files, cfg.BuilderOptions(sch))
			failed := 0
			for _, res := range results {
				if res.Err == nil {
					res.Err = db.Store(ctx, res.File, res.Model, res.Diagnostics)
				}
				if res.Err != nil {
					logger.Printf("%s: %v", res.File, res.Err)
					failed++
					continue
				}
				logger.Printf("Exported %s to %s", res.Device, exportOpts.db)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d devices failed", failed, len(results))
			}
			return nil
		},
	}
)

func init() {
	exportCmd.Flags().StringVar(&exportOpts.db, "db", "", "SQLite database file")
}
