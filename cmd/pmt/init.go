package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/usbdm-community/pinmux-tools/internal/config"
	"github.com/usbdm-community/pinmux-tools/internal/logger"
)

var (
	initOpts = struct {
		dir string
	}{}

	initCmd = &cobra.Command{
		Use:   "init <device>",
		Short: "Create a pinmux.toml and a sample pin table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initProject(initOpts.dir, args[0])
		},
	}
)

func init() {
	initCmd.Flags().StringVarP(&initOpts.dir, "dir", "C", ".", "project directory")
}

func sampleTable(device string) string {
	return device + ` pin multiplexing,ALT0,ALT1,ALT2,ALT3
Pin,PTA3,,PTA3,,FTM0_CH0
Pin,PTA4,,PTA4,,FTM0_CH1
Pin,PTB0,ADC0_SE8,PTB0,I2C0_SCL,FTM1_CH0
Pin,PTB1,ADC0_SE9,PTB1,I2C0_SDA,FTM1_CH1
Pin,PTC5,,PTC5,SPI0_SCK
Pin,PTD1,ADC0_SE5b,PTD1,SPI0_SCK,FTM3_CH1
Alias,D13,PTD1
Alias,A0,PTB0
Default,SPI0_SCK,PTD1
ClockInfo,FTM0,SIM->SCGC6
ClockInfo,FTM1,SIM->SCGC6
ClockInfo,FTM3,SIM->SCGC3
ClockInfo,ADC0,SIM->SCGC6
ClockInfo,SPI0,SIM->SCGC6
ClockInfo,I2C0,SIM->SCGC4
`
}

// initProject writes the project files, refusing to overwrite any.
func initProject(dir, device string) error {
	cfg := config.Default()
	toml, err := cfg.Marshal()
	if err != nil {
		return err
	}
	files := map[string]string{
		config.FileName: string(toml),
		device + ".csv": sampleTable(device),
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for name := range files {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return fmt.Errorf("%s already exists", filepath.Join(dir, name))
		}
	}
	for _, name := range []string{config.FileName, device + ".csv"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(files[name]), 0644); err != nil {
			return fmt.Errorf("creating file %s: %w", path, err)
		}
		logger.Printf("Created %s", path)
	}
	logger.Printf("Device '%s' initialized. Run pmt generate in %s.", device, dir)
	return nil
}
