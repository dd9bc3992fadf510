package emitter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/usbdm-community/pinmux-tools/internal/builder"
	"github.com/usbdm-community/pinmux-tools/internal/index"
	"github.com/usbdm-community/pinmux-tools/internal/parser"
	"github.com/usbdm-community/pinmux-tools/internal/validator"
)

const sampleTable = `MK20D5 pin table,,,,
Pin,PTA3,,PTA3,FTM0_CH6
Pin,PTB2,ADC0_SE12,PTB2,FTM0_CH6
Pin,PTC5,,PTC5,SPI0_SCK
Alias,D15,PTB2
Default,FTM0_6,PTA3
ClockInfo,FTM0,SIM->SCGC6,SIM_SCGC6_FTM0_MASK
`

func build(t *testing.T, input string) *index.Model {
	t.Helper()
	doc, err := parser.NewParser(input).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	m, err := builder.NewBuilder("MK20D5.csv", builder.Options{}).Build(doc)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func emit(t *testing.T, m *index.Model, opts Options) map[Kind]string {
	t.Helper()
	arts, err := New(m, opts).Emit()
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	out := make(map[Kind]string)
	for _, a := range arts {
		out[a.Kind] = string(a.Content)
	}
	return out
}

func expectContains(t *testing.T, what, text string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(text, w) {
			t.Errorf("%s: missing %q", what, w)
		}
	}
}

func expectAbsent(t *testing.T, what, text string, unwanted ...string) {
	t.Helper()
	for _, w := range unwanted {
		if strings.Contains(text, w) {
			t.Errorf("%s: unexpected %q", what, w)
		}
	}
}

func define(name, value string) string {
	return fmt.Sprintf("#define %-20s %s\n", name, value)
}

func TestArtifactNames(t *testing.T) {
	m := build(t, sampleTable)
	e := New(m, Options{})
	arts, err := e.Emit()
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	want := []string{"PinMapping-MK20D5.h", "GPIO-MK20D5.h", "GPIO-MK20D5.cpp"}
	if len(arts) != len(want) {
		t.Fatalf("Expected %d artifacts, got %d", len(want), len(arts))
	}
	for i, a := range arts {
		if a.Name != want[i] {
			t.Errorf("Artifact %d: expected %s, got %s", i, want[i], a.Name)
		}
	}
	if !arts[0].Kind.Header() || arts[2].Kind.Header() {
		t.Errorf("Unexpected header classification")
	}
}

func TestPinMappingHeader(t *testing.T) {
	h := emit(t, build(t, sampleTable), Options{})[KindPinMappingHeader]

	expectContains(t, "preamble", h,
		" * @file      PinMapping-MK20D5.h\n",
		" * @version   1.0.0\n",
		"#ifndef PINMAPPING_MK20D5_H_\n#define PINMAPPING_MK20D5_H_\n",
		"#include \"derivative.h\"\n",
		wizardMarker,
		"// <h> Pin Peripheral mapping\n",
	)
	if !strings.HasSuffix(h, "// </h>\n\n\n#endif /* PINMAPPING_MK20D5_H_ */\n") {
		t.Errorf("Unexpected postamble: %q", h[len(h)-60:])
	}

	expectContains(t, "clocks", h,
		define("FTM0_CLOCK_REG", "SIM->SCGC6"),
		define("FTM0_CLOCK_MASK", "SIM_SCGC6_FTM0_MASK"),
		define("ADC0_CLOCK_MASK", "SIM_SCGC6_ADC0_MASK"),
		define("SPI0_CLOCK_MASK", "SIM_SCGC6_SPI0_MASK"),
	)

	expectContains(t, "FTM menu", h, "// FTM0_6 maps to [Disabled, PTA3, PTB2]\n"+
		"//   <o> FTM0_6 Pin Selection [PTA3, PTB2(D15)]\n"+
		"//   <i> Selects which pin is used for FTM0_6\n"+
		"//     <0=> Disabled\n"+
		"//     <1=> PTA3\n"+
		"//     <2=> PTB2 (Alias: D15)\n"+
		"//     <1=> Default\n"+
		define("FTM0_6_SEL", "1"))

	expectContains(t, "ADC menu", h,
		"//   <o> ADC0_12 Pin Selection [PTB2(D15)] <constant>\n",
		define("ADC0_12_SEL", "1"),
		define("SPI0_SCK_SEL", "0"),
	)
	expectAbsent(t, "port menu", h, "PTA_3 maps to", "PTA_3_SEL")

	expectContains(t, "pin defines", h,
		"// PTA3 = FTM0_6\n",
		"// PTB2 = ADC0_12,FTM0_6 (Alias: D15)\n",
		fmt.Sprintf("#define %-26s %-5s //!< %s\n", "PTA3_PORT", "A", "PTA3 Port name"),
		fmt.Sprintf("#define %-26s %-5s //!< %s\n", "PTA3_NUM", "3", "PTA3 Port number"),
		"#if FTM0_6_SEL == 1\n"+
			fmt.Sprintf("#define %-26s %-5s //!< %s\n", "PTA3_FTM_NUM", "0", "PTA3 FTM number")+
			fmt.Sprintf("#define %-26s %-5s //!< %s\n", "PTA3_FTM_CH", "6", "PTA3 FTM channel")+
			fmt.Sprintf("#define %-26s %-5s //!< %s\n", "PTA3_FTM_FN", "2", "PTA3 Pin multiplexor for FTM")+
			"#endif\n",
		"#if FTM0_6_SEL == 2\n",
		fmt.Sprintf("#define %-26s %-5s //!< %s\n", "PTB2_ADC_CH", "12", "PTB2 ADC channel"),
		fmt.Sprintf("#define %-26s %-5s //!< %s\n", "SPI0_SCK_FN", "2", "PTC5 Pin multiplexor for SPI"),
		fmt.Sprintf("#define %-26s %s //!< %s\n", "SPI0_SCK_GPIO", "digitalIO_PTC5", "PTC5 = SPI"),
	)
	expectAbsent(t, "constant guards", h, "#if ADC0_12_SEL", "#if SPI0_SCK_SEL")

	for i, l := range strings.Split(h, "\n") {
		if strings.TrimRight(l, " ") != l {
			t.Errorf("Line %d has trailing blanks: %q", i+1, l)
		}
	}
}

func TestGpioHeader(t *testing.T) {
	h := emit(t, build(t, sampleTable), Options{})[KindGpioHeader]
	expectContains(t, "gpio header", h,
		"#ifndef GPIO_MK20D5_H_\n",
		"#include \"PinMapping.h\"\n",
		"#include \"GPIO_defs.h\"\n",
		"* @addtogroup DigitalIO_Group Digital Input/Output\n",
		fmt.Sprintf("extern const DigitalIO %-24s //!< Digital I/O on %s\n", "digitalIO_PTA3;", "PTA3"),
		fmt.Sprintf("extern const AnalogueIO %-24s //!< %s on %s\n", "analogueIO_PTB2;", "ADC0_12", "PTB2"),
		"#if FTM0_6_SEL == 1\n"+fmt.Sprintf("extern const PwmIO %-24s //!< %s on %s\n", "pwmIO_PTA3;", "FTM0_6", "PTA3")+"#endif\n",
		fmt.Sprintf("#define %-20s %-20s //!< alias D15=>PTB2\n", "digitalIO_D15", "digitalIO_PTB2"),
		fmt.Sprintf("#define %-20s %-20s //!< alias D15=>PTB2\n", "analogueIO_D15", "analogueIO_PTB2"),
		fmt.Sprintf("#define %-20s %-20s //!< alias D15=>PTB2\n", "pwmIO_D15", "pwmIO_PTB2"),
		"/*\nADC0_12=PTB2=[Disabled, PTB2]\nFTM0_6=PTA3=[Disabled, PTA3, PTB2]\nSPI0_SCK=Disabled=[Disabled, PTC5]\n\n",
		"ADC0=SIM->SCGC6=SIM_SCGC6_ADC0_MASK=default\n",
		"FTM0=SIM->SCGC6=SIM_SCGC6_FTM0_MASK\n",
	)
	expectAbsent(t, "gpio header", h, "PTA_3=", "FTM0=SIM->SCGC6=SIM_SCGC6_FTM0_MASK=default")
}

func TestGpioSource(t *testing.T) {
	c := emit(t, build(t, sampleTable), Options{})[KindGpioSource]
	expectContains(t, "gpio source", c,
		"  * @file     GPIO-MK20D5.cpp\n",
		"#include \"GPIO.h\"\n",
		fmt.Sprintf("#define %-24s %s\n", "FTM_CLOCK_REG(number)", "CONCAT3_(FTM,number,_CLOCK_REG)"),
		"const DigitalIO digitalIO_PTA3 = {&PCR(PTA3_PORT,PTA3_NUM), GPIO(PTA3_PORT), PORT_CLOCK_MASK(PTA3_PORT), (1UL<<PTA3_NUM)};\n",
		"const AnalogueIO analogueIO_PTB2 = {&digitalIO_PTB2, ADC(PTB2_ADC_NUM), &ADC_CLOCK_REG(PTB2_ADC_NUM), ADC_CLOCK_MASK(PTB2_ADC_NUM), PTB2_ADC_CH};\n",
		"#if FTM0_6_SEL == 2\nconst PwmIO pwmIO_PTB2 = {&digitalIO_PTB2, (volatile FTM_Type*)FTM(PTB2_FTM_NUM), PTB2_FTM_CH, PORT_PCR_MUX(PTB2_FTM_FN), &FTM_CLOCK_REG(PTB2_FTM_NUM), FTM_CLOCK_MASK(PTB2_FTM_NUM)};\n#endif\n",
	)
}

func TestRepeatedFamilyMappings(t *testing.T) {
	m := build(t, "t\nPin,PTD1,,PTD1,FTM0_CH1,FTM1_CH1\nPin,PTE0,ADC1_SE4,,TPM0_CH2\n")
	arts := emit(t, m, Options{})
	expectContains(t, "pin mapping", arts[KindPinMappingHeader],
		fmt.Sprintf("#define %-26s %-5s //!< %s\n", "PTD1_FTM_NUM", "0", "PTD1 FTM number"),
		fmt.Sprintf("#define %-26s %-5s //!< %s\n", "PTD1_FTM_1_NUM", "1", "PTD1 FTM number"),
		fmt.Sprintf("#define %-26s %-5s //!< %s\n", "PTD1_FTM_1_FN", "3", "PTD1 Pin multiplexor for FTM"),
	)
	expectContains(t, "gpio source", arts[KindGpioSource],
		"const PwmIO pwmIO_PTD1_1 = {&digitalIO_PTD1, (volatile FTM_Type*)FTM(PTD1_FTM_1_NUM),",
		"const AnalogueIO analogueIO_PTE0 = {0, ADC(PTE0_ADC_NUM),",
		"const PwmIO pwmIO_PTE0 = {0, (volatile TPM_Type*)TPM(PTE0_TPM_NUM),",
	)
	expectAbsent(t, "gpio source", arts[KindGpioSource], "digitalIO_PTE0 =")
}

func TestTimerControls(t *testing.T) {
	h := emit(t, build(t, sampleTable), Options{TimerControls: true})[KindPinMappingHeader]
	expectContains(t, "timer controls", h,
		"// <h> FTM Clock settings\n",
		"//   <o> FTM_SC.CLKS Clock source\n",
		"//   <o1> FTM_SC.PS Clock prescaler\n",
		"//     <7=> Divide by 128\n",
		define("FTM_SC", "(FTM_SC_CLKS(1)|FTM_SC_PS(0))"),
	)
	expectAbsent(t, "timer controls", h, "TPM Clock settings")

	h = emit(t, build(t, sampleTable), Options{})[KindPinMappingHeader]
	expectAbsent(t, "no timer controls", h, "FTM Clock settings")
}

func TestHiddenFamilies(t *testing.T) {
	m := build(t, sampleTable)
	h := emit(t, m, Options{HiddenFamilies: []index.Family{index.FamilyPort, index.FamilySPI}})
	expectAbsent(t, "pin mapping", h[KindPinMappingHeader], "SPI0_SCK_SEL")
	expectAbsent(t, "trailer", h[KindGpioHeader], "SPI0_SCK=")

	h = emit(t, m, Options{HiddenFamilies: []index.Family{}})
	expectContains(t, "ports shown", h[KindPinMappingHeader], "PTA_3 maps to [Disabled, PTA3]")
}

func TestInvalidDefaultFlagged(t *testing.T) {
	m := build(t, "t\nPin,PTA3,,PTA3,FTM0_CH6\nPin,PTB2,,PTB2,FTM0_CH6\nDefault,FTM0_6,PTC9\n")
	h := emit(t, m, Options{})[KindGpioHeader]
	expectContains(t, "trailer", h, "FTM0_6=Disabled=[Disabled, PTA3, PTB2]=invalid-default(PTC9)\n")
}

func TestInvalidDefaultFlaggedWhenHidden(t *testing.T) {
	m := build(t, "t\nPin,PTA3,,PTA3\nPin,PTB2,,PTB2\nDefault,PTA_3,PTC9\n")
	h := emit(t, m, Options{})[KindGpioHeader]
	expectContains(t, "trailer", h, "PTA_3=Disabled=[Disabled, PTA3]=invalid-default(PTC9)\n")
	expectAbsent(t, "trailer", h, "PTB_2=")
}

func TestConstantMenus(t *testing.T) {
	m := build(t, "t\nPin,PTC5,,PTC5,SPI0_SCK\nPin,PTD1,,PTD1,FTM1_CH0\nDefault,FTM1_0,PTD1\n")
	h := emit(t, m, Options{})[KindPinMappingHeader]
	expectContains(t, "constant menus", h,
		"//   <o> SPI0_SCK Pin Selection [PTC5] <constant>\n",
		"//   <o> FTM1_0 Pin Selection [PTD1] <constant>\n",
		define("FTM1_0_SEL", "1"),
		define("SPI0_SCK_SEL", "0"),
	)
}

func TestDeterministic(t *testing.T) {
	shuffled := `MK20D5 pin table
ClockInfo,FTM0,SIM->SCGC6,SIM_SCGC6_FTM0_MASK
Pin,PTC5,,PTC5,SPI0_SCK
Default,FTM0_6,PTA3
Alias,D15,PTB2
Pin,PTB2,ADC0_SE12,PTB2,FTM0_CH6
Pin,PTA3,,PTA3,FTM0_CH6
`
	a := emit(t, build(t, sampleTable), Options{})
	b := emit(t, build(t, shuffled), Options{})
	for k, text := range a {
		if text != b[k] {
			t.Errorf("%s differs between input orders", k)
		}
	}
	again := emit(t, build(t, sampleTable), Options{})
	for k, text := range a {
		if text != again[k] {
			t.Errorf("%s differs between runs", k)
		}
	}
}

func TestWriters(t *testing.T) {
	m := build(t, sampleTable)
	e := New(m, Options{})
	arts, _ := e.Emit()
	writers := []func(*bytes.Buffer) error{
		func(b *bytes.Buffer) error { return e.WritePinMappingHeader(b) },
		func(b *bytes.Buffer) error { return e.WriteGpioHeader(b) },
		func(b *bytes.Buffer) error { return e.WriteGpioSource(b) },
	}
	for i, wr := range writers {
		var buf bytes.Buffer
		if err := wr(&buf); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		if !bytes.Equal(buf.Bytes(), arts[i].Content) {
			t.Errorf("%s: writer output differs from Emit", arts[i].Name)
		}
	}
}

func TestRefusesUnfinalized(t *testing.T) {
	m := index.NewModel("MK20D5", "")
	if _, err := New(m, Options{}).Emit(); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("Expected ErrNotFinalized, got %v", err)
	}
	var buf bytes.Buffer
	if err := New(m, Options{}).WriteGpioHeader(&buf); !errors.Is(err, ErrNotFinalized) || buf.Len() != 0 {
		t.Errorf("Expected nothing written, got %v", err)
	}
}

func TestRefusesStructuralViolation(t *testing.T) {
	m := index.NewModel("MK20D5", "")
	pin, _ := m.Pins.GetOrCreate("PTA3")
	m.Pins.AddMapping(pin, m.Signals.Intern("PT", "A", "3"), 3)
	m.Seal()
	_, err := New(m, Options{}).Emit()
	var se *validator.StructuralError
	if !errors.As(err, &se) || se.Kind != validator.ViolationPortMux {
		t.Errorf("Expected port mux violation, got %v", err)
	}
}
