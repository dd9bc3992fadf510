package index

import (
	"regexp"
)

// Family is a peripheral family recognised in pin table cells.
type Family int

const (
	FamilyPort Family = iota
	FamilyADC
	FamilyFTM
	FamilyTPM
	FamilyLPTMR
	FamilySDHC
	FamilySPI
	FamilyI2C
	FamilyOther
)

var familyNames = map[Family]string{
	FamilyPort:  "PT",
	FamilyADC:   "ADC",
	FamilyFTM:   "FTM",
	FamilyTPM:   "TPM",
	FamilyLPTMR: "LPTMR",
	FamilySDHC:  "SDHC",
	FamilySPI:   "SPI",
	FamilyI2C:   "I2C",
}

func (f Family) String() string {
	if n, ok := familyNames[f]; ok {
		return n
	}
	return "Other"
}

// ParseFamily accepts the base name of a family, e.g. "FTM" or "PT".
// "Port" is accepted as an alias of "PT".
func ParseFamily(name string) (Family, bool) {
	if name == "Port" {
		return FamilyPort, true
	}
	for f, n := range familyNames {
		if n == name {
			return f, true
		}
	}
	return FamilyOther, false
}

// Timer reports whether the family drives PWM outputs.
func (f Family) Timer() bool {
	return f == FamilyFTM || f == FamilyTPM
}

// Match is the tagged result of recognising a cell.
type Match interface {
	Family() Family
	// Instance is the peripheral number, e.g. "0" for FTM0. Ports use the
	// port letter.
	Instance() string
	// Channel is the signal within the instance.
	Channel() string
}

type PortMatch struct {
	Port string
	Num  string
}

func (m PortMatch) Family() Family   { return FamilyPort }
func (m PortMatch) Instance() string { return m.Port }
func (m PortMatch) Channel() string  { return m.Num }

type AdcMatch struct {
	Num string
	Ch  string
}

func (m AdcMatch) Family() Family   { return FamilyADC }
func (m AdcMatch) Instance() string { return m.Num }
func (m AdcMatch) Channel() string  { return m.Ch }

// TimerMatch covers FTM and TPM channels.
type TimerMatch struct {
	Kind Family
	Num  string
	Ch   string
}

func (m TimerMatch) Family() Family   { return m.Kind }
func (m TimerMatch) Instance() string { return m.Num }
func (m TimerMatch) Channel() string  { return m.Ch }

type LowPowerTimerMatch struct {
	Num string
	Alt string
}

func (m LowPowerTimerMatch) Family() Family   { return FamilyLPTMR }
func (m LowPowerTimerMatch) Instance() string { return m.Num }
func (m LowPowerTimerMatch) Channel() string  { return m.Alt }

// SerialMatch covers SDHC, SPI and I2C signals, which are named rather
// than numbered.
type SerialMatch struct {
	Kind   Family
	Num    string
	Signal string
}

func (m SerialMatch) Family() Family   { return m.Kind }
func (m SerialMatch) Instance() string { return m.Num }
func (m SerialMatch) Channel() string  { return m.Signal }

type matcher struct {
	family  Family
	pattern *regexp.Regexp
	build   func(m []string) Match
}

var matchers = []matcher{
	{FamilyPort, regexp.MustCompile(`^.*(PT)([A-Z])(\d*)(/.*|$)`), func(m []string) Match {
		return PortMatch{Port: m[2], Num: m[3]}
	}},
	{FamilyADC, regexp.MustCompile(`^.*(ADC)(\d*)_SE(\d*)(b.*|/.*|$)`), func(m []string) Match {
		return AdcMatch{Num: m[2], Ch: m[3]}
	}},
	{FamilyFTM, regexp.MustCompile(`^.*(FTM)(\d*)_CH(\d*)(/.*|$)`), func(m []string) Match {
		return TimerMatch{Kind: FamilyFTM, Num: m[2], Ch: m[3]}
	}},
	{FamilyTPM, regexp.MustCompile(`^.*(TPM)(\d*)_CH(\d*)(/.*|$)`), func(m []string) Match {
		return TimerMatch{Kind: FamilyTPM, Num: m[2], Ch: m[3]}
	}},
	{FamilyLPTMR, regexp.MustCompile(`^.*(LPTMR)(\d*)_ALT(\d*)(/.*|$)`), func(m []string) Match {
		return LowPowerTimerMatch{Num: m[2], Alt: m[3]}
	}},
	{FamilySDHC, regexp.MustCompile(`^.*(SDHC)(\d*)_(CLKIN|D\d|CMD|DCLK)(/.*|$)`), func(m []string) Match {
		return SerialMatch{Kind: FamilySDHC, Num: m[2], Signal: m[3]}
	}},
	{FamilySPI, regexp.MustCompile(`^.*(SPI)(\d*)_(SOUT|SIN|SCK|PCS\d|MOSI|MISO)(/.*|$)`), func(m []string) Match {
		return SerialMatch{Kind: FamilySPI, Num: m[2], Signal: m[3]}
	}},
	{FamilyI2C, regexp.MustCompile(`^.*(I2C)(\d*)_(SDA|SCL)(/.*|$)`), func(m []string) Match {
		return SerialMatch{Kind: FamilyI2C, Num: m[2], Signal: m[3]}
	}},
}

// Families returns the recognised families in claiming priority order.
func Families() []Family {
	out := make([]Family, len(matchers))
	for i, m := range matchers {
		out[i] = m.family
	}
	return out
}

// RecognizeFamily matches cell against a single family.
func RecognizeFamily(f Family, cell string) (Match, bool) {
	for _, m := range matchers {
		if m.family != f {
			continue
		}
		sub := m.pattern.FindStringSubmatch(cell)
		if sub == nil {
			return nil, false
		}
		return m.build(sub), true
	}
	return nil, false
}

// Recognize returns the first family, in priority order, matching cell.
func Recognize(cell string) (Match, bool) {
	for _, m := range matchers {
		if sub := m.pattern.FindStringSubmatch(cell); sub != nil {
			return m.build(sub), true
		}
	}
	return nil, false
}
