package index

// Model is the resolved state of one pin table.
type Model struct {
	Device    string
	Signals   *SignalRegistry
	Pins      *PinRegistry
	Mux       *MuxTable
	Aliases   *AliasResolver
	Clocks    *ClockResolver
	Instances *PeripheralInstanceSet
	sealed    bool
}

func NewModel(device, defaultClockRegister string) *Model {
	mux := NewMuxTable()
	instances := NewPeripheralInstanceSet()
	return &Model{
		Device:    device,
		Signals:   NewSignalRegistry(),
		Pins:      NewPinRegistry(mux, instances),
		Mux:       mux,
		Aliases:   NewAliasResolver(),
		Clocks:    NewClockResolver(defaultClockRegister),
		Instances: instances,
	}
}

// Seal marks the model as finalized. Emitters refuse unsealed models.
func (m *Model) Seal() { m.sealed = true }

func (m *Model) Sealed() bool { return m.sealed }

// PeripheralMask returns the clock mask macro of a peripheral instance.
func (m *Model) PeripheralMask(peripheral string) string {
	return m.Clocks.Resolve(peripheral).Mask
}
