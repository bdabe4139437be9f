package vm

// Coprocessor is the callback set a Core dispatches CDP/LDC/STC/MCR/MRC/
// MCRR/MRRC to, one per slot in a 16-slot coprocessor table. Any hook left
// nil causes that operation to fault with FaultUndefined, the same as
// addressing an unpopulated slot.
type Coprocessor struct {
	Name string

	CDP  func(core *Core, opc1 uint32, crd, crn, crm uint32, opc2 uint32) error
	MCR  func(core *Core, opc1 uint32, rt uint32, crn, crm uint32, opc2 uint32) error
	MRC  func(core *Core, opc1 uint32, rt uint32, crn, crm uint32, opc2 uint32) error
	MCRR func(core *Core, opc1 uint32, rt, rt2 uint32, crm uint32) error
	MRRC func(core *Core, opc1 uint32, rt, rt2 uint32, crm uint32) error
	LDC  func(core *Core, crd uint32, addr uint64) error
	STC  func(core *Core, crd uint32, addr uint64) error
}

// installDefaultCoprocessors populates slot 15 with a minimal read-only
// identification register, the one coprocessor facility this core
// implements itself rather than routing to an FP/vendor-supplied
// handler, a small self-test slot useful for probing core identity.
// Slots reserved for FPA/VFP (cp1/cp2/cp10/cp11 by convention) are left
// nil: this core treats FP numerics as an opaque external collaborator
// and never decodes their operand encoding itself.
func (core *Core) installDefaultCoprocessors() {
	core.Coprocessors[15] = Coprocessor{
		Name: "system-id",
		MRC: func(c *Core, opc1 uint32, rt uint32, crn, crm uint32, opc2 uint32) error {
			if crn == 0 && crm == 0 && opc1 == 0 && opc2 == 0 {
				c.CPU.a32Set(int(rt), core.idRegister())
				return nil
			}
			return newFault(FaultUndefined, c.CPU.PC(), 0, "cp15 c0 read of unimplemented register")
		},
		MCR: func(c *Core, opc1 uint32, rt uint32, crn, crm uint32, opc2 uint32) error {
			return newFault(FaultUndefined, c.CPU.PC(), 0, "cp15 c0 is read-only")
		},
	}
}

// idRegister packs Config.Version/Profile into a MIDR-shaped read-only
// word, giving guest code a way to probe which architecture generation
// it is running under without the host needing a separate side-channel.
func (core *Core) idRegister() uint32 {
	return uint32(core.Config.Version)<<4 | uint32(core.Config.Profile)
}

// dispatchCoprocessor looks up slot cpNum and invokes fn with it,
// raising FaultUndefined if the slot or the specific operation hook is
// unpopulated.
func (core *Core) coprocessorAt(cpNum uint32) (*Coprocessor, error) {
	if cpNum >= uint32(len(core.Coprocessors)) {
		return nil, newFault(FaultUndefined, core.CPU.PC(), 0, "coprocessor number out of range")
	}
	cp := &core.Coprocessors[cpNum]
	if cp.Name == "" {
		return nil, newFault(FaultUndefined, core.CPU.PC(), 0, "coprocessor slot not populated")
	}
	return cp, nil
}
