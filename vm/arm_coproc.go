package vm

// execCoprocessorRegTransfer implements MCR/MRC: bit 20 (the L bit, read
// vs. write) selects direction, the coprocessor number picks the slot.
func (core *Core) execCoprocessorRegTransfer(word uint32) error {
	cpNum := (word >> 8) & Mask4Bit
	opc1 := (word >> 21) & Mask3Bit
	opc2 := (word >> 5) & Mask3Bit
	crn := (word >> RnShift) & Mask4Bit
	crm := word & Mask4Bit
	rt := (word >> RdShift) & Mask4Bit
	load := (word>>LBitShift)&Mask1Bit != 0

	cp, err := core.coprocessorAt(cpNum)
	if err != nil {
		return err
	}
	if load {
		if cp.MRC == nil {
			return newFault(FaultUndefined, core.CPU.PC(), 0, "MRC not implemented by coprocessor")
		}
		return cp.MRC(core, opc1, rt, crn, crm, opc2)
	}
	if cp.MCR == nil {
		return newFault(FaultUndefined, core.CPU.PC(), 0, "MCR not implemented by coprocessor")
	}
	return cp.MCR(core, opc1, rt, crn, crm, opc2)
}

// execCoprocessorDataOp implements CDP: a coprocessor-internal operation
// with no general-register involvement.
func (core *Core) execCoprocessorDataOp(word uint32) error {
	cpNum := (word >> 8) & Mask4Bit
	opc1 := (word >> 20) & Mask4Bit
	opc2 := (word >> 5) & Mask3Bit
	crd := (word >> RdShift) & Mask4Bit
	crn := (word >> RnShift) & Mask4Bit
	crm := word & Mask4Bit

	cp, err := core.coprocessorAt(cpNum)
	if err != nil {
		return err
	}
	if cp.CDP == nil {
		return newFault(FaultUndefined, core.CPU.PC(), 0, "CDP not implemented by coprocessor")
	}
	return cp.CDP(core, opc1, crd, crn, crm, opc2)
}

// execCoprocessorTransfer implements LDC/STC: a coprocessor-addressed
// memory transfer, addressing computed the same way as single data
// transfer's immediate-offset form.
func (core *Core) execCoprocessorTransfer(word uint32, pc uint64) error {
	cpNum := (word >> 8) & Mask4Bit
	crd := (word >> RdShift) & Mask4Bit
	rn := int((word >> RnShift) & Mask4Bit)
	uFlag := (word>>UBitShift)&Mask1Bit != 0
	pFlag := (word>>PBitShift)&Mask1Bit != 0
	wFlag := (word>>WBitShift)&Mask1Bit != 0
	lFlag := (word>>LBitShift)&Mask1Bit != 0
	offset := (word & Mask8Bit) << 2

	base := core.CPU.a32Get(rn)
	var effective uint32
	if uFlag {
		effective = base + offset
	} else {
		effective = base - offset
	}
	addr := base
	if pFlag {
		addr = effective
	}

	cp, err := core.coprocessorAt(cpNum)
	if err != nil {
		return err
	}

	if lFlag {
		if cp.LDC == nil {
			return newFault(FaultUndefined, pc, 0, "LDC not implemented by coprocessor")
		}
		if err := cp.LDC(core, crd, uint64(addr)); err != nil {
			return err
		}
	} else {
		if cp.STC == nil {
			return newFault(FaultUndefined, pc, 0, "STC not implemented by coprocessor")
		}
		if err := cp.STC(core, crd, uint64(addr)); err != nil {
			return err
		}
	}

	if !pFlag || wFlag {
		core.CPU.a32Set(rn, effective)
	}
	return nil
}
