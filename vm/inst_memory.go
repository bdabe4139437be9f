package vm

// addressingOffset decodes the offset field shared by LDR/STR and
// halfword transfer encodings: either an immediate or a shifted
// register, and whether it is added or subtracted (the U bit).
func (core *Core) singleTransferOffset(word uint32) uint32 {
	if (word>>IBitShift)&Mask1Bit == 0 {
		return word & Offset12BitMask
	}
	rm := int(word & Mask4Bit)
	value := core.CPU.a32Get(rm)
	shiftType := ShiftType((word >> ShiftTypePos) & Mask2Bit)
	amount := int((word >> ShiftAmountPos) & Mask5Bit)
	if amount == 0 && shiftType != ShiftLSL {
		if shiftType == ShiftROR {
			shiftType = ShiftRRX
		}
	}
	return PerformShift(value, amount, shiftType, core.CPU.PSTATE.C)
}

// execSingleTransfer implements LDR/STR/LDRB/STRB/LDRT/STRT/LDRBT/STRBT,
// applying the v6+ strict-alignment-fault policy for words: pre-v6 cores
// instead rotate the loaded word right by 8*(address&3) rather than
// faulting.
func (core *Core) execSingleTransfer(word uint32, pc uint64) error {
	pFlag := (word>>PBitShift)&Mask1Bit != 0
	uFlag := (word>>UBitShift)&Mask1Bit != 0
	bFlag := (word>>BBitShift)&Mask1Bit != 0
	wFlag := (word>>WBitShift)&Mask1Bit != 0
	lFlag := (word>>LBitShift)&Mask1Bit != 0
	rn := int((word >> RnShift) & Mask4Bit)
	rd := int((word >> RdShift) & Mask4Bit)

	offset := core.singleTransferOffset(word)
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

	strictAlign := core.Config.Version >= ArchV6

	if lFlag {
		var value uint32
		var err error
		if bFlag {
			b, e := core.Bus.Read8(uint64(addr), core.privileged())
			value, err = uint32(b), e
		} else {
			value, err = core.Bus.ReadAligned32(uint64(addr), strictAlign, core.privileged())
		}
		if err != nil {
			return newFault(FaultDataAbort, pc, uint64(addr), err.Error())
		}
		core.CPU.a32SetInterworking(rd, value, ArchV5)
	} else {
		value := core.CPU.a32Get(rd)
		var err error
		if bFlag {
			err = core.Bus.Write8(uint64(addr), uint8(value), core.privileged())
		} else {
			err = core.Bus.Write32(uint64(addr)&^3, value, core.privileged())
		}
		if err != nil {
			return newFault(FaultDataAbort, pc, uint64(addr), err.Error())
		}
	}

	if !pFlag || wFlag {
		if rn != rd || !lFlag {
			core.CPU.a32Set(rn, effective)
		}
	}
	return nil
}

// execHalfwordTransfer implements LDRH/STRH/LDRSB/LDRSH, sharing the
// same P/U/W addressing shape as execSingleTransfer but with a 4-bit
// split immediate or register offset and a 2-bit opcode selecting
// halfword vs. signed-byte vs. signed-halfword.
func (core *Core) execHalfwordTransfer(word uint32) error {
	pFlag := (word>>PBitShift)&Mask1Bit != 0
	uFlag := (word>>UBitShift)&Mask1Bit != 0
	wFlag := (word>>WBitShift)&Mask1Bit != 0
	lFlag := (word>>LBitShift)&Mask1Bit != 0
	rn := int((word >> RnShift) & Mask4Bit)
	rd := int((word >> RdShift) & Mask4Bit)
	immFlag := (word>>BBitShift)&Mask1Bit != 0 // bit 22 selects immediate offset form

	var offset uint32
	if immFlag {
		hi := (word >> HalfwordHighShift) & HalfwordOffsetHighMask
		lo := word & HalfwordOffsetLowMask
		offset = hi<<4 | lo
	} else {
		rm := int(word & Mask4Bit)
		offset = core.CPU.a32Get(rm)
	}

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

	op := (word >> Bit4Pos) & Mask2Bit // SH bits 6:5, bit4=1 distinguishes from multiply
	sh := (word >> 5) & Mask2Bit

	if lFlag {
		var value uint32
		var err error
		switch sh {
		case 0b01: // unsigned halfword
			var h uint16
			h, err = core.Bus.Read16(uint64(addr), core.privileged())
			value = uint32(h)
		case 0b10: // signed byte
			var b uint8
			b, err = core.Bus.Read8(uint64(addr), core.privileged())
			value = uint32(int32(int8(b)))
		case 0b11: // signed halfword
			var h uint16
			h, err = core.Bus.Read16(uint64(addr), core.privileged())
			value = uint32(int32(int16(h)))
		}
		if err != nil {
			return newFault(FaultDataAbort, core.CPU.PC(), uint64(addr), err.Error())
		}
		core.CPU.a32Set(rd, value)
	} else {
		value := core.CPU.a32Get(rd)
		if err := core.Bus.Write16(uint64(addr), uint16(value), core.privileged()); err != nil {
			return newFault(FaultDataAbort, core.CPU.PC(), uint64(addr), err.Error())
		}
	}
	_ = op

	if !pFlag || wFlag {
		core.CPU.a32Set(rn, effective)
	}
	return nil
}
