package vm

// execMRS implements MRS Rd, CPSR|SPSR: read the packed status register
// into a general register.
func (core *Core) execMRS(word uint32) error {
	rd := int((word >> RdShift) & Mask4Bit)
	spsrBit := (word>>22)&Mask1Bit != 0
	if spsrBit {
		core.CPU.a32Set(rd, uint32(core.CPU.spsrFor(core.CPU.PSTATE.Mode)))
		return nil
	}
	core.CPU.a32Set(rd, encodeCPSR(core.Config, core.CPU.PSTATE))
	return nil
}

// msrFieldMask returns the write mask selected by MSR's fsxc field bits
// (bits 19-16 of the instruction): f (bits 31-24), s (23-16), x (15-8),
// c (7-0).
func msrFieldMask(word uint32) uint32 {
	var mask uint32
	if (word>>19)&Mask1Bit != 0 {
		mask |= 0xFF000000
	}
	if (word>>18)&Mask1Bit != 0 {
		mask |= 0x00FF0000
	}
	if (word>>17)&Mask1Bit != 0 {
		mask |= 0x0000FF00
	}
	if (word>>16)&Mask1Bit != 0 {
		mask |= 0x000000FF
	}
	return mask
}

// execMSR implements MSR CPSR_fsxc|SPSR_fsxc, #imm|Rm: writes a masked
// subset of the status register, rejecting mode/privileged-field changes
// while in USR mode the way the architecture does (the control field 'c'
// mask only takes effect from a privileged mode).
func (core *Core) execMSR(word uint32, immediate bool) error {
	var operand uint32
	if immediate {
		imm := word & ImmediateValueMask
		rot := ((word >> RotationShift) & RotationMask) * RotationMultiplier
		if rot != 0 {
			operand = (imm >> rot) | (imm << (32 - rot))
		} else {
			operand = imm
		}
	} else {
		rm := int(word & Mask4Bit)
		operand = core.CPU.a32Get(rm)
	}

	mask := msrFieldMask(word)
	unprivileged := core.CPU.PSTATE.Mode == ModeUSR || core.CPU.PSTATE.Mode == ModeUSR26
	if unprivileged {
		mask &= 0xFF000000 // USR mode may only update the flag field
	}

	spsrBit := (word>>22)&Mask1Bit != 0
	if spsrBit {
		if core.CPU.PSTATE.Mode == ModeUSR || core.CPU.PSTATE.Mode == ModeSYS || core.CPU.PSTATE.Mode == ModeUSR26 {
			return nil // no SPSR in these modes; architecturally unpredictable, treated as a no-op
		}
		old := core.CPU.spsrFor(core.CPU.PSTATE.Mode)
		newValue := (uint32(old) &^ mask) | (operand & mask)
		core.CPU.setSpsrFor(core.CPU.PSTATE.Mode, uint64(newValue))
		return nil
	}

	oldCPSR := encodeCPSR(core.Config, core.CPU.PSTATE)
	newCPSR := (oldCPSR &^ mask) | (operand & mask)
	core.CPU.PSTATE = decodeCPSR(core.Config, core.CPU.PSTATE, newCPSR)
	return nil
}
