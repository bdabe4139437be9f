package vm

// execBlockTransfer implements LDM/STM in all four addressing variants
// (IA/IB/DA/DB), the base-register writeback, and the "S bit with R15 in
// the register list" user-bank/CPSR-restore special case.
func (core *Core) execBlockTransfer(word uint32) error {
	pFlag := (word>>PBitShift)&Mask1Bit != 0
	uFlag := (word>>UBitShift)&Mask1Bit != 0
	sFlag := (word>>BBitShift)&Mask1Bit != 0
	wFlag := (word>>WBitShift)&Mask1Bit != 0
	lFlag := (word>>LBitShift)&Mask1Bit != 0
	rn := int((word >> RnShift) & Mask4Bit)
	list := word & RegisterListMask

	count := 0
	for r := 0; r < 16; r++ {
		if list&(1<<uint(r)) != 0 {
			count++
		}
	}
	if count == 0 {
		count = 16 // empty-list edge case: architecturally transfers R15 only, treated as a 16-word span
	}

	base := core.CPU.a32Get(rn)
	var start uint32
	if uFlag {
		start = base
		if !pFlag {
			start += 4
		}
	} else {
		start = base - uint32(count)*4
		if pFlag {
			start += 4
		}
	}

	loadsPC := lFlag && list&(1<<PCReg) != 0
	restoreCPSR := sFlag && loadsPC
	userBank := sFlag && !loadsPC

	addr := start
	for r := 0; r < 16; r++ {
		if list&(1<<uint(r)) == 0 {
			continue
		}
		if lFlag {
			value, err := core.Bus.Read32(uint64(addr), core.privileged())
			if err != nil {
				return newFault(FaultDataAbort, core.CPU.PC(), uint64(addr), err.Error())
			}
			if r == PCReg {
				core.CPU.a32SetInterworking(PCReg, value, ArchV5)
			} else if userBank {
				core.setUserModeRegister(r, value)
			} else {
				core.CPU.a32Set(r, value)
			}
		} else {
			var value uint32
			if userBank {
				value = core.getUserModeRegister(r)
			} else {
				value = core.CPU.a32Get(r)
			}
			if err := core.Bus.Write32(uint64(addr), value, core.privileged()); err != nil {
				return newFault(FaultDataAbort, core.CPU.PC(), uint64(addr), err.Error())
			}
		}
		addr += 4
	}

	if restoreCPSR {
		if core.CPU.PSTATE.RW != RW26 {
			core.CPU.a32SetCPSRNZCV(core.Config)
		}
	}

	if wFlag {
		var newBase uint32
		if uFlag {
			newBase = base + uint32(count)*4
		} else {
			newBase = base - uint32(count)*4
		}
		core.CPU.a32Set(rn, newBase)
	}
	return nil
}

// getUserModeRegister / setUserModeRegister access R8-R14 in the USR
// bank regardless of current mode, implementing LDM/STM's "^" user-bank
// register transfer used by privileged exception handlers to inspect
// the interrupted task's registers.
func (core *Core) getUserModeRegister(reg int) uint32 {
	if reg < 8 || reg > 14 {
		return core.CPU.a32Get(reg)
	}
	if reg == 13 {
		return core.CPU.spFor(ModeUSR)
	}
	if reg == 14 {
		return core.CPU.lrFor(ModeUSR)
	}
	idx := slotOf(reg, ModeUSR, core.CPU.legacyBanking())
	return uint32(core.CPU.Regs.slots[idx])
}

func (core *Core) setUserModeRegister(reg int, v uint32) {
	if reg < 8 || reg > 14 {
		core.CPU.a32Set(reg, v)
		return
	}
	if reg == 13 {
		core.CPU.setSpFor(ModeUSR, v)
		return
	}
	if reg == 14 {
		core.CPU.setLrFor(ModeUSR, v)
		return
	}
	idx := slotOf(reg, ModeUSR, core.CPU.legacyBanking())
	core.CPU.Regs.slots[idx] = uint64(v)
}
