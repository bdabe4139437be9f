package vm

// fetched is the result of a single fetch step: the raw instruction word
// (sign-extended into a uint32 regardless of native width) and the PC the
// instruction was fetched from, needed by exception entry to compute
// PC-relative "next instruction address" offsets.
type fetched struct {
	isa   ISA
	word  uint32
	oldPC uint64
	size  uint64 // advance applied to PC before execute, in bytes
}

// fetch reads the next instruction for the CPU's current ISA, applying
// each ISA's own alignment and step-size rules. It does not advance PC;
// Step does that once execution of the returned instruction has decided
// whether a branch overrides it.
func (core *Core) fetch() (fetched, error) {
	isa := isaOf(core.CPU.PSTATE)
	pc := core.CPU.PC()

	switch isa {
	case ISAArm26:
		addr := pc & 0x03FFFFFC
		word, err := core.Bus.Read32(addr, core.privileged())
		if err != nil {
			return fetched{}, newFault(FaultPrefetchAbort, pc, addr, err.Error())
		}
		return fetched{isa: isa, word: word, oldPC: pc, size: 4}, nil

	case ISAArm32:
		word, err := core.Bus.Read32(pc, core.privileged())
		if err != nil {
			return fetched{}, newFault(FaultPrefetchAbort, pc, pc, err.Error())
		}
		return fetched{isa: isa, word: word, oldPC: pc, size: 4}, nil

	case ISAArm64:
		if pc&3 != 0 {
			return fetched{}, newFault(FaultUnalignedPC, pc, pc, "")
		}
		word, err := core.Bus.Read32(pc, core.privileged())
		if err != nil {
			return fetched{}, newFault(FaultPrefetchAbort, pc, pc, err.Error())
		}
		return fetched{isa: isa, word: word, oldPC: pc, size: 4}, nil

	case ISAThumb, ISAThumbEE:
		half, err := core.Bus.Read16(pc, core.privileged())
		if err != nil {
			return fetched{}, newFault(FaultPrefetchAbort, pc, pc, err.Error())
		}
		if isThumb32(half) && core.Config.ThumbLevel == ThumbT2 {
			half2, err := core.Bus.Read16(pc+2, core.privileged())
			if err != nil {
				return fetched{}, newFault(FaultPrefetchAbort, pc, pc+2, err.Error())
			}
			word := uint32(half)<<16 | uint32(half2)
			return fetched{isa: isa, word: word, oldPC: pc, size: 4}, nil
		}
		return fetched{isa: isa, word: uint32(half), oldPC: pc, size: 2}, nil

	case ISAJazelle:
		b, err := core.Bus.Read8(pc, core.privileged())
		if err != nil {
			return fetched{}, newFault(FaultJazellePrefetchAbort, pc, pc, err.Error())
		}
		return fetched{isa: isa, word: uint32(b), oldPC: pc, size: 1}, nil
	}
	return fetched{}, newFault(FaultUndefined, pc, pc, "unreachable ISA")
}

// isThumb32 reports whether a Thumb halfword is the first half of a
// 32-bit Thumb-2 instruction: bits [15:11] of 0b11101, 0b11110, or
// 0b11111 per the standard Thumb-2 recognition rule.
func isThumb32(half uint16) bool {
	top5 := half >> 11
	return top5 == 0b11101 || top5 == 0b11110 || top5 == 0b11111
}

// dispatch routes a fetched instruction to the per-ISA executor.
func (core *Core) dispatch(f fetched) error {
	switch f.isa {
	case ISAArm26, ISAArm32:
		return core.executeARM(f.word, f.oldPC)
	case ISAArm64:
		return core.executeA64(f.word, f.oldPC)
	case ISAThumb, ISAThumbEE:
		return core.executeThumb(f)
	case ISAJazelle:
		return core.executeJazelle(uint8(f.word), f.oldPC)
	}
	return newFault(FaultUndefined, f.oldPC, f.oldPC, "unreachable ISA")
}
