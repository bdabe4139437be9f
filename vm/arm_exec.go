package vm

// executeARM decodes and executes one ARM/ARM26-encoded instruction word,
// fetched from address pc. Condition failure is the common case, handled
// first so it short-circuits before touching any other decode logic.
func (core *Core) executeARM(word uint32, pc uint64) error {
	cond := ConditionCode((word >> ConditionShift) & Mask4Bit)
	if !core.CPU.PSTATE.EvaluateCondition(cond) {
		return nil
	}

	switch {
	case word&0xFFFFFFF0 == uint32(BXEncodingBase):
		return core.execBX(word, false)
	case word&0xFFFFFFF0 == uint32(BLXEncodingBase):
		return core.execBX(word, true)

	case word&uint32(CLREXMask) == uint32(CLREXPattern):
		core.CPU.Monitor.Clear()
		return nil
	case word&uint32(LDREXMask) == uint32(LDREXPattern):
		return core.execLoadExclusive(word, 4)
	case word&uint32(LDREXBMask) == uint32(LDREXBPattern):
		return core.execLoadExclusive(word, 1)
	case word&uint32(LDREXHMask) == uint32(LDREXHPattern):
		return core.execLoadExclusive(word, 2)
	case word&uint32(LDREXDMask) == uint32(LDREXDPattern):
		return core.execLoadExclusive(word, 8)
	case word&uint32(STREXMask) == uint32(STREXPattern):
		return core.execStoreExclusive(word, 4)
	case word&uint32(STREXBMask) == uint32(STREXBPattern):
		return core.execStoreExclusive(word, 1)
	case word&uint32(STREXHMask) == uint32(STREXHPattern):
		return core.execStoreExclusive(word, 2)
	case word&uint32(STREXDMask) == uint32(STREXDPattern):
		return core.execStoreExclusive(word, 8)

	case word&uint32(LongMultiplyMask) == uint32(LongMultiplyPattern):
		return core.execLongMultiply(word)
	case word&uint32(MultiplyMask) == uint32(MultiplyPattern):
		return core.execMultiply(word)

	case word&uint32(MRSMask) == uint32(MRSPattern):
		return core.execMRS(word)
	case word&uint32(MSRImmMask) == uint32(MSRImmPattern):
		return core.execMSR(word, true)
	case word&uint32(MSRRegMask) == uint32(MSRRegPattern):
		return core.execMSR(word, false)

	case word&uint32(SWIDetectMask) == uint32(SWIPattern):
		return newFault(FaultSVC, pc, pc, "")

	case (word>>25)&Mask3Bit == 0b101: // B/BL: bits 27-25 = 101
		return core.execBranch(word, pc)

	case (word>>26)&Mask2Bit == 0b01: // single data transfer (LDR/STR)
		return core.execSingleTransfer(word, pc)

	case (word>>25)&Mask3Bit == 0b100: // block data transfer (LDM/STM)
		return core.execBlockTransfer(word)

	case (word>>25)&Mask3Bit == 0b000 && (word>>4)&Mask1Bit == 1 && (word>>7)&Mask1Bit == 1 && ((word>>5)&Mask2Bit) != 0:
		return core.execHalfwordTransfer(word)

	case (word>>24)&Mask4Bit == 0b1110 && (word>>4)&Mask1Bit == 1:
		return core.execCoprocessorRegTransfer(word)
	case (word>>24)&Mask4Bit == 0b1110:
		return core.execCoprocessorDataOp(word)
	case (word>>25)&Mask3Bit == 0b110:
		return core.execCoprocessorTransfer(word, pc)

	case (word>>26)&Mask2Bit == 0b00:
		return core.execDataProcessing(word)
	}

	return newFault(FaultUndefined, pc, pc, "no ARM decode matched")
}

// execBX implements BX/BLX(register): interworking branch, optionally
// with link, gated on Config feature/version support the way real cores
// reject the encoding entirely on pre-v4T cores: unsupported encodings
// fault undefined rather than silently no-op.
func (core *Core) execBX(word uint32, link bool) error {
	rm := int(word & Mask4Bit)
	target := core.CPU.a32Get(rm)
	if link {
		core.CPU.SetLR(uint32(core.CPU.PC() + 4))
	}
	core.CPU.a32SetInterworking(PCReg, target, ArchV4)
	return nil
}
