package vm

// execMultiply implements MUL/MLA: a 32-bit result, no overflow
// detection (ARM multiply never sets V), with N/Z updated when the S bit
// is set. C is architecturally unpredictable here; this core leaves it
// unchanged.
func (core *Core) execMultiply(word uint32) error {
	rd := int((word >> RnShift) & Mask4Bit) // multiply encodes Rd in the Rn position
	rn := int((word >> RdShift) & Mask4Bit) // and the accumulate operand in the Rd position
	rs := int((word >> RsShift) & Mask4Bit)
	rm := int(word & Mask4Bit)
	accumulate := (word>>MultiplyAShift)&Mask1Bit != 0
	sBit := (word>>SBitShift)&Mask1Bit != 0

	result := core.CPU.a32Get(rm) * core.CPU.a32Get(rs)
	if accumulate {
		result += core.CPU.a32Get(rn)
	}
	core.CPU.a32Set(rd, result)

	if sBit {
		core.CPU.PSTATE.UpdateFlagsNZ(result)
	}
	return nil
}

// execLongMultiply implements UMULL/UMLAL/SMULL/SMLAL: a 64-bit product
// (or product-plus-accumulate) split across RdHi:RdLo.
func (core *Core) execLongMultiply(word uint32) error {
	rdHi := int((word >> RnShift) & Mask4Bit)
	rdLo := int((word >> RdShift) & Mask4Bit)
	rs := int((word >> RsShift) & Mask4Bit)
	rm := int(word & Mask4Bit)
	signed := (word>>(MultiplyAShift+1))&Mask1Bit != 0
	accumulate := (word>>MultiplyAShift)&Mask1Bit != 0
	sBit := (word>>SBitShift)&Mask1Bit != 0

	var result uint64
	if signed {
		result = uint64(int64(int32(core.CPU.a32Get(rm))) * int64(int32(core.CPU.a32Get(rs))))
	} else {
		result = uint64(core.CPU.a32Get(rm)) * uint64(core.CPU.a32Get(rs))
	}

	if accumulate {
		acc := uint64(core.CPU.a32Get(rdHi))<<32 | uint64(core.CPU.a32Get(rdLo))
		result += acc
	}

	lo := uint32(result)
	hi := uint32(result >> 32)
	core.CPU.a32Set(rdLo, lo)
	core.CPU.a32Set(rdHi, hi)

	if sBit {
		core.CPU.PSTATE.N = hi&SignBitMask != 0
		core.CPU.PSTATE.Z = result == 0
	}
	return nil
}
