package vm

import "math/bits"

// decodeBitmaskImmediate implements the A64 logical-immediate decode
// algorithm: an N:immr:imms field selects an element size, a rotation,
// and a run length, and the result is that rotated run of ones
// replicated to fill the register width.
func decodeBitmaskImmediate(n, immr, imms uint32, regSize int) (uint64, bool) {
	concat := (n << 6) | (^imms & 0x3F)
	if concat == 0 {
		return 0, false // reserved: no set bit means "len" is undefined
	}
	length := bits.Len32(concat) - 1
	esize := 1 << uint(length)
	if esize > regSize {
		return 0, false
	}

	levels := uint32(esize - 1)
	s := imms & levels
	r := immr & levels
	if s == levels {
		return 0, false // all-ones element is reserved
	}

	runLength := s + 1
	var elem uint64
	if runLength >= 64 {
		elem = ^uint64(0)
	} else {
		elem = (uint64(1) << runLength) - 1
	}
	if r > 0 {
		mask := (uint64(1) << uint(esize)) - 1
		elem = ((elem >> r) | (elem << (uint(esize) - r))) & mask
	}

	var result uint64
	for filled := 0; filled < regSize; filled += esize {
		result |= elem << uint(filled)
	}
	if regSize < 64 {
		result &= (uint64(1) << uint(regSize)) - 1
	}
	return result, true
}

// a64Cond mirrors AArch32's condition evaluation; A64 reuses the same
// NZCV semantics so this is a thin rename for readability at call sites.
func (core *Core) a64Cond(cond ConditionCode) bool {
	return core.CPU.PSTATE.EvaluateCondition(cond)
}

// executeA64 decodes and executes one A64 instruction word. This core
// implements a representative subset: data
// processing (immediate and register, including the bitmask-immediate
// logical family), CSEL/CSINC/CSINV/CSNEG, unconditional and conditional
// branches, BR/BLR/RET, LDR/STR (immediate and register offset),
// LDP/STP, the BFM/SBFM/UBFM bitfield family, and ERET.
func (core *Core) executeA64(word uint32, pc uint64) error {
	switch {
	case word&0xFFFFFC1F == 0xD65F0000: // RET
		target := core.CPU.a64Get(int((word>>5)&0x1F), true)
		core.CPU.SetPC(target)
		return nil
	case word&0xFC000000 == 0x94000000: // BL
		imm := signExtend(word&0x03FFFFFF, 26) << 2
		core.CPU.a64Set(30, true, pc+4)
		core.CPU.SetPC(uint64(int64(pc) + imm))
		return nil
	case word&0xFC000000 == 0x14000000: // B
		imm := signExtend(word&0x03FFFFFF, 26) << 2
		core.CPU.SetPC(uint64(int64(pc) + imm))
		return nil
	case word&0xFFFFFC1F == 0xD63F0000: // BLR
		target := core.CPU.a64Get(int((word>>5)&0x1F), true)
		core.CPU.a64Set(30, true, pc+4)
		core.CPU.SetPC(target)
		return nil
	case word&0xFFFFFC1F == 0xD61F0000: // BR
		target := core.CPU.a64Get(int((word>>5)&0x1F), true)
		core.CPU.SetPC(target)
		return nil
	case word&0xFF000010 == 0x54000000: // B.cond
		imm := signExtend((word>>5)&0x7FFFF, 19) << 2
		cond := ConditionCode(word & 0xF)
		if core.a64Cond(cond) {
			core.CPU.SetPC(uint64(int64(pc) + imm))
		}
		return nil
	case word == 0xD69F03E0: // ERET
		return core.execERet()

	case word&0x7F800000 == 0x11000000 || word&0x7F800000 == 0x51000000: // ADD/SUB (immediate)
		return core.a64AddSubImm(word)
	case word&0x1F800000 == 0x0B000000 || word&0x1F800000 == 0x4B000000: // ADD/SUB (shifted register)
		return core.a64AddSubReg(word)
	case word&0x7F800000 == 0x12000000: // AND/ORR/EOR/ANDS (immediate, bitmask)
		return core.a64LogicalImm(word)
	case word&0x1F200000 == 0x1A800000: // CSEL family
		return core.a64CondSelect(word)
	case word&0x7F800000 == 0x13000000: // SBFM/BFM/UBFM (32-bit sf=0 path folded in)
		return core.a64Bitfield(word)

	case word&0xBFC00000 == 0xB9400000 || word&0xFFC00000 == 0xF9400000: // LDR (immediate, unsigned offset)
		return core.a64LoadStoreImm(word, true)
	case word&0xBFC00000 == 0xB9000000 || word&0xFFC00000 == 0xF9000000: // STR (immediate, unsigned offset)
		return core.a64LoadStoreImm(word, false)
	case word&0x3FC00000 == 0x29400000: // LDP
		return core.a64LoadStorePair(word, true)
	case word&0x3FC00000 == 0x29000000: // STP
		return core.a64LoadStorePair(word, false)
	}

	return newFault(FaultUndefined, pc, pc, "no A64 decode matched")
}

func signExtend(value uint32, bitsN int) int64 {
	shift := 32 - bitsN
	return int64(int32(value<<uint(shift))) >> uint(shift)
}

func (core *Core) sf(word uint32) int {
	if word&0x80000000 != 0 {
		return 64
	}
	return 32
}

func (core *Core) a64AddSubImm(word uint32) error {
	size := core.sf(word)
	sub := word&0x40000000 != 0
	setFlags := word&0x20000000 != 0
	shift12 := (word>>22)&1 != 0
	imm := uint64((word >> 10) & 0xFFF)
	if shift12 {
		imm <<= 12
	}
	rn := int((word >> 5) & 0x1F)
	rd := int(word & 0x1F)

	a := core.CPU.a64Get(rn, false)
	if size == 32 {
		a &= 0xFFFFFFFF
	}
	var result uint64
	if sub {
		result = a - imm
	} else {
		result = a + imm
	}
	if size == 32 {
		result &= 0xFFFFFFFF
	}
	core.CPU.a64Set(rd, !setFlags, result)

	if setFlags {
		core.a64UpdateFlags(a, imm, result, sub, size)
	}
	return nil
}

func (core *Core) a64AddSubReg(word uint32) error {
	size := core.sf(word)
	sub := word&0x40000000 != 0
	setFlags := word&0x20000000 != 0
	rm := int((word >> 16) & 0x1F)
	rn := int((word >> 5) & 0x1F)
	rd := int(word & 0x1F)
	shiftAmount := int((word >> 10) & 0x3F)
	shiftType := ShiftType((word >> 22) & 0x3)

	a := core.CPU.a64Get(rn, true)
	b := core.CPU.a64Get(rm, true)
	if size == 32 {
		b = uint64(PerformShift(uint32(b), shiftAmount, shiftType, false))
		a &= 0xFFFFFFFF
	} else {
		b = shift64(b, shiftAmount, shiftType)
	}

	var result uint64
	if sub {
		result = a - b
	} else {
		result = a + b
	}
	if size == 32 {
		result &= 0xFFFFFFFF
	}
	core.CPU.a64Set(rd, !setFlags, result)
	if setFlags {
		core.a64UpdateFlags(a, b, result, sub, size)
	}
	return nil
}

func shift64(v uint64, amount int, t ShiftType) uint64 {
	switch t {
	case ShiftLSL:
		return v << uint(amount)
	case ShiftLSR:
		return v >> uint(amount)
	case ShiftASR:
		return uint64(int64(v) >> uint(amount))
	case ShiftROR:
		return bits.RotateLeft64(v, -amount)
	}
	return v
}

func (core *Core) a64UpdateFlags(a, b, result uint64, sub bool, size int) {
	var signBit uint64 = 0x80000000
	if size == 64 {
		signBit = 0x8000000000000000
	}
	core.CPU.PSTATE.N = result&signBit != 0
	if size == 32 {
		core.CPU.PSTATE.Z = uint32(result) == 0
	} else {
		core.CPU.PSTATE.Z = result == 0
	}
	if sub {
		core.CPU.PSTATE.C = a >= b
	} else {
		core.CPU.PSTATE.C = result < a
	}
	aSign := a&signBit != 0
	bSign := b&signBit != 0
	rSign := result&signBit != 0
	if sub {
		core.CPU.PSTATE.V = aSign != bSign && aSign != rSign
	} else {
		core.CPU.PSTATE.V = aSign == bSign && aSign != rSign
	}
}

func (core *Core) a64LogicalImm(word uint32) error {
	size := core.sf(word)
	opc := (word >> 29) & 0x3
	n := (word >> 22) & 1
	immr := (word >> 16) & 0x3F
	imms := (word >> 10) & 0x3F
	rn := int((word >> 5) & 0x1F)
	rd := int(word & 0x1F)

	imm, ok := decodeBitmaskImmediate(n, immr, imms, size)
	if !ok {
		return newFault(FaultUndefined, core.CPU.PC(), 0, "reserved bitmask immediate encoding")
	}

	a := core.CPU.a64Get(rn, true)
	var result uint64
	switch opc {
	case 0b00, 0b11: // AND, ANDS
		result = a & imm
	case 0b01: // ORR
		result = a | imm
	case 0b10: // EOR
		result = a ^ imm
	}
	if size == 32 {
		result &= 0xFFFFFFFF
	}
	core.CPU.a64Set(rd, opc != 0b11, result)
	if opc == 0b11 {
		signBit := uint64(0x80000000)
		if size == 64 {
			signBit = 0x8000000000000000
		}
		core.CPU.PSTATE.N = result&signBit != 0
		core.CPU.PSTATE.Z = result == 0
		core.CPU.PSTATE.C = false
		core.CPU.PSTATE.V = false
	}
	return nil
}

func (core *Core) a64CondSelect(word uint32) error {
	size := core.sf(word)
	op := (word >> 30) & 1
	op2 := (word >> 10) & 0x3
	cond := ConditionCode((word >> 12) & 0xF)
	rm := int((word >> 16) & 0x1F)
	rn := int((word >> 5) & 0x1F)
	rd := int(word & 0x1F)

	var result uint64
	if core.a64Cond(cond) {
		result = core.CPU.a64Get(rn, true)
	} else {
		v := core.CPU.a64Get(rm, true)
		switch {
		case op == 0 && op2 == 0b01: // CSINC
			v++
		case op == 1 && op2 == 0b00: // CSINV
			v = ^v
		case op == 1 && op2 == 0b01: // CSNEG
			v = uint64(-int64(v))
		}
		result = v
	}
	if size == 32 {
		result &= 0xFFFFFFFF
	}
	core.CPU.a64Set(rd, true, result)
	return nil
}

func (core *Core) a64Bitfield(word uint32) error {
	size := core.sf(word)
	opc := (word >> 29) & 0x3
	n := (word >> 22) & 1
	immr := (word >> 16) & 0x3F
	imms := (word >> 10) & 0x3F
	rn := int((word >> 5) & 0x1F)
	rd := int(word & 0x1F)
	_ = n

	src := core.CPU.a64Get(rn, true)
	regSize := uint(size)
	var extracted uint64
	if imms >= immr {
		width := uint(imms-immr) + 1
		extracted = (src >> uint(immr)) & ((1 << width) - 1)
	} else {
		width := uint(imms) + 1
		low := (src & ((1 << width) - 1)) << uint(regSize-uint(immr))
		extracted = low
	}

	switch opc {
	case 0b00: // SBFM: sign-extend from bit `imms-immr`
		if imms >= immr {
			signPos := uint(imms - immr)
			if extracted&(1<<signPos) != 0 {
				extracted |= ^uint64(0) << (signPos + 1)
			}
		}
		core.CPU.a64Set(rd, true, maskToSize(extracted, regSize))
	case 0b01: // BFM: merge into existing dest bits outside the field
		dest := core.CPU.a64Get(rd, true)
		var width uint
		if imms >= immr {
			width = uint(imms-immr) + 1
		} else {
			width = uint(imms) + 1
		}
		fieldMask := ((uint64(1) << width) - 1)
		merged := (dest &^ fieldMask) | (extracted & fieldMask)
		core.CPU.a64Set(rd, true, maskToSize(merged, regSize))
	case 0b10: // UBFM
		core.CPU.a64Set(rd, true, maskToSize(extracted, regSize))
	}
	return nil
}

func maskToSize(v uint64, size uint) uint64 {
	if size >= 64 {
		return v
	}
	return v & ((uint64(1) << size) - 1)
}

func (core *Core) a64LoadStoreImm(word uint32, load bool) error {
	size := 4
	if word&0x40000000 != 0 {
		size = 8
	}
	imm := uint64((word>>10)&0xFFF) * uint64(size)
	rn := int((word >> 5) & 0x1F)
	rt := int(word & 0x1F)

	addr := core.CPU.a64Get(rn, false) + imm
	if load {
		var v uint64
		var err error
		if size == 8 {
			v, err = core.Bus.Read64(addr, core.privileged())
		} else {
			var v32 uint32
			v32, err = core.Bus.Read32(addr, core.privileged())
			v = uint64(v32)
		}
		if err != nil {
			return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
		}
		core.CPU.a64Set(rt, true, v)
		return nil
	}
	value := core.CPU.a64Get(rt, true)
	var err error
	if size == 8 {
		err = core.Bus.Write64(addr, value, core.privileged())
	} else {
		err = core.Bus.Write32(addr, uint32(value), core.privileged())
	}
	if err != nil {
		return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
	}
	return nil
}

func (core *Core) a64LoadStorePair(word uint32, load bool) error {
	size := 4
	if word&0x80000000 != 0 {
		size = 8
	}
	imm7 := signExtend((word>>15)&0x7F, 7) * int64(size)
	rt2 := int((word >> 10) & 0x1F)
	rn := int((word >> 5) & 0x1F)
	rt := int(word & 0x1F)

	addr := uint64(int64(core.CPU.a64Get(rn, false)) + imm7)
	if load {
		var a, b uint64
		var err error
		if size == 8 {
			a, err = core.Bus.Read64(addr, core.privileged())
			if err == nil {
				b, err = core.Bus.Read64(addr+8, core.privileged())
			}
		} else {
			var a32, b32 uint32
			a32, err = core.Bus.Read32(addr, core.privileged())
			if err == nil {
				b32, err = core.Bus.Read32(addr+4, core.privileged())
			}
			a, b = uint64(a32), uint64(b32)
		}
		if err != nil {
			return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
		}
		core.CPU.a64Set(rt, true, a)
		core.CPU.a64Set(rt2, true, b)
		return nil
	}

	va := core.CPU.a64Get(rt, true)
	vb := core.CPU.a64Get(rt2, true)
	var err error
	if size == 8 {
		err = core.Bus.Write64(addr, va, core.privileged())
		if err == nil {
			err = core.Bus.Write64(addr+8, vb, core.privileged())
		}
	} else {
		err = core.Bus.Write32(addr, uint32(va), core.privileged())
		if err == nil {
			err = core.Bus.Write32(addr+4, uint32(vb), core.privileged())
		}
	}
	if err != nil {
		return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
	}
	return nil
}

// execERet implements ERET: restore PSTATE from SPSR_ELn and branch to
// ELR_ELn, the AArch64 exception-return idiom.
func (core *Core) execERet() error {
	el := core.CPU.PSTATE.EL
	spsr := core.CPU.spsrELFor(el)
	core.CPU.PSTATE = decodeCPSR(core.Config, core.CPU.PSTATE, uint32(spsr))
	core.CPU.SetPC(core.CPU.elrFor(el))
	return nil
}
