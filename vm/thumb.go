package vm

// itCondition derives the condition governing the next Thumb instruction
// from PSTATE.IT. ITSTATE<7:5> holds cond<3:1>, fixed for the whole
// block, while ITSTATE<4> holds cond<0> for the current slot: itAdvance
// shifts the T/E mask up into that bit between instructions, so reading
// cond<0> from bit 4 on each instruction (rather than treating bits 7:4
// as a fixed firstcond) reproduces the T/E alternation a mixed block
// like ITTEE requires.
func itCondition(it uint8) ConditionCode {
	return ConditionCode((it>>5)<<1 | (it>>4)&1)
}

// itAdvance steps ITSTATE forward by one instruction: once the mask's
// low 3 bits reach zero the block has completed and ITSTATE clears,
// otherwise the mask shifts left one position per the architectural
// advance rule.
func itAdvance(p *PSTATE) {
	if !p.itInProgress() {
		return
	}
	if p.IT&0x07 == 0 {
		p.IT = 0
		return
	}
	p.IT = (p.IT & 0xE0) | ((p.IT << 1) & 0x1F)
}

// executeThumb dispatches one Thumb/ThumbEE instruction, 16- or 32-bit.
func (core *Core) executeThumb(f fetched) error {
	p := &core.CPU.PSTATE

	if p.itInProgress() {
		cond := itCondition(p.IT)
		skip := !p.EvaluateCondition(cond)
		itAdvance(p)
		if skip {
			return nil
		}
	}

	if f.size == 4 {
		return core.executeThumb32(f.word, f.oldPC)
	}
	return core.executeThumb16(uint16(f.word), f.oldPC)
}

// executeThumb16 covers the common 16-bit Thumb formats: shift/add/sub
// immediate, ALU/hi-register operations, PC-relative and register-offset
// load/store, immediate-offset load/store, SP-relative load/store, load
// address, ADD/SUB SP,#imm, push/pop, LDM/STM, IT, conditional branch,
// SVC, and unconditional branch.
func (core *Core) executeThumb16(h uint16, pc uint64) error {
	switch {
	case h>>13 == 0b000 && (h>>11)&0x3 != 0b11: // format 1: shift by immediate
		return core.thumbShiftImm(h)
	case h>>11 == 0b00011: // format 2: add/subtract
		return core.thumbAddSub(h)
	case h>>13 == 0b001: // format 3: move/compare/add/subtract immediate
		return core.thumbImmOp(h)
	case h>>10 == 0b010000: // format 4: ALU operations
		return core.thumbALU(h)
	case h>>10 == 0b010001: // format 5: hi register ops / BX
		return core.thumbHiReg(h, pc)
	case h>>11 == 0b01001: // format 6: PC-relative load
		return core.thumbPCRelLoad(h, pc)
	case h>>12 == 0b0101: // format 7/8: load/store with register offset
		return core.thumbRegOffset(h)
	case h>>13 == 0b011: // format 9: load/store word/byte immediate offset
		return core.thumbImmOffset(h)
	case h>>12 == 0b1000: // format 10: load/store halfword
		return core.thumbHalfwordOffset(h)
	case h>>12 == 0b1001: // format 11: SP-relative load/store
		return core.thumbSPRelative(h)
	case h>>12 == 0b1010: // format 12: load address
		return core.thumbLoadAddress(h, pc)
	case h>>8 == 0b10110000: // format 13: add/sub offset to SP
		return core.thumbAdjustSP(h)
	case h>>12 == 0b1011 && (h>>9)&0x3 == 0b10: // format 14: push/pop
		return core.thumbPushPop(h)
	case h>>12 == 0b1100: // format 15: multiple load/store
		return core.thumbMultiple(h)
	case h>>8 == 0b10111111: // IT instruction
		core.CPU.PSTATE.IT = uint8(h & 0xFF)
		return nil
	case h>>8 == 0b11011111: // format 17: SWI/SVC
		return newFault(FaultSVC, pc, pc, "")
	case h>>12 == 0b1101: // format 16: conditional branch
		return core.thumbCondBranch(h, pc)
	case h>>11 == 0b11100: // format 18: unconditional branch
		return core.thumbUncondBranch(h, pc)
	case h>>11 == 0b11110 || h>>11 == 0b11111: // first/second half of BL/BLX, mis-split as 16-bit
		return newFault(FaultUndefined, pc, pc, "split BL/BLX half seen as standalone 16-bit word")
	}
	return newFault(FaultUndefined, pc, pc, "no Thumb16 decode matched")
}

func (core *Core) thumbShiftImm(h uint16) error {
	op := (h >> 11) & 0x3
	amount := int((h >> 6) & 0x1F)
	rs := int((h >> 3) & 0x7)
	rd := int(h & 0x7)

	value := core.CPU.a32Get(rs)
	shiftType := ShiftType(op)
	if amount == 0 && shiftType != ShiftLSL {
		// amount-0 LSR/ASR encode "shift by 32"
		amount = 32
	}
	carry := CalculateShiftCarry(value, amount, shiftType, core.CPU.PSTATE.C)
	result := PerformShift(value, amount, shiftType, core.CPU.PSTATE.C)
	core.CPU.a32Set(rd, result)
	core.CPU.PSTATE.UpdateFlagsNZC(result, carry)
	return nil
}

func (core *Core) thumbAddSub(h uint16) error {
	immOp := (h>>10)&1 != 0
	sub := (h>>9)&1 != 0
	rn := int((h >> 6) & 0x7)
	rs := int((h >> 3) & 0x7)
	rd := int(h & 0x7)

	operand1 := core.CPU.a32Get(rs)
	var operand2 uint32
	if immOp {
		operand2 = uint32(rn)
	} else {
		operand2 = core.CPU.a32Get(rn)
	}

	var result uint32
	var carry, overflow bool
	if sub {
		result = operand1 - operand2
		carry = CalculateSubCarry(operand1, operand2)
		overflow = CalculateSubOverflow(operand1, operand2, result)
	} else {
		result = operand1 + operand2
		carry = CalculateAddCarry(operand1, operand2, result)
		overflow = CalculateAddOverflow(operand1, operand2, result)
	}
	core.CPU.a32Set(rd, result)
	core.CPU.PSTATE.UpdateFlagsNZCV(result, carry, overflow)
	return nil
}

func (core *Core) thumbImmOp(h uint16) error {
	op := (h >> 11) & 0x3
	rd := int((h >> 8) & 0x7)
	imm := uint32(h & 0xFF)

	operand1 := core.CPU.a32Get(rd)
	switch op {
	case 0b00: // MOV
		core.CPU.a32Set(rd, imm)
		core.CPU.PSTATE.UpdateFlagsNZ(imm)
	case 0b01: // CMP
		result := operand1 - imm
		core.CPU.PSTATE.UpdateFlagsNZCV(result, CalculateSubCarry(operand1, imm), CalculateSubOverflow(operand1, imm, result))
	case 0b10: // ADD
		result := operand1 + imm
		core.CPU.a32Set(rd, result)
		core.CPU.PSTATE.UpdateFlagsNZCV(result, CalculateAddCarry(operand1, imm, result), CalculateAddOverflow(operand1, imm, result))
	case 0b11: // SUB
		result := operand1 - imm
		core.CPU.a32Set(rd, result)
		core.CPU.PSTATE.UpdateFlagsNZCV(result, CalculateSubCarry(operand1, imm), CalculateSubOverflow(operand1, imm, result))
	}
	return nil
}

func (core *Core) thumbALU(h uint16) error {
	op := (h >> 6) & 0xF
	rs := int((h >> 3) & 0x7)
	rd := int(h & 0x7)

	a := core.CPU.a32Get(rd)
	b := core.CPU.a32Get(rs)
	var result uint32
	var carry, overflow = core.CPU.PSTATE.C, core.CPU.PSTATE.V
	writesResult := true

	switch op {
	case 0x0: // AND
		result = a & b
	case 0x1: // EOR
		result = a ^ b
	case 0x2: // LSL
		carry = CalculateShiftCarry(a, int(b&0xFF), ShiftLSL, core.CPU.PSTATE.C)
		result = PerformShift(a, int(b&0xFF), ShiftLSL, core.CPU.PSTATE.C)
	case 0x3: // LSR
		carry = CalculateShiftCarry(a, int(b&0xFF), ShiftLSR, core.CPU.PSTATE.C)
		result = PerformShift(a, int(b&0xFF), ShiftLSR, core.CPU.PSTATE.C)
	case 0x4: // ASR
		carry = CalculateShiftCarry(a, int(b&0xFF), ShiftASR, core.CPU.PSTATE.C)
		result = PerformShift(a, int(b&0xFF), ShiftASR, core.CPU.PSTATE.C)
	case 0x5: // ADC
		var cin uint32
		if core.CPU.PSTATE.C {
			cin = 1
		}
		result = a + b + cin
		carry = uint64(a)+uint64(b)+uint64(cin) > Mask32Bit
		overflow = CalculateAddOverflow(a, b, result)
	case 0x6: // SBC
		var borrow uint32
		if !core.CPU.PSTATE.C {
			borrow = 1
		}
		result = a - b - borrow
		carry = uint64(a) >= uint64(b)+uint64(borrow)
		overflow = CalculateSubOverflow(a, b, result)
	case 0x7: // ROR
		carry = CalculateShiftCarry(a, int(b&0xFF), ShiftROR, core.CPU.PSTATE.C)
		result = PerformShift(a, int(b&0xFF), ShiftROR, core.CPU.PSTATE.C)
	case 0x8: // TST
		result = a & b
		writesResult = false
	case 0x9: // NEG
		result = 0 - b
		carry = CalculateSubCarry(0, b)
		overflow = CalculateSubOverflow(0, b, result)
	case 0xA: // CMP
		result = a - b
		carry = CalculateSubCarry(a, b)
		overflow = CalculateSubOverflow(a, b, result)
		writesResult = false
	case 0xB: // CMN
		result = a + b
		carry = CalculateAddCarry(a, b, result)
		overflow = CalculateAddOverflow(a, b, result)
		writesResult = false
	case 0xC: // ORR
		result = a | b
	case 0xD: // MUL
		result = a * b
	case 0xE: // BIC
		result = a &^ b
	case 0xF: // MVN
		result = ^b
	}

	if writesResult {
		core.CPU.a32Set(rd, result)
	}
	switch op {
	case 0x5, 0x6, 0x9, 0xA, 0xB:
		core.CPU.PSTATE.UpdateFlagsNZCV(result, carry, overflow)
	case 0x2, 0x3, 0x4, 0x7:
		core.CPU.PSTATE.UpdateFlagsNZC(result, carry)
	default:
		core.CPU.PSTATE.UpdateFlagsNZ(result)
	}
	return nil
}

func (core *Core) thumbHiReg(h uint16, pc uint64) error {
	op := (h >> 8) & 0x3
	h1 := (h >> 7) & 1
	h2 := (h >> 6) & 1
	rs := int((h>>3)&0x7) | int(h2<<3)
	rd := int(h&0x7) | int(h1<<3)

	switch op {
	case 0b00: // ADD
		core.CPU.a32Set(rd, core.CPU.a32Get(rd)+core.CPU.a32Get(rs))
	case 0b01: // CMP
		a, b := core.CPU.a32Get(rd), core.CPU.a32Get(rs)
		result := a - b
		core.CPU.PSTATE.UpdateFlagsNZCV(result, CalculateSubCarry(a, b), CalculateSubOverflow(a, b, result))
	case 0b10: // MOV
		core.CPU.a32Set(rd, core.CPU.a32Get(rs))
	case 0b11: // BX/BLX
		target := core.CPU.a32Get(rs)
		if h1 != 0 {
			core.CPU.SetLR(uint32(pc) + 2)
		}
		core.CPU.a32SetInterworking(PCReg, target, ArchV4)
	}
	return nil
}

func (core *Core) thumbPCRelLoad(h uint16, pc uint64) error {
	rd := int((h >> 8) & 0x7)
	imm := uint32(h&0xFF) << 2
	base := (uint32(pc) + 4) &^ 3
	value, err := core.Bus.Read32(uint64(base+imm), core.privileged())
	if err != nil {
		return newFault(FaultDataAbort, pc, uint64(base+imm), err.Error())
	}
	core.CPU.a32Set(rd, value)
	return nil
}

func (core *Core) thumbRegOffset(h uint16) error {
	l := (h >> 11) & 1
	b := (h >> 10) & 1
	ro := int((h >> 6) & 0x7)
	rb := int((h >> 3) & 0x7)
	rd := int(h & 0x7)
	addr := uint64(core.CPU.a32Get(rb) + core.CPU.a32Get(ro))

	if l != 0 {
		if b != 0 {
			v, err := core.Bus.Read8(addr, core.privileged())
			if err != nil {
				return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
			}
			core.CPU.a32Set(rd, uint32(v))
		} else {
			v, err := core.Bus.Read32(addr, core.privileged())
			if err != nil {
				return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
			}
			core.CPU.a32Set(rd, v)
		}
		return nil
	}
	if b != 0 {
		return wrapDataAbort(core.Bus.Write8(addr, uint8(core.CPU.a32Get(rd)), core.privileged()), core, addr)
	}
	return wrapDataAbort(core.Bus.Write32(addr, core.CPU.a32Get(rd), core.privileged()), core, addr)
}

func wrapDataAbort(err error, core *Core, addr uint64) error {
	if err == nil {
		return nil
	}
	return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
}

func (core *Core) thumbImmOffset(h uint16) error {
	b := (h >> 12) & 1
	l := (h >> 11) & 1
	imm := uint32((h >> 6) & 0x1F)
	rb := int((h >> 3) & 0x7)
	rd := int(h & 0x7)

	var addr uint64
	if b != 0 {
		addr = uint64(core.CPU.a32Get(rb) + imm)
	} else {
		addr = uint64(core.CPU.a32Get(rb) + imm*4)
	}

	if l != 0 {
		if b != 0 {
			v, err := core.Bus.Read8(addr, core.privileged())
			if err != nil {
				return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
			}
			core.CPU.a32Set(rd, uint32(v))
		} else {
			v, err := core.Bus.Read32(addr, core.privileged())
			if err != nil {
				return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
			}
			core.CPU.a32Set(rd, v)
		}
		return nil
	}
	if b != 0 {
		return wrapDataAbort(core.Bus.Write8(addr, uint8(core.CPU.a32Get(rd)), core.privileged()), core, addr)
	}
	return wrapDataAbort(core.Bus.Write32(addr, core.CPU.a32Get(rd), core.privileged()), core, addr)
}

func (core *Core) thumbHalfwordOffset(h uint16) error {
	l := (h >> 11) & 1
	imm := uint32((h>>6)&0x1F) << 1
	rb := int((h >> 3) & 0x7)
	rd := int(h & 0x7)
	addr := uint64(core.CPU.a32Get(rb) + imm)

	if l != 0 {
		v, err := core.Bus.Read16(addr, core.privileged())
		if err != nil {
			return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
		}
		core.CPU.a32Set(rd, uint32(v))
		return nil
	}
	return wrapDataAbort(core.Bus.Write16(addr, uint16(core.CPU.a32Get(rd)), core.privileged()), core, addr)
}

func (core *Core) thumbSPRelative(h uint16) error {
	l := (h >> 11) & 1
	rd := int((h >> 8) & 0x7)
	imm := uint32(h&0xFF) << 2
	addr := uint64(core.CPU.GetSP() + imm)

	if l != 0 {
		v, err := core.Bus.Read32(addr, core.privileged())
		if err != nil {
			return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
		}
		core.CPU.a32Set(rd, v)
		return nil
	}
	return wrapDataAbort(core.Bus.Write32(addr, core.CPU.a32Get(rd), core.privileged()), core, addr)
}

func (core *Core) thumbLoadAddress(h uint16, pc uint64) error {
	sp := (h >> 11) & 1
	rd := int((h >> 8) & 0x7)
	imm := uint32(h&0xFF) << 2
	if sp != 0 {
		core.CPU.a32Set(rd, core.CPU.GetSP()+imm)
	} else {
		core.CPU.a32Set(rd, (uint32(pc)+4)&^3+imm)
	}
	return nil
}

func (core *Core) thumbAdjustSP(h uint16) error {
	sign := (h >> 7) & 1
	imm := uint32(h&0x7F) << 2
	if sign != 0 {
		core.CPU.SetSP(core.CPU.GetSP() - imm)
	} else {
		core.CPU.SetSP(core.CPU.GetSP() + imm)
	}
	return nil
}

func (core *Core) thumbPushPop(h uint16) error {
	load := (h >> 11) & 1
	rBit := (h >> 8) & 1
	list := h & 0xFF

	if load != 0 {
		sp := core.CPU.GetSP()
		for r := 0; r < 8; r++ {
			if list&(1<<uint(r)) != 0 {
				v, err := core.Bus.Read32(uint64(sp), core.privileged())
				if err != nil {
					return newFault(FaultDataAbort, core.CPU.PC(), uint64(sp), err.Error())
				}
				core.CPU.a32Set(r, v)
				sp += 4
			}
		}
		if rBit != 0 {
			v, err := core.Bus.Read32(uint64(sp), core.privileged())
			if err != nil {
				return newFault(FaultDataAbort, core.CPU.PC(), uint64(sp), err.Error())
			}
			core.CPU.a32SetInterworking(PCReg, v, ArchV5)
			sp += 4
		}
		core.CPU.SetSP(sp)
		return nil
	}

	count := 0
	for r := 0; r < 8; r++ {
		if list&(1<<uint(r)) != 0 {
			count++
		}
	}
	if rBit != 0 {
		count++
	}
	sp := core.CPU.GetSP() - uint32(count)*4
	addr := sp
	for r := 0; r < 8; r++ {
		if list&(1<<uint(r)) != 0 {
			if err := core.Bus.Write32(uint64(addr), core.CPU.a32Get(r), core.privileged()); err != nil {
				return newFault(FaultDataAbort, core.CPU.PC(), uint64(addr), err.Error())
			}
			addr += 4
		}
	}
	if rBit != 0 {
		if err := core.Bus.Write32(uint64(addr), core.CPU.GetLR(), core.privileged()); err != nil {
			return newFault(FaultDataAbort, core.CPU.PC(), uint64(addr), err.Error())
		}
	}
	core.CPU.SetSP(sp)
	return nil
}

func (core *Core) thumbMultiple(h uint16) error {
	load := (h >> 11) & 1
	rb := int((h >> 8) & 0x7)
	list := h & 0xFF

	addr := core.CPU.a32Get(rb)
	for r := 0; r < 8; r++ {
		if list&(1<<uint(r)) == 0 {
			continue
		}
		if load != 0 {
			v, err := core.Bus.Read32(uint64(addr), core.privileged())
			if err != nil {
				return newFault(FaultDataAbort, core.CPU.PC(), uint64(addr), err.Error())
			}
			core.CPU.a32Set(r, v)
		} else {
			if err := core.Bus.Write32(uint64(addr), core.CPU.a32Get(r), core.privileged()); err != nil {
				return newFault(FaultDataAbort, core.CPU.PC(), uint64(addr), err.Error())
			}
		}
		addr += 4
	}
	core.CPU.a32Set(rb, addr)
	return nil
}

func (core *Core) thumbCondBranch(h uint16, pc uint64) error {
	cond := ConditionCode((h >> 8) & 0xF)
	if !core.CPU.PSTATE.EvaluateCondition(cond) {
		return nil
	}
	offset := int32(int8(h & 0xFF))
	target := uint32(int32(pc) + 4 + offset*2)
	core.CPU.Branch(uint64(target))
	return nil
}

func (core *Core) thumbUncondBranch(h uint16, pc uint64) error {
	offset := h & 0x7FF
	signed := int32(offset << 21 >> 21) // sign-extend 11 bits
	target := uint32(int32(pc) + 4 + signed*2)
	core.CPU.Branch(uint64(target))
	return nil
}

// executeThumb32 covers BL/BLX, the one Thumb-2 32-bit encoding common
// enough across ThumbEE-capable guest code to warrant first-class
// support; other 32-bit Thumb-2 encodings are out of this core's
// supplemented scope and fault undefined.
func (core *Core) executeThumb32(word uint32, pc uint64) error {
	hi := uint16(word >> 16)
	lo := uint16(word)

	if hi>>11 == 0b11110 && lo>>14 == 0b11 {
		s := (hi >> 10) & 1
		imm10 := hi & 0x3FF
		imm11 := lo & 0x7FF
		j1 := (lo >> 13) & 1
		j2 := (lo >> 11) & 1
		exchange := (lo>>12)&1 == 0 // BLX clears bit12

		i1 := ^(j1 ^ s) & 1
		i2 := ^(j2 ^ s) & 1
		imm32 := uint32(s)<<24 | uint32(i1)<<23 | uint32(i2)<<22 | uint32(imm10)<<12 | uint32(imm11)<<1
		if s != 0 {
			imm32 |= 0xFE000000 // sign-extend from bit 24
		}

		target := uint32(int32(pc) + 4 + int32(imm32))
		core.CPU.SetLR((uint32(pc) + 4) | 1)
		if exchange {
			target &^= 3
			core.CPU.PSTATE.JT = JTArm
			core.CPU.SetPC(uint64(target))
		} else {
			core.CPU.SetPC(uint64(target &^ 1))
		}
		return nil
	}

	return newFault(FaultUndefined, pc, pc, "unsupported Thumb-2 32-bit encoding")
}
