package vm

// JazelleState holds the engine's own bookkeeping that does not fit in
// an architectural register: how many stack-cache entries have spilled
// to the memory-backed operand stack beneath R0-R3. Real hardware tracks
// this purely through R6 (the memory stack pointer) versus a known base;
// this core keeps an explicit counter instead since it never establishes
// that base pointer itself (see DESIGN.md).
type JazelleState struct {
	spilled int
}

func (j *JazelleState) reset() {
	j.spilled = 0
}

// Register roles for the Jazelle operand-stack cache:
// R0-R3 cache the top four stack slots (R0 = top-of-stack), R5 holds a
// control field whose low 3 bits mirror the cache depth, R6 is the
// memory-backed stack pointer for spilled entries, R7 points at the
// current frame's locals, and R8 points at the constant pool.
const (
	jzLocalsReg   = R7
	jzConstPool   = R8
	jzStackPtrReg = R6
	jzControlReg  = R5
)

func (core *Core) jzDepth() int {
	return int(core.CPU.a32Get(jzControlReg) & 0x7)
}

func (core *Core) jzSetDepth(d int) {
	ctrl := core.CPU.a32Get(jzControlReg) &^ 0x7
	core.CPU.a32Set(jzControlReg, ctrl|uint32(d&0x7))
}

// jzPush implements the cache's push side: when the 4-entry cache is
// full, the oldest cached value (R3) spills to the memory stack pointed
// to by R6 before the new value enters at R0.
func (core *Core) jzPush(v uint32) error {
	depth := core.jzDepth()
	if depth == 4 {
		sp := core.CPU.a32Get(jzStackPtrReg) - 4
		r3 := core.CPU.a32Get(R3)
		if err := core.Bus.Write32(uint64(sp), r3, core.privileged()); err != nil {
			return newFault(FaultJazelleOutOfBounds, core.CPU.PC(), uint64(sp), err.Error())
		}
		core.CPU.a32Set(jzStackPtrReg, sp)
		core.Jazelle.spilled++
		depth--
	}
	core.CPU.a32Set(R3, core.CPU.a32Get(R2))
	core.CPU.a32Set(R2, core.CPU.a32Get(R1))
	core.CPU.a32Set(R1, core.CPU.a32Get(R0))
	core.CPU.a32Set(R0, v)
	core.jzSetDepth(depth + 1)
	return nil
}

// jzPop implements the cache's pop side, refilling R3 from the memory
// stack if any entries had previously spilled: a push/pop sequence that
// stays within depth 4 must leave the cache exactly as it was, and one
// that exceeds depth 4 must spill and later refill in the same order.
func (core *Core) jzPop() (uint32, error) {
	depth := core.jzDepth()
	if depth == 0 {
		return 0, newFault(FaultJazelleUndefined, core.CPU.PC(), 0, "operand stack underflow")
	}
	v := core.CPU.a32Get(R0)
	core.CPU.a32Set(R0, core.CPU.a32Get(R1))
	core.CPU.a32Set(R1, core.CPU.a32Get(R2))
	core.CPU.a32Set(R2, core.CPU.a32Get(R3))
	depth--

	if core.Jazelle.spilled > 0 {
		sp := core.CPU.a32Get(jzStackPtrReg)
		filled, err := core.Bus.Read32(uint64(sp), core.privileged())
		if err != nil {
			return 0, newFault(FaultJazelleOutOfBounds, core.CPU.PC(), uint64(sp), err.Error())
		}
		core.CPU.a32Set(jzStackPtrReg, sp+4)
		core.CPU.a32Set(R3, filled)
		core.Jazelle.spilled--
		depth++
	}
	core.jzSetDepth(depth)
	return v, nil
}

// executeJazelle interprets one Jazelle bytecode at pc. Only a
// representative subset of the JVM bytecode set is implemented; anything
// else falls through to the handler-table-fallback fault the real
// architecture raises for bytecodes a Jazelle-Trivial core does not
// implement in hardware.
func (core *Core) executeJazelle(op uint8, pc uint64) error {
	switch {
	case op == 0x00: // nop
		return nil
	case op == 0x01: // aconst_null
		return core.jzPush(0)
	case op >= 0x02 && op <= 0x08: // iconst_m1..iconst_5
		return core.jzPush(uint32(int32(op) - 0x03))
	case op >= 0x1a && op <= 0x1d: // iload_0..3
		idx := int(op - 0x1a)
		local, err := core.Bus.Read32(uint64(core.CPU.a32Get(jzLocalsReg))+uint64(idx)*4, core.privileged())
		if err != nil {
			return newFault(FaultJazelleOutOfBounds, pc, 0, err.Error())
		}
		return core.jzPush(local)
	case op >= 0x3b && op <= 0x3e: // istore_0..3
		idx := int(op - 0x3b)
		v, err := core.jzPop()
		if err != nil {
			return err
		}
		addr := uint64(core.CPU.a32Get(jzLocalsReg)) + uint64(idx)*4
		if werr := core.Bus.Write32(addr, v, core.privileged()); werr != nil {
			return newFault(FaultJazelleOutOfBounds, pc, addr, werr.Error())
		}
		return nil
	case op == 0x60: // iadd
		b, err := core.jzPop()
		if err != nil {
			return err
		}
		a, err := core.jzPop()
		if err != nil {
			return err
		}
		return core.jzPush(a + b)
	case op == 0x64: // isub
		b, err := core.jzPop()
		if err != nil {
			return err
		}
		a, err := core.jzPop()
		if err != nil {
			return err
		}
		return core.jzPush(a - b)
	case op == 0x2e: // iaload: ..., arrayref, index -> ..., value
		index, err := core.jzPop()
		if err != nil {
			return err
		}
		arrayRef, err := core.jzPop()
		if err != nil {
			return err
		}
		if arrayRef == 0 {
			return newFault(FaultJazelleNullPtr, pc, 0, "")
		}
		length, err2 := core.Bus.Read32(uint64(arrayRef)-4, core.privileged())
		if err2 != nil {
			return newFault(FaultJazelleOutOfBounds, pc, uint64(arrayRef), err2.Error())
		}
		if index >= length {
			return newFault(FaultJazelleOutOfBounds, pc, uint64(arrayRef), "")
		}
		value, err3 := core.Bus.Read32(uint64(arrayRef)+uint64(index)*4, core.privileged())
		if err3 != nil {
			return newFault(FaultJazelleOutOfBounds, pc, uint64(arrayRef), err3.Error())
		}
		return core.jzPush(value)
	case op == 0xac: // ireturn: pop result, exit Jazelle to ARM at LR
		v, err := core.jzPop()
		if err != nil {
			return err
		}
		core.CPU.a32Set(R0, v)
		core.CPU.PSTATE.JT = JTArm
		core.CPU.SetPC(uint64(core.CPU.GetLR()) &^ 3)
		return nil
	case op == 0xb1: // return (void)
		core.CPU.PSTATE.JT = JTArm
		core.CPU.SetPC(uint64(core.CPU.GetLR()) &^ 3)
		return nil
	}
	return newFault(FaultJazelleUndefined, pc, 0, "bytecode not implemented in hardware, handler table fallback required")
}
