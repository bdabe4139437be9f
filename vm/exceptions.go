package vm

// vector performs architectural exception entry for fault: the mode/EL
// switch and vector-table branch, for both the AArch32 and AArch64
// exception models. It always succeeds: entry into the architecture's
// own fault handler cannot itself fault under this core's model.
func (core *Core) vector(fault *Fault) error {
	if core.CPU.PSTATE.RW == RW64 {
		core.vectorA64(fault)
		return nil
	}
	core.vectorA32(fault)
	return nil
}

// aarch32ExceptionClass maps a FaultKind onto the handful of AArch32
// exception classes, each with its own target mode, PC-offset, and
// vector slot: +4 for Prefetch Abort/IRQ/FIQ, +8 for Data Abort,
// unchanged return address for SVC since the instruction is not meant to
// be re-executed.
type aarch32ExceptionClass struct {
	mode       Mode
	vectorSlot uint64
	lrOffset   uint32 // added to the faulting instruction's address for LR
	maskF      bool
}

func classifyA32(kind FaultKind) (aarch32ExceptionClass, bool) {
	switch kind {
	case FaultReset:
		return aarch32ExceptionClass{ModeSVC, 0x00, 0, true}, true
	case FaultUndefined, FaultJazelleUndefined, FaultJazelleInvalid, FaultThumbEENullPtr, FaultThumbEEOutOfBounds:
		return aarch32ExceptionClass{ModeUND, 0x04, 4, false}, true
	case FaultSVC:
		return aarch32ExceptionClass{ModeSVC, 0x08, 4, false}, true
	case FaultSMC:
		return aarch32ExceptionClass{ModeMON, 0x08, 4, false}, true
	case FaultPrefetchAbort, FaultJazellePrefetchAbort:
		return aarch32ExceptionClass{ModeABT, 0x0C, 4, false}, true
	case FaultDataAbort, FaultJazelleNullPtr, FaultJazelleOutOfBounds, FaultUnaligned, FaultUnalignedSP:
		return aarch32ExceptionClass{ModeABT, 0x10, 8, false}, true
	case FaultHVC:
		return aarch32ExceptionClass{ModeHYP, 0x14, 4, false}, true
	case FaultIRQ:
		return aarch32ExceptionClass{ModeIRQ, 0x18, 4, true}, true
	case FaultFIQ:
		return aarch32ExceptionClass{ModeFIQ, 0x1C, 4, true}, true
	}
	return aarch32ExceptionClass{}, false
}

// vectorA32 performs AArch32/ARM26 exception entry: bank LR/SPSR into
// the target mode, switch CPSR mode/interrupt-mask bits, and branch to
// the vector table (base 0 or 0xFFFF0000 per SCTLR.V).
func (core *Core) vectorA32(fault *Fault) {
	class, ok := classifyA32(fault.Kind)
	if !ok {
		class = aarch32ExceptionClass{ModeUND, 0x04, 4, false}
	}

	oldPSTATE := core.CPU.PSTATE
	oldPC := core.CPU.PC()

	if oldPSTATE.RW == RW26 {
		// Address-exception model: no mode-banked SPSR, return address
		// saved directly in R14 of the target (ARM26 only ever had
		// USR/FIQ/IRQ/SVC26, so classify to the nearest 26-bit analog).
		target26 := map[Mode]Mode{
			ModeSVC: ModeSVC26, ModeUND: ModeSVC26, ModeABT: ModeSVC26,
			ModeIRQ: ModeIRQ26, ModeFIQ: ModeFIQ26, ModeHYP: ModeSVC26, ModeMON: ModeSVC26,
		}[class.mode]
		core.CPU.setLrFor(target26, uint32(oldPC)+class.lrOffset)
		core.CPU.PSTATE.Mode = target26
		core.CPU.PSTATE.I = true
		if class.maskF {
			core.CPU.PSTATE.F = true
		}
		core.CPU.SetPC(class.vectorSlot)
		return
	}

	core.CPU.setSpsrFor(class.mode, uint64(encodeCPSR(core.Config, oldPSTATE)))
	core.CPU.setLrFor(class.mode, uint32(oldPC)+class.lrOffset)

	core.CPU.PSTATE.Mode = class.mode
	core.CPU.PSTATE.JT = JTArm
	core.CPU.PSTATE.I = true
	if class.maskF {
		core.CPU.PSTATE.F = true
	}
	core.CPU.PSTATE.IT = 0

	base := uint64(0)
	if core.SCTLR1()&(1<<13) != 0 { // SCTLR.V, high vectors
		base = 0xFFFF0000
	}
	core.CPU.SetPC(base + class.vectorSlot)
}

// SCTLR1 is a convenience accessor for SCTLR_EL1/SCTLR (the only one this
// core's AArch32 vector-base decision consults).
func (core *Core) SCTLR1() uint64 {
	return core.CPU.SCTLR[1]
}

// aarch64ExceptionClass carries the VBAR offset band (current/lower EL,
// same/different SP) and a fixed per-kind intra-band offset.
func vbarOffset(targetEL, currentEL, sp uint8) uint64 {
	switch {
	case targetEL == currentEL && sp == 0:
		return 0x000
	case targetEL == currentEL && sp != 0:
		return 0x200
	case targetEL > currentEL:
		return 0x400
	default:
		return 0x600
	}
}

func faultSyndromeOffset(kind FaultKind) uint64 {
	switch kind {
	case FaultSError:
		return 0x180
	case FaultIRQ:
		return 0x080
	case FaultFIQ:
		return 0x100
	default:
		return 0x000
	}
}

// vectorA64 performs AArch64 exception entry: select the
// target EL (faults always raise to EL1 or higher, never lower), save
// PSTATE to SPSR_ELn and the return address to ELR_ELn, then branch to
// VBAR_ELn + band-offset + syndrome-offset with PSTATE set to the
// all-masked, SP-selecting-ELx state a handler expects to run in.
func (core *Core) vectorA64(fault *Fault) {
	targetEL := core.CPU.PSTATE.EL
	if targetEL == 0 {
		targetEL = 1
	}

	oldPSTATE := core.CPU.PSTATE
	core.CPU.setSpsrELFor(targetEL, uint64(encodeCPSR(core.Config, oldPSTATE)))
	core.CPU.setElrFor(targetEL, core.CPU.PC())

	band := vbarOffset(targetEL, oldPSTATE.EL, oldPSTATE.SP)
	offset := band + faultSyndromeOffset(fault.Kind)

	core.CPU.PSTATE.EL = targetEL
	core.CPU.PSTATE.SP = 1
	core.CPU.PSTATE.D = true
	core.CPU.PSTATE.A = true
	core.CPU.PSTATE.I = true
	core.CPU.PSTATE.F = true
	core.CPU.PSTATE.IT = 0
	core.CPU.PSTATE.SS = false
	core.CPU.PSTATE.IL = false

	core.CPU.SetPC(core.CPU.VBAR[targetEL] + offset)
}
