package vm

// Register numbering constants, for readability at call sites that
// still talk about "R0".."R14".
const (
	R0  = 0
	R1  = 1
	R2  = 2
	R3  = 3
	R4  = 4
	R5  = 5
	R6  = 6
	R7  = 7
	R8  = 8
	R9  = 9
	R10 = 10
	R11 = 11
	R12 = 12
	SP  = 13
	LR  = 14
	PCReg = 15
)

// regSlotCount is the size of the flat banked-register array: R0-R7 (8,
// unbanked) + R8-R12 usr/fiq banks (5+5) + R13/R14 for usr, fiq, irq, svc,
// abt, und, mon (2*7=14) + R13_hyp (1) = 33 logical storage slots.
const regSlotCount = 33

const (
	slotR0 = iota
	slotR1
	slotR2
	slotR3
	slotR4
	slotR5
	slotR6
	slotR7
	slotR8Usr
	slotR9Usr
	slotR10Usr
	slotR11Usr
	slotR12Usr
	slotR8Fiq
	slotR9Fiq
	slotR10Fiq
	slotR11Fiq
	slotR12Fiq
	slotR13Usr
	slotR14Usr
	slotR13Fiq
	slotR14Fiq
	slotR13Irq
	slotR14Irq
	slotR13Svc
	slotR14Svc
	slotR13Abt
	slotR14Abt
	slotR13Und
	slotR14Und
	slotR13Mon
	slotR14Mon
	slotR13Hyp
)

// slotOf maps an architectural register number (0-14) and the current
// AArch32 mode to an index into RegFile.slots. legacy selects the ARMv1
// table, which only ever banks USR26/FIQ26/IRQ26/SVC26 since ARMv1 had
// fewer banked modes than later architecture versions.
func slotOf(reg int, mode Mode, legacy bool) int {
	if legacy {
		switch {
		case reg >= 8 && reg <= 12:
			if mode == ModeFIQ26 {
				return slotR8Fiq + (reg - 8)
			}
			return slotR8Usr + (reg - 8)
		case reg == 13 || reg == 14:
			bank := slotR13Usr
			switch mode {
			case ModeFIQ26:
				bank = slotR13Fiq
			case ModeIRQ26:
				bank = slotR13Irq
			case ModeSVC26:
				bank = slotR13Svc
			}
			if reg == 14 {
				bank++
			}
			return bank
		}
		return -1
	}

	switch {
	case reg >= 8 && reg <= 12:
		if mode == ModeFIQ {
			return slotR8Fiq + (reg - 8)
		}
		return slotR8Usr + (reg - 8)
	case reg == 13 || reg == 14:
		var bank int
		switch mode {
		case ModeFIQ:
			bank = slotR13Fiq
		case ModeIRQ:
			bank = slotR13Irq
		case ModeSVC:
			bank = slotR13Svc
		case ModeABT:
			bank = slotR13Abt
		case ModeUND:
			bank = slotR13Und
		case ModeMON:
			bank = slotR13Mon
		case ModeHYP:
			if reg == 13 {
				return slotR13Hyp
			}
			// Hyp mode has no banked LR; it uses ELR_HYP instead, kept
			// outside the 33-slot array (see RegFile.elrHyp).
			bank = slotR13Usr
		default:
			bank = slotR13Usr
		}
		if reg == 14 {
			bank++
		}
		return bank
	}
	return -1
}

// RegFile holds every physical storage slot: the 33-slot banked AArch32
// array, the separate program counter, the four AArch64 stack pointers,
// and the per-EL exception-link / saved-program-state registers.
type RegFile struct {
	slots [regSlotCount]uint64
	pc    uint64

	x [31]uint64 // AArch64 X0-X30, kept separate from the AArch32 bank
	// rather than physically unified with it; see DESIGN.md.

	spEL0, spEL1, spEL2, spEL3 uint64
	elrEL1, elrEL2, elrEL3     uint64
	spsrEL1, spsrEL2, spsrEL3  uint64

	spsrAbt, spsrUnd, spsrIrq, spsrFiq, spsrSvc, spsrMon, spsrHyp uint64
	elrHyp                                                        uint64
}

func (c *CPU) legacyBanking() bool {
	return c.Config.Version == ArchV1 || c.Config.Version == ArchV2
}

// a32Get reads an AArch32 register: reading R15 returns PC+4 in
// ARM/ARM26 state (matching the internal PC already pointing one
// instruction ahead of the executing one under this core's pipeline
// model) and PC+2 in Thumb/ThumbEE state.
func (c *CPU) a32Get(reg int) uint32 {
	if reg == PCReg {
		if c.PSTATE.JT == JTThumb || c.PSTATE.JT == JTThumbEE {
			return uint32(c.Regs.pc + 2)
		}
		return uint32(c.Regs.pc + 4)
	}
	idx := slotOf(reg, c.PSTATE.Mode, c.legacyBanking())
	if idx < 0 {
		return 0
	}
	return uint32(c.Regs.slots[idx])
}

// a32Set writes an AArch32 register, applying the PC-masking rule for the
// current register width: 26-bit cores mask writes to bits [25:2] and
// force bit0/1 clear, 32-bit ARM masks to word alignment, Thumb masks to
// halfword alignment.
func (c *CPU) a32Set(reg int, v uint32) {
	if reg == PCReg {
		switch {
		case c.PSTATE.RW == RW26:
			c.Regs.pc = uint64(v & 0x03FFFFFC)
		case c.PSTATE.JT == JTThumb || c.PSTATE.JT == JTThumbEE:
			c.Regs.pc = uint64(v &^ 1)
		default:
			c.Regs.pc = uint64(v &^ 3)
		}
		return
	}
	idx := slotOf(reg, c.PSTATE.Mode, c.legacyBanking())
	if idx < 0 {
		return
	}
	c.Regs.slots[idx] = uint64(v)
}

// a32SetInterworking implements BX/LDR-to-PC interworking: the low bit of
// v selects Thumb when the architecture version supports interworking for
// the calling instruction family.
func (c *CPU) a32SetInterworking(reg int, v uint32, minVersion ArchVersion) {
	if reg != PCReg || c.PSTATE.RW == RW26 {
		c.a32Set(reg, v)
		return
	}
	if c.Config.Version >= minVersion && c.Config.Features.Has(FeatureTHUMB) {
		if v&1 != 0 {
			c.PSTATE.JT = legalizeJT(c.Config, JTThumb)
		} else {
			c.PSTATE.JT = JTArm
		}
	}
	c.a32Set(reg, v)
}

// a64Get reads an AArch64 register. Register 31 is the zero register when
// suppressSP is set, otherwise the stack pointer selected by PSTATE.SP/EL.
func (c *CPU) a64Get(reg int, suppressSP bool) uint64 {
	if reg == 31 {
		if suppressSP {
			return 0
		}
		return c.spForCurrentEL()
	}
	return c.Regs.x[reg]
}

// a64Set writes an AArch64 register under the same register-31 rule as
// a64Get.
func (c *CPU) a64Set(reg int, suppressSP bool, v uint64) {
	if reg == 31 {
		if suppressSP {
			return
		}
		c.setSPForCurrentEL(v)
		return
	}
	c.Regs.x[reg] = v
}

func (c *CPU) spForCurrentEL() uint64 {
	if c.PSTATE.SP == 0 {
		return c.Regs.spEL0
	}
	switch c.PSTATE.EL {
	case 1:
		return c.Regs.spEL1
	case 2:
		return c.Regs.spEL2
	case 3:
		return c.Regs.spEL3
	default:
		return c.Regs.spEL0
	}
}

func (c *CPU) setSPForCurrentEL(v uint64) {
	if c.PSTATE.SP == 0 {
		c.Regs.spEL0 = v
		return
	}
	switch c.PSTATE.EL {
	case 1:
		c.Regs.spEL1 = v
	case 2:
		c.Regs.spEL2 = v
	case 3:
		c.Regs.spEL3 = v
	default:
		c.Regs.spEL0 = v
	}
}

// elrFor / setElrFor access ELR_ELn for n in {1,2,3}.
func (c *CPU) elrFor(el uint8) uint64 {
	switch el {
	case 1:
		return c.Regs.elrEL1
	case 2:
		return c.Regs.elrEL2
	case 3:
		return c.Regs.elrEL3
	}
	return 0
}

func (c *CPU) setElrFor(el uint8, v uint64) {
	switch el {
	case 1:
		c.Regs.elrEL1 = v
	case 2:
		c.Regs.elrEL2 = v
	case 3:
		c.Regs.elrEL3 = v
	}
}

func (c *CPU) spsrELFor(el uint8) uint64 {
	switch el {
	case 1:
		return c.Regs.spsrEL1
	case 2:
		return c.Regs.spsrEL2
	case 3:
		return c.Regs.spsrEL3
	}
	return 0
}

func (c *CPU) setSpsrELFor(el uint8, v uint64) {
	switch el {
	case 1:
		c.Regs.spsrEL1 = v
	case 2:
		c.Regs.spsrEL2 = v
	case 3:
		c.Regs.spsrEL3 = v
	}
}

// spsrFor / setSpsrFor access the banked AArch32 SPSR for mode m. USR and
// SYS modes have no SPSR; callers must not reach them here.
func (c *CPU) spsrFor(mode Mode) uint64 {
	switch mode {
	case ModeABT:
		return c.Regs.spsrAbt
	case ModeUND:
		return c.Regs.spsrUnd
	case ModeIRQ:
		return c.Regs.spsrIrq
	case ModeFIQ:
		return c.Regs.spsrFiq
	case ModeSVC:
		return c.Regs.spsrSvc
	case ModeMON:
		return c.Regs.spsrMon
	case ModeHYP:
		return c.Regs.spsrHyp
	}
	return 0
}

func (c *CPU) setSpsrFor(mode Mode, v uint64) {
	switch mode {
	case ModeABT:
		c.Regs.spsrAbt = v
	case ModeUND:
		c.Regs.spsrUnd = v
	case ModeIRQ:
		c.Regs.spsrIrq = v
	case ModeFIQ:
		c.Regs.spsrFiq = v
	case ModeSVC:
		c.Regs.spsrSvc = v
	case ModeMON:
		c.Regs.spsrMon = v
	case ModeHYP:
		c.Regs.spsrHyp = v
	}
}

// lrFor / setLrFor read/write the banked LR (R14) for an arbitrary mode,
// independent of the CPU's *current* mode. Used by exception entry, which
// must write the target mode's LR while still executing in the source
// mode's view of the register file.
func (c *CPU) lrFor(mode Mode) uint32 {
	idx := slotOf(14, mode, c.legacyBanking())
	if idx < 0 {
		return 0
	}
	return uint32(c.Regs.slots[idx])
}

func (c *CPU) setLrFor(mode Mode, v uint32) {
	idx := slotOf(14, mode, c.legacyBanking())
	if idx < 0 {
		return
	}
	c.Regs.slots[idx] = uint64(v)
}

func (c *CPU) spFor(mode Mode) uint32 {
	idx := slotOf(13, mode, c.legacyBanking())
	if idx < 0 {
		return 0
	}
	return uint32(c.Regs.slots[idx])
}

func (c *CPU) setSpFor(mode Mode, v uint32) {
	idx := slotOf(13, mode, c.legacyBanking())
	if idx < 0 {
		return
	}
	c.Regs.slots[idx] = uint64(v)
}

// GetRegister/SetRegister are thin wrappers over a32Get/a32Set so code
// and tests that think in terms of "the current mode's R0-R15" keep
// working on cores that never leave ARM32/USR mode.
func (c *CPU) GetRegister(reg int) uint32 {
	return c.a32Get(reg)
}

func (c *CPU) SetRegister(reg int, value uint32) {
	c.a32Set(reg, value)
}

// a32SetCPSRNZCV implements the classic "ALU instruction writes R15 while
// S=1" shortcut: in 32-bit mode this copies SPSR into
// CPSR (the exception-return idiom); in ARM26 mode the same opcode shape
// instead restores I/F/mode from the low byte of the ALU result, which is
// handled by the data-processing executor directly (see
// restoreARM26FromResult in data_processing.go) since it needs the result
// value, not just the flag bits.
func (c *CPU) a32SetCPSRNZCV(cfg Config) {
	if c.PSTATE.RW == RW26 {
		return
	}
	spsr := c.spsrFor(c.PSTATE.Mode)
	c.PSTATE = decodeCPSR(cfg, c.PSTATE, uint32(spsr))
}
