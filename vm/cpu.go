package vm

// CPU holds the register file and PSTATE: the banked general-purpose
// registers, the structured processor state, the system control
// registers, the exclusive monitor, and the cycle counter. It is
// deliberately free of anything memory/dispatch related so it can be
// unit tested in isolation.
type CPU struct {
	Config Config

	Regs   RegFile
	PSTATE PSTATE

	SCTLR  [4]uint64 // SCTLR_EL1..EL3, index 0 unused
	SCREL3 uint64
	HCREL2 uint64
	VBAR   [4]uint64 // VBAR_EL1..EL3, index 0 unused

	Monitor ExclusiveMonitor

	Cycles uint64
}

// NewCPU creates a CPU configured per cfg, reset to its architectural
// power-on state: ARM32/SVC mode for 32-bit-capable cores, EL1 for
// AArch64-only cores.
func NewCPU(cfg Config) *CPU {
	c := &CPU{Config: cfg}
	c.Reset()
	return c
}

// Reset returns the CPU to its initial state without altering Config.
func (c *CPU) Reset() {
	c.Regs = RegFile{}
	c.Monitor = ExclusiveMonitor{Start: 1, End: 0} // start>end: cleared
	c.Cycles = 0

	switch {
	case c.Config.Features.Has(FeatureARM64):
		c.PSTATE = PSTATE{RW: RW64, EL: 1, SP: 1}
	case c.Config.Features.Has(FeatureARM26):
		c.PSTATE = PSTATE{RW: RW26, Mode: ModeSVC26}
	default:
		c.PSTATE = PSTATE{RW: RW32, Mode: ModeSVC, I: true, F: true}
	}
}

// GetSP / SetSP operate on the current mode's banked SP (R13).
func (c *CPU) GetSP() uint32 {
	return c.GetRegister(SP)
}

func (c *CPU) SetSP(value uint32) {
	c.SetRegister(SP, value)
}

// GetLR / SetLR operate on the current mode's banked LR (R14).
func (c *CPU) GetLR() uint32 {
	return c.GetRegister(LR)
}

func (c *CPU) SetLR(value uint32) {
	c.SetRegister(LR, value)
}

// PC returns the raw program counter (not the PC+offset view; use
// a32Get(15) for the architectural read-as-PC+4/PC+8 behavior).
func (c *CPU) PC() uint64 {
	return c.Regs.pc
}

func (c *CPU) SetPC(v uint64) {
	c.Regs.pc = v
}

// IncrementPC advances PC by 4, the ARM/ARM26 instruction size. Thumb and
// Jazelle fetch advance PC themselves in dispatch.go since their step
// size varies by encoding.
func (c *CPU) IncrementPC() {
	c.Regs.pc += 4
	if c.PSTATE.RW == RW26 {
		c.Regs.pc &= 0x03FFFFFC
	}
}

func (c *CPU) Branch(address uint64) {
	c.SetPC(address)
}

func (c *CPU) BranchWithLink(address uint64) {
	c.SetLR(uint32(c.Regs.pc + 4))
	c.SetPC(address)
}

func (c *CPU) IncrementCycles(cycles uint64) {
	c.Cycles += cycles
}

// ExclusiveMonitor models the per-core reservation used by the
// LDREX/STREX family. Start<=End means a reservation is held over
// [Start,End]; Start>End means cleared.
type ExclusiveMonitor struct {
	Start, End uint64
}

func (m *ExclusiveMonitor) Held() bool {
	return m.Start <= m.End
}

func (m *ExclusiveMonitor) Set(addr uint64, size int) {
	m.Start = addr
	m.End = addr + uint64(size) - 1
}

func (m *ExclusiveMonitor) Clear() {
	m.Start, m.End = 1, 0
}

func (m *ExclusiveMonitor) Covers(addr uint64, size int) bool {
	if !m.Held() {
		return false
	}
	end := addr + uint64(size) - 1
	return addr >= m.Start && end <= m.End
}
