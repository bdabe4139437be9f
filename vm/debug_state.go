package vm

// DebugState is the opaque snapshot GetDebugState/DebugStateDiffOf
// operate on: the 33 banked AArch32 slots, the packed CPSR, PSTATE
// itself, the AArch64 X-registers and per-EL system registers, the
// Jazelle cache's visible registers, and the touched memory range since
// the last Step.
type DebugState struct {
	Slots [regSlotCount]uint64
	PC    uint64
	CPSR  uint32

	PSTATE PSTATE

	X  [31]uint64
	SP [4]uint64 // SP_EL0..SP_EL3

	JazelleCache [4]uint32 // R0-R3 as the Jazelle engine currently sees them
	JazelleDepth int

	MemLow, MemHigh uint64
	MemTouched      bool

	Fault *Fault
}

// GetDebugState returns a full, independent copy of every piece of state
// a host debugger or test harness needs to inspect, never a reference
// into the live CPU.
func (core *Core) GetDebugState() DebugState {
	d := DebugState{
		Slots:  core.CPU.Regs.slots,
		PC:     core.CPU.PC(),
		CPSR:   encodeCPSR(core.Config, core.CPU.PSTATE),
		PSTATE: core.CPU.PSTATE,
		X:      core.CPU.Regs.x,
		SP: [4]uint64{
			core.CPU.Regs.spEL0, core.CPU.Regs.spEL1,
			core.CPU.Regs.spEL2, core.CPU.Regs.spEL3,
		},
		JazelleCache: [4]uint32{
			core.CPU.a32Get(R0), core.CPU.a32Get(R1),
			core.CPU.a32Get(R2), core.CPU.a32Get(R3),
		},
		JazelleDepth: core.jzDepth(),
		Fault:        core.LastFault,
	}
	d.MemLow, d.MemHigh, d.MemTouched = core.Bus.TouchedRange()
	return d
}

// DebugStateDiff is a field-by-field comparison between two snapshots:
// only the fields that actually changed, so a host can render a compact
// single-step trace instead of two full dumps.
type DebugStateDiff struct {
	Slots        map[int][2]uint64
	PCChanged    bool
	OldPC, NewPC uint64
	CPSRChanged  bool
	OldCPSR, NewCPSR uint32
	XChanged     map[int][2]uint64
	MemLow, MemHigh uint64
	MemTouched   bool
}

// DebugStateDiffOf computes the diff between two snapshots taken before
// and after a Step.
func DebugStateDiffOf(before, after DebugState) DebugStateDiff {
	diff := DebugStateDiff{
		Slots: map[int][2]uint64{},
		XChanged: map[int][2]uint64{},
	}
	for i := range before.Slots {
		if before.Slots[i] != after.Slots[i] {
			diff.Slots[i] = [2]uint64{before.Slots[i], after.Slots[i]}
		}
	}
	for i := range before.X {
		if before.X[i] != after.X[i] {
			diff.XChanged[i] = [2]uint64{before.X[i], after.X[i]}
		}
	}
	if before.PC != after.PC {
		diff.PCChanged = true
		diff.OldPC, diff.NewPC = before.PC, after.PC
	}
	if before.CPSR != after.CPSR {
		diff.CPSRChanged = true
		diff.OldCPSR, diff.NewCPSR = before.CPSR, after.CPSR
	}
	diff.MemLow, diff.MemHigh, diff.MemTouched = after.MemLow, after.MemHigh, after.MemTouched
	return diff
}
