package vm

import "testing"

func newTestCore(t *testing.T) *Core {
	t.Helper()
	mem := NewSimpleMemory()
	core := Init(DefaultConfig(), 0, mem)
	core.CPU.SetPC(CodeSegmentStart)
	core.SetISA(ISAArm32)
	return core
}

func writeARMWord(t *testing.T, core *Core, addr uint64, word uint32) {
	t.Helper()
	if err := core.Bus.Write32(addr, word, true); err != nil {
		t.Fatalf("writing test instruction: %v", err)
	}
}

func TestStepExecutesMovImmediate(t *testing.T) {
	core := newTestCore(t)
	writeARMWord(t, core, CodeSegmentStart, 0xE3A00005) // MOV R0, #5

	if err := core.Step(); err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if got := core.CPU.GetRegister(R0); got != 5 {
		t.Fatalf("expected R0=5, got %d", got)
	}
	if core.CPU.PC() != CodeSegmentStart+4 {
		t.Fatalf("expected PC to advance by 4, got 0x%x", core.CPU.PC())
	}
}

func TestStepAdvancesCycleAndStepCounters(t *testing.T) {
	core := newTestCore(t)
	writeARMWord(t, core, CodeSegmentStart, 0xE3A00005)

	if err := core.Step(); err != nil {
		t.Fatal(err)
	}
	if core.Steps() != 1 {
		t.Fatalf("expected 1 step, got %d", core.Steps())
	}
	if core.CPU.Cycles != 1 {
		t.Fatalf("expected 1 cycle, got %d", core.CPU.Cycles)
	}
}

func TestStepOnReadOnlyCoprocessorWriteFaults(t *testing.T) {
	core := newTestCore(t)
	core.CaptureBreaks = true
	writeARMWord(t, core, CodeSegmentStart, 0xEE000F10) // MCR p15, 0, r0, c0, c0, 0 (read-only)

	err := core.Step()
	if err == nil {
		t.Fatal("expected a fault writing to the read-only id register")
	}
	fault, ok := err.(*Fault)
	if !ok {
		t.Fatalf("expected *Fault, got %T", err)
	}
	if fault.Kind != FaultUndefined {
		t.Fatalf("expected FaultUndefined, got %v", fault.Kind)
	}
}

func TestStepOnCoprocessorReadSucceeds(t *testing.T) {
	core := newTestCore(t)
	writeARMWord(t, core, CodeSegmentStart, 0xEE100F10) // MRC p15, 0, r0, c0, c0, 0

	if err := core.Step(); err != nil {
		t.Fatalf("unexpected fault reading id register: %v", err)
	}
	if core.CPU.GetRegister(R0) == 0 {
		t.Fatal("expected a nonzero id register value")
	}
}

func TestCaptureBreaksReturnsFaultInsteadOfVectoring(t *testing.T) {
	core := newTestCore(t)
	core.CaptureBreaks = true
	writeARMWord(t, core, CodeSegmentStart, 0xEF000000) // SWI 0

	err := core.Step()
	if err == nil {
		t.Fatal("expected an SVC fault")
	}
	fault, ok := err.(*Fault)
	if !ok {
		t.Fatalf("expected *Fault, got %T", err)
	}
	if fault.Kind != FaultSVC {
		t.Fatalf("expected FaultSVC, got %v", fault.Kind)
	}
	if core.CPU.PC() == CodeSegmentStart+4 {
		t.Fatal("CaptureBreaks must not advance PC past the faulting instruction")
	}
}

func TestSVCVectorsToSupervisorModeWhenNotCapturing(t *testing.T) {
	core := newTestCore(t)
	writeARMWord(t, core, CodeSegmentStart, 0xEF000000) // SWI 0

	if err := core.Step(); err != nil {
		t.Fatalf("vectoring should swallow the fault, got error: %v", err)
	}
	if core.CPU.PSTATE.Mode != ModeSVC {
		t.Fatalf("expected SVC mode after SWI, got %v", core.CPU.PSTATE.Mode)
	}
	if core.LastFault == nil || core.LastFault.Kind != FaultSVC {
		t.Fatal("expected LastFault to record the SVC")
	}
}

func TestRunStopsAtMaxSteps(t *testing.T) {
	core := newTestCore(t)
	for i := uint64(0); i < 4; i++ {
		writeARMWord(t, core, CodeSegmentStart+i*4, 0xE3A00005) // MOV R0, #5, repeated
	}
	if err := core.Run(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if core.Steps() != 3 {
		t.Fatalf("expected exactly 3 steps, got %d", core.Steps())
	}
}

func TestSetISARemapsUnsupportedISA(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SupportedISA = ISASet(0).With(ISAArm32)
	core := Init(cfg, 0, NewSimpleMemory())
	core.SetISA(ISAJazelle)
	if core.CurrentISA() != ISAArm32 {
		t.Fatalf("expected fallback to arm32, got %v", core.CurrentISA())
	}
}
