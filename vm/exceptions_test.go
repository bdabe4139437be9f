package vm

import "testing"

func TestVectorA32UndefinedEntersUndMode(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetPC(0x8100)
	fault := newFault(FaultUndefined, 0x8100, 0, "undefined")

	core.vectorA32(fault)

	if core.CPU.PSTATE.Mode != ModeUND {
		t.Fatalf("expected UND mode, got %v", core.CPU.PSTATE.Mode)
	}
	if core.CPU.PC() != 0x04 {
		t.Fatalf("expected vector slot 0x04, got 0x%x", core.CPU.PC())
	}
	if core.CPU.GetLR() != 0x8100+4 {
		t.Fatalf("expected LR = fault PC + 4, got 0x%x", core.CPU.GetLR())
	}
}

func TestVectorA32DataAbortUsesPlusEightOffset(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetPC(0x9000)
	fault := newFault(FaultDataAbort, 0x9000, 0x1234, "data abort")

	core.vectorA32(fault)

	if core.CPU.PSTATE.Mode != ModeABT {
		t.Fatalf("expected ABT mode, got %v", core.CPU.PSTATE.Mode)
	}
	if core.CPU.GetLR() != 0x9000+8 {
		t.Fatalf("expected LR = fault PC + 8, got 0x%x", core.CPU.GetLR())
	}
}

func TestVectorA32HighVectorsRespectsSCTLRV(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SCTLR[1] |= 1 << 13
	fault := newFault(FaultUndefined, 0x100, 0, "undefined")

	core.vectorA32(fault)

	if core.CPU.PC() != 0xFFFF0000+0x04 {
		t.Fatalf("expected high vector base, got 0x%x", core.CPU.PC())
	}
}

func TestVectorA32SavesSPSRForTargetMode(t *testing.T) {
	core := newTestCore(t)
	core.CPU.PSTATE.Z = true
	oldCPSR := encodeCPSR(core.Config, core.CPU.PSTATE)
	fault := newFault(FaultUndefined, 0x100, 0, "undefined")

	core.vectorA32(fault)

	if core.CPU.spsrFor(ModeUND) != uint64(oldCPSR) {
		t.Fatalf("expected SPSR_und to capture pre-fault CPSR, got 0x%x want 0x%x",
			core.CPU.spsrFor(ModeUND), oldCPSR)
	}
}

func TestVectorA32IRQMasksFIQToo(t *testing.T) {
	core := newTestCore(t)
	fault := newFault(FaultIRQ, 0x100, 0, "irq")

	core.vectorA32(fault)

	if !core.CPU.PSTATE.I || !core.CPU.PSTATE.F {
		t.Fatal("IRQ entry must mask both I and F")
	}
}

func TestVectorA64SavesELRAndEntersEL1FromEL0(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features = cfg.Features.With(FeatureARM64)
	core := Init(cfg, 0, NewSimpleMemory())
	core.CPU.PSTATE.RW = RW64
	core.CPU.PSTATE.EL = 0
	core.CPU.SetPC(0x40000)
	core.CPU.VBAR[1] = 0x80000

	fault := newFault(FaultSVC, 0x40000, 0, "svc")
	core.vectorA64(fault)

	if core.CPU.PSTATE.EL != 1 {
		t.Fatalf("expected EL1 after an EL0 exception, got EL%d", core.CPU.PSTATE.EL)
	}
	if core.CPU.elrFor(1) != 0x40000 {
		t.Fatalf("expected ELR_EL1 = 0x40000, got 0x%x", core.CPU.elrFor(1))
	}
	if core.CPU.PC() != 0x80000 {
		t.Fatalf("expected branch to VBAR_EL1+0x000, got 0x%x", core.CPU.PC())
	}
}

func TestVectorA64MasksAllInterruptSources(t *testing.T) {
	cfg := DefaultConfig()
	core := Init(cfg, 0, NewSimpleMemory())
	core.CPU.PSTATE.RW = RW64
	fault := newFault(FaultSVC, 0, 0, "svc")

	core.vectorA64(fault)

	p := core.CPU.PSTATE
	if !p.D || !p.A || !p.I || !p.F {
		t.Fatal("exception entry must mask D/A/I/F")
	}
}
