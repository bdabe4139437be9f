package vm

import "testing"

func TestModeBankingRoundTrip(t *testing.T) {
	// Scenario: write R13/R14 in SVC mode, switch to FIQ and back, confirm
	// SVC's banked values survived untouched.
	cpu := NewCPU(DefaultConfig())
	cpu.PSTATE.Mode = ModeSVC
	cpu.SetSP(0x1000)
	cpu.SetLR(0x2000)

	cpu.PSTATE.Mode = ModeFIQ
	cpu.SetSP(0x3000)
	cpu.SetLR(0x4000)

	cpu.PSTATE.Mode = ModeSVC
	if cpu.GetSP() != 0x1000 {
		t.Fatalf("SVC SP clobbered by FIQ bank: got 0x%x", cpu.GetSP())
	}
	if cpu.GetLR() != 0x2000 {
		t.Fatalf("SVC LR clobbered by FIQ bank: got 0x%x", cpu.GetLR())
	}
}

func TestUnbankedRegistersShareAcrossModes(t *testing.T) {
	cpu := NewCPU(DefaultConfig())
	cpu.PSTATE.Mode = ModeSVC
	cpu.SetRegister(R4, 0xAAAA)

	cpu.PSTATE.Mode = ModeFIQ
	if cpu.GetRegister(R4) != 0xAAAA {
		t.Fatal("R0-R7 must not be banked")
	}
}

func TestFIQBanksR8ThroughR12(t *testing.T) {
	cpu := NewCPU(DefaultConfig())
	cpu.PSTATE.Mode = ModeUSR
	cpu.SetRegister(R9, 0x1111)

	cpu.PSTATE.Mode = ModeFIQ
	cpu.SetRegister(R9, 0x2222)

	cpu.PSTATE.Mode = ModeUSR
	if cpu.GetRegister(R9) != 0x1111 {
		t.Fatalf("USR R9 clobbered by FIQ bank: got 0x%x", cpu.GetRegister(R9))
	}
}

func TestPCReadsAsAddressPlus8UnderARM(t *testing.T) {
	cpu := NewCPU(DefaultConfig())
	cpu.SetPC(0x8000)
	if got := cpu.GetRegister(PCReg); got != 0x8008 {
		t.Fatalf("expected PC+8 read under ARM, got 0x%x", got)
	}
}

func TestPCReadsAsAddressPlus4UnderThumb(t *testing.T) {
	cpu := NewCPU(DefaultConfig())
	cpu.PSTATE.JT = JTThumb
	cpu.SetPC(0x8000)
	if got := cpu.GetRegister(PCReg); got != 0x8004 {
		t.Fatalf("expected PC+4 read under Thumb, got 0x%x", got)
	}
}

func TestEncodeDecodeCPSRRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cpu := NewCPU(cfg)
	cpu.PSTATE.N, cpu.PSTATE.Z, cpu.PSTATE.C, cpu.PSTATE.V = true, false, true, false
	cpu.PSTATE.Mode = ModeSVC

	word := encodeCPSR(cfg, cpu.PSTATE)
	back := decodeCPSR(cfg, cpu.PSTATE, word)

	if back.N != cpu.PSTATE.N || back.Z != cpu.PSTATE.Z || back.C != cpu.PSTATE.C || back.V != cpu.PSTATE.V {
		t.Fatalf("NZCV did not round-trip: got %+v from %+v", back, cpu.PSTATE)
	}
	if back.Mode != cpu.PSTATE.Mode {
		t.Fatalf("Mode did not round-trip: got %v want %v", back.Mode, cpu.PSTATE.Mode)
	}
}

func TestLegacyBankingOnlyBanksFourModes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = ArchV1
	cpu := NewCPU(cfg)
	cpu.PSTATE.Mode = ModeSVC26
	cpu.SetSP(0x100)

	cpu.PSTATE.Mode = ModeIRQ26
	cpu.SetSP(0x200)

	cpu.PSTATE.Mode = ModeSVC26
	if cpu.GetSP() != 0x100 {
		t.Fatalf("legacy SVC26 SP clobbered: got 0x%x", cpu.GetSP())
	}
}

func TestExclusiveMonitorClearedAfterReset(t *testing.T) {
	cpu := NewCPU(DefaultConfig())
	if cpu.Monitor.Held() {
		t.Fatal("monitor must start cleared")
	}
}

func TestExclusiveMonitorCoversWithinReservation(t *testing.T) {
	var m ExclusiveMonitor
	m.Set(0x1000, 4)
	if !m.Covers(0x1000, 4) {
		t.Fatal("reservation should cover its own range")
	}
	if m.Covers(0x1004, 4) {
		t.Fatal("reservation should not cover an adjacent range")
	}
}
