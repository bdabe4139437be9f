package vm

import "testing"

func TestSingleTransferStoreThenLoadRoundTrip(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetRegister(R0, DataSegmentStart)
	core.CPU.SetRegister(R1, 0xDEADBEEF)

	if err := core.execSingleTransfer(0x01801000, CodeSegmentStart); err != nil { // STR R1, [R0]
		t.Fatal(err)
	}
	if err := core.execSingleTransfer(0x01902000, CodeSegmentStart); err != nil { // LDR R2, [R0]
		t.Fatal(err)
	}
	if got := core.CPU.GetRegister(R2); got != 0xDEADBEEF {
		t.Fatalf("expected round-tripped 0xDEADBEEF, got 0x%x", got)
	}
}

func TestSingleTransferByteZeroExtends(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetRegister(R0, DataSegmentStart)
	if err := core.Bus.Write8(uint64(DataSegmentStart), 0xFE, true); err != nil {
		t.Fatal(err)
	}
	if err := core.execSingleTransfer(0x01D02000, CodeSegmentStart); err != nil { // LDRB R2, [R0]
		t.Fatal(err)
	}
	if got := core.CPU.GetRegister(R2); got != 0xFE {
		t.Fatalf("expected zero-extended 0xFE, got 0x%x", got)
	}
}

func TestReadAlignedLoadRotatesOnPreV6Core(t *testing.T) {
	// Scenario S1.
	cfg := DefaultConfig()
	cfg.Version = ArchV4
	core := Init(cfg, 0, NewSimpleMemory())
	core.SetISA(ISAArm32)
	core.CPU.SetRegister(R0, DataSegmentStart)
	if err := core.Bus.Write32(uint64(DataSegmentStart), 0x11223344, true); err != nil {
		t.Fatal(err)
	}

	if err := core.execSingleTransfer(0x01902001, CodeSegmentStart); err != nil { // LDR R2, [R0, #1]
		t.Fatal(err)
	}
	want := uint32(0x44112233)
	if got := core.CPU.GetRegister(R2); got != want {
		t.Fatalf("expected rotated load 0x%x, got 0x%x", want, got)
	}
}

func TestSingleTransferFaultsOnStrictMisalignmentWhenV6OrLater(t *testing.T) {
	core := newTestCore(t) // DefaultConfig is ArchV7
	core.CPU.SetRegister(R0, DataSegmentStart)
	if err := core.Bus.Write32(uint64(DataSegmentStart), 0x11223344, true); err != nil {
		t.Fatal(err)
	}

	err := core.execSingleTransfer(0x01902001, CodeSegmentStart) // LDR R2, [R0, #1]
	if err == nil {
		t.Fatal("expected an alignment fault on a v7 core")
	}
}

func TestHalfwordTransferStoreThenLoadRoundTrip(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetRegister(R0, DataSegmentStart)
	core.CPU.SetRegister(R1, 0xBEEF)

	if err := core.execHalfwordTransfer(0x01C01020); err != nil { // STRH R1, [R0]
		t.Fatal(err)
	}
	if err := core.execHalfwordTransfer(0x01D02020); err != nil { // LDRH R2, [R0]
		t.Fatal(err)
	}
	if got := core.CPU.GetRegister(R2); got != 0xBEEF {
		t.Fatalf("expected 0xBEEF, got 0x%x", got)
	}
}

func TestSingleTransferWritebackUpdatesBaseRegister(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetRegister(R0, DataSegmentStart)
	core.CPU.SetRegister(R1, 0x1)
	// STR R1, [R0], #4 (post-indexed: P=0, U=1, W=0, Rn=0, Rd=1, offset=4)
	word := (uint32(0) << 24) | (uint32(1) << 23) | (uint32(0) << 16) | (uint32(1) << 12) | 4
	if err := core.execSingleTransfer(word, CodeSegmentStart); err != nil {
		t.Fatal(err)
	}
	if core.CPU.GetRegister(R0) != DataSegmentStart+4 {
		t.Fatalf("expected base register writeback to DataSegmentStart+4, got 0x%x", core.CPU.GetRegister(R0))
	}
}
