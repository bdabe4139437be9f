package vm

import "testing"

func TestExecuteARMSkipsInstructionWhenConditionFails(t *testing.T) {
	core := newTestCore(t)
	core.CPU.PSTATE.Z = true // NE requires Z==0, so this condition fails
	core.CPU.SetRegister(R0, 0xAAAA)

	// MOVNE R0, #5 (cond=NE): 0xE3A00005 with top nibble replaced by NE(0x1).
	word := uint32(0x13A00005)
	if err := core.executeARM(word, uint64(CodeSegmentStart)); err != nil {
		t.Fatal(err)
	}
	if got := core.CPU.GetRegister(R0); got != 0xAAAA {
		t.Fatalf("expected R0 untouched by a failed-condition instruction, got 0x%x", got)
	}
}

func TestExecuteARMDispatchesBranch(t *testing.T) {
	core := newTestCore(t)
	pc := uint64(CodeSegmentStart)
	core.CPU.SetPC(pc)

	// BAL with a forward offset of 1 word: cond=AL(0xE), bits27-25=101.
	word := uint32(0xEA000001)
	if err := core.executeARM(word, pc); err != nil {
		t.Fatal(err)
	}
	want := uint64(pc + 8 + 4)
	if got := core.CPU.PC(); got != want {
		t.Fatalf("expected branch dispatch to land on PC=0x%x, got 0x%x", want, got)
	}
}

func TestExecuteARMDispatchesSWIAsFault(t *testing.T) {
	core := newTestCore(t)
	pc := uint64(CodeSegmentStart)

	// SWI 0: cond=AL, bits 27-24 = 1111.
	word := uint32(0xEF000000)
	err := core.executeARM(word, pc)
	fault, ok := err.(*Fault)
	if !ok || fault.Kind != FaultSVC {
		t.Fatalf("expected FaultSVC, got %v", err)
	}
}

func TestExecuteARMDispatchesMultiplyOverDataProcessing(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetRegister(R1, 6)
	core.CPU.SetRegister(R2, 7)

	// MUL R0, R1, R2: would also match the bits27-26==00 data-processing
	// range, so dispatch order must prefer the multiply decode.
	word := uint32(0xE0000291)
	if err := core.executeARM(word, uint64(CodeSegmentStart)); err != nil {
		t.Fatal(err)
	}
	if got := core.CPU.GetRegister(R0); got != 42 {
		t.Fatalf("expected the multiply decode to run (6*7=42), got %d", got)
	}
}

func TestExecBXSwitchesToThumbWhenTargetBit0Set(t *testing.T) {
	core := newTestCore(t)
	target := uint32(CodeSegmentStart) + 0x40 + 1
	core.CPU.SetRegister(R1, target)

	// BX R1.
	word := uint32(BXEncodingBase) | uint32(R1)
	if err := core.execBX(word, false); err != nil {
		t.Fatal(err)
	}
	if core.CPU.PSTATE.JT != JTThumb {
		t.Fatal("expected interworking branch to odd address to select Thumb state")
	}
	want := uint64(target &^ 1)
	if core.CPU.PC() != want {
		t.Fatalf("expected PC=0x%x (low bit cleared), got 0x%x", want, core.CPU.PC())
	}
}

func TestExecBXWithLinkSetsLR(t *testing.T) {
	core := newTestCore(t)
	pc := uint64(CodeSegmentStart)
	core.CPU.SetPC(pc)
	core.CPU.SetRegister(R2, uint32(CodeSegmentStart)+0x80)

	// BLX R2.
	word := uint32(BLXEncodingBase) | uint32(R2)
	if err := core.execBX(word, true); err != nil {
		t.Fatal(err)
	}
	if got := core.CPU.GetLR(); got != uint32(pc)+4 {
		t.Fatalf("expected LR=0x%x, got 0x%x", uint32(pc)+4, got)
	}
}
