package vm

import "testing"

func TestMultiplyComputesProductWithoutAccumulate(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetRegister(R1, 6)
	core.CPU.SetRegister(R2, 7)

	// MUL R0, R1, R2: Rd=R0 (Rn-position), Rs=R2, Rm=R1, A=0, S=0.
	word := uint32(R0)<<RnShift | uint32(R2)<<RsShift | uint32(R1)
	if err := core.execMultiply(word); err != nil {
		t.Fatal(err)
	}
	if got := core.CPU.GetRegister(R0); got != 42 {
		t.Fatalf("expected 6*7=42, got %d", got)
	}
}

func TestMultiplyAccumulateAddsAndUpdatesFlags(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetRegister(R1, 6)
	core.CPU.SetRegister(R2, 7)
	core.CPU.SetRegister(R4, 100)

	// MLAS R3, R1, R2, R4: Rd=R3, accumulate operand Rn=R4 (Rd-position),
	// Rs=R2, Rm=R1, A=1, S=1.
	word := uint32(R3)<<RnShift | uint32(R4)<<RdShift | uint32(R2)<<RsShift | uint32(R1) |
		uint32(1)<<MultiplyAShift | uint32(1)<<SBitShift
	if err := core.execMultiply(word); err != nil {
		t.Fatal(err)
	}
	if got := core.CPU.GetRegister(R3); got != 142 {
		t.Fatalf("expected 6*7+100=142, got %d", got)
	}
	if core.CPU.PSTATE.Z || core.CPU.PSTATE.N {
		t.Fatal("expected a positive nonzero result to clear both N and Z")
	}
}

func TestLongMultiplyUnsignedSplitsResultAcrossRdHiRdLo(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetRegister(R2, 0xFFFFFFFF)
	core.CPU.SetRegister(R3, 2)

	// UMULL R0, R1, R2, R3: RdLo=R0, RdHi=R1 (Rn-position), Rs=R3, Rm=R2.
	word := uint32(R1)<<RnShift | uint32(R0)<<RdShift | uint32(R3)<<RsShift | uint32(R2)
	if err := core.execLongMultiply(word); err != nil {
		t.Fatal(err)
	}
	if got := core.CPU.GetRegister(R0); got != 0xFFFFFFFE {
		t.Fatalf("expected RdLo=0xFFFFFFFE, got 0x%x", got)
	}
	if got := core.CPU.GetRegister(R1); got != 1 {
		t.Fatalf("expected RdHi=1, got 0x%x", got)
	}
}

func TestLongMultiplySignedTreatsOperandsAsNegative(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetRegister(R2, 0xFFFFFFFF) // -1
	core.CPU.SetRegister(R3, 2)

	// SMULL R0, R1, R2, R3, with the signed bit (MultiplyAShift+1) set.
	word := uint32(R1)<<RnShift | uint32(R0)<<RdShift | uint32(R3)<<RsShift | uint32(R2) |
		uint32(1)<<(MultiplyAShift+1)
	if err := core.execLongMultiply(word); err != nil {
		t.Fatal(err)
	}
	if got := core.CPU.GetRegister(R0); got != 0xFFFFFFFE {
		t.Fatalf("expected RdLo=0xFFFFFFFE (-2 low word), got 0x%x", got)
	}
	if got := core.CPU.GetRegister(R1); got != 0xFFFFFFFF {
		t.Fatalf("expected RdHi=0xFFFFFFFF (-2 high word), got 0x%x", got)
	}
}

func TestLongMultiplyAccumulateAddsPriorRdHiRdLo(t *testing.T) {
	core := newTestCore(t)
	core.CPU.SetRegister(R2, 10)
	core.CPU.SetRegister(R3, 10)
	core.CPU.SetRegister(R0, 50) // prior RdLo
	core.CPU.SetRegister(R1, 0)  // prior RdHi

	// UMLAL R0, R1, R2, R3: A=1, S=1.
	word := uint32(R1)<<RnShift | uint32(R0)<<RdShift | uint32(R3)<<RsShift | uint32(R2) |
		uint32(1)<<MultiplyAShift | uint32(1)<<SBitShift
	if err := core.execLongMultiply(word); err != nil {
		t.Fatal(err)
	}
	// 10*10 + 50 = 150.
	if got := core.CPU.GetRegister(R0); got != 150 {
		t.Fatalf("expected RdLo=150, got %d", got)
	}
	if got := core.CPU.GetRegister(R1); got != 0 {
		t.Fatalf("expected RdHi=0, got %d", got)
	}
	if core.CPU.PSTATE.Z {
		t.Fatal("expected Z clear for a nonzero 64-bit result")
	}
}
