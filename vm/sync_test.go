package vm

import "testing"

func TestStoreExclusiveSucceedsAfterMatchingLoadExclusive(t *testing.T) {
	core := newTestCore(t)
	addr := uint32(DataSegmentStart)
	core.CPU.SetRegister(R1, addr) // Rn for both LDREX and STREX

	ldrexWord := uint32(R0)<<RdShift | uint32(R1)<<RnShift
	if err := core.execLoadExclusive(ldrexWord, 4); err != nil {
		t.Fatal(err)
	}
	if !core.CPU.Monitor.Held() {
		t.Fatal("expected the exclusive monitor to be armed after LDREX")
	}

	core.CPU.SetRegister(R2, 0xABCD1234) // value to store
	strexWord := uint32(R3)<<RdShift | uint32(R1)<<RnShift | uint32(R2)
	if err := core.execStoreExclusive(strexWord, 4); err != nil {
		t.Fatal(err)
	}
	if core.CPU.GetRegister(R3) != 0 {
		t.Fatalf("expected STREX status 0 (success), got %d", core.CPU.GetRegister(R3))
	}
	got, err := core.Bus.Read32(uint64(addr), true)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xABCD1234 {
		t.Fatalf("expected the store to have landed, got 0x%x", got)
	}
	if core.CPU.Monitor.Held() {
		t.Fatal("a successful STREX must clear the monitor")
	}
}

func TestStoreExclusiveFailsWithoutReservation(t *testing.T) {
	core := newTestCore(t)
	addr := uint32(DataSegmentStart)
	core.CPU.SetRegister(R1, addr)
	core.CPU.SetRegister(R2, 0x11111111)

	strexWord := uint32(R3)<<RdShift | uint32(R1)<<RnShift | uint32(R2)
	if err := core.execStoreExclusive(strexWord, 4); err != nil {
		t.Fatal(err)
	}
	if core.CPU.GetRegister(R3) != 1 {
		t.Fatalf("expected STREX status 1 (failure) with no prior LDREX, got %d", core.CPU.GetRegister(R3))
	}
}

func TestStoreExclusiveFailsAfterInterveningWrite(t *testing.T) {
	core := newTestCore(t)
	addr := uint32(DataSegmentStart)
	core.CPU.SetRegister(R1, addr)

	ldrexWord := uint32(R0)<<RdShift | uint32(R1)<<RnShift
	if err := core.execLoadExclusive(ldrexWord, 4); err != nil {
		t.Fatal(err)
	}
	core.CPU.Monitor.Clear() // simulate an intervening exclusive-clearing event

	core.CPU.SetRegister(R2, 0x22222222)
	strexWord := uint32(R3)<<RdShift | uint32(R1)<<RnShift | uint32(R2)
	if err := core.execStoreExclusive(strexWord, 4); err != nil {
		t.Fatal(err)
	}
	if core.CPU.GetRegister(R3) != 1 {
		t.Fatalf("expected STREX status 1 after the monitor was cleared, got %d", core.CPU.GetRegister(R3))
	}
}
