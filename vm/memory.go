package vm

import "fmt"

// Endian selects how the Bus maps architectural byte addresses onto a
// backing MemoryBus: one of three supported endianness policies.
type Endian int

const (
	EndianLE   Endian = iota
	EndianBE8         // big-endian data, byte-invariant: addressing unchanged
	EndianBE32        // big-endian data, word-invariant: XOR-3 byte lanes
)

// MemoryBus is the host-provided backing store a Core executes against.
// privileged carries the current mode's access level so a backend can
// enforce its own permission model; this core never enforces MMU-level
// permissions itself.
type MemoryBus interface {
	Read(addr uint64, buf []byte, privileged bool) bool
	Write(addr uint64, buf []byte, privileged bool) bool
}

// Bus wraps a MemoryBus with the architectural concerns of a memory/bus
// interface: endianness assembly (including the BE-32 byte-lane swap),
// the alignment policy for SCTLR.A, and a watermark of the touched
// address range for GetDebugState.
type Bus struct {
	Backing MemoryBus
	Endian  Endian

	touched    bool
	lowTouched uint64
	hiTouched  uint64
}

// NewBus wraps backing with the default little-endian policy; callers
// adjust Endian directly for BE-8/BE-32 configurations.
func NewBus(backing MemoryBus) *Bus {
	return &Bus{Backing: backing, Endian: EndianLE}
}

// phys maps an architectural byte address to its physical lane for the
// current endianness. Under BE-32, every byte of every access is
// relocated by XOR-3 within its containing word; this single per-byte
// rule reproduces the "split into 4-byte lanes, reverse byte order
// within each lane" algorithm and preserves the round-trip property
// (write32 then read32 at the same word-aligned address reproduces the
// original value) because the same mapping is applied symmetrically on
// both read and write.
func (b *Bus) phys(addr uint64) uint64 {
	if b.Endian == EndianBE32 {
		return addr ^ 3
	}
	return addr
}

func (b *Bus) markTouched(addr uint64, size int) {
	lo, hi := addr, addr+uint64(size)-1
	if !b.touched {
		b.lowTouched, b.hiTouched, b.touched = lo, hi, true
		return
	}
	if lo < b.lowTouched {
		b.lowTouched = lo
	}
	if hi > b.hiTouched {
		b.hiTouched = hi
	}
}

// TouchedRange returns the [low, high] architectural address range
// written or read since the last ResetTouched call, and whether any
// access has happened at all.
func (b *Bus) TouchedRange() (lo, hi uint64, ok bool) {
	return b.lowTouched, b.hiTouched, b.touched
}

func (b *Bus) ResetTouched() {
	b.touched = false
	b.lowTouched, b.hiTouched = 0, 0
}

func (b *Bus) readBytes(addr uint64, n int, privileged bool) ([]byte, error) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		one := make([]byte, 1)
		if !b.Backing.Read(b.phys(addr+uint64(i)), one, privileged) {
			return nil, fmt.Errorf("bus: read fault at address 0x%x: %w", addr+uint64(i), ErrMemoryAccess)
		}
		buf[i] = one[0]
	}
	b.markTouched(addr, n)
	return buf, nil
}

func (b *Bus) writeBytes(addr uint64, buf []byte, privileged bool) error {
	for i, v := range buf {
		one := []byte{v}
		if !b.Backing.Write(b.phys(addr+uint64(i)), one, privileged) {
			return fmt.Errorf("bus: write fault at address 0x%x: %w", addr+uint64(i), ErrMemoryAccess)
		}
	}
	b.markTouched(addr, len(buf))
	return nil
}

// assemble interprets raw as a little- or big-endian integer per the
// Bus's Endian policy. BE-32 is big-endian data, word-invariant: the
// XOR-3 lane swap in phys only relocates *where* each byte lives
// physically, it says nothing about byte order, so BE-32 assembles
// big-endian exactly like BE-8; only EndianLE assembles little-endian.
func (b *Bus) assemble(raw []byte) uint64 {
	var v uint64
	if b.Endian == EndianLE {
		for i := len(raw) - 1; i >= 0; i-- {
			v = v<<8 | uint64(raw[i])
		}
		return v
	}
	for _, x := range raw {
		v = v<<8 | uint64(x)
	}
	return v
}

func (b *Bus) disassemble(v uint64, n int) []byte {
	buf := make([]byte, n)
	if b.Endian == EndianLE {
		for i := 0; i < n; i++ {
			buf[i] = byte(v)
			v >>= 8
		}
		return buf
	}
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

func (b *Bus) Read8(addr uint64, privileged bool) (uint8, error) {
	raw, err := b.readBytes(addr, 1, privileged)
	if err != nil {
		return 0, err
	}
	return raw[0], nil
}

func (b *Bus) Write8(addr uint64, v uint8, privileged bool) error {
	return b.writeBytes(addr, []byte{v}, privileged)
}

func (b *Bus) Read16(addr uint64, privileged bool) (uint16, error) {
	raw, err := b.readBytes(addr, 2, privileged)
	if err != nil {
		return 0, err
	}
	return uint16(b.assemble(raw)), nil
}

func (b *Bus) Write16(addr uint64, v uint16, privileged bool) error {
	return b.writeBytes(addr, b.disassemble(uint64(v), 2), privileged)
}

func (b *Bus) Read32(addr uint64, privileged bool) (uint32, error) {
	raw, err := b.readBytes(addr, 4, privileged)
	if err != nil {
		return 0, err
	}
	return uint32(b.assemble(raw)), nil
}

func (b *Bus) Write32(addr uint64, v uint32, privileged bool) error {
	return b.writeBytes(addr, b.disassemble(uint64(v), 4), privileged)
}

func (b *Bus) Read64(addr uint64, privileged bool) (uint64, error) {
	raw, err := b.readBytes(addr, 8, privileged)
	if err != nil {
		return 0, err
	}
	return b.assemble(raw), nil
}

func (b *Bus) Write64(addr uint64, v uint64, privileged bool) error {
	return b.writeBytes(addr, b.disassemble(v, 8), privileged)
}

// ReadAligned32 implements the v6-and-later strict-alignment-fault
// behavior versus the pre-v6 rotate-on-unaligned-load behavior for
// LDR/LDRT: on cores older than ArchV6, or when strictAlign is false, a
// misaligned word load silently rotates the loaded value right by
// 8*(addr&3) instead of faulting.
func (b *Bus) ReadAligned32(addr uint64, strictAlign bool, privileged bool) (uint32, error) {
	misaligned := addr&3 != 0
	if misaligned && strictAlign {
		return 0, fmt.Errorf("bus: unaligned word access at address 0x%x: %w", addr, ErrAlignment)
	}
	v, err := b.Read32(addr&^3, privileged)
	if err != nil {
		return 0, err
	}
	if misaligned {
		rot := uint(addr&3) * 8
		v = (v >> rot) | (v << (32 - rot))
	}
	return v, nil
}
