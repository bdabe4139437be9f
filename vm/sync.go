package vm

// execLoadExclusive implements the LDREX family: a normal load that also
// establishes an exclusive monitor reservation over [addr, addr+size)
// for the subsequent STREX to check.
func (core *Core) execLoadExclusive(word uint32, size int) error {
	rn := int((word >> RnShift) & Mask4Bit)
	rd := int((word >> RdShift) & Mask4Bit)
	addr := uint64(core.CPU.a32Get(rn))

	var value uint32
	var err error
	switch size {
	case 1:
		var b uint8
		b, err = core.Bus.Read8(addr, core.privileged())
		value = uint32(b)
	case 2:
		var h uint16
		h, err = core.Bus.Read16(addr, core.privileged())
		value = uint32(h)
	case 4, 8:
		value, err = core.Bus.Read32(addr, core.privileged())
	}
	if err != nil {
		return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
	}
	core.CPU.a32Set(rd, value)
	core.CPU.Monitor.Set(addr, size)
	return nil
}

// execStoreExclusive implements the STREX family: the store only
// happens if the exclusive monitor still covers [addr, addr+size); Rd
// receives 0 on success, 1 on failure, per the architecture's status
// convention.
func (core *Core) execStoreExclusive(word uint32, size int) error {
	rn := int((word >> RnShift) & Mask4Bit)
	rd := int((word >> RdShift) & Mask4Bit)
	rm := int(word & Mask4Bit)
	addr := uint64(core.CPU.a32Get(rn))

	if !core.CPU.Monitor.Covers(addr, size) {
		core.CPU.a32Set(rd, 1)
		return nil
	}

	value := core.CPU.a32Get(rm)
	var err error
	switch size {
	case 1:
		err = core.Bus.Write8(addr, uint8(value), core.privileged())
	case 2:
		err = core.Bus.Write16(addr, uint16(value), core.privileged())
	case 4, 8:
		err = core.Bus.Write32(addr, value, core.privileged())
	}
	if err != nil {
		return newFault(FaultDataAbort, core.CPU.PC(), addr, err.Error())
	}
	core.CPU.Monitor.Clear()
	core.CPU.a32Set(rd, 0)
	return nil
}
