package vm

// ============================================================================
// Instruction encoding — ARM/ARM26 shared field positions
// ============================================================================
// Bit positions shared by every 32-bit-encoded ARM instruction family.

const (
	ConditionShift = 28
	OpcodeShift    = 21
	SBitShift      = 20
	RnShift        = 16
	RdShift        = 12
	RsShift        = 8

	PBitShift = 24
	UBitShift = 23
	BBitShift = 22
	WBitShift = 21
	LBitShift = 20

	BranchLinkShift = 24

	ShiftAmountPos = 7
	ShiftTypePos   = 5
	Bit4Pos        = 4
	Bit7Pos        = 7
	IBitShift      = 25

	MultiplyAShift = 21

	Bits27_26Shift = 26
	Bits27_25Shift = 25
	Bits27_23Shift = 23
)

const (
	Mask1Bit  = 0x1
	Mask2Bit  = 0x3
	Mask3Bit  = 0x7
	Mask4Bit  = 0xF
	Mask5Bit  = 0x1F
	Mask8Bit  = 0xFF
	Mask12Bit = 0xFFF
	Mask16Bit = 0xFFFF
	Mask24Bit = 0xFFFFFF
	Mask32Bit = 0xFFFFFFFF

	Offset12BitMask    = 0xFFF
	Offset24BitMask    = 0xFFFFFF
	Offset24BitSignBit = 0x800000
	Offset24BitSignExt = 0xFF000000

	HalfwordOffsetHighMask = 0xF
	HalfwordOffsetLowMask  = 0xF
	HalfwordHighShift      = 8
	HalfwordLowShift       = 4

	RegisterListMask = 0xFFFF

	ImmediateValueMask = 0xFF
	RotationMask       = 0xF
	RotationShift      = 8
	RotationMultiplier = 2

	ByteValueMask     = 0xFF
	HalfwordValueMask = 0xFFFF

	BitsInWord = 32

	SignBitPos  = 31
	SignBitMask = 0x80000000
)

const (
	ARMRegisterPC = 15
	ARMRegisterLR = 14
	ARMRegisterSP = 13
)

const (
	PCRegister = ARMRegisterPC
	SPRegister = ARMRegisterSP
	LRRegister = ARMRegisterLR
)

// ============================================================================
// Instruction detection patterns
// ============================================================================

const (
	BXEncodingBase  = 0x012FFF10
	BLXEncodingBase = 0x012FFF30
	NOPEncoding     = 0xE1A00000

	MultiplyPattern     = 0x00000090
	MultiplyMask        = 0x0FC000F0
	LongMultiplyPattern = 0x00800090
	LongMultiplyMask    = 0x0F8000F0

	MRSPattern    = 0x010F0000
	MRSMask       = 0x0FBF0FFF
	MSRRegPattern = 0x01200000
	MSRRegMask    = 0x0FB000F0
	MSRImmPattern = 0x03200000
	MSRImmMask    = 0x0FB00000

	BranchBitMask     = 0x02000000
	BranchLinkPattern = 0x0B000000
	BranchLinkMask    = 0x0F000000
	SWIPattern        = 0x0F000000
	SWIDetectMask     = 0x0F000000

	LDREXPattern  = 0x01900F9F
	LDREXMask     = 0x0FF00FFF
	STREXPattern  = 0x01800F90
	STREXMask     = 0x0FF00FF0
	LDREXBPattern = 0x01D00F9F
	LDREXBMask    = 0x0FF00FFF
	STREXBPattern = 0x01C00F90
	STREXBMask    = 0x0FF00FF0
	LDREXHPattern = 0x01F00F9F
	LDREXHMask    = 0x0FF00FFF
	STREXHPattern = 0x01E00F90
	STREXHMask    = 0x0FF00FF0
	LDREXDPattern = 0x01B00F9F
	LDREXDMask    = 0x0FF00FFF
	STREXDPattern = 0x01A00F90
	STREXDMask    = 0x0FF00FF0
	CLREXPattern  = 0xF57FF01F
	CLREXMask     = 0xFFFFFFFF
)

// ============================================================================
// Memory layout used by the default in-process memory backend
// ============================================================================

const (
	CodeSegmentStart  = 0x00008000
	CodeSegmentSize   = 0x00010000
	DataSegmentStart  = 0x00020000
	DataSegmentSize   = 0x00010000
	HeapSegmentStart  = 0x00030000
	HeapSegmentSize   = 0x00010000
	StackSegmentStart = 0x00040000
	StackSegmentSize  = 0x00010000
)

const (
	DefaultMaxCycles   = 1000000
	DefaultLogCapacity = 1000
)

const (
	Address32BitMax     = ^uint32(0)
	Address32BitMaxSafe = 0xFFFFFFFC
)
