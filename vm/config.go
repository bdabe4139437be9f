package vm

// ArchVersion identifies the ARM architecture generation a Config targets.
// Several decode and exception-entry decisions are gated on this value
// (e.g. the pre-v7 rotated-unaligned-load behavior, the v5 NV condition
// deprecation, the v6T2 Thumb-2 32-bit encoding recognition).
type ArchVersion int

const (
	ArchV1 ArchVersion = iota + 1
	ArchV2
	ArchV3
	ArchV4
	ArchV5
	ArchV6
	ArchV6T2
	ArchV7
	ArchV8
	ArchV9
)

// Profile distinguishes the architecture profile, which gates which
// exception model and register set a core exposes.
type Profile int

const (
	ProfileClassic Profile = iota
	ProfileA
	ProfileR
	ProfileM
)

// FPVariant selects which floating point coprocessor family, if any,
// a core's coprocessor table should populate. The core never performs
// FP numerics itself; it only routes CDP/MCR/MRC
// to the right slot.
type FPVariant int

const (
	FPNone FPVariant = iota
	FPVariantFPA
	FPVariantVFP
)

// JazelleLevel is the degree of Jazelle support a core implements,
// mirroring the historical implementation tiers documented by ARM.
type JazelleLevel int

const (
	JazelleNone JazelleLevel = iota
	JazelleTrivial
	JazelleImplemented
	JazelleJVM
	JazellePicoJava
	JazelleExtension
)

// ThumbLevel is the degree of Thumb support a core implements.
type ThumbLevel int

const (
	ThumbNone ThumbLevel = iota
	ThumbT1
	ThumbT2
)

// Feature is a single bit in a Config's feature bitset.
type Feature uint64

const (
	FeatureSWP Feature = 1 << iota
	FeatureARM26
	FeatureARM32
	FeatureMULL
	FeatureTHUMB
	FeatureTHUMB2
	FeatureENHDSP
	FeatureDSPPAIR
	FeatureJAZELLE
	FeatureMULTIPROC
	FeatureSECURITY
	FeatureVIRTUALIZATION
	FeatureARM64
	FeatureFPA
	FeatureVFP
	FeatureDREG
	Feature32DREG
	FeatureFP16
	FeatureSIMD
	FeatureMVE
)

// FeatureSet is a bitset of Feature values.
type FeatureSet uint64

// Has reports whether every bit in f is present in the set.
func (s FeatureSet) Has(f Feature) bool {
	return s&FeatureSet(f) == FeatureSet(f)
}

// With returns a copy of the set with f added.
func (s FeatureSet) With(f Feature) FeatureSet {
	return s | FeatureSet(f)
}

// ISASet is a bitset over ISA, used for Config.SupportedISAs.
type ISASet uint8

func (s ISASet) Has(isa ISA) bool {
	return s&(1<<uint(isa)) != 0
}

func (s ISASet) With(isa ISA) ISASet {
	return s | (1 << uint(isa))
}

// Config is the immutable-after-init description of a core's architectural
// identity: version, feature bitset, Jazelle/Thumb implementation level,
// FP variant, profile, and the set of ISAs the host has asked the core to
// support. It is consumed once by Init and never mutated by the core.
type Config struct {
	Version      ArchVersion
	Profile      Profile
	Features     FeatureSet
	FPVariant    FPVariant
	JazelleLevel JazelleLevel
	ThumbLevel   ThumbLevel
	SupportedISA ISASet
}

// DefaultConfig returns a baseline ARMv7-A configuration: ARM32, Thumb-2,
// and Jazelle Trivial (the "sits there but traps every bytecode to the
// handler table" implementation level real ARMv7 cores shipped).
func DefaultConfig() Config {
	features := FeatureSet(0).
		With(FeatureARM32).
		With(FeatureTHUMB).
		With(FeatureTHUMB2).
		With(FeatureJAZELLE).
		With(FeatureVFP)

	supported := ISASet(0).With(ISAArm32).With(ISAThumb).With(ISAThumbEE).With(ISAJazelle)

	return Config{
		Version:      ArchV7,
		Profile:      ProfileA,
		Features:     features,
		FPVariant:    FPVariantVFP,
		JazelleLevel: JazelleTrivial,
		ThumbLevel:   ThumbT2,
		SupportedISA: supported,
	}
}
