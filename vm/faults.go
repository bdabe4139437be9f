package vm

import "errors"

// Sentinel errors wrapped by Fault.Unwrap's callers via errors.Is, kept
// separate from FaultKind so memory.go can report a plain Go error
// without constructing a full exception-entry Fault (the executor
// upgrades these into a Fault with full context at the Step boundary).
var (
	ErrMemoryAccess = errors.New("memory access fault")
	ErrAlignment    = errors.New("alignment fault")
)

// FaultKind enumerates every distinguishable reason Step can stop
// advancing normally, spanning all five ISA exception models plus the
// Jazelle- and ThumbEE-specific conditions.
type FaultKind int

const (
	FaultNone FaultKind = iota

	// AArch32/ARM26 exception classes.
	FaultReset
	FaultUndefined
	FaultSVC
	FaultSMC
	FaultHVC
	FaultPrefetchAbort
	FaultDataAbort
	FaultIRQ
	FaultFIQ

	// AArch64-only.
	FaultSError

	// Shared debug/alignment conditions.
	FaultBreakpoint
	FaultUnaligned
	FaultUnalignedPC
	FaultUnalignedSP
	FaultSoftwareStep

	// ARM26-specific.
	FaultAddress26

	// Jazelle-specific handler-table fallback conditions.
	FaultJazelleUndefined
	FaultJazelleNullPtr
	FaultJazelleOutOfBounds
	FaultJazelleDisabled
	FaultJazelleInvalid
	FaultJazellePrefetchAbort

	// ThumbEE-specific null-check/bounds-check traps.
	FaultThumbEEOutOfBounds
	FaultThumbEENullPtr
)

func (f FaultKind) String() string {
	names := map[FaultKind]string{
		FaultNone:                 "none",
		FaultReset:                "reset",
		FaultUndefined:            "undefined-instruction",
		FaultSVC:                  "supervisor-call",
		FaultSMC:                  "secure-monitor-call",
		FaultHVC:                  "hypervisor-call",
		FaultPrefetchAbort:        "prefetch-abort",
		FaultDataAbort:            "data-abort",
		FaultIRQ:                  "irq",
		FaultFIQ:                  "fiq",
		FaultSError:               "serror",
		FaultBreakpoint:           "breakpoint",
		FaultUnaligned:            "unaligned-access",
		FaultUnalignedPC:          "unaligned-pc",
		FaultUnalignedSP:          "unaligned-sp",
		FaultSoftwareStep:         "software-step",
		FaultAddress26:            "address-exception",
		FaultJazelleUndefined:     "jazelle-undefined",
		FaultJazelleNullPtr:       "jazelle-null-pointer",
		FaultJazelleOutOfBounds:   "jazelle-array-bounds",
		FaultJazelleDisabled:      "jazelle-disabled",
		FaultJazelleInvalid:       "jazelle-invalid-opcode",
		FaultJazellePrefetchAbort: "jazelle-prefetch-abort",
		FaultThumbEEOutOfBounds:   "thumbee-array-bounds",
		FaultThumbEENullPtr:       "thumbee-null-pointer",
	}
	if s, ok := names[f]; ok {
		return s
	}
	return "unknown-fault"
}

// Fault is the error type every fault-raising operation in this package
// returns, so callers can recover the structured classification with
// errors.As instead of string-matching an error message.
type Fault struct {
	Kind    FaultKind
	Address uint64
	PC      uint64
	Detail  string
}

func (f *Fault) Error() string {
	if f.Detail != "" {
		return f.Kind.String() + ": " + f.Detail
	}
	return f.Kind.String()
}

// newFault builds a Fault, the sole constructor so every fault site
// stays consistent about which fields are required.
func newFault(kind FaultKind, pc, addr uint64, detail string) *Fault {
	return &Fault{Kind: kind, Address: addr, PC: pc, Detail: detail}
}
