package vm

// Core is the top-level object: one CPU, one memory Bus, the
// coprocessor dispatch table, and the Jazelle engine's operand-stack
// cache. It is the thing Init returns.
type Core struct {
	Config Config
	CPU    *CPU
	Bus    *Bus

	Coprocessors [16]Coprocessor
	Jazelle      JazelleState

	// CaptureBreaks makes Step return a *Fault instead of performing
	// AArch32/AArch64 exception entry, for a host that wants to stop and
	// inspect state at every fault the way a debugger would. This
	// generalizes to every fault kind since this core has no separate
	// breakpoint table of its own.
	CaptureBreaks bool

	// LastFault records the most recent fault Step surfaced or vectored,
	// exposed to get_debug_state.
	LastFault *Fault

	steps uint64
}

// Init constructs a Core from a configuration, a supported-ISA set, and
// a memory backing. supportedISAs overrides cfg.SupportedISA when
// nonzero, since a host may support only a subset of what the
// architecture allows.
func Init(cfg Config, supportedISAs ISASet, memory MemoryBus) *Core {
	if supportedISAs != 0 {
		cfg.SupportedISA = supportedISAs
	}
	core := &Core{
		Config: cfg,
		CPU:    NewCPU(cfg),
		Bus:    NewBus(memory),
	}
	core.installDefaultCoprocessors()
	return core
}

// privileged reports whether the CPU's current mode/EL has the
// heightened access level a MemoryBus may key its permission model on.
// AArch32 USR/EL0 is unprivileged; everything else is privileged.
func (core *Core) privileged() bool {
	if core.CPU.PSTATE.RW == RW64 {
		return core.CPU.PSTATE.EL != 0
	}
	return core.CPU.PSTATE.Mode != ModeUSR && core.CPU.PSTATE.Mode != ModeUSR26
}

// SetISA forces the CPU into isa, the way a host selects an entry ISA
// before the first Step. An isa absent from Config.SupportedISA is
// silently remapped per legalizeJT's rule, mirrored here for the ISAs
// legalizeJT does not itself cover.
func (core *Core) SetISA(isa ISA) {
	if !core.Config.SupportedISA.Has(isa) {
		isa = core.nearestSupportedISA(isa)
	}
	switch isa {
	case ISAArm26:
		core.CPU.PSTATE.RW = RW26
		core.CPU.PSTATE.JT = JTArm
	case ISAArm64:
		core.CPU.PSTATE.RW = RW64
	case ISAArm32:
		core.CPU.PSTATE.RW = RW32
		core.CPU.PSTATE.JT = JTArm
	case ISAThumb:
		core.CPU.PSTATE.RW = RW32
		core.CPU.PSTATE.JT = JTThumb
	case ISAThumbEE:
		core.CPU.PSTATE.RW = RW32
		core.CPU.PSTATE.JT = JTThumbEE
	case ISAJazelle:
		core.CPU.PSTATE.RW = RW32
		core.CPU.PSTATE.JT = JTJazelle
		core.Jazelle.reset()
	}
}

func (core *Core) nearestSupportedISA(want ISA) ISA {
	fallbacks := []ISA{want, ISAArm32, ISAThumb, ISAArm26, ISAArm64}
	for _, isa := range fallbacks {
		if core.Config.SupportedISA.Has(isa) {
			return isa
		}
	}
	return ISAArm32
}

// CurrentISA reports the ISA PSTATE currently selects.
func (core *Core) CurrentISA() ISA {
	return isaOf(core.CPU.PSTATE)
}

// Step executes exactly one instruction: fetch, dispatch, and (unless
// CaptureBreaks is set) fault handling via AArch32/AArch64 exception
// entry. It returns a non-nil error only when CaptureBreaks is set and a
// fault occurred, or when the fault itself is one this core cannot
// recover from by vectoring (e.g. a malformed vector table read).
func (core *Core) Step() error {
	core.Bus.ResetTouched()
	core.LastFault = nil

	f, err := core.fetch()
	if err != nil {
		return core.handleFault(err)
	}

	beforePC := core.CPU.PC()
	execErr := core.dispatch(f)

	if execErr != nil {
		return core.handleFault(execErr)
	}

	// Advance PC by the fetched instruction's size unless execute already
	// redirected it (a taken branch leaves PC pointing somewhere other
	// than beforePC+size).
	if core.CPU.PC() == beforePC {
		core.CPU.Regs.pc = beforePC + f.size
	}
	core.CPU.IncrementCycles(1)
	core.steps++
	return nil
}

// Run executes Step in a loop until it returns an error or maxSteps is
// reached (0 means unbounded), returning the terminating error if any.
func (core *Core) Run(maxSteps uint64) error {
	for maxSteps == 0 || core.steps < maxSteps {
		if err := core.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (core *Core) handleFault(err error) error {
	var fault *Fault
	if !asFault(err, &fault) {
		fault = newFault(FaultUndefined, core.CPU.PC(), core.CPU.PC(), err.Error())
	}
	core.LastFault = fault

	if core.CaptureBreaks {
		return fault
	}
	return core.vector(fault)
}

// asFault is errors.As specialized for *Fault, kept local so this file
// doesn't need to import errors just for one call site.
func asFault(err error, target **Fault) bool {
	f, ok := err.(*Fault)
	if !ok {
		return false
	}
	*target = f
	return true
}

func (core *Core) Steps() uint64 {
	return core.steps
}
