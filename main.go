// Command arm-core is a minimal host that loads a flat binary image into
// the default memory map, drives a vm.Core until it faults or exhausts
// its configured cycle budget, and prints the final debug-state snapshot.
// It exists to exercise the vm package end to end; the disassembler,
// loader formats, and interactive debugging a full front-end would offer
// are out of scope for this core.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lookbusy1344/arm-core/config"
	"github.com/lookbusy1344/arm-core/vm"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file (default: platform config dir)")
	imagePath := flag.String("image", "", "flat binary image to load into the code segment")
	isaFlag := flag.String("isa", "arm32", "initial ISA: arm26, arm32, thumb, thumbee, jazelle, arm64")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arm-core: %v\n", err)
		os.Exit(1)
	}

	vmCfg, supportedISA, err := cfg.ToVM()
	if err != nil {
		fmt.Fprintf(os.Stderr, "arm-core: %v\n", err)
		os.Exit(1)
	}

	stackSize, err := cfg.StackSizeUint32()
	if err != nil {
		fmt.Fprintf(os.Stderr, "arm-core: %v\n", err)
		os.Exit(1)
	}

	mem := vm.NewSimpleMemoryWithStackSize(stackSize)
	if *imagePath != "" {
		image, err := os.ReadFile(*imagePath) // #nosec G304 -- user-specified image path
		if err != nil {
			fmt.Fprintf(os.Stderr, "arm-core: reading image: %v\n", err)
			os.Exit(1)
		}
		if err := mem.LoadBytes("code", image); err != nil {
			fmt.Fprintf(os.Stderr, "arm-core: loading image: %v\n", err)
			os.Exit(1)
		}
	}

	entry, err := cfg.EntryPoint()
	if err != nil {
		fmt.Fprintf(os.Stderr, "arm-core: %v\n", err)
		os.Exit(1)
	}

	core := vm.Init(vmCfg, supportedISA, mem)
	core.Bus.Endian = cfg.Endian()
	core.CPU.SetPC(uint64(entry))
	core.CPU.SetSP(vm.StackSegmentStart + uint64(stackSize))

	isa, ok := parseISA(*isaFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "arm-core: unknown -isa value %q\n", *isaFlag)
		os.Exit(1)
	}
	core.SetISA(isa)

	if err := core.Run(cfg.Execution.MaxCycles); err != nil {
		printFault(core, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func parseISA(s string) (vm.ISA, bool) {
	switch s {
	case "arm26":
		return vm.ISAArm26, true
	case "arm32":
		return vm.ISAArm32, true
	case "thumb":
		return vm.ISAThumb, true
	case "thumbee":
		return vm.ISAThumbEE, true
	case "jazelle":
		return vm.ISAJazelle, true
	case "arm64":
		return vm.ISAArm64, true
	}
	return 0, false
}

func printFault(core *vm.Core, err error) {
	state := core.GetDebugState()
	fmt.Fprintf(os.Stderr, "arm-core: stopped: %v\n", err)
	fmt.Fprintf(os.Stderr, "  pc=0x%x cpsr=0x%08x mode=%#x isa=%s\n",
		state.PC, state.CPSR, uint8(state.PSTATE.Mode), core.CurrentISA())
	r0 := uint32(state.Slots[0])
	fmt.Fprintf(os.Stderr, "  r0=0x%x (%d signed)\n", r0, vm.AsInt32(r0))
}
