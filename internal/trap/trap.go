/*
 * riscvsim - Trap taxonomy: exceptions and interrupts.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package trap

// Kind identifies an exception or interrupt cause. Values match the
// RISC-V privileged-spec `mcause`/`scause` exception-code numbering;
// interrupts carry the same numbering with the top bit set separately
// by IsInterrupt, not folded into Kind itself.
type Kind int

const (
	InstructionAddrMisaligned Kind = 0
	InstructionAccessFault    Kind = 1
	IllegalInstruction        Kind = 2
	Breakpoint                Kind = 3
	LoadAddrMisaligned        Kind = 4
	LoadAccessFault           Kind = 5
	StoreAddrMisaligned       Kind = 6
	StoreAccessFault          Kind = 7
	EnvCallFromU              Kind = 8
	EnvCallFromS              Kind = 9
	EnvCallFromM              Kind = 11
	InstructionPageFault      Kind = 12
	LoadPageFault             Kind = 13
	StorePageFault            Kind = 15

	// Interrupt codes, used when IsInterrupt is true.
	SupervisorSoftwareInterrupt Kind = 1
	MachineSoftwareInterrupt    Kind = 3
	SupervisorTimerInterrupt    Kind = 5
	MachineTimerInterrupt       Kind = 7
	SupervisorExternalInterrupt Kind = 9
	MachineExternalInterrupt    Kind = 11
)

// Trap is a tagged variant carrying an exception or interrupt and its
// optional faulting address/instruction payload. A zero-value Trap
// (via the None helper) represents "no trap."
type Trap struct {
	IsInterrupt bool
	Code        Kind
	present     bool
	Val         uint64 // faulting address or instruction, when relevant
}

// None reports the no-trap value.
func None() Trap { return Trap{} }

// Present reports whether t represents an actual trap.
func (t Trap) Present() bool { return t.present }

func exc(code Kind, val uint64) Trap {
	return Trap{IsInterrupt: false, Code: code, present: true, Val: val}
}

func irq(code Kind) Trap {
	return Trap{IsInterrupt: true, Code: code, present: true}
}

func InstructionAddrMisalignedTrap(addr uint64) Trap { return exc(InstructionAddrMisaligned, addr) }
func InstructionAccessFaultTrap(addr uint64) Trap    { return exc(InstructionAccessFault, addr) }
func IllegalInstructionTrap(inst uint64) Trap        { return exc(IllegalInstruction, inst) }
func BreakpointTrap() Trap                           { return exc(Breakpoint, 0) }
func LoadAddrMisalignedTrap(addr uint64) Trap        { return exc(LoadAddrMisaligned, addr) }
func LoadAccessFaultTrap(addr uint64) Trap           { return exc(LoadAccessFault, addr) }
func StoreAddrMisalignedTrap(addr uint64) Trap       { return exc(StoreAddrMisaligned, addr) }
func StoreAccessFaultTrap(addr uint64) Trap          { return exc(StoreAccessFault, addr) }
func InstructionPageFaultTrap(addr uint64) Trap      { return exc(InstructionPageFault, addr) }
func LoadPageFaultTrap(addr uint64) Trap             { return exc(LoadPageFault, addr) }
func StorePageFaultTrap(addr uint64) Trap            { return exc(StorePageFault, addr) }

// EnvCallTrap builds the environment-call exception for the privilege
// level the call was made from.
func EnvCallTrap(privilege int) Trap {
	switch privilege {
	case 0:
		return exc(EnvCallFromU, 0)
	case 1:
		return exc(EnvCallFromS, 0)
	default:
		return exc(EnvCallFromM, 0)
	}
}

func MachineTimerInterruptTrap() Trap    { return irq(MachineTimerInterrupt) }
func SupervisorTimerInterruptTrap() Trap { return irq(SupervisorTimerInterrupt) }
func MachineExternalInterruptTrap() Trap { return irq(MachineExternalInterrupt) }
func SupervisorExternalInterruptTrap() Trap {
	return irq(SupervisorExternalInterrupt)
}
func MachineSoftwareInterruptTrap() Trap { return irq(MachineSoftwareInterrupt) }
func SupervisorSoftwareInterruptTrap() Trap {
	return irq(SupervisorSoftwareInterrupt)
}

// PageFaultFor returns the page-fault variant matching access.
func PageFaultFor(access AccessType, addr uint64) Trap {
	switch access {
	case AccessFetch:
		return InstructionPageFaultTrap(addr)
	case AccessWrite:
		return StorePageFaultTrap(addr)
	default:
		return LoadPageFaultTrap(addr)
	}
}

// AccessFaultFor returns the access-fault variant matching access.
func AccessFaultFor(access AccessType, addr uint64) Trap {
	switch access {
	case AccessFetch:
		return InstructionAccessFaultTrap(addr)
	case AccessWrite:
		return StoreAccessFaultTrap(addr)
	default:
		return LoadAccessFaultTrap(addr)
	}
}
