/*
 * riscvsim - CPU: ties together regs, CSRs, caches, MMU, branch predictor
 * and bus into one cycle-ticking core.
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

package cpu

import (
	"fmt"
	"log/slog"

	"github.com/loopcycle/riscvsim/internal/bp"
	"github.com/loopcycle/riscvsim/internal/cache"
	"github.com/loopcycle/riscvsim/internal/isa"
	"github.com/loopcycle/riscvsim/internal/mmu"
	"github.com/loopcycle/riscvsim/internal/regfile"
	"github.com/loopcycle/riscvsim/internal/trap"
)

// Bus is the subset of *bus.Bus the CPU drives directly.
type Bus interface {
	ReadU8(paddr uint64) uint8
	ReadU16(paddr uint64) uint16
	ReadU32(paddr uint64) uint32
	ReadU64(paddr uint64) uint64
	WriteU8(paddr uint64, val uint8)
	WriteU16(paddr uint64, val uint16)
	WriteU32(paddr uint64, val uint32)
	WriteU64(paddr uint64, val uint64)
	IsValidAddress(paddr uint64) bool
	CalculateTransitTime(bytes uint64) uint64
	Tick() (timerIRQ, externalIRQ bool)
}

// Options configures a new Cpu. Zero-valued fields fall back to
// sensible RV64 defaults.
type Options struct {
	StartPC      uint64
	Trace        bool
	DirectMode   bool // skip MMU translation entirely (bring-up / bare-metal mode)
	MisaOverride uint64

	BranchPredictor string // static, gshare, tournament, tage, perceptron
	BPConfig        bp.Config

	L1I, L1D, L2, L3 cache.Config

	TLBSize int
	Log     *slog.Logger
}

// Cpu is the simulated hart: architectural state, pipeline latches,
// and the microarchitectural structures (caches, predictor, TLBs)
// that the statistics and timing model consult.
type Cpu struct {
	Regs *regfile.RegisterFile
	PC   uint64
	Bus  Bus
	Trace bool

	csrs      csrs
	Privilege int // 0=User, 1=Supervisor, 3=Machine

	directMode bool

	ifID      IfID
	idExFault trap.Trap // fetch-stage trap carried alongside ifID, applied by decode
	idEx      IdEx
	exMem     ExMem
	memWb     MemWb
	wbLatch   MemWb

	Stats Stats

	BranchPredictor bp.Predictor
	Caches          *cache.Hierarchy

	stallCycles uint64
	aluTimer    uint64

	MMU *mmu.MMU

	loadReservation    uint64
	haveLoadReservation bool

	exitCode    int
	haveExit    bool

	log *slog.Logger
}

// New builds a Cpu wired to bus b per opts.
func New(b Bus, opts Options) *Cpu {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	misa := defaultMisa()
	if opts.MisaOverride != 0 {
		misa = opts.MisaOverride
	}

	c := &Cpu{
		Regs:            regfile.New(),
		PC:              opts.StartPC,
		Bus:             b,
		Trace:           opts.Trace,
		csrs:            newCsrs(),
		Privilege:       isa.PrivM,
		directMode:      opts.DirectMode,
		BranchPredictor: bp.New(opts.BranchPredictor, opts.BPConfig),
		Caches:          cache.NewHierarchy(opts.L1I, opts.L1D, opts.L2, opts.L3),
		MMU:             mmu.New(opts.TLBSize),
		log:             opts.Log,
	}
	c.csrs.misa = misa
	c.idEx = idExBubble()
	c.ifID = ifIDBubble()

	c.log.Debug("cpu initialized", "start_pc", opts.StartPC, "predictor", opts.BranchPredictor)
	return c
}

// Tick advances the pipeline by one cycle, or services a pending stall
// or a delivered interrupt instead.
func (c *Cpu) Tick() error {
	if c.haveExit {
		return nil
	}

	timerIRQ, externalIRQ := c.Bus.Tick()

	if timerIRQ {
		c.csrs.mip |= isa.MipMTIP
	} else {
		c.csrs.mip &^= isa.MipMTIP
	}
	if externalIRQ {
		c.csrs.mip |= isa.MipMEIP
	} else {
		c.csrs.mip &^= isa.MipMEIP
	}

	if t, ok := c.pendingInterrupt(); ok {
		c.enterTrap(t, c.PC)
		return nil
	}

	if c.stallCycles > 0 {
		c.stallCycles--
		c.Stats.Cycles++
		c.Stats.StallsMem++
		c.trackModeCycles()
		return nil
	}
	if c.aluTimer > 0 {
		c.aluTimer--
		c.Stats.Cycles++
		c.trackModeCycles()
		return nil
	}

	c.Stats.Cycles++
	c.trackModeCycles()

	if err := c.writeBack(); err != nil {
		return err
	}
	if c.haveExit {
		return nil
	}

	c.wbLatch = c.memWb
	if err := c.memoryAccess(); err != nil {
		return err
	}
	if err := c.execute(); err != nil {
		return err
	}
	if c.haveExit {
		return nil
	}

	if needStallLoadUse(c.idEx, c.ifID.Inst) {
		c.idEx = idExBubble()
		c.Stats.StallsData++
	} else {
		c.decode()
		if err := c.fetch(); err != nil {
			return err
		}
	}

	c.Regs.Write(0, 0)
	return nil
}

// pendingInterrupt checks the six standard interrupt sources in
// priority order (external > software > timer, machine before
// supervisor) against mie/mideleg/mstatus, returning the trap to take
// this cycle, if any.
func (c *Cpu) pendingInterrupt() (trap.Trap, bool) {
	mip, mie, mstatus := c.csrs.mip, c.csrs.mie, c.csrs.mstatus
	mGlobalIE := mstatus&isa.MstatusMIE != 0
	sGlobalIE := mstatus&isa.MstatusSIE != 0

	check := func(bit, enableBit, delegBit uint64, t trap.Trap) (trap.Trap, bool) {
		pending := mip&bit != 0
		enabled := mie&enableBit != 0
		if !pending || !enabled {
			return trap.Trap{}, false
		}
		delegated := c.csrs.mideleg&delegBit != 0
		targetPriv := isa.PrivM
		if delegated {
			targetPriv = isa.PrivS
		}
		if c.Privilege < targetPriv {
			return t, true
		}
		if c.Privilege == targetPriv {
			if targetPriv == isa.PrivM && mGlobalIE {
				return t, true
			}
			if targetPriv == isa.PrivS && sGlobalIE {
				return t, true
			}
		}
		return trap.Trap{}, false
	}

	order := []struct {
		bit, enable, deleg uint64
		t                  trap.Trap
	}{
		{isa.MipMEIP, isa.MipMEIP, 1 << 11, trap.MachineExternalInterruptTrap()},
		{isa.MipMSIP, isa.MipMSIP, 1 << 3, trap.MachineSoftwareInterruptTrap()},
		{isa.MipMTIP, isa.MipMTIP, 1 << 7, trap.MachineTimerInterruptTrap()},
		{isa.MipSEIP, isa.MipSEIP, 1 << 9, trap.SupervisorExternalInterruptTrap()},
		{isa.MipSSIP, isa.MipSSIP, 1 << 1, trap.SupervisorSoftwareInterruptTrap()},
		{isa.MipSTIP, isa.MipSTIP, 1 << 5, trap.SupervisorTimerInterruptTrap()},
	}
	for _, o := range order {
		if t, ok := check(o.bit, o.enable, o.deleg, o.t); ok {
			return t, true
		}
	}
	return trap.Trap{}, false
}

func (c *Cpu) trackModeCycles() {
	switch c.Privilege {
	case isa.PrivU:
		c.Stats.CyclesUser++
	case isa.PrivS:
		c.Stats.CyclesKernel++
	case isa.PrivM:
		c.Stats.CyclesMachine++
	}
}

// translate resolves a virtual address through the MMU (or the
// identity map in direct mode), additionally checking the result
// against the bus's installed address ranges.
func (c *Cpu) translate(vaddr trap.VirtAddr, access trap.AccessType) (trap.PhysAddr, uint64, trap.Trap) {
	if c.directMode {
		paddr := vaddr.Val()
		if !c.Bus.IsValidAddress(paddr) {
			return 0, 0, trap.AccessFaultFor(access, paddr)
		}
		return trap.PhysAddr(paddr), 0, trap.Trap{}
	}

	res := c.MMU.Translate(vaddr, access, c.Privilege, &c.csrs, c.Bus)
	if !res.Trap.Present() {
		if !c.Bus.IsValidAddress(res.Addr) {
			return 0, res.Cycles, trap.AccessFaultFor(access, res.Addr)
		}
	}
	return trap.PhysAddr(res.Addr), res.Cycles, res.Trap
}

// simulateMemoryAccess walks the cache hierarchy for an access to
// addr, L1 -> L2 -> L3 -> DRAM, and returns the total cycle penalty.
func (c *Cpu) simulateMemoryAccess(pc uint64, addr trap.PhysAddr, access trap.AccessType) uint64 {
	raw := addr.Val()
	isWrite := access == trap.AccessWrite
	memLatency := c.Bus.CalculateTransitTime(64)

	l1 := c.Caches.L1D
	if access == trap.AccessFetch {
		l1 = c.Caches.L1I
	}

	accessLatencies := []uint64{1, 4, 12}
	total := cache.AccessChain(pc, raw, isWrite, memLatency, accessLatencies, l1, c.Caches.L2, c.Caches.L3)

	if access == trap.AccessFetch {
		c.Stats.ICacheHits = c.Caches.L1I.Hits
		c.Stats.ICacheMisses = c.Caches.L1I.Misses
	} else {
		c.Stats.DCacheHits = c.Caches.L1D.Hits
		c.Stats.DCacheMisses = c.Caches.L1D.Misses
	}
	c.Stats.L2Hits, c.Stats.L2Misses = c.Caches.L2.Hits, c.Caches.L2.Misses
	c.Stats.L3Hits, c.Stats.L3Misses = c.Caches.L3.Hits, c.Caches.L3.Misses

	return total
}

// enterTrap redirects execution to the configured trap vector,
// delegating to supervisor mode when medeleg/mideleg names the cause
// and the core is already at or below supervisor privilege.
func (c *Cpu) enterTrap(cause trap.Trap, epc uint64) {
	code := uint64(cause.Code)

	delegMask := c.csrs.medeleg
	if cause.IsInterrupt {
		delegMask = c.csrs.mideleg
	}
	delegateToS := c.Privilege <= isa.PrivS && (delegMask>>code)&1 != 0

	tval := cause.Val

	if delegateToS {
		if cause.IsInterrupt {
			c.csrs.scause = (uint64(1) << 63) | code
		} else {
			c.csrs.scause = code
		}
		c.csrs.sepc = epc
		c.csrs.stval = tval

		sstatus := c.csrs.mstatus
		if sstatus&isa.MstatusSIE != 0 {
			sstatus |= isa.MstatusSPIE
		} else {
			sstatus &^= isa.MstatusSPIE
		}
		if c.Privilege == isa.PrivS {
			sstatus |= isa.MstatusSPP
		} else {
			sstatus &^= isa.MstatusSPP
		}
		sstatus &^= isa.MstatusSIE
		c.csrs.mstatus = sstatus

		c.Privilege = isa.PrivS
		c.PC = c.csrs.stvec &^ 3
		if c.csrs.stvec&1 != 0 && cause.IsInterrupt {
			c.PC += 4 * code
		}
	} else {
		if cause.IsInterrupt {
			c.csrs.mcause = (uint64(1) << 63) | code
		} else {
			c.csrs.mcause = code
		}
		c.csrs.mepc = epc
		c.csrs.mtval = tval

		mstatus := c.csrs.mstatus
		if mstatus&isa.MstatusMIE != 0 {
			mstatus |= isa.MstatusMPIE
		} else {
			mstatus &^= isa.MstatusMPIE
		}
		mstatus &^= isa.MstatusMPPMask
		mstatus |= uint64(c.Privilege) << isa.MstatusMPPShift
		mstatus &^= isa.MstatusMIE
		c.csrs.mstatus = mstatus

		c.Privilege = isa.PrivM
		c.PC = c.csrs.mtvec &^ 3
		if c.csrs.mtvec&1 != 0 && cause.IsInterrupt {
			c.PC += 4 * code
		}
	}

	c.Stats.TrapsTaken++
	c.ifID = ifIDBubble()
	c.idEx = idExBubble()
}

func (c *Cpu) doMret() {
	c.PC = c.csrs.mepc &^ 1
	mstatus := c.csrs.mstatus
	mpp := int((mstatus >> isa.MstatusMPPShift) & 3)
	mpie := mstatus&isa.MstatusMPIE != 0

	c.Privilege = mpp
	if mpie {
		mstatus |= isa.MstatusMIE
	} else {
		mstatus &^= isa.MstatusMIE
	}
	mstatus |= isa.MstatusMPIE
	mstatus &^= isa.MstatusMPPMask
	c.csrs.mstatus = mstatus

	c.ifID = ifIDBubble()
	c.idEx = idExBubble()
}

func (c *Cpu) doSret() {
	sstatus := c.csrs.Sstatus()
	c.PC = c.csrs.sepc &^ 1
	spp := sstatus&isa.MstatusSPP != 0
	spie := sstatus&isa.MstatusSPIE != 0

	if spp {
		c.Privilege = isa.PrivS
	} else {
		c.Privilege = isa.PrivU
	}

	newSstatus := sstatus
	if spie {
		newSstatus |= isa.MstatusSIE
	} else {
		newSstatus &^= isa.MstatusSIE
	}
	newSstatus |= isa.MstatusSPIE
	newSstatus &^= isa.MstatusSPP

	mask := isa.MstatusSIE | isa.MstatusSPIE | isa.MstatusSPP
	c.csrs.mstatus = (c.csrs.mstatus &^ mask) | (newSstatus & mask)

	c.ifID = ifIDBubble()
	c.idEx = idExBubble()
}

// csrRead delegates directly to the generic register set; csrWrite
// first intercepts writes to the debug CSR isa.CsrSimPanic, raising an
// illegal-instruction trap instead of storing the value.
func (c *Cpu) csrRead(addr uint32) uint64 {
	return c.csrs.read(addr, c.Stats.Cycles, c.Stats.InstructionsRetired)
}

func (c *Cpu) csrWrite(addr uint32, val uint64) {
	if addr == isa.CsrSimPanic {
		c.enterTrap(trap.IllegalInstructionTrap(val), c.PC)
		return
	}
	c.csrs.write(addr, val)
}

// TakeExit returns the exit code requested via ECALL (a7=93),
// consuming the pending request. A SYSCON poweroff write is not
// reported here; it is visible only through the SYSCON device's own
// Exit method.
func (c *Cpu) TakeExit() (code int, ok bool) {
	if !c.haveExit {
		return 0, false
	}
	c.haveExit = false
	return c.exitCode, true
}

// RequestExit records an exit request for the next Tick to observe,
// used by execute's ECALL exit path.
func (c *Cpu) RequestExit(code int) {
	c.exitCode = code
	c.haveExit = true
}

// DumpState renders the PC and integer registers, for the monitor.
func (c *Cpu) DumpState() string {
	regs := c.Regs.Dump()
	s := fmt.Sprintf("pc = %#018x  priv=%d\n", c.PC, c.Privilege)
	for i := 0; i < 32; i += 4 {
		s += fmt.Sprintf("x%-2d=%#018x x%-2d=%#018x x%-2d=%#018x x%-2d=%#018x\n",
			i, regs[i], i+1, regs[i+1], i+2, regs[i+2], i+3, regs[i+3])
	}
	return s
}
