/*
 * riscvsim - Interactive register/memory monitor.
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

// Package monitor is a liner-backed operator console for stepping and
// inspecting a running core: registers, memory, breakpoints, and run
// control, driven entirely through the cpu package's external
// interface (never reaching into pipeline internals).
package monitor

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/loopcycle/riscvsim/internal/cpu"
	"github.com/loopcycle/riscvsim/util/hex"
)

type cmd struct {
	Name    string
	Min     int
	Process func(m *Monitor, args []string) error
}

var cmdList = []cmd{
	{Name: "regs", Min: 1, Process: (*Monitor).cmdRegs},
	{Name: "mem", Min: 1, Process: (*Monitor).cmdMem},
	{Name: "step", Min: 2, Process: (*Monitor).cmdStep},
	{Name: "run", Min: 1, Process: (*Monitor).cmdRun},
	{Name: "break", Min: 2, Process: (*Monitor).cmdBreak},
	{Name: "quit", Min: 1, Process: (*Monitor).cmdQuit},
	{Name: "help", Min: 1, Process: (*Monitor).cmdHelp},
}

// Monitor is the REPL state: the core it drives, the set of active
// breakpoints, and whether the last command asked the loop to exit.
type Monitor struct {
	Core        *cpu.Cpu
	breakpoints map[uint64]bool
	quit        bool
	log         *slog.Logger
}

// New builds a Monitor over an already-constructed core.
func New(c *cpu.Cpu, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{Core: c, breakpoints: make(map[uint64]bool), log: log}
}

// Run drives the liner prompt loop until "quit" or a Ctrl-D/Ctrl-C
// abort, mirroring the teacher's ConsoleReader shape.
func (m *Monitor) Run() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		return completeCmd(partial)
	})

	for !m.quit {
		input, err := line.Prompt("riscvsim> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			m.log.Error("monitor: error reading line: " + err.Error())
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if err := m.dispatch(input); err != nil {
			fmt.Println("error: " + err.Error())
		}
	}
}

func (m *Monitor) dispatch(input string) error {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	args := fields[1:]

	for _, c := range cmdList {
		if len(name) >= c.Min && strings.HasPrefix(c.Name, name) {
			return c.Process(m, args)
		}
	}
	return fmt.Errorf("unknown command %q", name)
}

func completeCmd(partial string) []string {
	var out []string
	for _, c := range cmdList {
		if strings.HasPrefix(c.Name, strings.ToLower(partial)) {
			out = append(out, c.Name)
		}
	}
	return out
}

func (m *Monitor) cmdRegs(_ []string) error {
	fmt.Println(m.Core.DumpState())
	return nil
}

func (m *Monitor) cmdMem(args []string) error {
	if len(args) < 1 {
		return errors.New("mem: usage: mem <addr> [len]")
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("mem: %w", err)
	}
	length := uint64(64)
	if len(args) > 1 {
		l, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("mem: %w", err)
		}
		length = l
	}

	bus := m.Core.Bus
	var str strings.Builder
	for i := uint64(0); i < length; i += 16 {
		fmt.Fprintf(&str, "%016x: ", addr+i)
		row := make([]byte, 0, 16)
		for j := uint64(0); j < 16 && i+j < length; j++ {
			row = append(row, bus.ReadU8(addr+i+j))
		}
		hex.FormatBytes(&str, true, row)
		str.WriteByte('\n')
	}
	fmt.Print(str.String())
	return nil
}

func (m *Monitor) cmdStep(args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		n = v
	}
	for i := 0; i < n; i++ {
		if err := m.Core.Tick(); err != nil {
			return err
		}
		if _, ok := m.Core.TakeExit(); ok {
			return nil
		}
	}
	return nil
}

func (m *Monitor) cmdRun(_ []string) error {
	for {
		if err := m.Core.Tick(); err != nil {
			return err
		}
		if _, ok := m.Core.TakeExit(); ok {
			return nil
		}
		if m.atBreakpoint() {
			fmt.Println("stopped at breakpoint")
			return nil
		}
	}
}

func (m *Monitor) atBreakpoint() bool {
	return m.breakpoints[m.Core.PC]
}

func (m *Monitor) cmdBreak(args []string) error {
	if len(args) == 0 {
		return errors.New("break: missing address")
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("break: %w", err)
	}
	m.breakpoints[addr] = true
	return nil
}

func (m *Monitor) cmdQuit(_ []string) error {
	m.quit = true
	return nil
}

func (m *Monitor) cmdHelp(_ []string) error {
	fmt.Println("regs | mem <addr> <len> | step [n] | run | break <addr> | quit")
	return nil
}
