/*
 * riscvsim - Main process.
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

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"golang.org/x/term"

	"github.com/loopcycle/riscvsim/internal/bp"
	"github.com/loopcycle/riscvsim/internal/bus"
	"github.com/loopcycle/riscvsim/internal/cache"
	riscvconfig "github.com/loopcycle/riscvsim/internal/config"
	"github.com/loopcycle/riscvsim/internal/cpu"
	"github.com/loopcycle/riscvsim/internal/device"
	"github.com/loopcycle/riscvsim/internal/monitor"
	logger "github.com/loopcycle/riscvsim/util/logger"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "riscvsim.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optInteractive := getopt.BoolLong("interactive", 'i', "Drop into the monitor instead of free-running")
	optDebug := getopt.BoolLong("debug", 'd', "Tee log output to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if optLogFile != nil && *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			slog.Error("riscvsim: " + err.Error())
			os.Exit(1)
		}
		file = f
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, optDebug))
	slog.SetDefault(Logger)

	Logger.Info("riscvsim started")

	cfg := riscvconfig.Default()
	if optConfig != nil && *optConfig != "" {
		if _, err := os.Stat(*optConfig); err == nil {
			loaded, err := riscvconfig.Load(*optConfig)
			if err != nil {
				Logger.Error("riscvsim: " + err.Error())
				os.Exit(1)
			}
			cfg = loaded
		} else {
			Logger.Info("no configuration file found, using defaults", "path", *optConfig)
		}
	}

	sim, shutdown, err := buildSystem(cfg, Logger)
	if err != nil {
		Logger.Error("riscvsim: " + err.Error())
		os.Exit(1)
	}
	defer shutdown()

	if *optInteractive {
		mon := monitor.New(sim, Logger)
		mon.Run()
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var cycles uint64
	for {
		select {
		case <-sigChan:
			Logger.Info("riscvsim: got quit signal")
			return
		default:
		}

		if err := sim.Tick(); err != nil {
			Logger.Error("riscvsim: " + err.Error())
			return
		}
		if code, ok := sim.TakeExit(); ok {
			Logger.Info("riscvsim: guest exited", "code", code)
			os.Exit(code)
		}
		cycles++
		if cfg.CycleBudget > 0 && cycles >= cfg.CycleBudget {
			Logger.Info("riscvsim: cycle budget reached", "cycles", cycles)
			return
		}
	}
}

// buildSystem wires RAM/CLINT/PLIC/UART/virtio-block/SYSCON onto a bus,
// constructs the core over it, and loads the configured kernel/DTB/disk
// images. The returned shutdown func stops the UART's reader goroutine
// and restores the host terminal, if it was put into raw mode.
func buildSystem(cfg riscvconfig.Config, log *slog.Logger) (*cpu.Cpu, func(), error) {
	b := bus.New(cfg.BusWidthBytes, cfg.MemLatencyCycles, log)

	ram := device.NewRAM(cfg.RAMBase, cfg.RAMSize)
	b.Add(ram)
	b.Add(device.NewCLINT(cfg.CLINTBase))
	b.Add(device.NewPLIC(cfg.PLICBase))
	b.Add(device.NewSYSCON(cfg.SysconBase))

	var restoreTerm func()
	var uartIn *os.File
	if term.IsTerminal(int(os.Stdin.Fd())) {
		prevState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err == nil {
			uartIn = os.Stdin
			restoreTerm = func() { term.Restore(int(os.Stdin.Fd()), prevState) }
		}
	}
	if restoreTerm == nil {
		restoreTerm = func() {}
	}
	uart := device.NewUART(cfg.UARTBase, uartIn, os.Stdout)
	b.Add(uart)

	var disk []byte
	if cfg.DiskPath != "" {
		d, err := os.ReadFile(cfg.DiskPath)
		if err != nil {
			restoreTerm()
			return nil, nil, err
		}
		disk = d
	}
	b.Add(device.NewVirtioBlock(cfg.VirtioBase, ram, disk))

	opts := cpu.Options{
		StartPC: cfg.RAMBase,
		Trace:   cfg.Trace,

		DirectMode:      cfg.DirectMode,
		BranchPredictor: cfg.Predictor,
		BPConfig: bp.Config{
			BtbSize:     cfg.BTBSize,
			RasCapacity: cfg.RASCapacity,
			GhrBits:     cfg.GHRBits,
			PhtBits:     cfg.PHTBits,
			LocalBits:   cfg.LocalBits,
			NumBanks:    cfg.NumBanks,
			HistoryLen:  cfg.HistoryLen,
		},

		L1I: cacheConfig("L1I", cfg.L1I),
		L1D: cacheConfig("L1D", cfg.L1D),
		L2:  cacheConfig("L2", cfg.L2),
		L3:  cacheConfig("L3", cfg.L3),

		TLBSize: cfg.TLBSize,
		Log:     log,
	}

	sim := cpu.New(b, opts)

	var kernel, dtb []byte
	if cfg.KernelPath != "" {
		data, err := os.ReadFile(cfg.KernelPath)
		if err != nil {
			restoreTerm()
			return nil, nil, err
		}
		kernel = data
	}
	if cfg.DTBPath != "" {
		data, err := os.ReadFile(cfg.DTBPath)
		if err != nil {
			restoreTerm()
			return nil, nil, err
		}
		dtb = data
	}
	sim.LoadBoot(cpu.BootImage{
		RAMBase:      cfg.RAMBase,
		Kernel:       kernel,
		KernelOffset: cfg.KernelOffset,
		DTB:          dtb,
		HartID:       0,
	})

	shutdown := func() {
		uart.Close()
		restoreTerm()
	}
	return sim, shutdown, nil
}

func cacheConfig(name string, lvl riscvconfig.CacheLevel) cache.Config {
	return cache.Config{
		Name:       name,
		SizeBytes:  lvl.SizeBytes,
		LineSize:   lvl.LineSize,
		Ways:       lvl.Ways,
		Policy:     lvl.Policy,
		Prefetcher: lvl.Prefetcher,
		Degree:     lvl.Degree,
	}
}
