/*
 * riscvsim - Configuration file parser.
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

// Package config loads the simulator's text configuration: memory and
// MMIO layout, image paths, cache/predictor/TLB geometry, and the run
// loop's cycle budget.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CacheLevel configures one level of the cache hierarchy.
type CacheLevel struct {
	SizeBytes  int
	LineSize   int
	Ways       int
	Policy     string
	Prefetcher string
	Degree     int
}

func defaultCacheLevel(size, line, ways int) CacheLevel {
	return CacheLevel{SizeBytes: size, LineSize: line, Ways: ways, Policy: "lru", Prefetcher: "none"}
}

// Config is the full simulator configuration, built by Load and
// filled in with defaults for any key the file omits.
type Config struct {
	RAMBase uint64
	RAMSize uint64

	CLINTBase  uint64
	PLICBase   uint64
	UARTBase   uint64
	VirtioBase uint64
	SysconBase uint64

	KernelPath   string
	KernelOffset uint64
	DTBPath      string
	DiskPath     string

	MemLatencyCycles uint64
	BusWidthBytes    uint64

	L1I, L1D, L2, L3 CacheLevel
	TLBSize          int

	Predictor   string
	BTBSize     int
	RASCapacity int
	GHRBits     int
	PHTBits     int
	LocalBits   int
	NumBanks    int
	HistoryLen  int

	PipelineWidth int
	CycleBudget   uint64

	Trace      bool
	DirectMode bool
}

// Default returns a Config with every field set to a value that boots
// a bare-metal RV64IMAFDC kernel at ram_base with no image files.
func Default() Config {
	return Config{
		RAMBase: 0x80000000,
		RAMSize: 128 << 20,

		CLINTBase:  0x02000000,
		PLICBase:   0x0c000000,
		UARTBase:   0x10000000,
		VirtioBase: 0x10001000,
		SysconBase: 0x100000,

		KernelOffset: 0,

		MemLatencyCycles: 100,
		BusWidthBytes:    8,

		L1I: defaultCacheLevel(32<<10, 64, 4),
		L1D: defaultCacheLevel(32<<10, 64, 8),
		L2:  defaultCacheLevel(256<<10, 64, 8),
		L3:  defaultCacheLevel(8<<20, 64, 16),

		TLBSize: 64,

		Predictor:     "gshare",
		BTBSize:       256,
		RASCapacity:   16,
		GHRBits:       12,
		PHTBits:       12,
		LocalBits:     10,
		NumBanks:      4,
		HistoryLen:    12,
		PipelineWidth: 1,
		CycleBudget:   0,
	}
}

// Load reads key=value configuration text from path, starting from
// Default and overriding whichever keys the file sets.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads key=value configuration text from r.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return Config{}, fmt.Errorf("config: line %d: missing '='", lineNo)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		if err := cfg.apply(key, val); err != nil {
			return Config{}, fmt.Errorf("config: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) apply(key, val string) error {
	switch {
	case key == "ram_base":
		return setHexU64(&cfg.RAMBase, val)
	case key == "ram_size":
		return setHexU64(&cfg.RAMSize, val)
	case key == "clint_base":
		return setHexU64(&cfg.CLINTBase, val)
	case key == "plic_base":
		return setHexU64(&cfg.PLICBase, val)
	case key == "uart_base":
		return setHexU64(&cfg.UARTBase, val)
	case key == "virtio_base":
		return setHexU64(&cfg.VirtioBase, val)
	case key == "syscon_base":
		return setHexU64(&cfg.SysconBase, val)
	case key == "kernel":
		cfg.KernelPath = val
	case key == "kernel_offset":
		return setHexU64(&cfg.KernelOffset, val)
	case key == "dtb":
		cfg.DTBPath = val
	case key == "disk":
		cfg.DiskPath = val
	case key == "mem_latency_cycles":
		return setDecU64(&cfg.MemLatencyCycles, val)
	case key == "bus_width_bytes":
		return setDecU64(&cfg.BusWidthBytes, val)
	case key == "tlb_size":
		return setDecInt(&cfg.TLBSize, val)
	case key == "predictor":
		cfg.Predictor = val
	case key == "btb_size":
		return setDecInt(&cfg.BTBSize, val)
	case key == "ras_capacity":
		return setDecInt(&cfg.RASCapacity, val)
	case key == "ghr_bits":
		return setDecInt(&cfg.GHRBits, val)
	case key == "pht_bits":
		return setDecInt(&cfg.PHTBits, val)
	case key == "local_bits":
		return setDecInt(&cfg.LocalBits, val)
	case key == "num_banks":
		return setDecInt(&cfg.NumBanks, val)
	case key == "history_len":
		return setDecInt(&cfg.HistoryLen, val)
	case key == "pipeline_width":
		return setDecInt(&cfg.PipelineWidth, val)
	case key == "cycle_budget":
		return setDecU64(&cfg.CycleBudget, val)
	case key == "trace":
		cfg.Trace = val == "true" || val == "1"
	case key == "direct_mode":
		cfg.DirectMode = val == "true" || val == "1"
	case strings.HasPrefix(key, "l1i_"):
		return applyCacheLevel(&cfg.L1I, strings.TrimPrefix(key, "l1i_"), val)
	case strings.HasPrefix(key, "l1d_"):
		return applyCacheLevel(&cfg.L1D, strings.TrimPrefix(key, "l1d_"), val)
	case strings.HasPrefix(key, "l2_"):
		return applyCacheLevel(&cfg.L2, strings.TrimPrefix(key, "l2_"), val)
	case strings.HasPrefix(key, "l3_"):
		return applyCacheLevel(&cfg.L3, strings.TrimPrefix(key, "l3_"), val)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func applyCacheLevel(lvl *CacheLevel, field, val string) error {
	switch field {
	case "size":
		return setDecInt(&lvl.SizeBytes, val)
	case "line":
		return setDecInt(&lvl.LineSize, val)
	case "ways":
		return setDecInt(&lvl.Ways, val)
	case "policy":
		lvl.Policy = val
	case "prefetch":
		lvl.Prefetcher = val
	case "degree":
		return setDecInt(&lvl.Degree, val)
	default:
		return fmt.Errorf("unknown cache field %q", field)
	}
	return nil
}

func setHexU64(dst *uint64, val string) error {
	v, err := strconv.ParseUint(strings.TrimPrefix(val, "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("expected hex value: %w", err)
	}
	*dst = v
	return nil
}

func setDecU64(dst *uint64, val string) error {
	v, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return fmt.Errorf("expected integer value: %w", err)
	}
	*dst = v
	return nil
}

func setDecInt(dst *int, val string) error {
	v, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("expected integer value: %w", err)
	}
	*dst = v
	return nil
}
