/*
 * riscvsim - Set-associative cache simulation, composed into a hierarchy.
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

// Package cache implements a set-associative cache with pluggable
// replacement and prefetch policies, composed into an L1/L2/L3
// hierarchy by the CPU.
package cache

import (
	"github.com/loopcycle/riscvsim/internal/cache/policy"
	"github.com/loopcycle/riscvsim/internal/cache/prefetch"
)

// Config describes one cache level's geometry and plugged-in policies.
type Config struct {
	Name       string
	SizeBytes  int
	LineSize   int
	Ways       int
	Policy     string // lru, fifo, plru, random
	Prefetcher string // nextline, stride, none
	Degree     int
}

type line struct {
	tag   uint64
	valid bool
	dirty bool
}

// Cache is one set-associative cache level.
type Cache struct {
	cfg        Config
	sets       int
	lines      [][]line // [set][way]
	repl       policy.Policy
	prefetcher prefetch.Prefetcher

	Hits   uint64
	Misses uint64
}

// New constructs a cache level from cfg.
func New(cfg Config) *Cache {
	sets := cfg.SizeBytes / (cfg.LineSize * cfg.Ways)
	if sets < 1 {
		sets = 1
	}
	lines := make([][]line, sets)
	for s := range lines {
		lines[s] = make([]line, cfg.Ways)
	}
	return &Cache{
		cfg:        cfg,
		sets:       sets,
		lines:      lines,
		repl:       policy.New(cfg.Policy, sets, cfg.Ways),
		prefetcher: prefetch.New(cfg.Prefetcher, cfg.Degree),
	}
}

func (c *Cache) index(addr uint64) int {
	return int((addr / uint64(c.cfg.LineSize)) % uint64(c.sets))
}

func (c *Cache) tag(addr uint64) uint64 {
	return addr / uint64(c.cfg.LineSize*c.sets)
}

// LineSize returns this level's line size in bytes, needed by callers
// that must detect whether an unaligned access crosses a line boundary.
func (c *Cache) LineSize() int {
	return c.cfg.LineSize
}

// Contains reports whether addr's line is resident, without
// disturbing replacement state.
func (c *Cache) Contains(addr uint64) bool {
	set := c.index(addr)
	tag := c.tag(addr)
	for _, l := range c.lines[set] {
		if l.valid && l.tag == tag {
			return true
		}
	}
	return false
}

// Access performs a cache access. nextLevelLatency is the penalty
// charged for installing a line fetched from (or evicted to) the next
// level down. It returns whether the access hit and the additional
// penalty incurred (0 on a hit with no dirty eviction).
func (c *Cache) Access(pc, addr uint64, isWrite bool, nextLevelLatency uint64) (hit bool, penalty uint64) {
	set := c.index(addr)
	tag := c.tag(addr)

	for way := range c.lines[set] {
		l := &c.lines[set][way]
		if l.valid && l.tag == tag {
			c.repl.Touch(set, way)
			if isWrite {
				l.dirty = true
			}
			c.Hits++
			c.prefetchFollowing(pc, addr, nextLevelLatency)
			return true, 0
		}
	}

	c.Misses++
	way := c.repl.Victim(set)
	victim := &c.lines[set][way]
	if victim.valid && victim.dirty {
		penalty += nextLevelLatency
	}
	*victim = line{tag: tag, valid: true, dirty: isWrite}
	c.repl.Touch(set, way)
	penalty += nextLevelLatency

	c.prefetchFollowing(pc, addr, nextLevelLatency)
	return false, penalty
}

func (c *Cache) prefetchFollowing(pc, addr, nextLevelLatency uint64) {
	for _, predAddr := range c.prefetcher.Predict(pc, addr, uint64(c.cfg.LineSize)) {
		if c.Contains(predAddr) {
			continue
		}
		set := c.index(predAddr)
		tag := c.tag(predAddr)
		way := c.repl.Victim(set)
		c.lines[set][way] = line{tag: tag, valid: true}
		c.repl.Touch(set, way)
	}
}

// Hierarchy composes L1-I, L1-D, L2, L3 in series, consulted by the
// CPU's fetch and memory stages.
type Hierarchy struct {
	L1I *Cache
	L1D *Cache
	L2  *Cache
	L3  *Cache
}

// NewHierarchy builds the four levels from the given configs.
func NewHierarchy(l1i, l1d, l2, l3 Config) *Hierarchy {
	return &Hierarchy{
		L1I: New(l1i),
		L1D: New(l1d),
		L2:  New(l2),
		L3:  New(l3),
	}
}

// AccessChain walks levels outermost (L1) to innermost (L3) in order,
// falling through to the next level on each miss and finally to
// memLatency if every level misses. Each traversed level's own access
// latency (accessLatencies[i]) is always charged; a miss additionally
// charges whatever the next level (or memory) costs to reach.
func AccessChain(pc, addr uint64, isWrite bool, memLatency uint64, accessLatencies []uint64, levels ...*Cache) uint64 {
	var total uint64
	for i, lvl := range levels {
		next := memLatency
		if i+1 < len(accessLatencies) {
			next = accessLatencies[i+1]
		}
		hit, penalty := lvl.Access(pc, addr, isWrite, next)
		total += accessLatencies[i] + penalty
		if hit {
			return total
		}
	}
	return total
}
