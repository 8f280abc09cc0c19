/*
 * group.go, part of emfit.
 *
 * Copyright 2023 The emfit developers
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package comm

import "sync"

//An in-process group: every rank is a goroutine sharing one hub. Collectives
//are generation-counted barriers; the last rank to arrive completes the
//operation and wakes the rest. Because each waiter copies the result out
//while holding the hub lock, a fast rank can't corrupt a collective its
//peers are still reading.

type hub struct {
	n       int
	mu      sync.Mutex
	cond    *sync.Cond
	gen     uint64
	arrived int
	facc    []float64
	fres    []float64
	iacc    []int
	ires    []int
	parts   [][]int
	gres    []int
}

type member struct {
	h    *hub
	rank int
}

// NewGroup creates an in-process group of n ranks and returns one
// Communicator per rank. Each returned handle must be used by exactly one
// goroutine. Panics if n is not positive.
func NewGroup(n int) []Communicator {
	if n <= 0 {
		panic("comm: group size must be positive")
	}
	h := &hub{n: n}
	h.cond = sync.NewCond(&h.mu)
	ranks := make([]Communicator, n)
	for i := 0; i < n; i++ {
		ranks[i] = &member{h: h, rank: i}
	}
	return ranks
}

func (m *member) Size() int { return m.h.n }
func (m *member) Rank() int { return m.rank }

// arrive blocks until all ranks of the current generation have arrived.
// The last arrival runs complete under the hub lock before waking the rest.
// Must be called with the hub lock held.
func (h *hub) arrive(complete func()) {
	gen := h.gen
	h.arrived++
	if h.arrived == h.n {
		complete()
		h.arrived = 0
		h.gen++
		h.cond.Broadcast()
		return
	}
	for gen == h.gen {
		h.cond.Wait()
	}
}

func (m *member) Sum(x []float64) {
	h := m.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.facc == nil {
		h.facc = make([]float64, len(x))
	}
	if len(h.facc) != len(x) {
		panic("comm: mismatched vector lengths in collective Sum")
	}
	for i, v := range x {
		h.facc[i] += v
	}
	h.arrive(func() {
		h.fres = h.facc
		h.facc = nil
	})
	copy(x, h.fres)
}

func (m *member) SumInt(x []int) {
	h := m.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.iacc == nil {
		h.iacc = make([]int, len(x))
	}
	if len(h.iacc) != len(x) {
		panic("comm: mismatched vector lengths in collective SumInt")
	}
	for i, v := range x {
		h.iacc[i] += v
	}
	h.arrive(func() {
		h.ires = h.iacc
		h.iacc = nil
	})
	copy(x, h.ires)
}

func (m *member) Allgatherv(local []int) []int {
	h := m.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.parts == nil {
		h.parts = make([][]int, h.n)
	}
	h.parts[m.rank] = append([]int(nil), local...)
	h.arrive(func() {
		total := 0
		for _, p := range h.parts {
			total += len(p)
		}
		res := make([]int, 0, total)
		for _, p := range h.parts {
			res = append(res, p...)
		}
		h.gres = res
		h.parts = nil
	})
	out := make([]int, len(h.gres))
	copy(out, h.gres)
	return out
}
