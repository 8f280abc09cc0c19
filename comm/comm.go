/*
 * comm.go, part of emfit.
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

/*Package comm provides the blocking collective operations the scoring engine
distributes its work over: an in-place sum-reduction and a variable-length
all-gather across a fixed group of ranks.

The engine never assumes a particular runtime. A single-rank program uses
Solo, which makes every collective a no-op; a single-process multi-goroutine
run (one goroutine per rank, as in the tests) uses NewGroup; an MPI-backed
host can satisfy the same interface with real message passing. All members of
a group must call the same sequence of collectives; each call blocks until the
whole group has entered it.*/
package comm

// Communicator is the handle a rank holds into its group.
type Communicator interface {
	//Size returns the number of ranks in the group.
	Size() int
	//Rank returns the rank of this member, in [0, Size).
	Rank() int
	//Sum replaces x on every rank with the element-wise sum over all ranks.
	Sum(x []float64)
	//SumInt is Sum for integer vectors.
	SumInt(x []int)
	//Allgatherv concatenates the local slices of all ranks, in rank order,
	//and returns the concatenation on every rank. Local lengths may differ.
	Allgatherv(local []int) []int
}

type solo struct{}

// Solo returns the trivial single-rank communicator.
func Solo() Communicator { return solo{} }

func (solo) Size() int        { return 1 }
func (solo) Rank() int        { return 0 }
func (solo) Sum(x []float64)  {}
func (solo) SumInt(x []int)   {}
func (solo) Allgatherv(local []int) []int {
	out := make([]int, len(local))
	copy(out, local)
	return out
}
