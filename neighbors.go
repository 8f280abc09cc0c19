/*
 * neighbors.go, part of emfit.
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

package emfit

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

//The pruning is relative, per map component: the pairs contributing least to
//a component's total overlap are dropped, up to the cutoff fraction of that
//total. Walking the pairs in ascending overlap, the first one to push the
//accumulated discarded mass to the threshold is kept, along with everything
//after it. A tight component near many atoms and a diffuse one near few both
//keep the pairs that matter to them.

type nlCand struct {
	ov float64
	im int
}

// updateNeighborList rebuilds the pair list at the current positions. The
// components are strided over the ranks and the per-rank lists concatenated,
// so every rank ends up with the full list. Pairs whose overlap exponential
// falls beyond the tabulated range count as zero for this build.
func (R *Restraint) updateNeighborList(pos *mat.Dense) {
	na, nc := R.natoms, R.gmm.Len()
	pbc := R.o.Boundary()
	size, rank := R.local.Size(), R.local.Rank()
	local := make([]int, 0, na)
	cands := make([]nlCand, 0, na)
	for id := rank; id < nc; id += size {
		cands = cands[:0]
		var tot float64
		mean := R.gmm.Component(id).Mean
		for im := 0; im < na; im++ {
			k := R.model.typ[im]*nc + id
			arg := 0.5 * overlapArg(delta(pbc, mean, atomPos(pos, im)), R.invcov[k])
			e, ok := R.tab.at(arg)
			if !ok {
				continue
			}
			ov := R.prefact[k] * e
			cands = append(cands, nlCand{ov, im})
			tot += ov
		}
		if len(cands) == 0 {
			continue
		}
		//ties broken by atom index, so the list is deterministic
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].ov != cands[b].ov {
				return cands[a].ov < cands[b].ov
			}
			return cands[a].im < cands[b].im
		})
		cut := tot * R.o.NLCutoff()
		keep := len(cands)
		var res float64
		for k := range cands {
			res += cands[k].ov
			if res >= cut {
				keep = k
				break
			}
		}
		for _, c := range cands[keep:] {
			local = append(local, id*na+c.im)
		}
	}
	R.nl = R.local.Allgatherv(local)
	R.ovmdDer = make([]float64, 3*len(R.nl))
}
