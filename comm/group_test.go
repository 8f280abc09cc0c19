/*
 * group_test.go, part of emfit.
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

import (
	"sync"
	"testing"
)

func TestSolo(Te *testing.T) {
	c := Solo()
	if c.Size() != 1 || c.Rank() != 0 {
		Te.Fatalf("solo size/rank: %d/%d", c.Size(), c.Rank())
	}
	x := []float64{1, 2}
	c.Sum(x)
	if x[0] != 1 || x[1] != 2 {
		Te.Errorf("solo Sum changed the vector: %v", x)
	}
	g := c.Allgatherv([]int{7, 8})
	if len(g) != 2 || g[0] != 7 || g[1] != 8 {
		Te.Errorf("solo Allgatherv: %v", g)
	}
}

//TestGroupSum runs three consecutive collectives per rank, so the
//generation counter has to reset correctly between them.
func TestGroupSum(Te *testing.T) {
	const n = 4
	ranks := NewGroup(n)
	sums := make([][]float64, n)
	isums := make([][]int, n)
	gathers := make([][]int, n)
	var wg sync.WaitGroup
	for r := 0; r < n; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			c := ranks[r]
			x := []float64{float64(r), 1.0}
			c.Sum(x)
			sums[r] = x
			y := []int{r * r}
			c.SumInt(y)
			isums[r] = y
			local := make([]int, r+1)
			for i := range local {
				local[i] = r
			}
			gathers[r] = c.Allgatherv(local)
		}(r)
	}
	wg.Wait()
	wantSum := []float64{0 + 1 + 2 + 3, n}
	wantISum := 0 + 1 + 4 + 9
	wantGather := []int{0, 1, 1, 2, 2, 2, 3, 3, 3, 3}
	for r := 0; r < n; r++ {
		if sums[r][0] != wantSum[0] || sums[r][1] != wantSum[1] {
			Te.Errorf("rank %d Sum: %v, want %v", r, sums[r], wantSum)
		}
		if isums[r][0] != wantISum {
			Te.Errorf("rank %d SumInt: %v, want %v", r, isums[r][0], wantISum)
		}
		if len(gathers[r]) != len(wantGather) {
			Te.Fatalf("rank %d Allgatherv length %d, want %d", r, len(gathers[r]), len(wantGather))
		}
		for i := range wantGather {
			if gathers[r][i] != wantGather[i] {
				Te.Errorf("rank %d Allgatherv: %v, want %v", r, gathers[r], wantGather)
				break
			}
		}
	}
}

//TestGroupRepeated stresses the barrier with many rounds of alternating
//collectives from every rank.
func TestGroupRepeated(Te *testing.T) {
	const n, rounds = 3, 200
	ranks := NewGroup(n)
	var wg sync.WaitGroup
	errs := make([]bool, n)
	for r := 0; r < n; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			c := ranks[r]
			for i := 0; i < rounds; i++ {
				x := []float64{1.0}
				c.Sum(x)
				if x[0] != float64(n) {
					errs[r] = true
					return
				}
				g := c.Allgatherv([]int{r})
				if len(g) != n {
					errs[r] = true
					return
				}
			}
		}(r)
	}
	wg.Wait()
	for r, bad := range errs {
		if bad {
			Te.Errorf("rank %d saw a corrupted collective", r)
		}
	}
}
