/*
 * check.go, part of emfit.
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

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/emfit/emfit"
)

var checkCmd = &cobra.Command{
	Use:   "check GMMFILE",
	Short: "validate a density GMM file and report its overlap statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := emfit.ReadGMM(args[0])
		if err != nil {
			return err
		}
		hot := 0
		for i := 0; i < g.Len(); i++ {
			hot += g.Component(i).Beta
		}
		logger.Info("GMM loaded",
			zap.String("file", args[0]),
			zap.Int("components", g.Len()),
			zap.Int("hot", hot),
			zap.Float64("total_weight", g.TotalWeight()),
		)
		ovdd := g.SelfOverlaps()
		sorted := append([]float64(nil), ovdd...)
		sort.Float64s(sorted)
		fmt.Printf("self-overlaps: median %.6e mean %.6e min %.6e max %.6e\n",
			sorted[len(sorted)/2], stat.Mean(ovdd, nil), floats.Min(ovdd), floats.Max(ovdd))
		if cfg.ErrFile == "" {
			return nil
		}
		errs, err := emfit.ReadExpErrors(cfg.ErrFile, g.Len())
		if err != nil {
			return err
		}
		rel := make([]float64, len(errs))
		for i := range rel {
			rel[i] = errs[i] / ovdd[i]
		}
		fmt.Printf("relative errors: mean %.6e min %.6e max %.6e\n",
			stat.Mean(rel, nil), floats.Min(rel), floats.Max(rel))
		return nil
	},
}
