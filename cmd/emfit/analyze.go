/*
 * analyze.go, part of emfit.
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
	"io"
	"math"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/emfit/emfit"
	"github.com/emfit/emfit/xyz"
)

var plotFile string

var analyzeCmd = &cobra.Command{
	Use:   "analyze GMMFILE TRAJECTORY",
	Short: "score an XYZ trajectory against a density GMM, frame by frame",
	Long: `analyze runs the scoring engine in analysis mode over a trajectory:
no bias is computed, only the deviation of the running-average model overlaps
from the map, written per component to the deviation file. With --plot, the
mean relative deviation per frame is also plotted to a PNG.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := emfit.ReadGMM(args[0])
		if err != nil {
			return err
		}
		traj, err := xyz.New(args[1])
		if err != nil {
			return err
		}
		defer traj.Close()
		o := cfg.options(zap.NewStdLog(logger))
		o.Analysis(true)
		r, err := emfit.NewRestraint(g, traj, o)
		if err != nil {
			return err
		}
		defer r.Close()
		ovdd := r.Targets()
		pos := mat.NewDense(traj.Len(), 3, nil)
		var frames plotter.XYs
		for step := int64(0); ; step++ {
			if err := traj.Next(pos); err == io.EOF {
				break
			} else if err != nil {
				return err
			}
			if _, err := r.Calculate(step, false, pos); err != nil {
				return err
			}
			var dev float64
			for i, ov := range r.Overlaps() {
				dev += math.Abs(ov/ovdd[i] - 1.0)
			}
			dev /= float64(len(ovdd))
			frames = append(frames, plotter.XY{X: float64(step), Y: dev})
		}
		logger.Info("trajectory analyzed",
			zap.Int("frames", len(frames)),
			zap.String("deviations", o.DevFile()),
		)
		if plotFile == "" {
			return nil
		}
		p := plot.New()
		p.Title.Text = "mean relative overlap deviation"
		p.X.Label.Text = "frame"
		p.Y.Label.Text = "deviation"
		line, err := plotter.NewLine(frames)
		if err != nil {
			return err
		}
		p.Add(line, plotter.NewGrid())
		return p.Save(6*vg.Inch, 4*vg.Inch, plotFile)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&plotFile, "plot", "", "plot the per-frame deviation to this PNG file")
}
