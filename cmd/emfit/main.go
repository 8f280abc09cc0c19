/*
 * main.go, part of emfit.
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

// Command emfit inspects density-map GMM files and scores trajectories
// against them, outside of any simulation engine.
//
//	emfit check map.gmm
//	emfit analyze map.gmm traj.xyz --plot dev.png
//
// Options beyond the command line live in a YAML file, by default emfit.yaml
// next to the working directory, selected with --config.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/emfit/emfit"
	"github.com/emfit/emfit/comm"
)

// Config mirrors the engine options in YAML form. Zero values defer to the
// engine defaults.
type Config struct {
	Temp          float64   `yaml:"temp"`
	NLCutoff      float64   `yaml:"nl_cutoff"`
	NLStride      int64     `yaml:"nl_stride"`
	SigmaMeanHot  float64   `yaml:"sigma_mean_hot"`
	SigmaMeanCold float64   `yaml:"sigma_mean_cold"`
	Blur          float64   `yaml:"blur"`
	ErrFile       string    `yaml:"err_file"`
	Scale         float64   `yaml:"scale"`
	Regression    int64     `yaml:"regression"`
	DevFile       string    `yaml:"dev_file"`
	Box           []float64 `yaml:"box"` //orthorhombic, nm; empty means non-periodic
}

var (
	cfg        Config
	configPath string
	logger     *zap.Logger
)

// options translates the YAML config into engine options.
func (c *Config) options(lg *log.Logger) *emfit.Options {
	o := emfit.DefaultOptions()
	o.Temp(c.Temp)
	if c.NLCutoff > 0 {
		o.NLCutoff(c.NLCutoff)
	}
	if c.NLStride > 0 {
		o.NLStride(c.NLStride)
	}
	o.SigmaMeanHot(c.SigmaMeanHot)
	o.SigmaMeanCold(c.SigmaMeanCold)
	o.Blur(c.Blur)
	o.ErrFile(c.ErrFile)
	o.Scale(c.Scale)
	o.Regression(c.Regression)
	o.DevFile(c.DevFile)
	if len(c.Box) == 3 {
		o.Boundary(emfit.OrthoBox{c.Box[0], c.Box[1], c.Box[2]})
	}
	o.Comm(comm.Solo())
	o.Logger(lg)
	return o
}

var rootCmd = &cobra.Command{
	Use:           "emfit",
	Short:         "score atomistic models against cryo-EM density GMMs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		raw, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) && !cmd.Flags().Changed("config") {
				return nil //no config file is fine, the defaults carry
			}
			return err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return err
		}
		logger.Info("configuration loaded", zap.String("file", configPath))
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "emfit.yaml", "YAML configuration file")
	rootCmd.AddCommand(checkCmd, analyzeCmd)
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
			os.Exit(1)
		}
		log.Fatal(err)
	}
}
