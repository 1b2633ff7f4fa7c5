////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package conf adapts a viper object into the factoring parameters. Values
// absent from the configuration keep the library defaults.
package conf

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"gitlab.com/primefall/factor/factor"
)

// NewParams gets the elements of the viper object and builds the parameter
// set for one factoring invocation. The target is required; everything else
// falls back to factor.DefaultParams.
func NewParams(vip *viper.Viper) (*factor.Params, error) {
	p := factor.DefaultParams()

	p.ToFactor = strings.TrimSpace(vip.GetString("toFactor"))
	if p.ToFactor == "" {
		return nil, errors.New("toFactor must be set in params")
	}

	p.UseCongruenceOfSquares = vip.GetBool("congruenceOfSquares")
	p.UseGaussianElimination = vip.GetBool("gaussianElimination")

	if vip.IsSet("nodeCount") {
		p.NodeCount = vip.GetUint64("nodeCount")
	}
	if vip.IsSet("nodeId") {
		p.NodeID = vip.GetUint64("nodeId")
	}
	if vip.IsSet("trialDivisionLevel") {
		p.TrialDivisionLevel = vip.GetUint64("trialDivisionLevel")
	}
	if vip.IsSet("gearFactorizationLevel") {
		p.GearFactorizationLevel = vip.GetUint64("gearFactorizationLevel")
	}
	if vip.IsSet("wheelFactorizationLevel") {
		p.WheelFactorizationLevel = vip.GetUint64("wheelFactorizationLevel")
	}
	if vip.IsSet("smoothnessBoundMultiplier") {
		p.SmoothnessBoundMultiplier = vip.GetFloat64("smoothnessBoundMultiplier")
	}
	if vip.IsSet("batchSizeMultiplier") {
		p.BatchSizeMultiplier = vip.GetFloat64("batchSizeMultiplier")
	}
	if vip.IsSet("threads") {
		p.ThreadCount = vip.GetUint("threads")
	}
	if vip.IsSet("seed") {
		p.Seed = vip.GetUint64("seed")
	}

	return &p, nil
}
