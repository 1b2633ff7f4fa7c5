////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conf

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

func viperFromYaml(t *testing.T, doc map[string]interface{}) *viper.Viper {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("could not marshal fixture: %+v", err)
	}
	vip := viper.New()
	vip.SetConfigType("yaml")
	if err = vip.ReadConfig(bytes.NewBuffer(raw)); err != nil {
		t.Fatalf("could not read fixture: %+v", err)
	}
	return vip
}

func TestNewParams(t *testing.T) {
	vip := viperFromYaml(t, map[string]interface{}{
		"toFactor":                  "10403",
		"congruenceOfSquares":       true,
		"gaussianElimination":       true,
		"nodeCount":                 4,
		"nodeId":                    2,
		"trialDivisionLevel":        4096,
		"gearFactorizationLevel":    17,
		"wheelFactorizationLevel":   7,
		"smoothnessBoundMultiplier": 2.5,
		"batchSizeMultiplier":       0.5,
		"threads":                   3,
		"seed":                      12345,
	})

	p, err := NewParams(vip)
	if err != nil {
		t.Fatalf("NewParams returned an error: %+v", err)
	}

	if p.ToFactor != "10403" {
		t.Errorf("toFactor: expected 10403, got %q", p.ToFactor)
	}
	if !p.UseCongruenceOfSquares || !p.UseGaussianElimination {
		t.Error("stage selection booleans not read")
	}
	if p.NodeCount != 4 || p.NodeID != 2 {
		t.Errorf("node partition: expected 2/4, got %d/%d", p.NodeID, p.NodeCount)
	}
	if p.TrialDivisionLevel != 4096 {
		t.Errorf("trialDivisionLevel: expected 4096, got %d", p.TrialDivisionLevel)
	}
	if p.GearFactorizationLevel != 17 || p.WheelFactorizationLevel != 7 {
		t.Errorf("levels: expected 17/7, got %d/%d",
			p.GearFactorizationLevel, p.WheelFactorizationLevel)
	}
	if p.SmoothnessBoundMultiplier != 2.5 || p.BatchSizeMultiplier != 0.5 {
		t.Errorf("multipliers not read: %v %v",
			p.SmoothnessBoundMultiplier, p.BatchSizeMultiplier)
	}
	if p.ThreadCount != 3 || p.Seed != 12345 {
		t.Errorf("threads/seed not read: %d %d", p.ThreadCount, p.Seed)
	}
}

func TestNewParamsDefaults(t *testing.T) {
	vip := viperFromYaml(t, map[string]interface{}{"toFactor": "15"})

	p, err := NewParams(vip)
	if err != nil {
		t.Fatalf("NewParams returned an error: %+v", err)
	}

	if p.NodeCount != 1 || p.NodeID != 0 {
		t.Errorf("expected the single-node default, got %d/%d",
			p.NodeID, p.NodeCount)
	}
	if p.TrialDivisionLevel != 1<<16 {
		t.Errorf("expected the default trial division level, got %d",
			p.TrialDivisionLevel)
	}
	if p.GearFactorizationLevel != 13 || p.WheelFactorizationLevel != 11 {
		t.Errorf("expected the default levels, got %d/%d",
			p.GearFactorizationLevel, p.WheelFactorizationLevel)
	}
	if p.UseCongruenceOfSquares || p.UseGaussianElimination {
		t.Error("stages enabled by default")
	}
}

func TestNewParamsMissingTarget(t *testing.T) {
	vip := viperFromYaml(t, map[string]interface{}{"nodeCount": 2})
	if _, err := NewParams(vip); err == nil {
		t.Error("expected an error for a missing target")
	}
}
