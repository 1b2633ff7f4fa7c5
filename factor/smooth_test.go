////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package factor

import (
	"math/big"
	"math/rand"
	"testing"
)

func TestFactorizationVector(t *testing.T) {
	f := newTestFactorizer(10403, 1, 1, 0, []uint64{2, 3, 5}, false)

	// 12 = 2^2 * 3: parities (0, 1, 0).
	v := f.factorizationVector(big.NewInt(12))
	if v == nil {
		t.Fatal("12 failed to factor over {2, 3, 5}")
	}
	if v.Test(0) || !v.Test(1) || v.Test(2) {
		t.Error("12: expected the parity vector (0, 1, 0)")
	}

	// 30 = 2 * 3 * 5: parities (1, 1, 1).
	v = f.factorizationVector(big.NewInt(30))
	if v == nil || v.Count() != 3 {
		t.Error("30: expected the parity vector (1, 1, 1)")
	}

	// A unit factors trivially.
	v = f.factorizationVector(big.NewInt(1))
	if v == nil || !v.None() {
		t.Error("1: expected the zero vector")
	}

	// 7 has a factor outside the base.
	if f.factorizationVector(big.NewInt(7)) != nil {
		t.Error("7: expected a failure outside the base")
	}
	if f.factorizationVector(big.NewInt(14)) != nil {
		t.Error("14: expected a failure outside the base")
	}
}

// Every record appended by a flush must exceed the smooth limit and carry
// the parity vector of its own factorization.
func TestMakeSmoothNumbers(t *testing.T) {
	f := newTestFactorizer(10403, 1, 1, 0, []uint64{2, 3, 5}, false)
	seeds := f.SmoothRecordCount()

	parts := []*big.Int{
		big.NewInt(50), big.NewInt(27), big.NewInt(8), big.NewInt(7),
		big.NewInt(125), big.NewInt(96), big.NewInt(1),
	}
	f.makeSmoothNumbers(parts, rand.New(rand.NewSource(11)))

	if f.SmoothRecordCount() == seeds {
		t.Fatal("no smooth records appended")
	}
	for i := seeds; i < len(f.smoothNumberKeys); i++ {
		key := f.smoothNumberKeys[i]
		if key.Cmp(f.toFactorSqrt) <= 0 {
			t.Errorf("record %d: key %v does not exceed sqrt(N)", i, key)
		}
		expected := f.factorizationVector(key)
		if expected == nil {
			t.Fatalf("record %d: key %v is not smooth over the base", i, key)
		}
		if !expected.Equal(f.smoothNumberValues[i]) {
			t.Errorf("record %d: stored vector disagrees with the "+
				"factorization of %v", i, key)
		}
	}
}

// In elimination mode the accumulation limit is N itself.
func TestMakeSmoothNumbersGaussLimit(t *testing.T) {
	f := newTestFactorizer(10403, 1, 1, 0, []uint64{2, 3, 5}, true)
	seeds := f.SmoothRecordCount()

	parts := []*big.Int{
		big.NewInt(100), big.NewInt(81), big.NewInt(125), big.NewInt(64),
		big.NewInt(729), big.NewInt(625),
	}
	f.makeSmoothNumbers(parts, rand.New(rand.NewSource(3)))

	for i := seeds; i < len(f.smoothNumberKeys); i++ {
		if f.smoothNumberKeys[i].Cmp(f.toFactor) <= 0 {
			t.Errorf("record %d: key %v does not exceed N", i,
				f.smoothNumberKeys[i])
		}
	}
}
