////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package factor

import (
	"math/big"
	"testing"

	"gitlab.com/primefall/factor/bitset"
	"gitlab.com/primefall/factor/services"
)

func TestCheckPerfectSquare(t *testing.T) {
	f := newTestFactorizer(15, 1, 1, 0, nil, false)

	// 5^7 = 5 (mod 15), so gcd(15, 5+5) exposes 5.
	if got := f.checkPerfectSquare(big.NewInt(5)); got.Int64() != 5 {
		t.Errorf("checkPerfectSquare(5): expected 5, got %v", got)
	}
	// 6^7 = 6 (mod 15), so gcd(15, 12) exposes 3.
	if got := f.checkPerfectSquare(big.NewInt(6)); got.Int64() != 3 {
		t.Errorf("checkPerfectSquare(6): expected 3, got %v", got)
	}
	// A unit yields only trivial divisors.
	if got := f.checkPerfectSquare(big.NewInt(1)); got.Int64() != 1 {
		t.Errorf("checkPerfectSquare(1): expected 1, got %v", got)
	}
}

// Eliminating a row in the span of the seeds must zero its vector while the
// mirrored key multiplications accumulate the pivot keys.
func TestGaussianElimination(t *testing.T) {
	f := newTestFactorizer(10403, 1, 1, 0, []uint64{2, 3, 5}, true)

	v := bitset.New(3)
	v.Set(0)
	v.Set(1)
	v.Set(2)
	f.smoothNumberKeys = append(f.smoothNumberKeys, big.NewInt(30))
	f.smoothNumberValues = append(f.smoothNumberValues, v)

	disp := services.NewDispatcher(2)
	defer disp.Stop()
	f.gaussianElimination(disp)

	if !f.smoothNumberValues[3].None() {
		t.Error("dependency row not reduced to the zero vector")
	}
	// 30 * 2 * 3 * 5 = 900, already below N.
	if f.smoothNumberKeys[3].Int64() != 900 {
		t.Errorf("dependency key: expected 900, got %v", f.smoothNumberKeys[3])
	}
	for i := 0; i < 3; i++ {
		if v := f.smoothNumberValues[i]; v.Count() != 1 || !v.Test(uint(i)) {
			t.Errorf("pivot row %d disturbed by elimination", i)
		}
	}
}

func TestFindFactorFromDependency(t *testing.T) {
	f := newTestFactorizer(15, 1, 1, 0, []uint64{2}, true)

	// A dependency row carrying 5 as an already-square congruence.
	f.smoothNumberKeys = append(f.smoothNumberKeys, big.NewInt(5))
	f.smoothNumberValues = append(f.smoothNumberValues, bitset.New(1))

	disp := services.NewDispatcher(2)
	defer disp.Stop()
	if got := f.FindFactor(disp); got.Int64() != 5 {
		t.Errorf("expected the dependency row to expose 5, got %v", got)
	}
}

func TestFindFactorNeedsRows(t *testing.T) {
	f := newTestFactorizer(10403, 1, 1, 0, []uint64{2, 3, 5}, true)
	f.smoothNumberKeys = f.smoothNumberKeys[:1]
	f.smoothNumberValues = f.smoothNumberValues[:1]

	disp := services.NewDispatcher(2)
	defer disp.Stop()
	if got := f.FindFactor(disp); got.Int64() != 1 {
		t.Errorf("expected 1 with fewer rows than columns, got %v", got)
	}
}

func TestFindDuplicateRowsFindsFactor(t *testing.T) {
	f := newTestFactorizer(15, 1, 1, 0, []uint64{2, 3}, false)

	v1 := bitset.New(2)
	v1.Set(0)
	v2 := v1.Clone()
	f.smoothNumberKeys = append(f.smoothNumberKeys, big.NewInt(5), big.NewInt(10))
	f.smoothNumberValues = append(f.smoothNumberValues, v1, v2)

	got := f.FindDuplicateRows()
	if got.Int64() <= 1 || got.Int64() >= 15 || 15%got.Int64() != 0 {
		t.Errorf("expected a nontrivial factor of 15, got %v", got)
	}
}

// Probed rows are struck after the scan; the seed rows never are.
func TestFindDuplicateRowsStrikes(t *testing.T) {
	f := newTestFactorizer(10403, 1, 1, 0, []uint64{2, 3}, false)

	f.smoothNumberKeys = append(f.smoothNumberKeys, big.NewInt(1), big.NewInt(1))
	f.smoothNumberValues = append(f.smoothNumberValues, bitset.New(2), bitset.New(2))

	if got := f.FindDuplicateRows(); got.Int64() != 1 {
		t.Fatalf("expected no factor from unit rows, got %v", got)
	}
	if f.SmoothRecordCount() != 2 {
		t.Errorf("expected only the seed rows to remain, got %d",
			f.SmoothRecordCount())
	}
	for i := 0; i < 2; i++ {
		if f.smoothNumberKeys[i].Uint64() != []uint64{2, 3}[i] {
			t.Errorf("seed row %d was struck", i)
		}
	}
}
