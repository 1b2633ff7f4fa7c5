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

	"gitlab.com/primefall/factor/wheel"
)

func newTestFactorizer(n int64, batchRange, nodeCount, nodeID uint64,
	factorBase []uint64, gauss bool) *Factorizer {
	toFactor := big.NewInt(n)
	return NewFactorizer(toFactor, new(big.Int).Sqrt(toFactor),
		new(big.Int).SetUint64(batchRange), nodeCount, nodeID, 48, 16,
		factorBase, wheel.W11.Forward, gauss)
}

// A single node must draw each batch exactly once, alternating around the
// midpoint, then report the sentinel.
func TestGetNextAltBatchSingleNode(t *testing.T) {
	f := newTestFactorizer(77, 4, 1, 0, nil, false)

	expected := []int64{0, 3, 1, 2}
	for i, e := range expected {
		got := f.getNextAltBatch()
		if got.Int64() != e {
			t.Errorf("draw %d: expected batch %d, got %v", i, e, got)
		}
	}

	if got := f.getNextAltBatch(); got.Int64() != 4 {
		t.Errorf("expected the sentinel 4 after exhaustion, got %v", got)
	}
	if f.Incomplete() {
		t.Error("factorizer still incomplete after exhausting its range")
	}
}

// Across nodes the draws must stay within [0, batchTotal), never repeat, and
// never wrap below zero.
func TestGetNextAltBatchPartition(t *testing.T) {
	const nodeRange, nodeCount = 3, 2
	seen := map[int64]bool{}
	for nodeID := uint64(0); nodeID < nodeCount; nodeID++ {
		f := newTestFactorizer(77, nodeRange, nodeCount, nodeID, nil, false)
		for i := 0; i < nodeRange; i++ {
			b := f.getNextAltBatch()
			if b.Sign() < 0 || b.Int64() >= nodeRange*nodeCount {
				t.Fatalf("node %d drew out-of-range batch %v", nodeID, b)
			}
			if seen[b.Int64()] {
				t.Fatalf("batch %v drawn twice", b)
			}
			seen[b.Int64()] = true
		}
		if got := f.getNextAltBatch(); got.Int64() != nodeRange*nodeCount {
			t.Errorf("node %d: expected the sentinel, got %v", nodeID, got)
		}
	}
	if len(seen) != nodeRange*nodeCount {
		t.Errorf("expected %d distinct batches, got %d",
			nodeRange*nodeCount, len(seen))
	}
}

func TestHaltStopsDraws(t *testing.T) {
	f := newTestFactorizer(77, 100, 1, 0, nil, false)
	f.getNextAltBatch()
	f.halt()
	if f.Incomplete() {
		t.Error("halt did not clear the incomplete flag")
	}
	if got := f.getNextAltBatch(); got.Cmp(f.batchTotal) != 0 {
		t.Errorf("expected the sentinel after halt, got %v", got)
	}
}

// The seed rows must be the standard basis over the factor base.
func TestSeedRows(t *testing.T) {
	base := []uint64{2, 3, 5, 7}
	f := newTestFactorizer(10403, 1, 1, 0, base, true)

	if f.SmoothRecordCount() != len(base) {
		t.Fatalf("expected %d seed rows, got %d", len(base),
			f.SmoothRecordCount())
	}
	for i, p := range base {
		if f.smoothNumberKeys[i].Uint64() != p {
			t.Errorf("seed key %d: expected %d, got %v", i, p,
				f.smoothNumberKeys[i])
		}
		v := f.smoothNumberValues[i]
		if v.Count() != 1 || !v.Test(uint(i)) {
			t.Errorf("seed row %d is not the %d-th basis vector", i, i)
		}
	}

	product := new(big.Int).SetUint64(2 * 3 * 5 * 7)
	if f.primeProduct.Cmp(product) != 0 {
		t.Errorf("prime product: expected %v, got %v", product, f.primeProduct)
	}
}
