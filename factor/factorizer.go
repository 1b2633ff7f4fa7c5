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
	"sync"

	"gitlab.com/primefall/factor/bitset"
	"gitlab.com/primefall/factor/numerics"
	"gitlab.com/primefall/factor/wheel"
)

var one = big.NewInt(1)

// Factorizer is the state shared by every sweep worker of one invocation.
// The batch counter and the smooth-record vectors are each guarded by their
// own mutex; gear sequences are cloned per worker and never shared; the
// factor base and forward mapping are read-only after construction.
type Factorizer struct {
	batchMux     sync.Mutex
	toFactorSqr  *big.Int
	toFactor     *big.Int
	toFactorSqrt *big.Int
	batchNumber  *big.Int // monotonic count of batches handed to this node
	batchRange   *big.Int // per-node batch budget
	batchOffset  *big.Int // nodeID * batchRange
	batchTotal   *big.Int // nodeCount * batchRange; doubles as the sentinel
	isIncomplete bool

	wheelEntryCount  uint64
	smoothPartsLimit int
	forward          func(*big.Int) *big.Int

	// Factor base, smallest first, with the precomputed prime product that
	// drives the gcd shortcut in factorization.
	primes       []uint64
	bigPrimes    []*big.Int
	primeProduct *big.Int
	smoothLimit  *big.Int // sqrt(N) in duplicate-row mode, N under elimination

	smoothMux          sync.Mutex
	smoothNumberKeys   []*big.Int
	smoothNumberValues []*bitset.BitSet
}

// NewFactorizer builds the shared state for one node's search. The smooth
// matrix is pre-seeded with one standard-basis row per factor-base prime,
// which anchors Gaussian elimination.
func NewFactorizer(toFactor, toFactorSqrt, batchRange *big.Int, nodeCount,
	nodeID uint64, wheelEntryCount uint64, smoothPartsLimit int,
	factorBase []uint64, fwd func(*big.Int) *big.Int,
	gaussElim bool) *Factorizer {

	f := &Factorizer{
		toFactorSqr:      new(big.Int).Mul(toFactor, toFactor),
		toFactor:         new(big.Int).Set(toFactor),
		toFactorSqrt:     new(big.Int).Set(toFactorSqrt),
		batchNumber:      new(big.Int),
		batchRange:       new(big.Int).Set(batchRange),
		batchOffset:      new(big.Int).Mul(batchRange, new(big.Int).SetUint64(nodeID)),
		batchTotal:       new(big.Int).Mul(batchRange, new(big.Int).SetUint64(nodeCount)),
		isIncomplete:     true,
		wheelEntryCount:  wheelEntryCount,
		smoothPartsLimit: smoothPartsLimit,
		forward:          fwd,
		primes:           factorBase,
		primeProduct:     big.NewInt(1),
		smoothLimit:      new(big.Int).Set(toFactorSqrt),
	}
	if gaussElim {
		f.smoothLimit.Set(toFactor)
	}

	for i, p := range factorBase {
		bp := new(big.Int).SetUint64(p)
		f.bigPrimes = append(f.bigPrimes, bp)
		f.primeProduct.Mul(f.primeProduct, bp)

		v := bitset.New(uint(len(factorBase)))
		v.Set(uint(i))
		f.smoothNumberKeys = append(f.smoothNumberKeys, bp)
		f.smoothNumberValues = append(f.smoothNumberValues, v)
	}

	return f
}

// Incomplete reports whether the search is still running. Workers observe
// the flag at batch acquisition; clearing it quiesces the sweep.
func (f *Factorizer) Incomplete() bool {
	f.batchMux.Lock()
	defer f.batchMux.Unlock()
	return f.isIncomplete
}

func (f *Factorizer) halt() {
	f.batchMux.Lock()
	f.isIncomplete = false
	f.batchMux.Unlock()
}

// getNextAltBatch hands out batch indices alternating around the search
// midpoint: even draws walk up from the node's offset, odd draws walk down
// from the mirrored end. This keeps the square-root-of-N advantage without
// hot-spotting either end of the range. Once the node's budget is consumed
// (or the search was halted) it returns the batchTotal sentinel, which is
// strictly greater than every live batch index.
func (f *Factorizer) getNextAltBatch() *big.Int {
	f.batchMux.Lock()
	defer f.batchMux.Unlock()

	if f.batchNumber.Cmp(f.batchRange) >= 0 {
		f.isIncomplete = false
	}
	if !f.isIncomplete {
		return f.batchTotal
	}

	half := new(big.Int).Rsh(f.batchNumber, 1)
	half.Add(half, f.batchOffset)
	odd := f.batchNumber.Bit(0) == 1
	f.batchNumber.Add(f.batchNumber, one)

	if !odd {
		return half
	}

	alt := new(big.Int).Sub(f.batchTotal, half)
	alt.Sub(alt, one)
	if alt.Sign() < 0 {
		// Cannot occur for offset = nodeID*range, but never wrap.
		return half
	}
	return alt
}

// BruteForce drains batches, walking the coprime residues of each with the
// gear set and testing every candidate for exact division. Returns the
// factor found, or 1 once the node's batch budget is exhausted.
func (f *Factorizer) BruteForce(gears []*bitset.BitSet) *big.Int {
	w := new(big.Int).SetUint64(f.wheelEntryCount)
	mod := new(big.Int)
	for batchNum := f.getNextAltBatch(); batchNum.Cmp(f.batchTotal) < 0; batchNum = f.getNextAltBatch() {
		batchStart := new(big.Int).Mul(batchNum, w)
		batchEnd := new(big.Int).Add(batchStart, w)
		for p := batchStart; p.Cmp(batchEnd) < 0; {
			p.Add(p, new(big.Int).SetUint64(wheel.Increment(gears)))
			// The walker's positions are zero-based; forward takes the
			// one-based residue index.
			n := f.forward(new(big.Int).Add(p, one))
			mod.Mod(f.toFactor, n)
			if mod.Sign() == 0 && n.Cmp(one) > 0 && n.Cmp(f.toFactor) < 0 {
				f.halt()
				return n
			}
		}
	}

	return big.NewInt(1)
}

// SmoothCongruences runs the same sweep, but collects the GCD of every
// candidate with N as a semi-smooth part. A nontrivial GCD ends the search
// immediately. When the per-worker buffer fills, the worker folds it into
// the shared smooth matrix and returns 1 so the caller can rebalance.
func (f *Factorizer) SmoothCongruences(gears []*bitset.BitSet, rng *rand.Rand) *big.Int {
	w := new(big.Int).SetUint64(f.wheelEntryCount)
	smoothParts := make([]*big.Int, 0, f.smoothPartsLimit)
	for batchNum := f.getNextAltBatch(); batchNum.Cmp(f.batchTotal) < 0; batchNum = f.getNextAltBatch() {
		batchStart := new(big.Int).Mul(batchNum, w)
		batchEnd := new(big.Int).Add(batchStart, w)
		for p := batchStart; p.Cmp(batchEnd) < 0; {
			p.Add(p, new(big.Int).SetUint64(wheel.Increment(gears)))
			n := numerics.GCD(f.forward(new(big.Int).Add(p, one)), f.toFactor)
			if n.Cmp(one) != 0 && n.Cmp(f.toFactor) != 0 {
				f.halt()
				return n
			}

			smoothParts = append(smoothParts, n)
			if len(smoothParts) >= f.smoothPartsLimit {
				f.makeSmoothNumbers(smoothParts, rng)
				return big.NewInt(1)
			}
		}
	}

	return big.NewInt(1)
}

// SmoothRecordCount returns the current number of rows in the shared matrix,
// seed rows included.
func (f *Factorizer) SmoothRecordCount() int {
	f.smoothMux.Lock()
	defer f.smoothMux.Unlock()
	return len(f.smoothNumberKeys)
}
