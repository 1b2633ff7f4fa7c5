////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package factor finds a single nontrivial factor of a positive integer by
// combining a wheel/gear-factorized reverse-trial-division sweep with an
// optional congruence-of-squares stage that reuses the sweep's GCDs as
// smooth-number candidates.
package factor

import (
	"math"
	"math/big"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cznic/mathutil"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"golang.org/x/sync/errgroup"

	"gitlab.com/primefall/factor/numerics"
	"gitlab.com/primefall/factor/services"
	"gitlab.com/primefall/factor/sieve"
	"gitlab.com/primefall/factor/wheel"
)

// FindFactor returns the decimal representation of a nontrivial factor of
// params.ToFactor, or "1" when the node's search budget is exhausted without
// finding one. Out-of-range tuning parameters are clamped with a warning;
// an unparseable target or an invalid node partition is an error.
func FindFactor(params Params) (string, error) {
	p := params
	if p.NodeCount == 0 {
		p.NodeCount = 1
	}
	if p.NodeID >= p.NodeCount {
		return "", errors.Errorf("node ID %d is outside the node count %d",
			p.NodeID, p.NodeCount)
	}
	if p.TrialDivisionLevel < 2 {
		jww.WARN.Printf("trial division level %d is clamped to %d",
			p.TrialDivisionLevel, DefaultParams().TrialDivisionLevel)
		p.TrialDivisionLevel = DefaultParams().TrialDivisionLevel
	}
	if p.SmoothnessBoundMultiplier <= 0 {
		jww.WARN.Printf("smoothness bound multiplier %v is clamped to 1.0",
			p.SmoothnessBoundMultiplier)
		p.SmoothnessBoundMultiplier = 1.0
	}
	if p.BatchSizeMultiplier <= 0 {
		jww.WARN.Printf("batch size multiplier %v is clamped to %v",
			p.BatchSizeMultiplier, DefaultParams().BatchSizeMultiplier)
		p.BatchSizeMultiplier = DefaultParams().BatchSizeMultiplier
	}

	toFactor, ok := new(big.Int).SetString(strings.TrimSpace(p.ToFactor), 10)
	if !ok || toFactor.Sign() <= 0 {
		return "", errors.Errorf(
			"target to factor must be a positive decimal integer, got %q",
			p.ToFactor)
	}

	threads := p.ThreadCount
	if threads == 0 {
		threads = uint(runtime.NumCPU())
	}
	disp := services.NewDispatcher(threads)
	defer disp.Stop()

	fullMaxBase := numerics.Sqrt(toFactor)
	if sq := new(big.Int).Mul(fullMaxBase, fullMaxBase); sq.Cmp(toFactor) == 0 {
		return fullMaxBase.Text(10), nil
	}

	// Trial division over every prime up to min(level, sqrt(N)).
	sieveBound := p.TrialDivisionLevel
	if fullMaxBase.IsUint64() && fullMaxBase.Uint64() < sieveBound {
		sieveBound = fullMaxBase.Uint64()
	}
	primes := sieve.SegmentedPrimes(sieveBound)
	if d := trialDivide(disp, toFactor, primes); d != nil {
		return d.Text(10), nil
	}

	trialSqr := new(big.Int).SetUint64(p.TrialDivisionLevel)
	trialSqr.Mul(trialSqr, trialSqr)
	if trialSqr.Cmp(toFactor) >= 0 {
		// Every candidate factor was already tried.
		return "1", nil
	}

	wheelLevel, gearLevel := clampLevels(p, sieveBound)
	whl := wheel.ForBound(wheelLevel)
	gearPrimes := prefixThrough(primes, gearLevel)

	factorBase := buildFactorBase(toFactor, primes[len(gearPrimes):],
		p.SmoothnessBoundMultiplier)

	gears := wheel.Gen(gearPrimes, toFactor)[len(whl.Primes()):]

	gearRadius := uint64(1)
	for _, q := range gearPrimes {
		gearRadius *= q
	}
	wheelEntryCount := gearRadius / whl.Radius() * whl.Entries()

	nodeRange := ceilDiv(fullMaxBase, new(big.Int).SetUint64(whl.Radius()))
	nodeRange = ceilDiv(nodeRange, new(big.Int).SetUint64(p.NodeCount))
	nodeRange = ceilDiv(nodeRange, new(big.Int).SetUint64(wheelEntryCount))

	smoothPartsLimit := int(2 * float64(wheelEntryCount) * p.BatchSizeMultiplier)
	if smoothPartsLimit < 1 {
		smoothPartsLimit = 1
	}

	jww.INFO.Printf("searching %d batches of %d residues on node %d of %d "+
		"(wheel radius %d, gear radius %d, factor base %d)",
		nodeRange, wheelEntryCount, p.NodeID, p.NodeCount, whl.Radius(),
		gearRadius, len(factorBase))

	f := NewFactorizer(toFactor, fullMaxBase, nodeRange, p.NodeCount, p.NodeID,
		wheelEntryCount, smoothPartsLimit, factorBase, whl.Forward,
		p.UseGaussianElimination)

	if !p.UseCongruenceOfSquares {
		best := runSweep(threads, func(i uint) *big.Int {
			return f.BruteForce(wheel.CloneAll(gears))
		})
		if best.Cmp(one) > 0 && best.Cmp(toFactor) < 0 {
			return best.Text(10), nil
		}
		return "1", nil
	}

	if p.Seed == 0 {
		p.Seed = uint64(time.Now().UnixNano())
	}
	var workerIndex uint64
	for {
		base := workerIndex
		workerIndex += uint64(threads)
		best := runSweep(threads, func(i uint) *big.Int {
			return f.SmoothCongruences(wheel.CloneAll(gears),
				workerRand(p.Seed, base+uint64(i)))
		})
		if best.Cmp(one) > 0 && best.Cmp(toFactor) < 0 {
			return best.Text(10), nil
		}

		// Workers are quiesced between rounds; the linear-algebra stage
		// may reorder the shared matrix freely.
		var r *big.Int
		if p.UseGaussianElimination {
			r = f.FindFactor(disp)
		} else {
			r = f.FindDuplicateRows()
		}
		if r.Cmp(one) > 0 && r.Cmp(toFactor) < 0 {
			return r.Text(10), nil
		}

		if !f.Incomplete() {
			return "1", nil
		}
	}
}

// runSweep fans one sweep worker out per pool thread and returns the
// largest result.
func runSweep(threads uint, worker func(i uint) *big.Int) *big.Int {
	results := make([]*big.Int, threads)
	var eg errgroup.Group
	for i := uint(0); i < threads; i++ {
		i := i
		eg.Go(func() error {
			results[i] = worker(i)
			return nil
		})
	}
	_ = eg.Wait()

	best := big.NewInt(1)
	for _, r := range results {
		if r.Cmp(best) > 0 {
			best = r
		}
	}
	return best
}

// trialDivide tests the target against the sieved primes in parallel batches
// of 64 and returns any nontrivial divisor found, or nil.
func trialDivide(disp *services.Dispatcher, toFactor *big.Int, primes []uint64) *big.Int {
	var mux sync.Mutex
	var found *big.Int

	for base := 0; base < len(primes); base += 64 {
		base := base
		disp.Dispatch(func() bool {
			mux.Lock()
			done := found != nil
			mux.Unlock()
			if done {
				return true
			}

			end := base + 64
			if end > len(primes) {
				end = len(primes)
			}
			mod := new(big.Int)
			for pi := base; pi < end; pi++ {
				q := new(big.Int).SetUint64(primes[pi])
				if q.Cmp(toFactor) >= 0 {
					return false
				}
				if mod.Mod(toFactor, q).Sign() == 0 {
					mux.Lock()
					if found == nil {
						found = q
					}
					mux.Unlock()
					return true
				}
			}
			return false
		})
	}
	disp.Finish()

	return found
}

// clampLevels normalizes the wheel and gear levels to the supported ranges,
// keeping wheel primes a subset of gear primes and both within the sieved
// trial-division primes. Clamps are warned on stdout.
func clampLevels(p Params, sieveBound uint64) (wheelLevel, gearLevel uint64) {
	wheelLevel = p.WheelFactorizationLevel
	if wheelLevel < 1 {
		jww.WARN.Printf("wheel factorization level %d is clamped to 1", wheelLevel)
		wheelLevel = 1
	}
	if wheelLevel > 11 {
		jww.WARN.Printf("wheel factorization level %d is clamped to 11", wheelLevel)
		wheelLevel = 11
	}
	if wheelLevel > sieveBound {
		jww.WARN.Printf("wheel factorization level %d is clamped to the "+
			"trial division bound %d", wheelLevel, sieveBound)
		wheelLevel = sieveBound
	}

	gearLevel = p.GearFactorizationLevel
	if gearLevel < wheelLevel {
		jww.WARN.Printf("gear factorization level %d is clamped to the "+
			"wheel level %d", gearLevel, wheelLevel)
		gearLevel = wheelLevel
	}
	if gearLevel > 23 {
		jww.WARN.Printf("gear factorization level %d is clamped to 23", gearLevel)
		gearLevel = 23
	}
	if gearLevel > sieveBound {
		jww.WARN.Printf("gear factorization level %d is clamped to the "+
			"trial division bound %d", gearLevel, sieveBound)
		gearLevel = sieveBound
	}
	return wheelLevel, gearLevel
}

// buildFactorBase takes the next ceil(multiplier * log2(N)) primes above the
// gear level whose residue of N is a perfect square. Warns when fewer are
// available.
func buildFactorBase(toFactor *big.Int, candidates []uint64, multiplier float64) []uint64 {
	target := int(math.Ceil(multiplier * float64(numerics.Log2(toFactor))))
	factorBase := make([]uint64, 0, target)
	mod := new(big.Int)
	for _, q := range candidates {
		if len(factorBase) >= target {
			break
		}
		r := mod.Mod(toFactor, new(big.Int).SetUint64(q)).Uint64()
		s := uint64(mathutil.SqrtUint64(r))
		if s*s == r {
			factorBase = append(factorBase, q)
		}
	}
	if len(factorBase) < target {
		jww.WARN.Printf("factor base truncated to %d of %d primes; raise the "+
			"trial division level for more", len(factorBase), target)
	}
	return factorBase
}

// prefixThrough returns the leading primes not exceeding bound.
func prefixThrough(primes []uint64, bound uint64) []uint64 {
	i := sort.Search(len(primes), func(k int) bool { return primes[k] > bound })
	return primes[:i]
}

func ceilDiv(a, b *big.Int) *big.Int {
	out := new(big.Int).Add(a, b)
	out.Sub(out, one)
	return out.Div(out, b)
}
