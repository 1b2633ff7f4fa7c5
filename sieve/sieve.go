////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package sieve implements a wheel-factorized Sieve of Eratosthenes. The
// bitmap only represents integers coprime to {2, 3, 5} (roughly 4n/15
// entries), candidate primes are walked with a {5, 7} gear over the radius-6
// wheel, and composite marking is fanned out across the worker pool. The
// segmented variant bounds memory by sweeping fixed cache-sized windows.
package sieve

import (
	"math"
	"sort"

	"github.com/cznic/mathutil"

	"gitlab.com/primefall/factor/services"
)

// One segment, sized so the coprime-to-{2,3,5} bitmap of a window stays
// within a 2 MB cache budget: ((2097152 * 2) * 3 / 2) * 5 / 4 + 1.
const segmentLimit = 7864321

// 10-bit and 56-bit gear states for the primes 5 and 7 over the radius-6
// wheel, aligned to index 1.
const (
	gear5Init uint16 = 129
	gear7Init uint64 = 9009416540524545
	gear5Back uint16 = 1 << 9
	gear7Back uint64 = 1 << 55
)

var residues30 = [8]uint64{1, 7, 11, 13, 17, 19, 23, 29}

// forward3 returns the k-th positive integer coprime to {2, 3}, k >= 1.
func forward3(k uint64) uint64 {
	return 2*k + (k &^ 1) - 1
}

// forward5 returns the k-th positive integer coprime to {2, 3, 5}, k >= 1.
func forward5(k uint64) uint64 {
	return residues30[(k-1)%8] + ((k-1)/8)*30
}

// backward5 returns the inverse of forward5 for n coprime to {2, 3, 5}.
func backward5(n uint64) uint64 {
	return (((((n+1)<<2)/5+1)<<1)/3 + 1) >> 1
}

// gear57Increment advances the {5, 7} gear pair one coprime step and returns
// the number of radius-6 wheel positions consumed.
func gear57Increment(g5 *uint16, g7 *uint64) uint64 {
	var inc uint64
	for {
		multiple := *g5&1 != 0
		*g5 >>= 1
		if multiple {
			*g5 |= gear5Back
			inc++
			continue
		}
		multiple = *g7&1 != 0
		*g7 >>= 1
		if multiple {
			*g7 |= gear7Back
		}
		inc++
		if !multiple {
			return inc
		}
	}
}

// upperBound returns the number of elements in s not exceeding v.
func upperBound(s []uint64, v uint64) int {
	return sort.Search(len(s), func(i int) bool { return s[i] > v })
}

// markMultiples marks the composite multiples of p in the coprime-to-{2,3,5}
// bitmap, skipping multiples of 2 and 3 by stride and of 5 by test. Only
// true is ever written, so concurrent markers for different primes compose.
func markMultiples(notPrime []bool, p, n uint64) {
	p2 := p << 1
	p4 := p << 2
	i := p * p

	// p is coprime to 3, so its square walk alternates 2p/4p strides; a
	// residue of 2 mod 3 needs the half-step first.
	if p%3 == 2 {
		notPrime[backward5(i)] = true
		i += p2
		if i > n || i < p2 {
			return
		}
	}

	for {
		if i%5 != 0 {
			notPrime[backward5(i)] = true
		}
		i += p4
		if i > n || i < p4 {
			return
		}

		if i%5 != 0 {
			notPrime[backward5(i)] = true
		}
		i += p2
		if i > n || i < p2 {
			return
		}
	}
}

// sweep runs the simple wheel sieve up to n, invoking visit for every prime
// found beyond the seeds {2, 3, 5, 7}, in ascending order. The bitmap covers
// integers coprime to {2, 3, 5}; candidates are walked with the {5, 7} gear.
func sweep(n uint64, visit func(p uint64)) {
	cardinality := backward5(n)
	notPrime := make([]bool, cardinality+1)

	disp := services.NewDispatcher(0)
	defer disp.Stop()

	// Marking runs asynchronously: with every composite below x marked,
	// primes up to x*x are safe to read, so synchronization only happens
	// at the squared boundary.
	threadBoundary := uint64(36)

	g5 := gear5Init
	g7 := gear7Init
	o := uint64(1)
	for {
		o += gear57Increment(&g5, &g7)

		p := forward3(o)
		if p > math.MaxUint32 || p*p > n {
			break
		}

		if threadBoundary < p {
			disp.Finish()
			if threadBoundary > math.MaxUint32 {
				threadBoundary = math.MaxUint64
			} else {
				threadBoundary *= threadBoundary
			}
		}

		if notPrime[backward5(p)] {
			continue
		}

		visit(p)

		disp.Dispatch(func() bool {
			markMultiples(notPrime, p, n)
			return false
		})
	}

	disp.Finish()

	for {
		p := forward3(o)
		if p > n {
			return
		}

		o += gear57Increment(&g5, &g7)

		if !notPrime[backward5(p)] {
			visit(p)
		}
	}
}

// Primes returns every prime not exceeding n, in ascending order.
func Primes(n uint64) []uint64 {
	seeds := []uint64{2, 3, 5, 7}
	if n < 2 {
		return nil
	}
	if n < 11 {
		return seeds[:upperBound(seeds, n)]
	}

	knownPrimes := seeds
	sweep(n, func(p uint64) {
		knownPrimes = append(knownPrimes, p)
	})
	return knownPrimes
}

// Count returns the number of primes not exceeding n.
func Count(n uint64) uint64 {
	if n < 11 {
		return uint64(len(Primes(n)))
	}

	count := uint64(4)
	sweep(clampToWheel(n), func(uint64) {
		count++
	})
	return count
}

// clampToWheel lowers n to the nearest integer coprime to {2, 3, 5}, the
// greatest index the sieve bitmap represents.
func clampToWheel(n uint64) uint64 {
	if n&1 == 0 {
		n--
	}
	for n%3 == 0 || n%5 == 0 {
		n -= 2
	}
	return n
}

// SegmentedPrimes returns every prime not exceeding n, in ascending order,
// sweeping fixed-size windows to bound the bitmap footprint.
func SegmentedPrimes(n uint64) []uint64 {
	if n < 11 {
		return Primes(n)
	}

	n = clampToWheel(n)
	if segmentLimit >= n {
		return Primes(n)
	}
	knownPrimes := Primes(segmentLimit)

	disp := services.NewDispatcher(0)
	defer disp.Stop()

	nCardinality := backward5(n)
	low := backward5(segmentLimit)
	high := low + segmentLimit

	for low < nCardinality {
		if high > nCardinality {
			high = nCardinality
		}

		fLo := forward5(low)
		sqrtIndex := upperBound(knownPrimes,
			uint64(mathutil.SqrtUint64(forward5(high)))+1)

		cardinality := high - low
		notPrime := make([]bool, cardinality+1)

		// Skip the wheel primes 2, 3, 5; their multiples have no slot.
		for k := 3; k < sqrtIndex; k++ {
			p := knownPrimes[k]
			disp.Dispatch(func() bool {
				markSegment(notPrime, fLo, low, cardinality, p)
				return false
			})
		}
		disp.Finish()

		for o := uint64(1); o <= cardinality; o++ {
			if !notPrime[o] {
				knownPrimes = append(knownPrimes, forward5(o+low))
			}
		}

		low += segmentLimit
		high = low + segmentLimit
	}

	return knownPrimes
}

// markSegment marks multiples of p within one segment window. Indices are
// relative to low; o past the window ends the walk.
func markSegment(notPrime []bool, fLo, low, cardinality, p uint64) {
	p2 := p << 1

	// Least multiple of p at or above the window start, made odd.
	i := (fLo / p) * p
	if i < fLo {
		i += p
	}
	if i&1 == 0 {
		i += p
	}

	for {
		o := backward5(i) - low
		if o > cardinality {
			return
		}
		if i%3 != 0 && i%5 != 0 {
			notPrime[o] = true
		}
		i += p2
	}
}

// SegmentedCount returns the number of primes not exceeding n while only
// retaining the primes below sqrt(n) needed for marking.
func SegmentedCount(n uint64) uint64 {
	if n < 11 {
		return Count(n)
	}

	n = clampToWheel(n)
	if segmentLimit >= n {
		return Count(n)
	}

	sqrtnp1 := (uint64(mathutil.SqrtUint64(n)) + 1) | 1
	for sqrtnp1%3 == 0 || sqrtnp1%5 == 0 {
		sqrtnp1 += 2
	}
	practicalLimit := sqrtnp1
	if practicalLimit > segmentLimit {
		practicalLimit = segmentLimit
	}
	knownPrimes := Primes(practicalLimit)
	count := uint64(len(knownPrimes))

	disp := services.NewDispatcher(0)
	defer disp.Stop()

	nCardinality := backward5(n)
	low := backward5(practicalLimit)
	high := low + segmentLimit

	for low < nCardinality {
		if high > nCardinality {
			high = nCardinality
		}

		fLo := forward5(low)
		sqrtIndex := upperBound(knownPrimes,
			uint64(mathutil.SqrtUint64(forward5(high)))+1)

		cardinality := high - low
		notPrime := make([]bool, cardinality+1)

		for k := 3; k < sqrtIndex; k++ {
			p := knownPrimes[k]
			disp.Dispatch(func() bool {
				markSegment(notPrime, fLo, low, cardinality, p)
				return false
			})
		}
		disp.Finish()

		if knownPrimes[len(knownPrimes)-1] >= sqrtnp1 {
			for o := uint64(1); o <= cardinality; o++ {
				if !notPrime[o] {
					count++
				}
			}
		} else {
			for o := uint64(1); o <= cardinality; o++ {
				if !notPrime[o] {
					if p := forward5(o + low); p <= sqrtnp1 {
						knownPrimes = append(knownPrimes, p)
					}
					count++
				}
			}
		}

		low += segmentLimit
		high = low + segmentLimit
	}

	return count
}
