////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package wheel

import (
	"math/big"

	"gitlab.com/primefall/factor/bitset"
)

// A gear is a rotating bit sequence that marks, among the residues coprime to
// all earlier primes, the ones divisible by one further prime. Rotating a set
// of gears in lockstep yields the increment between successive integers
// coprime to every gear prime at once.

func isMultiple(n uint64, primes []uint64) bool {
	for _, p := range primes {
		if n%p == 0 {
			return true
		}
	}
	return false
}

// gearSequence builds the bit sequence for the last prime of primes: one bit
// per residue in [1, radius] coprime to all the earlier primes, set when the
// residue is a multiple of the last prime. The radius is the product of all
// the primes, capped at limit. The sequence is pre-rotated by one position so
// that bit 0 corresponds to the residue after 1.
func gearSequence(primes []uint64, limit *big.Int) *bitset.BitSet {
	radius := new(big.Int).SetUint64(1)
	for _, p := range primes {
		radius.Mul(radius, new(big.Int).SetUint64(p))
	}
	if limit.Cmp(radius) < 0 {
		radius.Set(limit)
	}

	prime := primes[len(primes)-1]
	rest := primes[:len(primes)-1]
	var marks []bool
	for i, r := uint64(1), radius.Uint64(); i <= r; i++ {
		if !isMultiple(i, rest) {
			marks = append(marks, i%prime == 0)
		}
	}

	// The shift drops the bit for residue 1 (never a multiple) and leaves
	// the high end clear.
	out := bitset.New(uint(len(marks)))
	for i, m := range marks[1:] {
		if m {
			out.Set(uint(i))
		}
	}
	return out
}

// Gen produces one gear per prefix of primes, in order. The caller drops the
// leading entries covered by its wheel table before use.
func Gen(primes []uint64, limit *big.Int) []*bitset.BitSet {
	gears := make([]*bitset.BitSet, 0, len(primes))
	for i := range primes {
		gears = append(gears, gearSequence(primes[:i+1], limit))
	}
	return gears
}

// Increment rotates the gears to the next residue coprime to every gear
// prime and returns the number of index positions advanced. A gear only
// consumes a bit once the candidate is known coprime to all earlier gears'
// primes, which is what keeps the sequences in lockstep.
func Increment(gears []*bitset.BitSet) uint64 {
	var inc uint64
	for {
		multiple := false
		for _, g := range gears {
			if g.RotateConsume() {
				multiple = true
				break
			}
		}
		inc++
		if !multiple {
			return inc
		}
	}
}

// CloneAll deep-copies a gear set. Every worker owns an independent copy;
// the master set is never rotated.
func CloneAll(gears []*bitset.BitSet) []*bitset.BitSet {
	out := make([]*bitset.BitSet, len(gears))
	for i, g := range gears {
		out[i] = g.Clone()
	}
	return out
}
