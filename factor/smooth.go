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

	"gitlab.com/primefall/factor/bitset"
	"gitlab.com/primefall/factor/numerics"
)

// factorizationVector decomposes n over the factor base and returns its
// exponent vector modulo 2, or nil when n has a prime factor outside the
// base. Each round divides n once by every base prime dividing
// gcd(n, primeProduct), so the inner loop only touches primes that still
// divide n.
func (f *Factorizer) factorizationVector(n *big.Int) *bitset.BitSet {
	v := bitset.New(uint(len(f.primes)))
	rem := new(big.Int).Set(n)
	for rem.Cmp(one) > 0 {
		d := numerics.GCD(rem, f.primeProduct)
		if d.Cmp(one) == 0 {
			return nil
		}
		for i, bp := range f.bigPrimes {
			if new(big.Int).Mod(d, bp).Sign() == 0 {
				rem.Div(rem, bp)
				v.Flip(uint(i))
			}
		}
	}
	return v
}

// makeSmoothNumbers folds a worker's semi-smooth buffer into the shared
// matrix. Parts that fail to factor over the base are dropped; the survivors
// are shuffled (the algorithm's only nondeterminism) and then multiplied
// together, XOR-accumulating exponent vectors, until each running product
// exceeds the smooth limit. Surviving pairs are appended under the shared
// mutex. A trailing product that never exceeds the limit is discarded; the
// buffer itself is not modified.
func (f *Factorizer) makeSmoothNumbers(smoothParts []*big.Int, rng *rand.Rand) {
	type candidate struct {
		n *big.Int
		v *bitset.BitSet
	}

	cands := make([]candidate, 0, len(smoothParts))
	for _, n := range smoothParts {
		if v := f.factorizationVector(n); v != nil {
			cands = append(cands, candidate{n: n, v: v})
		}
	}

	rng.Shuffle(len(cands), func(i, j int) {
		cands[i], cands[j] = cands[j], cands[i]
	})

	num := big.NewInt(1)
	vec := bitset.New(uint(len(f.primes)))
	for _, c := range cands {
		num.Mul(num, c.n)
		vec.Xor(c.v)
		if num.Cmp(f.smoothLimit) > 0 {
			f.smoothMux.Lock()
			f.smoothNumberKeys = append(f.smoothNumberKeys, num)
			f.smoothNumberValues = append(f.smoothNumberValues, vec)
			f.smoothMux.Unlock()
			num = big.NewInt(1)
			vec = bitset.New(uint(len(f.primes)))
		}
	}
}
