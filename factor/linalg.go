////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package factor

import (
	"math/big"
	"sort"

	"gitlab.com/primefall/factor/numerics"
	"gitlab.com/primefall/factor/services"
)

// gaussianElimination row-reduces the shared exponent matrix over GF(2).
// Every row XOR is mirrored as a multiplication (mod N) of the corresponding
// smooth-number keys, and row swaps swap both vectors, so the congruence
// x^2 = y^2 (mod N) carried by each row survives reduction. Row-update
// passes are fanned out round-robin across the pool. The caller must hold
// the smooth mutex with all sweep workers quiesced.
func (f *Factorizer) gaussianElimination(disp *services.Dispatcher) {
	rows := len(f.smoothNumberValues)
	cols := len(f.primes)
	threads := int(disp.Threads())

	for col := 0; col < cols; col++ {
		pivot := -1
		for r := col; r < rows; r++ {
			if f.smoothNumberValues[r].Test(uint(col)) {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			continue
		}

		f.smoothNumberValues[col], f.smoothNumberValues[pivot] =
			f.smoothNumberValues[pivot], f.smoothNumberValues[col]
		f.smoothNumberKeys[col], f.smoothNumberKeys[pivot] =
			f.smoothNumberKeys[pivot], f.smoothNumberKeys[col]

		for t := 0; t < threads; t++ {
			t := t
			disp.Dispatch(func() bool {
				for r := t; r < rows; r += threads {
					if r == col || !f.smoothNumberValues[r].Test(uint(col)) {
						continue
					}
					f.smoothNumberValues[r].Xor(f.smoothNumberValues[col])
					key := f.smoothNumberKeys[r]
					key.Mul(key, f.smoothNumberKeys[col])
					key.Mod(key, f.toFactor)
				}
				return false
			})
		}
		disp.Finish()
	}
}

// checkPerfectSquare tests the congruence carried by x: with
// y = (x mod N)^(N/2) mod N, either gcd(N, x+y) or gcd(N, x-y) may expose a
// factor. Returns the first value strictly between 1 and N, else 1.
func (f *Factorizer) checkPerfectSquare(x *big.Int) *big.Int {
	xm := new(big.Int).Mod(x, f.toFactor)
	y := numerics.ModExp(xm, new(big.Int).Rsh(f.toFactor, 1), f.toFactor)

	sum := new(big.Int).Add(xm, y)
	if d := numerics.GCD(f.toFactor, sum); d.Cmp(one) > 0 && d.Cmp(f.toFactor) < 0 {
		return d
	}

	diff := new(big.Int).Sub(xm, y)
	diff.Abs(diff)
	if d := numerics.GCD(f.toFactor, diff); d.Cmp(one) > 0 && d.Cmp(f.toFactor) < 0 {
		return d
	}

	return big.NewInt(1)
}

// FindFactor runs full Gaussian elimination over the accumulated smooth
// records and probes every dependency row (the rows past the pivoted
// echelon) for a congruence of squares. Must only run while no worker is
// sweeping. Returns a nontrivial factor, or 1.
func (f *Factorizer) FindFactor(disp *services.Dispatcher) *big.Int {
	f.smoothMux.Lock()
	defer f.smoothMux.Unlock()

	cols := len(f.primes)
	if len(f.smoothNumberKeys) < cols {
		return big.NewInt(1)
	}

	f.gaussianElimination(disp)

	for i := cols; i < len(f.smoothNumberKeys); i++ {
		if r := f.checkPerfectSquare(f.smoothNumberKeys[i]); r.Cmp(one) != 0 {
			return r
		}
	}

	return big.NewInt(1)
}

// FindDuplicateRows is the light alternative to full elimination: rows with
// identical exponent vectors already form a congruence, so each duplicate
// pair is probed directly. Probed rows are struck after the scan through a
// deferred queue, in descending index order; the seed rows anchoring the
// matrix are never struck. Returns a nontrivial factor, or 1.
func (f *Factorizer) FindDuplicateRows() *big.Int {
	f.smoothMux.Lock()
	defer f.smoothMux.Unlock()

	cols := len(f.primes)
	struck := make(map[int]bool)

	for i := 0; i < len(f.smoothNumberValues); i++ {
		for j := i + 1; j < len(f.smoothNumberValues); j++ {
			if !f.smoothNumberValues[i].Equal(f.smoothNumberValues[j]) {
				continue
			}

			if i >= cols {
				struck[i] = true
			}
			if j >= cols {
				struck[j] = true
			}

			if r := f.checkPerfectSquare(f.smoothNumberKeys[i]); r.Cmp(one) != 0 {
				return r
			}
			if r := f.checkPerfectSquare(f.smoothNumberKeys[j]); r.Cmp(one) != 0 {
				return r
			}
		}
	}

	toStrike := make([]int, 0, len(struck))
	for i := range struck {
		toStrike = append(toStrike, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(toStrike)))
	for _, i := range toStrike {
		f.smoothNumberKeys = append(f.smoothNumberKeys[:i], f.smoothNumberKeys[i+1:]...)
		f.smoothNumberValues = append(f.smoothNumberValues[:i], f.smoothNumberValues[i+1:]...)
	}

	return big.NewInt(1)
}
