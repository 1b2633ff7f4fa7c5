////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package numerics carries the handful of big-integer operations the factoring
// kernel needs beyond plain arithmetic: floor square root, greatest common
// divisor, modular exponentiation, and small helpers over them. All operations
// treat their operands as unsigned.
package numerics

import "math/big"

var one = big.NewInt(1)

// Sqrt returns the largest m with m*m <= n, found by binary search on
// [1, n/2]. Returns 0 for n < 2.
func Sqrt(n *big.Int) *big.Int {
	start := big.NewInt(1)
	end := new(big.Int).Rsh(n, 1)
	ans := big.NewInt(0)
	mid := new(big.Int)
	sqr := new(big.Int)
	for start.Cmp(end) <= 0 {
		mid.Add(start, end)
		mid.Rsh(mid, 1)
		sqr.Mul(mid, mid)
		switch sqr.Cmp(n) {
		case 0:
			return new(big.Int).Set(mid)
		case -1:
			// Floor behavior: remember mid and move up.
			start.Add(mid, one)
			ans.Set(mid)
		default:
			end.Sub(mid, one)
		}
	}
	return ans
}

// GCD returns the greatest common divisor of a and b by the iterative
// Euclidean algorithm. GCD(a, 0) == a.
func GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Set(a)
	y := new(big.Int).Set(b)
	for y.Sign() != 0 {
		x, y = y, x.Mod(x, y)
	}
	return x
}

// ModExp returns base^exp mod m by square-and-multiply.
func ModExp(base, exp, m *big.Int) *big.Int {
	result := big.NewInt(1)
	b := new(big.Int).Mod(base, m)
	e := new(big.Int).Set(exp)
	for e.Sign() != 0 {
		if e.Bit(0) == 1 {
			result.Mul(result, b)
			result.Mod(result, m)
		}
		b.Mul(b, b)
		b.Mod(b, m)
		e.Rsh(e, 1)
	}
	return result
}

// Log2 returns floor(log2(n)), i.e. the number of right shifts until n
// becomes zero, minus one. Returns 0 for n < 2.
func Log2(n *big.Int) uint {
	if n.BitLen() < 2 {
		return 0
	}
	return uint(n.BitLen() - 1)
}

// IPow returns base^exp by binary exponentiation.
func IPow(base *big.Int, exp uint) *big.Int {
	result := big.NewInt(1)
	b := new(big.Int).Set(base)
	for {
		if exp&1 == 1 {
			result.Mul(result, b)
		}
		exp >>= 1
		if exp == 0 {
			break
		}
		b.Mul(b, b)
	}
	return result
}
