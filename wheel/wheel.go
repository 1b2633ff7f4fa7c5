////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package wheel maps between the dense index space 1, 2, 3, ... and the
// positive integers coprime to a wheel radius (a product of the first few
// primes). Forward(k) is the k-th positive integer coprime to the radius;
// Backward is its inverse. The package also generates the rotating gear
// sequences that extend a wheel with further primes at runtime.
package wheel

import (
	"math/big"
	"sort"
)

// Level selects a wheel by the largest prime baked into its radius.
type Level uint8

const (
	W1 Level = iota
	W2
	W3
	W5
	W7
	W11
)

// residues coprime to 30
var wheel5 = []uint64{1, 7, 11, 13, 17, 19, 23, 29}

// residues coprime to 210
var wheel7 = []uint64{
	1, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79,
	83, 89, 97, 101, 103, 107, 109, 113, 121, 127, 131, 137, 139, 143, 149,
	151, 157, 163, 167, 169, 173, 179, 181, 187, 191, 193, 197, 199, 209,
}

// residues coprime to 2310
var wheel11 = []uint64{
	1, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83,
	89, 97, 101, 103, 107, 109, 113, 127, 131, 137, 139, 149, 151, 157, 163,
	167, 169, 173, 179, 181, 191, 193, 197, 199, 211, 221, 223, 227, 229, 233,
	239, 241, 247, 251, 257, 263, 269, 271, 277, 281, 283, 289, 293, 299, 307,
	311, 313, 317, 323, 331, 337, 347, 349, 353, 359, 361, 367, 373, 377, 379,
	383, 389, 391, 397, 401, 403, 409, 419, 421, 431, 433, 437, 439, 443, 449,
	457, 461, 463, 467, 479, 481, 487, 491, 493, 499, 503, 509, 521, 523, 527,
	529, 533, 541, 547, 551, 557, 559, 563, 569, 571, 577, 587, 589, 593, 599,
	601, 607, 611, 613, 617, 619, 629, 631, 641, 643, 647, 653, 659, 661, 667,
	673, 677, 683, 689, 691, 697, 701, 703, 709, 713, 719, 727, 731, 733, 739,
	743, 751, 757, 761, 767, 769, 773, 779, 787, 793, 797, 799, 809, 811, 817,
	821, 823, 827, 829, 839, 841, 851, 853, 857, 859, 863, 871, 877, 881, 883,
	887, 893, 899, 901, 907, 911, 919, 923, 929, 937, 941, 943, 947, 949, 953,
	961, 967, 971, 977, 983, 989, 991, 997, 1003, 1007, 1009, 1013, 1019,
	1021, 1027, 1031, 1033, 1037, 1039, 1049, 1051, 1061, 1063, 1069, 1073,
	1079, 1081, 1087, 1091, 1093, 1097, 1103, 1109, 1117, 1121, 1123, 1129,
	1139, 1147, 1151, 1153, 1157, 1159, 1163, 1171, 1181, 1187, 1189, 1193,
	1201, 1207, 1213, 1217, 1219, 1223, 1229, 1231, 1237, 1241, 1247, 1249,
	1259, 1261, 1271, 1273, 1277, 1279, 1283, 1289, 1291, 1297, 1301, 1303,
	1307, 1313, 1319, 1321, 1327, 1333, 1339, 1343, 1349, 1357, 1361, 1363,
	1367, 1369, 1373, 1381, 1387, 1391, 1399, 1403, 1409, 1411, 1417, 1423,
	1427, 1429, 1433, 1439, 1447, 1451, 1453, 1457, 1459, 1469, 1471, 1481,
	1483, 1487, 1489, 1493, 1499, 1501, 1511, 1513, 1517, 1523, 1531, 1537,
	1541, 1543, 1549, 1553, 1559, 1567, 1571, 1577, 1579, 1583, 1591, 1597,
	1601, 1607, 1609, 1613, 1619, 1621, 1627, 1633, 1637, 1643, 1649, 1651,
	1657, 1663, 1667, 1669, 1679, 1681, 1691, 1693, 1697, 1699, 1703, 1709,
	1711, 1717, 1721, 1723, 1733, 1739, 1741, 1747, 1751, 1753, 1759, 1763,
	1769, 1777, 1781, 1783, 1787, 1789, 1801, 1807, 1811, 1817, 1819, 1823,
	1829, 1831, 1843, 1847, 1849, 1853, 1861, 1867, 1871, 1873, 1877, 1879,
	1889, 1891, 1901, 1907, 1909, 1913, 1919, 1921, 1927, 1931, 1933, 1937,
	1943, 1949, 1951, 1957, 1961, 1963, 1973, 1979, 1987, 1993, 1997, 1999,
	2003, 2011, 2017, 2021, 2027, 2029, 2033, 2039, 2041, 2047, 2053, 2059,
	2063, 2069, 2071, 2077, 2081, 2083, 2087, 2089, 2099, 2111, 2113, 2117,
	2119, 2129, 2131, 2137, 2141, 2143, 2147, 2153, 2159, 2161, 2171, 2173,
	2179, 2183, 2197, 2201, 2203, 2207, 2209, 2213, 2221, 2227, 2231, 2237,
	2239, 2243, 2249, 2251, 2257, 2263, 2267, 2269, 2273, 2279, 2281, 2287,
	2291, 2293, 2297, 2309,
}

var one = big.NewInt(1)

// ForBound returns the largest wheel whose primes are all <= bound.
func ForBound(bound uint64) Level {
	switch {
	case bound >= 11:
		return W11
	case bound >= 7:
		return W7
	case bound >= 5:
		return W5
	case bound >= 3:
		return W3
	case bound >= 2:
		return W2
	}
	return W1
}

// Radius returns the product of the primes baked into the wheel.
func (l Level) Radius() uint64 {
	switch l {
	case W2:
		return 2
	case W3:
		return 6
	case W5:
		return 30
	case W7:
		return 210
	case W11:
		return 2310
	}
	return 1
}

// Entries returns the number of residues coprime to the radius within one
// revolution of the wheel.
func (l Level) Entries() uint64 {
	switch l {
	case W3:
		return 2
	case W5:
		return 8
	case W7:
		return 48
	case W11:
		return 480
	}
	return 1
}

// Primes returns the primes baked into the wheel, in ascending order.
func (l Level) Primes() []uint64 {
	all := []uint64{2, 3, 5, 7, 11}
	return all[:int(l)]
}

// Forward returns the k-th positive integer coprime to the wheel radius,
// for k >= 1.
func (l Level) Forward(k *big.Int) *big.Int {
	switch l {
	case W2:
		// 2k - 1
		out := new(big.Int).Lsh(k, 1)
		return out.Sub(out, one)
	case W3:
		// 2k + (k &^ 1) - 1
		kc := new(big.Int).Set(k)
		if kc.Bit(0) == 1 {
			kc.Sub(kc, one)
		}
		out := new(big.Int).Lsh(k, 1)
		out.Add(out, kc)
		return out.Sub(out, one)
	case W5:
		return tableForward(wheel5, 30, k)
	case W7:
		return tableForward(wheel7, 210, k)
	case W11:
		return tableForward(wheel11, 2310, k)
	}
	return new(big.Int).Set(k)
}

// Backward returns the index k with Forward(k) == n, for any n >= 1 coprime
// to the wheel radius. For other n, the table wheels W5, W7 and W11 return
// the index of the first coprime integer above n; the formula wheels W2 and
// W3 may return the index of a coprime integer below n instead.
func (l Level) Backward(n *big.Int) *big.Int {
	switch l {
	case W2:
		// (n + 1) / 2
		out := new(big.Int).Add(n, one)
		return out.Rsh(out, 1)
	case W3:
		// (n &^ 1)/3 + 1
		nc := new(big.Int).Set(n)
		if nc.Bit(0) == 1 {
			nc.Sub(nc, one)
		}
		out := nc.Div(nc, big.NewInt(3))
		return out.Add(out, one)
	case W5:
		return tableBackward(wheel5, 30, n)
	case W7:
		return tableBackward(wheel7, 210, n)
	case W11:
		return tableBackward(wheel11, 2310, n)
	}
	return new(big.Int).Set(n)
}

func tableForward(table []uint64, radius uint64, k *big.Int) *big.Int {
	km1 := new(big.Int).Sub(k, one)
	q, r := new(big.Int).DivMod(km1, big.NewInt(int64(len(table))), new(big.Int))
	out := q.Mul(q, new(big.Int).SetUint64(radius))
	return out.Add(out, new(big.Int).SetUint64(table[r.Uint64()]))
}

func tableBackward(table []uint64, radius uint64, n *big.Int) *big.Int {
	q, r := new(big.Int).DivMod(n, new(big.Int).SetUint64(radius), new(big.Int))
	res := r.Uint64()
	idx := sort.Search(len(table), func(i int) bool { return table[i] >= res })
	out := q.Mul(q, big.NewInt(int64(len(table))))
	return out.Add(out, big.NewInt(int64(idx)+1))
}
