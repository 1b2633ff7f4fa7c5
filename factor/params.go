////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package factor

// Params carries every knob of one factoring invocation. Zero values are
// replaced by the corresponding defaults where that is meaningful; see
// DefaultParams.
type Params struct {
	// ToFactor is the target N as a positive decimal integer.
	ToFactor string

	// UseCongruenceOfSquares enables the smooth-congruence stage; when
	// false only the brute-force sweep runs.
	UseCongruenceOfSquares bool

	// UseGaussianElimination selects full GF(2) elimination over the
	// duplicate-row heuristic. Only meaningful with
	// UseCongruenceOfSquares.
	UseGaussianElimination bool

	// NodeCount and NodeID statically partition the search range across
	// cooperating processes. There is no communication between nodes.
	NodeCount uint64
	NodeID    uint64

	// TrialDivisionLevel bounds the initial trial-division sieve.
	TrialDivisionLevel uint64

	// GearFactorizationLevel bounds the primes driving the rotating gear
	// sequences; clamped to at least the wheel level.
	GearFactorizationLevel uint64

	// WheelFactorizationLevel bounds the primes baked into the wheel
	// table; clamped to [1, 11].
	WheelFactorizationLevel uint64

	// SmoothnessBoundMultiplier scales the factor-base size, which is
	// ceil(multiplier * log2(N)).
	SmoothnessBoundMultiplier float64

	// BatchSizeMultiplier scales the semi-smooth flush threshold.
	BatchSizeMultiplier float64

	// ThreadCount is the worker pool size; 0 selects the hardware
	// parallelism.
	ThreadCount uint

	// Seed drives the per-worker shuffle PRNGs; 0 derives a seed from the
	// clock. Fixing it makes smooth-congruence runs reproducible up to
	// thread scheduling.
	Seed uint64
}

// DefaultParams returns the parameter set used when the caller specifies
// nothing beyond the target.
func DefaultParams() Params {
	return Params{
		NodeCount:                 1,
		TrialDivisionLevel:        1 << 16,
		GearFactorizationLevel:    13,
		WheelFactorizationLevel:   11,
		SmoothnessBoundMultiplier: 1.0,
		BatchSizeMultiplier:       0.75,
	}
}
