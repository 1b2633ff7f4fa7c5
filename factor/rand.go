////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package factor

import (
	"encoding/binary"
	"math/rand"
	"time"

	"golang.org/x/crypto/blake2b"
)

// workerRand builds an independent PRNG for one sweep worker by hashing the
// base seed with the worker's spawn index. Workers never share a PRNG, and a
// fixed base seed reproduces every worker's shuffle sequence.
func workerRand(seed, worker uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	binary.LittleEndian.PutUint64(buf[8:], worker)
	sum := blake2b.Sum256(buf[:])

	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(sum[:8]))))
}
