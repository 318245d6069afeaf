package chain

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is the stable content identity of a Block. It is intentionally
// a fast, non-cryptographic hash: this simulator has no real hashing or
// signature verification (spec Non-goals), "valid" is a policy bit chosen
// by the producing miner, not a proof of work.
type Fingerprint string

// fingerprintOf canonically encodes the fields that define a block's
// identity — height, time, miner id, size, valid, prev — and hashes the
// result with xxhash64. The encoding is fixed-width and field-ordered so
// that two blocks with identical content always collide and no other pair
// ever does (within xxhash's collision bounds).
func fingerprintOf(b Block) Fingerprint {
	var buf [8*4 + 1]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(b.Height))
	binary.BigEndian.PutUint64(buf[8:16], math.Float64bits(b.Time))
	binary.BigEndian.PutUint64(buf[16:24], uint64(b.MinerID))
	binary.BigEndian.PutUint64(buf[24:32], uint64(b.Size))
	if b.Valid {
		buf[32] = 1
	}
	h := xxhash.New()
	h.Write(buf[:])
	h.Write([]byte(b.Prev))
	return Fingerprint(strconv.FormatUint(h.Sum64(), 16))
}

// Fingerprint computes the block's stable content identity. Two blocks
// produced with identical (prev, height, time, miner_id, size, valid) are
// indistinguishable and collapse to the same fingerprint; this is expected
// since the simulator never mutates a Block after construction.
func (b Block) Fingerprint() Fingerprint {
	return fingerprintOf(b)
}
