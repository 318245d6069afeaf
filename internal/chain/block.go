// Package chain defines the immutable block record shared by every miner.
package chain

// Genesis is the sentinel fingerprint meaning "no chain head yet".
const Genesis Fingerprint = ""

// Block is an immutable tuple produced once by a miner and never mutated.
// Identity is derived from Prev, Height, Time, MinerID, Size and Valid.
// MinerName is a display label and is not hashed; ValidatedYet is local,
// mutable SPV bookkeeping and must never influence the fingerprint.
type Block struct {
	Prev      Fingerprint // parent fingerprint, or Genesis for the root block
	Height    int64
	Time      float64 // virtual timestamp of creation
	MinerID   int64
	MinerName string
	Size      int64 // bytes, informs validation delay
	Valid     bool  // semantic only, not cryptographic

	// ValidatedYet is maintained only by SPV miners as mutable local
	// per-replica metadata (§3 data model). It is never serialized into
	// the fingerprint.
	ValidatedYet bool
}

// NewGenesis builds the height-zero seed block every miner starts from.
func NewGenesis(minerName string) Block {
	return Block{
		Prev:      Genesis,
		Height:    0,
		Time:      0,
		MinerID:   -1,
		MinerName: minerName,
		Size:      0,
		Valid:     true,
	}
}
