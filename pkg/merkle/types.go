package merkle

// Leaf is one recipient's commitment input. Index is the leaf's 0-based
// position in the original recipient list and is part of the hash input, so
// identical recipient+amount pairs at different positions commit to different
// leaf hashes.
type Leaf struct {
	// Index is the position of the leaf in the original recipient list
	Index uint32 `json:"index"`

	// Recipient is the base58-encoded public key of the recipient
	Recipient string `json:"recipient"`

	// Amount is the entitlement in the smallest denomination unit
	Amount uint64 `json:"amount"`
}

// Tree is the commitment artifact produced by BuildTree. It is immutable
// after construction.
//
// Levels[0] holds the leaf commitments in original order; each subsequent
// level holds the parents of the previous one; the final level holds exactly
// the root. All hashes are lowercase hex, 64 characters, which is also the
// published snapshot representation.
type Tree struct {
	// Root is the hex-encoded merkle root hash
	Root string `json:"root"`

	// Levels stores all tree levels, level 0 (leaves) first
	Levels [][]string `json:"tree"`
}
