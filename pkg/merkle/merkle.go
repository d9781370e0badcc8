package merkle

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

const leafEncodingSize = 4 + 32 + 8

// PubKey decodes the recipient into its 32 raw identity bytes.
//
// A base58 recipient must decode to exactly 32 bytes. A 0x-prefixed hex
// address decodes to its 20 account bytes left-padded to 32. The base58
// alphabet has no '0', so the two forms cannot be confused. Anything else is
// an input malformation, reported as an error.
func (l Leaf) PubKey() ([32]byte, error) {
	var pubkey [32]byte

	if common.IsHexAddress(l.Recipient) {
		addr := common.HexToAddress(l.Recipient)
		copy(pubkey[32-common.AddressLength:], addr.Bytes())
		return pubkey, nil
	}

	decoded, err := base58.Decode(l.Recipient)
	if err != nil {
		return pubkey, fmt.Errorf("invalid base58 recipient %q: %w", l.Recipient, err)
	}
	if len(decoded) != 32 {
		return pubkey, fmt.Errorf("recipient %q decodes to %d bytes, expected 32", l.Recipient, len(decoded))
	}

	copy(pubkey[:], decoded)
	return pubkey, nil
}

// CommitLeaf derives the leaf commitment hash.
//
// The encoding is index (4 bytes LE) || pubkey (32 bytes) || amount (8 bytes
// LE), hashed with keccak256 and then hashed once more. The second hash
// domain-separates leaf commitments from internal nodes: an internal node is
// always keccak256 of 64 bytes of child hashes, so a single-hashed 44-byte
// leaf could otherwise be confused with it by a crafted second preimage.
func CommitLeaf(leaf Leaf) ([32]byte, error) {
	pubkey, err := leaf.PubKey()
	if err != nil {
		return [32]byte{}, err
	}

	data := make([]byte, 0, leafEncodingSize)
	data = binary.LittleEndian.AppendUint32(data, leaf.Index)
	data = append(data, pubkey[:]...)
	data = binary.LittleEndian.AppendUint64(data, leaf.Amount)

	h := keccak(data)
	return keccak(h[:]), nil
}

// BuildTree folds an ordered leaf list into a full binary hash tree.
//
// Level 0 keeps the leaf commitments in input order; the positional index,
// not a sorted identity, defines the tree topology. Each parent is the
// keccak256 of its two children with the numerically smaller hash first, so
// verification never needs left/right bookkeeping. A trailing unpaired node
// at an odd-length level is hashed with itself.
//
// An empty leaf list is a contract violation by the caller and fails the
// build outright.
func BuildTree(leaves []Leaf) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("cannot build merkle tree from empty leaves")
	}

	current := make([]string, len(leaves))
	for i, leaf := range leaves {
		commitment, err := CommitLeaf(leaf)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		current[i] = hex.EncodeToString(commitment[:])
	}

	levels := [][]string{current}

	for len(current) > 1 {
		next := make([]string, 0, (len(current)+1)/2)

		for i := 0; i < len(current); i += 2 {
			left, err := decodeHash(current[i])
			if err != nil {
				return nil, err
			}

			right := left // self-pair the trailing node of an odd level
			if i+1 < len(current) {
				right, err = decodeHash(current[i+1])
				if err != nil {
					return nil, err
				}
			}

			parent := hashPair(left, right)
			next = append(next, hex.EncodeToString(parent[:]))
		}

		levels = append(levels, next)
		current = next
	}

	return &Tree{
		Root:   current[0],
		Levels: levels,
	}, nil
}

// NumLeaves returns the number of leaves committed by the tree.
func (t *Tree) NumLeaves() int {
	if len(t.Levels) == 0 {
		return 0
	}
	return len(t.Levels[0])
}

// Proof extracts the sibling path for the leaf at the given index, ordered
// leaf-adjacent first. The second return value is false when the index is out
// of range.
//
// A level where the leaf's node is the trailing unpaired element contributes
// no entry: construction hashed that node with itself, leaving its effective
// value on the path unchanged, so the verifier has nothing to fold in. Proofs
// for different leaves of the same tree can therefore differ in length.
func (t *Tree) Proof(index uint32) ([]string, bool) {
	if int(index) >= t.NumLeaves() {
		return nil, false
	}

	proof := make([]string, 0, len(t.Levels))
	current := int(index)

	for level := 0; level < len(t.Levels)-1; level++ {
		nodes := t.Levels[level]

		sibling := current ^ 1
		if sibling < len(nodes) {
			proof = append(proof, nodes[sibling])
		}

		current /= 2
	}

	return proof, true
}

// VerifyProof recomputes the root from a leaf and its sibling path and
// compares it to the claimed root.
//
// A mismatch is a normal negative result, not an error. Malformed inputs (a
// recipient that does not decode, a proof entry that is not a 32-byte hex
// hash) are input-validation errors and never conflated with "did not
// verify".
func VerifyProof(leaf Leaf, root string, proof []string) (bool, error) {
	commitment, err := CommitLeaf(leaf)
	if err != nil {
		return false, err
	}

	computed := commitment
	for i, entry := range proof {
		sibling, err := decodeHash(entry)
		if err != nil {
			return false, fmt.Errorf("proof entry %d: %w", i, err)
		}
		computed = hashPair(computed, sibling)
	}

	return hex.EncodeToString(computed[:]) == root, nil
}

// hashPair computes keccak256(min || max) for two 32-byte hashes, comparing
// them as big-endian unsigned integers. The parent hash is independent of
// which child was left or right.
func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}

	data := make([]byte, 64)
	copy(data[0:32], a[:])
	copy(data[32:64], b[:])

	return keccak(data)
}

// decodeHash parses a 64-char hex string into a 32-byte hash.
func decodeHash(s string) ([32]byte, error) {
	var hash [32]byte

	raw, err := hex.DecodeString(s)
	if err != nil {
		return hash, fmt.Errorf("invalid hex hash %q: %w", s, err)
	}
	if len(raw) != 32 {
		return hash, fmt.Errorf("hash %q is %d bytes, expected 32", s, len(raw))
	}

	copy(hash[:], raw)
	return hash, nil
}

// keccak computes the keccak256 digest of data.
func keccak(data ...[]byte) [32]byte {
	return [32]byte(crypto.Keccak256Hash(data...))
}
