package auditlog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	dErrors "veritas/pkg/domain-errors"
)

// Domain-separation prefixes. Hashing leaves and internal nodes differently
// closes the classic second-preimage ambiguity between the two.
const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

// EmptyRoot is the root hash of a tree with no leaves.
var EmptyRoot = strings.Repeat("0", 64)

// Position tags which side a proof sibling sits on.
type Position string

const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

// ProofStep is one sibling on the path from a leaf to the root.
type ProofStep struct {
	Hash     string   `json:"hash"`
	Position Position `json:"position"`
}

// Proof is inclusion evidence for one leaf: recomputing the path from the
// leaf hash must reproduce the root.
type Proof struct {
	Index    int         `json:"index"`
	LeafHash string      `json:"leafHash"`
	Path     []ProofStep `json:"path"`
	Root     string      `json:"root"`
}

// LeafHash computes the domain-separated leaf hash SHA-256(0x00 || data).
func LeafHash(data string) string {
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// nodeHash computes SHA-256(0x01 || left || right) over the raw hash bytes.
func nodeHash(left, right string) (string, error) {
	lb, err := hex.DecodeString(left)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "left hash is not hex")
	}
	rb, err := hex.DecodeString(right)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "right hash is not hex")
	}
	h := sha256.New()
	h.Write([]byte{nodePrefix})
	h.Write(lb)
	h.Write(rb)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// paddedLeafHashes hashes every leaf and pads the set to the next power of
// two by duplicating the final leaf hash. Zero-padding is deliberately
// avoided: a known constant leaf would let an attacker graft entries.
func paddedLeafHashes(leaves []string) []string {
	hashes := make([]string, len(leaves))
	for i, leaf := range leaves {
		hashes[i] = LeafHash(leaf)
	}
	for len(hashes) > 1 && len(hashes)&(len(hashes)-1) != 0 {
		hashes = append(hashes, hashes[len(hashes)-1])
	}
	return hashes
}

// BuildRoot computes the Merkle root of the leaf data set. An empty set
// yields EmptyRoot.
func BuildRoot(leaves []string) (string, error) {
	if len(leaves) == 0 {
		return EmptyRoot, nil
	}
	level := paddedLeafHashes(leaves)
	for len(level) > 1 {
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			parent, err := nodeHash(level[i], level[i+1])
			if err != nil {
				return "", err
			}
			next = append(next, parent)
		}
		level = next
	}
	return level[0], nil
}

// InclusionProof generates the sibling path for the leaf at index, each step
// tagged with the side the sibling hashes in from.
//
// Errors: CodeInvalidInput when the index is outside the leaf set.
func InclusionProof(leaves []string, index int) (Proof, error) {
	if index < 0 || index >= len(leaves) {
		return Proof{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("leaf index %d out of range [0,%d)", index, len(leaves)))
	}

	proof := Proof{Index: index, LeafHash: LeafHash(leaves[index])}
	level := paddedLeafHashes(leaves)
	pos := index

	for len(level) > 1 {
		sibling := pos ^ 1
		if pos%2 == 0 {
			proof.Path = append(proof.Path, ProofStep{Hash: level[sibling], Position: PositionRight})
		} else {
			proof.Path = append(proof.Path, ProofStep{Hash: level[sibling], Position: PositionLeft})
		}

		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			parent, err := nodeHash(level[i], level[i+1])
			if err != nil {
				return Proof{}, err
			}
			next = append(next, parent)
		}
		level = next
		pos /= 2
	}

	proof.Root = level[0]
	return proof, nil
}

// VerifyInclusion recomputes the root from a leaf hash and sibling path and
// compares it to the claimed root.
func VerifyInclusion(leafHash string, path []ProofStep, root string) bool {
	current := leafHash
	for _, step := range path {
		var err error
		if step.Position == PositionLeft {
			current, err = nodeHash(step.Hash, current)
		} else {
			current, err = nodeHash(current, step.Hash)
		}
		if err != nil {
			return false
		}
	}
	return current == root
}
