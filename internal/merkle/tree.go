// Package merkle builds per-(chain, epoch) Merkle trees over validated
// refund entitlements (C8), producing a root for on-chain publication
// and a per-address proof path for later claims.
package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Leaf is one (address, amount) entitlement, keyed by the address that
// will later submit the claim.
type Leaf struct {
	Address string
	Amount  string // integer decimal string, as persisted in refundedAmountPSP
}

// Proof is the sibling-hash path from a leaf up to the root. It carries
// no positional information: Verify takes the leaf's index and the total
// leaf count separately to replay the hashing order.
type Proof struct {
	Address string
	Amount  string
	Path    []Hash
}

// Hash is a 32-byte keccak256 digest.
type Hash [32]byte

func (h Hash) Hex() string {
	return common.Bytes2Hex(h[:])
}

// Tree is a built Merkle tree, keeping every level so proofs can be
// derived after the fact.
type Tree struct {
	levels [][]Hash
	leaves []Leaf
}

// leafHash implements spec.md §4.8 step 2's historical, on-chain
// observable convention: keccak256(address ++ amount-as-ASCII-decimal),
// byte concatenation of the raw address bytes and the decimal string's
// bytes (not RLP or ABI encoded).
func leafHash(l Leaf) Hash {
	addrBytes := common.HexToAddress(l.Address).Bytes()
	data := append(append([]byte{}, addrBytes...), []byte(l.Amount)...)
	return Hash(crypto.Keccak256Hash(data))
}

func nodeHash(left, right Hash) Hash {
	data := append(append([]byte{}, left[:]...), right[:]...)
	return Hash(crypto.Keccak256Hash(data))
}

// Build constructs a tree over leaves in the given order — insertion
// order of the address iteration, per spec.md §4.8 step 3. An odd node
// at any level is promoted unchanged to the next level rather than
// self-paired; see DESIGN.md for why this convention was chosen over
// duplicating the last leaf.
func Build(leaves []Leaf) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("merkle: cannot build a tree with no leaves")
	}

	level := make([]Hash, len(leaves))
	for i, l := range leaves {
		level[i] = leafHash(l)
	}

	t := &Tree{leaves: leaves, levels: [][]Hash{level}}

	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, nodeHash(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		t.levels = append(t.levels, next)
		level = next
	}

	return t, nil
}

// Root returns the tree's root hash.
func (t *Tree) Root() Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// ProofFor returns the sibling path for the leaf at index i.
func (t *Tree) ProofFor(index int) (Proof, error) {
	if index < 0 || index >= len(t.leaves) {
		return Proof{}, fmt.Errorf("merkle: leaf index %d out of range", index)
	}

	leaf := t.leaves[index]
	var path []Hash
	idx := index
	for level := 0; level < len(t.levels)-1; level++ {
		siblingIdx := idx ^ 1
		nodes := t.levels[level]
		if siblingIdx < len(nodes) {
			path = append(path, nodes[siblingIdx])
		}
		idx /= 2
	}

	return Proof{Address: leaf.Address, Amount: leaf.Amount, Path: path}, nil
}

// AllProofs returns the proof for every leaf, in the order Build
// received them.
func (t *Tree) AllProofs() ([]Proof, error) {
	proofs := make([]Proof, len(t.leaves))
	for i := range t.leaves {
		p, err := t.ProofFor(i)
		if err != nil {
			return nil, err
		}
		proofs[i] = p
	}
	return proofs, nil
}

// Verify checks that a leaf's proof reconstructs to root, replaying the
// same pairing/promotion rule Build uses at each level. totalLeaves is
// required to know, at each level, whether the leaf's ancestor was
// paired with a sibling or promoted unchanged (an odd node at the end
// of a level).
func Verify(root Hash, leaf Leaf, proof Proof, index, totalLeaves int) bool {
	h := leafHash(leaf)
	idx := index
	levelSize := totalLeaves
	pathIdx := 0

	for levelSize > 1 {
		isLastOfOddLevel := levelSize%2 == 1 && idx == levelSize-1
		if !isLastOfOddLevel {
			if pathIdx >= len(proof.Path) {
				return false
			}
			sibling := proof.Path[pathIdx]
			pathIdx++
			if idx%2 == 0 {
				h = nodeHash(h, sibling)
			} else {
				h = nodeHash(sibling, h)
			}
		}
		idx /= 2
		levelSize = (levelSize + 1) / 2
	}

	return pathIdx == len(proof.Path) && h == root
}
