package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaves(n int) []Leaf {
	addrs := []string{
		"0x0000000000000000000000000000000000000001",
		"0x0000000000000000000000000000000000000002",
		"0x0000000000000000000000000000000000000003",
		"0x0000000000000000000000000000000000000004",
		"0x0000000000000000000000000000000000000005",
	}
	out := make([]Leaf, n)
	for i := 0; i < n; i++ {
		out[i] = Leaf{Address: addrs[i%len(addrs)], Amount: "1000000000000000000"}
	}
	return out
}

func TestBuild_SingleLeaf_RootIsLeafHash(t *testing.T) {
	ls := leaves(1)
	tree, err := Build(ls)
	require.NoError(t, err)
	assert.Equal(t, leafHash(ls[0]), tree.Root())
}

func TestBuild_EvenLeafCount_EveryProofVerifies(t *testing.T) {
	ls := leaves(4)
	tree, err := Build(ls)
	require.NoError(t, err)

	proofs, err := tree.AllProofs()
	require.NoError(t, err)

	for i, p := range proofs {
		assert.True(t, Verify(tree.Root(), ls[i], p, i, len(ls)), "leaf %d failed to verify", i)
	}
}

func TestBuild_OddLeafCount_PromotedLeafVerifies(t *testing.T) {
	ls := leaves(3)
	tree, err := Build(ls)
	require.NoError(t, err)

	proofs, err := tree.AllProofs()
	require.NoError(t, err)

	for i, p := range proofs {
		assert.True(t, Verify(tree.Root(), ls[i], p, i, len(ls)), "leaf %d failed to verify", i)
	}
}

func TestBuild_FiveLeaves_AllVerify(t *testing.T) {
	ls := leaves(5)
	tree, err := Build(ls)
	require.NoError(t, err)

	proofs, err := tree.AllProofs()
	require.NoError(t, err)
	for i, p := range proofs {
		assert.True(t, Verify(tree.Root(), ls[i], p, i, len(ls)), "leaf %d failed to verify", i)
	}
}

func TestBuild_EmptyLeaves_Errors(t *testing.T) {
	_, err := Build(nil)
	assert.Error(t, err)
}

func TestVerify_TamperedAmount_Fails(t *testing.T) {
	ls := leaves(4)
	tree, err := Build(ls)
	require.NoError(t, err)

	p, err := tree.ProofFor(0)
	require.NoError(t, err)

	tampered := ls[0]
	tampered.Amount = "999999999999999999"
	assert.False(t, Verify(tree.Root(), tampered, p, 0, len(ls)))
}

func TestLeafHash_IsDeterministic(t *testing.T) {
	l := Leaf{Address: "0x0000000000000000000000000000000000000001", Amount: "500"}
	assert.Equal(t, leafHash(l), leafHash(l))
}
