package merkle

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

func tx(addr, refundedPSP string, status model.TxStatus) model.GasRefundTransaction {
	return model.GasRefundTransaction{
		ChainID:           model.ChainMainnet,
		Epoch:             5,
		Hash:              addr + refundedPSP,
		Address:           addr,
		Timestamp:         time.Unix(1000, 0),
		RefundedAmountPSP: refundedPSP,
		Status:            status,
	}
}

func TestBuildEpoch_AggregatesByAddress(t *testing.T) {
	rows := []model.GasRefundTransaction{
		tx("0xa", "100", model.StatusValidated),
		tx("0xa", "200", model.StatusValidated),
		tx("0xb", "50", model.StatusValidated),
		tx("0xc", "999", model.StatusRejected), // excluded
	}

	sealed, err := BuildEpoch(model.ChainMainnet, 5, rows)
	require.NoError(t, err)

	byAddr := make(map[string]string)
	for _, p := range sealed.Participations {
		byAddr[p.Address] = p.AmountPSP
	}
	assert.Equal(t, "300", byAddr["0xa"])
	assert.Equal(t, "50", byAddr["0xb"])
	_, hasC := byAddr["0xc"]
	assert.False(t, hasC)
	assert.Equal(t, "350", sealed.TotalPSPAmountToRefund)
}

func TestBuildEpoch_AllProofsVerifyAgainstRoot(t *testing.T) {
	rows := []model.GasRefundTransaction{
		tx("0xa", "100", model.StatusValidated),
		tx("0xb", "200", model.StatusValidated),
		tx("0xc", "300", model.StatusValidated),
	}
	sealed, err := BuildEpoch(model.ChainMainnet, 5, rows)
	require.NoError(t, err)

	for i, p := range sealed.Participations {
		leaf := Leaf{Address: p.Address, Amount: p.AmountPSP}
		proof := Proof{Address: p.Address, Amount: p.AmountPSP, Path: hexPathToHashes(t, p.MerkleProofs)}
		assert.True(t, Verify(sealed.Root, leaf, proof, i, len(sealed.Participations)))
	}
}

func TestBuildEpoch_NoValidatedRows_Errors(t *testing.T) {
	rows := []model.GasRefundTransaction{
		tx("0xa", "100", model.StatusRejected),
	}
	_, err := BuildEpoch(model.ChainMainnet, 5, rows)
	assert.Error(t, err)
}

func hexPathToHashes(t *testing.T, hexes []string) []Hash {
	t.Helper()
	out := make([]Hash, len(hexes))
	for i, hx := range hexes {
		b, err := hex.DecodeString(hx)
		require.NoError(t, err)
		var h Hash
		copy(h[:], b)
		out[i] = h
	}
	return out
}
