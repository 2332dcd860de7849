package merkle

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

// SealedEpoch is the output of BuildEpoch: a root plus per-address
// proofs and aggregate amounts, ready for the store's atomic
// Distribution + Participation write (spec.md §4.8 step 4).
type SealedEpoch struct {
	ChainID                model.ChainID
	Epoch                  int64
	Root                   Hash
	TotalPSPAmountToRefund string
	Participations         []model.Participation
}

// BuildEpoch aggregates VALIDATED transactions per address (spec.md
// §4.8 step 1), builds the tree over them in the address iteration's
// insertion order, and emits the sealed epoch's root, proofs and
// per-address totals.
func BuildEpoch(chainID model.ChainID, epoch int64, validated []model.GasRefundTransaction) (SealedEpoch, error) {
	if len(validated) == 0 {
		return SealedEpoch{}, fmt.Errorf("merkle: no validated transactions for %s/%d", chainID, epoch)
	}

	order := make([]string, 0)
	sums := make(map[string]decimal.Decimal)

	for _, tx := range validated {
		if tx.Status != model.StatusValidated {
			continue
		}
		amount, err := decimal.NewFromString(tx.RefundedAmountPSP)
		if err != nil {
			return SealedEpoch{}, fmt.Errorf("parse refundedAmountPSP for %s: %w", tx.Hash, err)
		}
		if _, seen := sums[tx.Address]; !seen {
			order = append(order, tx.Address)
			sums[tx.Address] = decimal.Zero
		}
		sums[tx.Address] = sums[tx.Address].Add(amount)
	}

	if len(order) == 0 {
		return SealedEpoch{}, fmt.Errorf("merkle: no validated transactions for %s/%d", chainID, epoch)
	}

	ls := make([]Leaf, len(order))
	total := decimal.Zero
	for i, addr := range order {
		ls[i] = Leaf{Address: addr, Amount: sums[addr].StringFixed(0)}
		total = total.Add(sums[addr])
	}

	tree, err := Build(ls)
	if err != nil {
		return SealedEpoch{}, err
	}
	proofs, err := tree.AllProofs()
	if err != nil {
		return SealedEpoch{}, err
	}

	participations := make([]model.Participation, len(order))
	for i, p := range proofs {
		proofHex := make([]string, len(p.Path))
		for j, h := range p.Path {
			proofHex[j] = h.Hex()
		}
		participations[i] = model.Participation{
			ChainID:      chainID,
			Epoch:        epoch,
			Address:      p.Address,
			AmountPSP:    p.Amount,
			MerkleProofs: proofHex,
			IsCompleted:  true,
		}
	}

	return SealedEpoch{
		ChainID:                chainID,
		Epoch:                  epoch,
		Root:                   tree.Root(),
		TotalPSPAmountToRefund: total.StringFixed(0),
		Participations:         participations,
	}, nil
}
