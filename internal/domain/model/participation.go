package model

// Participation is the aggregate per (chainID, epoch, address): the sum
// of refunded PSP across validated transactions, plus its Merkle proof
// once the epoch's Distribution is sealed.
type Participation struct {
	ChainID       ChainID
	Epoch         int64
	Address       string
	AmountPSP     string // integer string
	MerkleProofs  []string
	IsCompleted   bool
}

// Distribution is the sealed, on-chain-published root per (chainID, epoch).
type Distribution struct {
	ChainID                ChainID
	Epoch                  int64
	MerkleRoot             string
	TotalPSPAmountToRefund string // integer string
	IsCompleted            bool
}
