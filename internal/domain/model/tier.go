package model

import "github.com/shopspring/decimal"

// TierThreshold is one entry in the descending-by-minStake tier table.
type TierThreshold struct {
	MinStake decimal.Decimal // scaled by 10^18
	Percent  decimal.Decimal // e.g. 0.25
}

// MinStake is the floor below which an address is ineligible for any
// refund tier (spec.md §3, "MIN_STAKE = 500 PSP").
var MinStake = decimal.New(500, 18)

// Tiers is ordered descending by MinStake, matching spec.md §3.
var Tiers = []TierThreshold{
	{MinStake: decimal.New(500_000, 18), Percent: decimal.NewFromFloat(1.00)},
	{MinStake: decimal.New(50_000, 18), Percent: decimal.NewFromFloat(0.75)},
	{MinStake: decimal.New(5_000, 18), Percent: decimal.NewFromFloat(0.50)},
	{MinStake: decimal.New(500, 18), Percent: decimal.NewFromFloat(0.25)},
}
