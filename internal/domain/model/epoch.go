package model

import "time"

// EpochsPerYear is the number of 14-day epochs in a rolling budget year.
const EpochsPerYear = 26

// Epoch is a contiguous 14-day interval identified by an integer >= a
// deployment's configured GENESIS constant.
type Epoch struct {
	Number int64
	Start  time.Time
	End    time.Time
}

// CalcInterval is the slice of [Start,End) actually scanned by the
// ingestion driver, distinct from the epoch's nominal boundaries so a
// resumed run can narrow the window to unprocessed time.
type CalcInterval struct {
	Start time.Time
	End   time.Time
}

// YearIndex returns which rolling budget year (0-based) the epoch
// belongs to relative to genesis, per spec.md's "(epoch - GENESIS) mod
// EPOCHS_PER_YEAR == 0" year-boundary rule.
func YearIndex(epoch, genesis int64) int64 {
	return (epoch - genesis) / EpochsPerYear
}

// IsYearBoundary reports whether epoch starts a new rolling budget year.
func IsYearBoundary(epoch, genesis int64) bool {
	return (epoch-genesis)%EpochsPerYear == 0
}

// Duration is the fixed 14-day width of every epoch (GLOSSARY: "a
// 14-day interval; 26 epochs per year").
const Duration = 14 * 24 * time.Hour

// Bounds derives [start, end) for epoch relative to genesisTime, the
// wall-clock instant at which epoch number genesis began.
func Bounds(genesisTime time.Time, genesis, epoch int64) (start, end time.Time) {
	start = genesisTime.Add(time.Duration(epoch-genesis) * Duration)
	return start, start.Add(Duration)
}

// Current returns the epoch number containing now, relative to
// genesisTime/genesis. Used by C9 to bound how far forward it may
// drive the pipeline: epochs ending after now are not yet indexable.
func Current(genesisTime time.Time, genesis int64, now time.Time) int64 {
	if now.Before(genesisTime) {
		return genesis
	}
	return genesis + int64(now.Sub(genesisTime)/Duration)
}
