package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsYearBoundary(t *testing.T) {
	assert.True(t, IsYearBoundary(0, 0))
	assert.True(t, IsYearBoundary(26, 0))
	assert.True(t, IsYearBoundary(52, 0))
	assert.False(t, IsYearBoundary(27, 0))
	assert.False(t, IsYearBoundary(1, 0))
}

func TestIsYearBoundary_NonZeroGenesis(t *testing.T) {
	assert.True(t, IsYearBoundary(10, 10))
	assert.True(t, IsYearBoundary(36, 10))
	assert.False(t, IsYearBoundary(20, 10))
}

func TestYearIndex(t *testing.T) {
	assert.Equal(t, int64(0), YearIndex(5, 0))
	assert.Equal(t, int64(1), YearIndex(26, 0))
	assert.Equal(t, int64(2), YearIndex(52, 0))
}
