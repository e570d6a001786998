package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloats(t *testing.T) {
	values := []float64{1, 3, 5, 7, 9}

	tests := []struct {
		name   string
		target float64
		want   int
	}{
		{"exact match", 5, 2},
		{"first value above target", 6, 3},
		{"below every value clamps to first", 0, 0},
		{"above every value clamps to last", 100, 4},
		{"exact first", 1, 0},
		{"exact last", 9, 4},
		{"bisection settles below the lower bound", 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Floats(tt.target, values)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloats_Empty(t *testing.T) {
	for _, target := range []float64{-1, 0, 42} {
		_, ok := Floats(target, nil)
		assert.False(t, ok)
		_, ok = Floats(target, []float64{})
		assert.False(t, ok)
	}
}

func TestFloats_Single(t *testing.T) {
	for _, target := range []float64{-10, 3, 10} {
		got, ok := Floats(target, []float64{3})
		assert.True(t, ok)
		assert.Equal(t, 0, got)
	}
}

func TestFloats_Ties(t *testing.T) {
	got, ok := Floats(2, []float64{1, 2, 2, 2, 3})
	assert.True(t, ok)
	assert.Equal(t, 2, got, "equality short-circuits at the first probed mid")
}

func TestIndex_Key(t *testing.T) {
	type scan struct{ time float64 }
	scans := []scan{{100}, {140}}
	byTime := func(s scan) float64 { return s.time }

	low, ok := Index(100, scans, byTime)
	assert.True(t, ok)
	assert.Equal(t, 0, low)

	high, ok := Index(140, scans, byTime)
	assert.True(t, ok)
	assert.Equal(t, 1, high)
}

func TestIndex_AlwaysInBounds(t *testing.T) {
	values := []float64{0.5, 1.5, 1.5, 2.5, 10, 11, 12.25, 40}
	for target := -5.0; target < 50; target += 0.25 {
		got, ok := Floats(target, values)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, got, 0)
		assert.Less(t, got, len(values))
	}
}
