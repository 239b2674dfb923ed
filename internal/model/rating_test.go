package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []int{4}, 4},
		{"rounds down", []int{4, 4, 5}, 4.3},
		{"rounds half up", []int{2, 2, 2, 3}, 2.3},
		{"mixed", []int{1, 2, 3, 4, 5}, 3},
		{"two thirds", []int{1, 1, 2}, 1.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AverageRating(tt.values))
		})
	}
}

func TestAverageRatingStaysInRangeWithOneDecimal(t *testing.T) {
	for a := MinRating; a <= MaxRating; a++ {
		for b := MinRating; b <= MaxRating; b++ {
			for c := MinRating; c <= MaxRating; c++ {
				avg := AverageRating([]int{a, b, c})
				assert.GreaterOrEqual(t, avg, 0.0)
				assert.LessOrEqual(t, avg, 5.0)
				assert.InDelta(t, math.Round(avg*10), avg*10, 1e-9)
			}
		}
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" store_owner ")
	assert.True(t, ok)
	assert.Equal(t, RoleStoreOwner, r)

	_, ok = ParseRole("ROOT")
	assert.False(t, ok)
}
