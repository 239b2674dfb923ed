package model

import (
	"math"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is one user's score for one store, stored in the `ratings`
// table.  The pair (UserID, StoreID) is unique.
//
// Fields:
//
//	ID        – uuid primary key.
//	Value     – integer score in [1,5], serialised as "rating".
//	UserID    – author of the rating.
//	StoreID   – rated store.
//	CreatedAt – creation timestamp (UTC).
//	Store     – store summary for the author's views.
//	User      – author summary for the owner's views.
type Rating struct {
	ID        string    `json:"id"`
	Value     int       `json:"rating"`
	UserID    string    `json:"userId"`
	StoreID   string    `json:"storeId"`
	CreatedAt time.Time `json:"createdAt"`
	Store     *StoreRef `json:"store,omitempty"`
	User      *UserRef  `json:"user,omitempty"`
}

// AverageRating returns the mean of values rounded to one decimal place,
// or 0 when there are no values.  Every view that shows an average uses
// this function so the figure is identical everywhere.
func AverageRating(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return math.Round(float64(sum)/float64(len(values))*10) / 10
}

// RatingValues extracts the scores from a slice of ratings.
func RatingValues(ratings []Rating) []int {
	out := make([]int, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, r.Value)
	}
	return out
}
