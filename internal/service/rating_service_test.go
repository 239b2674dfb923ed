package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-rating/internal/apperr"
)

// Scenario A.
func TestSubmitThenLookupThenConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, st := f.ownerWithStore(t, "sa")
	u := f.user(t, "rater")

	rt := f.rate(t, u, st.ID, 4)
	assert.Equal(t, st.Name, rt.Store.Name)

	got, err := f.ratings.UserStoreRating(ctx, u, st.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Value)

	again, err := f.ratings.UserStoreRating(ctx, u, st.ID)
	require.NoError(t, err)
	assert.Equal(t, got, again, "repeated lookup is stable")

	_, err = f.ratings.Submit(ctx, u, RatingInput{StoreID: st.ID, Rating: 5})
	requireKind(t, err, apperr.KindConflict)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, st := f.ownerWithStore(t, "sv")
	u := f.user(t, "rater")

	for _, v := range []int{0, 6, -1} {
		_, err := f.ratings.Submit(ctx, u, RatingInput{StoreID: st.ID, Rating: v})
		requireKind(t, err, apperr.KindValidation)
	}
	_, err := f.ratings.Submit(ctx, u, RatingInput{StoreID: "missing", Rating: 3})
	requireKind(t, err, apperr.KindNotFound)

	_, err = f.ratings.Submit(ctx, owner, RatingInput{StoreID: st.ID, Rating: 3})
	requireKind(t, err, apperr.KindForbidden, "only normal users rate")
	_, err = f.ratings.Submit(ctx, nil, RatingInput{StoreID: st.ID, Rating: 3})
	requireKind(t, err, apperr.KindUnauthenticated)
}

func TestConcurrentSubmitExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, st := f.ownerWithStore(t, "race")
	u := f.user(t, "racer")

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ratings.Submit(ctx, u, RatingInput{StoreID: st.ID, Rating: 1 + i%5})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	}
	assert.Equal(t, 1, ok)

	mine, err := f.ratings.ListOwn(ctx, u)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestUpdateRatingOnlyByAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, st := f.ownerWithStore(t, "ur")
	author := f.user(t, "author")
	other := f.user(t, "other")
	rt := f.rate(t, author, st.ID, 2)

	_, err := f.ratings.Update(ctx, other, rt.ID, RatingUpdateInput{Rating: 5})
	requireKind(t, err, apperr.KindForbidden)

	_, err = f.ratings.Update(ctx, author, rt.ID, RatingUpdateInput{Rating: 9})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.ratings.Update(ctx, author, "missing", RatingUpdateInput{Rating: 3})
	requireKind(t, err, apperr.KindNotFound)

	updated, err := f.ratings.Update(ctx, author, rt.ID, RatingUpdateInput{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Value)
	assert.Equal(t, rt.ID, updated.ID)
	assert.Equal(t, st.ID, updated.Store.ID)
}

func TestListOwnAndLookupAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, s1 := f.ownerWithStore(t, "first")
	_, s2 := f.ownerWithStore(t, "second")
	u := f.user(t, "lister")

	none, err := f.ratings.ListOwn(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, none)

	f.rate(t, u, s1.ID, 3)
	f.rate(t, u, s2.ID, 4)
	mine, err := f.ratings.ListOwn(ctx, u)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, s2.ID, mine[0].Store.ID)
	assert.Equal(t, s2.Address, mine[0].Store.Address)

	got, err := f.ratings.UserStoreRating(ctx, f.user(t, "stranger"), s1.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreRatingsForOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, st := f.ownerWithStore(t, "sr")

	empty, err := f.ratings.StoreRatings(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, empty.AverageRating)
	assert.Zero(t, empty.TotalRatings)

	f.rate(t, f.user(t, "x1"), st.ID, 1)
	f.rate(t, f.user(t, "x2"), st.ID, 2)
	got, err := f.ratings.StoreRatings(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.AverageRating)
	assert.Equal(t, 2, got.TotalRatings)
	assert.Equal(t, "x2@example.com", got.Ratings[0].User.Email)

	_, err = f.ratings.StoreRatings(ctx, f.user(t, "nope"))
	requireKind(t, err, apperr.KindForbidden)
}
