package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/model"
)

func names(stores []StoreListing) []string {
	out := make([]string, 0, len(stores))
	for _, s := range stores {
		out = append(out, s.Name)
	}
	return out
}

func averages(stores []StoreListing) []float64 {
	out := make([]float64, 0, len(stores))
	for _, s := range stores {
		out = append(out, s.AverageRating)
	}
	return out
}

// Scenario D.
func TestListStoresSortByRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scores := map[string][]int{
		"two":   {2, 2},
		"fourh": {4, 5},
		"three": {3},
	}
	for _, name := range []string{"two", "fourh", "three"} {
		_, st := f.ownerWithStore(t, name)
		for i, v := range scores[name] {
			f.rate(t, f.user(t, fmt.Sprintf("%s-r%d", name, i)), st.ID, v)
		}
	}

	page, err := f.directory.ListStores(ctx, StoreQuery{SortBy: "rating", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []float64{4.5, 3.0, 2.0}, averages(page.Stores))
	assert.Equal(t, []int{2, 1, 2}, []int{page.Stores[0].TotalRatings, page.Stores[1].TotalRatings, page.Stores[2].TotalRatings})

	page, err = f.directory.ListStores(ctx, StoreQuery{SortBy: "rating"})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.0, 3.0, 4.5}, averages(page.Stores))
}

func TestListStoresRatingSortIsPageLocal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Created in this order; the best store lands on the second page.
	for i, v := range []int{1, 2, 5} {
		_, st := f.ownerWithStore(t, fmt.Sprintf("pl%d", i))
		f.rate(t, f.user(t, fmt.Sprintf("pl-r%d", i)), st.ID, v)
	}

	page, err := f.directory.ListStores(ctx, StoreQuery{SortBy: "rating", SortOrder: "desc", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"pl1 shop", "pl0 shop"}, names(page.Stores))
	assert.Equal(t, Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2}, page.Pagination)
}

func TestSortByAverageKeepsTies(t *testing.T) {
	stores := []StoreListing{
		{Store: model.Store{Name: "a"}, AverageRating: 3},
		{Store: model.Store{Name: "b"}, AverageRating: 4},
		{Store: model.Store{Name: "c"}, AverageRating: 3},
		{Store: model.Store{Name: "d"}, AverageRating: 0},
	}
	SortByAverage(stores, true)
	assert.Equal(t, []string{"b", "a", "c", "d"}, names(stores))
}

func TestListStoresFiltersAndLiteralSort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, n := range []string{"cedar", "birch", "aspen", "alder"} {
		f.ownerWithStore(t, n)
	}

	page, err := f.directory.ListStores(ctx, StoreQuery{SortBy: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alder shop", "aspen shop", "birch shop", "cedar shop"}, names(page.Stores))

	page, err = f.directory.ListStores(ctx, StoreQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"alder shop", "aspen shop", "birch shop", "cedar shop"}, names(page.Stores))

	page, err = f.directory.ListStores(ctx, StoreQuery{SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cedar shop", "birch shop", "aspen shop", "alder shop"}, names(page.Stores))

	page, err = f.directory.ListStores(ctx, StoreQuery{Name: "A", SortBy: "name", SortOrder: "desc", Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"aspen shop"}, names(page.Stores), "birch has no a")
	assert.Equal(t, 3, page.Pagination.Total)

	page, err = f.directory.ListStores(ctx, StoreQuery{Address: "ALDER"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alder shop"}, names(page.Stores))
	assert.Equal(t, 1, page.Pagination.TotalPages)

	_, err = f.directory.ListStores(ctx, StoreQuery{SortBy: "owner"})
	requireKind(t, err, apperr.KindValidation)
	_, err = f.directory.ListStores(ctx, StoreQuery{Limit: 500})
	requireKind(t, err, apperr.KindValidation)
}

func TestSearchStores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ownerWithStore(t, "zeta")
	f.ownerWithStore(t, "gamma")
	f.ownerWithStore(t, "omega")

	res, err := f.directory.SearchStores(ctx, SearchQuery{Query: "  MEGA "})
	require.NoError(t, err)
	assert.Equal(t, "MEGA", res.SearchQuery)
	assert.Equal(t, []string{"omega shop"}, names(res.Stores))

	res, err = f.directory.SearchStores(ctx, SearchQuery{Query: "market"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma shop", "omega shop", "zeta shop"}, names(res.Stores), "address matches, ordered by name")

	_, err = f.directory.SearchStores(ctx, SearchQuery{Query: " a "})
	requireKind(t, err, apperr.KindValidation)
	_, err = f.directory.SearchStores(ctx, SearchQuery{})
	requireKind(t, err, apperr.KindValidation)
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin1(t)
	f.user(t, "uma")
	f.user(t, "ursula")
	owner, st := f.ownerWithStore(t, "otto")

	page, err := f.directory.ListUsers(ctx, admin, UserQuery{})
	require.NoError(t, err)
	require.Len(t, page.Users, 4)
	assert.Equal(t, owner.UserID, page.Users[0].ID, "newest first by default")
	require.NotNil(t, page.Users[0].Store)
	assert.Equal(t, st.ID, page.Users[0].Store.ID)

	page, err = f.directory.ListUsers(ctx, admin, UserQuery{Name: "U", Role: "NORMAL_USER", SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Users, 2)
	assert.Equal(t, "uma", page.Users[0].Name)
	assert.Equal(t, 2, page.Pagination.Total)

	_, err = f.directory.ListUsers(ctx, admin, UserQuery{SortBy: "rating"})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.directory.ListUsers(ctx, owner, UserQuery{})
	requireKind(t, err, apperr.KindForbidden)
}
