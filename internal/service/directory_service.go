package service

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/policy"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/validation"
)

// SortRating is the derived sort key: the average of a store's ratings.
const SortRating = "rating"

// StoreQuery filters, sorts and pages the public store listing.
//
// Without SortBy the listing is ordered by name; SortOrder still applies.
// Sorting by "rating" is page-local: the page is fetched in creation order
// and only its rows are reordered by average.  The result is not a global
// top-N across pages.  Ties keep their fetched order.
type StoreQuery struct {
	Name      string `json:"name" query:"name"`
	Email     string `json:"email" query:"email"`
	Address   string `json:"address" query:"address"`
	SortBy    string `json:"sortBy" query:"sortBy" validate:"omitempty,oneof=name email address createdAt rating"`
	SortOrder string `json:"sortOrder" query:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `json:"page" query:"page"`
	Limit     int    `json:"limit" query:"limit"`
}

type SearchQuery struct {
	Query string `json:"query" query:"query"`
	Page  int    `json:"page" query:"page"`
	Limit int    `json:"limit" query:"limit"`
}

// UserQuery filters, sorts and pages the admin user listing.  Only stored
// columns can be sorted on; the default is newest first.
type UserQuery struct {
	Name      string `json:"name" query:"name"`
	Email     string `json:"email" query:"email"`
	Address   string `json:"address" query:"address"`
	Role      string `json:"role" query:"role" validate:"omitempty,role"`
	SortBy    string `json:"sortBy" query:"sortBy" validate:"omitempty,oneof=name email address createdAt"`
	SortOrder string `json:"sortOrder" query:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `json:"page" query:"page"`
	Limit     int    `json:"limit" query:"limit"`
}

// StoreListing is a store row with its derived rating figures.
type StoreListing struct {
	model.Store
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}

type StorePage struct {
	Stores     []StoreListing `json:"stores"`
	Pagination Pagination     `json:"pagination"`
}

type SearchPage struct {
	Stores      []StoreListing `json:"stores"`
	Pagination  Pagination     `json:"pagination"`
	SearchQuery string         `json:"searchQuery"`
}

type UserPage struct {
	Users      []model.User `json:"users"`
	Pagination Pagination   `json:"pagination"`
}

type DirectoryService struct{ Deps }

func NewDirectoryService(d Deps) *DirectoryService { return &DirectoryService{Deps: d} }

// ListStores returns one page of stores.  Literal sort keys are pushed down
// to the query; "rating" is applied in memory to the fetched page.
func (s *DirectoryService) ListStores(ctx context.Context, q StoreQuery) (StorePage, error) {
	if err := validation.Struct(q); err != nil {
		return StorePage{}, err
	}
	page, limit, win, err := window(q.Page, q.Limit)
	if err != nil {
		return StorePage{}, err
	}
	desc := q.SortOrder == "desc"
	order := repository.Order{Column: "createdAt"}
	switch q.SortBy {
	case SortRating:
	case "":
		order = repository.Order{Column: "name", Desc: desc}
	default:
		order = repository.Order{Column: q.SortBy, Desc: desc}
	}
	filter := repository.StoreFilter{Name: q.Name, Email: q.Email, Address: q.Address}

	stores, total, err := s.storePage(ctx, filter, order, win)
	if err != nil {
		return StorePage{}, err
	}
	if q.SortBy == SortRating {
		SortByAverage(stores, desc)
	}
	return StorePage{Stores: stores, Pagination: newPagination(page, limit, total)}, nil
}

// SearchStores matches the trimmed query against name or address, ordered
// by name.
func (s *DirectoryService) SearchStores(ctx context.Context, q SearchQuery) (SearchPage, error) {
	term := strings.TrimSpace(q.Query)
	switch {
	case term == "":
		return SearchPage{}, apperr.Validation("search query is required", map[string]string{"query": "is required"})
	case len([]rune(term)) < 2:
		return SearchPage{}, apperr.Validation("search query must be at least 2 characters",
			map[string]string{"query": "must be at least 2 characters"})
	}
	page, limit, win, err := window(q.Page, q.Limit)
	if err != nil {
		return SearchPage{}, err
	}
	stores, total, err := s.storePage(ctx, repository.StoreFilter{Term: term}, repository.Order{Column: "name"}, win)
	if err != nil {
		return SearchPage{}, err
	}
	return SearchPage{Stores: stores, Pagination: newPagination(page, limit, total), SearchQuery: term}, nil
}

// storePage fetches the rows and the independent total concurrently, then
// attaches each row's average.
func (s *DirectoryService) storePage(ctx context.Context, f repository.StoreFilter, o repository.Order, win repository.Page) ([]StoreListing, int, error) {
	repos := s.Repos.Repos()
	var (
		rows  []model.Store
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = repos.Stores.List(gctx, f, o, win)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = repos.Stores.CountFiltered(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, apperr.Internal(err)
	}

	ids := make([]string, 0, len(rows))
	for _, st := range rows {
		ids = append(ids, st.ID)
	}
	values, err := repos.Ratings.ValuesByStores(ctx, ids)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	out := make([]StoreListing, 0, len(rows))
	for _, st := range rows {
		v := values[st.ID]
		out = append(out, StoreListing{Store: st, AverageRating: model.AverageRating(v), TotalRatings: len(v)})
	}
	return out, total, nil
}

// SortByAverage reorders stores by average rating.  The sort is stable so
// equal averages keep their incoming order.
func SortByAverage(stores []StoreListing, desc bool) {
	sort.SliceStable(stores, func(i, j int) bool {
		if desc {
			return stores[i].AverageRating > stores[j].AverageRating
		}
		return stores[i].AverageRating < stores[j].AverageRating
	})
}

// ListUsers returns one page of users for an admin, each with their store.
func (s *DirectoryService) ListUsers(ctx context.Context, p *policy.Principal, q UserQuery) (UserPage, error) {
	if err := policy.Permission(p, policy.OpUserList).Err(); err != nil {
		return UserPage{}, err
	}
	if err := validation.Struct(q); err != nil {
		return UserPage{}, err
	}
	page, limit, win, err := window(q.Page, q.Limit)
	if err != nil {
		return UserPage{}, err
	}
	order := repository.Order{Column: q.SortBy, Desc: q.SortOrder != "asc"}
	if order.Column == "" {
		order.Column = "createdAt"
	}
	filter := repository.UserFilter{Name: q.Name, Email: q.Email, Address: q.Address, Role: model.Role(q.Role)}

	repos := s.Repos.Repos()
	var (
		users []model.User
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = repos.Users.List(gctx, filter, order, win)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = repos.Users.CountFiltered(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return UserPage{}, apperr.Internal(err)
	}
	return UserPage{Users: users, Pagination: newPagination(page, limit, total)}, nil
}
