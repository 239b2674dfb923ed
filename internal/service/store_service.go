package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/policy"
	"github.com/iliyamo/store-rating/internal/queue"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/validation"
)

type StoreInput struct {
	Name    string `json:"name" validate:"required,min=2,max=60"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Address string `json:"address" validate:"required,max=400"`
}

type AdminStoreInput struct {
	StoreInput
	OwnerID string `json:"ownerId" validate:"required"`
}

type StorePatchInput struct {
	Name    *string `json:"name" validate:"omitempty,min=2,max=60"`
	Email   *string `json:"email" validate:"omitempty,email,max=255"`
	Address *string `json:"address" validate:"omitempty,min=1,max=400"`
}

func (in *StoreInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
}

func (in *StorePatchInput) normalize() {
	trim(in.Name)
	trim(in.Email)
	trim(in.Address)
}

// StoreDetail is a store with every rating, the rater names and the
// average.
type StoreDetail struct {
	model.Store
	Ratings       []model.Rating `json:"ratings"`
	AverageRating float64        `json:"averageRating"`
	TotalRatings  int            `json:"totalRatings"`
}

type OwnerStatistics struct {
	AverageRating      float64     `json:"averageRating"`
	TotalRatings       int         `json:"totalRatings"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}

// OwnerDashboard is the store owner's view of their store.
type OwnerDashboard struct {
	Store         model.Store     `json:"store"`
	Statistics    OwnerStatistics `json:"statistics"`
	RecentRatings []model.Rating  `json:"recentRatings"`
	Customers     []model.UserRef `json:"customers"`
}

const recentRatingsOnDashboard = 10

type StoreService struct{ Deps }

func NewStoreService(d Deps) *StoreService { return &StoreService{Deps: d} }

// CreateOwnStore creates the caller's single store.
func (s *StoreService) CreateOwnStore(ctx context.Context, p *policy.Principal, in StoreInput) (model.Store, error) {
	if err := policy.Permission(p, policy.OpOwnStoreCreate).Err(); err != nil {
		return model.Store{}, err
	}
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return model.Store{}, err
	}
	repos := s.Repos.Repos()
	if _, err := repos.Stores.GetByOwner(ctx, p.UserID); err == nil {
		return model.Store{}, apperr.Conflict("you already own a store")
	} else if !errors.Is(err, repository.ErrStoreNotFound) {
		return model.Store{}, apperr.Internal(err)
	}
	if err := s.checkStoreEmail(ctx, in.Email, ""); err != nil {
		return model.Store{}, err
	}

	st := s.newStore(in, p.UserID)
	if err := repos.Stores.Create(ctx, &st); err != nil {
		return model.Store{}, storeWriteErr(err)
	}
	return s.created(ctx, p, st.ID)
}

// AdminCreateStore creates a store for an existing user.  Creating the
// store and promoting the owner to STORE_OWNER commit together.
func (s *StoreService) AdminCreateStore(ctx context.Context, p *policy.Principal, in AdminStoreInput) (model.Store, error) {
	if err := policy.Permission(p, policy.OpStoreCreate).Err(); err != nil {
		return model.Store{}, err
	}
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return model.Store{}, err
	}
	repos := s.Repos.Repos()
	owner, err := repos.Users.GetByID(ctx, in.OwnerID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.Store{}, apperr.NotFound("selected owner not found")
	}
	if err != nil {
		return model.Store{}, apperr.Internal(err)
	}
	if existing, err := repos.Stores.GetByOwner(ctx, owner.ID); err == nil {
		return model.Store{}, apperr.Conflict(fmt.Sprintf("user %q already owns a store: %q", owner.Name, existing.Name))
	} else if !errors.Is(err, repository.ErrStoreNotFound) {
		return model.Store{}, apperr.Internal(err)
	}
	if err := s.checkStoreEmail(ctx, in.Email, ""); err != nil {
		return model.Store{}, err
	}

	st := s.newStore(in.StoreInput, owner.ID)
	err = s.Repos.InTx(ctx, func(r *repository.Repos) error {
		if err := r.Stores.Create(ctx, &st); err != nil {
			return err
		}
		if owner.Role != model.RoleStoreOwner {
			return r.Users.UpdateRole(ctx, owner.ID, model.RoleStoreOwner)
		}
		return nil
	})
	if err != nil {
		return model.Store{}, storeWriteErr(err)
	}
	return s.created(ctx, p, st.ID)
}

func (s *StoreService) newStore(in StoreInput, ownerID string) model.Store {
	return model.Store{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     repository.NormalizeEmail(in.Email),
		Address:   in.Address,
		OwnerID:   ownerID,
		CreatedAt: s.now(),
	}
}

func (s *StoreService) created(ctx context.Context, p *policy.Principal, id string) (model.Store, error) {
	st, err := s.Repos.Repos().Stores.GetByID(ctx, id)
	if err != nil {
		return model.Store{}, apperr.Internal(err)
	}
	s.publish(ctx, queue.NewEvent(queue.StoreCreated, p.UserID, st.ID, map[string]string{
		"name": st.Name, "owner_id": st.OwnerID,
	}))
	return st, nil
}

func (s *StoreService) checkStoreEmail(ctx context.Context, email, exceptID string) error {
	taken, err := s.Repos.Repos().Stores.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return apperr.Internal(err)
	}
	if taken {
		return apperr.Conflict("a store with this email already exists")
	}
	return nil
}

func storeWriteErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrOwnerHasStore):
		return apperr.Conflict("user already owns a store")
	case errors.Is(err, repository.ErrStoreEmailExists):
		return apperr.Conflict("a store with this email already exists")
	}
	return apperr.Internal(err)
}

// UpdateStore lets an admin patch any store.
func (s *StoreService) UpdateStore(ctx context.Context, p *policy.Principal, id string, in StorePatchInput) (model.Store, error) {
	if err := policy.Permission(p, policy.OpStoreUpdate).Err(); err != nil {
		return model.Store{}, err
	}
	st, err := s.Repos.Repos().Stores.GetByID(ctx, id)
	if errors.Is(err, repository.ErrStoreNotFound) {
		return model.Store{}, apperr.NotFound("store not found")
	}
	if err != nil {
		return model.Store{}, apperr.Internal(err)
	}
	return s.patch(ctx, p, st, in)
}

// UpdateOwnStore lets a store owner patch their own store.
func (s *StoreService) UpdateOwnStore(ctx context.Context, p *policy.Principal, in StorePatchInput) (model.Store, error) {
	if err := policy.Permission(p, policy.OpOwnStoreUpdate).Err(); err != nil {
		return model.Store{}, err
	}
	st, err := s.Repos.Repos().Stores.GetByOwner(ctx, p.UserID)
	if errors.Is(err, repository.ErrStoreNotFound) {
		return model.Store{}, apperr.NotFound("no store found for this user")
	}
	if err != nil {
		return model.Store{}, apperr.Internal(err)
	}
	return s.patch(ctx, p, st, in)
}

func (s *StoreService) patch(ctx context.Context, p *policy.Principal, st model.Store, in StorePatchInput) (model.Store, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return model.Store{}, err
	}
	patch := repository.StorePatch{Name: in.Name, Email: in.Email, Address: in.Address}
	if patch.Empty() {
		return model.Store{}, apperr.Validation("no fields to update", nil)
	}
	if patch.Email != nil && repository.NormalizeEmail(*patch.Email) != st.Email {
		if err := s.checkStoreEmail(ctx, *patch.Email, st.ID); err != nil {
			return model.Store{}, err
		}
	}
	if err := s.Repos.Repos().Stores.Update(ctx, st.ID, patch); err != nil {
		return model.Store{}, storeWriteErr(err)
	}
	updated, err := s.Repos.Repos().Stores.GetByID(ctx, st.ID)
	if err != nil {
		return model.Store{}, apperr.Internal(err)
	}
	s.publish(ctx, queue.NewEvent(queue.StoreUpdated, p.UserID, st.ID, nil))
	return updated, nil
}

// AdminDeleteStore removes a store.  Its ratings, the store row and the
// former owner's demotion to NORMAL_USER commit together.
func (s *StoreService) AdminDeleteStore(ctx context.Context, p *policy.Principal, id string) error {
	if err := policy.Permission(p, policy.OpStoreDelete).Err(); err != nil {
		return err
	}
	st, err := s.Repos.Repos().Stores.GetByID(ctx, id)
	if errors.Is(err, repository.ErrStoreNotFound) {
		return apperr.NotFound("store not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}

	var removed int64
	err = s.Repos.InTx(ctx, func(r *repository.Repos) error {
		n, err := r.Ratings.DeleteByStore(ctx, st.ID)
		if err != nil {
			return err
		}
		removed = n
		if err := r.Stores.Delete(ctx, st.ID); err != nil {
			return err
		}
		return r.Users.UpdateRole(ctx, st.OwnerID, model.RoleNormalUser)
	})
	if errors.Is(err, repository.ErrStoreNotFound) {
		return apperr.NotFound("store not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	s.publish(ctx, queue.NewEvent(queue.StoreDeleted, p.UserID, st.ID, map[string]string{
		"owner_id": st.OwnerID, "ratings_removed": fmt.Sprint(removed),
	}))
	return nil
}

// GetStore returns a store with its ratings and average.  It is public.
func (s *StoreService) GetStore(ctx context.Context, id string) (StoreDetail, error) {
	repos := s.Repos.Repos()
	st, err := repos.Stores.GetByID(ctx, id)
	if errors.Is(err, repository.ErrStoreNotFound) {
		return StoreDetail{}, apperr.NotFound("store not found")
	}
	if err != nil {
		return StoreDetail{}, apperr.Internal(err)
	}
	ratings, err := repos.Ratings.ListByStore(ctx, st.ID)
	if err != nil {
		return StoreDetail{}, apperr.Internal(err)
	}
	// Rater emails stay private on the public view.
	for i := range ratings {
		if ratings[i].User != nil {
			ratings[i].User.Email = ""
		}
	}
	return StoreDetail{
		Store:         st,
		Ratings:       ratings,
		AverageRating: model.AverageRating(model.RatingValues(ratings)),
		TotalRatings:  len(ratings),
	}, nil
}

// OwnerDashboard summarises the caller's store: average, distribution,
// the latest ratings and everyone who rated it.
func (s *StoreService) OwnerDashboard(ctx context.Context, p *policy.Principal) (OwnerDashboard, error) {
	if err := policy.Permission(p, policy.OpOwnerDashboard).Err(); err != nil {
		return OwnerDashboard{}, err
	}
	repos := s.Repos.Repos()
	st, err := repos.Stores.GetByOwner(ctx, p.UserID)
	if errors.Is(err, repository.ErrStoreNotFound) {
		return OwnerDashboard{}, apperr.NotFound("no store found for this user")
	}
	if err != nil {
		return OwnerDashboard{}, apperr.Internal(err)
	}
	ratings, err := repos.Ratings.ListByStore(ctx, st.ID)
	if err != nil {
		return OwnerDashboard{}, apperr.Internal(err)
	}

	dist := make(map[int]int, model.MaxRating)
	for v := model.MinRating; v <= model.MaxRating; v++ {
		dist[v] = 0
	}
	customers := make([]model.UserRef, 0, len(ratings))
	for _, rt := range ratings {
		dist[rt.Value]++
		if rt.User != nil {
			customers = append(customers, *rt.User)
		}
	}
	recent := ratings
	if len(recent) > recentRatingsOnDashboard {
		recent = recent[:recentRatingsOnDashboard]
	}
	st.Owner = nil
	return OwnerDashboard{
		Store: st,
		Statistics: OwnerStatistics{
			AverageRating:      model.AverageRating(model.RatingValues(ratings)),
			TotalRatings:       len(ratings),
			RatingDistribution: dist,
		},
		RecentRatings: recent,
		Customers:     customers,
	}, nil
}
