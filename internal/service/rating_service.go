package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/policy"
	"github.com/iliyamo/store-rating/internal/queue"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/validation"
)

const msgAlreadyRated = "you have already rated this store, use update instead"

type RatingInput struct {
	StoreID string `json:"storeId" validate:"required"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
}

type RatingUpdateInput struct {
	Rating int `json:"rating" validate:"min=1,max=5"`
}

// StoreRatings is the owner's list of ratings for their store.
type StoreRatings struct {
	Store         model.StoreRef `json:"store"`
	Ratings       []model.Rating `json:"ratings"`
	AverageRating float64        `json:"averageRating"`
	TotalRatings  int            `json:"totalRatings"`
}

type RatingService struct{ Deps }

func NewRatingService(d Deps) *RatingService { return &RatingService{Deps: d} }

// Submit records the caller's first rating of a store.  Two concurrent
// submissions for the same store race on the unique (user, store) index;
// the loser gets a conflict.
func (s *RatingService) Submit(ctx context.Context, p *policy.Principal, in RatingInput) (model.Rating, error) {
	if err := policy.Permission(p, policy.OpRatingSubmit).Err(); err != nil {
		return model.Rating{}, err
	}
	if err := validation.Struct(in); err != nil {
		return model.Rating{}, err
	}
	repos := s.Repos.Repos()
	st, err := repos.Stores.GetByID(ctx, in.StoreID)
	if errors.Is(err, repository.ErrStoreNotFound) {
		return model.Rating{}, apperr.NotFound("store not found")
	}
	if err != nil {
		return model.Rating{}, apperr.Internal(err)
	}
	if _, err := repos.Ratings.GetByUserAndStore(ctx, p.UserID, st.ID); err == nil {
		return model.Rating{}, apperr.Conflict(msgAlreadyRated)
	} else if !errors.Is(err, repository.ErrRatingNotFound) {
		return model.Rating{}, apperr.Internal(err)
	}

	rt := model.Rating{
		ID:        uuid.NewString(),
		Value:     in.Rating,
		UserID:    p.UserID,
		StoreID:   st.ID,
		CreatedAt: s.now(),
	}
	if err := repos.Ratings.Create(ctx, &rt); err != nil {
		if errors.Is(err, repository.ErrAlreadyRated) {
			return model.Rating{}, apperr.Conflict(msgAlreadyRated)
		}
		return model.Rating{}, apperr.Internal(err)
	}
	rt.Store = &model.StoreRef{ID: st.ID, Name: st.Name, Address: st.Address}
	s.publish(ctx, queue.NewEvent(queue.RatingSubmitted, p.UserID, rt.ID, map[string]string{
		"store_id": st.ID, "rating": strconv.Itoa(rt.Value),
	}))
	return rt, nil
}

// Update changes the score of one of the caller's ratings.
func (s *RatingService) Update(ctx context.Context, p *policy.Principal, ratingID string, in RatingUpdateInput) (model.Rating, error) {
	if err := policy.Permission(p, policy.OpRatingUpdate).Err(); err != nil {
		return model.Rating{}, err
	}
	if err := validation.Struct(in); err != nil {
		return model.Rating{}, err
	}
	repos := s.Repos.Repos()
	rt, err := repos.Ratings.GetByID(ctx, ratingID)
	if errors.Is(err, repository.ErrRatingNotFound) {
		return model.Rating{}, apperr.NotFound("rating not found")
	}
	if err != nil {
		return model.Rating{}, apperr.Internal(err)
	}
	if err := policy.CanUpdateRating(p, rt.UserID).Err(); err != nil {
		return model.Rating{}, err
	}
	if err := repos.Ratings.UpdateValue(ctx, rt.ID, in.Rating); err != nil {
		return model.Rating{}, apperr.Internal(err)
	}
	updated, err := repos.Ratings.GetByUserAndStore(ctx, rt.UserID, rt.StoreID)
	if err != nil {
		return model.Rating{}, apperr.Internal(err)
	}
	s.publish(ctx, queue.NewEvent(queue.RatingUpdated, p.UserID, rt.ID, map[string]string{
		"store_id": rt.StoreID, "rating": strconv.Itoa(in.Rating), "previous": strconv.Itoa(rt.Value),
	}))
	return updated, nil
}

// ListOwn returns the caller's ratings, newest first.
func (s *RatingService) ListOwn(ctx context.Context, p *policy.Principal) ([]model.Rating, error) {
	if err := policy.Permission(p, policy.OpRatingListOwn).Err(); err != nil {
		return nil, err
	}
	out, err := s.Repos.Repos().Ratings.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// StoreRatings returns every rating of the caller's store with the average.
func (s *RatingService) StoreRatings(ctx context.Context, p *policy.Principal) (StoreRatings, error) {
	if err := policy.Permission(p, policy.OpRatingListStore).Err(); err != nil {
		return StoreRatings{}, err
	}
	repos := s.Repos.Repos()
	st, err := repos.Stores.GetByOwner(ctx, p.UserID)
	if errors.Is(err, repository.ErrStoreNotFound) {
		return StoreRatings{}, apperr.NotFound("no store found for this user")
	}
	if err != nil {
		return StoreRatings{}, apperr.Internal(err)
	}
	ratings, err := repos.Ratings.ListByStore(ctx, st.ID)
	if err != nil {
		return StoreRatings{}, apperr.Internal(err)
	}
	return StoreRatings{
		Store:         model.StoreRef{ID: st.ID, Name: st.Name, Address: st.Address},
		Ratings:       ratings,
		AverageRating: model.AverageRating(model.RatingValues(ratings)),
		TotalRatings:  len(ratings),
	}, nil
}

// UserStoreRating returns the caller's rating of storeID, or nil without
// an error when there is none.
func (s *RatingService) UserStoreRating(ctx context.Context, p *policy.Principal, storeID string) (*model.Rating, error) {
	if err := policy.Permission(p, policy.OpRatingLookup).Err(); err != nil {
		return nil, err
	}
	rt, err := s.Repos.Repos().Ratings.GetByUserAndStore(ctx, p.UserID, storeID)
	if errors.Is(err, repository.ErrRatingNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &rt, nil
}
