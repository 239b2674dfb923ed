package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/policy"
	"github.com/iliyamo/store-rating/internal/queue"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/validation"
)

const recentUsersOnDashboard = 5

type Statistics struct {
	TotalUsers   int                `json:"totalUsers"`
	TotalStores  int                `json:"totalStores"`
	TotalRatings int                `json:"totalRatings"`
	UsersByRole  map[model.Role]int `json:"usersByRole"`
}

// Dashboard is the admin overview.  Its counts come from independent
// queries and need not reflect a single snapshot.
type Dashboard struct {
	Statistics  Statistics   `json:"statistics"`
	RecentUsers []model.User `json:"recentUsers"`
}

type RoleInput struct {
	Role string `json:"role" validate:"required,role"`
}

type AdminService struct{ Deps }

func NewAdminService(d Deps) *AdminService { return &AdminService{Deps: d} }

// Dashboard collects the platform counts concurrently.
func (s *AdminService) Dashboard(ctx context.Context, p *policy.Principal) (Dashboard, error) {
	if err := policy.Permission(p, policy.OpAdminDashboard).Err(); err != nil {
		return Dashboard{}, err
	}
	repos := s.Repos.Repos()
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Statistics.TotalUsers, err = repos.Users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Statistics.TotalStores, err = repos.Stores.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Statistics.TotalRatings, err = repos.Ratings.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Statistics.UsersByRole, err = repos.Users.CountByRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentUsers, err = repos.Users.Recent(gctx, recentUsersOnDashboard)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, apperr.Internal(err)
	}
	return d, nil
}

// UpdateUserRole sets a user's role directly.
func (s *AdminService) UpdateUserRole(ctx context.Context, p *policy.Principal, userID string, in RoleInput) (model.User, error) {
	if err := policy.Permission(p, policy.OpUserRoleUpdate).Err(); err != nil {
		return model.User{}, err
	}
	if err := validation.Struct(in); err != nil {
		return model.User{}, err
	}
	role := model.Role(in.Role)
	repos := s.Repos.Repos()
	u, err := repos.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return model.User{}, apperr.Internal(err)
	}
	if err := repos.Users.UpdateRole(ctx, u.ID, role); err != nil {
		return model.User{}, apperr.Internal(err)
	}
	previous := u.Role
	u.Role = role
	s.publish(ctx, queue.NewEvent(queue.UserRoleChanged, p.UserID, u.ID, map[string]string{
		"role": string(role), "previous": string(previous),
	}))
	return u, nil
}

// DeleteUser removes a user together with their ratings, their store and
// the ratings on that store, in one transaction.  Admins cannot delete
// themselves.
func (s *AdminService) DeleteUser(ctx context.Context, p *policy.Principal, userID string) error {
	if err := policy.CanDeleteUser(p, userID).Err(); err != nil {
		return err
	}
	if _, err := s.Repos.Repos().Users.GetByID(ctx, userID); errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("user not found")
	} else if err != nil {
		return apperr.Internal(err)
	}

	var ratings int64
	var storeID string
	err := s.Repos.InTx(ctx, func(r *repository.Repos) error {
		n, err := r.Ratings.DeleteByUser(ctx, userID)
		if err != nil {
			return err
		}
		ratings = n
		st, err := r.Stores.GetByOwner(ctx, userID)
		switch {
		case err == nil:
			storeID = st.ID
			if _, err := r.Ratings.DeleteByStore(ctx, st.ID); err != nil {
				return err
			}
			if err := r.Stores.Delete(ctx, st.ID); err != nil {
				return err
			}
		case !errors.Is(err, repository.ErrStoreNotFound):
			return err
		}
		return r.Users.Delete(ctx, userID)
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	attrs := map[string]string{"ratings_removed": fmt.Sprint(ratings)}
	if storeID != "" {
		attrs["store_id"] = storeID
	}
	s.publish(ctx, queue.NewEvent(queue.UserDeleted, p.UserID, userID, attrs))
	return nil
}
