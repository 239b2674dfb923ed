// Package service holds the domain logic: identity, store ownership,
// ratings, the directory queries and the admin reports.  Every mutating
// method receives the caller's principal and consults the policy package
// before touching storage; errors leave this package as *apperr.Error.
package service

import (
	"context"
	"math"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/store-rating/internal/apperr"
	"github.com/iliyamo/store-rating/internal/queue"
	"github.com/iliyamo/store-rating/internal/repository"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Repos  *repository.Manager
	Events queue.Publisher
	Logger *log.Logger
	// Now defaults to time.Now.  Tests pin it for deterministic ordering.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// publish sends ev after the mutation has committed.  A broker failure is
// logged and never fails the request.
func (d Deps) publish(ctx context.Context, ev queue.Event) {
	if d.Events == nil {
		return
	}
	if err := d.Events.Publish(ctx, ev); err != nil && d.Logger != nil {
		d.Logger.Warnf("events: %s for %s dropped: %v", ev.Type, ev.SubjectID, err)
	}
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination describes one page of a listing.  Total and TotalPages count
// the whole matching set, not just the returned rows.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPagination(page, limit, total int) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// window applies defaults to page and limit, checks their bounds and
// returns the matching LIMIT/OFFSET.
func window(page, limit int) (int, int, repository.Page, error) {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	fields := map[string]string{}
	if page < 1 {
		fields["page"] = "must be at least 1"
	}
	if limit < 1 || limit > MaxLimit {
		fields["limit"] = "must be between 1 and 100"
	}
	if len(fields) > 0 {
		return 0, 0, repository.Page{}, apperr.Validation("validation failed", fields)
	}
	return page, limit, repository.Page{Limit: limit, Offset: (page - 1) * limit}, nil
}
