package port

import (
	"context"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity *domain.Activity) error

	// CreateActivities writes all rows or none and returns how many were written.
	CreateActivities(ctx context.Context, activities []domain.Activity) (int, error)
}
