package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rl1809/bookstore/internal/core/domain"
)

func (m *MySQLAdapter) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO UserActivity (CustomerID, BookID, Action, ActivityTime, SessionID)
		VALUES (?, ?, ?, ?, ?)`,
		activity.CustomerID, activity.BookID, activity.Action, activity.ActivityTime, nullString(activity.SessionID),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	if activity.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("activity id: %w", err)
	}
	return nil
}

// CreateActivities inserts all rows with a single multi-row statement.
func (m *MySQLAdapter) CreateActivities(ctx context.Context, activities []domain.Activity) (int, error) {
	if len(activities) == 0 {
		return 0, nil
	}

	values := make([]string, len(activities))
	args := make([]any, 0, len(activities)*5)
	for i, a := range activities {
		values[i] = "(?, ?, ?, ?, ?)"
		args = append(args, a.CustomerID, a.BookID, a.Action, a.ActivityTime, nullString(a.SessionID))
	}

	result, err := m.db.ExecContext(ctx, `
		INSERT INTO UserActivity (CustomerID, BookID, Action, ActivityTime, SessionID)
		VALUES `+strings.Join(values, ", "), args...)
	if err != nil {
		return 0, fmt.Errorf("insert activities: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("activities affected: %w", err)
	}
	return int(rows), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
