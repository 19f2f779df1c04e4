package domain

import "time"

type ActivityAction string

const (
	ActivityView     ActivityAction = "view"
	ActivityCart     ActivityAction = "cart"
	ActivityPurchase ActivityAction = "purchase"
)

func (a ActivityAction) Valid() bool {
	switch a {
	case ActivityView, ActivityCart, ActivityPurchase:
		return true
	}
	return false
}

type Activity struct {
	ID           int64
	CustomerID   int64
	BookID       int64
	Action       ActivityAction
	ActivityTime time.Time
	SessionID    string
}
