package entities

import "time"

type ActivityKind string

const (
	ActivityKindCheckout    ActivityKind = "checkout"
	ActivityKindReturn      ActivityKind = "return"
	ActivityKindReservation ActivityKind = "reservation"
)

func (k ActivityKind) IsValid() bool {
	switch k {
	case ActivityKindCheckout, ActivityKindReturn, ActivityKindReservation:
		return true
	}
	return false
}

type ActivityStatus string

const (
	ActivityStatusOpen   ActivityStatus = "open"
	ActivityStatusClosed ActivityStatus = "closed"
)

func (s ActivityStatus) IsValid() bool {
	return s == ActivityStatusOpen || s == ActivityStatusClosed
}

// Activity records a checkout, return or reservation of a book by a user.
// Only open checkouts consume a copy.
type Activity struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	BookID    uint           `gorm:"index" json:"book_id"`
	UserID    uint           `gorm:"index" json:"user_id"`
	Kind      ActivityKind   `gorm:"size:20" json:"kind"`
	Status    ActivityStatus `gorm:"size:20;default:'open'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	ClosedAt  *time.Time     `json:"closed_at,omitempty"`
}

func (Activity) TableName() string {
	return "activities"
}

func (a *Activity) IsOpen() bool {
	return a.Status == ActivityStatusOpen
}
