package entities

import "time"

type NotificationType string

const (
	NotificationBookReturned      NotificationType = "book_returned"
	NotificationReservationClosed NotificationType = "reservation_closed"
	NotificationNewRating         NotificationType = "new_rating"
	NotificationNewContact        NotificationType = "new_contact"
)

// Notification lives in the feedback store. RelatedID points at an activity
// or a rating depending on Type; it is never resolved across stores.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Type      NotificationType `gorm:"size:50" json:"type"`
	Message   string           `gorm:"type:text" json:"message"`
	RelatedID *uint            `json:"related_id,omitempty"`
	IsRead    bool             `gorm:"default:false" json:"is_read"`
	Timestamp time.Time        `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}

func (Notification) TableName() string {
	return "notifications"
}

// OutboxEntry is a pending notification written to the catalog store in the
// same transaction as the lifecycle change that caused it.
type OutboxEntry struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Type        NotificationType `gorm:"size:50" json:"type"`
	Message     string           `gorm:"type:text" json:"message"`
	RelatedID   *uint            `json:"related_id,omitempty"`
	Attempts    int              `json:"attempts"`
	CreatedAt   time.Time        `json:"created_at"`
	DeliveredAt *time.Time       `json:"delivered_at,omitempty"`
}

func (OutboxEntry) TableName() string {
	return "notification_outbox"
}
