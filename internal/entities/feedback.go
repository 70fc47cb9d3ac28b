package entities

import "time"

type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Stars     int       `json:"stars"`
	Message   *string   `gorm:"type:text" json:"message"`
	User      string    `gorm:"column:user;size:255" json:"user"`
	Email     *string   `gorm:"size:255" json:"email"`
	Reply     *string   `gorm:"type:text" json:"reply"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}

func (Rating) TableName() string {
	return "ratings"
}

type ContactSubmission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	Message   string    `gorm:"type:text" json:"message"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}

func (ContactSubmission) TableName() string {
	return "contact_submissions"
}
