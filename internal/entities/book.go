package entities

import "time"

type Book struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:512" json:"title"`
	Author      string `gorm:"size:256" json:"author"`
	ISBN        string `gorm:"column:isbn;size:20" json:"isbn,omitempty"`
	TotalCopies int    `json:"total_copies"`

	// AvailableCopies is read from the book_availability view and never written.
	AvailableCopies int `gorm:"->" json:"available_copies"`

	// Version is bumped on every write that depends on availability so that
	// concurrent checkouts of the same book serialize on the row.
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}
