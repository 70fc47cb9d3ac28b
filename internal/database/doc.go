// Package database provides the data access layer for the application.
//
// # Stores
//
// The application keeps two independent SQLite files:
//
//   - the catalog store: books, users, activities, settings, the
//     notification outbox and HTTP sessions
//   - the feedback store: ratings, contact submissions and notifications
//
// There are no foreign keys between the stores. A notification that refers
// to an activity or a rating only carries the id.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup (Open, NewCatalogDatabase, NewFeedbackDatabase)
//	├── schema.go        # Creation scripts and additive column migrations
//	├── errors.go        # ErrNotFound and StorageError
//	├── books/           # Book CRUD with derived availability
//	├── users/           # User management
//	├── activities/      # Activity history queries
//	├── settings/        # Application settings
//	├── outbox/          # Pending lifecycle notifications (catalog store)
//	├── notifications/   # Notifications (feedback store)
//	├── ratings/         # Ratings and replies (feedback store)
//	└── contacts/        # Contact submissions (feedback store)
//
// # Availability
//
// A book's available copies are never stored. The catalog schema defines the
// book_availability view (total_copies minus open checkouts) and repositories
// join it when reading books.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add the table to schema/<store>.sql and to the Schema's Tables list
//  5. Add compile-time interface checks in internal/interfaces
package database
