package config

// Default paths for databases
const (
	// DefaultCatalogDatabasePath holds books, users, activities and settings
	DefaultCatalogDatabasePath = "./library.db"

	// DefaultFeedbackDatabasePath holds ratings, contact messages and notifications
	DefaultFeedbackDatabasePath = "./submissions.db"
)

const DefaultLibraryName = "Library Management System"
