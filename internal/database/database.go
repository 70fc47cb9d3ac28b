package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// connectionParams make every transaction start with BEGIN IMMEDIATE so the
// write lock is taken up front, and let concurrent writers wait instead of
// failing with SQLITE_BUSY.
const connectionParams = "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL"

type Database struct {
	DB   *gorm.DB
	Path string
}

// Open connects to the SQLite file at dbPath without touching its schema.
func Open(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Database{DB: db, Path: dbPath}, nil
}

// NewCatalogDatabase opens the catalog store (books, users, activities,
// settings) and brings its schema up to date.
func NewCatalogDatabase(dbPath string) (*Database, error) {
	return openWithSchema(dbPath, CatalogSchema)
}

// NewFeedbackDatabase opens the feedback store (ratings, contact
// submissions, notifications) and brings its schema up to date.
func NewFeedbackDatabase(dbPath string) (*Database, error) {
	return openWithSchema(dbPath, FeedbackSchema)
}

func openWithSchema(dbPath string, schema Schema) (*Database, error) {
	database, err := Open(dbPath, logger.Warn)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(database.DB, schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate %s database: %w", schema.Name, err)
	}

	log.Printf("%s database initialized successfully at %s", schema.Name, dbPath)
	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + connectionParams
	}
	return dbPath + "?" + connectionParams
}
