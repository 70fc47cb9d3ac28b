package database

import (
	_ "embed"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
)

//go:embed schema/catalog.sql
var catalogScript string

//go:embed schema/feedback.sql
var feedbackScript string

// ColumnMigration adds a single column to an existing table.
type ColumnMigration struct {
	Table      string
	Column     string
	Definition string
}

// Schema describes everything a store needs: the tables and views that must
// exist, the script that creates them, and additive column migrations for
// databases created by older versions.
type Schema struct {
	Name       string
	Tables     []string
	Views      []string
	Script     string
	Migrations []ColumnMigration
}

var CatalogSchema = Schema{
	Name:   "catalog",
	Tables: []string{"books", "users", "activities", "settings", "notification_outbox", "sessions"},
	Views:  []string{"book_availability"},
	Script: catalogScript,
	Migrations: []ColumnMigration{
		{Table: "books", Column: "isbn", Definition: "TEXT"},
		{Table: "books", Column: "version", Definition: "INTEGER NOT NULL DEFAULT 0"},
		{Table: "users", Column: "role", Definition: "TEXT NOT NULL DEFAULT 'member'"},
		{Table: "users", Column: "password_hash", Definition: "TEXT NOT NULL DEFAULT ''"},
	},
}

var FeedbackSchema = Schema{
	Name:   "feedback",
	Tables: []string{"ratings", "contact_submissions", "notifications"},
	Script: feedbackScript,
	Migrations: []ColumnMigration{
		{Table: "ratings", Column: "email", Definition: "TEXT"},
		{Table: "ratings", Column: "reply", Definition: "TEXT"},
	},
}

// EnsureSchema creates any missing tables and applies the column migrations.
// It is safe to call on every start: a fully migrated database is left as is.
func EnsureSchema(db *gorm.DB, schema Schema) error {
	missing := missingObjects(db, schema)
	if len(missing) > 0 {
		log.Printf("[SCHEMA] %s: creating missing objects %v", schema.Name, missing)
		if err := db.Exec(schema.Script).Error; err != nil {
			return fmt.Errorf("apply %s creation script: %w", schema.Name, err)
		}
	} else {
		log.Printf("[SCHEMA] %s: already initialized", schema.Name)
	}

	for _, m := range schema.Migrations {
		if hasColumn(db, m.Table, m.Column) {
			continue
		}
		if err := AddColumn(db, m); err != nil {
			return err
		}
	}
	return nil
}

// AddColumn runs ALTER TABLE ... ADD COLUMN. A duplicate column is not an
// error: it means another process or an earlier run already added it.
func AddColumn(db *gorm.DB, m ColumnMigration) error {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Definition)
	err := db.Exec(stmt).Error
	if err == nil {
		log.Printf("[SCHEMA] added column %s.%s", m.Table, m.Column)
		return nil
	}
	if isDuplicateColumn(err) {
		log.Printf("[SCHEMA] column %s.%s already exists, skipping", m.Table, m.Column)
		return nil
	}
	return fmt.Errorf("add column %s.%s: %w", m.Table, m.Column, err)
}

func missingObjects(db *gorm.DB, schema Schema) []string {
	var missing []string
	for _, table := range schema.Tables {
		if !db.Migrator().HasTable(table) {
			missing = append(missing, table)
		}
	}
	for _, view := range schema.Views {
		if !hasView(db, view) {
			missing = append(missing, view)
		}
	}
	return missing
}

func hasView(db *gorm.DB, name string) bool {
	var count int64
	err := db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'view' AND name = ?", name).Scan(&count).Error
	return err == nil && count > 0
}

func hasColumn(db *gorm.DB, table, column string) bool {
	columns, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return false
	}
	for _, c := range columns {
		if strings.EqualFold(c.Name(), column) {
			return true
		}
	}
	return false
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
