package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
)

// MigrateCommand creates or upgrades the catalog and feedback databases
// without starting the server.
type MigrateCommand struct {
	CatalogPath  string
	FeedbackPath string

	out io.Writer
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{out: os.Stdout}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)

	fs.StringVar(&cmd.CatalogPath, "catalog", envOr("CATALOG_DB_PATH", config.DefaultCatalogDatabasePath), "Path to the catalog database")
	fs.StringVar(&cmd.FeedbackPath, "feedback", envOr("FEEDBACK_DB_PATH", config.DefaultFeedbackDatabasePath), "Path to the feedback database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create missing tables and columns in both databases. Safe to run repeatedly.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *MigrateCommand) Run() error {
	stores := []struct {
		name string
		path string
		open func(string) (*database.Database, error)
	}{
		{"catalog", cmd.CatalogPath, database.NewCatalogDatabase},
		{"feedback", cmd.FeedbackPath, database.NewFeedbackDatabase},
	}

	for _, store := range stores {
		absPath, err := filepath.Abs(store.path)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s database: %w", store.name, err)
		}

		db, err := store.open(absPath)
		if err != nil {
			return fmt.Errorf("failed to migrate %s database: %w", store.name, err)
		}
		if err := db.Close(); err != nil {
			return fmt.Errorf("failed to close %s database: %w", store.name, err)
		}
		fmt.Fprintf(cmd.out, "[OK] %s database up to date: %s\n", store.name, absPath)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
