package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/notify"
)

// DeliverNotificationsCommand drains the notification outbox once, for
// deployments that run with the task queue disabled.
type DeliverNotificationsCommand struct {
	CatalogPath  string
	FeedbackPath string

	out io.Writer
}

func NewDeliverNotificationsCommand() *DeliverNotificationsCommand {
	return &DeliverNotificationsCommand{out: os.Stdout}
}

func (cmd *DeliverNotificationsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("deliver-notifications", flag.ContinueOnError)

	fs.StringVar(&cmd.CatalogPath, "catalog", envOr("CATALOG_DB_PATH", config.DefaultCatalogDatabasePath), "Path to the catalog database")
	fs.StringVar(&cmd.FeedbackPath, "feedback", envOr("FEEDBACK_DB_PATH", config.DefaultFeedbackDatabasePath), "Path to the feedback database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s deliver-notifications [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Copy pending lifecycle notifications into the feedback database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *DeliverNotificationsCommand) Run() error {
	catalog, err := database.NewCatalogDatabase(cmd.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}
	defer catalog.Close()

	feedback, err := database.NewFeedbackDatabase(cmd.FeedbackPath)
	if err != nil {
		return fmt.Errorf("failed to open feedback database: %w", err)
	}
	defer feedback.Close()

	emitter := notify.NewEmitter(catalog.DB, feedback.DB)
	delivered, err := emitter.Flush(context.Background())
	if err != nil {
		return fmt.Errorf("delivered %d notifications before failing: %w", delivered, err)
	}

	pending, err := emitter.Pending(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.out, "[OK] Delivered %d notifications, %d pending\n", delivered, pending)
	return nil
}
