package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/entities"
)

// CreateAdminCommand creates an administrator account, or resets the
// password of an existing one with -reset.
type CreateAdminCommand struct {
	CatalogPath string
	Username    string
	Email       string
	Password    string
	Reset       bool

	out io.Writer
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{out: os.Stdout}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)

	fs.StringVar(&cmd.CatalogPath, "catalog", envOr("CATALOG_DB_PATH", config.DefaultCatalogDatabasePath), "Path to the catalog database")
	fs.StringVar(&cmd.Username, "username", "", "Administrator username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Administrator email (required unless -reset)")
	fs.StringVar(&cmd.Password, "password", os.Getenv("ADMIN_PASSWORD"), "Password, at least 10 characters (default: $ADMIN_PASSWORD)")
	fs.BoolVar(&cmd.Reset, "reset", false, "Reset the password of an existing user instead of creating one")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -username <name> -email <email> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account for AUTH_MODE=local.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ADMIN_PASSWORD=... %s create-admin -username admin -email admin@example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s create-admin -username admin -password new-password -reset\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Email == "" && !cmd.Reset {
		return fmt.Errorf("required flag -email not provided")
	}
	if cmd.Password == "" {
		return fmt.Errorf("password is required: use -password or ADMIN_PASSWORD")
	}
	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	db, err := database.NewCatalogDatabase(cmd.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	cfg := config.NewConfig().Auth
	repo := users.NewRepository(db.DB)
	service := auth.NewService(repo, cfg)

	if cmd.Reset {
		user, err := repo.GetUserByUsername(ctx, cmd.Username)
		if err != nil {
			return fmt.Errorf("failed to find user %q: %w", cmd.Username, err)
		}
		if err := service.SetPassword(ctx, user.ID, cmd.Password); err != nil {
			return fmt.Errorf("failed to reset password: %w", err)
		}
		fmt.Fprintf(cmd.out, "[OK] Password reset for %s\n", user.Username)
		return nil
	}

	user, err := service.CreateUser(ctx, cmd.Username, cmd.Email, cmd.Password, entities.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}
	fmt.Fprintf(cmd.out, "[OK] Created administrator %s (id %d)\n", user.Username, user.ID)
	return nil
}
