package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"

	"github.com/spf13/cobra"

	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/store"
)

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage author accounts",
	}
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	return cmd
}

type userCreateOptions struct {
	email    string
	password string
	name     string
	role     string
}

// userCreator is the part of *store.UserStore used by user create.
type userCreator interface {
	Create(ctx context.Context, email, password, displayName string, role models.Role) (*models.User, error)
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &userCreateOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an author account",
		Example: `  inkwell user create --email jane@example.com --password 's3cret' --name Jane
  inkwell user create --email root@example.com --password 's3cret' --role admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}

			cfg, err := loadConfig(rootOpts, os.Stderr)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			db, err := database.Connect(cfg.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			return runUserCreate(cmd.Context(), store.NewUserStore(db), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&opts.password, "password", "", "login password (required)")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name (defaults to the email)")
	cmd.Flags().StringVar(&opts.role, "role", string(models.RoleAuthor), "author or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func (o *userCreateOptions) validate() error {
	if _, err := mail.ParseAddress(o.email); err != nil {
		return fmt.Errorf("invalid email %q", o.email)
	}
	if o.password == "" {
		return errors.New("password is required")
	}
	if len(o.password) > 72 {
		return errors.New("password is too long (max 72 bytes)")
	}
	switch models.Role(o.role) {
	case models.RoleAuthor, models.RoleAdmin:
	default:
		return fmt.Errorf("invalid role %q: must be author or admin", o.role)
	}
	return nil
}

func runUserCreate(ctx context.Context, users userCreator, opts *userCreateOptions, out io.Writer) error {
	name := opts.name
	if name == "" {
		name = opts.email
	}

	u, err := users.Create(ctx, opts.email, opts.password, name, models.Role(opts.role))
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("a user with email %s already exists", opts.email)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created %s %s (%s)\n", u.Role, u.Email, u.ID)
	return nil
}
