package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"quiz-service/internal/auth"
)

// NewHashPasswordCmd prints a bcrypt hash for auth.password_hash or
// ADMIN_PASSWORD_HASH.
func NewHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for the admin password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return errors.New("password must not be empty")
			}
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
