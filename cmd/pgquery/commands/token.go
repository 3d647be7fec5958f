package commands

import (
	"fmt"
	"time"

	"github.com/biyonik/pgquery/internal/config"
	"github.com/biyonik/pgquery/pkg/auth"
	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command.
func NewTokenCommand() *cobra.Command {
	var role, subject string
	var expires time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a gateway token for a role",
		Long: `Sign an HS256 token with JWT_SECRET. Use --expires 0 for a non-expiring key
(like the anon or service_role keys of a Supabase project).

Example:
  pgquery token --role service_role --subject backend --expires 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := auth.GenerateToken(role, subject, &auth.JWTConfig{
				Secret:         cfg.JWT.Secret,
				Issuer:         cfg.App.Name,
				ExpirationTime: expires,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", auth.RoleAnon, "Token role: anon, authenticated or service_role")
	cmd.Flags().StringVar(&subject, "subject", "", "Token subject (sub claim)")
	cmd.Flags().DurationVar(&expires, "expires", time.Hour, "Token lifetime, 0 for no expiry")

	return cmd
}
