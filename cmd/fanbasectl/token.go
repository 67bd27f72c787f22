package main

import (
	"fmt"
	"strings"
	"time"

	"fanbase-service/internal/pkg/jwt"

	"github.com/spf13/cobra"
)

func newIssueTokenCmd(rt *runtime) *cobra.Command {
	var (
		roles []string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue-token <identity-id>",
		Short: "Sign an access token for local testing and operator access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, role := range roles {
				switch role {
				case jwt.RoleUser, jwt.RoleArtist, jwt.RoleAdmin:
				default:
					return fmt.Errorf("unknown role %q (want %s)", role,
						strings.Join([]string{jwt.RoleUser, jwt.RoleArtist, jwt.RoleAdmin}, ", "))
				}
			}

			manager, err := jwt.LoadAndBuild(rt.cfg.JWT)
			if err != nil {
				return err
			}

			token, jti, err := manager.Generator.Generate(args[0], roles, jwt.PurposeAccess, ttl)
			if err != nil {
				return err
			}
			if _, err := manager.Verifier.VerifyAccessToken(token); err != nil {
				return fmt.Errorf("issued token does not verify with the configured public key: %w", err)
			}

			rt.logger.Info("issued token")
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", token)
			fmt.Fprintf(cmd.ErrOrStderr(), "jti=%s\n", jti)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&roles, "role", []string{jwt.RoleUser}, "roles to embed (user, artist, admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_TTL)")
	return cmd
}
