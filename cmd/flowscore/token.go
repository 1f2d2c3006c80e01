package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowfi/flowai/internal/auth"
)

func tokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the assessment history API",
		Long:  `Issue an HS256 bearer token signed with JWT_SECRET granting read access to /api/v1/assessments.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.cfg.HasAuth() {
				return errors.New("JWT_SECRET is not set")
			}

			token, expiresAt, err := auth.NewJWTService(opts.cfg.JWTSecret).GenerateToken(subject, auth.ScopeHistory, ttl)
			if err != nil {
				return err
			}

			if opts.output == formatJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"token":      token,
					"subject":    subject,
					"expires_at": expiresAt.UTC(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "who the token is issued to")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
