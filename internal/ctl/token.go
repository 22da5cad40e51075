package ctl

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kidsgram/internal/server/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <owner-id>",
		Short: "Issue an access token for an owner",
		Long: `Issue an HS256 access token signed with the server secret key.
Useful for local runs and smoke tests without an identity provider.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if secret == "" {
				secret = cfg.SecretKey
			}
			if secret == "" {
				return errors.New("no secret key: pass --secret or set KIDSGRAM_SECRET_KEY")
			}
			if ttl <= 0 {
				ttl = cfg.AccessTokenValidityDuration
			}

			tok, err := auth.GenerateToken(args[0], []byte(secret), ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "signing key (defaults to the server secret key)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to the server access token validity)")

	return cmd
}
