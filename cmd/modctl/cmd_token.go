package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivankudzin/miraclemap/internal/config"
	redrepo "github.com/ivankudzin/miraclemap/internal/repo/redis"
	authsvc "github.com/ivankudzin/miraclemap/internal/services/auth"
)

type issuedToken struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	SID       string    `json:"sid"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and revoke bearer tokens",
	}

	var subject, role string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Mint a bearer token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			service := authsvc.NewService(authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL), nil)
			token, claims, err := service.IssueToken(subject, role)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), issuedToken{
				Token:     token,
				Subject:   claims.Subject,
				Role:      claims.Role,
				SID:       claims.SID,
				ExpiresAt: claims.ExpiresAt,
			})
		},
	}
	issue.Flags().StringVar(&subject, "subject", "", "token subject, e.g. the moderator id")
	issue.Flags().StringVar(&role, "role", authsvc.RoleModerator, "OWNER, MODERATOR or USER")
	_ = issue.MarkFlagRequired("subject")

	var ttl time.Duration
	revoke := &cobra.Command{
		Use:   "revoke <sid>",
		Short: "Revoke a token by its sid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.JWTAccessTTL
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			client := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			defer client.Close()
			if err := redrepo.Ping(ctx, client); err != nil {
				return err
			}

			service := authsvc.NewService(nil, redrepo.NewSessionRepo(client))
			if err := service.Revoke(ctx, args[0], time.Now().Add(ttl)); err != nil {
				return fmt.Errorf("revoke %s: %w", args[0], err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
			return err
		},
	}
	revoke.Flags().DurationVar(&ttl, "ttl", 0, "how long to keep the revocation (defaults to the access token ttl)")

	cmd.AddCommand(issue, revoke)
	return cmd
}
