package system

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	pasetotoken "github.com/Alijeyrad/simorq_scheduler/pkg/paseto"
	redispkg "github.com/Alijeyrad/simorq_scheduler/pkg/redis"
)

func NewTokenCommand() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a schedule owner",
		Long: `Issue a PASETO access token for the given user id.

When Redis is configured a session is recorded for the token, so it can be
revoked later with "system revoke --session <id>".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			owner := uuid.New()
			if userID != "" {
				owner, err = uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}

			mgr, err := pasetotoken.NewPasetoManager(cfg)
			if err != nil {
				return fmt.Errorf("failed to create token manager: %w", err)
			}

			var sessionID *uuid.UUID
			if cfg.Redis.Addr != "" {
				rdb, err := redispkg.Connect(cmd.Context(), cfg.Redis)
				if err != nil {
					return fmt.Errorf("failed to connect to redis: %w", err)
				}
				defer rdb.Close()

				sid := uuid.New()
				ttl := time.Duration(cfg.Authentication.SessionTTLMinutes) * time.Minute
				if err := redispkg.NewSessions(rdb, ttl).Create(context.Background(), sid, owner); err != nil {
					return err
				}
				sessionID = &sid
			}

			tok, err := mgr.IssueAccess(owner, sessionID)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "user:    %s\n", owner)
			if sessionID != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", sessionID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expires: %s\n", time.Now().Add(mgr.AccessTTL()).Format(time.RFC3339))
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id (random when empty)")

	return cmd
}
