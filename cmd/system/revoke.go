package system

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	redispkg "github.com/Alijeyrad/simorq_scheduler/pkg/redis"
)

func NewRevokeCommand() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke the session behind an issued access token",
		Long: `Delete the Redis session key recorded by "system token". Tokens bound to the
session are rejected from then on when authentication.require_session is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := uuid.Parse(sessionID)
			if err != nil {
				return fmt.Errorf("invalid --session: %w", err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return errors.New("redis.addr is not configured; there are no sessions to revoke")
			}

			rdb, err := redispkg.Connect(cmd.Context(), cfg.Redis)
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer rdb.Close()

			revoked, err := redispkg.NewSessions(rdb, 0).Revoke(context.Background(), sid)
			if err != nil {
				return err
			}
			if !revoked {
				fmt.Fprintf(cmd.OutOrStdout(), "session %s was not active\n", sid)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s revoked\n", sid)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id printed by the token command")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
