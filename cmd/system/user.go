package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
	"github.com/Alijeyrad/clinic_ledger/pkg/database"
	redispkg "github.com/Alijeyrad/clinic_ledger/pkg/redis"
	"github.com/Alijeyrad/clinic_ledger/pkg/token"
)

func NewUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(newUserCreateCommand())
	return cmd
}

// newUserCreateCommand registers a staff member and prints an access token
// for them. Accounts are keyed by email, so running it again renames the user
// and issues a fresh token.
func newUserCreateCommand() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff user and print an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
			if name == "" || email == "" {
				return fmt.Errorf("--name and --email are required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			tokens, err := token.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Server.TimeoutSeconds)*time.Second)
			defer cancel()

			pool, err := database.NewPoolFromCentral(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer pool.Close()

			u, err := store.NewPostgres(pool).UpsertUser(ctx, domain.User{
				ID:        uuid.New(),
				Name:      name,
				Email:     email,
				CreatedAt: time.Now().UTC(),
			})
			if err != nil {
				return fmt.Errorf("failed to save user: %w", err)
			}

			var sessionID *uuid.UUID
			if cfg.Redis.Addr != "" {
				rdb, err := redispkg.NewRedisFromCentral(ctx, cfg.Redis)
				if err != nil {
					return err
				}
				defer rdb.Close()

				sid := uuid.New()
				ttl := time.Duration(cfg.Authentication.SessionTTLMinutes) * time.Minute
				if err := redispkg.PutSession(ctx, rdb, sid.String(), u.ID.String(), ttl); err != nil {
					return fmt.Errorf("failed to store session: %w", err)
				}
				sessionID = &sid
			} else if cfg.Authentication.RequireSession {
				return fmt.Errorf("authentication.require_session is set but redis is not configured")
			}

			access, err := tokens.IssueAccess(u.ID, sessionID)
			if err != nil {
				return err
			}

			fmt.Printf("user:  %s (%s)\n", u.ID, u.Email)
			fmt.Printf("token: %s\n", access)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")

	return cmd
}
