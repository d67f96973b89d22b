package store

import (
	"context"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

// UpsertUser creates the user or renames the existing one with the same email.
func (s *Postgres) UpsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	var out domain.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, created_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name, email, created_at`,
		u.ID, u.Name, u.Email, u.CreatedAt,
	).Scan(&out.ID, &out.Name, &out.Email, &out.CreatedAt)
	if err != nil {
		return domain.User{}, mapErr("upsert user", err)
	}
	return out, nil
}
