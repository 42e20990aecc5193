// Package pgstore implements profile.DataStore over PostgreSQL with pgx.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/profile"
	"github.com/MrEthical07/goSession/roles"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DB is the subset of *pgxpool.Pool used by [Store]. pgxmock pools satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const fetchProfileSQL = `
SELECT p.id, p.email, p.username, p.role, p.organization_id, p.created_at, p.updated_at,
       o.id, o.name, o.email, o.user_quota, o.users_created, o.subscription_end
FROM profiles p
LEFT JOIN organizations o ON o.id = p.organization_id
WHERE p.id = $1`

const insertProfileSQL = `
INSERT INTO profiles (id, email, username, role, organization_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`

// Store reads profiles joined with their organization.
type Store struct {
	db DB
}

// New returns a Store backed by db.
func New(db DB) *Store {
	return &Store{db: db}
}

// FetchProfile implements profile.DataStore.
func (s *Store) FetchProfile(ctx context.Context, userID string) (profile.User, error) {
	var (
		u        profile.User
		role     string
		username pgtype.Text
		orgRef   pgtype.Text
		created  pgtype.Timestamptz
		updated  pgtype.Timestamptz

		orgID    pgtype.Text
		orgName  pgtype.Text
		orgEmail pgtype.Text
		quota    pgtype.Int4
		used     pgtype.Int4
		subEnd   pgtype.Timestamptz
	)

	err := s.db.QueryRow(ctx, fetchProfileSQL, userID).Scan(
		&u.ID, &u.Email, &username, &role, &orgRef, &created, &updated,
		&orgID, &orgName, &orgEmail, &quota, &used, &subEnd,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return profile.User{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.User{}, fmt.Errorf("fetch profile %s: %w", userID, err)
	}

	u.Username = username.String
	u.Role = roles.Role(role)
	u.OrganizationID = orgRef.String
	u.CreatedAt = created.Time
	u.UpdatedAt = updated.Time

	if orgID.Valid {
		u.Organization = &profile.Organization{
			ID:              orgID.String,
			Name:            orgName.String,
			Email:           orgEmail.String,
			UserQuota:       int(quota.Int32),
			UsersCreated:    int(used.Int32),
			SubscriptionEnd: subEnd.Time,
		}
	}
	return u, nil
}

// InsertProfile implements profile.DataStore.
func (s *Store) InsertProfile(ctx context.Context, p profile.Profile) (profile.User, error) {
	_, err := s.db.Exec(ctx, insertProfileSQL,
		p.ID, p.Email, p.Username, p.Role.String(), p.OrganizationID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return profile.User{}, fmt.Errorf("insert profile %s: %w", p.ID, err)
	}
	return profile.User{Profile: p}, nil
}
