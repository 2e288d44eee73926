package profilestore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/respiguard/backend/internal/domain/airquality"
	"github.com/respiguard/backend/internal/domain/profile"
)

// PostgresStore persists profiles in Postgres.
//
// Expected schema:
//
//	CREATE TABLE profiles (
//	    user_id         TEXT PRIMARY KEY,
//	    name            TEXT NOT NULL DEFAULT '',
//	    age             TEXT NOT NULL DEFAULT '',
//	    condition       TEXT NOT NULL DEFAULT '',
//	    medications     TEXT NOT NULL DEFAULT '',
//	    emergency_phone TEXT NOT NULL DEFAULT ''
//	);
//
//	CREATE TABLE latest_aqi (
//	    user_id    TEXT PRIMARY KEY,
//	    pm25       DOUBLE PRECISION NOT NULL,
//	    aqi_value  INT NOT NULL,
//	    category   TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// GetProfile loads the stored profile; a missing row maps to the fallback.
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, name, age, condition, medications, emergency_phone
		FROM profiles
		WHERE user_id = $1
		LIMIT 1
	`, userID)
	var p profile.Profile
	if err := row.Scan(&p.UserID, &p.Name, &p.Age, &p.Condition, &p.Medications, &p.EmergencyPhone); err != nil {
		if err == pgx.ErrNoRows {
			return profile.FallbackProfile(userID), nil
		}
		return profile.Profile{}, err
	}
	return p, nil
}

// SaveLatestAQI upserts the most recent computed index for the user.
func (s *PostgresStore) SaveLatestAQI(ctx context.Context, userID string, idx airquality.Index, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO latest_aqi (user_id, pm25, aqi_value, category, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET pm25 = EXCLUDED.pm25, aqi_value = EXCLUDED.aqi_value,
		    category = EXCLUDED.category, updated_at = EXCLUDED.updated_at
	`, userID, idx.PM25, idx.Value, string(idx.Category), at)
	return err
}

// LatestAQI returns the stored snapshot, ok=false when none exists.
func (s *PostgresStore) LatestAQI(ctx context.Context, userID string) (airquality.Index, time.Time, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT pm25, aqi_value, category, updated_at
		FROM latest_aqi
		WHERE user_id = $1
		LIMIT 1
	`, userID)
	var (
		idx      airquality.Index
		category string
		at       time.Time
	)
	if err := row.Scan(&idx.PM25, &idx.Value, &category, &at); err != nil {
		if err == pgx.ErrNoRows {
			return airquality.Index{}, time.Time{}, false, nil
		}
		return airquality.Index{}, time.Time{}, false, err
	}
	idx.Category = airquality.Category(category)
	return idx, at, true, nil
}

var _ profile.Store = (*PostgresStore)(nil)
