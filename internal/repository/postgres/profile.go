package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
)

type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository backed by Postgres.
func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func notFound(table, id string) error {
	return fmt.Errorf("%s %s: %w", table, id, repository.ErrNotFound)
}

func (r *profileRepository) FindAll(ctx context.Context) ([]entity.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, username, full_name, age, phone, address FROM profiles ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []entity.Profile{}
	for rows.Next() {
		var p entity.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.FullName, &p.Age, &p.Phone, &p.Address); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}

func (r *profileRepository) Update(ctx context.Context, id string, f entity.ProfileUpdate) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE profiles SET username = $1, full_name = $2, age = $3, phone = $4, address = $5 WHERE id = $6",
		f.Username, f.FullName, f.Age, f.Phone, f.Address, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return checkAffected(res, "profile", id)
}

// Delete removes the profile row. Orders cascade through the foreign key.
func (r *profileRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return checkAffected(res, "profile", id)
}
