package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/drop4life/internal/model"
)

// CreateSeeker регистрирует нуждающегося.
func (r *PostgresRepository) CreateSeeker(ctx context.Context, s model.Seeker) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO seekers (name, blood_type_needed, contact_info, location)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		s.Name, string(s.BloodTypeNeeded), s.Contact, s.Location,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("create seeker", err)
	}
	return id, nil
}

// GetSeeker возвращает нуждающегося по идентификатору.
func (r *PostgresRepository) GetSeeker(ctx context.Context, seekerID int64) (*model.Seeker, error) {
	var (
		s         model.Seeker
		bloodType string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, blood_type_needed, contact_info, location FROM seekers WHERE id = $1`,
		seekerID,
	).Scan(&s.ID, &s.Name, &bloodType, &s.Contact, &s.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSeekerNotFound
		}
		return nil, storageErr("get seeker", err)
	}
	s.BloodTypeNeeded = model.BloodType(bloodType)
	return &s, nil
}
