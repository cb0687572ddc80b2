package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/drop4life/internal/model"
)

const donorColumns = `id, name, age, COALESCE(blood_type, ''), contact_info, location`

// CreateDonor регистрирует донора. Пустая группа крови сохраняется как NULL.
func (r *PostgresRepository) CreateDonor(ctx context.Context, d model.Donor) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO donors (name, age, blood_type, contact_info, location)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		 RETURNING id`,
		d.Name, d.Age, string(d.BloodType), d.Contact, d.Location,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("create donor", err)
	}
	return id, nil
}

// GetDonor возвращает донора по идентификатору.
func (r *PostgresRepository) GetDonor(ctx context.Context, donorID int64) (*model.Donor, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+donorColumns+` FROM donors WHERE id = $1`,
		donorID,
	)

	d, err := scanDonor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDonorNotFound
		}
		return nil, storageErr("get donor", err)
	}
	return d, nil
}

// UpdateDonor сохраняет изменённый профиль донора.
func (r *PostgresRepository) UpdateDonor(ctx context.Context, d model.Donor) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE donors
		 SET name = $1, age = $2, blood_type = NULLIF($3, ''), contact_info = $4, location = $5
		 WHERE id = $6`,
		d.Name, d.Age, string(d.BloodType), d.Contact, d.Location, d.ID,
	)
	if err != nil {
		return storageErr("update donor", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrDonorNotFound
	}
	return nil
}

// ListDonors возвращает всех доноров, упорядоченных по имени.
func (r *PostgresRepository) ListDonors(ctx context.Context) ([]model.Donor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+donorColumns+` FROM donors ORDER BY name, id`,
	)
	if err != nil {
		return nil, storageErr("select donors", err)
	}
	defer rows.Close()

	var res []model.Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, storageErr("scan donor", err)
		}
		res = append(res, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("rows error", err)
	}

	return res, nil
}

// GetDonorIDByName возвращает идентификатор донора с точно совпадающим именем.
// Из одноимённых доноров выбирается зарегистрированный первым.
func (r *PostgresRepository) GetDonorIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM donors WHERE name = $1 ORDER BY id LIMIT 1`,
		name,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrDonorNotFound
		}
		return 0, storageErr("get donor by name", err)
	}
	return id, nil
}

// GetLastDonationAt возвращает время последней донации или nil, если донор ещё не сдавал кровь.
func (r *PostgresRepository) GetLastDonationAt(ctx context.Context, donorID int64) (*time.Time, error) {
	last, err := lastDonationAt(ctx, r.pool, donorID)
	if err != nil {
		return nil, storageErr("get last donation", err)
	}
	return last, nil
}

func lastDonationAt(ctx context.Context, q querier, donorID int64) (*time.Time, error) {
	var last *time.Time
	err := q.QueryRow(ctx,
		`SELECT MAX(donation_date) FROM donation_history WHERE donor_id = $1`,
		donorID,
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}

// ListDonationHistory возвращает историю донаций донора, начиная с последней.
func (r *PostgresRepository) ListDonationHistory(ctx context.Context, donorID int64) ([]model.DonationRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT dh.id, dh.donor_id, dh.hospital_id, h.name, dh.details, dh.donation_date
		 FROM donation_history dh
		 JOIN hospitals h ON h.id = dh.hospital_id
		 WHERE dh.donor_id = $1
		 ORDER BY dh.donation_date DESC, dh.id DESC`,
		donorID,
	)
	if err != nil {
		return nil, storageErr("select donation history", err)
	}
	defer rows.Close()

	var res []model.DonationRecord
	for rows.Next() {
		var rec model.DonationRecord
		if err := rows.Scan(&rec.ID, &rec.DonorID, &rec.HospitalID, &rec.HospitalName, &rec.Details, &rec.DonatedAt); err != nil {
			return nil, storageErr("scan donation", err)
		}
		res = append(res, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("rows error", err)
	}

	return res, nil
}

func scanDonor(row pgx.Row) (*model.Donor, error) {
	var (
		d         model.Donor
		bloodType string
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Age, &bloodType, &d.Contact, &d.Location); err != nil {
		return nil, err
	}
	d.BloodType = model.BloodType(bloodType)
	return &d, nil
}
