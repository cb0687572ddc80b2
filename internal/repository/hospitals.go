package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/drop4life/internal/model"
)

// creditStockSQL атомарно увеличивает запас или создаёт строку, если её ещё нет.
const creditStockSQL = `INSERT INTO blood_stocks (hospital_id, blood_type, units)
	VALUES ($1, $2, $3)
	ON CONFLICT (hospital_id, blood_type) DO UPDATE SET units = blood_stocks.units + EXCLUDED.units`

// CreateHospital регистрирует больницу и в той же транзакции создаёт нулевые запасы всех групп крови.
func (r *PostgresRepository) CreateHospital(ctx context.Context, name, location string) (int64, error) {
	bloodTypes := make([]string, 0, len(model.BloodTypes))
	for _, bt := range model.BloodTypes {
		bloodTypes = append(bloodTypes, string(bt))
	}

	var id int64
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return storageErr("begin tx", err)
		}
		defer tx.Rollback(ctx)

		err = tx.QueryRow(ctx,
			`INSERT INTO hospitals (name, location) VALUES ($1, $2) RETURNING id`,
			name, location,
		).Scan(&id)
		if err != nil {
			if code, _ := pgErrorCode(err); code == pgerrcode.UniqueViolation {
				return fmt.Errorf("%w: %s", ErrHospitalExists, name)
			}
			return storageErr("insert hospital", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO blood_stocks (hospital_id, blood_type, units)
			 SELECT $1, bt, 0 FROM unnest($2::text[]) AS bt
			 ON CONFLICT (hospital_id, blood_type) DO NOTHING`,
			id, bloodTypes,
		)
		if err != nil {
			return storageErr("seed blood stocks", err)
		}

		if err := commitTx(ctx, tx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetHospitalIDByName возвращает идентификатор больницы с точно совпадающим именем.
func (r *PostgresRepository) GetHospitalIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM hospitals WHERE name = $1`,
		name,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrHospitalNotFound
		}
		return 0, storageErr("get hospital by name", err)
	}
	return id, nil
}

// GetHospital возвращает больницу по идентификатору.
func (r *PostgresRepository) GetHospital(ctx context.Context, hospitalID int64) (*model.Hospital, error) {
	var h model.Hospital
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, location FROM hospitals WHERE id = $1`,
		hospitalID,
	).Scan(&h.ID, &h.Name, &h.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHospitalNotFound
		}
		return nil, storageErr("get hospital", err)
	}
	return &h, nil
}

// ListHospitals возвращает все больницы, упорядоченные по имени.
func (r *PostgresRepository) ListHospitals(ctx context.Context) ([]model.Hospital, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, location FROM hospitals ORDER BY name, id`,
	)
	if err != nil {
		return nil, storageErr("select hospitals", err)
	}
	defer rows.Close()

	var res []model.Hospital
	for rows.Next() {
		var h model.Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.Location); err != nil {
			return nil, storageErr("scan hospital", err)
		}
		res = append(res, h)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("rows error", err)
	}

	return res, nil
}

// CreditStock увеличивает запас группы bloodType в больнице на units единиц одним upsert-запросом.
func (r *PostgresRepository) CreditStock(ctx context.Context, hospitalID int64, bloodType model.BloodType, units int) error {
	return r.withRetry(ctx, func() error {
		return creditStock(ctx, r.pool, hospitalID, bloodType, units)
	})
}

func creditStock(ctx context.Context, q querier, hospitalID int64, bloodType model.BloodType, units int) error {
	_, err := q.Exec(ctx, creditStockSQL, hospitalID, string(bloodType), units)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgerrcode.ForeignKeyViolation {
			return ErrHospitalNotFound
		}
		return storageErr("credit stock", err)
	}
	return nil
}

// GetStock возвращает запасы больницы, упорядоченные по группе крови.
func (r *PostgresRepository) GetStock(ctx context.Context, hospitalID int64) ([]model.StockEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT hospital_id, blood_type, units
		 FROM blood_stocks
		 WHERE hospital_id = $1
		 ORDER BY blood_type`,
		hospitalID,
	)
	if err != nil {
		return nil, storageErr("select stock", err)
	}
	defer rows.Close()

	var res []model.StockEntry
	for rows.Next() {
		var (
			e         model.StockEntry
			bloodType string
		)
		if err := rows.Scan(&e.HospitalID, &bloodType, &e.Units); err != nil {
			return nil, storageErr("scan stock", err)
		}
		e.BloodType = model.BloodType(bloodType)
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("rows error", err)
	}

	return res, nil
}

// SearchStock ищет больницы, в адресе которых встречается location, с ненулевым запасом bloodType.
func (r *PostgresRepository) SearchStock(ctx context.Context, location string, bloodType model.BloodType) ([]model.HospitalStock, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT h.name, h.location, bs.units
		 FROM hospitals h
		 JOIN blood_stocks bs ON bs.hospital_id = h.id
		 WHERE h.location ILIKE $1 ESCAPE '\' AND bs.blood_type = $2 AND bs.units > 0
		 ORDER BY bs.units DESC, h.name`,
		"%"+escapeLike(location)+"%", string(bloodType),
	)
	if err != nil {
		return nil, storageErr("search stock", err)
	}
	defer rows.Close()

	var res []model.HospitalStock
	for rows.Next() {
		var hs model.HospitalStock
		if err := rows.Scan(&hs.HospitalName, &hs.Location, &hs.Units); err != nil {
			return nil, storageErr("scan hospital stock", err)
		}
		res = append(res, hs)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("rows error", err)
	}

	return res, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
