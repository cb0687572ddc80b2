package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/drop4life/internal/model"
)

// DonationGuard повторно проверяет право донора на донацию под блокировкой строки донора.
type DonationGuard func(age int, lastDonation *time.Time) error

// AcceptDonation содержит параметры принятия запроса больницы донором.
type AcceptDonation struct {
	RequestID  int64
	DonorID    int64
	HospitalID int64
	Details    string
}

// AcceptedDonation описывает результат принятия запроса.
type AcceptedDonation struct {
	Record    model.DonationRecord
	BloodType model.BloodType
}

// CreateDonorRequest создаёт запрос больницы к донору в статусе pending.
func (r *PostgresRepository) CreateDonorRequest(ctx context.Context, hospitalID, donorID int64, details string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO donor_requests (hospital_id, donor_id, details, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		hospitalID, donorID, details, string(model.DonorRequestPending),
	).Scan(&id)
	if err != nil {
		if code, constraint := pgErrorCode(err); code == pgerrcode.ForeignKeyViolation {
			if constraint == "donor_requests_donor_id_fkey" {
				return 0, ErrDonorNotFound
			}
			return 0, ErrHospitalNotFound
		}
		return 0, storageErr("create donor request", err)
	}
	return id, nil
}

// GetDonorRequest возвращает запрос больницы к донору по идентификатору.
func (r *PostgresRepository) GetDonorRequest(ctx context.Context, requestID int64) (*model.DonorRequest, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT dr.id, dr.hospital_id, COALESCE(h.name, ''), dr.donor_id, dr.details, dr.request_date, dr.status
		 FROM donor_requests dr
		 LEFT JOIN hospitals h ON h.id = dr.hospital_id
		 WHERE dr.id = $1`,
		requestID,
	)

	req, err := scanDonorRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, storageErr("get donor request", err)
	}
	return req, nil
}

// ListPendingDonorRequests возвращает незакрытые запросы к донору, начиная с новых.
// Запросы без даты идут после датированных.
func (r *PostgresRepository) ListPendingDonorRequests(ctx context.Context, donorID int64) ([]model.DonorRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT dr.id, dr.hospital_id, COALESCE(h.name, ''), dr.donor_id, dr.details, dr.request_date, dr.status
		 FROM donor_requests dr
		 LEFT JOIN hospitals h ON h.id = dr.hospital_id
		 WHERE dr.donor_id = $1 AND dr.status = $2
		 ORDER BY dr.request_date DESC NULLS LAST, dr.id DESC`,
		donorID, string(model.DonorRequestPending),
	)
	if err != nil {
		return nil, storageErr("select donor requests", err)
	}
	defer rows.Close()

	var res []model.DonorRequest
	for rows.Next() {
		req, err := scanDonorRequest(rows)
		if err != nil {
			return nil, storageErr("scan donor request", err)
		}
		res = append(res, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("rows error", err)
	}

	return res, nil
}

// AcceptDonorRequest в одной транзакции записывает донацию, зачисляет единицу крови на склад больницы
// и переводит запрос в статус accepted. Смена статуса выполняется последней и только из pending,
// поэтому повторное или параллельное принятие того же запроса завершается ErrRequestNotPending
// без повторной записи истории и склада.
func (r *PostgresRepository) AcceptDonorRequest(ctx context.Context, p AcceptDonation, guard DonationGuard) (*AcceptedDonation, error) {
	var res *AcceptedDonation

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return storageErr("begin tx", err)
		}
		defer tx.Rollback(ctx)

		// Блокировка запроса идёт первой: конкурент за тот же запрос ждёт здесь и затем видит не-pending статус.
		var status string
		err = tx.QueryRow(ctx,
			`SELECT status FROM donor_requests
			 WHERE id = $1 AND donor_id = $2 AND hospital_id = $3
			 FOR UPDATE`,
			p.RequestID, p.DonorID, p.HospitalID,
		).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRequestNotFound
			}
			return storageErr("lock donor request", err)
		}
		if model.DonorRequestStatus(status) != model.DonorRequestPending {
			return fmt.Errorf("%w: request %d is %s", ErrRequestNotPending, p.RequestID, status)
		}

		// Блокируем донора, чтобы параллельные принятия разных запросов одного донора
		// проверяли интервал между донациями последовательно.
		var (
			age       int
			bloodType string
		)
		err = tx.QueryRow(ctx,
			`SELECT age, COALESCE(blood_type, '') FROM donors WHERE id = $1 FOR UPDATE`,
			p.DonorID,
		).Scan(&age, &bloodType)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrDonorNotFound
			}
			return storageErr("lock donor", err)
		}

		last, err := lastDonationAt(ctx, tx, p.DonorID)
		if err != nil {
			return storageErr("get last donation", err)
		}

		if guard != nil {
			if err := guard(age, last); err != nil {
				return err
			}
		}

		donor := model.Donor{BloodType: model.BloodType(bloodType)}
		bt := donor.StockBloodType()

		rec := model.DonationRecord{
			DonorID:    p.DonorID,
			HospitalID: p.HospitalID,
			Details:    p.Details,
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO donation_history (donor_id, hospital_id, details, donation_date, donor_request_id)
			 VALUES ($1, $2, $3, now(), $4)
			 RETURNING id, donation_date`,
			p.DonorID, p.HospitalID, p.Details, p.RequestID,
		).Scan(&rec.ID, &rec.DonatedAt)
		if err != nil {
			if code, _ := pgErrorCode(err); code == pgerrcode.UniqueViolation {
				return fmt.Errorf("%w: request %d already has a donation", ErrRequestNotPending, p.RequestID)
			}
			return storageErr("insert donation", err)
		}

		if err := creditStock(ctx, tx, p.HospitalID, bt, 1); err != nil {
			return err
		}

		cmdTag, err := tx.Exec(ctx,
			`UPDATE donor_requests SET status = $2 WHERE id = $1 AND status = $3`,
			p.RequestID, string(model.DonorRequestAccepted), string(model.DonorRequestPending),
		)
		if err != nil {
			return storageErr("update donor request", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%w: request %d", ErrRequestNotPending, p.RequestID)
		}

		if err := commitTx(ctx, tx); err != nil {
			return err
		}

		res = &AcceptedDonation{Record: rec, BloodType: bt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// DeclineDonorRequest переводит запрос донора donorID из pending в declined и возвращает число изменённых строк.
// Для закрытого, несуществующего или адресованного другому донору запроса возвращается 0 без ошибки.
func (r *PostgresRepository) DeclineDonorRequest(ctx context.Context, requestID, donorID int64) (int64, error) {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE donor_requests SET status = $3 WHERE id = $1 AND donor_id = $2 AND status = $4`,
		requestID, donorID, string(model.DonorRequestDeclined), string(model.DonorRequestPending),
	)
	if err != nil {
		return 0, storageErr("decline donor request", err)
	}
	return cmdTag.RowsAffected(), nil
}

// CreateSeekerRequest создаёт запрос нуждающегося к больнице в статусе Pending.
func (r *PostgresRepository) CreateSeekerRequest(ctx context.Context, seekerID, hospitalID int64, details string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO requests (seeker_id, hospital_id, details, status, request_date)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING id`,
		seekerID, hospitalID, details, model.SeekerRequestPending,
	).Scan(&id)
	if err != nil {
		if code, constraint := pgErrorCode(err); code == pgerrcode.ForeignKeyViolation {
			if constraint == "requests_seeker_id_fkey" {
				return 0, ErrSeekerNotFound
			}
			return 0, ErrHospitalNotFound
		}
		return 0, storageErr("create seeker request", err)
	}
	return id, nil
}

// ListSeekerRequests возвращает запросы нуждающегося, начиная с новых.
func (r *PostgresRepository) ListSeekerRequests(ctx context.Context, seekerID int64) ([]model.SeekerRequest, error) {
	return r.querySeekerRequests(ctx, `WHERE r.seeker_id = $1`, seekerID)
}

// ListHospitalSeekerRequests возвращает запросы, адресованные больнице, начиная с новых.
func (r *PostgresRepository) ListHospitalSeekerRequests(ctx context.Context, hospitalID int64) ([]model.SeekerRequest, error) {
	return r.querySeekerRequests(ctx, `WHERE r.hospital_id = $1`, hospitalID)
}

func (r *PostgresRepository) querySeekerRequests(ctx context.Context, where string, id int64) ([]model.SeekerRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.seeker_id, s.name, s.blood_type_needed, r.hospital_id, h.name, r.details, r.status, r.request_date
		 FROM requests r
		 JOIN seekers s ON s.id = r.seeker_id
		 JOIN hospitals h ON h.id = r.hospital_id
		 `+where+`
		 ORDER BY r.request_date DESC, r.id DESC`,
		id,
	)
	if err != nil {
		return nil, storageErr("select seeker requests", err)
	}
	defer rows.Close()

	var res []model.SeekerRequest
	for rows.Next() {
		var (
			req       model.SeekerRequest
			bloodType string
		)
		err := rows.Scan(&req.ID, &req.SeekerID, &req.SeekerName, &bloodType,
			&req.HospitalID, &req.HospitalName, &req.Details, &req.Status, &req.RequestedAt)
		if err != nil {
			return nil, storageErr("scan seeker request", err)
		}
		req.BloodTypeNeeded = model.BloodType(bloodType)
		res = append(res, req)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("rows error", err)
	}

	return res, nil
}

func scanDonorRequest(row pgx.Row) (*model.DonorRequest, error) {
	var (
		req    model.DonorRequest
		status string
	)
	if err := row.Scan(&req.ID, &req.HospitalID, &req.HospitalName, &req.DonorID, &req.Details, &req.RequestedAt, &status); err != nil {
		return nil, err
	}
	req.Status = model.DonorRequestStatus(status)
	return &req, nil
}
