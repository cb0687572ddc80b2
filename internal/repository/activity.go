package repository

import "context"

// LogActivity добавляет запись в журнал активности.
func (r *PostgresRepository) LogActivity(ctx context.Context, description string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activity_logs (description) VALUES ($1)`,
		description,
	)
	if err != nil {
		return storageErr("insert activity log", err)
	}
	return nil
}
