package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/drop4life/internal/model"
)

func newRetryRepo() *PostgresRepository {
	return &PostgresRepository{delays: []time.Duration{time.Millisecond, time.Millisecond}}
}

func TestWithRetry(t *testing.T) {
	connReset := errors.New("read tcp: connection reset by peer")

	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{
			name:      "serialization failure is retried",
			err:       &pgconn.PgError{Code: pgerrcode.SerializationFailure},
			wantCalls: 3,
		},
		{
			name:      "connection reset is retried",
			err:       storageErr("insert donation", connReset),
			wantCalls: 3,
		},
		{
			name:      "connection reset on commit is not retried",
			err:       &commitError{err: storageErr("commit tx", connReset)},
			wantCalls: 1,
		},
		{
			name:      "business error is not retried",
			err:       ErrRequestNotPending,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRetryRepo()

			calls := 0
			err := r.withRetry(context.Background(), func() error {
				calls++
				return tt.err
			})

			require.Error(t, err)
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestWithRetry_SucceedsAfterTransientError(t *testing.T) {
	r := newRetryRepo()

	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCommitErrorKeepsStorageClass(t *testing.T) {
	err := &commitError{err: storageErr("commit tx", errors.New("broken pipe"))}

	assert.ErrorIs(t, err, model.ErrStorage)
	assert.Contains(t, err.Error(), "commit tx")
}
