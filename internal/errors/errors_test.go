package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/krishnx/vestigas/internal/errors"
)

func TestErrorCodeClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		err   error
		check func(error) bool
		code  apperrors.ErrorCode
	}{
		{"not found", apperrors.NotFound("job missing"), apperrors.IsNotFound, apperrors.ErrCodeNotFound},
		{"validation", apperrors.Validation("bad input"), apperrors.IsValidation, apperrors.ErrCodeValidation},
		{"conflict", apperrors.Conflict("duplicate"), apperrors.IsConflict, apperrors.ErrCodeConflict},
		{"transient", apperrors.Transient("upstream 503", nil), apperrors.IsTransient, apperrors.ErrCodeTransient},
		{"normalization", apperrors.Normalization("status", "unmapped"), apperrors.IsNormalization, apperrors.ErrCodeNormalization},
		{"storage", apperrors.Storage("insert failed", errors.New("boom")), apperrors.IsStorage, apperrors.ErrCodeStorage},
		{"internal", apperrors.Internal("unexpected"), apperrors.IsInternal, apperrors.ErrCodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tc.check(tc.err))
			assert.Equal(t, tc.code, apperrors.GetCode(tc.err))
		})
	}
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("outer: %w", apperrors.Transient("fetch timed out", nil))
	assert.True(t, apperrors.IsTransient(err))
	assert.Equal(t, apperrors.ErrCodeTransient, apperrors.GetCode(err))

	deep := fmt.Errorf("a: %w", fmt.Errorf("b: %w", apperrors.NotFound("gone")))
	assert.True(t, apperrors.IsNotFound(deep))
}

func TestUnwrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := apperrors.Transient("partner fetch failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestGetField(t *testing.T) {
	t.Parallel()

	err := apperrors.ValidationField("limit", "must be greater than zero")
	assert.Equal(t, "limit", apperrors.GetField(err))
	assert.True(t, apperrors.IsValidation(err))

	assert.Empty(t, apperrors.GetField(errors.New("plain")))
}

func TestGetCodeUnknownError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetCode(errors.New("plain")))
}

func TestMapDBError(t *testing.T) {
	t.Parallel()

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()
		err := apperrors.MapDBError(fmt.Errorf("get: %w", pgx.ErrNoRows))
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("unique violation", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{
			Code:   pgerrcode.UniqueViolation,
			Detail: `Key (external_id)=(ORD-1) already exists.`,
		}
		err := apperrors.MapDBError(fmt.Errorf("insert: %w", pgErr))
		require.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "external_id", apperrors.GetField(err))
	})

	t.Run("check violation", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: pgerrcode.CheckViolation}
		err := apperrors.MapDBError(pgErr)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("deadline", func(t *testing.T) {
		t.Parallel()
		err := apperrors.MapDBError(context.DeadlineExceeded)
		assert.True(t, apperrors.IsTimeout(err))
	})

	t.Run("canceled", func(t *testing.T) {
		t.Parallel()
		err := apperrors.MapDBError(context.Canceled)
		assert.True(t, apperrors.IsCanceled(err))
	})

	t.Run("other pg error", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		err := apperrors.MapDBError(pgErr)
		assert.True(t, apperrors.IsStorage(err))
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, apperrors.MapDBError(nil))
	})
}
