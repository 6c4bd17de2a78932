package postgres

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/strikeprep/staffing-api/pkg/errors"
)

func TestSerializationFailureMapsToConflict(t *testing.T) {
	driverErr := &pq.Error{
		Code:    pgSerializationFailure,
		Message: "could not serialize access due to concurrent update",
	}

	err := mapSerializationFailure(driverErr)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.StatusCode())
	assert.Equal(t, "Position was just filled by another user", appErr.Message)
	assert.ErrorIs(t, err, driverErr)
}

func TestDeadlockMapsToConflict(t *testing.T) {
	err := mapSerializationFailure(&pq.Error{Code: pgDeadlockDetected})

	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestWrappedSerializationFailureMapsToConflict(t *testing.T) {
	wrapped := fmt.Errorf("failed to get current assignment for position: %w",
		&pq.Error{Code: pgSerializationFailure})

	err := mapSerializationFailure(wrapped)

	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestUnrelatedErrorsPassThrough(t *testing.T) {
	uniqueViolation := &pq.Error{Code: "23505"}
	assert.Equal(t, error(uniqueViolation), mapSerializationFailure(uniqueViolation))

	plain := fmt.Errorf("connection reset")
	assert.Equal(t, plain, mapSerializationFailure(plain))

	assert.NoError(t, mapSerializationFailure(nil))
}
