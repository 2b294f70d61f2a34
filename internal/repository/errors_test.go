package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	callbackErr := errors.New("insufficient stock")

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"wrapped record not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}, ErrDuplicate},
		{"bad uuid", &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}, ErrNotFound},
		{"lock timeout", &pgconn.PgError{Code: pgerrcode.LockNotAvailable}, ErrConflict},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, ErrConflict},
		{"serialization", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, ErrConflict},
		{"passthrough", callbackErr, callbackErr},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translateError(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}
}
