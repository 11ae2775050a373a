package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/ayush/estatehub/backend/internal/apperr"
)

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"no rows", pgx.ErrNoRows, apperr.NotFound},
		{"unique violation", &pgconn.PgError{Code: pgUniqueViolation, Message: "duplicate key"}, apperr.DuplicateEmail},
		{"other pg error", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, apperr.Upstream},
		{"network", errors.New("connection reset"), apperr.Upstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapPgError("op", tt.err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
