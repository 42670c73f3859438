package invitation

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"socialstar-core/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceWithMock(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db, logger.NewNoOpLogger()), mock
}

func TestCreate(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectExec("INSERT INTO invitations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inv, err := svc.Create(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, inv.ID)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{10}$`), inv.Code)
	assert.False(t, inv.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInsertFailure(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectExec("INSERT INTO invitations").
		WillReturnError(errors.New("duplicate key"))

	inv, err := svc.Create(context.Background())
	require.Error(t, err)
	assert.Nil(t, inv)
}

func TestFindByCode(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM invitations").
		WithArgs("FRIEND42AB").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "created_at"}).
			AddRow("inv-1", "FRIEND42AB", created))

	inv, err := svc.FindByCode(context.Background(), "FRIEND42AB")
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "inv-1", inv.ID)
	assert.Equal(t, "FRIEND42AB", inv.Code)
	assert.Equal(t, created, inv.CreatedAt)
}

func TestFindByCodeUnknown(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM invitations").
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "created_at"}))

	inv, err := svc.FindByCode(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, inv)
}
