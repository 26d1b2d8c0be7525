package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/luispontes/ContaCerta/app/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count(*)"}).AddRow(n)
}

func TestMarkPaid_OnlyTouchesPendingRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("SELECT count").WillReturnRows(countRows(1))
	mock.ExpectExec("UPDATE `pending_registrations` SET").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), uint(1), models.RegistrationStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkPaid(1, time.Now()))

	// Second call: the row is no longer pending, the update matches nothing
	// and the call still succeeds.
	mock.ExpectQuery("SELECT count").WillReturnRows(countRows(1))
	mock.ExpectExec("UPDATE `pending_registrations` SET").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), uint(1), models.RegistrationStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkPaid(1, time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid_MissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("SELECT count").WillReturnRows(countRows(0))

	err := repo.MarkPaid(42, time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepExpired_ReturnsRemovedCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("DELETE FROM `pending_registrations`").
		WithArgs(models.RegistrationStatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.SweepExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}
