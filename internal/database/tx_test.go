package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTxCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tickets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = NewTransactor(db).WithinTx(context.Background(), func(q Querier) error {
		_, err := q.ExecContext(context.Background(), "UPDATE tickets SET validated_at = NOW() WHERE id = ?", 1)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = NewTransactor(db).WithinTx(context.Background(), func(q Querier) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	p := Params{User: "pull", Pass: "secret", Host: "db", Port: "3306", Name: "pull"}
	assert.Equal(t,
		"pull:secret@tcp(db:3306)/pull?charset=utf8mb4&parseTime=true&loc=UTC&multiStatements=true",
		DSN(p, "multiStatements=true"))

	p.Pass = ""
	assert.Equal(t, "pull@tcp(db:3306)/pull?charset=utf8mb4&parseTime=true&loc=UTC", DSN(p))
}
