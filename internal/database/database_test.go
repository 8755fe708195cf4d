package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureRetriesPing(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()

	db, err := configure(context.Background(), sqlx.NewDb(raw, "mysql"),
		Options{MaxOpen: 2, MaxIdle: 1, ConnectTries: 3, ConnectDelay: time.Millisecond})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 2, db.Stats().MaxOpenConnections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigureGivesUp(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("down"))
	mock.ExpectPing().WillReturnError(errors.New("down"))
	mock.ExpectClose()

	_, err = configure(context.Background(), sqlx.NewDb(raw, "mysql"),
		Options{ConnectTries: 2, ConnectDelay: time.Millisecond}.withDefaults())
	assert.ErrorContains(t, err, "after 2 attempts")
	assert.NoError(t, mock.ExpectationsWereMet())
}
