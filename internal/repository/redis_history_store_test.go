package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisHistoryStore_Load(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisHistoryStore(db, "h:", time.Hour)

	mock.ExpectGet("h:AAPL").SetVal(`[0.1,0.2,-0.3]`)
	values, err := store.Load(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, -0.3}, values)

	mock.ExpectGet("h:MSFT").RedisNil()
	values, err = store.Load(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Nil(t, values)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHistoryStore_LoadErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisHistoryStore(db, "h:", time.Hour)

	mock.ExpectGet("h:AAPL").SetErr(errors.New("timeout"))
	_, err := store.Load(context.Background(), "AAPL")
	assert.Error(t, err)

	mock.ExpectGet("h:BAD").SetVal(`not json`)
	_, err = store.Load(context.Background(), "BAD")
	assert.Error(t, err)
}

func TestRedisHistoryStore_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisHistoryStore(db, "h:", time.Hour)

	mock.ExpectSet("h:AAPL", []byte(`[0.5,0.25]`), time.Hour).SetVal("OK")
	require.NoError(t, store.Save(context.Background(), "AAPL", []float64{0.5, 0.25}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
