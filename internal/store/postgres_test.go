package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/polog/internal/model"
)

func TestPostgresMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS pipeline_cache`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	c := NewPostgresFromPool(mock)
	require.NoError(t, c.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetHit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	payload, err := json.Marshal(testEntry())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM pipeline_cache`).
		WithArgs("key-1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	c := NewPostgresFromPool(mock)
	got, ok, err := c.Get(context.Background(), "key-1")

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 1, got.Dataset.Len())
	assert.True(t, got.Dataset.Has(model.FieldVendorName))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMiss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT payload FROM pipeline_cache`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	c := NewPostgresFromPool(mock)
	got, ok, err := c.Get(context.Background(), "missing")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPut(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO pipeline_cache`).
		WithArgs("key-1", "run-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := NewPostgresFromPool(mock)
	entry := testEntry()
	require.NoError(t, c.Put(context.Background(), "key-1", entry))
	assert.False(t, entry.CachedAt.IsZero())

	require.NoError(t, mock.ExpectationsWereMet())
}
