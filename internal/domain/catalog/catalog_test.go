package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryListCategories(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	folhaID := uuid.New()

	mock.ExpectQuery(`SELECT id, name, type, is_active, created_at`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "type", "is_active", "created_at"}).
			AddRow(folhaID, "Folha", "EXPENSE", true, now).
			AddRow(uuid.New(), "Vendas", "INCOME", true, now))

	repo := NewRepository(mock)
	categories, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Folha", categories[0].Name)
	assert.Equal(t, folhaID, categories[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetBankNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT id, name, COALESCE`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "code", "is_active"}))

	repo := NewRepository(mock)
	_, err = repo.GetBank(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryGetTagsMissingID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	mock.ExpectQuery(`SELECT id, name, is_active`).
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "is_active"}).
			AddRow(ids[0], "urgente", true))

	repo := NewRepository(mock)
	_, err = repo.GetTags(context.Background(), ids)
	assert.ErrorIs(t, err, ErrNotFound)
}
