package catalog

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	categories []Category
	methods    []PaymentMethod
	err        error
}

func (f *fakeLister) ListCategories(context.Context) ([]Category, error) {
	return f.categories, f.err
}

func (f *fakeLister) ListPaymentMethods(context.Context) ([]PaymentMethod, error) {
	return f.methods, f.err
}

func TestCacheRefreshAndLookup(t *testing.T) {
	lister := &fakeLister{
		categories: []Category{
			{ID: uuid.New(), Name: "Folha", Type: "EXPENSE"},
			{ID: uuid.New(), Name: "Prestação de Serviço", Type: "INCOME"},
		},
		methods: []PaymentMethod{
			{ID: uuid.New(), Name: "PIX"},
			{ID: uuid.New(), Name: "Transferência Bancária"},
		},
	}

	cache := NewCache(lister, slog.Default())
	require.NoError(t, cache.Refresh(context.Background()))

	cat, ok := cache.CategoryByName("folha")
	require.True(t, ok)
	assert.Equal(t, "Folha", cat.Name)

	cat, ok = cache.CategoryByContains("serviço")
	require.True(t, ok)
	assert.Equal(t, "Prestação de Serviço", cat.Name)

	pm, ok := cache.PaymentMethodByName("PIX")
	require.True(t, ok)
	assert.Equal(t, "PIX", pm.Name)

	_, ok = cache.CategoryByName("inexistente")
	assert.False(t, ok)

	assert.False(t, cache.RefreshedAt().IsZero())
}

func TestCacheRefreshKeepsOldSnapshotOnError(t *testing.T) {
	lister := &fakeLister{
		categories: []Category{{ID: uuid.New(), Name: "Vendas", Type: "INCOME"}},
	}

	cache := NewCache(lister, slog.Default())
	require.NoError(t, cache.Refresh(context.Background()))

	lister.err = errors.New("db down")
	assert.Error(t, cache.Refresh(context.Background()))

	_, ok := cache.CategoryByName("vendas")
	assert.True(t, ok, "previous snapshot must survive a failed refresh")
}
