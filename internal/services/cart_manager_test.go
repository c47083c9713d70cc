package services_test

import (
	"errors"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCartRepo struct {
	repositories.CartRepository
}

func (failingCartRepo) Save(string, models.Cart) error { return errors.New("disk full") }

func TestCartManager_AddGroupTotal(t *testing.T) {
	repo := repositories.NewMockCartRepository()
	cart := services.NewCartManager(repo, "purpleCart:test", nil)

	require.NoError(t, cart.Add(product("A", "Mug", "10", 5), 2))
	require.NoError(t, cart.Add(product("B", "Pin", "5", 5), 1))
	require.NoError(t, cart.Add(product("A", "Mug", "10", 5), 1))

	assert.Len(t, cart.Items(), 4)
	assert.Equal(t, "35.00", models.FormatPrice(cart.Total()))

	var lines []string
	var qtys []int
	for p, qty := range cart.Grouped() {
		lines = append(lines, p.ID)
		qtys = append(qtys, qty)
	}
	assert.Equal(t, []string{"A", "B"}, lines)
	assert.Equal(t, []int{3, 1}, qtys)

	assert.ErrorIs(t, cart.Add(product("A", "Mug", "10", 5), 0), services.ErrInvalidQuantity)
}

func TestCartManager_WriteThroughRoundTrip(t *testing.T) {
	repo := repositories.NewMockCartRepository()
	first := services.NewCartManager(repo, "k", nil)
	require.NoError(t, first.Add(product("A", "Mug", "10", 5), 2))
	require.NoError(t, first.Add(product("B", "Pin", "5", 5), 1))

	// a fresh manager simulates a restart
	second := services.NewCartManager(repo, "k", nil)
	require.NoError(t, second.Load())
	before, after := first.Items(), second.Items()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.True(t, before[i].Price.Equal(after[i].Price))
	}

	require.NoError(t, second.Clear())
	for range second.Grouped() {
		t.Fatal("cleared cart must be empty")
	}
	require.NoError(t, first.Load())
	assert.Empty(t, first.Items())
}

func TestCartManager_FailedPersistLeavesMemoryUntouched(t *testing.T) {
	cart := services.NewCartManager(failingCartRepo{}, "k", nil)
	err := cart.Add(product("A", "Mug", "10", 5), 1)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, cart.Items())
}

func TestCartManager_RemoveKeepsLaterAdditions(t *testing.T) {
	repo := repositories.NewMockCartRepository()
	cart := services.NewCartManager(repo, "purpleCart:test", nil)
	require.NoError(t, cart.Add(product("A", "Mug", "10", 5), 1))
	ordered := cart.Items()
	require.NoError(t, cart.Add(product("B", "Pin", "5", 5), 2))

	require.NoError(t, cart.Remove(ordered))
	items := cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "B", items[0].ID)

	stored, err := repo.Load("purpleCart:test")
	require.NoError(t, err)
	assert.Equal(t, items, stored)
}
