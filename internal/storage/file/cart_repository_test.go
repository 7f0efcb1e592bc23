package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/file"
)

func TestCartRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := file.NewCartRepository(dir)
	require.NoError(t, err)

	_, err = repo.Load(ctx, "luxe-cart")
	require.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	snapshot := domain.CartSnapshot{Items: []domain.LineItem{{
		CartID:         "1-M-black-1",
		ProductID:      "1",
		Slug:           "cashmere-overcoat",
		Name:           "Cashmere Overcoat",
		UnitPriceMinor: 245000,
		Images:         []string{"front.jpg"},
		SelectedSize:   "M",
		SelectedColor:  "black",
		Quantity:       2,
	}}}
	require.NoError(t, repo.Save(ctx, "luxe-cart", snapshot))

	// Другой экземпляр читает тот же каталог, как после перезапуска процесса.
	reopened, err := file.NewCartRepository(dir)
	require.NoError(t, err)
	loaded, err := reopened.Load(ctx, "luxe-cart")
	require.NoError(t, err)
	require.Equal(t, snapshot, loaded)

	raw, err := os.ReadFile(filepath.Join(dir, "luxe-cart.json"))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"items"`)
	require.NotContains(t, string(raw), "open")
}

func TestCartRepository_EmptySnapshot(t *testing.T) {
	ctx := context.Background()
	repo, err := file.NewCartRepository(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, "cart", domain.CartSnapshot{}))
	loaded, err := repo.Load(ctx, "cart")
	require.NoError(t, err)
	require.Empty(t, loaded.Items)
}

func TestCartRepository_RejectsUnsafeNames(t *testing.T) {
	repo, err := file.NewCartRepository(t.TempDir())
	require.NoError(t, err)

	require.Error(t, repo.Save(context.Background(), "../escape", domain.CartSnapshot{}))
	require.ErrorIs(t, repo.Save(context.Background(), "", domain.CartSnapshot{}), domain.ErrSnapshotNameRequired)
}
