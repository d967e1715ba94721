package testsupport

import (
	"context"
	"testing"

	"recipeforge/internal/blobstore"
	"recipeforge/internal/recipes"
)

// NewRepository returns a repository over a fresh in-memory store.
func NewRepository(t testing.TB) (*recipes.Repository, *blobstore.MemoryStore) {
	t.Helper()

	store := blobstore.NewMemory()
	t.Cleanup(func() {
		_ = store.Close()
	})
	return recipes.NewRepository(store), store
}

// NewRecipe creates a recipe with count generated JPEG originals.
func NewRecipe(t testing.TB, repo *recipes.Repository, count int) *recipes.Record {
	t.Helper()

	images := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		images = append(images, JPEG(t, i))
	}
	id, err := repo.Create(context.Background(), images)
	if err != nil {
		t.Fatalf("repo.Create: %v", err)
	}
	record, err := repo.LoadInfo(context.Background(), id)
	if err != nil {
		t.Fatalf("repo.LoadInfo: %v", err)
	}
	return record
}
