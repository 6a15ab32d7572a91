package assets

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoScopesByOwnerAndCategory(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	a := sampleAsset()
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.Get(ctx, CategoryImages, a.RecResourceID, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong category should be not found, got %v", err)
	}
	if _, err := repo.Get(ctx, a.Category, "REC0002", a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong owner should be not found, got %v", err)
	}
	if err := repo.Delete(ctx, a.Category, "REC0002", a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete by wrong owner should be not found, got %v", err)
	}
	if err := repo.Create(ctx, a); !errors.Is(err, ErrConflict) {
		t.Fatalf("second create should conflict, got %v", err)
	}
}

func TestMemoryRepoCopiesVariants(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	a := sampleAsset()
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	a.Variants[0].Key = "mutated"

	got, err := repo.Get(ctx, a.Category, a.RecResourceID, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Variants[0].Key == "mutated" {
		t.Fatalf("stored asset shares the caller's variant slice")
	}
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		a := sampleAsset()
		a.ID = id
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create(%s): %v", id, err)
		}
	}

	list, err := repo.ListByOwner(ctx, CategoryDocuments, "REC0001")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 3 || list[0].ID != "c" || list[2].ID != "a" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestMemoryRepoCreateFinalizesSession(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	a := sampleAsset()
	created := a.CreatedAt.Add(-time.Minute)
	if err := repo.SaveSession(ctx, UploadSession{
		AssetID:       a.ID,
		RecResourceID: a.RecResourceID,
		Category:      a.Category,
		State:         SessionPresigned,
		CreatedAt:     created,
		UpdatedAt:     created,
	}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s, err := repo.GetSession(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s.State != SessionFinalized || !s.UpdatedAt.Equal(a.CreatedAt) || !s.CreatedAt.Equal(created) {
		t.Fatalf("unexpected session: %+v", s)
	}
	if err := repo.UpdateSessionState(ctx, "missing", SessionPresigned, a.CreatedAt); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
