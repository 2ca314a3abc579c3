package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/adampresley/randomgallery/pkg/models"
	_ "github.com/glebarez/sqlite"
	"github.com/rfberaldo/sqlz"
	"github.com/rfberaldo/sqlz/binds"
)

var registerBinds sync.Once

func newTestIndex(t *testing.T) MediaIndexService {
	t.Helper()

	registerBinds.Do(func() {
		binds.Register("sqlite", binds.BindByDriver("sqlite3"))
	})

	db, err := sqlz.Connect("sqlite", "file:"+filepath.Join(t.TempDir(), "index.db"))

	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	script, err := os.ReadFile(filepath.Join("..", "..", "cmd", "randomgallery", "sql-migrations", "commit-001-photos.sql"))

	if err != nil {
		t.Fatalf("Failed to read migration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = db.Exec(ctx, string(script)); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return NewMediaIndexService(MediaIndexServiceConfig{DB: db})
}

func TestMediaIndexService_UpsertAndGet(t *testing.T) {
	index := newTestIndex(t)
	modified := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

	photo := &models.Photo{
		Key:        "trip/beach.jpg",
		Format:     "jpeg",
		Width:      4000,
		Height:     3000,
		Size:       2_400_000,
		ModifiedAt: modified,
	}

	if err := index.Upsert(photo); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if photo.ID == "" {
		t.Fatal("Expected an ID to be assigned")
	}

	firstID := photo.ID

	got, err := index.GetByID(firstID)

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got.Key != photo.Key || got.FileName != "beach.jpg" || got.Width != 4000 || got.Height != 3000 {
		t.Errorf("Unexpected photo: %+v", got)
	}

	if !got.ModifiedAt.Equal(modified) {
		t.Errorf("Expected modified %v, got %v", modified, got.ModifiedAt)
	}

	again := &models.Photo{Key: "trip/beach.jpg", Width: 10, Height: 20, ModifiedAt: modified}

	if err = index.Upsert(again); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if again.ID != firstID {
		t.Errorf("Expected re-index to keep ID %s, got %s", firstID, again.ID)
	}

	got, _ = index.GetByKey("trip/beach.jpg")

	if got.Width != 10 || got.Height != 20 {
		t.Errorf("Expected dimensions to be refreshed, got %dx%d", got.Width, got.Height)
	}
}

func TestMediaIndexService_ListAndDelete(t *testing.T) {
	index := newTestIndex(t)

	for _, key := range []string{"c.png", "a.png", "b.png"} {
		if err := index.Upsert(&models.Photo{Key: key, ModifiedAt: time.Now()}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	keys, err := index.ListKeys()

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(keys) != 3 || keys[0] != "a.png" || keys[2] != "c.png" {
		t.Errorf("Expected sorted keys, got %v", keys)
	}

	if err = index.DeleteByKey("b.png"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err = index.GetByKey("b.png"); !errors.Is(err, models.ErrPhotoNotFound) {
		t.Errorf("Expected ErrPhotoNotFound, got %v", err)
	}

	keys, _ = index.ListKeys()

	if len(keys) != 2 {
		t.Errorf("Expected 2 keys after delete, got %v", keys)
	}
}
