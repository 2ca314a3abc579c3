package services

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/adampresley/randomgallery/pkg/models"
	"github.com/google/uuid"
	"github.com/rfberaldo/sqlz"
)

type MediaIndexServicer interface {
	DeleteByKey(key string) error
	GetByID(id string) (*models.Photo, error)
	GetByKey(key string) (*models.Photo, error)
	ListKeys() ([]string, error)
	ListPhotos() ([]models.Photo, error)
	Upsert(photo *models.Photo) error
}

type MediaIndexServiceConfig struct {
	DB *sqlz.DB
}

type MediaIndexService struct {
	db *sqlz.DB
}

func NewMediaIndexService(config MediaIndexServiceConfig) MediaIndexService {
	return MediaIndexService{
		db: config.DB,
	}
}

const photoColumns = `
   p.id
   , p.created_at
   , p.updated_at
   , p.deleted_at
   , p.photo_key
   , p.file_name
   , p.format
   , p.width
   , p.height
   , p.size
   , p.modified_at
`

func (s MediaIndexService) DeleteByKey(key string) error {
	var (
		err error
	)

	sql := `
DELETE FROM photos
WHERE 1=1
   AND photo_key=?
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, key); err != nil {
		return fmt.Errorf("error deleting photo '%s' from index: %w", key, err)
	}

	return nil
}

func (s MediaIndexService) GetByID(id string) (*models.Photo, error) {
	var (
		err error
	)

	result := &models.Photo{}

	sql := `
SELECT` + photoColumns + `
FROM photos AS p
WHERE 1=1
   AND p.deleted_at IS NULL
   AND p.id=?
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, id); err != nil {
		if sqlz.IsNotFound(err) {
			return result, fmt.Errorf("photo %s: %w", id, models.ErrPhotoNotFound)
		}

		return result, fmt.Errorf("error querying for photo %s: %w", id, err)
	}

	return result, nil
}

func (s MediaIndexService) GetByKey(key string) (*models.Photo, error) {
	var (
		err error
	)

	result := &models.Photo{}

	sql := `
SELECT` + photoColumns + `
FROM photos AS p
WHERE 1=1
   AND p.deleted_at IS NULL
   AND p.photo_key=?
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, key); err != nil {
		if sqlz.IsNotFound(err) {
			return result, fmt.Errorf("photo '%s': %w", key, models.ErrPhotoNotFound)
		}

		return result, fmt.Errorf("error querying for photo '%s': %w", key, err)
	}

	return result, nil
}

func (s MediaIndexService) ListKeys() ([]string, error) {
	var (
		err    error
		photos []models.Photo
	)

	if photos, err = s.ListPhotos(); err != nil {
		return nil, err
	}

	result := make([]string, 0, len(photos))

	for _, photo := range photos {
		result = append(result, photo.Key)
	}

	return result, nil
}

func (s MediaIndexService) ListPhotos() ([]models.Photo, error) {
	var (
		err error
	)

	result := []models.Photo{}

	sql := `
SELECT` + photoColumns + `
FROM photos AS p
WHERE 1=1
   AND p.deleted_at IS NULL
ORDER BY p.photo_key
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql); err != nil && !sqlz.IsNotFound(err) {
		return result, fmt.Errorf("error querying for photos: %w", err)
	}

	return result, nil
}

/*
Upsert inserts the photo or refreshes the existing row with the same key.
A new ID is assigned when the photo doesn't carry one. The stored ID is
written back to photo.
*/
func (s MediaIndexService) Upsert(photo *models.Photo) error {
	var (
		err error
	)

	now := time.Now().UTC()

	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}

	if photo.FileName == "" {
		photo.FileName = path.Base(photo.Key)
	}

	sql := `
INSERT INTO photos (
   id
   , created_at
   , updated_at
   , photo_key
   , file_name
   , format
   , width
   , height
   , size
   , modified_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (photo_key) DO UPDATE SET
   updated_at=excluded.updated_at
   , deleted_at=NULL
   , file_name=excluded.file_name
   , format=excluded.format
   , width=excluded.width
   , height=excluded.height
   , size=excluded.size
   , modified_at=excluded.modified_at
`

	params := []any{
		photo.ID,
		now,
		now,
		photo.Key,
		photo.FileName,
		photo.Format,
		photo.Width,
		photo.Height,
		photo.Size,
		photo.ModifiedAt.UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return fmt.Errorf("error upserting photo '%s': %w", photo.Key, err)
	}

	stored, err := s.GetByKey(photo.Key)

	if err != nil {
		return err
	}

	photo.ID = stored.ID
	return nil
}
