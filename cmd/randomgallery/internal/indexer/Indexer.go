package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"sync/atomic"

	"github.com/adampresley/randomgallery/pkg/gallery"
	"github.com/adampresley/randomgallery/pkg/models"
	"github.com/adampresley/randomgallery/pkg/services"
	"github.com/alitto/pond/v2"
)

type Indexer interface {
	Index() (Result, error)
	Running() bool
}

type IndexerConfig struct {
	Decoder         services.DecoderServicer
	Gallery         *gallery.Gallery
	MaxIndexWorkers int
	MediaIndex      services.MediaIndexServicer
	ShutdownCtx     context.Context
	Source          services.MediaSourcer
}

type Result struct {
	Indexed   int
	Unchanged int
	Skipped   int
	Removed   int
	Total     int
}

type IndexerService struct {
	decoder         services.DecoderServicer
	gallery         *gallery.Gallery
	maxIndexWorkers int
	mediaIndex      services.MediaIndexServicer
	shutdownCtx     context.Context
	source          services.MediaSourcer

	running *atomic.Bool
}

func NewIndexerService(config IndexerConfig) IndexerService {
	if config.MaxIndexWorkers <= 0 {
		config.MaxIndexWorkers = 1
	}

	if config.ShutdownCtx == nil {
		config.ShutdownCtx = context.Background()
	}

	return IndexerService{
		decoder:         config.Decoder,
		gallery:         config.Gallery,
		maxIndexWorkers: config.MaxIndexWorkers,
		mediaIndex:      config.MediaIndex,
		shutdownCtx:     config.ShutdownCtx,
		source:          config.Source,
		running:         &atomic.Bool{},
	}
}

var ErrAlreadyRunning = fmt.Errorf("indexer is already running")

func (s IndexerService) Running() bool {
	return s.running.Load()
}

/*
Index brings the media index in line with the source and then reloads the
gallery from the index. Photos that can't be decoded are left out.
*/
func (s IndexerService) Index() (Result, error) {
	var (
		err      error
		objects  []models.SourceObject
		existing []models.Photo
		keys     []string
		result   Result
		mu       sync.Mutex
	)

	if !s.running.CompareAndSwap(false, true) {
		return result, ErrAlreadyRunning
	}

	defer s.running.Store(false)

	slog.Info("starting library index...", "source", s.source.Name())

	if objects, err = s.source.List(); err != nil {
		return result, fmt.Errorf("error listing photos: %w", err)
	}

	if existing, err = s.mediaIndex.ListPhotos(); err != nil {
		return result, fmt.Errorf("error reading media index: %w", err)
	}

	known := make(map[string]models.Photo, len(existing))

	for _, photo := range existing {
		known[photo.Key] = photo
	}

	seen := make(map[string]struct{}, len(objects))
	pool := pond.NewPool(s.maxIndexWorkers, pond.WithContext(s.shutdownCtx))

	for _, obj := range objects {
		seen[obj.Key] = struct{}{}
		photo, ok := known[obj.Key]

		if ok && photo.Size == obj.Size && !photo.ModifiedAt.Before(obj.LastModified) {
			result.Unchanged++
			continue
		}

		pool.Submit(func() {
			indexed := s.indexObject(obj, photo.ID)

			mu.Lock()
			defer mu.Unlock()

			if indexed {
				result.Indexed++
			} else {
				result.Skipped++
			}
		})
	}

	_ = pool.Stop().Wait()

	if err = s.shutdownCtx.Err(); err != nil {
		return result, fmt.Errorf("indexing interrupted: %w", err)
	}

	for key := range known {
		if _, ok := seen[key]; ok {
			continue
		}

		if err = s.mediaIndex.DeleteByKey(key); err != nil {
			slog.Error("error removing stale photo from index", "key", key, "error", err)
			continue
		}

		result.Removed++
	}

	if keys, err = s.mediaIndex.ListKeys(); err != nil {
		return result, fmt.Errorf("error reloading gallery: %w", err)
	}

	s.gallery.Replace(keys)
	result.Total = s.gallery.Len()

	slog.Info("library index finished",
		"indexed", result.Indexed,
		"unchanged", result.Unchanged,
		"skipped", result.Skipped,
		"removed", result.Removed,
		"total", result.Total,
	)

	return result, nil
}

func (s IndexerService) indexObject(obj models.SourceObject, existingID string) bool {
	var (
		err    error
		rc     io.ReadCloser
		bounds services.ImageBounds
	)

	if rc, err = s.source.Open(obj.Key); err != nil {
		slog.Error("error opening photo for indexing", "key", obj.Key, "error", err)
		return false
	}

	defer rc.Close()

	if bounds, err = s.decoder.DecodeBounds(rc); err != nil {
		slog.Warn("skipping photo that could not be decoded", "key", obj.Key, "error", err)

		if existingID != "" {
			_ = s.mediaIndex.DeleteByKey(obj.Key)
		}

		return false
	}

	photo := &models.Photo{
		BaseModel:  models.BaseModel{ID: existingID},
		Key:        obj.Key,
		FileName:   path.Base(obj.Key),
		Format:     bounds.Format,
		Width:      bounds.Width,
		Height:     bounds.Height,
		Size:       obj.Size,
		ModifiedAt: obj.LastModified,
	}

	if err = s.mediaIndex.Upsert(photo); err != nil {
		slog.Error("error storing photo in index", "key", obj.Key, "error", err)
		return false
	}

	slog.Debug("indexed photo", "key", obj.Key, "width", bounds.Width, "height", bounds.Height)
	return true
}
