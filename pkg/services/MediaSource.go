package services

import (
	"io"
	"path"
	"strings"

	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/randomgallery/pkg/models"
)

var (
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tif", ".tiff"}
)

/*
MediaSourcer is where photos live. Keys are slash separated and relative
to the root of the source.
*/
type MediaSourcer interface {
	Delete(key string) error
	List() ([]models.SourceObject, error)
	Name() string
	Open(key string) (io.ReadCloser, error)
	Stat(key string) (*models.SourceObject, error)
}

func IsImageKey(key string) bool {
	ext := strings.ToLower(path.Ext(key))
	return slices.IsInSlice(ext, ImageExtensions)
}
