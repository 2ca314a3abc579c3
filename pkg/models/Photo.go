package models

import (
	"errors"
	"time"
)

var (
	ErrPhotoNotFound    = errors.New("photo not found")
	ErrPermissionDenied = errors.New("library access has not been granted")
	ErrDeleteNotAllowed = errors.New("write permission is required to delete photos")
	ErrInvalidKey       = errors.New("invalid photo key")
)

/*
Photo is a row in the media index. Key is the source-relative
location of the image and is unique.
*/
type Photo struct {
	BaseModel

	Key        string    `db:"photo_key"`
	FileName   string    `db:"file_name"`
	Format     string    `db:"format"`
	Width      int       `db:"width"`
	Height     int       `db:"height"`
	Size       int64     `db:"size"`
	ModifiedAt time.Time `db:"modified_at"`
}

// SourceObject describes an image as reported by a media source.
type SourceObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}
