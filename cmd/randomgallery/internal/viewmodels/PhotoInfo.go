package viewmodels

import "github.com/adampresley/randomgallery/pkg/models"

type PhotoInfo struct {
	BaseViewModel

	Photo            *models.Photo
	Name             string
	Width            int
	Height           int
	FileSize         string
	Modified         string
	ModifiedRelative string
}
