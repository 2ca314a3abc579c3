package viewmodels

import "github.com/adampresley/randomgallery/pkg/models"

type ViewerPage struct {
	BaseViewModel

	Photo      *models.Photo
	PhotoURL   string
	Scale      float64
	PhotoCount int
	CanDelete  bool
	IsLoading  bool
}
