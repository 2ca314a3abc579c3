package viewmodels

import "github.com/adampresley/randomgallery/pkg/models"

type DeleteConfirm struct {
	BaseViewModel

	Photo    *models.Photo
	PhotoURL string
}
