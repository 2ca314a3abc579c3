package services

import (
	"fmt"
	"net/http"

	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/randomgallery/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

type PermissionServicer interface {
	CheckRead(r *http.Request) bool
	CheckWrite() bool
	RequestRead(w http.ResponseWriter, r *http.Request, accessCode string) error
}

type PermissionServiceConfig struct {
	AccessCodeHash string
	AllowDelete    bool
	SessionService sessions.Session[*models.Viewer]
}

/*
PermissionService gates the library. Reading is granted per browser
session, optionally behind an access code stored as a bcrypt hash.
Deleting is a server-wide switch.
*/
type PermissionService struct {
	accessCodeHash []byte
	allowDelete    bool
	sessionService sessions.Session[*models.Viewer]
}

func NewPermissionService(config PermissionServiceConfig) PermissionService {
	return PermissionService{
		accessCodeHash: []byte(config.AccessCodeHash),
		allowDelete:    config.AllowDelete,
		sessionService: config.SessionService,
	}
}

func (s PermissionService) CheckRead(r *http.Request) bool {
	viewer, err := s.sessionService.Get(r)

	if err != nil || viewer == nil {
		return false
	}

	return viewer.AccessGranted
}

func (s PermissionService) CheckWrite() bool {
	return s.allowDelete
}

func (s PermissionService) RequestRead(w http.ResponseWriter, r *http.Request, accessCode string) error {
	var (
		err error
	)

	if len(s.accessCodeHash) > 0 {
		if err = bcrypt.CompareHashAndPassword(s.accessCodeHash, []byte(accessCode)); err != nil {
			return models.ErrPermissionDenied
		}
	}

	viewer, err := s.sessionService.Get(r)

	if err != nil || viewer == nil {
		viewer = &models.Viewer{}
	}

	viewer.AccessGranted = true

	if err = s.sessionService.Set(r, viewer); err != nil {
		return fmt.Errorf("error storing access grant in session: %w", err)
	}

	if err = s.sessionService.Save(w, r); err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}
