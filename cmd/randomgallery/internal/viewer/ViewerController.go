package viewer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/randomgallery/cmd/randomgallery/internal/viewmodels"
	"github.com/adampresley/randomgallery/pkg/gallery"
	"github.com/adampresley/randomgallery/pkg/models"
	"github.com/adampresley/randomgallery/pkg/services"
)

const deleteNotAllowedMessage = "Write permission is required to delete photos"

type ViewerHandlers interface {
	DeleteAction(w http.ResponseWriter, r *http.Request)
	DeleteConfirmPage(w http.ResponseWriter, r *http.Request)
	DisplayPhoto(w http.ResponseWriter, r *http.Request)
	Gesture(w http.ResponseWriter, r *http.Request)
	InfoPage(w http.ResponseWriter, r *http.Request)
	NextAction(w http.ResponseWriter, r *http.Request)
	PermissionAction(w http.ResponseWriter, r *http.Request)
	PermissionPage(w http.ResponseWriter, r *http.Request)
	ViewerPage(w http.ResponseWriter, r *http.Request)
	ZoomAction(w http.ResponseWriter, r *http.Request)
}

// IndexStatus reports whether the library is still being loaded.
type IndexStatus interface {
	Running() bool
}

type ViewerControllerConfig struct {
	Decoder           services.DecoderServicer
	Gallery           *gallery.Gallery
	IndexStatus       IndexStatus
	MaxDisplayEdge    uint
	MediaIndex        services.MediaIndexServicer
	PermissionService services.PermissionServicer
	RequiresCode      bool
	Renderer          rendering.TemplateRenderer
	SessionService    sessions.Session[*models.Viewer]
	Source            services.MediaSourcer
}

type ViewerController struct {
	decoder           services.DecoderServicer
	gallery           *gallery.Gallery
	indexStatus       IndexStatus
	maxDisplayEdge    uint
	mediaIndex        services.MediaIndexServicer
	permissionService services.PermissionServicer
	requiresCode      bool
	renderer          rendering.TemplateRenderer
	sessionService    sessions.Session[*models.Viewer]
	source            services.MediaSourcer
}

func NewViewerController(config ViewerControllerConfig) ViewerController {
	return ViewerController{
		decoder:           config.Decoder,
		gallery:           config.Gallery,
		indexStatus:       config.IndexStatus,
		maxDisplayEdge:    config.MaxDisplayEdge,
		mediaIndex:        config.MediaIndex,
		permissionService: config.PermissionService,
		requiresCode:      config.RequiresCode,
		renderer:          config.Renderer,
		sessionService:    config.SessionService,
		source:            config.Source,
	}
}

/*
GET /
*/
func (c ViewerController) ViewerPage(w http.ResponseWriter, r *http.Request) {
	viewData := c.buildViewerPage(w, r)
	c.renderer.Render("pages/viewer", viewData, w)
}

/*
buildViewerPage settles which photo the viewer is looking at and saves
that choice to the session.
*/
func (c ViewerController) buildViewerPage(w http.ResponseWriter, r *http.Request) viewmodels.ViewerPage {
	var (
		err   error
		photo *models.Photo
	)

	viewer := c.loadViewer(r)

	viewData := viewmodels.ViewerPage{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
			JavascriptIncludes: []rendering.JavascriptInclude{
				{Type: "module", Src: "/static/js/pages/viewer.js"},
			},
		},
		CanDelete:  c.permissionService.CheckWrite(),
		PhotoCount: c.gallery.Len(),
		Scale:      gallery.ClampScale(viewer.Scale),
	}

	c.takeFlash(viewer, &viewData.BaseViewModel)

	if viewData.PhotoCount == 0 {
		viewer.CurrentID, viewer.CurrentKey = "", ""
		c.saveViewer(w, r, viewer)

		if c.indexStatus != nil && c.indexStatus.Running() {
			viewData.IsLoading = true
			setMessageIfEmpty(&viewData.BaseViewModel, "Loading photos...", false)
		} else {
			setMessageIfEmpty(&viewData.BaseViewModel, "No photos found", false)
			viewData.IsWarning = !viewData.IsError
		}

		return viewData
	}

	/*
	 * The current photo may have been removed by another viewer or a
	 * re-index. Move on to a new one if so.
	 */
	if !c.gallery.Contains(viewer.CurrentKey) {
		c.pickNext(viewer)
		viewData.Scale = viewer.Scale
	}

	if photo, err = c.mediaIndex.GetByKey(viewer.CurrentKey); err != nil {
		slog.Error("error looking up current photo", "key", viewer.CurrentKey, "error", err)

		if errors.Is(err, models.ErrPhotoNotFound) {
			c.gallery.Remove(viewer.CurrentKey)
		}

		viewer.CurrentID, viewer.CurrentKey = "", ""
		c.saveViewer(w, r, viewer)

		viewData.IsError = true
		viewData.Message = fmt.Sprintf("Error showing photo: %s", err.Error())
		return viewData
	}

	viewer.CurrentID = photo.ID
	c.saveViewer(w, r, viewer)

	viewData.Photo = photo
	viewData.PhotoURL = displayURL(photo)
	return viewData
}

/*
POST /next
*/
func (c ViewerController) NextAction(w http.ResponseWriter, r *http.Request) {
	viewer := c.loadViewer(r)
	c.pickNext(viewer)
	c.saveViewer(w, r, viewer)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

/*
POST /gesture

Form values: durationMs, scaling, scaleFactor. Responds with "next" when
the gesture moved to another photo, otherwise with the current scale.
*/
func (c ViewerController) Gesture(w http.ResponseWriter, r *http.Request) {
	var (
		err         error
		durationMs  int64
		scaling     bool
		scaleFactor float64
	)

	if durationMs, err = strconv.ParseInt(httphelpers.GetFromRequest[string](r, "durationMs"), 10, 64); err != nil {
		httphelpers.WriteText(w, http.StatusBadRequest, "invalid gesture duration")
		return
	}

	if scaling, err = strconv.ParseBool(httphelpers.GetFromRequest[string](r, "scaling")); err != nil {
		httphelpers.WriteText(w, http.StatusBadRequest, "invalid gesture scaling flag")
		return
	}

	if scaleFactor, err = strconv.ParseFloat(httphelpers.GetFromRequest[string](r, "scaleFactor"), 64); err != nil {
		httphelpers.WriteText(w, http.StatusBadRequest, "invalid gesture scale factor")
		return
	}

	viewer := c.loadViewer(r)

	switch gallery.ClassifyGesture(time.Duration(durationMs)*time.Millisecond, scaling, scaleFactor) {
	case gallery.GestureTap:
		c.pickNext(viewer)
		c.saveViewer(w, r, viewer)
		httphelpers.TextOK(w, "next")
		return

	case gallery.GestureScale:
		viewer.Scale = gallery.ApplyZoom(viewer.Scale, scaleFactor)
		c.saveViewer(w, r, viewer)
	}

	httphelpers.TextOK(w, formatScale(viewer.Scale))
}

/*
PUT /zoom
*/
func (c ViewerController) ZoomAction(w http.ResponseWriter, r *http.Request) {
	factor, err := strconv.ParseFloat(httphelpers.GetFromRequest[string](r, "factor"), 64)

	if err != nil {
		httphelpers.WriteText(w, http.StatusBadRequest, "invalid zoom factor")
		return
	}

	viewer := c.loadViewer(r)
	viewer.Scale = gallery.ApplyZoom(viewer.Scale, factor)
	c.saveViewer(w, r, viewer)

	httphelpers.TextOK(w, formatScale(viewer.Scale))
}

/*
GET /photo/{id}/display
*/
func (c ViewerController) DisplayPhoto(w http.ResponseWriter, r *http.Request) {
	var (
		err   error
		photo *models.Photo
		buf   bytes.Buffer
	)

	id := httphelpers.GetFromRequest[string](r, "id")

	if photo, err = c.mediaIndex.GetByID(id); err != nil {
		slog.Error("error looking up photo to display", "id", id, "error", err)
		httphelpers.WriteText(w, http.StatusNotFound, "photo not found")
		return
	}

	l := slog.With("id", id, "key", photo.Key)

	if err = c.renderForDisplay(photo.Key, &buf); err != nil {
		l.Error("error loading photo", "error", err)
		c.dropUnreadable(w, r, photo, err)
		httphelpers.WriteText(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to load photo: %s", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.Header().Set("Cache-Control", "private, max-age=300")

	if _, err = io.Copy(w, &buf); err != nil {
		l.Error("error writing photo", "error", err)
	}
}

/*
GET /photo/{id}/info
*/
func (c ViewerController) InfoPage(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		photo  *models.Photo
		stat   *models.SourceObject
		rc     io.ReadCloser
		bounds services.ImageBounds
	)

	id := httphelpers.GetFromRequest[string](r, "id")

	if photo, stat, err = c.lookupExisting(id); err != nil {
		c.redirectWithFlash(w, r, existenceMessage(err), true)
		return
	}

	if rc, err = c.source.Open(photo.Key); err == nil {
		bounds, err = c.decoder.DecodeBounds(rc)
		_ = rc.Close()
	}

	if err != nil {
		slog.Error("error reading photo information", "key", photo.Key, "error", err)
		c.redirectWithFlash(w, r, fmt.Sprintf("Failed to read photo information: %s", err.Error()), true)
		return
	}

	viewData := viewmodels.PhotoInfo{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		Photo:            photo,
		Name:             photo.FileName,
		Width:            bounds.Width,
		Height:           bounds.Height,
		FileSize:         formatFileSize(stat.Size),
		Modified:         formatModified(stat.LastModified, time.Local),
		ModifiedRelative: formatModifiedRelative(stat.LastModified, time.Now()),
	}

	c.renderer.Render("pages/info", viewData, w)
}

/*
GET /photo/{id}/delete
*/
func (c ViewerController) DeleteConfirmPage(w http.ResponseWriter, r *http.Request) {
	var (
		err   error
		photo *models.Photo
	)

	id := httphelpers.GetFromRequest[string](r, "id")

	if photo, _, err = c.lookupExisting(id); err != nil {
		c.redirectWithFlash(w, r, existenceMessage(err), true)
		return
	}

	if !c.permissionService.CheckWrite() {
		slog.Warn("delete refused", "id", id, "error", models.ErrDeleteNotAllowed)
		c.redirectWithFlash(w, r, deleteNotAllowedMessage, true)
		return
	}

	viewData := viewmodels.DeleteConfirm{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		Photo:    photo,
		PhotoURL: displayURL(photo),
	}

	c.renderer.Render("pages/delete-confirm", viewData, w)
}

/*
POST /photo/{id}/delete
*/
func (c ViewerController) DeleteAction(w http.ResponseWriter, r *http.Request) {
	var (
		err   error
		photo *models.Photo
	)

	id := httphelpers.GetFromRequest[string](r, "id")

	if photo, _, err = c.lookupExisting(id); err != nil {
		c.redirectWithFlash(w, r, existenceMessage(err), true)
		return
	}

	if !c.permissionService.CheckWrite() {
		slog.Warn("delete refused", "id", id, "error", models.ErrDeleteNotAllowed)
		c.redirectWithFlash(w, r, deleteNotAllowedMessage, true)
		return
	}

	l := slog.With("id", id, "key", photo.Key)

	if err = c.source.Delete(photo.Key); err != nil {
		l.Error("error deleting photo", "error", err)

		message := fmt.Sprintf("Delete failed: %s", err.Error())

		if errors.Is(err, models.ErrPhotoNotFound) {
			message = "Delete failed: the file may have been moved or deleted"
		}

		c.redirectWithFlash(w, r, message, true)
		return
	}

	if err = c.mediaIndex.DeleteByKey(photo.Key); err != nil {
		l.Error("error removing deleted photo from index", "error", err)
	}

	c.gallery.Remove(photo.Key)
	l.Info("photo deleted")

	viewer := c.loadViewer(r)
	c.pickNext(viewer)
	viewer.Flash, viewer.FlashIsError = "Photo deleted", false
	c.saveViewer(w, r, viewer)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

/*
GET /permission
*/
func (c ViewerController) PermissionPage(w http.ResponseWriter, r *http.Request) {
	viewData := viewmodels.Permission{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx:  httphelpers.IsHtmx(r),
			Message: "Library access is required to show photos",
		},
		RequiresCode: c.requiresCode,
	}

	c.renderer.Render("pages/permission", viewData, w)
}

/*
POST /permission
*/
func (c ViewerController) PermissionAction(w http.ResponseWriter, r *http.Request) {
	var (
		err error
	)

	pageName := "pages/permission"

	viewData := viewmodels.Permission{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		AccessCode:   httphelpers.GetFromRequest[string](r, "accessCode"),
		RequiresCode: c.requiresCode,
	}

	if err = c.permissionService.RequestRead(w, r, viewData.AccessCode); err != nil {
		if errors.Is(err, models.ErrPermissionDenied) {
			viewData.IsWarning = true
			viewData.Message = "Library access is required to show photos. The access code was not correct."

			c.renderer.Render(pageName, viewData, w)
			return
		}

		slog.Error("error granting library access", "error", err)
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred. Please try again."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (c ViewerController) renderForDisplay(key string, w io.Writer) error {
	var (
		err error
		rc  io.ReadCloser
		img image.Image
	)

	if rc, err = c.source.Open(key); err != nil {
		return err
	}

	defer rc.Close()

	if img, err = c.decoder.DecodeForDisplay(rc, c.maxDisplayEdge); err != nil {
		return err
	}

	return c.decoder.EncodeJPEG(w, img)
}

/*
dropUnreadable takes a photo that can't be shown out of rotation and
clears it from the viewer. Transient storage errors leave it alone.
*/
func (c ViewerController) dropUnreadable(w http.ResponseWriter, r *http.Request, photo *models.Photo, cause error) {
	viewer := c.loadViewer(r)

	if viewer.CurrentKey == photo.Key {
		viewer.CurrentID, viewer.CurrentKey = "", ""
		c.saveViewer(w, r, viewer)
	}

	if !isUnreadable(cause) {
		return
	}

	c.gallery.Remove(photo.Key)

	if err := c.mediaIndex.DeleteByKey(photo.Key); err != nil {
		slog.Error("error removing unreadable photo from index", "key", photo.Key, "error", err)
	}
}

func (c ViewerController) lookupExisting(id string) (*models.Photo, *models.SourceObject, error) {
	var (
		err   error
		photo *models.Photo
		stat  *models.SourceObject
	)

	if photo, err = c.mediaIndex.GetByID(id); err != nil {
		return nil, nil, err
	}

	if stat, err = c.source.Stat(photo.Key); err != nil {
		return photo, nil, err
	}

	return photo, stat, nil
}

func (c ViewerController) pickNext(viewer *models.Viewer) {
	viewer.Scale = gallery.DefaultScale
	key, ok := c.gallery.RandomExcept(viewer.CurrentKey)

	if !ok {
		viewer.CurrentID, viewer.CurrentKey = "", ""
		return
	}

	viewer.CurrentID, viewer.CurrentKey = "", key
}

func (c ViewerController) loadViewer(r *http.Request) *models.Viewer {
	viewer, err := c.sessionService.Get(r)

	if err != nil || viewer == nil {
		return &models.Viewer{Scale: gallery.DefaultScale}
	}

	return viewer
}

func (c ViewerController) saveViewer(w http.ResponseWriter, r *http.Request, viewer *models.Viewer) {
	var (
		err error
	)

	if err = c.sessionService.Set(r, viewer); err != nil {
		slog.Error("error setting viewer session", "error", err)
	}

	if err = c.sessionService.Save(w, r); err != nil {
		slog.Error("error saving session", "error", err)
	}
}

func (c ViewerController) redirectWithFlash(w http.ResponseWriter, r *http.Request, message string, isError bool) {
	viewer := c.loadViewer(r)
	viewer.Flash, viewer.FlashIsError = message, isError
	c.saveViewer(w, r, viewer)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c ViewerController) takeFlash(viewer *models.Viewer, viewData *viewmodels.BaseViewModel) {
	if viewer.Flash == "" {
		return
	}

	viewData.Message = viewer.Flash
	viewData.IsError = viewer.FlashIsError
	viewer.Flash, viewer.FlashIsError = "", false
}

func setMessageIfEmpty(viewData *viewmodels.BaseViewModel, message string, isError bool) {
	if viewData.Message != "" {
		return
	}

	viewData.Message = message
	viewData.IsError = isError
}

func displayURL(photo *models.Photo) string {
	return fmt.Sprintf("/photo/%s/display?v=%d", photo.ID, photo.ModifiedAt.Unix())
}

func existenceMessage(err error) string {
	if errors.Is(err, models.ErrPhotoNotFound) {
		return "Photo file does not exist"
	}

	return fmt.Sprintf("Error reading photo: %s", err.Error())
}

func formatScale(scale float64) string {
	return strconv.FormatFloat(gallery.ClampScale(scale), 'f', -1, 64)
}

/*
isUnreadable separates photos that will never display (gone, corrupt)
from storage hiccups worth trying again later.
*/
func isUnreadable(err error) bool {
	if errors.Is(err, models.ErrPhotoNotFound) || errors.Is(err, models.ErrInvalidKey) {
		return true
	}

	var decodeErr *services.DecodeError
	return errors.As(err, &decodeErr)
}
