package main

import (
	"context"
	"embed"
	"encoding/gob"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/awsconfig"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/mux"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/randomgallery/cmd/randomgallery/internal/configuration"
	"github.com/adampresley/randomgallery/cmd/randomgallery/internal/indexer"
	"github.com/adampresley/randomgallery/cmd/randomgallery/internal/viewer"
	"github.com/adampresley/randomgallery/pkg/gallery"
	"github.com/adampresley/randomgallery/pkg/models"
	"github.com/adampresley/randomgallery/pkg/services"
	_ "github.com/glebarez/sqlite"
	"github.com/rfberaldo/sqlz"
	"github.com/rfberaldo/sqlz/binds"
)

var (
	Version string = "development"
	appName string = "randomgallery"

	//go:embed app
	appFS embed.FS

	//go:embed sql-migrations
	sqlMigrationsFs embed.FS

	config configuration.Config

	/* Services */
	db                *sqlz.DB
	decoderService    services.DecoderServicer
	indexerService    indexer.IndexerService
	mediaIndexService services.MediaIndexServicer
	mediaSource       services.MediaSourcer
	permissionService services.PermissionServicer
	photoGallery      *gallery.Gallery
	renderer          rendering.TemplateRenderer
	sessionService    sessions.Session[*models.Viewer]

	/* Controllers */
	viewerController viewer.ViewerHandlers
)

func main() {
	var (
		err error
	)

	config = configuration.LoadConfig()
	setupLogger(&config, Version)

	slog.Info("configuration loaded",
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("loglevel", config.LogLevel),
		slog.String("host", config.Host),
		slog.String("source", config.Source),
		slog.Bool("allowDelete", config.AllowDelete),
	)

	slog.Debug("setting up...")

	shutdownCtx, cancel := context.WithCancel(context.Background())

	/*
	 * Setup services
	 */
	binds.Register("sqlite", binds.BindByDriver("sqlite3"))
	if db, err = sqlz.Connect("sqlite", config.DSN); err != nil {
		panic(err)
	}

	migrateDatabase()
	gob.Register(&models.Viewer{})

	cookieStore := sessions.NewCookieStore(config.CookieSecret)
	sessionService = sessions.NewSessionWrapper[*models.Viewer](cookieStore, "randomgallery", "viewer")

	mediaSource = setupMediaSource()

	renderer, err = rendering.NewGoTemplateRenderer(rendering.GoTemplateRendererConfig{
		TemplateDir:       "app",
		TemplateExtension: ".html",
		TemplateFS:        appFS,
		PagesDir:          "pages",
	})

	if err != nil {
		panic(err)
	}

	photoGallery = gallery.New()

	decoderService = services.NewDecoderService(services.DecoderServiceConfig{
		JpegQuality: 85,
		MaxPixels:   config.MaxDecodePixels,
	})

	mediaIndexService = services.NewMediaIndexService(services.MediaIndexServiceConfig{
		DB: db,
	})

	permissionService = services.NewPermissionService(services.PermissionServiceConfig{
		AccessCodeHash: config.AccessCodeHash,
		AllowDelete:    config.AllowDelete,
		SessionService: sessionService,
	})

	indexerService = indexer.NewIndexerService(indexer.IndexerConfig{
		Decoder:         decoderService,
		Gallery:         photoGallery,
		MaxIndexWorkers: config.MaxIndexWorkers,
		MediaIndex:      mediaIndexService,
		ShutdownCtx:     shutdownCtx,
		Source:          mediaSource,
	})

	loadGalleryFromIndex()

	/*
	 * Setup controllers
	 */
	viewerController = viewer.NewViewerController(viewer.ViewerControllerConfig{
		Decoder:           decoderService,
		Gallery:           photoGallery,
		IndexStatus:       indexerService,
		MaxDisplayEdge:    uint(max(config.MaxDisplayEdge, 0)),
		MediaIndex:        mediaIndexService,
		PermissionService: permissionService,
		RequiresCode:      config.AccessCodeHash != "",
		Renderer:          renderer,
		SessionService:    sessionService,
		Source:            mediaSource,
	})

	/*
	 * Setup router and http server
	 */
	slog.Debug("setting up routes...")

	permissionMiddleware := newPermissionMiddleware(
		permissionService,
		[]string{
			"/static",
			"/permission",
			"/heartbeat",
		},
	)

	protected := []mux.MiddlewareFunc{permissionMiddleware}

	routes := []mux.Route{
		{Path: "GET /heartbeat", HandlerFunc: heartbeat},
		{Path: "GET /permission", HandlerFunc: viewerController.PermissionPage},
		{Path: "POST /permission", HandlerFunc: viewerController.PermissionAction},
		{Path: "GET /", HandlerFunc: viewerController.ViewerPage, Middlewares: protected},
		{Path: "POST /next", HandlerFunc: viewerController.NextAction, Middlewares: protected},
		{Path: "POST /gesture", HandlerFunc: viewerController.Gesture, Middlewares: protected},
		{Path: "PUT /zoom", HandlerFunc: viewerController.ZoomAction, Middlewares: protected},
		{Path: "GET /photo/{id}/display", HandlerFunc: viewerController.DisplayPhoto, Middlewares: protected},
		{Path: "GET /photo/{id}/info", HandlerFunc: viewerController.InfoPage, Middlewares: protected},
		{Path: "GET /photo/{id}/delete", HandlerFunc: viewerController.DeleteConfirmPage, Middlewares: protected},
		{Path: "POST /photo/{id}/delete", HandlerFunc: viewerController.DeleteAction, Middlewares: protected},
	}

	routerConfig := mux.RouterConfig{
		Address:              config.Host,
		Debug:                Version == "development",
		ServeStaticContent:   true,
		StaticContentRootDir: "app",
		StaticContentPrefix:  "/static/",
		StaticFS:             appFS,
		HttpWriteTimeout:     60,
	}

	m := mux.SetupRouter(routerConfig, routes)
	httpServer, quit := mux.SetupServer(routerConfig, m)

	/*
	 * Start the indexer job and, for local libraries, the watcher
	 */
	setupIndexer(shutdownCtx)
	setupWatcher(shutdownCtx)

	/*
	 * Wait for graceful shutdown
	 */
	slog.Info("server started")

	<-quit

	cancel()
	mux.Shutdown(httpServer)
	slog.Info("server stopped")
}

func heartbeat(w http.ResponseWriter, r *http.Request) {
	httphelpers.TextOK(w, "OK")
}

func setupMediaSource() services.MediaSourcer {
	var (
		err error
	)

	if config.Source != "s3" {
		return services.NewFileSystemSource(services.FileSystemSourceConfig{
			Root: config.LibraryRoot,
		})
	}

	awsConfig := &awsconfig.Config{
		Endpoint:        config.AwsEndpointUrl,
		Region:          config.AwsRegion,
		AccessKeyID:     config.AwsAccessKeyId,
		SecretAccessKey: config.AwsSecretAccessKey,
	}

	retrier.Retry(func() error {
		if err = awsConfig.Load(); err != nil {
			slog.Error("failed to load AWS config. trying again", "error", err)
			return err
		}

		return nil
	})

	if err != nil {
		panic(err)
	}

	s3Client, err := s3.NewClient(awsConfig)

	if err != nil {
		panic(err)
	}

	return services.NewS3Source(services.S3SourceConfig{
		Bucket:   config.AwsBucket,
		Prefix:   config.AwsPrefix,
		S3Client: s3Client,
	})
}

/*
loadGalleryFromIndex fills the gallery with whatever the last run indexed
so photos show up while the first re-index is still going.
*/
func loadGalleryFromIndex() {
	keys, err := mediaIndexService.ListKeys()

	if err != nil {
		slog.Error("error loading gallery from index", "error", err)
		return
	}

	photoGallery.Replace(keys)
	slog.Info("gallery loaded from index", "numPhotos", len(keys))
}

func migrateDatabase() {
	var (
		err  error
		dirs []fs.DirEntry
		b    []byte
	)

	if dirs, err = sqlMigrationsFs.ReadDir("sql-migrations"); err != nil {
		panic(err)
	}

	for _, d := range dirs {
		if d.IsDir() {
			continue
		}

		if strings.HasPrefix(d.Name(), "commit") {
			if b, err = fs.ReadFile(sqlMigrationsFs, filepath.Join("sql-migrations", d.Name())); err != nil {
				panic(err)
			}

			if err = runSqlScript(b); err != nil {
				if !isIgnorableError(err) {
					panic(err)
				}
			}
		}
	}
}

func runSqlScript(script []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := db.Exec(ctx, string(script))
	return err
}

func isIgnorableError(err error) bool {
	if strings.Contains(err.Error(), "duplicate column") {
		return true
	}

	return false
}

func runIndexer() {
	if _, err := indexerService.Index(); err != nil {
		if errors.Is(err, indexer.ErrAlreadyRunning) {
			slog.Info("indexer already running. skipping...")
			return
		}

		slog.Error("library index failed", "error", err)
	}
}

func setupIndexer(ctx context.Context) {
	interval := time.Duration(max(config.IndexInterval, 1)) * time.Minute

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runIndexer()

		for {
			select {
			case <-ctx.Done():
				return

			case <-ticker.C:
				if indexerService.Running() {
					slog.Info("indexer already running. skipping...")
					continue
				}

				runIndexer()
			}
		}
	}()
}

func setupWatcher(ctx context.Context) {
	fsSource, ok := mediaSource.(services.FileSystemSource)

	if !ok || !config.WatchLibrary {
		return
	}

	watcher, err := indexer.NewWatcher(indexer.WatcherConfig{
		Debounce: 2 * time.Second,
		OnChange: runIndexer,
		Root:     fsSource.Root(),
	})

	if err != nil {
		slog.Error("error starting library watcher. changes will be picked up on the next scheduled index", "error", err)
		return
	}

	go watcher.Run(ctx)
}
