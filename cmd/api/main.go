package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"clicknail/internal/adapter/repo"
	"clicknail/internal/http/handlers"
	"clicknail/internal/http/httpapi"
	"clicknail/internal/infra"
	"clicknail/internal/infra/google"
	"clicknail/internal/providers/cloudinary"
	"clicknail/internal/providers/genai"
	"clicknail/internal/session"
	"clicknail/internal/storage"
	"clicknail/internal/thumbgen"
)

// sessionPurgeEvery is how often expired session rows are swept.
const sessionPurgeEvery = time.Hour

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	users := repo.NewUserRepo(sqlRunner)
	thumbs := repo.NewThumbnailRepo(sqlRunner)
	feedback := repo.NewFeedbackRepo(sqlRunner)

	sessionStore := session.NewPGStore(sqlRunner, cfg.SessionSecret, !cfg.IsDevelopment())

	scratch, err := storage.NewScratch(cfg.ScratchDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare scratch directory")
	}

	gemini := genai.NewClient(genai.Options{
		APIKey:      cfg.GeminiAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		VisionModel: cfg.GeminiVisionModel,
		ImagenModel: cfg.ImagenModel,
		Logger:      logger,
		MaxRetries:  cfg.ProviderMaxRetries,
	})
	uploader := thumbgen.NewCloudinaryUploader(cloudinary.NewClient(cloudinary.Options{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		BaseURL:   cfg.CloudinaryBaseURL,
		Logger:    logger,
	}))
	if !uploader.Configured() {
		logger.Warn().Msg("cloudinary credentials missing, generation requests will fail at upload")
	}

	generator := thumbgen.NewService(thumbgen.Options{
		Users:                 users,
		Thumbs:                thumbs,
		Gen:                   gemini,
		Vision:                gemini,
		Upload:                uploader,
		Scratch:               scratch,
		Logger:                logger,
		ProviderTimeout:       cfg.ProviderTimeout,
		DeleteRemoteArtifacts: cfg.DeleteRemoteArtifacts,
	})

	app := &handlers.App{
		Config:    cfg,
		Logger:    logger,
		Sessions:  sessionStore,
		Validate:  validator.New(),
		Users:     users,
		Feedback:  feedback,
		Generator: generator,
		Google:    google.NewVerifier(cfg.GoogleIssuer, cfg.GoogleClientID),
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	purgeCtx, stopPurge := context.WithCancel(ctx)
	go purgeSessions(purgeCtx, sessionStore, logger)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopPurge()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// purgeSessions sweeps expired session rows until ctx is cancelled.
func purgeSessions(ctx context.Context, store *session.PGStore, logger infra.Logger) {
	ticker := time.NewTicker(sessionPurgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.PurgeExpired(ctx); err != nil {
				logger.Warn().Err(err).Msg("session purge failed")
			}
		}
	}
}
