package thumbgen

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"clicknail/internal/domain"
	"clicknail/internal/storage"
)

// UserStore is the slice of the user repository the pipeline needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	SpendCredit(ctx context.Context, userID string) (int, error)
}

// ThumbnailStore persists generation attempts and finished thumbnails.
type ThumbnailStore interface {
	Create(ctx context.Context, t *domain.Thumbnail) (*domain.Thumbnail, error)
	Get(ctx context.Context, id, userID string) (*domain.Thumbnail, error)
	List(ctx context.Context, userID string) ([]domain.Thumbnail, error)
	SetImage(ctx context.Context, id, userID, imageURL string) (*domain.Thumbnail, error)
	MarkFailed(ctx context.Context, id string) error
	Delete(ctx context.Context, id, userID string) (string, error)
}

// ImageGenerator renders a prompt into raw image bytes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error)
}

// FaceDescriber turns a reference photo into a textual likeness description.
type FaceDescriber interface {
	DescribeFace(ctx context.Context, imageBytes []byte) (string, error)
}

// Options wires the pipeline's collaborators.
type Options struct {
	Users   UserStore
	Thumbs  ThumbnailStore
	Gen     ImageGenerator
	Vision  FaceDescriber
	Upload  Uploader
	Scratch *storage.Scratch
	Logger  zerolog.Logger

	// ProviderTimeout bounds each external call. Zero means no deadline
	// beyond the caller's context.
	ProviderTimeout time.Duration

	// DeleteRemoteArtifacts also removes the hosted image when a
	// thumbnail row is deleted.
	DeleteRemoteArtifacts bool
}

// Service runs the generation pipeline: credit check, attempt row, optional
// face analysis, prompt assembly, image generation, upload, and the final
// credit spend.
type Service struct {
	users        UserStore
	thumbs       ThumbnailStore
	gen          ImageGenerator
	vision       FaceDescriber
	upload       Uploader
	scratch      *storage.Scratch
	logger       zerolog.Logger
	timeout      time.Duration
	deleteRemote bool
}

func NewService(opts Options) *Service {
	return &Service{
		users:        opts.Users,
		thumbs:       opts.Thumbs,
		gen:          opts.Gen,
		vision:       opts.Vision,
		upload:       opts.Upload,
		scratch:      opts.Scratch,
		logger:       opts.Logger,
		timeout:      opts.ProviderTimeout,
		deleteRemote: opts.DeleteRemoteArtifacts,
	}
}

// GenerateRequest carries the validated form fields of one generation attempt.
type GenerateRequest struct {
	UserID       string
	Title        string
	UserPrompt   string
	Style        string
	ColorScheme  string
	AspectRatio  string
	TemplatePack string

	// FaceImage is an optional reference photo. When present the vision
	// model describes the person and the description is folded into the
	// prompt.
	FaceImage []byte
}

// GenerateResult is a finished thumbnail plus the balance after the spend.
type GenerateResult struct {
	Thumbnail        *domain.Thumbnail
	RemainingCredits int
}

// Generate runs one attempt end to end. The attempt row is created before any
// provider call so failed attempts stay visible; on provider failure the row
// is marked failed and the user keeps the credit.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.Credits < 1 {
		return nil, domain.ErrInsufficientCredits
	}

	aspect := req.AspectRatio
	if aspect == "" {
		aspect = domain.DefaultAspectRatio
	}

	thumb, err := s.thumbs.Create(ctx, &domain.Thumbnail{
		UserID:       req.UserID,
		Title:        req.Title,
		UserPrompt:   req.UserPrompt,
		Style:        req.Style,
		ColorScheme:  req.ColorScheme,
		AspectRatio:  aspect,
		TemplatePack: req.TemplatePack,
	})
	if err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	faceDesc := s.describeFace(ctx, req.FaceImage)

	prompt := AssemblePrompt(PromptInput{
		Title:           req.Title,
		Style:           req.Style,
		ColorScheme:     req.ColorScheme,
		TemplatePack:    req.TemplatePack,
		FaceDescription: faceDesc,
		UserPrompt:      req.UserPrompt,
		AspectRatio:     aspect,
	})

	imageBytes, err := s.generateImage(ctx, prompt, aspect)
	if err != nil {
		s.abandon(ctx, thumb.ID)
		return nil, err
	}

	tmpPath, err := s.scratch.WriteTemp("thumbnail", imageBytes)
	if err != nil {
		s.abandon(ctx, thumb.ID)
		return nil, fmt.Errorf("write scratch file: %w", err)
	}
	defer func() {
		if err := s.scratch.Remove(tmpPath); err != nil {
			s.logger.Warn().Err(err).Str("path", tmpPath).Msg("scratch cleanup failed")
		}
	}()

	imageURL, err := s.uploadImage(ctx, tmpPath)
	if err != nil {
		s.abandon(ctx, thumb.ID)
		return nil, err
	}

	updated, err := s.thumbs.SetImage(ctx, thumb.ID, req.UserID, imageURL)
	if err != nil {
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}

	remaining, err := s.users.SpendCredit(ctx, req.UserID)
	if err != nil {
		// The balance moved under us after the upfront check. The work
		// is already done, so keep the thumbnail and report empty.
		s.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("credit spend failed after generation")
		remaining = 0
	}

	return &GenerateResult{Thumbnail: updated, RemainingCredits: remaining}, nil
}

// List returns every thumbnail the user owns, oldest first.
func (s *Service) List(ctx context.Context, userID string) ([]domain.Thumbnail, error) {
	return s.thumbs.List(ctx, userID)
}

// Get returns one thumbnail, scoped to its owner.
func (s *Service) Get(ctx context.Context, id, userID string) (*domain.Thumbnail, error) {
	return s.thumbs.Get(ctx, id, userID)
}

// Delete removes the row and, when enabled, the hosted image behind it. The
// remote removal is best effort; the row is already gone when it runs.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	imageURL, err := s.thumbs.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if s.deleteRemote && imageURL != "" {
		if err := s.upload.DestroyByURL(ctx, imageURL); err != nil {
			s.logger.Warn().Err(err).Str("thumbnail_id", id).Msg("remote artifact removal failed")
		}
	}
	return nil
}

// describeFace is best effort: any failure degrades to no likeness clause
// rather than failing the attempt. The photo is staged to the scratch dir and
// pushed to the object store as a reference copy before the vision call.
func (s *Service) describeFace(ctx context.Context, imageBytes []byte) string {
	if len(imageBytes) == 0 || s.vision == nil {
		return ""
	}

	facePath, err := s.scratch.WriteTemp("face", imageBytes)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not stage face photo, continuing without likeness")
		return ""
	}
	defer func() {
		if err := s.scratch.Remove(facePath); err != nil {
			s.logger.Warn().Err(err).Str("path", facePath).Msg("scratch cleanup failed")
		}
	}()

	if s.upload != nil && s.upload.Configured() {
		refCtx, cancel := s.providerContext(ctx)
		if _, err := s.upload.UploadFile(refCtx, facePath); err != nil {
			s.logger.Warn().Err(err).Msg("reference photo upload failed")
		}
		cancel()
	}

	callCtx, cancel := s.providerContext(ctx)
	defer cancel()

	desc, err := s.vision.DescribeFace(callCtx, imageBytes)
	if err != nil {
		s.logger.Warn().Err(err).Msg("face analysis failed, continuing without likeness")
		return ""
	}
	return desc
}

func (s *Service) generateImage(ctx context.Context, prompt, aspect string) ([]byte, error) {
	callCtx, cancel := s.providerContext(ctx)
	defer cancel()
	return s.gen.GenerateImage(callCtx, prompt, aspect)
}

func (s *Service) uploadImage(ctx context.Context, path string) (string, error) {
	callCtx, cancel := s.providerContext(ctx)
	defer cancel()
	return s.upload.UploadFile(callCtx, path)
}

func (s *Service) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// abandon marks the attempt failed without masking the pipeline error that
// got us here. The write runs on a detached context: the request context is
// already canceled when the client disconnected mid-generation, and the row
// must still leave its generating state.
func (s *Service) abandon(ctx context.Context, thumbnailID string) {
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.thumbs.MarkFailed(failCtx, thumbnailID); err != nil {
		s.logger.Error().Err(err).Str("thumbnail_id", thumbnailID).Msg("could not mark attempt failed")
	}
}
