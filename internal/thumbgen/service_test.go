package thumbgen

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"clicknail/internal/domain"
	"clicknail/internal/storage"
)

type stubUsers struct {
	user       *domain.User
	getErr     error
	spendLeft  int
	spendErr   error
	spendCalls int
}

func (s *stubUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.user, nil
}

func (s *stubUsers) SpendCredit(ctx context.Context, userID string) (int, error) {
	s.spendCalls++
	if s.spendErr != nil {
		return 0, s.spendErr
	}
	return s.spendLeft, nil
}

type stubThumbs struct {
	created     *domain.Thumbnail
	createErr   error
	setImageURL string
	failedID    string
	deletedURL  string
	deleteErr   error

	// ctxAware makes writes fail on a dead context, the way a real pool would.
	ctxAware bool
}

func (s *stubThumbs) Create(ctx context.Context, t *domain.Thumbnail) (*domain.Thumbnail, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	out := *t
	out.ID = "thumb-1"
	out.IsGenerating = true
	s.created = &out
	return &out, nil
}

func (s *stubThumbs) Get(ctx context.Context, id, userID string) (*domain.Thumbnail, error) {
	return nil, domain.ErrNotFound
}

func (s *stubThumbs) List(ctx context.Context, userID string) ([]domain.Thumbnail, error) {
	return nil, nil
}

func (s *stubThumbs) SetImage(ctx context.Context, id, userID, imageURL string) (*domain.Thumbnail, error) {
	s.setImageURL = imageURL
	out := *s.created
	out.IsGenerating = false
	out.ImageURL = imageURL
	return &out, nil
}

func (s *stubThumbs) MarkFailed(ctx context.Context, id string) error {
	if s.ctxAware && ctx.Err() != nil {
		return ctx.Err()
	}
	s.failedID = id
	return nil
}

func (s *stubThumbs) Delete(ctx context.Context, id, userID string) (string, error) {
	if s.deleteErr != nil {
		return "", s.deleteErr
	}
	return s.deletedURL, nil
}

type stubGen struct {
	prompt string
	aspect string
	calls  int
	err    error

	// cancel simulates the client disconnecting while the provider call is
	// in flight.
	cancel context.CancelFunc
}

func (s *stubGen) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	s.calls++
	s.prompt = prompt
	s.aspect = aspectRatio
	if s.cancel != nil {
		s.cancel()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return []byte("png-bytes"), nil
}

type stubVision struct {
	desc string
	err  error
}

func (s *stubVision) DescribeFace(ctx context.Context, imageBytes []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.desc, nil
}

type stubUploader struct {
	url           string
	uploadErr     error
	uploadedPath  string
	uploadedPaths []string
	destroyedURL  string
	destroyErr    error
}

func (s *stubUploader) Configured() bool { return true }

func (s *stubUploader) UploadFile(ctx context.Context, path string) (string, error) {
	s.uploadedPath = path
	s.uploadedPaths = append(s.uploadedPaths, path)
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	return s.url, nil
}

func (s *stubUploader) DestroyByURL(ctx context.Context, rawURL string) error {
	s.destroyedURL = rawURL
	return s.destroyErr
}

func newTestService(t *testing.T, users *stubUsers, thumbs *stubThumbs, gen *stubGen, vision *stubVision, up *stubUploader, deleteRemote bool) *Service {
	t.Helper()
	scratch, err := storage.NewScratch(t.TempDir())
	if err != nil {
		t.Fatalf("scratch: %v", err)
	}
	return NewService(Options{
		Users:                 users,
		Thumbs:                thumbs,
		Gen:                   gen,
		Vision:                vision,
		Upload:                up,
		Scratch:               scratch,
		Logger:                zerolog.Nop(),
		DeleteRemoteArtifacts: deleteRemote,
	})
}

func TestGenerateRejectsEmptyBalanceBeforeAnyWork(t *testing.T) {
	users := &stubUsers{user: &domain.User{ID: "u1", Credits: 0}}
	thumbs := &stubThumbs{}
	gen := &stubGen{}
	svc := newTestService(t, users, thumbs, gen, nil, &stubUploader{url: "https://cdn.test/x.png"}, false)

	_, err := svc.Generate(context.Background(), GenerateRequest{UserID: "u1", Title: "Test"})
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if thumbs.created != nil {
		t.Fatal("no attempt row should exist for a rejected request")
	}
	if gen.calls != 0 {
		t.Fatalf("generator called %d times for a rejected request", gen.calls)
	}
}

func TestGenerateSuccessSpendsExactlyOneCredit(t *testing.T) {
	users := &stubUsers{user: &domain.User{ID: "u1", Credits: 3}, spendLeft: 2}
	thumbs := &stubThumbs{}
	gen := &stubGen{}
	up := &stubUploader{url: "https://cdn.test/final.png"}
	svc := newTestService(t, users, thumbs, gen, nil, up, false)

	res, err := svc.Generate(context.Background(), GenerateRequest{
		UserID: "u1",
		Title:  "Test Video",
		Style:  "Minimalist",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if users.spendCalls != 1 {
		t.Fatalf("spend called %d times, want 1", users.spendCalls)
	}
	if res.RemainingCredits != 2 {
		t.Fatalf("remaining = %d, want 2", res.RemainingCredits)
	}
	if res.Thumbnail.ImageURL != "https://cdn.test/final.png" {
		t.Fatalf("image url = %q", res.Thumbnail.ImageURL)
	}
	if res.Thumbnail.IsGenerating {
		t.Fatal("finished thumbnail still marked generating")
	}
	if thumbs.setImageURL != up.url {
		t.Fatalf("stored url = %q, want %q", thumbs.setImageURL, up.url)
	}
	if gen.aspect != domain.DefaultAspectRatio {
		t.Fatalf("aspect = %q, want default", gen.aspect)
	}
}

func TestGenerateCleansUpScratchFile(t *testing.T) {
	users := &stubUsers{user: &domain.User{ID: "u1", Credits: 1}, spendLeft: 0}
	up := &stubUploader{url: "https://cdn.test/final.png"}
	svc := newTestService(t, users, &stubThumbs{}, &stubGen{}, nil, up, false)

	if _, err := svc.Generate(context.Background(), GenerateRequest{UserID: "u1", Title: "T"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if up.uploadedPath == "" {
		t.Fatal("nothing was uploaded")
	}
	if _, err := os.Stat(up.uploadedPath); !os.IsNotExist(err) {
		t.Fatalf("scratch file %s still exists (stat err %v)", up.uploadedPath, err)
	}
}

func TestGenerateMarksAttemptFailedAndKeepsCredit(t *testing.T) {
	users := &stubUsers{user: &domain.User{ID: "u1", Credits: 2}}
	thumbs := &stubThumbs{}
	gen := &stubGen{err: domain.ErrGeneration}
	svc := newTestService(t, users, thumbs, gen, nil, &stubUploader{}, false)

	_, err := svc.Generate(context.Background(), GenerateRequest{UserID: "u1", Title: "T"})
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if thumbs.created == nil || !thumbs.created.IsGenerating {
		t.Fatal("attempt row should exist in generating state before the provider call")
	}
	if thumbs.failedID != "thumb-1" {
		t.Fatalf("failed id = %q, want thumb-1", thumbs.failedID)
	}
	if users.spendCalls != 0 {
		t.Fatalf("spend called %d times on a failed attempt", users.spendCalls)
	}
}

func TestGenerateMarksAttemptFailedAfterClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	users := &stubUsers{user: &domain.User{ID: "u1", Credits: 1}}
	thumbs := &stubThumbs{ctxAware: true}
	gen := &stubGen{cancel: cancel}
	svc := newTestService(t, users, thumbs, gen, nil, &stubUploader{}, false)

	_, err := svc.Generate(ctx, GenerateRequest{UserID: "u1", Title: "T"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if thumbs.failedID != "thumb-1" {
		t.Fatalf("failed id = %q, want thumb-1; the row must leave its generating state even when the request context is dead", thumbs.failedID)
	}
	if users.spendCalls != 0 {
		t.Fatal("credit spent on an abandoned attempt")
	}
}

func TestGenerateUploadFailureMarksAttemptFailed(t *testing.T) {
	users := &stubUsers{user: &domain.User{ID: "u1", Credits: 1}}
	thumbs := &stubThumbs{}
	up := &stubUploader{uploadErr: domain.ErrUpload}
	svc := newTestService(t, users, thumbs, &stubGen{}, nil, up, false)

	_, err := svc.Generate(context.Background(), GenerateRequest{UserID: "u1", Title: "T"})
	if !errors.Is(err, domain.ErrUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if thumbs.failedID != "thumb-1" {
		t.Fatalf("failed id = %q, want thumb-1", thumbs.failedID)
	}
	if users.spendCalls != 0 {
		t.Fatal("credit spent despite upload failure")
	}
}

func TestGenerateLostSpendRaceStillReturnsThumbnail(t *testing.T) {
	users := &stubUsers{user: &domain.User{ID: "u1", Credits: 1}, spendErr: domain.ErrInsufficientCredits}
	svc := newTestService(t, users, &stubThumbs{}, &stubGen{}, nil, &stubUploader{url: "https://cdn.test/x.png"}, false)

	res, err := svc.Generate(context.Background(), GenerateRequest{UserID: "u1", Title: "T"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.RemainingCredits != 0 {
		t.Fatalf("remaining = %d, want 0 after a lost spend race", res.RemainingCredits)
	}
	if res.Thumbnail.ImageURL == "" {
		t.Fatal("thumbnail should survive a lost spend race")
	}
}

func TestGenerateFaceDescriptionFoldedIntoPrompt(t *testing.T) {
	users := &stubUsers{user: &domain.User{ID: "u1", Credits: 1}, spendLeft: 0}
	gen := &stubGen{}
	vision := &stubVision{desc: "a man in his 30s with a short beard"}
	svc := newTestService(t, users, &stubThumbs{}, gen, vision, &stubUploader{url: "https://cdn.test/x.png"}, false)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		UserID:    "u1",
		Title:     "T",
		FaceImage: []byte("jpeg"),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(gen.prompt, "MUST look like this: a man in his 30s with a short beard") {
		t.Fatalf("prompt missing likeness clause:\n%s", gen.prompt)
	}
}

func TestGenerateStagesAndUploadsReferencePhoto(t *testing.T) {
	users := &stubUsers{user: &domain.User{ID: "u1", Credits: 1}, spendLeft: 0}
	up := &stubUploader{url: "https://cdn.test/x.png"}
	vision := &stubVision{desc: "a woman with red hair"}
	svc := newTestService(t, users, &stubThumbs{}, &stubGen{}, vision, up, false)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		UserID:    "u1",
		Title:     "T",
		FaceImage: []byte("jpeg"),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(up.uploadedPaths) != 2 {
		t.Fatalf("uploads = %d, want reference photo plus thumbnail", len(up.uploadedPaths))
	}
	if !strings.Contains(up.uploadedPaths[0], "face-") {
		t.Fatalf("first upload %q should be the staged face photo", up.uploadedPaths[0])
	}
	if _, statErr := os.Stat(up.uploadedPaths[0]); !os.IsNotExist(statErr) {
		t.Fatalf("face scratch file %s still exists", up.uploadedPaths[0])
	}
}

func TestGenerateFaceAnalysisFailureDegradesSilently(t *testing.T) {
	users := &stubUsers{user: &domain.User{ID: "u1", Credits: 1}, spendLeft: 0}
	gen := &stubGen{}
	vision := &stubVision{err: errors.New("model unavailable")}
	svc := newTestService(t, users, &stubThumbs{}, gen, vision, &stubUploader{url: "https://cdn.test/x.png"}, false)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		UserID:    "u1",
		Title:     "T",
		FaceImage: []byte("jpeg"),
	})
	if err != nil {
		t.Fatalf("generate should survive a failed face analysis: %v", err)
	}
	if strings.Contains(gen.prompt, "CHARACTER DETAILS") {
		t.Fatalf("prompt should have no likeness clause:\n%s", gen.prompt)
	}
}

func TestDeleteRemovesRemoteArtifactWhenEnabled(t *testing.T) {
	thumbs := &stubThumbs{deletedURL: "https://res.cloudinary.com/demo/image/upload/v1/thumbnails/abc.png"}
	up := &stubUploader{}
	svc := newTestService(t, &stubUsers{}, thumbs, &stubGen{}, nil, up, true)

	if err := svc.Delete(context.Background(), "thumb-1", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if up.destroyedURL != thumbs.deletedURL {
		t.Fatalf("destroyed %q, want %q", up.destroyedURL, thumbs.deletedURL)
	}
}

func TestDeleteLeavesRemoteArtifactByDefault(t *testing.T) {
	thumbs := &stubThumbs{deletedURL: "https://res.cloudinary.com/demo/image/upload/v1/thumbnails/abc.png"}
	up := &stubUploader{}
	svc := newTestService(t, &stubUsers{}, thumbs, &stubGen{}, nil, up, false)

	if err := svc.Delete(context.Background(), "thumb-1", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if up.destroyedURL != "" {
		t.Fatalf("remote artifact destroyed while the toggle is off: %q", up.destroyedURL)
	}
}

func TestDeletePropagatesNotFound(t *testing.T) {
	thumbs := &stubThumbs{deleteErr: domain.ErrNotFound}
	svc := newTestService(t, &stubUsers{}, thumbs, &stubGen{}, nil, &stubUploader{}, true)

	if err := svc.Delete(context.Background(), "other", "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
