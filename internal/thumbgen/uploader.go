package thumbgen

import (
	"context"
	"fmt"

	"clicknail/internal/domain"
	"clicknail/internal/providers/cloudinary"
)

// Uploader moves finished artwork from local scratch space to durable storage
// and hands back a public URL.
type Uploader interface {
	Configured() bool
	UploadFile(ctx context.Context, path string) (string, error)
	DestroyByURL(ctx context.Context, rawURL string) error
}

// CloudinaryUploader adapts the cloudinary client to the Uploader port.
type CloudinaryUploader struct {
	client *cloudinary.Client
}

func NewCloudinaryUploader(client *cloudinary.Client) *CloudinaryUploader {
	return &CloudinaryUploader{client: client}
}

func (u *CloudinaryUploader) Configured() bool {
	return u.client.Configured()
}

func (u *CloudinaryUploader) UploadFile(ctx context.Context, path string) (string, error) {
	res, err := u.client.UploadFile(ctx, path)
	if err != nil {
		return "", err
	}
	if res.SecureURL != "" {
		return res.SecureURL, nil
	}
	return res.URL, nil
}

// DestroyByURL derives the public ID from a delivery URL and asks Cloudinary
// to remove the asset. URLs the client cannot parse are reported as upload
// errors so callers can decide whether to care.
func (u *CloudinaryUploader) DestroyByURL(ctx context.Context, rawURL string) error {
	publicID := cloudinary.PublicIDFromURL(rawURL)
	if publicID == "" {
		return fmt.Errorf("%w: cannot derive public id from %q", domain.ErrUpload, rawURL)
	}
	return u.client.Destroy(ctx, publicID)
}
