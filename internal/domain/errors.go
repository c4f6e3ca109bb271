package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrValidation          = errors.New("validation failed")
	ErrGeneration          = errors.New("image generation failed")
	ErrUpload              = errors.New("artifact upload failed")
)
