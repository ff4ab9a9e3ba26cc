package models

import "errors"

// Sentinel errors for the storefront domain. Services wrap these with
// fmt.Errorf("...: %w", err); the HTTP layer maps them to status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrUpload             = errors.New("upload failed")
	ErrOutOfStock         = errors.New("out of stock")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidTransition  = errors.New("invalid status transition")
)
