package assets

import (
	"errors"
	"fmt"

	"rec-admin-backend/internal/shared/storage/object"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument matches object.ErrInvalidArgument under errors.Is.
	ErrInvalidArgument = fmt.Errorf("assets: %w", object.ErrInvalidArgument)
	// ErrConflict is returned when an asset id has already been finalized.
	ErrConflict = errors.New("asset already exists")
)

// VariantUploadError reports the variant whose upload aborted a batch. Err is
// the storage error exactly as the bucket returned it.
type VariantUploadError struct {
	Code string
	Key  string
	Err  error
}

func (e *VariantUploadError) Error() string {
	return fmt.Sprintf("upload variant %s key=%s: %v", e.Code, e.Key, e.Err)
}

func (e *VariantUploadError) Unwrap() error { return e.Err }
