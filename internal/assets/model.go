package assets

import (
	"fmt"
	"time"
)

// Category is the top-level key segment and logical bucket an asset lives in.
type Category string

const (
	CategoryImages    Category = "images"
	CategoryDocuments Category = "documents"
)

// OriginalCode names the variant holding the file as the user supplied it.
const OriginalCode = "original"

// VariantSet is the fixed list of variants every asset of a category has.
type VariantSet struct {
	Category    Category
	Ext         string
	ContentType string
	Codes       []string
}

var (
	// ImageVariants are the original plus screen, preview and thumbnail renditions.
	ImageVariants = VariantSet{
		Category:    CategoryImages,
		Ext:         "webp",
		ContentType: "image/webp",
		Codes:       []string{OriginalCode, "scr", "pre", "thm"},
	}
	DocumentVariants = VariantSet{
		Category:    CategoryDocuments,
		Ext:         "pdf",
		ContentType: "application/pdf",
		Codes:       []string{OriginalCode},
	}
)

// VariantSetFor returns the variant set for c.
func VariantSetFor(c Category) (VariantSet, error) {
	switch c {
	case CategoryImages:
		return ImageVariants, nil
	case CategoryDocuments:
		return DocumentVariants, nil
	default:
		return VariantSet{}, fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, c)
	}
}

// Has reports whether code belongs to the set.
func (v VariantSet) Has(code string) bool {
	for _, c := range v.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// VariantSpec is one rendition to upload. Metadata is attached to the object
// as tags.
type VariantSpec struct {
	Code     string
	Body     []byte
	Metadata map[string]string
}

// UploadedVariant is a variant durably written by UploadVariants.
type UploadedVariant struct {
	Code string
	Key  string
}

// Variant is the persisted record of one stored rendition.
type Variant struct {
	Code      string
	Key       string
	SizeBytes int64
	URL       string
}

// Asset is a finalized multi-variant file owned by a recreation resource.
type Asset struct {
	ID            string
	RecResourceID string
	Category      Category
	Title         string
	FileName      string
	Extension     string
	Variants      []Variant
	CreatedAt     time.Time
}

// Variant returns the variant with the given code.
func (a Asset) Variant(code string) (Variant, bool) {
	for _, v := range a.Variants {
		if v.Code == code {
			return v, true
		}
	}
	return Variant{}, false
}

type SessionState string

const (
	SessionRequested SessionState = "requested"
	SessionPresigned SessionState = "presigned"
	SessionFinalized SessionState = "finalized"
)

// UploadSession tracks a presign that has not necessarily been finalized.
// Sessions still in requested or presigned past ExpiresAt point at objects no
// asset row references.
type UploadSession struct {
	AssetID       string
	RecResourceID string
	Category      Category
	FileName      string
	State         SessionState
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
