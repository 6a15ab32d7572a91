package assets

import "time"

type VariantResponse struct {
	Code      string `json:"code"`
	Key       string `json:"key"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"sizeBytes"`
}

// AssetResponse is the outward-facing representation of an asset.
type AssetResponse struct {
	AssetID       string            `json:"assetId"`
	RecResourceID string            `json:"recResourceId"`
	Category      string            `json:"category"`
	Title         string            `json:"title"`
	FileName      string            `json:"fileName"`
	Extension     string            `json:"extension"`
	Variants      []VariantResponse `json:"variants"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type PresignedVariantResponse struct {
	Code      string            `json:"code"`
	Key       string            `json:"key"`
	UploadURL string            `json:"uploadUrl"`
	Headers   map[string]string `json:"headers"`
}

type PresignResponse struct {
	AssetID   string                     `json:"assetId"`
	ExpiresAt time.Time                  `json:"expiresAt"`
	Variants  []PresignedVariantResponse `json:"variants"`
}

type presignRequest struct {
	FileName string `json:"fileName"`
}

type finalizeRequest struct {
	Sizes     map[string]int64 `json:"sizes"`
	Extension string           `json:"extension"`
	Title     string           `json:"title"`
	FileName  string           `json:"fileName"`
}

func toResponse(a Asset) AssetResponse {
	variants := make([]VariantResponse, 0, len(a.Variants))
	for _, v := range a.Variants {
		variants = append(variants, VariantResponse{
			Code:      v.Code,
			Key:       v.Key,
			URL:       v.URL,
			SizeBytes: v.SizeBytes,
		})
	}
	return AssetResponse{
		AssetID:       a.ID,
		RecResourceID: a.RecResourceID,
		Category:      string(a.Category),
		Title:         a.Title,
		FileName:      a.FileName,
		Extension:     a.Extension,
		Variants:      variants,
		CreatedAt:     a.CreatedAt,
	}
}

func toPresignResponse(r PresignResult) PresignResponse {
	variants := make([]PresignedVariantResponse, 0, len(r.Variants))
	for _, v := range r.Variants {
		variants = append(variants, PresignedVariantResponse{
			Code:      v.Code,
			Key:       v.Key,
			UploadURL: v.UploadURL,
			Headers:   v.Headers,
		})
	}
	return PresignResponse{AssetID: r.AssetID, ExpiresAt: r.ExpiresAt, Variants: variants}
}
