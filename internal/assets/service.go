package assets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"rec-admin-backend/internal/shared/storage/object"
	"rec-admin-backend/internal/shared/telemetry"
	"rec-admin-backend/internal/shared/util"
)

const (
	defaultPresignTTL  = 15 * time.Minute
	defaultDownloadTTL = time.Hour

	filenameTag = "filename"
)

// Service runs the presign/finalize protocol and asset lifecycle for one
// category.
type Service struct {
	Coordinator *Coordinator
	Address     object.AddressConfig
	Owners      OwnerRepo
	Repo        Repo
	PresignTTL  time.Duration
	DownloadTTL time.Duration

	now   func() time.Time
	newID func() string
}

// PresignedVariant is an upload target for one variant. Headers must be sent
// unchanged with the PUT since they are part of the signature.
type PresignedVariant struct {
	Code      string
	Key       string
	UploadURL string
	Headers   map[string]string
}

// PresignResult is everything a client needs to upload an asset directly.
type PresignResult struct {
	AssetID   string
	ExpiresAt time.Time
	Variants  []PresignedVariant
}

// FinalizeInput carries what the client reports after uploading.
type FinalizeInput struct {
	Sizes     map[string]int64
	Extension string
	Title     string
	FileName  string
}

// UploadInput is a server-side upload of a complete variant set.
type UploadInput struct {
	Title    string
	FileName string
	Variants []VariantSpec
}

func (s *Service) category() Category {
	return s.Coordinator.Variants.Category
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func (s *Service) id() string {
	if s.newID != nil {
		return s.newID()
	}
	return uuid.NewString()
}

// Presign issues one signed PUT URL per variant of the set under a fresh
// asset id. Nothing is written to the asset table; an upload session is
// recorded so unfinished uploads stay discoverable.
func (s *Service) Presign(ctx context.Context, recResourceID, fileName string) (PresignResult, error) {
	recResourceID = strings.TrimSpace(recResourceID)
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return PresignResult{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := s.requireOwner(ctx, recResourceID); err != nil {
		return PresignResult{}, err
	}

	ttl := s.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	now := s.clock()
	assetID := s.id()
	session := UploadSession{
		AssetID:       assetID,
		RecResourceID: recResourceID,
		Category:      s.category(),
		FileName:      name,
		State:         SessionRequested,
		ExpiresAt:     now.Add(ttl),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.SaveSession(ctx, session); err != nil {
		return PresignResult{}, err
	}

	bucket, err := s.Coordinator.handle()
	if err != nil {
		return PresignResult{}, err
	}
	set := s.Coordinator.Variants
	result := PresignResult{AssetID: assetID, ExpiresAt: session.ExpiresAt}
	for _, code := range set.Codes {
		key, err := VariantKey(set.Category, recResourceID, assetID, code, set.Ext)
		if err != nil {
			return PresignResult{}, err
		}
		var tags map[string]string
		if code == OriginalCode {
			tags = map[string]string{filenameTag: name}
		}

		uploadURL, err := bucket.PresignPut(ctx, object.PresignPutInput{
			Key:         key,
			ContentType: set.ContentType,
			Tags:        tags,
			Expires:     ttl,
		})
		if err != nil {
			telemetry.Error("assets.presign.failed", map[string]any{
				"asset_id": assetID,
				"key":      key,
				"error":    err,
			})
			return PresignResult{}, err
		}

		headers := map[string]string{"Content-Type": set.ContentType}
		if tags != nil {
			headers["x-amz-tagging"] = url.Values{filenameTag: {name}}.Encode()
		}
		result.Variants = append(result.Variants, PresignedVariant{
			Code:      code,
			Key:       key,
			UploadURL: uploadURL,
			Headers:   headers,
		})
	}

	if err := s.Repo.UpdateSessionState(ctx, assetID, SessionPresigned, s.clock()); err != nil {
		return PresignResult{}, err
	}

	telemetry.Info("assets.presigned", map[string]any{
		"category":        string(set.Category),
		"rec_resource_id": recResourceID,
		"asset_id":        assetID,
		"variants":        len(result.Variants),
	})
	return result, nil
}

// Finalize records the asset uploaded against a presign. The owner is checked
// before anything is written. Sizes are taken from the client as reported.
func (s *Service) Finalize(ctx context.Context, recResourceID, assetID string, in FinalizeInput) (Asset, error) {
	recResourceID = strings.TrimSpace(recResourceID)
	assetID = strings.TrimSpace(assetID)
	if err := s.requireOwner(ctx, recResourceID); err != nil {
		return Asset{}, err
	}
	if _, err := uuid.Parse(assetID); err != nil {
		return Asset{}, fmt.Errorf("%w: invalid asset id", ErrInvalidArgument)
	}

	set := s.Coordinator.Variants
	for code := range in.Sizes {
		if !set.Has(code) {
			return Asset{}, fmt.Errorf("%w: unknown variant %q", ErrInvalidArgument, code)
		}
	}

	fileName := strings.TrimSpace(in.FileName)
	session, err := s.Repo.GetSession(ctx, assetID)
	switch {
	case err == nil:
		if session.RecResourceID != recResourceID || session.Category != set.Category {
			return Asset{}, ErrNotFound
		}
		if session.State == SessionFinalized {
			return Asset{}, ErrConflict
		}
		if fileName == "" {
			fileName = session.FileName
		}
	case errors.Is(err, ErrNotFound):
		// Keys are derived, so an asset can be finalized without its session.
	default:
		return Asset{}, err
	}

	ext := strings.TrimPrefix(strings.TrimSpace(in.Extension), ".")
	if ext == "" {
		ext = set.Ext
	}

	asset := Asset{
		ID:            assetID,
		RecResourceID: recResourceID,
		Category:      set.Category,
		Title:         strings.TrimSpace(in.Title),
		FileName:      fileName,
		Extension:     ext,
		CreatedAt:     s.clock(),
	}
	for _, code := range set.Codes {
		size := in.Sizes[code]
		if size <= 0 {
			return Asset{}, fmt.Errorf("%w: size for variant %q must be positive", ErrInvalidArgument, code)
		}
		key, err := VariantKey(set.Category, recResourceID, assetID, code, set.Ext)
		if err != nil {
			return Asset{}, err
		}
		asset.Variants = append(asset.Variants, Variant{Code: code, Key: key, SizeBytes: size})
	}

	if err := s.Repo.Create(ctx, asset); err != nil {
		return Asset{}, err
	}
	s.Coordinator.Metrics.IncFinalized(string(set.Category))
	telemetry.Info("assets.finalized", map[string]any{
		"category":        string(set.Category),
		"rec_resource_id": recResourceID,
		"asset_id":        assetID,
	})
	return s.withURLs(asset), nil
}

// Upload stores a complete variant set sent through the server and records
// it. If the record cannot be written the uploaded objects are removed.
func (s *Service) Upload(ctx context.Context, recResourceID string, in UploadInput) (Asset, error) {
	recResourceID = strings.TrimSpace(recResourceID)
	name, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := s.requireOwner(ctx, recResourceID); err != nil {
		return Asset{}, err
	}

	set := s.Coordinator.Variants
	if len(in.Variants) != len(set.Codes) {
		return Asset{}, fmt.Errorf("%w: expected %d variants, got %d", ErrInvalidArgument, len(set.Codes), len(in.Variants))
	}
	specs := make([]VariantSpec, 0, len(in.Variants))
	sizes := make(map[string]int64, len(in.Variants))
	for _, v := range in.Variants {
		if !set.Has(v.Code) {
			return Asset{}, fmt.Errorf("%w: unknown variant %q", ErrInvalidArgument, v.Code)
		}
		if len(v.Body) == 0 {
			return Asset{}, fmt.Errorf("%w: variant %q is empty", ErrInvalidArgument, v.Code)
		}
		if v.Code == OriginalCode {
			meta := make(map[string]string, len(v.Metadata)+1)
			for k, val := range v.Metadata {
				meta[k] = val
			}
			meta[filenameTag] = name
			v.Metadata = meta
		}
		sizes[v.Code] = int64(len(v.Body))
		specs = append(specs, v)
	}

	assetID := s.id()
	uploaded, err := s.Coordinator.UploadVariants(ctx, recResourceID, assetID, specs)
	if err != nil {
		return Asset{}, err
	}

	asset := Asset{
		ID:            assetID,
		RecResourceID: recResourceID,
		Category:      set.Category,
		Title:         strings.TrimSpace(in.Title),
		FileName:      name,
		Extension:     set.Ext,
		CreatedAt:     s.clock(),
	}
	keys := make([]string, 0, len(uploaded))
	for _, u := range uploaded {
		asset.Variants = append(asset.Variants, Variant{Code: u.Code, Key: u.Key, SizeBytes: sizes[u.Code]})
		keys = append(keys, u.Key)
	}

	if err := s.Repo.Create(ctx, asset); err != nil {
		s.Coordinator.Rollback(ctx, keys)
		return Asset{}, err
	}
	s.Coordinator.Metrics.IncFinalized(string(set.Category))
	return s.withURLs(asset), nil
}

// List returns the owner's assets, newest first.
func (s *Service) List(ctx context.Context, recResourceID string) ([]Asset, error) {
	recResourceID = strings.TrimSpace(recResourceID)
	if err := s.requireOwner(ctx, recResourceID); err != nil {
		return nil, err
	}
	list, err := s.Repo.ListByOwner(ctx, s.category(), recResourceID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = s.withURLs(list[i])
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, recResourceID, assetID string) (Asset, error) {
	assetID, err := parseAssetID(assetID)
	if err != nil {
		return Asset{}, err
	}
	asset, err := s.Repo.Get(ctx, s.category(), strings.TrimSpace(recResourceID), assetID)
	if err != nil {
		return Asset{}, err
	}
	return s.withURLs(asset), nil
}

// Delete removes every stored variant and then the record. When storage
// fails the record is kept so the delete can be retried.
func (s *Service) Delete(ctx context.Context, recResourceID, assetID string) error {
	recResourceID = strings.TrimSpace(recResourceID)
	assetID, err := parseAssetID(assetID)
	if err != nil {
		return err
	}
	if _, err := s.Repo.Get(ctx, s.category(), recResourceID, assetID); err != nil {
		return err
	}
	if err := s.Coordinator.DeleteVariants(ctx, recResourceID, assetID); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, s.category(), recResourceID, assetID)
}

// DownloadURL returns a signed GET URL for one variant, the original when
// code is empty.
func (s *Service) DownloadURL(ctx context.Context, recResourceID, assetID, code string) (string, error) {
	if code = strings.TrimSpace(code); code == "" {
		code = OriginalCode
	}
	if !s.Coordinator.Variants.Has(code) {
		return "", fmt.Errorf("%w: unknown variant %q", ErrInvalidArgument, code)
	}
	assetID, err := parseAssetID(assetID)
	if err != nil {
		return "", err
	}
	asset, err := s.Repo.Get(ctx, s.category(), strings.TrimSpace(recResourceID), assetID)
	if err != nil {
		return "", err
	}
	v, ok := asset.Variant(code)
	if !ok {
		return "", ErrNotFound
	}

	ttl := s.DownloadTTL
	if ttl <= 0 {
		ttl = defaultDownloadTTL
	}
	bucket, err := s.Coordinator.handle()
	if err != nil {
		return "", err
	}
	return bucket.PresignGet(ctx, v.Key, ttl)
}

// parseAssetID trims id and rejects anything that is not a UUID. No asset can
// exist under such an id, so the result is ErrNotFound.
func parseAssetID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: asset %q", ErrNotFound, id)
	}
	return id, nil
}

func (s *Service) requireOwner(ctx context.Context, recResourceID string) error {
	if recResourceID == "" {
		return fmt.Errorf("%w: rec resource id is required", ErrInvalidArgument)
	}
	ok, err := s.Owners.Exists(ctx, recResourceID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: recreation resource %s", ErrNotFound, recResourceID)
	}
	return nil
}

func (s *Service) withURLs(a Asset) Asset {
	for i := range a.Variants {
		a.Variants[i].URL = object.PublicURL(a.Variants[i].Key, s.Address)
	}
	return a
}
