package assets

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rec-admin-backend/internal/shared/server/respond"
	"rec-admin-backend/internal/shared/storage/object"
)

const defaultMaxUploadSize = 25 << 20 // 25MB

// Handler wires HTTP handlers to one category's service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
	// Write runs before presign and upload, e.g. a rate limiter.
	Write []gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: defaultMaxUploadSize}
}

// RegisterRoutes attaches the category's routes under
// /recreation-resources/:rec_resource_id/{category}.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/recreation-resources/:rec_resource_id/" + string(h.Svc.category()))

	g.GET("", h.list)
	g.POST("", append(append([]gin.HandlerFunc{}, h.Write...), h.upload)...)
	g.POST("/presign", append(append([]gin.HandlerFunc{}, h.Write...), h.presign)...)
	g.GET("/:asset_id", h.get)
	g.DELETE("/:asset_id", h.delete)
	g.POST("/:asset_id/finalize", h.finalize)
	g.GET("/:asset_id/download", h.download)
}

func (h *Handler) presign(c *gin.Context) {
	fileName := strings.TrimSpace(c.Query("fileName"))
	if fileName == "" && c.Request.ContentLength > 0 {
		var req presignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
		fileName = strings.TrimSpace(req.FileName)
	}
	if fileName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileName is required", nil)
		return
	}

	res, err := h.Svc.Presign(c.Request.Context(), c.Param("rec_resource_id"), fileName)
	if err != nil {
		writeError(c, err, "failed to presign upload")
		return
	}
	c.Set("assetId", res.AssetID)
	respond.JSON(c, http.StatusOK, toPresignResponse(res))
}

func (h *Handler) finalize(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if len(req.Sizes) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sizes are required", nil)
		return
	}

	assetID := c.Param("asset_id")
	c.Set("assetId", assetID)
	asset, err := h.Svc.Finalize(c.Request.Context(), c.Param("rec_resource_id"), assetID, FinalizeInput{
		Sizes:     req.Sizes,
		Extension: req.Extension,
		Title:     req.Title,
		FileName:  req.FileName,
	})
	if err != nil {
		writeError(c, err, "failed to finalize upload")
		return
	}
	respond.Created(c, toResponse(asset))
}

// upload accepts one multipart file per variant code plus an optional title.
// The original variant's file name is recorded as the asset file name.
func (h *Handler) upload(c *gin.Context) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadSize
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	set := h.Svc.Coordinator.Variants
	in := UploadInput{Title: c.PostForm("title")}
	for _, code := range set.Codes {
		fileHeader, err := c.FormFile(code)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", fmt.Sprintf("file %q is required", code), nil)
			return
		}
		body, err := readFormFile(fileHeader)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
			return
		}
		if code == OriginalCode {
			in.FileName = fileHeader.Filename
		}
		in.Variants = append(in.Variants, VariantSpec{Code: code, Body: body})
	}

	asset, err := h.Svc.Upload(c.Request.Context(), c.Param("rec_resource_id"), in)
	if err != nil {
		writeError(c, err, "failed to upload asset")
		return
	}
	c.Set("assetId", asset.ID)
	respond.Created(c, toResponse(asset))
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), c.Param("rec_resource_id"))
	if err != nil {
		writeError(c, err, "failed to list assets")
		return
	}
	resp := make([]AssetResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, toResponse(a))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	asset, err := h.Svc.Get(c.Request.Context(), c.Param("rec_resource_id"), c.Param("asset_id"))
	if err != nil {
		writeError(c, err, "failed to fetch asset")
		return
	}
	respond.OK(c, toResponse(asset))
}

func (h *Handler) delete(c *gin.Context) {
	assetID := c.Param("asset_id")
	c.Set("assetId", assetID)
	if err := h.Svc.Delete(c.Request.Context(), c.Param("rec_resource_id"), assetID); err != nil {
		writeError(c, err, "failed to delete asset")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) download(c *gin.Context) {
	url, err := h.Svc.DownloadURL(c.Request.Context(), c.Param("rec_resource_id"), c.Param("asset_id"), c.Query("variant"))
	if err != nil {
		writeError(c, err, "failed to sign download")
		return
	}
	respond.OK(c, gin.H{"url": url})
}

func writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, object.ErrInvalidArgument):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, object.ErrPresignUnsupported):
		respond.Error(c, http.StatusNotImplemented, "not_implemented", "signed urls are not supported by the configured store", nil)
	default:
		var vErr *VariantUploadError
		if errors.As(err, &vErr) {
			respond.Error(c, http.StatusInternalServerError, "internal_error", msg, gin.H{"variant": vErr.Code})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
