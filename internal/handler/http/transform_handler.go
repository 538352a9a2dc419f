package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/contract"
	"github.com/pixshare/imageserve/internal/domain"
	"github.com/pixshare/imageserve/internal/dto"
)

// TransformHandler is the HTTP face of the transform core. It flattens
// the query string into the raw parameter map the parser expects and
// maps the error taxonomy onto status codes; everything else is the
// orchestrator's job.
type TransformHandler struct {
	service     domain.TransformService
	registry    *contract.Registry
	metadata    domain.MetadataRepository
	warmQueue   domain.WarmQueue
	warmPresets []string
}

func NewTransformHandler(
	service domain.TransformService,
	registry *contract.Registry,
	metadata domain.MetadataRepository,
	warmQueue domain.WarmQueue,
	warmPresets []string,
) *TransformHandler {
	return &TransformHandler{
		service:     service,
		registry:    registry,
		metadata:    metadata,
		warmQueue:   warmQueue,
		warmPresets: warmPresets,
	}
}

func (h *TransformHandler) RegisterRoutes(engine *ginext.Engine) {
	engine.GET("/images/:id", h.ServeImage)
	engine.GET("/presets", h.ListPresets)
	engine.PUT("/internal/images/:id/metadata", h.IngestMetadata)
	engine.DELETE("/internal/images/:id/metadata", h.DeleteMetadata)
	engine.POST("/internal/images/:id/warm", h.WarmImage)
}

// ServeImage GET /images/:id
func (h *TransformHandler) ServeImage(c *ginext.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Image ID is required",
		})
		return
	}

	raw := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}

	opts := domain.ServeOptions{
		// Set by the auth layer in front of this service; the core only
		// consumes the verdict.
		OwnerView: c.GetHeader("X-Owner-View") == "1",
	}

	artifact, err := h.service.Serve(c.Request.Context(), id, raw, opts)
	if err != nil {
		h.respondError(c, id, err)
		return
	}

	// The cache key is deterministic per effective transform, which
	// makes it a strong ETag.
	etag := `"` + artifact.CacheKey + `"`
	if match := c.GetHeader("If-None-Match"); match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Header("ETag", etag)
	c.Header("Content-Type", artifact.ContentType)
	c.Header("Content-Length", strconv.Itoa(len(artifact.Bytes)))
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, artifact.ContentType, artifact.Bytes)
}

// ListPresets GET /presets
func (h *TransformHandler) ListPresets(c *ginext.Context) {
	c.JSON(http.StatusOK, dto.MapPresetsToResponse(domain.ContractVersion, h.registry.List()))
}

// IngestMetadata PUT /internal/images/:id/metadata
func (h *TransformHandler) IngestMetadata(c *ginext.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Image ID is required",
		})
		return
	}

	var req dto.MetadataIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_payload",
			Message: err.Error(),
		})
		return
	}

	if err := h.metadata.Upsert(c.Request.Context(), req.ToDomain(id)); err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", id).Msg("metadata ingest failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "server_error",
			Message: "Failed to store metadata",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteMetadata DELETE /internal/images/:id/metadata
func (h *TransformHandler) DeleteMetadata(c *ginext.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Image ID is required",
		})
		return
	}

	if err := h.metadata.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrMetadataNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "not_found",
				Message: "No metadata for this image",
			})
			return
		}
		zlog.Logger.Error().Err(err).Str("image_id", id).Msg("metadata delete failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "server_error",
			Message: "Failed to delete metadata",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// WarmImage POST /internal/images/:id/warm
func (h *TransformHandler) WarmImage(c *ginext.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Image ID is required",
		})
		return
	}

	var req dto.WarmRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_payload",
			Message: err.Error(),
		})
		return
	}

	presets := req.Presets
	if len(presets) == 0 {
		presets = h.warmPresets
	}
	for _, name := range presets {
		if _, err := h.registry.Resolve(name); err != nil {
			h.respondError(c, id, err)
			return
		}
	}

	if err := h.warmQueue.PublishWarmTask(c.Request.Context(), id, presets); err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", id).Msg("failed to enqueue warm task")
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   "queue_unavailable",
			Message: "Failed to enqueue warm task",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.WarmResponse{
		ImageID: id,
		Presets: presets,
	})
}

func (h *TransformHandler) respondError(c *ginext.Context, imageID string, err error) {
	var ve *domain.ValidationError
	var cv *domain.ContractVersionError
	var up *domain.UnknownPresetError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: ve.Reason,
			Field:   ve.Field,
		})
	case errors.As(err, &cv):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "contract_version_mismatch",
			Message: cv.Error(),
		})
	case errors.As(err, &up):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "unknown_preset",
			Message: up.Error(),
		})
	case errors.Is(err, domain.ErrOriginalNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "Image not found",
		})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("upstream unavailable")
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   "upstream_unavailable",
			Message: "A backing store is unavailable",
		})
	default:
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("failed to serve transform")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "server_error",
			Message: "Failed to serve image",
		})
	}
}
