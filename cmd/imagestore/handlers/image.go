package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/medview/imagestore/cmd/imagestore/service"
	"github.com/medview/imagestore/common/apperr"
	"github.com/medview/imagestore/common/logger"
)

// ImageHandler handles DICOM image operations
type ImageHandler struct {
	svc            *service.ImageService
	maxUploadBytes int64
	log            *logger.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(svc *service.ImageService, maxUploadBytes int64, log *logger.Logger) *ImageHandler {
	return &ImageHandler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// Upload ingests a DICOM file with optional caller-supplied metadata
// POST /api/image/upload
func (h *ImageHandler) Upload(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.log.Warn("upload attempted with no file", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "no file uploaded")
	}

	h.log.Info("file upload attempted",
		"name", fileHeader.Filename,
		"content_type", fileHeader.Header.Get("Content-Type"),
		"size", fileHeader.Size)

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file part")
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}

	var metadataJSON []byte
	if metadata := c.FormValue("metadata"); metadata != "" {
		metadataJSON = []byte(metadata)
	}

	result, err := h.svc.Ingest(c.Request().Context(), service.IngestInput{
		Filename:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Payload:      payload,
		MetadataJSON: metadataJSON,
	})
	if err != nil {
		return h.mapError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// Get returns the raw DICOM bytes for an image
// GET /api/image/:id
func (h *ImageHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	img, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}

	// Suggest the original display name, not the storage key
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+img.Name+`"`)
	return c.Blob(http.StatusOK, img.ContentType, img.Data)
}

// Delete removes an image record and its blob
// DELETE /api/image/:id
func (h *ImageHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	result, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// List returns summaries of all stored images
// GET /api/image
func (h *ImageHandler) List(c echo.Context) error {
	summaries, err := h.svc.List(c.Request().Context())
	if err != nil {
		return h.mapError(err)
	}

	return c.JSON(http.StatusOK, summaries)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid image id")
	}
	return id, nil
}

// mapError translates the error taxonomy onto HTTP statuses. Validation
// failures are client errors, both not-found kinds map to 404, and anything
// else is reported as a generic server-side failure.
func (h *ImageHandler) mapError(err error) error {
	switch {
	case apperr.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case apperr.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		h.log.Error("image operation failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal storage error")
	}
}
