package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/medview/imagestore/cmd/imagestore/models"
	"github.com/medview/imagestore/common/apperr"
	"github.com/medview/imagestore/common/logger"
)

// Catalog is the structured record store holding one row per ingested image
type Catalog interface {
	Insert(ctx context.Context, img *models.Image) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Image, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.ImageSummary, error)
	ListStorageKeys(ctx context.Context) (map[string]int64, error)
}

// BlobStore persists raw file bytes under generated storage keys
type BlobStore interface {
	NewKey(filename string) string
	Write(key string, data []byte) error
	Read(key string) ([]byte, error)
	Exists(key string) (bool, error)
	Delete(key string) error
	List() ([]string, error)
}

// ImageService implements intake, retrieval, deletion, and listing over a
// catalog and a blob store. It keeps no state of its own; every lookup goes
// to the underlying stores, which keeps concurrent request handling safe.
type ImageService struct {
	catalog Catalog
	blobs   BlobStore
	log     *logger.Logger
}

// NewImageService creates a new image service
func NewImageService(catalog Catalog, blobs BlobStore, log *logger.Logger) *ImageService {
	return &ImageService{
		catalog: catalog,
		blobs:   blobs,
		log:     log,
	}
}

// IngestInput is an incoming upload: the binary payload, its original
// filename and claimed content type, and optionally a serialized metadata
// document supplied by the caller.
type IngestInput struct {
	Filename    string
	ContentType string
	Payload     []byte

	// MetadataJSON is caller-supplied and unverified; nil means absent
	MetadataJSON []byte
}

// IngestResult is the created record's identifying and descriptive fields
type IngestResult struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	PatientName       *string `json:"patientName"`
	PatientID         *string `json:"patientId"`
	Modality          *string `json:"modality"`
	StudyDate         *string `json:"studyDate"`
	SeriesDescription *string `json:"seriesDescription"`
	Message           string  `json:"message"`
}

// RetrievedImage carries the raw bytes of a stored blob together with the
// content type and suggested filename for the response
type RetrievedImage struct {
	Data        []byte
	ContentType string
	Name        string
}

// DeleteResult confirms a deletion
type DeleteResult struct {
	Message string `json:"message"`
}

// Ingest validates an upload, writes the blob, and inserts the catalog row.
// The blob is written before the row so a live record always references an
// existing blob; an insert failure after the blob write leaves an orphaned
// blob, which is accepted and logged rather than compensated.
func (s *ImageService) Ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	if len(in.Payload) == 0 {
		return nil, apperr.Validation("no file uploaded")
	}

	if !isDicomUpload(in.Filename, in.ContentType) {
		s.log.Warn("upload rejected by DICOM heuristic",
			"name", in.Filename, "content_type", in.ContentType)
		return nil, apperr.Validation("only DICOM files (.dcm) are supported")
	}

	key := s.blobs.NewKey(in.Filename)
	if err := s.blobs.Write(key, in.Payload); err != nil {
		return nil, apperr.Storage("write blob", err)
	}
	s.log.Info("DICOM blob saved", "storage_key", key, "size_bytes", len(in.Payload))

	now := time.Now().UTC()
	img := &models.Image{
		Name:        in.Filename,
		StorageKey:  key,
		ContentType: models.DicomContentType,
		FileSize:    int64(len(in.Payload)),
		CreatedAt:   now,
		UploadDate:  now,
	}

	s.applyMetadata(img, in.MetadataJSON)

	if _, err := s.catalog.Insert(ctx, img); err != nil {
		// No compensating blob delete: the orphaned blob is a rare,
		// manually recoverable inconsistency.
		s.log.Error("catalog insert failed after blob write, blob orphaned",
			"storage_key", key, "error", err)
		return nil, err
	}

	s.log.Info("DICOM image record created", "image_id", img.ID, "name", img.Name)

	return &IngestResult{
		ID:                img.ID,
		Name:              img.Name,
		PatientName:       img.PatientName,
		PatientID:         img.PatientID,
		Modality:          img.Modality,
		StudyDate:         img.StudyDate,
		SeriesDescription: img.SeriesDescription,
		Message:           "DICOM image uploaded successfully",
	}, nil
}

// applyMetadata merges caller-supplied metadata onto a new record, or the
// documented defaults when none was supplied. A metadata document that fails
// to parse is logged and treated as absent; the upload proceeds.
func (s *ImageService) applyMetadata(img *models.Image, metadataJSON []byte) {
	if len(metadataJSON) == 0 {
		models.ApplyDefaults(img)
		return
	}

	meta, err := models.ParseUnverifiedMetadata(metadataJSON)
	if err != nil {
		s.log.Warn("ignoring malformed upload metadata", "error", err)
		models.ApplyDefaults(img)
		return
	}

	meta.ApplyTo(img)
}

// Get looks up a record and reads its blob. A missing record and a missing
// blob are distinct not-found conditions; the latter indicates catalog/blob
// inconsistency.
func (s *ImageService) Get(ctx context.Context, id int64) (*RetrievedImage, error) {
	img, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.blobs.Read(img.StorageKey)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Error("blob missing for live catalog record",
			"image_id", id, "storage_key", img.StorageKey)
		return nil, apperr.NotFound(apperr.KindBlob, id)
	}
	if err != nil {
		return nil, apperr.Storage("read blob", err)
	}

	s.log.Info("DICOM image retrieved", "image_id", id, "name", img.Name)

	return &RetrievedImage{
		Data:        data,
		ContentType: models.DicomContentType,
		Name:        img.Name,
	}, nil
}

// Delete removes the blob (idempotently) and then the catalog row. If the
// row delete fails after the blob is gone the dangling record surfaces on
// the next retrieval as the blob not-found case.
func (s *ImageService) Delete(ctx context.Context, id int64) (*DeleteResult, error) {
	img, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.blobs.Delete(img.StorageKey); err != nil {
		return nil, apperr.Storage("delete blob", err)
	}

	if err := s.catalog.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.log.Info("DICOM image deleted", "image_id", id, "name", img.Name)

	return &DeleteResult{
		Message: fmt.Sprintf("DICOM image %s deleted successfully", img.Name),
	}, nil
}

// List returns every live record projected into a summary, each annotated
// with its derived retrieval locator
func (s *ImageService) List(ctx context.Context) ([]*models.ImageSummary, error) {
	summaries, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, summary := range summaries {
		summary.DicomURL = RetrievalLocator(summary.ID)
	}

	s.log.Info("listed DICOM images", "count", len(summaries))

	// Empty catalog lists as an empty array, not null
	if summaries == nil {
		summaries = []*models.ImageSummary{}
	}

	return summaries, nil
}

// RetrievalLocator derives the retrieval URL for an image ID
func RetrievalLocator(id int64) string {
	return fmt.Sprintf("/api/image/%d", id)
}

// isDicomUpload applies the acceptance heuristic: a .dcm extension or a
// DICOM-specific or generic-binary content type. Browsers frequently
// mislabel unrecognized binary types, so content type alone is not trusted
// to reject.
func isDicomUpload(filename, contentType string) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".dcm") {
		return true
	}

	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "application/dicom", "application/octet-stream":
		return true
	}

	return false
}
