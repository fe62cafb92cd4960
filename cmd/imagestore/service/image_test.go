package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/medview/imagestore/cmd/imagestore/models"
	"github.com/medview/imagestore/common/apperr"
	"github.com/medview/imagestore/common/blobstore"
	"github.com/medview/imagestore/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog is an in-memory Catalog for tests
type fakeCatalog struct {
	mu         sync.Mutex
	nextID     int64
	images     map[int64]*models.Image
	failInsert bool
	failDelete bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{images: make(map[int64]*models.Image)}
}

func (c *fakeCatalog) Insert(ctx context.Context, img *models.Image) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failInsert {
		return 0, apperr.Storage("catalog insert", errors.New("connection reset"))
	}
	c.nextID++
	img.ID = c.nextID
	clone := *img
	c.images[img.ID] = &clone
	return img.ID, nil
}

func (c *fakeCatalog) GetByID(ctx context.Context, id int64) (*models.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[id]
	if !ok {
		return nil, apperr.NotFound(apperr.KindRecord, id)
	}
	clone := *img
	return &clone, nil
}

func (c *fakeCatalog) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDelete {
		return apperr.Storage("catalog delete", errors.New("connection reset"))
	}
	if _, ok := c.images[id]; !ok {
		return apperr.NotFound(apperr.KindRecord, id)
	}
	delete(c.images, id)
	return nil
}

func (c *fakeCatalog) List(ctx context.Context) ([]*models.ImageSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var summaries []*models.ImageSummary
	for _, img := range c.images {
		summaries = append(summaries, &models.ImageSummary{
			ID:                img.ID,
			Name:              img.Name,
			CreatedAt:         img.CreatedAt,
			FileSize:          img.FileSize,
			UploadDate:        img.UploadDate,
			PatientID:         img.PatientID,
			PatientName:       img.PatientName,
			Modality:          img.Modality,
			StudyDate:         img.StudyDate,
			SeriesDescription: img.SeriesDescription,
			HasAnnotations:    img.HasAnnotations,
		})
	}
	return summaries, nil
}

func (c *fakeCatalog) ListStorageKeys(ctx context.Context) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make(map[string]int64)
	for id, img := range c.images {
		keys[img.StorageKey] = id
	}
	return keys, nil
}

func newTestService(t *testing.T) (*ImageService, *fakeCatalog, *blobstore.Store) {
	t.Helper()
	log := logger.New("error", "text")
	blobs, err := blobstore.New(t.TempDir(), log)
	require.NoError(t, err)
	catalog := newFakeCatalog()
	return NewImageService(catalog, blobs, log), catalog, blobs
}

func dicomUpload(payload []byte) IngestInput {
	return IngestInput{
		Filename:    "scan.dcm",
		ContentType: "application/dicom",
		Payload:     payload,
	}
}

func TestIngestGetRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	payload := []byte("DICM\x00\x01\x02 pixel data")

	res, err := svc.Ingest(ctx, dicomUpload(payload))
	require.NoError(t, err)
	assert.Equal(t, "scan.dcm", res.Name)
	assert.Equal(t, "DICOM image uploaded successfully", res.Message)

	got, err := svc.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, got.Data)
	assert.Equal(t, models.DicomContentType, got.ContentType)
	assert.Equal(t, "scan.dcm", got.Name)
}

func TestIngestWithMetadata(t *testing.T) {
	svc, catalog, _ := newTestService(t)
	ctx := context.Background()

	in := dicomUpload([]byte("DICM"))
	in.MetadataJSON = []byte(`{"patientName":"John Doe","modality":"CT"}`)

	res, err := svc.Ingest(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", *res.PatientName)
	assert.Equal(t, "CT", *res.Modality)
	// Supplied metadata replaces the defaults wholesale: unset fields stay absent
	assert.Nil(t, res.PatientID)

	stored := catalog.images[res.ID]
	assert.Equal(t, "John Doe", *stored.PatientName)
	assert.Equal(t, models.DicomContentType, stored.ContentType)
	assert.Equal(t, int64(4), stored.FileSize)
}

func TestIngestWithoutMetadataAppliesDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Ingest(context.Background(), dicomUpload([]byte("DICM")))
	require.NoError(t, err)

	assert.Equal(t, models.DefaultPatientName, *res.PatientName)
	assert.Equal(t, models.DefaultPatientID, *res.PatientID)
	assert.Nil(t, res.Modality)
	assert.Nil(t, res.StudyDate)
}

func TestIngestMalformedMetadataProceeds(t *testing.T) {
	svc, _, _ := newTestService(t)

	in := dicomUpload([]byte("DICM"))
	in.MetadataJSON = []byte(`{not json`)

	res, err := svc.Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPatientName, *res.PatientName)
}

func TestIngestValidation(t *testing.T) {
	svc, catalog, blobs := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		filename    string
		contentType string
		payload     []byte
		wantErr     bool
	}{
		{"dcm extension", "scan.dcm", "text/plain", []byte("x"), false},
		{"uppercase extension", "SCAN.DCM", "", []byte("x"), false},
		{"dicom content type", "scan", "application/dicom", []byte("x"), false},
		{"octet stream", "scan.bin", "application/octet-stream", []byte("x"), false},
		{"mixed case content type", "scan", "Application/DICOM", []byte("x"), false},
		{"text file", "notes.txt", "text/plain", []byte("hello"), true},
		{"jpeg", "photo.jpg", "image/jpeg", []byte("x"), true},
		{"empty payload", "scan.dcm", "application/dicom", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ingest(ctx, IngestInput{
				Filename:    tt.filename,
				ContentType: tt.contentType,
				Payload:     tt.payload,
			})
			if tt.wantErr {
				assert.True(t, apperr.IsValidation(err), "want ValidationError, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// Rejected uploads create no state
	keys, err := blobs.List()
	require.NoError(t, err)
	assert.Len(t, keys, len(catalog.images))
}

func TestGetMissingRecord(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), 999999)
	require.Error(t, err)
	assert.Equal(t, apperr.KindRecord, apperr.NotFoundKindOf(err))
}

func TestGetDanglingRecord(t *testing.T) {
	svc, catalog, blobs := newTestService(t)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, dicomUpload([]byte("DICM")))
	require.NoError(t, err)

	// Remove the blob behind the catalog's back
	require.NoError(t, blobs.Delete(catalog.images[res.ID].StorageKey))

	_, err = svc.Get(ctx, res.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBlob, apperr.NotFoundKindOf(err))
}

func TestDelete(t *testing.T) {
	svc, catalog, blobs := newTestService(t)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, dicomUpload([]byte("DICM")))
	require.NoError(t, err)
	key := catalog.images[res.ID].StorageKey

	del, err := svc.Delete(ctx, res.ID)
	require.NoError(t, err)
	assert.Contains(t, del.Message, "scan.dcm")

	exists, err := blobs.Exists(key)
	require.NoError(t, err)
	assert.False(t, exists)

	// Second delete by id reports the record missing
	_, err = svc.Delete(ctx, res.ID)
	assert.Equal(t, apperr.KindRecord, apperr.NotFoundKindOf(err))
}

func TestDeleteWithBlobAlreadyGone(t *testing.T) {
	svc, catalog, blobs := newTestService(t)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, dicomUpload([]byte("DICM")))
	require.NoError(t, err)

	// Blob removal is idempotent, so deletion succeeds even when the blob
	// is already missing
	require.NoError(t, blobs.Delete(catalog.images[res.ID].StorageKey))

	_, err = svc.Delete(ctx, res.ID)
	require.NoError(t, err)
}

func TestInsertFailureLeavesOrphanBlob(t *testing.T) {
	svc, catalog, blobs := newTestService(t)
	ctx := context.Background()
	catalog.failInsert = true

	_, err := svc.Ingest(ctx, dicomUpload([]byte("DICM")))
	require.Error(t, err)
	assert.False(t, apperr.IsValidation(err))

	// The blob write preceded the failed insert and is not compensated
	keys, err := blobs.List()
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	// The sweep surfaces the orphan
	report, err := NewReconcileService(catalog, blobs, logger.New("error", "text")).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, keys, report.OrphanBlobs)
	assert.Empty(t, report.DanglingRecords)
}

func TestSweepFindsDanglingRecord(t *testing.T) {
	svc, catalog, blobs := newTestService(t)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, dicomUpload([]byte("DICM")))
	require.NoError(t, err)
	require.NoError(t, blobs.Delete(catalog.images[res.ID].StorageKey))

	report, err := NewReconcileService(catalog, blobs, logger.New("error", "text")).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{res.ID}, report.DanglingRecords)
	assert.Empty(t, report.OrphanBlobs)
	assert.False(t, report.Clean())
}

func TestListCompleteness(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		_, err := svc.Ingest(ctx, dicomUpload([]byte("DICM")))
		require.NoError(t, err)
	}

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, n)

	for _, s := range summaries {
		assert.NotEmpty(t, s.DicomURL)
		assert.Equal(t, RetrievalLocator(s.ID), s.DicomURL)
	}
}

func TestListEmptyCatalog(t *testing.T) {
	svc, _, _ := newTestService(t)

	summaries, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestConcurrentUploadsGetDistinctKeys(t *testing.T) {
	svc, catalog, _ := newTestService(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Identical filename on purpose; keys must still be distinct
			_, err := svc.Ingest(ctx, dicomUpload([]byte("DICM")))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	keys, err := catalog.ListStorageKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, n)
}
