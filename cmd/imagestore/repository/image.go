package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/medview/imagestore/cmd/imagestore/models"
	"github.com/medview/imagestore/common/apperr"
	"github.com/medview/imagestore/common/db"
)

// ImageRepository handles database operations for the image catalog
type ImageRepository struct {
	db *db.DB
}

// NewImageRepository creates a new image repository
func NewImageRepository(db *db.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Insert creates a new catalog row and returns the assigned ID
func (r *ImageRepository) Insert(ctx context.Context, img *models.Image) (int64, error) {
	query := `
		INSERT INTO image (
			name, storage_key, content_type, file_size,
			created_at, modified_at, upload_date, last_accessed, is_compressed,
			patient_id, patient_name, patient_birth_date, patient_sex,
			modality, rows, columns, image_type,
			study_id, study_instance_uid, study_date, study_time,
			series_instance_uid, series_number, series_description, body_part,
			window_center, window_width, instance_number, sop_instance_uid,
			has_annotations, annotation_type, annotation_label, annotation_data
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
			$29, $30, $31, $32, $33
		)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		img.Name,
		img.StorageKey,
		img.ContentType,
		img.FileSize,
		img.CreatedAt,
		img.ModifiedAt,
		img.UploadDate,
		img.LastAccessed,
		img.IsCompressed,
		img.PatientID,
		img.PatientName,
		img.PatientBirthDate,
		img.PatientSex,
		img.Modality,
		img.Rows,
		img.Columns,
		img.ImageType,
		img.StudyID,
		img.StudyInstanceUID,
		img.StudyDate,
		img.StudyTime,
		img.SeriesInstanceUID,
		img.SeriesNumber,
		img.SeriesDescription,
		img.BodyPart,
		img.WindowCenter,
		img.WindowWidth,
		img.InstanceNumber,
		img.SopInstanceUID,
		img.HasAnnotations,
		img.AnnotationType,
		img.AnnotationLabel,
		img.AnnotationData,
	).Scan(&img.ID)

	if err != nil {
		return 0, apperr.Storage("catalog insert", err)
	}

	return img.ID, nil
}

// GetByID retrieves an image record by its ID
func (r *ImageRepository) GetByID(ctx context.Context, id int64) (*models.Image, error) {
	query := `
		SELECT
			id, name, storage_key, content_type, file_size,
			created_at, modified_at, upload_date, last_accessed, is_compressed,
			patient_id, patient_name, patient_birth_date, patient_sex,
			modality, rows, columns, image_type,
			study_id, study_instance_uid, study_date, study_time,
			series_instance_uid, series_number, series_description, body_part,
			window_center, window_width, instance_number, sop_instance_uid,
			has_annotations, annotation_type, annotation_label, annotation_data
		FROM image
		WHERE id = $1
	`

	img := &models.Image{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&img.ID,
		&img.Name,
		&img.StorageKey,
		&img.ContentType,
		&img.FileSize,
		&img.CreatedAt,
		&img.ModifiedAt,
		&img.UploadDate,
		&img.LastAccessed,
		&img.IsCompressed,
		&img.PatientID,
		&img.PatientName,
		&img.PatientBirthDate,
		&img.PatientSex,
		&img.Modality,
		&img.Rows,
		&img.Columns,
		&img.ImageType,
		&img.StudyID,
		&img.StudyInstanceUID,
		&img.StudyDate,
		&img.StudyTime,
		&img.SeriesInstanceUID,
		&img.SeriesNumber,
		&img.SeriesDescription,
		&img.BodyPart,
		&img.WindowCenter,
		&img.WindowWidth,
		&img.InstanceNumber,
		&img.SopInstanceUID,
		&img.HasAnnotations,
		&img.AnnotationType,
		&img.AnnotationLabel,
		&img.AnnotationData,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(apperr.KindRecord, id)
	}
	if err != nil {
		return nil, apperr.Storage("catalog lookup", err)
	}

	return img, nil
}

// Delete removes an image record by its ID
func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM image WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage("catalog delete", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apperr.KindRecord, id)
	}

	return nil
}

// List projects all catalog rows into the summary shape used by the listing
// handler. The storage key, annotation payload, and SOP instance UID are
// deliberately excluded; the retrieval locator is filled by the service.
func (r *ImageRepository) List(ctx context.Context) ([]*models.ImageSummary, error) {
	query := `
		SELECT
			id, name, created_at, modified_at, file_size, upload_date, last_accessed,
			patient_id, patient_name, patient_birth_date, patient_sex,
			modality, rows, columns, image_type,
			study_id, study_instance_uid, study_date, study_time,
			series_instance_uid, series_number, series_description, body_part,
			window_center, window_width, instance_number,
			has_annotations, annotation_type, annotation_label
		FROM image
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperr.Storage("catalog list", err)
	}
	defer rows.Close()

	var summaries []*models.ImageSummary
	for rows.Next() {
		s := &models.ImageSummary{}
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.CreatedAt,
			&s.ModifiedAt,
			&s.FileSize,
			&s.UploadDate,
			&s.LastAccessed,
			&s.PatientID,
			&s.PatientName,
			&s.PatientBirthDate,
			&s.PatientSex,
			&s.Modality,
			&s.Rows,
			&s.Columns,
			&s.ImageType,
			&s.StudyID,
			&s.StudyInstanceUID,
			&s.StudyDate,
			&s.StudyTime,
			&s.SeriesInstanceUID,
			&s.SeriesNumber,
			&s.SeriesDescription,
			&s.BodyPart,
			&s.WindowCenter,
			&s.WindowWidth,
			&s.InstanceNumber,
			&s.HasAnnotations,
			&s.AnnotationType,
			&s.AnnotationLabel,
		)
		if err != nil {
			return nil, apperr.Storage("catalog scan", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("catalog iterate", err)
	}

	return summaries, nil
}

// ListStorageKeys returns the storage keys of all live records, used by the
// reconciliation sweep
func (r *ImageRepository) ListStorageKeys(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id, storage_key FROM image`)
	if err != nil {
		return nil, apperr.Storage("catalog list keys", err)
	}
	defer rows.Close()

	keys := make(map[string]int64)
	for rows.Next() {
		var id int64
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, apperr.Storage("catalog scan key", err)
		}
		keys[key] = id
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("catalog iterate keys", err)
	}

	return keys, nil
}
