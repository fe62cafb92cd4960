package models

import "time"

// DicomContentType is stored on every record regardless of what the client
// claimed, since validation already narrowed acceptance to DICOM-like uploads
const DicomContentType = "application/dicom"

// DefaultPatientName and DefaultPatientID are the sentinel values applied
// when an upload carries no metadata
const (
	DefaultPatientName = "Unknown"
	DefaultPatientID   = "Unknown"
)

// Image represents one ingested DICOM file and its descriptive metadata
// Maps to: image table
type Image struct {
	// System-assigned identifier, immutable
	ID int64 `db:"id" json:"id"`

	// Original uploaded filename, used for display and content negotiation
	Name string `db:"name" json:"name"`

	// Blob location relative to the storage root, never an absolute path.
	// Unique across live records and never changed once assigned.
	StorageKey string `db:"storage_key" json:"-"`

	ContentType string `db:"content_type" json:"contentType"`

	// Byte length at upload time, equals the length of the stored blob
	FileSize int64 `db:"file_size" json:"fileSize"`

	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	ModifiedAt   *time.Time `db:"modified_at" json:"modifiedAt,omitempty"`
	UploadDate   time.Time  `db:"upload_date" json:"uploadDate"`
	LastAccessed *time.Time `db:"last_accessed" json:"lastAccessed,omitempty"`

	// Reserved for blob-level compression, always false for now
	IsCompressed bool `db:"is_compressed" json:"isCompressed"`

	// Patient identity
	PatientID        *string `db:"patient_id" json:"patientId,omitempty"`
	PatientName      *string `db:"patient_name" json:"patientName,omitempty"`
	PatientBirthDate *string `db:"patient_birth_date" json:"patientBirthDate,omitempty"`
	PatientSex       *string `db:"patient_sex" json:"patientSex,omitempty"`

	// Image descriptors
	Modality  *string `db:"modality" json:"modality,omitempty"`
	Rows      *int    `db:"rows" json:"rows,omitempty"`
	Columns   *int    `db:"columns" json:"columns,omitempty"`
	ImageType *string `db:"image_type" json:"imageType,omitempty"`

	// Study identity
	StudyID          *string `db:"study_id" json:"studyId,omitempty"`
	StudyInstanceUID *string `db:"study_instance_uid" json:"studyInstanceUid,omitempty"`
	StudyDate        *string `db:"study_date" json:"studyDate,omitempty"`
	StudyTime        *string `db:"study_time" json:"studyTime,omitempty"`

	// Series identity
	SeriesInstanceUID *string `db:"series_instance_uid" json:"seriesInstanceUid,omitempty"`
	SeriesNumber      *string `db:"series_number" json:"seriesNumber,omitempty"`
	SeriesDescription *string `db:"series_description" json:"seriesDescription,omitempty"`
	BodyPart          *string `db:"body_part" json:"bodyPart,omitempty"`

	WindowCenter   *string `db:"window_center" json:"windowCenter,omitempty"`
	WindowWidth    *string `db:"window_width" json:"windowWidth,omitempty"`
	InstanceNumber *string `db:"instance_number" json:"instanceNumber,omitempty"`
	SopInstanceUID *string `db:"sop_instance_uid" json:"sopInstanceUid,omitempty"`

	// Annotation group
	HasAnnotations  bool    `db:"has_annotations" json:"hasAnnotations"`
	AnnotationType  *string `db:"annotation_type" json:"annotationType,omitempty"`
	AnnotationLabel *string `db:"annotation_label" json:"annotationLabel,omitempty"`
	AnnotationData  *string `db:"annotation_data" json:"annotationData,omitempty"`
}

// ImageSummary is the listing projection of an Image: all descriptive and
// file metadata minus the storage key, the annotation payload, and the SOP
// instance UID, plus a derived retrieval locator.
type ImageSummary struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	CreatedAt        time.Time  `json:"createdAt"`
	ModifiedAt       *time.Time `json:"modifiedAt,omitempty"`
	FileSize         int64      `json:"fileSize"`
	UploadDate       time.Time  `json:"uploadDate"`
	LastAccessed     *time.Time `json:"lastAccessed,omitempty"`
	PatientID        *string    `json:"patientId,omitempty"`
	PatientName      *string    `json:"patientName,omitempty"`
	PatientBirthDate *string    `json:"patientBirthDate,omitempty"`
	PatientSex       *string    `json:"patientSex,omitempty"`
	Modality         *string    `json:"modality,omitempty"`
	Rows             *int       `json:"rows,omitempty"`
	Columns          *int       `json:"columns,omitempty"`
	ImageType        *string    `json:"imageType,omitempty"`
	StudyID          *string    `json:"studyId,omitempty"`
	StudyInstanceUID *string    `json:"studyInstanceUid,omitempty"`
	StudyDate        *string    `json:"studyDate,omitempty"`
	StudyTime        *string    `json:"studyTime,omitempty"`

	SeriesInstanceUID *string `json:"seriesInstanceUid,omitempty"`
	SeriesNumber      *string `json:"seriesNumber,omitempty"`
	SeriesDescription *string `json:"seriesDescription,omitempty"`
	BodyPart          *string `json:"bodyPart,omitempty"`

	WindowCenter   *string `json:"windowCenter,omitempty"`
	WindowWidth    *string `json:"windowWidth,omitempty"`
	InstanceNumber *string `json:"instanceNumber,omitempty"`

	HasAnnotations  bool    `json:"hasAnnotations"`
	AnnotationType  *string `json:"annotationType,omitempty"`
	AnnotationLabel *string `json:"annotationLabel,omitempty"`

	// Derived retrieval locator, computed from the ID
	DicomURL string `json:"dicomUrl"`
}
