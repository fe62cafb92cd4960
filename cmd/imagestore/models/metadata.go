package models

import (
	"encoding/json"

	"github.com/medview/imagestore/common/apperr"
)

// UnverifiedMetadata is descriptive DICOM metadata exactly as supplied by the
// caller. Nothing here is cross-checked against the binary payload; the type
// name keeps that trust boundary explicit. All fields are optional and
// unrecognized JSON keys are ignored.
type UnverifiedMetadata struct {
	PatientName      *string `json:"patientName"`
	PatientID        *string `json:"patientId"`
	PatientBirthDate *string `json:"patientBirthDate"`
	PatientSex       *string `json:"patientSex"`

	Modality  *string `json:"modality"`
	Rows      *int    `json:"rows"`
	Columns   *int    `json:"columns"`
	ImageType *string `json:"imageType"`

	StudyID          *string `json:"studyId"`
	StudyInstanceUID *string `json:"studyInstanceUid"`
	StudyDate        *string `json:"studyDate"`
	StudyTime        *string `json:"studyTime"`

	SeriesInstanceUID *string `json:"seriesInstanceUid"`
	SeriesNumber      *string `json:"seriesNumber"`
	SeriesDescription *string `json:"seriesDescription"`
	BodyPart          *string `json:"bodyPart"`

	WindowCenter   *string `json:"windowCenter"`
	WindowWidth    *string `json:"windowWidth"`
	InstanceNumber *string `json:"instanceNumber"`
	SopInstanceUID *string `json:"sopInstanceUid"`

	HasAnnotations  *bool   `json:"hasAnnotations"`
	AnnotationType  *string `json:"annotationType"`
	AnnotationLabel *string `json:"annotationLabel"`
	AnnotationData  *string `json:"annotationData"`
}

// ParseUnverifiedMetadata decodes a caller-supplied metadata document.
// Malformed JSON yields a MetadataParseError; intake recovers from it by
// proceeding without metadata.
func ParseUnverifiedMetadata(data []byte) (*UnverifiedMetadata, error) {
	var meta UnverifiedMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &apperr.MetadataParseError{Err: err}
	}
	return &meta, nil
}

// ApplyTo copies the supplied fields onto a new image record.
// hasAnnotations is forced true whenever annotation data is present, keeping
// the flag consistent with the payload.
func (m *UnverifiedMetadata) ApplyTo(img *Image) {
	img.PatientName = m.PatientName
	img.PatientID = m.PatientID
	img.PatientBirthDate = m.PatientBirthDate
	img.PatientSex = m.PatientSex

	img.Modality = m.Modality
	img.Rows = m.Rows
	img.Columns = m.Columns
	img.ImageType = m.ImageType

	img.StudyID = m.StudyID
	img.StudyInstanceUID = m.StudyInstanceUID
	img.StudyDate = m.StudyDate
	img.StudyTime = m.StudyTime

	img.SeriesInstanceUID = m.SeriesInstanceUID
	img.SeriesNumber = m.SeriesNumber
	img.SeriesDescription = m.SeriesDescription
	img.BodyPart = m.BodyPart

	img.WindowCenter = m.WindowCenter
	img.WindowWidth = m.WindowWidth
	img.InstanceNumber = m.InstanceNumber
	img.SopInstanceUID = m.SopInstanceUID

	img.HasAnnotations = (m.HasAnnotations != nil && *m.HasAnnotations) || m.AnnotationData != nil
	img.AnnotationType = m.AnnotationType
	img.AnnotationLabel = m.AnnotationLabel
	img.AnnotationData = m.AnnotationData
}

// ApplyDefaults sets the sentinel patient fields on a record created without
// metadata; all other descriptive fields stay absent
func ApplyDefaults(img *Image) {
	name := DefaultPatientName
	id := DefaultPatientID
	img.PatientName = &name
	img.PatientID = &id
}
