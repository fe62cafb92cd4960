package models

import (
	"testing"

	"github.com/medview/imagestore/common/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnverifiedMetadata(t *testing.T) {
	data := []byte(`{
		"patientName": "John Doe",
		"patientId": "P-100",
		"modality": "CT",
		"rows": 512,
		"columns": 512,
		"studyDate": "20250101",
		"seriesDescription": "Chest CT"
	}`)

	meta, err := ParseUnverifiedMetadata(data)
	require.NoError(t, err)

	assert.Equal(t, "John Doe", *meta.PatientName)
	assert.Equal(t, "P-100", *meta.PatientID)
	assert.Equal(t, "CT", *meta.Modality)
	assert.Equal(t, 512, *meta.Rows)
	assert.Equal(t, "20250101", *meta.StudyDate)
	assert.Equal(t, "Chest CT", *meta.SeriesDescription)
	assert.Nil(t, meta.PatientSex)
	assert.Nil(t, meta.SopInstanceUID)
}

func TestParseIgnoresUnrecognizedFields(t *testing.T) {
	data := []byte(`{"patientName": "Jane", "favoriteColor": "blue", "nested": {"x": 1}}`)

	meta, err := ParseUnverifiedMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, "Jane", *meta.PatientName)
}

func TestParseMalformedMetadata(t *testing.T) {
	_, err := ParseUnverifiedMetadata([]byte(`{"patientName": `))
	require.Error(t, err)

	var parseErr *apperr.MetadataParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestApplyToCopiesSuppliedFields(t *testing.T) {
	name := "John Doe"
	modality := "MR"
	rows := 256
	meta := &UnverifiedMetadata{
		PatientName: &name,
		Modality:    &modality,
		Rows:        &rows,
	}

	var img Image
	meta.ApplyTo(&img)

	assert.Equal(t, "John Doe", *img.PatientName)
	assert.Equal(t, "MR", *img.Modality)
	assert.Equal(t, 256, *img.Rows)
	assert.Nil(t, img.PatientID)
	assert.Nil(t, img.SeriesDescription)
	assert.False(t, img.HasAnnotations)
}

func TestApplyToAnnotationFlagConsistency(t *testing.T) {
	annotation := `{"points":[[1,2]]}`
	flag := false

	// Annotation data present forces the flag on even when the caller left it false
	meta := &UnverifiedMetadata{HasAnnotations: &flag, AnnotationData: &annotation}
	var img Image
	meta.ApplyTo(&img)
	assert.True(t, img.HasAnnotations)
	assert.Equal(t, annotation, *img.AnnotationData)

	// Explicit flag without data is preserved
	on := true
	meta = &UnverifiedMetadata{HasAnnotations: &on}
	img = Image{}
	meta.ApplyTo(&img)
	assert.True(t, img.HasAnnotations)
	assert.Nil(t, img.AnnotationData)
}

func TestApplyDefaults(t *testing.T) {
	var img Image
	ApplyDefaults(&img)

	assert.Equal(t, DefaultPatientName, *img.PatientName)
	assert.Equal(t, DefaultPatientID, *img.PatientID)
	assert.Nil(t, img.Modality)
	assert.Nil(t, img.StudyDate)
}
