package apperr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundKinds(t *testing.T) {
	recordErr := NotFound(KindRecord, 42)
	blobErr := NotFound(KindBlob, 42)

	assert.True(t, IsNotFound(recordErr))
	assert.True(t, IsNotFound(blobErr))
	assert.Equal(t, KindRecord, NotFoundKindOf(recordErr))
	assert.Equal(t, KindBlob, NotFoundKindOf(blobErr))
	assert.NotEqual(t, recordErr.Error(), blobErr.Error())
}

func TestNotFoundThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("get image: %w", NotFound(KindRecord, 7))

	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, KindRecord, NotFoundKindOf(wrapped))
}

func TestValidation(t *testing.T) {
	err := Validation("no file uploaded")

	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "no file uploaded")
}

func TestStorageUnwrap(t *testing.T) {
	err := Storage("write blob", fs.ErrPermission)

	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.Contains(t, err.Error(), "write blob")
}

func TestNotFoundKindOfOther(t *testing.T) {
	assert.Equal(t, NotFoundKind(""), NotFoundKindOf(errors.New("boom")))
}
