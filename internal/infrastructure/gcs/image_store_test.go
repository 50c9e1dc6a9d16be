package gcs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectName_PorUsuarioEItem(t *testing.T) {
	name := ObjectName("u1", "s1", "image/png")
	assert.True(t, strings.HasPrefix(name, "users/u1/stock/s1/"))
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotEqual(t, name, ObjectName("u1", "s1", "image/png"), "cada subida es un objeto nuevo")
}

func TestObjectOf_SoloURLsDelBucket(t *testing.T) {
	s := NewImageStore(nil, "fotos")

	obj, ok := s.objectOf("https://storage.googleapis.com/fotos/users/u1/stock/s1/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, "users/u1/stock/s1/a.jpg", obj)

	_, ok = s.objectOf("https://storage.googleapis.com/otro/a.jpg")
	assert.False(t, ok)
	_, ok = s.objectOf("https://example.com/a.jpg")
	assert.False(t, ok)
}

func TestUploadYDelete_SinCliente(t *testing.T) {
	s := NewImageStore(nil, "")
	_, err := s.Upload(context.Background(), "u1", "s1", "image/png", []byte{1})
	assert.Error(t, err)
	assert.NoError(t, s.Delete(context.Background(), "https://storage.googleapis.com/x/y"))
}
