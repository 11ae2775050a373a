package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/imgs/", ObjectBaseURL("localhost:9000", false, "", "imgs"))
	assert.Equal(t, "https://s3.example.com/imgs/", ObjectBaseURL("s3.example.com", true, "", "imgs"))
	assert.Equal(t, "https://cdn.example.com/imgs/", ObjectBaseURL("minio:9000", false, "https://cdn.example.com/", "imgs"))
}

func TestMinioStore_KeyFromURL(t *testing.T) {
	s := &MinioStore{bucket: "imgs", baseURL: ObjectBaseURL("localhost:9000", false, "", "imgs")}

	key, ok := s.KeyFromURL("http://localhost:9000/imgs/images/alice/1.png")
	assert.True(t, ok)
	assert.Equal(t, "images/alice/1.png", key)

	_, ok = s.KeyFromURL("https://firebasestorage.googleapis.com/v0/b/x.png")
	assert.False(t, ok)

	_, ok = s.KeyFromURL("http://localhost:9000/imgs/")
	assert.False(t, ok)
}
