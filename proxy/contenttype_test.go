package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://assets.meshy.ai/tasks/a/model.glb", "model/gltf-binary"},
		{"https://assets.meshy.ai/tasks/a/model.gltf", "model/gltf+json"},
		{"https://assets.meshy.ai/tasks/a/model.stl", "model/stl"},
		{"https://assets.meshy.ai/tasks/a/model.obj", "model/obj"},
		{"https://assets.meshy.ai/tasks/a/preview.webp", "image/webp"},
		{"https://assets.meshy.ai/tasks/a/preview.jpg", "image/jpeg"},
		{"https://assets.meshy.ai/tasks/a/preview.jpeg", "image/jpeg"},
		{"https://assets.meshy.ai/tasks/a/preview.png", "image/png"},
		{"https://assets.meshy.ai/tasks/a/MODEL.GLB", "model/gltf-binary"},
		{"https://assets.meshy.ai/tasks/a/model.glb?Expires=1&Signature=s", "model/gltf-binary"},
		{"https://assets.meshy.ai/tasks/a/manifest.json", "application/octet-stream"},
		{"https://assets.meshy.ai/tasks/a/noext", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentTypeFor(tt.url))
		})
	}
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("https://x/preview.png"))
	assert.True(t, IsImage("https://x/preview.webp?sig=1"))
	assert.True(t, IsImage("https://x/photo.JPG"))
	assert.False(t, IsImage("https://x/model.glb"))
	assert.False(t, IsImage("https://x/model.stl"))
}
