package handlers

import (
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func getNecklace(target string) *httptest.ResponseRecorder {
	h := NewMeshHandler(zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.HandleNecklace(rec, req)
	return rec
}

func TestHandleNecklaceSTL(t *testing.T) {
	rec := getNecklace("/api/v1/mesh/necklace?segments=16&sides=8&beads=4")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model/stl", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "necklace.stl")

	raw := rec.Body.Bytes()
	require.GreaterOrEqual(t, len(raw), 84)
	count := binary.LittleEndian.Uint32(raw[80:84])
	assert.Equal(t, 84+50*int(count), len(raw))
}

func TestHandleNecklaceOBJ(t *testing.T) {
	rec := getNecklace("/api/v1/mesh/necklace?format=obj&segments=16&sides=8&beads=0")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model/obj", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "necklace.obj")
	assert.True(t, strings.Contains(rec.Body.String(), "\nv "))
	assert.True(t, strings.Contains(rec.Body.String(), "\nf "))
}

func TestHandleNecklaceDefaultsToSTL(t *testing.T) {
	rec := getNecklace("/api/v1/mesh/necklace")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model/stl", rec.Header().Get("Content-Type"))
}

func TestHandleNecklaceBadParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"negative radius", "/api/v1/mesh/necklace?radius=-1"},
		{"thickness exceeds radius", "/api/v1/mesh/necklace?radius=2&thickness=3"},
		{"too many beads", "/api/v1/mesh/necklace?beads=9999"},
		{"non-numeric radius", "/api/v1/mesh/necklace?radius=abc"},
		{"non-numeric beads", "/api/v1/mesh/necklace?beads=1.5"},
		{"unknown format", "/api/v1/mesh/necklace?format=gltf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := getNecklace(tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleNecklaceMethodNotAllowed(t *testing.T) {
	h := NewMeshHandler(zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mesh/necklace", nil)
	rec := httptest.NewRecorder()
	h.HandleNecklace(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
