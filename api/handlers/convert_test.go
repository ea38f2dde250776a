package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/amywork777/jewelry-sub001/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleConvertSTL(t *testing.T) {
	h := NewConvertHandler(zap.NewNop())

	origin := "https://assets.meshy.ai/tasks/a/model.glb?Expires=1"
	req := httptest.NewRequest(http.MethodGet, "/api/v1/convert-stl?url="+url.QueryEscape(origin), nil)
	rec := httptest.NewRecorder()
	h.HandleConvertSTL(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, origin, resp.OriginalURL)
	assert.Equal(t, "/api/v1/model-proxy?url="+url.QueryEscape(origin), resp.StlURL)
	assert.NotEmpty(t, resp.Note)

	// stlUrl 里的源地址必须能原样解出来
	u, err := url.Parse(resp.StlURL)
	require.NoError(t, err)
	assert.Equal(t, origin, u.Query().Get("url"))
}

func TestHandleConvertSTLMissingURL(t *testing.T) {
	h := NewConvertHandler(zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/convert-stl", nil)
	rec := httptest.NewRecorder()
	h.HandleConvertSTL(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleConvertSTLMethodNotAllowed(t *testing.T) {
	h := NewConvertHandler(zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert-stl?url=x", nil)
	rec := httptest.NewRecorder()
	h.HandleConvertSTL(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
