package handlers

import (
	"net/http"
	"net/url"

	"github.com/amywork777/jewelry-sub001/api"
	"github.com/amywork777/jewelry-sub001/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🔄 STL 转换处理器
// =============================================================================

// convertNote 返回给客户端的固定说明
const convertNote = "load the model via stlUrl and export STL client-side"

// ConvertHandler 处理 STL 转换请求。服务端不做几何转换，
// 只把请求地址包装成模型代理地址，转换由客户端完成。
type ConvertHandler struct {
	logger *zap.Logger
}

// NewConvertHandler 创建 STL 转换处理器
func NewConvertHandler(logger *zap.Logger) *ConvertHandler {
	return &ConvertHandler{logger: logger.With(zap.String("handler", "convert_stl"))}
}

// HandleConvertSTL 处理 GET /api/v1/convert-stl
func (h *ConvertHandler) HandleConvertSTL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest,
			"method not allowed", h.logger)
		return
	}

	raw := r.URL.Query().Get("url")
	if raw == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"url query parameter is required", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, api.ConvertResponse{
		Success:     true,
		StlURL:      "/api/v1/model-proxy?url=" + url.QueryEscape(raw),
		OriginalURL: raw,
		Note:        convertNote,
	})
}
