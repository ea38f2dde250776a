package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/amywork777/jewelry-sub001/proxy"
	"github.com/amywork777/jewelry-sub001/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🖼️ 预览图代理处理器
// =============================================================================

// taskIDPattern 任务 ID 只允许 URL 安全字符，防止拼进预览地址时注入路径
var taskIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ImageProxyHandler 按任务 ID 代理预览图
type ImageProxyHandler struct {
	fetcher *proxy.Fetcher
	// previewURLPattern 含一个 %s 占位符，填入任务 ID
	previewURLPattern string
	logger            *zap.Logger
}

// NewImageProxyHandler 创建预览图代理处理器
func NewImageProxyHandler(fetcher *proxy.Fetcher, previewURLPattern string, logger *zap.Logger) *ImageProxyHandler {
	return &ImageProxyHandler{
		fetcher:           fetcher,
		previewURLPattern: previewURLPattern,
		logger:            logger.With(zap.String("handler", "image_proxy")),
	}
}

// HandleImageProxy 处理 GET /api/v1/image-proxy
func (h *ImageProxyHandler) HandleImageProxy(w http.ResponseWriter, r *http.Request) {
	setAssetCORSHeaders(w)

	if r.Method == http.MethodOptions || r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest,
			"method not allowed", h.logger)
		return
	}

	taskID := r.URL.Query().Get("taskId")
	if taskID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"taskId query parameter is required", h.logger)
		return
	}
	if !taskIDPattern.MatchString(taskID) {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"taskId contains invalid characters", h.logger)
		return
	}

	previewURL := fmt.Sprintf(h.previewURLPattern, taskID)

	asset, err := h.fetcher.Fetch(r.Context(), previewURL)
	if err != nil {
		WriteTypedError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(asset.Body)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(asset.Body)
}
