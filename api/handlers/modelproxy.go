package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/amywork777/jewelry-sub001/proxy"
	"github.com/amywork777/jewelry-sub001/types"
	"go.uber.org/zap"
)

// =============================================================================
// 📥 模型代理处理器
// =============================================================================

// ProxyMetrics 代理抓取指标回调，由 internal/metrics.Collector 实现
type ProxyMetrics interface {
	RecordProxyFetch(outcome string, bytes int, duration time.Duration, unwrapDepth int)
}

// ModelProxyHandler 处理模型资产代理请求
type ModelProxyHandler struct {
	fetcher *proxy.Fetcher
	metrics ProxyMetrics
	logger  *zap.Logger
}

// NewModelProxyHandler 创建模型代理处理器
func NewModelProxyHandler(fetcher *proxy.Fetcher, logger *zap.Logger) *ModelProxyHandler {
	return &ModelProxyHandler{
		fetcher: fetcher,
		logger:  logger.With(zap.String("handler", "model_proxy")),
	}
}

// WithMetrics 挂载抓取指标
func (h *ModelProxyHandler) WithMetrics(m ProxyMetrics) *ModelProxyHandler {
	h.metrics = m
	return h
}

// HandleModelProxy 处理 GET /api/v1/model-proxy
func (h *ModelProxyHandler) HandleModelProxy(w http.ResponseWriter, r *http.Request) {
	setAssetCORSHeaders(w)

	// 预检与探测请求直接放行
	if r.Method == http.MethodOptions || r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
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

	start := time.Now()

	origin, depth, err := proxy.Unwrap(raw)
	if err != nil {
		h.record("unwrap_failed", 0, start, depth)
		// 错误消息是对外契约，客户端据此提示用户
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrUnwrapFailed,
			proxy.ErrUnresolvable.Error(), h.logger)
		return
	}
	if depth > 0 {
		h.logger.Info("unwrapped nested asset URL",
			zap.String("origin", origin),
			zap.Int("depth", depth),
		)
	}

	// 图片可直接 302 回源，省一次中转
	if r.URL.Query().Get("forceImageRedirect") == "true" && proxy.IsImage(origin) {
		h.record("redirect", 0, start, depth)
		http.Redirect(w, r, origin, http.StatusFound)
		return
	}

	asset, err := h.fetcher.Fetch(r.Context(), origin)
	if err != nil {
		h.record("fetch_failed", 0, start, depth)
		WriteTypedError(w, err, h.logger)
		return
	}

	h.record("ok", len(asset.Body), start, depth)

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(asset.Body)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(asset.Body)
}

func (h *ModelProxyHandler) record(outcome string, bytes int, start time.Time, depth int) {
	if h.metrics != nil {
		h.metrics.RecordProxyFetch(outcome, bytes, time.Since(start), depth)
	}
}

// setAssetCORSHeaders 资产响应使用宽松 CORS，浏览器端 3D 查看器直接跨域加载
func setAssetCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "86400")
}
