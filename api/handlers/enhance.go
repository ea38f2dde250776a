package handlers

import (
	"net/http"

	"github.com/amywork777/jewelry-sub001/api"
	"github.com/amywork777/jewelry-sub001/llm"
	"github.com/amywork777/jewelry-sub001/types"
	"go.uber.org/zap"
)

// =============================================================================
// ✨ 提示词增强处理器
// =============================================================================

// EnhanceHandler 处理提示词增强请求
type EnhanceHandler struct {
	enhancer *llm.Enhancer
	logger   *zap.Logger
}

// NewEnhanceHandler 创建提示词增强处理器
func NewEnhanceHandler(enhancer *llm.Enhancer, logger *zap.Logger) *EnhanceHandler {
	return &EnhanceHandler{
		enhancer: enhancer,
		logger:   logger.With(zap.String("handler", "enhance")),
	}
}

// HandleEnhance 处理 POST /api/v1/enhance
func (h *EnhanceHandler) HandleEnhance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest,
			"method not allowed", h.logger)
		return
	}

	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.EnhanceRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	result, err := h.enhancer.Enhance(r.Context(), req.Prompt, req.Type)
	if err != nil {
		WriteTypedError(w, err, h.logger)
		return
	}

	h.logger.Info("prompt enhanced",
		zap.String("type", result.Type),
		zap.Bool("cached", result.Cached),
		zap.Int("original_len", len(result.Original)),
		zap.Int("enhanced_len", len(result.Enhanced)),
	)

	WriteSuccess(w, api.EnhanceResponse{
		OriginalPrompt: result.Original,
		EnhancedPrompt: result.Enhanced,
		Type:           result.Type,
		Cached:         result.Cached,
	})
}
