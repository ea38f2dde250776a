package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/amywork777/jewelry-sub001/types"
	"go.uber.org/zap"
)

// =============================================================================
// ✨ 提示词增强器
// =============================================================================

// enhanceSystemPrompt 固定的重写指令。生成结果直接喂给 text-to-3D 上游，
// 因此要求只输出重写后的提示词本身。
const enhanceSystemPrompt = `You are a jewelry design expert preparing prompts for a text-to-3D model generator.
Rewrite the user's description into a single detailed generation prompt.
Describe concrete geometry, proportions, materials, gemstones, and surface finish.
Do not mention people, hands, or backgrounds. Keep it under 60 words.
Return only the rewritten prompt with no commentary.`

// typeHints 按首饰类型追加的造型提示
var typeHints = map[string]string{
	"necklace": "The piece is a necklace: describe the chain or band, the pendant mount, and how elements repeat along the curve.",
	"ring":     "The piece is a ring: describe the band profile, shank details, and the setting of any center stone.",
	"bracelet": "The piece is a bracelet: describe link or cuff structure and the clasp.",
	"earring":  "The piece is an earring: describe the stud or drop structure; model a single earring.",
	"pendant":  "The piece is a pendant: describe the charm body and the bail; exclude the chain.",
}

// Cache 是增强结果缓存的最小抽象，由 internal/cache 实现。
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Metrics 是增强链路指标上报的最小抽象，由 internal/metrics 实现。
type Metrics interface {
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// enhanceCacheType 缓存指标的 cache_type label 值
const enhanceCacheType = "enhance"

// EnhancerConfig 增强器配置
type EnhancerConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// EnhanceResult 增强结果
type EnhanceResult struct {
	Original string `json:"original"`
	Enhanced string `json:"enhanced"`
	Type     string `json:"type"`
	Cached   bool   `json:"cached"`
}

// Enhancer 将用户的自由文本描述重写为适合 text-to-3D 生成的提示词。
type Enhancer struct {
	provider Provider
	cache    Cache
	metrics  Metrics
	cfg      EnhancerConfig
	logger   *zap.Logger
}

// NewEnhancer 创建增强器
func NewEnhancer(provider Provider, cfg EnhancerConfig, logger *zap.Logger) *Enhancer {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enhancer{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// WithCache 挂载结果缓存。缓存失败只记日志，不影响请求。
func (e *Enhancer) WithCache(c Cache) *Enhancer {
	e.cache = c
	return e
}

// WithMetrics 挂载指标上报
func (e *Enhancer) WithMetrics(m Metrics) *Enhancer {
	e.metrics = m
	return e
}

// Enhance 重写提示词。同一 (type, prompt) 的结果命中缓存时跳过 LLM 调用。
func (e *Enhancer) Enhance(ctx context.Context, prompt, jewelryType string) (*EnhanceResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "prompt is required").
			WithHTTPStatus(http.StatusBadRequest)
	}

	jewelryType = normalizeType(jewelryType)

	key := cacheKey(jewelryType, prompt)
	if e.cache != nil {
		if cached, ok, err := e.cache.Get(ctx, key); err != nil {
			e.logger.Warn("enhance cache read failed", zap.Error(err))
		} else if ok {
			if e.metrics != nil {
				e.metrics.RecordCacheHit(enhanceCacheType)
			}
			return &EnhanceResult{
				Original: prompt,
				Enhanced: cached,
				Type:     jewelryType,
				Cached:   true,
			}, nil
		} else if e.metrics != nil {
			e.metrics.RecordCacheMiss(enhanceCacheType)
		}
	}

	system := enhanceSystemPrompt
	if hint, ok := typeHints[jewelryType]; ok {
		system += "\n" + hint
	}

	req := &ChatRequest{
		Model: e.cfg.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: prompt},
		},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Timeout:     e.cfg.Timeout,
	}

	callCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := e.provider.Completion(callCtx, req)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordLLMRequest(e.provider.Name(), e.cfg.Model, "error",
				time.Since(start), 0, 0)
		}
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordLLMRequest(e.provider.Name(), e.cfg.Model, "success",
			time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	if len(resp.Choices) == 0 {
		return nil, types.NewError(types.ErrUpstreamError, "llm returned no choices").
			WithHTTPStatus(http.StatusBadGateway).
			WithUpstream(e.provider.Name())
	}

	enhanced := strings.TrimSpace(resp.Choices[0].Message.Content)
	if enhanced == "" {
		return nil, types.NewError(types.ErrUpstreamError, "llm returned empty completion").
			WithHTTPStatus(http.StatusBadGateway).
			WithUpstream(e.provider.Name())
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, enhanced, e.cfg.CacheTTL); err != nil {
			e.logger.Warn("enhance cache write failed", zap.Error(err))
		}
	}

	return &EnhanceResult{
		Original: prompt,
		Enhanced: enhanced,
		Type:     jewelryType,
		Cached:   false,
	}, nil
}

// normalizeType 规范化首饰类型；未知类型归入 jewelry
func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return "jewelry"
	}
	if _, ok := typeHints[t]; ok {
		return t
	}
	return "jewelry"
}

// cacheKey 由 (type, prompt) 派生稳定缓存键
func cacheKey(jewelryType, prompt string) string {
	h := sha256.Sum256([]byte(jewelryType + "\x00" + prompt))
	return "enhance:" + hex.EncodeToString(h[:])
}
