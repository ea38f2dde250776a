package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/amywork777/jewelry-sub001/types"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// =============================================================================
// 📥 资产抓取器
// =============================================================================

// userAgent 注入上游请求的 UA；资产主机会拒绝空 UA 的请求
const userAgent = "jewelry-gateway/1.0"

// FetcherConfig 抓取器配置
type FetcherConfig struct {
	// Bearer 凭证，仅注入发往允许主机的请求
	BearerToken string
	// 允许代理的上游主机（后缀匹配）；为空则全部拒绝
	AllowedHosts []string
	// 单次抓取超时
	Timeout time.Duration
	// 单个资产最大字节数
	MaxBytes int64
}

// Asset 抓取结果
type Asset struct {
	Body        []byte
	ContentType string
	OriginURL   string
}

// Fetcher 代表网关向上游抓取资产，并发抓取同一 URL 时合并为一次请求。
type Fetcher struct {
	cfg    FetcherConfig
	client *http.Client
	logger *zap.Logger
	group  singleflight.Group
}

// NewFetcher 创建抓取器
func NewFetcher(cfg FetcherConfig, logger *zap.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 100 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "asset_fetcher")),
	}
}

// Fetch 抓取原始资产。originURL 必须是已解包的绝对 URL。
func (f *Fetcher) Fetch(ctx context.Context, originURL string) (*Asset, error) {
	u, err := url.Parse(originURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "origin URL is not a valid absolute URL").
			WithHTTPStatus(http.StatusBadRequest)
	}

	if !f.hostAllowed(u.Hostname()) {
		return nil, types.NewError(types.ErrHostNotAllowed,
			fmt.Sprintf("host %q is not an allowed asset host", u.Hostname())).
			WithHTTPStatus(http.StatusForbidden)
	}

	// 同一 URL 的并发抓取合并为一次上游请求
	v, err, _ := f.group.Do(originURL, func() (any, error) {
		return f.fetchOnce(ctx, originURL)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Asset), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, originURL string) (*Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, originURL, nil)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to build upstream request").
			WithCause(err).
			WithHTTPStatus(http.StatusBadRequest)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	if f.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.BearerToken)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		// http.Client.Timeout 不经由 ctx 暴露，超时判定看返回的错误本身
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, types.NewError(types.ErrUpstreamTimeout, "asset fetch timed out").
				WithCause(err).
				WithHTTPStatus(http.StatusGatewayTimeout).
				WithRetryable(true).
				WithUpstream("assets")
		}
		return nil, types.NewError(types.ErrUpstreamError, "asset fetch failed").
			WithCause(err).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithUpstream("assets")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := types.ErrUpstreamError
		if resp.StatusCode == http.StatusNotFound {
			code = types.ErrAssetNotFound
		}
		// 上游状态原样透传给调用方
		return nil, types.NewError(code,
			fmt.Sprintf("asset host returned status %d", resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode).
			WithRetryable(resp.StatusCode >= 500).
			WithUpstream("assets")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "failed to read asset body").
			WithCause(err).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithUpstream("assets")
	}
	if int64(len(body)) > f.cfg.MaxBytes {
		return nil, types.NewError(types.ErrAssetTooLarge,
			fmt.Sprintf("asset exceeds %d bytes", f.cfg.MaxBytes)).
			WithHTTPStatus(http.StatusRequestEntityTooLarge)
	}

	contentType := ContentTypeFor(originURL)
	if contentType == "application/octet-stream" {
		if upstream := resp.Header.Get("Content-Type"); upstream != "" {
			contentType = upstream
		}
	}

	f.logger.Debug("asset fetched",
		zap.String("url", originURL),
		zap.Int("bytes", len(body)),
		zap.String("content_type", contentType),
		zap.Duration("duration", time.Since(start)),
	)

	return &Asset{
		Body:        body,
		ContentType: contentType,
		OriginURL:   originURL,
	}, nil
}

// hostAllowed 后缀匹配允许主机列表
func (f *Fetcher) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range f.cfg.AllowedHosts {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
