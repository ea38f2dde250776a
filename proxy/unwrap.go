package proxy

import (
	"errors"
	"net/url"
	"strings"
)

// =============================================================================
// 🔗 嵌套代理 URL 解包
// =============================================================================
// 浏览器侧历史代码会把资产 URL 层层包进代理地址（自身的 model-proxy、
// 公共 CORS 代理、或二次 percent 编码）。这里用固定前缀匹配剥离包装，
// 还原最内层的原始资产 URL。
// =============================================================================

// maxUnwrapDepth 解包层数上限，超出视为不可恢复的嵌套
const maxUnwrapDepth = 5

// ErrUnresolvable 在解包失败时返回；消息文本是对外 API 契约的一部分。
var ErrUnresolvable = errors.New("unable to resolve origin asset URL")

// selfProxyPaths 本服务（及旧版 Web 前端）的 model-proxy 路由路径
var selfProxyPaths = []string{
	"/api/v1/model-proxy",
	"/api/model-proxy",
}

// corsProxyPrefixes 已知公共 CORS 代理的固定前缀。
// 顺序有意从长到短，避免短前缀截断长前缀的匹配。
var corsProxyPrefixes = []string{
	"https://corsproxy.io/?url=",
	"https://corsproxy.io/?",
	"https://api.allorigins.win/raw?url=",
	"https://cors-anywhere.herokuapp.com/",
}

// Unwrap 将可能嵌套/二次编码的资产 URL 还原为最内层的原始 URL。
// 返回原始 URL 与实际剥离的包装层数。
func Unwrap(raw string) (string, int, error) {
	current := strings.TrimSpace(raw)
	if current == "" {
		return "", 0, ErrUnresolvable
	}

	for depth := 0; depth <= maxUnwrapDepth; depth++ {
		next, unwrapped := unwrapOnce(current)
		if !unwrapped {
			if !isOriginURL(next) {
				return "", depth, ErrUnresolvable
			}
			return next, depth, nil
		}
		current = next
	}

	return "", maxUnwrapDepth, ErrUnresolvable
}

// unwrapOnce 剥离一层包装；返回 (结果, 是否剥离了一层)
func unwrapOnce(s string) (string, bool) {
	// 1. 公共 CORS 代理前缀
	for _, prefix := range corsProxyPrefixes {
		if strings.HasPrefix(s, prefix) {
			rest := strings.TrimPrefix(s, prefix)
			if decoded, err := url.QueryUnescape(rest); err == nil && decoded != "" {
				return decoded, true
			}
			return rest, true
		}
	}

	// 2. 自身 model-proxy 路由（相对路径或绝对地址）
	if u, err := url.Parse(s); err == nil {
		for _, p := range selfProxyPaths {
			if u.Path == p || strings.HasSuffix(u.Path, p) {
				if inner := u.Query().Get("url"); inner != "" {
					return inner, true
				}
				// model-proxy 地址却没有 url 参数：无法恢复
				return s, false
			}
		}
	}

	// 3. 整体 percent 编码的 URL（无 scheme 但解码后出现 scheme）
	if !strings.Contains(s, "://") && strings.Contains(s, "%3A%2F%2F") {
		if decoded, err := url.QueryUnescape(s); err == nil && decoded != s {
			return decoded, true
		}
	}

	return s, false
}

// isOriginURL 判断字符串是否为可直接抓取的绝对 http(s) URL
func isOriginURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}
	// 仍指向某个代理包装的 URL 不算原始地址
	for _, p := range selfProxyPaths {
		if u.Path == p || strings.HasSuffix(u.Path, p) {
			return false
		}
	}
	return true
}
