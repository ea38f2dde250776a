package proxy

import (
	"net/url"
	"testing"

	"pgregory.net/rapid"
)

// genOriginURL 生成干净的资产 URL（绝对 http(s)，非代理路径）
func genOriginURL(t *rapid.T) string {
	scheme := rapid.SampledFrom([]string{"http", "https"}).Draw(t, "scheme")
	host := rapid.SampledFrom([]string{
		"assets.meshy.ai",
		"cdn.example.com",
		"models.jewelry.dev",
	}).Draw(t, "host")
	task := rapid.StringMatching(`[a-z0-9]{4,16}`).Draw(t, "task")
	ext := rapid.SampledFrom([]string{".glb", ".stl", ".obj", ".gltf", ".png", ".webp"}).Draw(t, "ext")

	u := scheme + "://" + host + "/tasks/" + task + "/output/model" + ext
	if rapid.Bool().Draw(t, "signed") {
		u += "?Expires=1700000000&Signature=" + rapid.StringMatching(`[A-Za-z0-9]{8,24}`).Draw(t, "sig")
	}
	return u
}

// 干净的原始 URL 是解包的不动点
func TestUnwrapFixedPoint(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		origin := genOriginURL(t)

		got, depth, err := Unwrap(origin)
		if err != nil {
			t.Fatalf("clean URL failed to unwrap: %v", err)
		}
		if got != origin {
			t.Fatalf("expected fixed point, got %q from %q", got, origin)
		}
		if depth != 0 {
			t.Fatalf("expected depth 0, got %d", depth)
		}
	})
}

// 任意组合包装 ≤ maxUnwrapDepth 层后，解包恢复原始 URL
func TestUnwrapRecoversWrappedURL(t *testing.T) {
	wrappers := []func(string) string{
		func(s string) string { return "/api/v1/model-proxy?url=" + url.QueryEscape(s) },
		func(s string) string { return "/api/model-proxy?url=" + url.QueryEscape(s) },
		func(s string) string {
			return "https://jewelry.example.com/api/v1/model-proxy?url=" + url.QueryEscape(s)
		},
		func(s string) string { return "https://corsproxy.io/?url=" + url.QueryEscape(s) },
		func(s string) string { return "https://api.allorigins.win/raw?url=" + url.QueryEscape(s) },
	}

	rapid.Check(t, func(t *rapid.T) {
		origin := genOriginURL(t)

		layers := rapid.IntRange(1, maxUnwrapDepth).Draw(t, "layers")
		wrapped := origin
		for i := 0; i < layers; i++ {
			idx := rapid.IntRange(0, len(wrappers)-1).Draw(t, "wrapper")
			wrapped = wrappers[idx](wrapped)
		}

		got, depth, err := Unwrap(wrapped)
		if err != nil {
			t.Fatalf("unwrap failed for %d layers: %v (input %q)", layers, err, wrapped)
		}
		if got != origin {
			t.Fatalf("expected %q, got %q", origin, got)
		}
		if depth != layers {
			t.Fatalf("expected depth %d, got %d", layers, depth)
		}
	})
}
