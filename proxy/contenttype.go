package proxy

import (
	"net/url"
	"path"
	"strings"
)

// extContentTypes 按文件扩展名推断的 MIME 类型
var extContentTypes = map[string]string{
	".glb":  "model/gltf-binary",
	".gltf": "model/gltf+json",
	".stl":  "model/stl",
	".obj":  "model/obj",
	".webp": "image/webp",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// imageExts 触发 forceImageRedirect 的图片扩展名
var imageExts = map[string]bool{
	".webp": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ContentTypeFor 根据 URL 的文件扩展名推断 Content-Type。
// 无法识别时返回 application/octet-stream。
func ContentTypeFor(rawURL string) string {
	if ct, ok := extContentTypes[extOf(rawURL)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsImage 判断 URL 是否指向图片资产
func IsImage(rawURL string) bool {
	return imageExts[extOf(rawURL)]
}

// extOf 提取小写扩展名，忽略查询串（签名 URL 带有长查询参数）
func extOf(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}
