package api

// =============================================================================
// 📦 请求 / 响应 DTO
// =============================================================================

// EnhanceRequest 提示词增强请求
type EnhanceRequest struct {
	// Prompt 用户原始描述
	Prompt string `json:"prompt"`
	// Type 首饰类型：necklace / ring / bracelet / earring / pendant，
	// 留空或未知类型按通用 jewelry 处理
	Type string `json:"type,omitempty"`
}

// EnhanceResponse 提示词增强响应
type EnhanceResponse struct {
	OriginalPrompt string `json:"originalPrompt"`
	EnhancedPrompt string `json:"enhancedPrompt"`
	Type           string `json:"type"`
	// Cached 命中缓存时为 true
	Cached bool `json:"cached"`
}

// ConvertResponse STL 转换响应。转换在客户端完成，服务端仅返回
// 可直接加载源模型的代理地址。历史客户端依赖这个扁平结构，
// 不走统一响应信封。
type ConvertResponse struct {
	Success bool `json:"success"`
	// StlURL 经网关代理、客户端可转换的模型地址
	StlURL string `json:"stlUrl"`
	// OriginalURL 请求中的源模型地址
	OriginalURL string `json:"originalUrl"`
	// Note 客户端转换说明
	Note string `json:"note,omitempty"`
}
