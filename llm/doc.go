// Package llm defines the provider abstraction used for prompt
// enhancement, plus the Enhancer that wraps a Provider with the fixed
// jewelry instruction templates and an optional result cache.
//
// 子包 openai 提供 OpenAI 兼容接口的 Provider 实现。
package llm
