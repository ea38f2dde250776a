// Package types defines the shared error model of the jewelry gateway.
//
// 统一错误码与结构化错误，用于对齐 HTTP 状态码、可重试性与上游归因。
// Handlers 通过 *types.Error 传递失败原因，由 api/handlers 统一映射为
// JSON 错误响应。
package types
