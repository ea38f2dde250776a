// Package handlers implements the gateway's HTTP route handlers.
//
// 每个路由一个处理器类型：提示词增强、模型代理、STL 转换、预览图代理、
// 程序化网格生成与健康检查。统一的响应信封与错误映射见 common.go。
package handlers
