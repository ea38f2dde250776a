// Package api defines the gateway's HTTP request and response types.
//
// api 包只包含传输层 DTO，不包含业务逻辑；处理器实现见 api/handlers。
package api
