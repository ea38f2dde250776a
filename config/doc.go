// Package config 提供网关的集中配置管理。
//
// 配置来源优先级: 默认值 → YAML 文件 → 环境变量（前缀 JEWELRY_）。
// 例如资产主机凭证可通过 JEWELRY_ASSETS_API_KEY 注入。
package config
