/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP、
资产代理、LLM 增强与缓存四个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制。所有指标按 namespace 隔离，支持多维度 label 分组。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 代理指标：抓取总数、耗时、资产大小与 URL 解包深度，
    按 outcome（ok/redirect/unwrap_failed/fetch_failed）分组。
  - LLM 指标：请求总数、请求耗时、Token 用量（prompt/completion），
    按 provider/model 分组。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。
*/
package metrics
