/*
包 cache 提供基于 Redis 的增强结果缓存，支持连接池与健康检查。

# 概述

本包封装 go-redis 客户端，为提示词增强路由提供结果缓存。
Manager 负责连接生命周期管理，包括初始化、健康检查与优雅关闭，
并实现 llm.Cache 接口。

# 核心类型

  - Manager：缓存管理器，持有 Redis 客户端与连接池配置，
    提供 Get/Set/Delete 基础操作。Get 以 (value, found, error)
    三元组区分未命中与故障。
  - Config：缓存配置，包含地址、密码、连接池大小、默认 TTL
    与健康检查间隔等参数。

# 主要能力

  - 键值读写：缓存键由调用方派生（增强路由使用 SHA-256 摘要键）。
  - 连接池管理：通过 PoolSize 与 MinIdleConns 控制连接复用。
  - 健康检查：后台定时 Ping 检测，异常时通过 zap 日志告警。
  - 优雅关闭：Close 方法安全释放底层 Redis 连接。
*/
package cache
