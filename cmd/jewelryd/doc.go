// jewelryd 是首饰 3D 模型生成网关的服务端入口，
// 提供 serve/version/health 子命令。
package main
