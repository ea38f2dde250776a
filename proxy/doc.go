// Package proxy implements the asset proxying core of the gateway:
// unwrapping nested proxy URL encodings back to the origin asset URL,
// inferring content types from file extensions, and fetching asset
// bytes from allowlisted upstream hosts with the configured bearer
// credential injected.
package proxy
