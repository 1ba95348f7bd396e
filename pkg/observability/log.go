package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug lines to a
// charm logger. `ogdraster -v` registers it so that cache and HTTP activity
// shows up next to the pipeline's own log output.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

// Register installs h for all hook categories.
func (h *LogHooks) Register() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnFetchStart(_ context.Context, collection, variable string) {
	h.Logger.Debug("fetch started", "collection", collection, "variable", variable)
}

func (h *LogHooks) OnFetchComplete(_ context.Context, collection, variable string, cells int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("fetch failed", "collection", collection, "variable", variable, "elapsed", d, "err", err)
		return
	}
	h.Logger.Debug("fetch complete", "collection", collection, "variable", variable, "cells", cells, "elapsed", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, variable, mode, format string) {
	h.Logger.Debug("render started", "variable", variable, "mode", mode, "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, variable string, size int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("render failed", "variable", variable, "elapsed", d, "err", err)
		return
	}
	h.Logger.Debug("render complete", "variable", variable, "bytes", size, "elapsed", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "kind", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "elapsed", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
