package course

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mo-amir99/course-server-go/pkg/cache"
)

const (
	indexCacheKey = "courses:index"
	indexCacheTTL = 10 * time.Minute
)

func (h *Handler) cachedIndex(ctx context.Context) ([]Course, bool) {
	if h.cache == nil {
		return nil, false
	}

	var courses []Course
	err := cache.GetJSON(ctx, h.cache, indexCacheKey, &courses)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			h.logger.Warn("course index cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	return courses, true
}

func (h *Handler) storeIndex(ctx context.Context, courses []Course) {
	if h.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, h.cache, indexCacheKey, courses, indexCacheTTL); err != nil {
		h.logger.Warn("course index cache write failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) invalidateIndex(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, indexCacheKey); err != nil {
		h.logger.Warn("course index cache invalidation failed", slog.String("error", err.Error()))
	}
}
