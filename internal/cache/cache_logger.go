package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateModuleCache invalidates module content plus the report caches
// that aggregate over it.
func InvalidateModuleCache(ctx context.Context, cm *CacheManager, moduleID uint) {
	SafeDelete(ctx, cm.Module, fmt.Sprintf("id:%d", moduleID))
	SafeInvalidatePattern(ctx, cm.Module, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}

// InvalidateQuizCache invalidates the sanitized quiz payload after edits
func InvalidateQuizCache(ctx context.Context, cm *CacheManager, quizID uint) {
	SafeDelete(ctx, cm.Quiz, fmt.Sprintf("id:%d", quizID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("quiz:%d:*", quizID))
}
