package analytics

import (
	"context"

	"socialstar-core/internal/common/logger"
)

// NopTracker logs events instead of publishing them. Used when the SNS
// transport is disabled.
type NopTracker struct {
	logger logger.Logger
}

func NewNopTracker(log logger.Logger) *NopTracker {
	return &NopTracker{logger: log.WithFields(map[string]interface{}{"component": "analytics"})}
}

func (t *NopTracker) Track(ctx context.Context, event string, properties map[string]interface{}) error {
	t.logger.Debug("analytics disabled, dropping event", map[string]interface{}{
		"event": event,
	})
	return nil
}

func (t *NopTracker) MarkSeen(ctx context.Context) error {
	return nil
}
