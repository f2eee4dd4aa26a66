package tasks

import (
	"context"
	"fmt"
	"time"
)

// newConversationCloseTask closes conversations idle for longer than
// conversations.idle_timeout, so the next message opens a new one.
func newConversationCloseTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "conversation_close")
	idle := deps.Config.Conversations.IdleTimeout

	return func(ctx context.Context) error {
		closed, err := deps.Store.CloseIdleConversations(ctx, time.Now().UTC().Add(-idle))
		if err != nil {
			return fmt.Errorf("closing idle conversations failed: %w", err)
		}
		if closed > 0 {
			log.InfoContext(ctx, "Closed idle conversations", "count", closed, "idle_timeout", idle)
		}
		return nil
	}
}
