package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/techretail/retailbot/internal/domain"
)

const conversationSelect = `
        SELECT c.id, c.user_id, c.start_time, c.end_time, c.last_activity
        FROM conversations c`

// OpenConversation returns the user's open conversation, creating one if needed.
// At most one conversation per user is open at any time.
func (s *sqlxStore) OpenConversation(ctx context.Context, userID int64) (*domain.Conversation, bool, error) {
	var conv domain.Conversation
	var created bool

	err := s.withTx(ctx, "open_conversation", func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, userID); err != nil {
			return fmt.Errorf("failed to check user %d: %w", userID, err)
		}
		if !exists {
			return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
		}

		err := tx.GetContext(ctx, &conv, conversationSelect+
			" WHERE c.user_id = ? AND c.end_time IS NULL ORDER BY c.id DESC LIMIT 1", userID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to look up open conversation: %w", err)
		}

		ts := now()
		conv = domain.Conversation{UserID: userID, StartTime: ts, LastActivity: ts}
		result, err := tx.NamedExecContext(ctx, `
            INSERT INTO conversations (user_id, start_time, end_time, last_activity)
            VALUES (:user_id, :start_time, NULL, :last_activity)`, &conv)
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		conv.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read new conversation id: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.DebugContext(ctx, "Opened conversation", "conversation_id", conv.ID, "user_id", userID)
	}
	return &conv, created, nil
}

// GetConversation loads a conversation by id.
func (s *sqlxStore) GetConversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := s.db.GetContext(ctx, &conv, conversationSelect+" WHERE c.id = ?", id); err != nil {
		return nil, notFound(err, "conversation", id)
	}
	return &conv, nil
}

// ListConversations returns a page of conversations plus the total match count.
func (s *sqlxStore) ListConversations(ctx context.Context, filter ConversationFilter) ([]domain.Conversation, int, error) {
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}
	page := filter.Page.normalized()

	var where []string
	var args []any
	if filter.UserID != 0 {
		where = append(where, "c.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.TelegramID != 0 {
		where = append(where, "c.user_id IN (SELECT id FROM users WHERE telegram_id = ?)")
		args = append(args, filter.TelegramID)
	}
	if filter.OpenOnly {
		where = append(where, "c.end_time IS NULL")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	order := " ORDER BY c.id ASC"
	if filter.NewestFirst {
		order = " ORDER BY c.id DESC"
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM conversations c"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	convs := []domain.Conversation{}
	query := conversationSelect + clause + order + " LIMIT ? OFFSET ?"
	if err := s.db.SelectContext(ctx, &convs, query, append(args, page.Limit, page.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, total, nil
}

// CloseConversation sets the end time of an open conversation. Closing a
// closed conversation returns it unchanged.
func (s *sqlxStore) CloseConversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET end_time = ? WHERE id = ? AND end_time IS NULL`, now(), id); err != nil {
		return nil, fmt.Errorf("failed to close conversation %d: %w", id, err)
	}
	return s.GetConversation(ctx, id)
}

// CloseIdleConversations closes open conversations whose last activity is before cutoff.
func (s *sqlxStore) CloseIdleConversations(ctx context.Context, cutoff time.Time) (int, error) {
	closed := 0
	err := s.withTx(ctx, "close_idle_conversations", func(tx *sqlx.Tx) error {
		var open []domain.Conversation
		if err := tx.SelectContext(ctx, &open, conversationSelect+" WHERE c.end_time IS NULL"); err != nil {
			return fmt.Errorf("failed to list open conversations: %w", err)
		}

		ts := now()
		for _, conv := range open {
			if !conv.LastActivity.Before(cutoff) {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE conversations SET end_time = ? WHERE id = ? AND end_time IS NULL`, ts, conv.ID); err != nil {
				return fmt.Errorf("failed to close conversation %d: %w", conv.ID, err)
			}
			closed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return closed, nil
}

// AppendMessage stores one turn and bumps the conversation's activity time.
func (s *sqlxStore) AppendMessage(ctx context.Context, message *domain.Message) error {
	if message == nil {
		return fmt.Errorf("%w: cannot save nil message", domain.ErrValidation)
	}
	if message.Sender != domain.SenderUser && message.Sender != domain.SenderBot {
		return fmt.Errorf("%w: sender must be %q or %q", domain.ErrValidation, domain.SenderUser, domain.SenderBot)
	}
	if strings.TrimSpace(message.Content) == "" {
		return fmt.Errorf("%w: message must have non-empty content", domain.ErrValidation)
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = now()
	}

	return s.withTx(ctx, "append_message", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE conversations SET last_activity = ? WHERE id = ?`, message.Timestamp, message.ConversationID)
		if err != nil {
			return fmt.Errorf("failed to touch conversation %d: %w", message.ConversationID, err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("conversation %d: %w", message.ConversationID, domain.ErrNotFound)
		}

		result, err = tx.NamedExecContext(ctx, `
            INSERT INTO messages (conversation_id, sender, content, timestamp)
            VALUES (:conversation_id, :sender, :content, :timestamp)`, message)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error saving message", "conversation_id", message.ConversationID, "error", err)
			return fmt.Errorf("failed to save message: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			message.ID = id
		}
		return nil
	})
}

// ListMessages returns a page of messages of one conversation.
func (s *sqlxStore) ListMessages(ctx context.Context, filter MessageFilter) ([]domain.Message, int, error) {
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}
	page := filter.Page.normalized()

	where := ""
	var args []any
	if filter.ConversationID != 0 {
		where = " WHERE conversation_id = ?"
		args = append(args, filter.ConversationID)
	}
	order := " ORDER BY id ASC"
	if filter.NewestFirst {
		order = " ORDER BY id DESC"
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM messages"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	messages := []domain.Message{}
	query := `SELECT id, conversation_id, sender, content, timestamp FROM messages` + where + order + " LIMIT ? OFFSET ?"
	if err := s.db.SelectContext(ctx, &messages, query, append(args, page.Limit, page.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, total, nil
}
