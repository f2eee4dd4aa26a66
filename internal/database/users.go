package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/techretail/retailbot/internal/domain"
)

const userSelect = `
        SELECT id, telegram_id, username, first_name, last_name, preferences, cart_order_id, created_at
        FROM users`

// GetUser loads a user by internal id.
func (s *sqlxStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := s.db.GetContext(ctx, &user, userSelect+" WHERE id = ?", id); err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// GetUserByTelegramID loads a user by platform id.
func (s *sqlxStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	var user domain.User
	if err := s.db.GetContext(ctx, &user, userSelect+" WHERE telegram_id = ?", telegramID); err != nil {
		return nil, notFound(err, "user with telegram id", telegramID)
	}
	return &user, nil
}

// UpsertUser creates the user on first contact or refreshes its profile fields.
func (s *sqlxStore) UpsertUser(ctx context.Context, identity domain.Identity) (*domain.User, bool, error) {
	if identity.TelegramID <= 0 {
		return nil, false, fmt.Errorf("%w: telegram_id must be positive", domain.ErrValidation)
	}

	var user *domain.User
	var created bool
	err := s.withTx(ctx, "upsert_user", func(tx *sqlx.Tx) error {
		var err error
		user, created, err = upsertUserTx(ctx, tx, identity)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.InfoContext(ctx, "Created user", "user_id", user.ID, "telegram_id", user.TelegramID)
	}
	return user, created, nil
}

func upsertUserTx(ctx context.Context, tx *sqlx.Tx, identity domain.Identity) (*domain.User, bool, error) {
	var user domain.User
	err := tx.GetContext(ctx, &user, userSelect+" WHERE telegram_id = ?", identity.TelegramID)
	switch {
	case err == nil:
		if user.Username == identity.Username && user.FirstName == identity.FirstName && user.LastName == identity.LastName {
			return &user, false, nil
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET username = ?, first_name = ?, last_name = ? WHERE id = ?`,
			identity.Username, identity.FirstName, identity.LastName, user.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update user %d: %w", user.ID, err)
		}
		user.Username, user.FirstName, user.LastName = identity.Username, identity.FirstName, identity.LastName
		return &user, false, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	user = domain.User{
		TelegramID: identity.TelegramID,
		Username:   identity.Username,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		CreatedAt:  now(),
	}
	result, err := tx.NamedExecContext(ctx, `
        INSERT INTO users (telegram_id, username, first_name, last_name, preferences, created_at)
        VALUES (:telegram_id, :username, :first_name, :last_name, '', :created_at)`, &user)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID, err = result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read new user id: %w", err)
	}
	return &user, true, nil
}

// UpdatePreferences stores the comma separated preference tags of a user.
func (s *sqlxStore) UpdatePreferences(ctx context.Context, userID int64, preferences string) (*domain.User, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET preferences = ? WHERE id = ?`, preferences, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences of user %d: %w", userID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	return s.GetUser(ctx, userID)
}
