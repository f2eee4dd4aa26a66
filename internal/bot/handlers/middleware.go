// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused per-user bucket is kept.
const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter holds one token bucket per Telegram user.
type rateLimiter struct {
	every time.Duration
	burst int

	mu    sync.Mutex
	users map[int64]*userLimiter
	swept time.Time
}

func newRateLimiter(every time.Duration, burst int) *rateLimiter {
	return &rateLimiter{every: every, burst: burst, users: make(map[int64]*userLimiter)}
}

func (r *rateLimiter) allow(userID int64, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.swept) > limiterIdleTTL {
		for id, u := range r.users {
			if now.Sub(u.lastSeen) > limiterIdleTTL {
				delete(r.users, id)
			}
		}
		r.swept = now
	}

	u, ok := r.users[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(rate.Every(r.every), r.burst)}
		r.users[userID] = u
	}
	u.lastSeen = now
	return u.limiter.AllowN(now, 1)
}

// RateLimit creates a middleware that drops messages from users exceeding
// their token bucket, answering with a short notice instead.
func RateLimit(deps HandlerDeps) tgbot.Middleware {
	cfg := deps.Config.RateLimit
	limiter := newRateLimiter(cfg.Interval, cfg.Burst)

	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if !cfg.Enabled || !validMessage(update) {
				next(ctx, bot, update)
				return
			}

			userID := update.Message.From.ID
			if limiter.allow(userID, time.Now()) {
				next(ctx, bot, update)
				return
			}

			chatID := update.Message.Chat.ID
			log := deps.Logger.With("middleware", "RateLimit")
			log.WarnContext(ctx, "Rate limit exceeded", "user_id", userID, "chat_id", chatID)

			_, err := deps.messenger(bot).SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: chatID,
				Text:   deps.Config.Messages.RateLimited,
			})
			if err != nil {
				log.ErrorContext(ctx, "Failed to send rate limit message", "error", err, "chat_id", chatID)
			}
		}
	}
}
