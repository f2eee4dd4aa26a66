package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techretail/retailbot/internal/bot/handlers"
	"github.com/techretail/retailbot/internal/logger"
)

type registration struct {
	pattern   string
	matchType bot.MatchType
	handler   bot.HandlerFunc
}

type fakeRegistrar struct {
	registered []registration
}

func (f *fakeRegistrar) RegisterHandler(_ bot.HandlerType, pattern string, matchType bot.MatchType, h bot.HandlerFunc, _ ...bot.Middleware) string {
	f.registered = append(f.registered, registration{pattern, matchType, h})
	return pattern
}

type fakePublisher struct {
	params *bot.SetMyCommandsParams
	err    error
}

func (f *fakePublisher) SetMyCommands(_ context.Context, params *bot.SetMyCommandsParams) (bool, error) {
	f.params = params
	return f.err == nil, f.err
}

func TestApplyMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) bot.Middleware {
		return func(next bot.HandlerFunc) bot.HandlerFunc {
			return func(ctx context.Context, b *bot.Bot, u *models.Update) {
				order = append(order, name)
				next(ctx, b, u)
			}
		}
	}
	h := applyMiddleware(func(context.Context, *bot.Bot, *models.Update) {
		order = append(order, "handler")
	}, []bot.Middleware{mw("outer"), mw("inner")})

	h(context.Background(), nil, &models.Update{})
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRegisterHandlers(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, *bot.Bot, *models.Update) {}
	reg := &fakeRegistrar{}
	err := RegisterHandlers(reg, logger.Discard(), map[string]handlers.RegisteredHandler{
		"/start":     {Pattern: "start", Handler: noop, MatchType: bot.MatchTypeCommandStartOnly},
		"/productos": {Pattern: "productos", Handler: noop, MatchType: bot.MatchTypeCommandStartOnly},
		"/broken":    {Pattern: "broken"},
	})
	require.NoError(t, err)

	patterns := make([]string, 0, len(reg.registered))
	for _, r := range reg.registered {
		patterns = append(patterns, r.pattern)
		assert.Equal(t, bot.MatchTypeCommandStartOnly, r.matchType)
	}
	assert.ElementsMatch(t, []string{"start", "productos"}, patterns)

	assert.NoError(t, RegisterHandlers(reg, nil, nil))
}

func TestSetCommands(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	commands := []models.BotCommand{{Command: "start", Description: "Iniciar"}}
	require.NoError(t, SetCommands(context.Background(), pub, commands))
	assert.Equal(t, commands, pub.params.Commands)

	pub.err = errors.New("Unauthorized")
	assert.ErrorContains(t, SetCommands(context.Background(), pub, commands), "Unauthorized")
}
