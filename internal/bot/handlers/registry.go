package handlers

import (
	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RegisteredHandler represents a command handler with its description and middleware.
// It encapsulates all information needed to register and document a command.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	Description string
}

// commandEntry is one entry of the command table, in menu order.
type commandEntry struct {
	command     string
	description string
	factory     func(HandlerDeps) tgbot.HandlerFunc
}

var commandTable = []commandEntry{
	{"start", "Iniciar una nueva conversación", NewStartHandler},
	{"productos", "Ver productos disponibles", NewProductsHandler},
	{"ayuda", "Preguntas frecuentes o una consulta", NewHelpHandler},
	{"recomendar", "Recomendaciones de productos", NewRecommendHandler},
	{"reservar", "Reservar: /reservar <id> <cantidad>", NewReserveHandler},
	{"reservas", "Ver tus reservas", NewOrdersHandler},
	{"cancelar", "Cancelar: /cancelar <número>", NewCancelHandler},
	{"quitar", "Quitar un producto: /quitar <número> <ítem>", NewRemoveItemHandler},
	{"cotizar", "Cotizar: /cotizar <id> <cantidad>", NewQuoteHandler},
}

// RegisterAllCommands initializes and returns a map of all available bot commands.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler, len(commandTable))
	for _, c := range commandTable {
		handlers["/"+c.command] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     c.command,
			Handler:     c.factory(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Description: c.description,
		}
	}
	return handlers
}

// BotCommands lists the command menu shown by Telegram clients.
func BotCommands() []models.BotCommand {
	commands := make([]models.BotCommand, 0, len(commandTable))
	for _, c := range commandTable {
		commands = append(commands, models.BotCommand{Command: c.command, Description: c.description})
	}
	return commands
}
