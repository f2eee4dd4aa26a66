package config

import "time"

// Default values for configuration.
const (
	DefaultLogLevel = "info"

	DefaultParseMode = "Markdown"

	DefaultBackendBaseURL = "http://localhost:8000"
	DefaultBackendTimeout = 10 * time.Second

	DefaultAPIListenAddr      = ":8000"
	DefaultAPIReadTimeout     = 15 * time.Second
	DefaultAPIWriteTimeout    = 30 * time.Second
	DefaultAPIShutdownTimeout = 10 * time.Second
	DefaultAPIMaxPageSize     = 100

	DefaultDBPath = "retailbot.db"

	DefaultLLMProvider    = "gemini"
	DefaultLLMModel       = "gemini-2.0-flash"
	DefaultLLMTemperature = 0.7
	DefaultLLMTimeout     = 30 * time.Second
	DefaultLLMMaxRetries  = 2
	DefaultLLMRetryDelay  = 2 * time.Second

	DefaultLanguage             = "es"
	DefaultStoreName            = "TechRetail"
	DefaultProductLimit         = 100
	DefaultListingLimit         = 50
	DefaultFAQLimit             = 100
	DefaultHistoryConversations = 2
	DefaultHistoryMessages      = 4
	DefaultCatalogTTL           = 5 * time.Minute
	DefaultListingTTL           = 15 * time.Minute

	DefaultConversationIdleTimeout = 30 * time.Minute

	DefaultRateLimitInterval = time.Second
	DefaultRateLimitBurst    = 5
)

// DefaultTasks lists the scheduled tasks known to both processes.
var DefaultTasks = map[string]TaskConfig{
	"catalog_refresh":    {Enabled: true, Schedule: "0 */5 * * * *"},
	"sql_maintenance":    {Enabled: true, Schedule: "0 0 4 * * *"},
	"conversation_close": {Enabled: true, Schedule: "0 * * * * *"},
}

// DefaultMessages are the Spanish texts shipped with the bot.
var DefaultMessages = MessagesConfig{
	Welcome: "¡Hola! 👋 Soy el asistente virtual de TechRetail. Puedo ayudarte con:\n\n" +
		"/productos - Ver productos disponibles\n" +
		"/ayuda [pregunta] - Preguntas frecuentes o una consulta concreta\n" +
		"/recomendar - Recomendaciones de productos\n" +
		"/reservar <id> <cantidad> - Reservar un producto\n" +
		"/reservas - Ver tus reservas\n" +
		"/cancelar <número> - Cancelar una reserva\n" +
		"/quitar <número> <ítem> - Quitar un producto de una reserva\n" +
		"/cotizar <id> <cantidad> - Cotizar un producto\n\n" +
		"También puedes escribirme cualquier pregunta.",
	ProductsHeader:     "🛍️ *Productos disponibles:*\n\n",
	NoProducts:         "No hay productos disponibles en este momento.",
	CategoryHeader:     "🛍️ *Productos en %s:*\n\n",
	NoCategoryProducts: "Actualmente no hay productos en la categoría %s.",
	FAQHeader:          "❓ *Preguntas frecuentes:*\n\n",
	NoFAQs:             "No hay preguntas frecuentes registradas.",
	FAQHint:            "\nEscribe /ayuda <tu pregunta> para obtener una respuesta.",
	ReserveUsage:       "Uso: /reservar <id_producto> <cantidad>",
	InvalidNumbers:     "Los valores deben ser números enteros positivos.",
	ReserveSuccess:     "✅ Reservaste %d x %s.\nTotal de tu reserva #%d: $%s",
	ProductNotFound:    "❌ Producto no encontrado.",
	InsufficientStock:  "❌ No hay suficiente stock disponible para esa cantidad.",
	OrdersHeader:       "📋 *Tus reservas:*\n\n",
	OrdersFooter:       "\nUsa /cancelar <número> para cancelar una reserva.",
	NoOrders:           "No tienes reservas registradas.",
	CancelNeedsListing: "Primero consulta tus reservas con /reservas y luego usa /cancelar <número>.",
	CancelUsage:        "Uso: /cancelar <número> (el número de la lista de /reservas)",
	InvalidIndex:       "Número inválido. Consulta de nuevo tus reservas con /reservas.",
	CancelSuccess:      "✅ La reserva #%d fue cancelada y el stock fue liberado.",
	CancelNotAllowed:   "No es posible cancelar la reserva #%d en su estado actual.",
	OrderNotFound:      "❌ Reserva no encontrada.",
	RemoveUsage:        "Uso: /quitar <número> <ítem> (según la lista de /reservas)",
	RemoveSuccess:      "✅ Se quitó %s de la reserva #%d.",
	RemoveNotAllowed:   "Solo se pueden modificar reservas pendientes.",
	QuoteUsage:         "Uso: /cotizar <id_producto> <cantidad>",
	QuoteResult:        "🧾 Cotización: %d x %s ($%s c/u) = $%s",
	CancelHowTo: "Para cancelar una reserva:\n" +
		"1. Usa /reservas para ver la lista numerada.\n" +
		"2. Usa /cancelar <número> con el número de la reserva.",
	LLMFallback:        "Lo siento, ocurrió un error al procesar tu solicitud. Por favor, intenta de nuevo más tarde.",
	GeneralError:       "❌ Ocurrió un error. Por favor, intenta de nuevo más tarde.",
	BackendUnavailable: "⚠️ El servicio de inventario no está disponible en este momento. Intenta más tarde.",
	RateLimited:        "⏳ Estás enviando mensajes muy rápido. Espera un momento.",
	UnknownCommand:     "No reconozco ese comando. Usa /start para ver las opciones.",
}
