package assistant

import (
	"strings"

	"github.com/techretail/retailbot/internal/domain"
)

// Intent is a deterministic answer that skips the LLM.
type Intent string

// Intents recognised by the router.
const (
	IntentNone      Intent = ""
	IntentOrders    Intent = "orders"
	IntentCancelHow Intent = "cancel_how_to"
	IntentCatalog   Intent = "catalog"
	IntentCategory  Intent = "category"
)

// Rule maps keywords to an intent.
type Rule struct {
	Intent   Intent
	Keywords []string
}

// DefaultRules is evaluated top to bottom; the first rule with a keyword
// contained in the lower-cased text wins.
var DefaultRules = []Rule{
	{
		Intent: IntentOrders,
		Keywords: []string{
			"mis reservas", "mis pedidos", "mis órdenes", "mis ordenes", "ver reservas",
			"ver pedidos", "estado de mi pedido", "estado de mi reserva", "my orders", "my reservations",
		},
	},
	{
		Intent: IntentCancelHow,
		Keywords: []string{
			"cómo cancelo", "como cancelo", "cómo cancelar", "como cancelar", "cancelar reserva",
			"cancelar pedido", "cancelar mi", "anular", "how do i cancel", "cancel my",
		},
	},
	{
		Intent: IntentCatalog,
		Keywords: []string{
			"catálogo", "catalogo", "productos disponibles", "todos los productos", "qué venden",
			"que venden", "catalog",
		},
	},
}

// Route is the router's decision.
type Route struct {
	Intent   Intent
	Category *domain.Category
}

// Router short-circuits deterministic intents before the LLM.
type Router struct {
	rules []Rule
}

// NewRouter creates a router over rules; nil means DefaultRules.
func NewRouter(rules []Rule) *Router {
	if rules == nil {
		rules = DefaultRules
	}
	return &Router{rules: rules}
}

// Match returns the first matching keyword rule, then the first category
// whose name appears in text.
func (r *Router) Match(text string, categories []domain.Category) Route {
	lower := strings.ToLower(text)
	for _, rule := range r.rules {
		if containsAny(lower, rule.Keywords) {
			return Route{Intent: rule.Intent}
		}
	}
	for i := range categories {
		name := strings.ToLower(strings.TrimSpace(categories[i].Name))
		if name != "" && strings.Contains(lower, name) {
			return Route{Intent: IntentCategory, Category: &categories[i]}
		}
	}
	return Route{Intent: IntentNone}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// preferenceRules maps interest keywords to a preference tag. First match wins.
var preferenceRules = []struct {
	tag      string
	keywords []string
}{
	{"gaming", []string{"gaming", "gamer", "videojuego", "juegos"}},
	{"portátiles", []string{"portátil", "portatil", "laptop", "notebook"}},
	{"oficina", []string{"oficina", "trabajo", "home office"}},
	{"diseño", []string{"diseño", "edición de video", "edicion de video", "fotografía", "fotografia"}},
	{"estudiante", []string{"estudiante", "universidad", "colegio", "clases"}},
	{"económico", []string{"barato", "económico", "economico", "presupuesto", "oferta"}},
	{"audio", []string{"audífonos", "audifonos", "auriculares", "parlante", "música", "musica"}},
}

// ExtractPreference returns the preference tag expressed in text, if any.
func ExtractPreference(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range preferenceRules {
		if containsAny(lower, p.keywords) {
			return p.tag, true
		}
	}
	return "", false
}

// MergePreferences adds tag to a comma separated tag list, keeping order and
// dropping duplicates. It reports whether the list changed.
func MergePreferences(existing, tag string) (string, bool) {
	var tags []string
	for _, t := range strings.Split(existing, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if t == tag {
			return existing, false
		}
		tags = append(tags, t)
	}
	return strings.Join(append(tags, tag), ","), true
}

// Sentiment is the coarse tone of a message.
type Sentiment string

// Sentiments.
const (
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
)

var (
	negativeWords = []string{
		"malo", "mala", "pésimo", "pesimo", "terrible", "horrible", "molesto", "molesta", "enojado",
		"enojada", "decepcionado", "decepcionada", "no funciona", "no sirve", "problema", "queja",
		"reclamo", "bad", "angry", "broken",
	}
	positiveWords = []string{
		"gracias", "excelente", "genial", "perfecto", "me encanta", "buenísimo", "buenisimo",
		"increíble", "increible", "thanks", "great",
	}
)

// ClassifySentiment applies the keyword sets; negative wins over positive.
func ClassifySentiment(text string) Sentiment {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, negativeWords):
		return SentimentNegative
	case containsAny(lower, positiveWords):
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}

var followUpPhrases = []string{
	"por qué", "por que", "porqué", "más detalles", "mas detalles", "explícame", "explicame",
	"dime más", "dime mas", "cuál de", "cual de", "y ese", "y el otro", "el primero", "el segundo",
	"why", "more details", "tell me more",
}

// IsFollowUp reports whether the message asks about a previous answer.
func IsFollowUp(text string) bool {
	return containsAny(strings.ToLower(text), followUpPhrases)
}
