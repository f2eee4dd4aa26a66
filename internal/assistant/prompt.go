package assistant

import (
	"fmt"
	"strings"

	"github.com/techretail/retailbot/internal/domain"
)

// persona holds the language specific prompt texts.
type persona struct {
	intro         string
	rules         string
	contextRule   string
	historyTitle  string
	faqTitle      string
	productsTitle string
	preferences   string
	followUp      string
	empathy       string
	question      string
	userLabel     string
	botLabel      string
	noHistory     string
	noFAQs        string
	noProducts    string
	faqOnly       string
	faqNotFound   string
	recommend     string
}

var personas = map[string]persona{
	"es": {
		intro: "Eres el asistente de ventas y soporte de %s. Respondes en español, " +
			"con un tono amable, claro y breve.",
		rules: "Reglas:\n" +
			"1. Si el usuario pide una recomendación, sugiere de 2 a 3 productos del catálogo.\n" +
			"2. Para preguntas generales usa las preguntas frecuentes.\n" +
			"3. Para precio o stock de un producto usa el catálogo.\n" +
			"4. Para reservar, indica el comando /reservar <id> <cantidad>.\n" +
			"5. Si no encuentras la respuesta, di: \"No estoy seguro de cómo ayudarte con eso, " +
			"por favor intenta reformular tu pregunta.\"",
		contextRule:   "Responde únicamente a partir del siguiente contexto. No inventes productos, precios ni políticas.",
		historyTitle:  "Historial de conversación",
		faqTitle:      "Preguntas frecuentes",
		productsTitle: "Catálogo de productos",
		preferences:   "Preferencias conocidas del cliente: %s. Tenlas en cuenta al recomendar.",
		followUp:      "Nota: el mensaje es una pregunta de seguimiento. Basa tu respuesta en el intercambio anterior del historial.",
		empathy:       "Nota: el cliente parece molesto. Empieza reconociendo su inconveniente con empatía.",
		question:      "Pregunta actual del usuario",
		userLabel:     "Usuario",
		botLabel:      "Asistente",
		noHistory:     "(sin conversaciones previas)",
		noFAQs:        "(no hay preguntas frecuentes disponibles)",
		noProducts:    "(no hay productos disponibles)",
		faqOnly: "Eres un asistente de soporte al cliente de %s. Tu única fuente de verdad es la " +
			"siguiente lista de preguntas frecuentes. Responde basándote únicamente en ella, de forma concisa.",
		faqNotFound: "Si la respuesta no está en el contexto, di: \"Lo siento, no tengo información sobre eso. " +
			"Aquí tienes otras preguntas que quizás te ayuden:\" y lista las 3 preguntas más parecidas.",
		recommend: "Eres un asistente de ventas experto de %s. A partir del siguiente catálogo recomienda " +
			"los 3 mejores artículos para el cliente y explica brevemente por qué. " +
			"Separa cada recomendación con un salto de línea y no uses formato especial.",
	},
	"en": {
		intro: "You are the sales and support assistant of %s. Answer in English, " +
			"in a friendly, clear and short way.",
		rules: "Rules:\n" +
			"1. If the user asks for a recommendation, suggest 2 to 3 products from the catalog.\n" +
			"2. For general questions use the FAQs.\n" +
			"3. For a product's price or stock use the catalog.\n" +
			"4. To reserve, point to the /reservar <id> <quantity> command.\n" +
			"5. If you cannot find the answer, say: \"I'm not sure how to help with that, " +
			"please try rephrasing your question.\"",
		contextRule:   "Answer only from the following context. Do not invent products, prices or policies.",
		historyTitle:  "Conversation history",
		faqTitle:      "Frequently asked questions",
		productsTitle: "Product catalog",
		preferences:   "Known customer preferences: %s. Take them into account when recommending.",
		followUp:      "Note: this is a follow-up question. Base your answer on the previous exchange in the history.",
		empathy:       "Note: the customer seems upset. Start by acknowledging the inconvenience with empathy.",
		question:      "Current user question",
		userLabel:     "Customer",
		botLabel:      "Assistant",
		noHistory:     "(no previous conversations)",
		noFAQs:        "(no FAQs available)",
		noProducts:    "(no products available)",
		faqOnly: "You are a customer support assistant of %s. Your only source of truth is the " +
			"following FAQ list. Answer based only on it, concisely.",
		faqNotFound: "If the answer is not in the context, say: \"Sorry, I have no information about that. " +
			"Here are other questions that may help:\" and list the 3 most similar questions.",
		recommend: "You are an expert sales assistant of %s. From the following catalog recommend " +
			"the 3 best items for the customer and briefly explain why. " +
			"Separate each recommendation with a line break and do not use special formatting.",
	},
}

// PromptInput is everything the chat prompt is built from.
type PromptInput struct {
	Grounding
	Message   string
	FollowUp  bool
	Sentiment Sentiment
}

// PromptBuilder assembles LLM prompts for one store and language.
type PromptBuilder struct {
	store   string
	persona persona
}

// NewPromptBuilder creates a builder; unknown languages fall back to Spanish.
func NewPromptBuilder(store, language string) *PromptBuilder {
	p, ok := personas[language]
	if !ok {
		p = personas["es"]
	}
	return &PromptBuilder{store: store, persona: p}
}

// Chat builds the free text prompt. The context rule precedes every data
// block and the user's message always comes last.
func (b *PromptBuilder) Chat(in PromptInput) string {
	p := b.persona
	var sb strings.Builder

	fmt.Fprintf(&sb, p.intro, b.store)
	sb.WriteString("\n\n")
	sb.WriteString(p.rules)
	sb.WriteString("\n\n")
	sb.WriteString(p.contextRule)
	sb.WriteString("\n\n")

	b.section(&sb, p.historyTitle, b.history(in.History))
	b.section(&sb, p.faqTitle, orPlaceholder(FAQContext(in.FAQs), p.noFAQs))
	b.section(&sb, p.productsTitle, orPlaceholder(ProductList(in.Products), p.noProducts))

	if in.User != nil && strings.TrimSpace(in.User.Preferences) != "" {
		fmt.Fprintf(&sb, p.preferences, in.User.Preferences)
		sb.WriteString("\n")
	}
	if in.FollowUp {
		sb.WriteString(p.followUp)
		sb.WriteString("\n")
	}
	if in.Sentiment == SentimentNegative {
		sb.WriteString(p.empathy)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\n%s: \"%s\"", p.question, in.Message)
	return sb.String()
}

// FAQ builds the prompt for a direct /ayuda question.
func (b *PromptBuilder) FAQ(faqs []domain.FAQ, question string) string {
	p := b.persona
	var sb strings.Builder

	fmt.Fprintf(&sb, p.faqOnly, b.store)
	sb.WriteString("\n\n")
	b.section(&sb, p.faqTitle, orPlaceholder(FAQContext(faqs), p.noFAQs))
	sb.WriteString(p.faqNotFound)
	fmt.Fprintf(&sb, "\n\n%s: \"%s\"", p.question, question)
	return sb.String()
}

// Recommend builds the product recommendation prompt.
func (b *PromptBuilder) Recommend(g Grounding) string {
	p := b.persona
	var sb strings.Builder

	fmt.Fprintf(&sb, p.recommend, b.store)
	sb.WriteString("\n")
	if g.User != nil && strings.TrimSpace(g.User.Preferences) != "" {
		fmt.Fprintf(&sb, p.preferences, g.User.Preferences)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	b.section(&sb, p.productsTitle, orPlaceholder(ProductList(g.Products), p.noProducts))
	return strings.TrimRight(sb.String(), "\n")
}

func (b *PromptBuilder) section(sb *strings.Builder, title, body string) {
	fmt.Fprintf(sb, "--- %s ---\n%s\n--- /%s ---\n\n", title, body, title)
}

func (b *PromptBuilder) history(turns []Turn) string {
	if len(turns) == 0 {
		return b.persona.noHistory
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		label := b.persona.userLabel
		if t.Sender != domain.SenderUser {
			label = b.persona.botLabel
		}
		lines = append(lines, label+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
